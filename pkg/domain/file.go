package domain

// Upload categories accepted by the file endpoint.
const (
	FileAvatar   = "avatar"
	FileLab      = "lab"
	FileDocument = "document"
)

// ValidFileType reports whether t is an accepted upload category.
func ValidFileType(t string) bool {
	switch t {
	case FileAvatar, FileLab, FileDocument:
		return true
	}
	return false
}

// FileInfo describes an uploaded file.
type FileInfo struct {
	URL          string `json:"url"`
	Path         string `json:"path,omitempty"`
	Name         string `json:"fileName,omitempty"`
	OriginalName string `json:"originalName,omitempty"`
	Size         int64  `json:"size,omitempty"`
	MimeType     string `json:"contentType,omitempty"`
	UploadTime   Time   `json:"uploadTime"`
}

// Blob is a binary download such as an exported report.
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
}
