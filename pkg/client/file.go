package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/labdesk/labctl/pkg/domain"
)

// Upload is one file to send.
type Upload struct {
	Name string
	Data io.Reader
}

// --- File methods ---

// UploadFile uploads one file as the "file" part with a "type" field.
func (c *Client) UploadFile(ctx context.Context, fileType string, up Upload) (*domain.FileInfo, error) {
	if !domain.ValidFileType(fileType) {
		return nil, fmt.Errorf("client.UploadFile: unknown file type %q", fileType)
	}
	body, contentType, err := multipartBody(fileType, "file", up)
	if err != nil {
		return nil, fmt.Errorf("client.UploadFile: %w", err)
	}
	var info domain.FileInfo
	err = c.do(ctx, request{method: http.MethodPost, path: "/api/file/upload", raw: body, contentType: contentType}, &info)
	if err != nil {
		return nil, fmt.Errorf("client.UploadFile: %w", err)
	}
	return &info, nil
}

// UploadBatch uploads several files in one request as repeated "files" parts.
func (c *Client) UploadBatch(ctx context.Context, fileType string, ups ...Upload) ([]domain.FileInfo, error) {
	if !domain.ValidFileType(fileType) {
		return nil, fmt.Errorf("client.UploadBatch: unknown file type %q", fileType)
	}
	body, contentType, err := multipartBody(fileType, "files", ups...)
	if err != nil {
		return nil, fmt.Errorf("client.UploadBatch: %w", err)
	}
	var infos []domain.FileInfo
	err = c.do(ctx, request{method: http.MethodPost, path: "/api/file/upload-batch", raw: body, contentType: contentType}, &infos)
	if err != nil {
		return nil, fmt.Errorf("client.UploadBatch: %w", err)
	}
	return infos, nil
}

// DeleteFile removes an uploaded file by its server path.
func (c *Client) DeleteFile(ctx context.Context, path string) error {
	params := url.Values{}
	params.Set("path", path)
	if err := c.del(ctx, "/api/file/delete", params, nil); err != nil {
		return fmt.Errorf("client.DeleteFile: %w", err)
	}
	return nil
}

func multipartBody(fileType, field string, ups ...Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("type", fileType); err != nil {
		return nil, "", err
	}
	for _, up := range ups {
		part, err := w.CreateFormFile(field, up.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, up.Data); err != nil {
			return nil, "", fmt.Errorf("read %s: %w", up.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
