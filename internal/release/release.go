// Package release looks up the newest published labctl release.
package release

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// LatestURL is the GitHub endpoint for the newest release.
const LatestURL = "https://api.github.com/repos/labdesk/labctl/releases/latest"

// Latest returns the tag of the newest release at url, without the leading "v".
func Latest(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("release.Latest: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("release.Latest: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release.Latest: status %d", resp.StatusCode)
	}
	var body struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("release.Latest: decode: %w", err)
	}
	return strings.TrimPrefix(body.TagName, "v"), nil
}

// IsNewer reports whether latest is a higher major.minor.patch than current.
// Unparseable parts count as zero.
func IsNewer(latest, current string) bool {
	l, c := parse(latest), parse(current)
	for i := range l {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

func parse(v string) [3]int {
	var out [3]int
	parts := strings.SplitN(strings.TrimPrefix(v, "v"), ".", 3)
	for i, p := range parts {
		n, _ := strconv.Atoi(p) //nolint:errcheck
		out[i] = n
	}
	return out
}
