package tui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
)

func TestCheckVersionSkipsDevBuilds(t *testing.T) {
	if cmd := checkVersion("http://example.invalid", "dev"); cmd != nil {
		t.Error("expected nil cmd for dev build")
	}
	if cmd := checkVersion("http://example.invalid", ""); cmd != nil {
		t.Error("expected nil cmd for empty version")
	}
	if cmd := checkVersion("", "0.4.0"); cmd != nil {
		t.Error("expected nil cmd without a release url")
	}
}

func tagServer(t *testing.T, tag string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tag == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"tag_name": tag}) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestCheckVersionFindsUpdate(t *testing.T) {
	msg := checkVersion(tagServer(t, "v0.5.0"), "0.4.0")().(versionCheckMsg)
	if !msg.hasUpdate {
		t.Error("expected hasUpdate=true for 0.5.0 > 0.4.0")
	}
	if msg.latestVersion != "v0.5.0" {
		t.Errorf("latestVersion = %q, want v0.5.0", msg.latestVersion)
	}
}

func TestCheckVersionNoUpdate(t *testing.T) {
	msg := checkVersion(tagServer(t, "v0.4.0"), "0.4.0")().(versionCheckMsg)
	if msg.hasUpdate {
		t.Error("expected hasUpdate=false for same version")
	}
}

func TestCheckVersionNotFound(t *testing.T) {
	msg := checkVersion(tagServer(t, ""), "0.4.0")().(versionCheckMsg)
	if msg.hasUpdate {
		t.Error("expected hasUpdate=false on 404")
	}
}
