package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	bdb, err := OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger() error: %v", err)
	}
	t.Cleanup(func() { bdb.Close() }) //nolint:errcheck
	return map[string]Storage{
		"file":   NewFileStorage(filepath.Join(t.TempDir(), "state")),
		"badger": bdb,
		"memory": NewMemoryStorage(),
	}
}

func TestStorageRoundTrip(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := st.Get(KeyToken); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get() on empty store error = %v, want ErrNotFound", err)
			}
			if err := st.Set(KeyToken, []byte("abc")); err != nil {
				t.Fatalf("Set() error: %v", err)
			}
			got, err := st.Get(KeyToken)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if string(got) != "abc" {
				t.Errorf("Get() = %q, want %q", got, "abc")
			}
			if err := st.Set(KeyToken, []byte("def")); err != nil {
				t.Fatalf("Set() overwrite error: %v", err)
			}
			if got, _ := st.Get(KeyToken); string(got) != "def" {
				t.Errorf("Get() after overwrite = %q, want %q", got, "def")
			}
			if err := st.Delete(KeyToken); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if _, err := st.Get(KeyToken); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
			}
			if err := st.Delete(KeyToken); err != nil {
				t.Errorf("Delete() of missing key error: %v", err)
			}
		})
	}
}

func TestFileStoragePermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "labctl")
	st := NewFileStorage(dir)
	if err := st.Set(KeyToken, []byte("secret")); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, KeyToken))
	if err != nil {
		t.Fatalf("Stat() error: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 600", perm)
	}
	dirInfo, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Stat(dir) error: %v", err)
	}
	if perm := dirInfo.Mode().Perm(); perm != 0700 {
		t.Errorf("dir mode = %o, want 700", perm)
	}
}

func TestFileStorageRejectsPathKeys(t *testing.T) {
	st := NewFileStorage(t.TempDir())
	for _, key := range []string{"", "../escape", "a/b", ".."} {
		if err := st.Set(key, []byte("x")); err == nil {
			t.Errorf("Set(%q) succeeded, want error", key)
		}
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("etcd", t.TempDir()); err == nil {
		t.Error("Open() with unknown backend succeeded")
	}
}
