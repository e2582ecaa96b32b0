package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/labdesk/labctl/internal/storage"
)

// ErrNotWatchable is returned by Watch when the storage has no directory
// another process could change.
var ErrNotWatchable = errors.New("session: storage cannot be watched")

const watchDebounce = 100 * time.Millisecond

// Watch reloads the session whenever another process signs in or out
// through the same file storage. Each reload is announced on the returned
// channel, which is closed when ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	fs, ok := s.st.(*storage.FileStorage)
	if !ok {
		return nil, ErrNotWatchable
	}
	if err := os.MkdirAll(fs.Dir(), 0700); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(fs.Dir()); err != nil {
		w.Close() //nolint:errcheck
		return nil, err
	}

	changed := make(chan struct{}, 1)
	go s.watchLoop(ctx, w, changed)
	return changed, nil
}

func (s *Store) watchLoop(ctx context.Context, w *fsnotify.Watcher, changed chan<- struct{}) {
	defer close(changed)
	defer w.Close() //nolint:errcheck

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			switch filepath.Base(event.Name) {
			case storage.KeyToken, storage.KeyUserInfo:
			default:
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn("session watcher", zap.Error(err))

		case <-fire:
			fire = nil
			if err := s.Reload(); err != nil {
				s.logger.Warn("reload session", zap.Error(err))
				continue
			}
			select {
			case changed <- struct{}{}:
			default:
			}
		}
	}
}
