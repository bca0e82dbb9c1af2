package file

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/casetrack/internal/logger"
)

// Watch reports writes to the config file on the returned channel
// until the context is cancelled. The directory rather than the file
// is watched so editors that replace the file atomically are seen.
func Watch(ctx context.Context, path string) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	changed := make(chan struct{}, 1)

	go func() {
		defer watcher.Close()
		defer close(changed)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case changed <- struct{}{}:
				default: // A pending notification is enough.
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Debug("Config watch: %v", err)
			}
		}
	}()

	return changed, nil
}
