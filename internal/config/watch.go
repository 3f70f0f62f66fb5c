package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/yourusername/winsync/internal/logging"
)

// Watch calls fn with the reloaded config every time the file at path is
// written or created, until ctx is done. Parse errors are passed to fn
// and watching continues. The directory is watched so editors that save by
// rename are seen.
func Watch(ctx context.Context, path string, fn func(*Config, error)) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	logging.Debug().Str("path", path).Msg("watching config")

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if filepath.Clean(event.Name) != path {
					continue
				}

				cfg, err := LoadConfig(path)
				if err != nil {
					logging.Warn().Err(err).Str("path", path).Msg("config reload failed")
				} else {
					logging.Info().Str("path", path).Str("revision", cfg.Revision()).Msg("config reloaded")
				}
				fn(cfg, err)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn().Err(err).Msg("file watcher error")
			}
		}
	}()

	return nil
}
