package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// settle is the quiet period after the last event before a reload
const settle = 200 * time.Millisecond

// Watcher reloads the settings file when it changes on disk
type Watcher struct {
	fs      afero.Fs
	path    string
	logger  *zap.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher watches the directory holding path; events for other files are ignored
func NewWatcher(fs afero.Fs, path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	return &Watcher{fs: fs, path: path, logger: logger, watcher: w}, nil
}

// Run delivers a freshly loaded Config to onChange after each change,
// until ctx is done. It closes the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context, onChange func(Config)) {
	defer w.watcher.Close()

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				timer.Reset(settle)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			cfg := Load(w.fs, w.path, w.logger)
			w.logger.Info("config reloaded",
				zap.Int("interval_seconds", cfg.IntervalSeconds),
				zap.Bool("tray", cfg.Tray))
			onChange(cfg)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}
