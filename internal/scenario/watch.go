package scenario

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	debounce time.Duration
	logger   *slog.Logger
}

// WithDebounce sets how long Watch waits after the last change before
// calling back. Editors often write a file in several steps.
func WithDebounce(d time.Duration) WatchOption {
	return func(c *watchConfig) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithWatchLogger sets the logger used by Watch.
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(c *watchConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Watch calls fn each time the file at path changes, until ctx is done.
//
// The parent directory is watched rather than the file, so editors that
// replace the file on save keep triggering. Errors from fn are logged and
// watching continues. Watch returns nil when ctx is cancelled.
func Watch(ctx context.Context, path string, fn func(context.Context) error, opts ...WatchOption) error {
	cfg := watchConfig{
		debounce: DefaultDebounce,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}
	cfg.logger.Info("watching scenario", "path", target)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(cfg.debounce)
			} else {
				timer.Reset(cfg.debounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			cfg.logger.Warn("watch error", "path", target, "err", err)

		case <-fire:
			fire = nil
			cfg.logger.Debug("scenario changed", "path", target)
			if err := fn(ctx); err != nil {
				cfg.logger.Error("scenario run failed", "path", target, "err", err)
			}
		}
	}
}
