// Package watch rebuilds when declaration files change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDelay is how long the watcher waits for more changes before it
// reports a batch
const DefaultDelay = 200 * time.Millisecond

// ChangeFunc receives the sorted paths changed since the last call
type ChangeFunc func(ctx context.Context, files []string) error

// Watcher reports batches of changed declaration files. Changes are
// collected until no new change arrives for the configured delay.
type Watcher struct {
	fs       *fsnotify.Watcher
	delay    time.Duration
	logger   *zap.Logger
	onChange ChangeFunc
}

// New watches dirs. Watches are in place when New returns.
func New(dirs []string, delay time.Duration, logger *zap.Logger, onChange ChangeFunc) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("change callback cannot be nil")
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		logger.Debug("watching directory", zap.String("dir", dir))
	}

	return &Watcher{fs: fs, delay: delay, logger: logger, onChange: onChange}, nil
}

// Run delivers change batches until ctx is done. The callback runs on the
// Run goroutine, so batches never overlap. A callback error is logged and
// watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	pending := make(map[string]struct{})
	var flush <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			flush = time.After(w.delay)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-flush:
			flush = nil
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
			}
			sort.Strings(files)
			pending = make(map[string]struct{})

			w.logger.Info("declarations changed", zap.Strings("files", files))
			if err := w.onChange(ctx, files); err != nil {
				w.logger.Error("rebuild failed", zap.Error(err))
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch filepath.Ext(base) {
	case ".yml", ".yaml":
		return true
	}
	return false
}
