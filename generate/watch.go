package generate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

// Watch regenerates cfg whenever a Go source file in one of dirs changes.
// Writes to the configured outputs are ignored. It blocks until ctx is done.
func (g *Generator) Watch(
	ctx context.Context,
	cfg *Config,
	dirs []string,
) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	outputs := map[string]bool{}
	for _, p := range cfg.Proxies {
		if abs, err := filepath.Abs(p.Output); err == nil {
			outputs[abs] = true
		}
	}

	g.logger.Info("watching for changes", "dirs", dirs)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event, outputs) {
				continue
			}
			g.logger.Debug("source changed", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(defaultDebounce)
			} else {
				timer.Reset(defaultDebounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			if err := g.GenerateAll(cfg); err != nil {
				g.logger.Error("regeneration failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			g.logger.Error("watcher error", "error", err)
		}
	}
}

func relevant(event fsnotify.Event, outputs map[string]bool) bool {
	if !strings.HasSuffix(event.Name, ".go") || strings.HasSuffix(event.Name, "_test.go") {
		return false
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	if abs, err := filepath.Abs(event.Name); err == nil && outputs[abs] {
		return false
	}

	return true
}
