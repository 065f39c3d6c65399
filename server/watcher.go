package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the reloader waits to coalesce a burst of
// file changes before reloading.
const DefaultDebounce = 500 * time.Millisecond

// Reloader watches data roots and calls reload after changes to data
// files, debounced. A failed reload is logged and the previous dataset
// stays in service.
type Reloader struct {
	roots    []string
	debounce time.Duration
	reload   func(context.Context) error
	log      *slog.Logger
	fsw      *fsnotify.Watcher

	mu    sync.Mutex
	dirty bool
}

// NewReloader builds a Reloader over the data roots. reload is invoked
// from the watch goroutine; it should swap the server's dataset on
// success. A nil logger falls back to slog.Default.
func NewReloader(roots []string, debounce time.Duration, reload func(context.Context) error, logger *slog.Logger) (*Reloader, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Reloader{
		roots:    roots,
		debounce: debounce,
		reload:   reload,
		log:      logger,
		fsw:      fsw,
	}, nil
}

// Start adds recursive watches and begins processing events until ctx
// is cancelled.
func (rl *Reloader) Start(ctx context.Context) error {
	for _, root := range rl.roots {
		if err := rl.addRecursive(root); err != nil {
			rl.fsw.Close()
			return err
		}
	}
	go rl.run(ctx)
	rl.log.Info("watching data roots",
		slog.Any("roots", rl.roots),
		slog.Duration("debounce", rl.debounce))
	return nil
}

// Stop closes the underlying watcher.
func (rl *Reloader) Stop() error {
	return rl.fsw.Close()
}

func (rl *Reloader) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if base := filepath.Base(path); strings.HasPrefix(base, ".") && path != root {
			return filepath.SkipDir
		}
		if err := rl.fsw.Add(path); err != nil {
			rl.log.Warn("watch directory failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return nil
	})
}

func (rl *Reloader) run(ctx context.Context) {
	ticker := time.NewTicker(rl.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-rl.fsw.Events:
			if !ok {
				return
			}
			rl.handleEvent(ev)
		case err, ok := <-rl.fsw.Errors:
			if !ok {
				return
			}
			rl.log.Error("watch error", slog.String("error", err.Error()))
		case <-ticker.C:
			rl.flush(ctx)
		}
	}
}

func (rl *Reloader) handleEvent(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := rl.addRecursive(ev.Name); err != nil {
				rl.log.Warn("watch new directory failed",
					slog.String("path", ev.Name),
					slog.String("error", err.Error()))
			}
			return
		}
	}
	if !dataFile(ev.Name) {
		return
	}
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rl.mu.Lock()
	rl.dirty = true
	rl.mu.Unlock()
	rl.log.Debug("change detected",
		slog.String("path", ev.Name),
		slog.String("op", ev.Op.String()))
}

func dataFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttl", ".nt":
		return true
	}
	return false
}

func (rl *Reloader) flush(ctx context.Context) {
	rl.mu.Lock()
	dirty := rl.dirty
	rl.dirty = false
	rl.mu.Unlock()
	if !dirty {
		return
	}

	start := time.Now()
	if err := rl.reload(ctx); err != nil {
		rl.log.Error("reload failed, keeping current dataset",
			slog.String("error", err.Error()))
		return
	}
	rl.log.Info("dataset reloaded", slog.Duration("elapsed", time.Since(start)))
}
