package catalog

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Holder keeps the current catalog and swaps it when the file changes on disk.
type Holder struct {
	path     string
	current  atomic.Pointer[Catalog]
	logger   *zap.Logger
	debounce time.Duration
	onReload func(*Catalog, error)
}

func NewHolder(path string, logger *zap.Logger) (*Holder, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Holder{
		path:     path,
		logger:   logger,
		debounce: 500 * time.Millisecond,
	}
	h.current.Store(c)
	return h, nil
}

// NewStaticHolder wraps an already loaded catalog that is never reloaded.
func NewStaticHolder(c *Catalog) *Holder {
	h := &Holder{logger: zap.NewNop()}
	h.current.Store(c)
	return h
}

func (h *Holder) Catalog() *Catalog {
	return h.current.Load()
}

// OnReload registers a callback run after every reload attempt. On failure
// the catalog passed is the one still in use.
func (h *Holder) OnReload(fn func(*Catalog, error)) {
	h.onReload = fn
}

// Reload reads the file again. A file that fails to parse leaves the previous
// catalog in place.
func (h *Holder) Reload() error {
	c, err := Load(h.path)
	if err != nil {
		if h.onReload != nil {
			h.onReload(h.Catalog(), err)
		}
		return err
	}
	h.current.Store(c)
	if h.onReload != nil {
		h.onReload(c, nil)
	}
	return nil
}

// Watch reloads the catalog whenever its file is written or replaced, until
// ctx is done. Editors often save by rename, so the directory is watched
// rather than the file itself.
func (h *Holder) Watch(ctx context.Context) error {
	if h.path == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(h.path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(h.debounce)
			} else {
				timer.Reset(h.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := h.Reload(); err != nil {
				h.logger.Warn("catalog reload failed, keeping previous", zap.String("path", h.path), zap.Error(err))
				continue
			}
			h.logger.Info("catalog reloaded", zap.String("path", h.path), zap.Int("tables", len(h.Catalog().Tables())))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			h.logger.Warn("catalog watcher error", zap.Error(err))
		}
	}
}
