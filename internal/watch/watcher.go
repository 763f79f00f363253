package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Options configures a Watcher.
type Options struct {
	Dirs         []string
	Extensions   []string // matched case-insensitively, with the dot
	Recursive    bool
	Debounce     time.Duration
	BackupSuffix string // empty disables backups
}

// Watcher upgrades legacy files as they appear in watched directories.
type Watcher struct {
	opts Options
	log  *zap.Logger

	fsnotify *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*pendingUpgrade
	wg      sync.WaitGroup
}

type pendingUpgrade struct {
	timer *time.Timer
}

// New creates a Watcher. Directories are registered when Run starts.
func New(opts Options, log *zap.Logger) (*Watcher, error) {
	if len(opts.Dirs) == 0 {
		return nil, errors.New("watch: no directories configured")
	}
	if log == nil {
		log = zap.NewNop()
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		opts:     opts,
		log:      log,
		fsnotify: fsWatch,
		pending:  make(map[string]*pendingUpgrade),
	}, nil
}

// Run upgrades matching files already present, then handles file events
// until ctx is cancelled. The underlying watcher is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.shutdown()

	for _, dir := range w.opts.Dirs {
		if err := w.addDir(dir); err != nil {
			return err
		}
	}
	w.log.Info("watching", zap.Strings("dirs", w.opts.Dirs), zap.Bool("recursive", w.opts.Recursive))

	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return nil
			}
			w.handleEvent(e)

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", zap.Error(err))

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) handleEvent(e fsnotify.Event) {
	if e.Op&fsnotify.Create != 0 && w.opts.Recursive {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := w.addDir(e.Name); err != nil {
				w.log.Warn("cannot watch new directory", zap.String("dir", e.Name), zap.Error(err))
			}
			return
		}
	}

	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 && w.matches(e.Name) {
		w.schedule(e.Name)
	}
}

// addDir registers dir (and its subdirectories when recursive) and
// schedules every matching file inside it.
func (w *Watcher) addDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !w.opts.Recursive {
				return filepath.SkipDir
			}
			w.log.Debug("watching directory", zap.String("dir", path))
			return w.fsnotify.Add(path)
		}
		if w.matches(path) {
			w.schedule(path)
		}
		return nil
	})
}

func (w *Watcher) matches(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	ext := filepath.Ext(path)
	for _, want := range w.opts.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// schedule upgrades path once no event for it arrived during the debounce
// window.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// A timer that already fired is left to finish; a fresh one replaces it.
	if p, ok := w.pending[path]; ok && p.timer.Stop() {
		p.timer.Reset(w.opts.Debounce)
		return
	}

	p := &pendingUpgrade{}
	w.pending[path] = p
	w.wg.Add(1)
	p.timer = time.AfterFunc(w.opts.Debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.pending[path] == p {
			delete(w.pending, path)
		}
		w.mu.Unlock()

		w.upgrade(path)
	})
}

func (w *Watcher) upgrade(path string) {
	res, err := UpgradeFile(path, w.opts.BackupSuffix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		w.log.Warn("skipping file", zap.String("path", path), zap.Error(err))
		return
	}

	if !res.Upgraded {
		w.log.Debug("already current", zap.String("path", path), zap.Int("meshes", res.Meshes))
		return
	}
	w.log.Info("upgraded legacy file",
		zap.String("path", path),
		zap.Stringer("from", res.Revision),
		zap.Int("meshes", res.Meshes),
		zap.String("backup", res.Backup),
	)
}

// shutdown stops pending timers, waits for running upgrades and closes
// the fsnotify watcher.
func (w *Watcher) shutdown() {
	w.mu.Lock()
	for path, p := range w.pending {
		if p.timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
	w.fsnotify.Close()
}
