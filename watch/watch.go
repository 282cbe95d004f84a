// Package watch reruns generation passes when module sources change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/shimgen/config"
	"github.com/teranos/shimgen/errors"
	"github.com/teranos/shimgen/logger"
)

// DefaultDebounce applies when Options.Debounce is zero
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Watcher
type Options struct {
	// Roots are watched recursively
	Roots []string

	// Ignore lists directories whose events never trigger a pass, such as the output root
	Ignore []string

	Debounce time.Duration
	Log      *zap.SugaredLogger
}

// PassFunc runs one generation pass
type PassFunc func(ctx context.Context) error

// Watcher coalesces file events into passes. Passes never overlap.
type Watcher struct {
	watcher  *fsnotify.Watcher
	ignore   []string
	debounce time.Duration
	log      *zap.SugaredLogger

	mu    sync.Mutex
	timer *time.Timer

	// pending holds at most one queued pass
	pending chan struct{}
}

// New watches every directory below opts.Roots
func New(opts Options) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	w := &Watcher{
		watcher:  fw,
		debounce: opts.Debounce,
		log:      opts.Log,
		pending:  make(chan struct{}, 1),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.log == nil {
		w.log = logger.ComponentLogger("shimgen.watch")
	}
	for _, dir := range opts.Ignore {
		if abs, err := filepath.Abs(dir); err == nil {
			w.ignore = append(w.ignore, abs)
		}
	}
	for _, root := range opts.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "resolve %s", root)
		}
		if err := w.addTree(abs); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// addTree watches dir and its subdirectories
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if (path != dir && skipDir(d.Name())) || w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		return nil
	})
}

func skipDir(name string) bool {
	return name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".")
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Relevant reports whether a change to path can alter generated output
func Relevant(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, "_test.go"):
		return false
	case strings.HasSuffix(base, ".go"):
		return true
	}
	return base == "go.mod" || base == "go.sum" || base == config.ProjectFileName
}

// Run calls pass after each debounced batch of changes until ctx is done.
// Pass errors are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, pass PassFunc) error {
	go w.loop(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.pending:
			start := time.Now()
			if err := pass(ctx); err != nil {
				w.log.Errorw("Pass failed", logger.FieldError, err)
			} else {
				w.log.Infow("Pass complete", logger.FieldDurationMS, time.Since(start).Milliseconds())
			}
		}
	}
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnw("Watcher error", logger.FieldError, err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if w.ignored(event.Name) {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warnw("Could not watch new directory", logger.FieldPath, event.Name, logger.FieldError, err)
			}
			return
		}
	}
	if event.Op == fsnotify.Chmod || !Relevant(event.Name) {
		return
	}
	w.log.Debugw("Change detected", logger.FieldPath, event.Name, "op", event.Op.String())
	w.schedule()
}

// schedule restarts the debounce timer
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.pending <- struct{}{}:
		default:
		}
	})
}

// Close stops watching
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}
