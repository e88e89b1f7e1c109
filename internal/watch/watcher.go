// Package watch implements dev mode: a debounced file watcher that triggers
// rebuilds, a websocket live-reload server, and a dev HTTP server over the
// build output.
package watch

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// sourceExts are the file extensions that trigger a rebuild.
var sourceExts = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
	".html": true, ".css": true, ".yaml": true, ".yml": true,
}

// ignoredDirs are never watched: build output, dependencies, VCS.
var ignoredDirs = map[string]bool{
	".agentuity":   true,
	"node_modules": true,
	".git":         true,
}

// FileWatcher monitors the project source tree and triggers a debounced
// callback with the batch of changed files.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	log       *zap.Logger
	onChange  func([]string) error
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewFileWatcher creates a watcher over the project root.
func NewFileWatcher(log *zap.Logger, onChange func([]string) error) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	fw := &FileWatcher{
		watcher:  watcher,
		log:      log,
		onChange: onChange,
		stopChan: make(chan struct{}),
	}
	fw.debouncer = NewDebouncer(100*time.Millisecond, func(files []string) {
		if err := fw.onChange(files); err != nil {
			fw.log.Error("rebuild failed", zap.Error(err))
		}
	})
	return fw, nil
}

// Start registers every source directory under rootDir and begins watching.
// Generated and output directories are excluded so rebuilds never retrigger
// themselves.
func (fw *FileWatcher) Start(rootDir string) error {
	err := filepath.WalkDir(rootDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != rootDir && (ignoredDirs[entry.Name()] || strings.HasPrefix(entry.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	fw.log.Debug("watching project", zap.String("root", rootDir))

	fw.wg.Add(1)
	go fw.watch()
	return nil
}

// Stop stops the file watcher
func (fw *FileWatcher) Stop() error {
	select {
	case <-fw.stopChan:
		return nil
	default:
		close(fw.stopChan)
	}
	fw.wg.Wait()
	fw.debouncer.Stop()
	return fw.watcher.Close()
}

// watch is the main event loop
func (fw *FileWatcher) watch() {
	defer fw.wg.Done()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if shouldIgnore(event.Name) {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if sourceExts[filepath.Ext(event.Name)] {
					fw.log.Debug("file changed", zap.String("file", event.Name))
					fw.debouncer.Add(event.Name)
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warn("watch error", zap.Error(err))

		case <-fw.stopChan:
			return
		}
	}
}

// shouldIgnore filters output directories, dependencies and generated files,
// which would otherwise retrigger the build that produced them.
func shouldIgnore(path string) bool {
	slashed := filepath.ToSlash(path)
	for dir := range ignoredDirs {
		if strings.Contains(slashed, "/"+dir+"/") || strings.HasSuffix(slashed, "/"+dir) {
			return true
		}
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	return strings.Contains(base, ".generated.")
}

// Debouncer batches rapid file changes: every Add resets the timer, and once
// the delay elapses without a new change the notify function receives the
// deduplicated batch.
type Debouncer struct {
	delay   time.Duration
	notify  func([]string)
	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}
}

// NewDebouncer creates a debouncer that calls notify after delay of quiet.
func NewDebouncer(delay time.Duration, notify func([]string)) *Debouncer {
	return &Debouncer{
		delay:   delay,
		notify:  notify,
		pending: make(map[string]struct{}),
	}
}

// Add records a changed file and restarts the quiet-period timer.
func (d *Debouncer) Add(file string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[file] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

// flush hands the accumulated batch to notify. The lock is released before
// the call so a slow rebuild never blocks new Adds.
func (d *Debouncer) flush() {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	batch := make([]string, 0, len(d.pending))
	for file := range d.pending {
		batch = append(batch, file)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	if d.notify != nil {
		d.notify(batch)
	}
}

// Stop cancels any pending flush.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
