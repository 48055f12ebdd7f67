package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/thruflo/snapview/internal/logging"
)

// FileSource reads the JSON progress file the pipeline writes.
// A missing file reads as a zero snapshot.
type FileSource struct {
	path string

	mu   sync.Mutex
	snap Snapshot

	watcher *fsnotify.Watcher
	changes chan struct{}
	done    chan struct{}
}

// NewFileSource creates a FileSource for the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the progress file path.
func (f *FileSource) Path() string {
	return f.path
}

// Refresh re-reads the progress file.
func (f *FileSource) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.mu.Lock()
			f.snap = Snapshot{}
			f.mu.Unlock()
			return nil
		}
		return fmt.Errorf("failed to read progress file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse progress file: %w", err)
	}

	f.mu.Lock()
	f.snap = snap
	f.mu.Unlock()
	return nil
}

// Snapshot returns the last successfully read snapshot.
func (f *FileSource) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

// Watch starts an fsnotify watch on the file's directory. Writes, creates
// and renames of the progress file are reported on Changes.
func (f *FileSource) Watch() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.watcher != nil {
		return fmt.Errorf("already watching %s", f.path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	f.watcher = watcher
	f.changes = make(chan struct{}, 1)
	f.done = make(chan struct{})

	go f.watchLoop(watcher, f.changes, f.done)
	return nil
}

func (f *FileSource) watchLoop(watcher *fsnotify.Watcher, changes chan<- struct{}, done chan<- struct{}) {
	defer close(done)

	name := filepath.Clean(f.path)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			// Coalesce: one pending notification is enough.
			select {
			case changes <- struct{}{}:
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Debug("progress file watch error", "path", f.path, "error", err)
		}
	}
}

// Changes returns a channel signalled when the progress file changes.
// It is nil until Watch succeeds.
func (f *FileSource) Changes() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.changes
}

// Close stops the watch, if any.
func (f *FileSource) Close() error {
	f.mu.Lock()
	watcher := f.watcher
	done := f.done
	f.watcher = nil
	f.mu.Unlock()

	if watcher == nil {
		return nil
	}
	err := watcher.Close()
	<-done
	return err
}
