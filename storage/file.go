package storage

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

const (
	fileSuffix = ".kv"
	tempSuffix = ".tmp"

	// fileEventSettle collapses the create/write/chmod burst a single
	// atomic rename produces into one notification per key.
	fileEventSettle = 50 * time.Millisecond
)

// File stores each key as its own file inside a directory. Every process
// that opens the same directory sees the others' writes through fsnotify,
// which makes it the cross-process equivalent of the browser storage event.
//
// Notifications are only produced by the directory watcher, so they arrive
// asynchronously for local writes as well as remote ones.
type File struct {
	notifier
	dir     string
	quota   int
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending map[string]*time.Timer
	done    chan struct{}
	closed  bool
}

// NewFile opens (creating if needed) a file store rooted at dir.
func NewFile(dir string, quota int) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, serr.Wrap(err, "failed to create storage directory")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, serr.Wrap(err, "failed to create storage watcher")
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, serr.Wrap(err, "failed to watch storage directory")
	}

	f := &File{
		dir:     dir,
		quota:   quota,
		watcher: w,
		pending: make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}
	go f.watchLoop()
	return f, nil
}

func (f *File) pathFor(key string) string {
	return filepath.Join(f.dir, base64.RawURLEncoding.EncodeToString([]byte(key))+fileSuffix)
}

func keyFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, fileSuffix))
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func (f *File) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *File) Get(key string) ([]byte, bool, error) {
	if f.isClosed() {
		return nil, false, ErrClosed
	}
	data, err := os.ReadFile(f.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, serr.Wrap(err, "failed to read storage file")
	}
	return data, true, nil
}

// Set writes through a temp file and a rename so readers in other
// processes never observe a partial value.
func (f *File) Set(key string, value []byte) error {
	if f.isClosed() {
		return ErrClosed
	}
	if err := checkQuota(f.quota, key, value); err != nil {
		return err
	}

	target := f.pathFor(key)
	tmp, err := os.CreateTemp(f.dir, "*"+tempSuffix)
	if err != nil {
		return serr.Wrap(err, "failed to create temp storage file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return serr.Wrap(err, "failed to write temp storage file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return serr.Wrap(err, "failed to close temp storage file")
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return serr.Wrap(err, "failed to move storage file into place")
	}
	return nil
}

func (f *File) Remove(key string) error {
	if f.isClosed() {
		return ErrClosed
	}
	if err := os.Remove(f.pathFor(key)); err != nil && !os.IsNotExist(err) {
		return serr.Wrap(err, "failed to remove storage file")
	}
	return nil
}

func (f *File) Subscribe(fn func(Change)) func() {
	return f.subscribe(fn)
}

func (f *File) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	for k, t := range f.pending {
		t.Stop()
		delete(f.pending, k)
	}
	f.mu.Unlock()

	close(f.done)
	f.reset()
	return f.watcher.Close()
}

func (f *File) watchLoop() {
	for {
		select {
		case <-f.done:
			return

		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			key, ok := keyFromPath(event.Name)
			if !ok {
				continue
			}
			f.schedule(key)

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			logger.LogErr(err, "storage watcher error", "dir", f.dir)
		}
	}
}

// schedule restarts the settle timer for key; when it fires the key's
// current state decides whether listeners see a set or a remove.
func (f *File) schedule(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	if t, exists := f.pending[key]; exists {
		t.Stop()
	}
	f.pending[key] = time.AfterFunc(fileEventSettle, func() {
		f.mu.Lock()
		delete(f.pending, key)
		closed := f.closed
		f.mu.Unlock()
		if closed {
			return
		}

		kind := ChangeSet
		if _, err := os.Stat(f.pathFor(key)); os.IsNotExist(err) {
			kind = ChangeRemove
		}
		f.publish(Change{Key: key, Kind: kind})
	})
}
