package adapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/HatiCode/plantwater/pkg/history"
)

// TailSource follows a serial log that another process keeps appending to.
// Read returns the newest data row written since the previous Read and
// ErrNoData when nothing new arrived. Truncation and replacement of the
// file restart reading from the beginning.
type TailSource struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu      sync.Mutex
	offset  int64
	partial []byte
	dirty   bool
}

// NewTailSource starts watching path. The file does not have to exist yet.
func NewTailSource(path string, logger *slog.Logger) (*TailSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory so atomic replacement of the file is seen.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	t := &TailSource{
		path:    abs,
		watcher: watcher,
		logger:  logger.With("component", "tail", "path", abs),
		dirty:   true,
	}
	go t.watch()
	return t, nil
}

func (t *TailSource) Name() string { return "tail" }

// Close stops watching the file.
func (t *TailSource) Close() error {
	return t.watcher.Close()
}

func (t *TailSource) watch() {
	for {
		select {
		case evt, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != t.path {
				continue
			}
			t.mu.Lock()
			if evt.Has(fsnotify.Create) || evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename) {
				t.offset = 0
				t.partial = nil
			}
			t.dirty = true
			t.mu.Unlock()

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			t.logger.Warn("watcher error", "error", err)
		}
	}
}

// Read implements Source.
func (t *TailSource) Read(ctx context.Context) (history.Observation, error) {
	if err := ctx.Err(); err != nil {
		return history.Observation{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.dirty {
		return history.Observation{}, ErrNoData
	}
	t.dirty = false

	data, err := t.readNew()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return history.Observation{}, ErrNoData
		}
		return history.Observation{}, err
	}

	buf := append(t.partial, data...)
	end := bytes.LastIndexByte(buf, '\n')
	if end < 0 {
		t.partial = buf
		return history.Observation{}, ErrNoData
	}
	t.partial = append([]byte(nil), buf[end+1:]...)

	lines := bytes.Split(buf[:end], []byte{'\n'})
	for i := len(lines) - 1; i >= 0; i-- {
		if obs, ok := parseLine(string(lines[i])); ok {
			return obs, nil
		}
	}
	return history.Observation{}, ErrNoData
}

// readNew returns the bytes appended since the last call. Callers hold mu.
func (t *TailSource) readNew() ([]byte, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < t.offset {
		t.logger.Info("log truncated, restarting from beginning")
		t.offset = 0
		t.partial = nil
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	t.offset += int64(len(data))
	return data, nil
}
