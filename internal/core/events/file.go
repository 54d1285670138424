package events

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-kiln-monitor/internal/util"
)

// FileSource tails a JSONL alert feed. Each appended line is one alert.
// Truncation or replacement of the file restarts reading from the top.
type FileSource struct {
	path    string
	watcher *fsnotify.Watcher
	events  chan Event
	done    chan struct{}
	once    sync.Once

	offset  int64
	info    *util.FileInfo
	partial []byte
}

// NewFileSource watches path. With fromStart the existing contents are
// replayed; otherwise only lines appended from now on are delivered.
func NewFileSource(path string, fromStart bool) (*FileSource, error) {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create feed directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory so creation and rotation are seen too.
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	fs := &FileSource{
		path:    path,
		watcher: watcher,
		events:  make(chan Event, 100),
		done:    make(chan struct{}),
	}
	if info, err := util.GetFileInfo(path); err == nil {
		fs.info = info
		if !fromStart {
			fs.offset = info.Size
		}
	}

	go fs.processEvents()
	return fs, nil
}

func (fs *FileSource) processEvents() {
	fs.readNew()
	for {
		select {
		case <-fs.done:
			return
		case event, ok := <-fs.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fs.path {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				fs.readNew()
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				fs.offset, fs.info, fs.partial = 0, nil, nil
			}
		case err, ok := <-fs.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("alert feed watch error", util.F("path", fs.path), util.F("error", err.Error()))
		}
	}
}

func (fs *FileSource) readNew() {
	cur, err := util.GetFileInfo(fs.path)
	if err != nil {
		return
	}
	if fs.info.Rotated(cur) {
		util.LogInfo("alert feed rotated, rereading", util.F("path", fs.path))
		fs.offset, fs.partial = 0, nil
	}
	fs.info = cur

	f, err := os.Open(fs.path)
	if err != nil {
		util.LogWarn("open alert feed", util.F("path", fs.path), util.F("error", err.Error()))
		return
	}
	defer f.Close()

	if _, err := f.Seek(fs.offset, io.SeekStart); err != nil {
		return
	}
	chunk, err := io.ReadAll(f)
	if err != nil {
		util.LogWarn("read alert feed", util.F("error", err.Error()))
	}
	fs.offset += int64(len(chunk))

	data := append(fs.partial, chunk...)
	lines := bytes.Split(data, []byte("\n"))
	// The last element is either empty or an unterminated line.
	fs.partial = append([]byte(nil), lines[len(lines)-1]...)

	for _, line := range lines[:len(lines)-1] {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		alert, err := DecodeAlert(line)
		if err != nil {
			util.LogWarn("skipping malformed alert line", util.F("error", err.Error()))
			continue
		}
		select {
		case fs.events <- Event{Kind: KindAlert, Alert: alert}:
		case <-fs.done:
			return
		}
	}
}

func (fs *FileSource) Next(ctx context.Context) (Event, error) {
	select {
	case ev := <-fs.events:
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case <-fs.done:
		return Event{}, ErrSourceClosed
	}
}

func (fs *FileSource) Close() error {
	var err error
	fs.once.Do(func() {
		close(fs.done)
		err = fs.watcher.Close()
	})
	return err
}
