package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// pollInterval bounds how long a write that raced the watcher goes unread.
const pollInterval = 250 * time.Millisecond

// Follow reads a file from the start and keeps waiting for appended lines
// until its context is cancelled or the file is removed.
type Follow struct {
	ctx     context.Context
	path    string
	file    *os.File
	r       *bufio.Reader
	fsw     *fsnotify.Watcher
	partial string // text read past the last newline
}

// NewFollow opens path and starts watching it for writes.
func NewFollow(ctx context.Context, path string) (*Follow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		f.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	return &Follow{
		ctx:  ctx,
		path: path,
		file: f,
		r:    bufio.NewReader(f),
		fsw:  fsw,
	}, nil
}

// Next blocks at end of file until more data is written. A trailing line
// without a terminator is held back until it is completed.
func (f *Follow) Next() (string, error) {
	for {
		chunk, err := f.r.ReadString('\n')
		f.partial += chunk
		if err == nil {
			line := f.partial
			f.partial = ""
			return clean(line), nil
		}
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read %s: %w", f.path, err)
		}

		if err := f.wait(); err != nil {
			if errors.Is(err, io.EOF) && f.partial != "" {
				line := f.partial
				f.partial = ""
				return clean(line), nil
			}
			return "", err
		}
	}
}

// wait returns nil when the file may have grown, io.EOF when following should stop.
func (f *Follow) wait() error {
	timer := time.NewTimer(pollInterval)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			return nil

		case <-f.ctx.Done():
			return io.EOF

		case ev, ok := <-f.fsw.Events:
			if !ok {
				return io.EOF
			}
			switch {
			case ev.Op&fsnotify.Write != 0:
				return nil
			case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
				log.Printf("stopped following %s: file was moved or removed", f.path)
				return io.EOF
			}

		case err, ok := <-f.fsw.Errors:
			if !ok {
				return io.EOF
			}
			log.Printf("watcher error: %v", err)
		}
	}
}

func (f *Follow) Name() string { return f.path + " (following)" }

func (f *Follow) Close() error {
	werr := f.fsw.Close()
	if err := f.file.Close(); err != nil {
		return err
	}
	return werr
}
