// Package source supplies raw logcat lines from a file, standard input, a
// growing file or an `adb logcat` subprocess.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Source yields raw lines one at a time.
type Source interface {
	// Next returns the next line without its terminator, or io.EOF once the
	// input is exhausted. Any other error is a read failure.
	Next() (string, error)
	// Name describes where lines come from.
	Name() string
	Close() error
}

// ErrFollowNeedsFile is returned when follow mode is asked for without a file.
var ErrFollowNeedsFile = errors.New("follow mode requires an input file")

// Reader reads lines from any io.Reader.
type Reader struct {
	r      *bufio.Reader
	closer io.Closer
	name   string
}

// NewReader wraps r. The caller keeps ownership of r; Close is a no-op.
func NewReader(r io.Reader, name string) *Reader {
	return &Reader{r: bufio.NewReader(r), name: name}
}

// OpenFile opens path for reading from the start.
func OpenFile(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	r := NewReader(f, path)
	r.closer = f
	return r, nil
}

// Stdin reads from the process's standard input.
func Stdin() *Reader {
	return NewReader(os.Stdin, "stdin")
}

func (r *Reader) Next() (string, error) {
	line, err := r.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", io.EOF
			}
			return clean(line), nil
		}
		return "", fmt.Errorf("read %s: %w", r.name, err)
	}
	return clean(line), nil
}

func (r *Reader) Name() string { return r.name }

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// clean drops the line terminator and replaces invalid UTF-8.
func clean(line string) string {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return strings.ToValidUTF8(line, "\uFFFD")
}

// DefaultAdb is the command spawned when no other input is selected.
const DefaultAdb = "adb"

// Spec describes which input the user asked for.
type Spec struct {
	File       string
	Follow     bool
	Stdin      bool
	ExecLogcat bool
	Adb        string // adb executable, DefaultAdb when empty
}

// stdinIsPiped reports whether standard input is redirected from a pipe or file.
var stdinIsPiped = func() bool {
	fd := os.Stdin.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// Open picks the input in this order: file, adb subprocess when asked for,
// piped stdin, stdin when asked for, and finally an adb subprocess.
func Open(ctx context.Context, spec Spec, warn func(string)) (Source, error) {
	if spec.Follow && spec.File == "" {
		return nil, ErrFollowNeedsFile
	}

	if spec.File != "" {
		if spec.Follow {
			return NewFollow(ctx, spec.File)
		}
		return OpenFile(spec.File)
	}

	adb := spec.Adb
	if adb == "" {
		adb = DefaultAdb
	}
	if spec.ExecLogcat {
		return StartProcess(ctx, adb, "logcat")
	}

	if stdinIsPiped() {
		return Stdin(), nil
	}
	if spec.Stdin {
		warn("stdin flag is provided but no input is piped into the program")
		return Stdin(), nil
	}

	return StartProcess(ctx, adb, "logcat")
}
