package source

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"testing/iotest"
	"time"
)

func readAll(t *testing.T, src Source) []string {
	t.Helper()
	var lines []string
	for {
		line, err := src.Next()
		if errors.Is(err, io.EOF) {
			return lines
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		lines = append(lines, line)
	}
}

func TestReaderSplitsLines(t *testing.T) {
	r := NewReader(strings.NewReader("first\r\nsecond\n\nlast"), "test")
	got := readAll(t, r)
	want := []string{"first", "second", "", "last"}

	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReaderReplacesInvalidUTF8(t *testing.T) {
	r := NewReader(strings.NewReader("ok \xff\xfe end\n"), "test")
	line, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if line != "ok � end" {
		t.Errorf("got %q", line)
	}
}

func TestReaderReadFailure(t *testing.T) {
	boom := errors.New("boom")
	r := NewReader(iotest.ErrReader(boom), "broken")
	_, err := r.Next()
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
	if errors.Is(err, io.EOF) {
		t.Error("read failure must not look like end of input")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	if err := os.WriteFile(path, []byte("a\nb\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer r.Close()

	if r.Name() != path {
		t.Errorf("Name() = %q", r.Name())
	}
	if got := readAll(t, r); len(got) != 2 {
		t.Errorf("got %q", got)
	}
}

func TestOpenFileMissing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func stubPiped(t *testing.T, piped bool) {
	t.Helper()
	orig := stdinIsPiped
	stdinIsPiped = func() bool { return piped }
	t.Cleanup(func() { stdinIsPiped = orig })
}

func TestOpenFollowWithoutFile(t *testing.T) {
	_, err := Open(context.Background(), Spec{Follow: true}, func(string) {})
	if !errors.Is(err, ErrFollowNeedsFile) {
		t.Fatalf("expected ErrFollowNeedsFile, got %v", err)
	}
}

func TestOpenPrefersFile(t *testing.T) {
	stubPiped(t, true)
	path := filepath.Join(t.TempDir(), "log.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := Open(context.Background(), Spec{File: path, Stdin: true}, func(string) {})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()
	if src.Name() != path {
		t.Errorf("Name() = %q, want %q", src.Name(), path)
	}
}

func TestOpenPipedStdin(t *testing.T) {
	stubPiped(t, true)
	var warnings []string
	src, err := Open(context.Background(), Spec{}, func(s string) { warnings = append(warnings, s) })
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if src.Name() != "stdin" {
		t.Errorf("Name() = %q", src.Name())
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings %q", warnings)
	}
}

func TestOpenStdinFlagWithoutPipe(t *testing.T) {
	stubPiped(t, false)
	var warnings []string
	src, err := Open(context.Background(), Spec{Stdin: true}, func(s string) { warnings = append(warnings, s) })
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if src.Name() != "stdin" {
		t.Errorf("Name() = %q", src.Name())
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "no input is piped") {
		t.Errorf("warnings = %q", warnings)
	}
}

func fakeAdb(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "adb")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenExecLogcat(t *testing.T) {
	stubPiped(t, true)
	adb := fakeAdb(t, `echo "$1 first"; echo "$1 second"`)

	src, err := Open(context.Background(), Spec{ExecLogcat: true, Adb: adb}, func(string) {})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got := readAll(t, src)
	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if len(got) != 2 || got[0] != "logcat first" || got[1] != "logcat second" {
		t.Errorf("got %q", got)
	}
	if !strings.HasSuffix(src.Name(), "adb logcat") {
		t.Errorf("Name() = %q", src.Name())
	}
}

func TestOpenFallsBackToAdb(t *testing.T) {
	stubPiped(t, false)
	adb := fakeAdb(t, `echo fallback`)

	src, err := Open(context.Background(), Spec{Adb: adb}, func(string) {})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got := readAll(t, src)
	src.Close()
	if len(got) != 1 || got[0] != "fallback" {
		t.Errorf("got %q", got)
	}
}

func TestProcessExitStatus(t *testing.T) {
	adb := fakeAdb(t, `echo partial; exit 3`)

	p, err := StartProcess(context.Background(), adb, "logcat")
	if err != nil {
		t.Fatalf("StartProcess: %v", err)
	}
	readAll(t, p)

	err = p.Close()
	if err == nil || !strings.Contains(err.Error(), "exited with status 3") {
		t.Fatalf("expected exit status error, got %v", err)
	}
}

func TestProcessCloseStopsUnreadCommand(t *testing.T) {
	adb := fakeAdb(t, `echo first; exec sleep 30`)

	p, err := StartProcess(context.Background(), adb, "logcat")
	if err != nil {
		t.Fatalf("StartProcess: %v", err)
	}
	if line, err := p.Next(); err != nil || line != "first" {
		t.Fatalf("Next = %q, %v", line, err)
	}

	done := make(chan error, 1)
	go func() { done <- p.Close() }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Close of a stopped command = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked on a running command")
	}
}

func TestStartProcessMissingBinary(t *testing.T) {
	_, err := StartProcess(context.Background(), filepath.Join(t.TempDir(), "no-such-adb"))
	if err == nil {
		t.Fatal("expected start error")
	}
}

type result struct {
	line string
	err  error
}

func nextAsync(src Source) <-chan result {
	ch := make(chan result, 1)
	go func() {
		line, err := src.Next()
		ch <- result{line, err}
	}()
	return ch
}

func await(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for line")
		return result{}
	}
}

func TestFollowPicksUpAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	if err := os.WriteFile(path, []byte("existing\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f, err := NewFollow(ctx, path)
	if err != nil {
		t.Fatalf("NewFollow: %v", err)
	}
	defer f.Close()

	if r := await(t, nextAsync(f)); r.err != nil || r.line != "existing" {
		t.Fatalf("first line = %q, %v", r.line, r.err)
	}

	pending := nextAsync(f)
	w, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Written in two parts so the reader sees an unterminated line first.
	if _, err := w.WriteString("appen"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if _, err := w.WriteString("ded\n"); err != nil {
		t.Fatal(err)
	}
	w.Close()

	if r := await(t, pending); r.err != nil || r.line != "appended" {
		t.Fatalf("appended line = %q, %v", r.line, r.err)
	}

	pending = nextAsync(f)
	cancel()
	if r := await(t, pending); !errors.Is(r.err, io.EOF) {
		t.Fatalf("expected io.EOF after cancel, got %q, %v", r.line, r.err)
	}
}

func TestFollowMissingFile(t *testing.T) {
	_, err := NewFollow(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
