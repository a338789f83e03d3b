package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Process reads the standard output of a spawned command.
type Process struct {
	*Reader
	cmd     *exec.Cmd
	ctx     context.Context
	drained bool // stdout reached EOF
}

// StartProcess runs name with args and streams its stdout. The command is
// killed when ctx is cancelled. Its stderr is passed through.
func StartProcess(ctx context.Context, name string, args ...string) (*Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("pipe %s: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	display := strings.Join(append([]string{name}, args...), " ")
	return &Process{
		Reader: NewReader(stdout, display),
		cmd:    cmd,
		ctx:    ctx,
	}, nil
}

func (p *Process) Next() (string, error) {
	line, err := p.Reader.Next()
	if errors.Is(err, io.EOF) {
		p.drained = true
	}
	return line, err
}

// Close waits for the command to exit. A command whose output was not read
// to the end is killed first, since nothing drains its pipe any more. A
// failing exit status is reported unless the command was stopped through its
// context or by Close.
func (p *Process) Close() error {
	if !p.drained {
		_ = p.cmd.Process.Kill()
		_ = p.cmd.Wait()
		return nil
	}
	err := p.cmd.Wait()
	if err == nil || p.ctx.Err() != nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%s exited with status %d", p.name, exitErr.ExitCode())
	}
	return fmt.Errorf("wait %s: %w", p.name, err)
}
