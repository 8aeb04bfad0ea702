package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// process wraps a subprocess run through the shell, capturing stderr for
// error reporting.
type process struct {
	cmd       *exec.Cmd
	stderrBuf *bytes.Buffer
}

func newProcess(ctx context.Context, stdin io.Reader, command string) *process {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Stdin = stdin
	p := &process{cmd: cmd, stderrBuf: bytes.NewBuffer(nil)}
	cmd.Stderr = p.stderrBuf
	return p
}

func (p *process) wrapError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(p.stderrBuf.String())
		return fmt.Errorf("exited with status %d: %s", exitErr.ExitCode(), stderr)
	}
	return err
}

func (p *process) start() error {
	return p.wrapError(p.cmd.Start())
}

func (p *process) wait() error {
	return p.wrapError(p.cmd.Wait())
}
