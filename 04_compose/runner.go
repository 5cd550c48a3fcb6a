package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"narrated-video-pipeline/types"
)

// Result is the outcome of one external process.
type Result struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

// Runner runs an external program to completion.
type Runner interface {
	Run(ctx context.Context, name string, args []string) Result
}

// ExecRunner runs programs with os/exec. Each run gets Timeout if set; a run
// that outlives it is killed and reported as types.ErrTimeout. A run killed
// because the caller's context was cancelled reports context.Canceled.
type ExecRunner struct {
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, name string, args []string) Result {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	// stop waiting on output pipes 5s after the kill
	cmd.WaitDelay = 5 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			err = fmt.Errorf("%s after %v: %w", name, r.Timeout, types.ErrTimeout)
		case errors.Is(ctx.Err(), context.Canceled):
			err = fmt.Errorf("%s: %w", name, context.Canceled)
		}
	}
	return Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), Err: err}
}

// tail returns at most the last n bytes of b, trimmed to whole lines when possible.
func tail(b []byte, n int) string {
	b = bytes.TrimSpace(b)
	if len(b) <= n {
		return string(b)
	}
	b = b[len(b)-n:]
	if i := bytes.IndexByte(b, '\n'); i >= 0 && i < len(b)-1 {
		b = b[i+1:]
	}
	return string(b)
}
