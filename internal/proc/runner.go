package proc

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// Result holds the captured output streams of a finished process.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Process is a handle to a detached process.
type Process interface {
	Pid() int
	// Done receives the exit error (nil on clean exit) once the process ends.
	Done() <-chan error
}

// Runner starts external executables. Output runs to completion and captures
// both streams; Start launches and returns immediately.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) (Result, error)
	Start(name string, args ...string) (Process, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner creates a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Output runs name with args and waits for it to exit.
// A non-zero exit is returned as an error alongside whatever was captured.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (Result, error) {
	log.Debug().Str("cmd", fmt.Sprintf("%s %s", name, strings.Join(args, " "))).Msg("[Output] run cmd")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	log.Debug().
		Bytes("stdout", res.Stdout).
		Bytes("stderr", res.Stderr).
		Msg("[Output] raw output")
	if err != nil {
		return res, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return res, nil
}

// Start launches name with args without waiting for it.
// The process is reaped in the background so it never lingers as a zombie.
func (r *ExecRunner) Start(name string, args ...string) (Process, error) {
	log.Debug().Str("cmd", fmt.Sprintf("%s %s", name, strings.Join(args, " "))).Msg("[Start] launch cmd")

	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	p := &execProcess{cmd: cmd, done: make(chan error, 1)}
	go func() {
		err := cmd.Wait()
		log.Debug().Int("pid", cmd.Process.Pid).Err(err).Msg("[Start] process exited")
		p.done <- err
		close(p.done)
	}()
	return p, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan error
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Done() <-chan error {
	return p.done
}
