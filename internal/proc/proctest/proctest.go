// Package proctest provides a scripted proc.Runner for tests.
package proctest

import (
	"context"
	"strings"
	"sync"

	"github.com/intothedarkness/ScrCpyHelper/internal/proc"
)

// Call records one invocation made through the fake runner.
type Call struct {
	Name     string
	Args     []string
	Detached bool
}

// Line returns the call's arguments joined by spaces.
func (c Call) Line() string {
	return strings.Join(c.Args, " ")
}

// OutputFunc scripts the result of a captured run.
type OutputFunc func(name string, args []string) (proc.Result, error)

// Runner is a fake proc.Runner that records every call.
type Runner struct {
	mu sync.Mutex

	// OnOutput answers Output calls. Nil means empty output and no error.
	OnOutput OutputFunc
	// OnStart, when set, may fail a Start call or return a custom process.
	OnStart func(name string, args []string) (proc.Process, error)

	calls []Call
}

// Output records the call and returns the scripted result.
func (r *Runner) Output(_ context.Context, name string, args ...string) (proc.Result, error) {
	r.record(Call{Name: name, Args: args})
	if r.OnOutput == nil {
		return proc.Result{}, nil
	}
	return r.OnOutput(name, args)
}

// Start records the call and returns a process that never exits unless
// OnStart says otherwise.
func (r *Runner) Start(name string, args ...string) (proc.Process, error) {
	r.record(Call{Name: name, Args: args, Detached: true})
	if r.OnStart != nil {
		return r.OnStart(name, args)
	}
	return NewProcess(), nil
}

// Calls returns a copy of the recorded calls in order.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Lines returns the argument lines of all calls, detached ones included.
func (r *Runner) Lines() []string {
	var lines []string
	for _, c := range r.Calls() {
		lines = append(lines, c.Line())
	}
	return lines
}

func (r *Runner) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

// Process is a fake detached process.
type Process struct {
	done chan error
}

// NewProcess returns a process that stays running until Exit is called.
func NewProcess() *Process {
	return &Process{done: make(chan error, 1)}
}

// Exited returns a process that has already terminated with err.
func Exited(err error) *Process {
	p := NewProcess()
	p.Exit(err)
	return p
}

// Exit terminates the process with err.
func (p *Process) Exit(err error) {
	p.done <- err
	close(p.done)
}

// Pid returns a fixed fake process id.
func (p *Process) Pid() int { return 4242 }

// Done is closed once Exit has been called, after delivering its error.
func (p *Process) Done() <-chan error { return p.done }
