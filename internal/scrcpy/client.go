package scrcpy

import (
	"fmt"
	"strconv"

	"github.com/intothedarkness/ScrCpyHelper/internal/proc"
)

// Window is the on-screen placement of a mirror window.
type Window struct {
	X, Y          int
	Width, Height int
}

// Options selects the device and window for one mirroring session.
type Options struct {
	// Serial is passed to --serial as is.
	Serial  string
	NoAudio bool
	Window  Window
}

// Args returns the scrcpy command line for opts.
func (o Options) Args() []string {
	var args []string
	if o.NoAudio {
		args = append(args, "--no-audio")
	}
	return append(args,
		"--serial", o.Serial,
		"--window-x", strconv.Itoa(o.Window.X),
		"--window-y", strconv.Itoa(o.Window.Y),
		"--window-width", strconv.Itoa(o.Window.Width),
		"--window-height", strconv.Itoa(o.Window.Height),
	)
}

// Client wraps scrcpy command-line calls.
type Client struct {
	Runner proc.Runner
	Path   string
}

// NewClient creates a new scrcpy client running the executable at path.
func NewClient(runner proc.Runner, path string) *Client {
	return &Client{Runner: runner, Path: path}
}

// Mirror launches a detached scrcpy window. The caller owns the returned process.
func (c *Client) Mirror(opts Options) (proc.Process, error) {
	p, err := c.Runner.Start(c.Path, opts.Args()...)
	if err != nil {
		return nil, fmt.Errorf("scrcpy --serial %s: %w", opts.Serial, err)
	}
	return p, nil
}
