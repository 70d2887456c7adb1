package adb

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/intothedarkness/ScrCpyHelper/internal/proc"
)

// ErrNoAddress is returned when a device's routing table has no source address.
var ErrNoAddress = errors.New("failed to retrieve IP address")

var errServerDown = errors.New("adb server not listening")

// StderrError is returned when adb wrote to its error stream.
type StderrError struct {
	Serial string
	Stderr string
}

func (e *StderrError) Error() string {
	return fmt.Sprintf("adb -s %s: %s", e.Serial, e.Stderr)
}

// Client wraps ADB command-line calls.
type Client struct {
	Runner proc.Runner
	// Path is the adb executable.
	Path string
	// ServerAddr is where the adb server listens.
	ServerAddr string
	// Dial probes ServerAddr. Defaults to a net.Dialer.
	Dial          func(ctx context.Context, network, address string) (net.Conn, error)
	PollInterval  time.Duration
	ServerTimeout time.Duration
}

// NewClient creates a new ADB client running the adb executable at path.
func NewClient(runner proc.Runner, path string) *Client {
	d := &net.Dialer{}
	return &Client{
		Runner:        runner,
		Path:          path,
		ServerAddr:    "127.0.0.1:5037",
		Dial:          d.DialContext,
		PollInterval:  500 * time.Millisecond,
		ServerTimeout: 5 * time.Second,
	}
}

// Devices returns all devices currently known to the adb server.
func (c *Client) Devices(ctx context.Context) (Snapshot, error) {
	res, err := c.Runner.Output(ctx, c.Path, "devices", "-l")
	if err != nil {
		return nil, fmt.Errorf("adb devices: %w\n%s", err, res.Stderr)
	}
	return parseDeviceList(string(res.Stdout)), nil
}

// DeviceIP returns the source address of the device's routing table.
// A non-empty error stream from adb is returned as *StderrError.
func (c *Client) DeviceIP(ctx context.Context, serial string) (string, error) {
	res, err := c.Runner.Output(ctx, c.Path, "-s", serial, "shell", "ip", "route")
	if stderr := strings.TrimSpace(string(res.Stderr)); stderr != "" {
		return "", &StderrError{Serial: serial, Stderr: stderr}
	}
	if err != nil {
		return "", fmt.Errorf("adb -s %s shell ip route: %w", serial, err)
	}
	ip, ok := parseRouteSource(string(res.Stdout))
	if !ok {
		return "", ErrNoAddress
	}
	log.Debug().Str("serial", serial).Str("ip", ip).Msg("[DeviceIP] resolved")
	return ip, nil
}

// EnableTCPIP asks the device to restart its adb daemon listening on port.
// The command is not waited for.
func (c *Client) EnableTCPIP(serial string, port int) error {
	if _, err := c.Runner.Start(c.Path, "-s", serial, "tcpip", strconv.Itoa(port)); err != nil {
		return fmt.Errorf("adb tcpip %d: %w", port, err)
	}
	return nil
}

// Connect asks the adb server to connect to ip:port. The command is not waited for.
func (c *Client) Connect(serial, ip string, port int) error {
	addr := TCPIPSerial(ip, port)
	if _, err := c.Runner.Start(c.Path, "-s", serial, "connect", addr); err != nil {
		return fmt.Errorf("adb connect %s: %w", addr, err)
	}
	return nil
}

// ServerRunning reports whether something accepts connections on ServerAddr.
func (c *Client) ServerRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	conn, err := c.Dial(ctx, "tcp", c.ServerAddr)
	if err != nil {
		log.Debug().Err(err).Str("addr", c.ServerAddr).Msg("[ServerRunning] dial failed")
		return false
	}
	conn.Close()
	return true
}

// StartServer runs `adb start-server` and waits until the server listens.
func (c *Client) StartServer(ctx context.Context) error {
	res, err := c.Runner.Output(ctx, c.Path, "start-server")
	if err != nil {
		return fmt.Errorf("adb start-server: %w\n%s", err, res.Stderr)
	}

	check := func() (struct{}, error) {
		if c.ServerRunning(ctx) {
			return struct{}{}, nil
		}
		return struct{}{}, errServerDown
	}
	_, err = backoff.Retry(ctx, check,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.PollInterval)),
		backoff.WithMaxElapsedTime(c.ServerTimeout),
	)
	if err != nil {
		return fmt.Errorf("adb server at %s: %w", c.ServerAddr, err)
	}
	return nil
}

// parseDeviceList parses `adb devices -l` output.
func parseDeviceList(output string) Snapshot {
	var devices Snapshot
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		// "* daemon started successfully" and friends
		if strings.HasPrefix(line, "List of") || strings.HasPrefix(line, "*") || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		d := Device{
			Serial: fields[0],
			State:  parseState(fields[1]),
		}
		for _, f := range fields[2:] {
			parts := strings.SplitN(f, ":", 2)
			if len(parts) != 2 {
				continue
			}
			switch parts[0] {
			case "model":
				d.Model = parts[1]
			case "product":
				d.Product = parts[1]
			case "transport_id":
				d.TransportID = parts[1]
			}
		}
		devices = append(devices, d)
	}
	return devices
}

// parseRouteSource returns the token following "src" on the first line of
// `ip route` output that has one.
func parseRouteSource(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "src") {
			continue
		}
		tokens := strings.Fields(line)
		for i := 0; i+1 < len(tokens); i++ {
			if tokens[i] == "src" {
				return tokens[i+1], true
			}
		}
	}
	return "", false
}
