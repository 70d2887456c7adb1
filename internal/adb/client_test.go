package adb

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intothedarkness/ScrCpyHelper/internal/proc"
	"github.com/intothedarkness/ScrCpyHelper/internal/proc/proctest"
)

const devicesOutput = `* daemon not running; starting now at tcp:5037
* daemon started successfully
List of devices attached
R58M90ABCDE            device usb:1-1 product:a52qnsxx model:SM_A525F device:a52q transport_id:3
192.168.1.7:5555       device product:sunfish model:Pixel_4a device:sunfish transport_id:4
192.168.1.8:5555       offline transport_id:5
0123456789ABCDEF       unauthorized usb:1-2 transport_id:6

`

func TestParseDeviceList(t *testing.T) {
	got := parseDeviceList(devicesOutput)
	require.Len(t, got, 4)

	assert.Equal(t, Device{
		Serial:      "R58M90ABCDE",
		State:       StateOnline,
		Model:       "SM_A525F",
		Product:     "a52qnsxx",
		TransportID: "3",
	}, got[0])
	assert.Equal(t, "192.168.1.7:5555", got[1].Serial)
	assert.Equal(t, "Pixel_4a", got[1].Model)
	assert.Equal(t, StateOffline, got[2].State)
	assert.Empty(t, got[2].Model)
	assert.Equal(t, StateUnauthorized, got[3].State)
}

func TestParseDeviceListEmpty(t *testing.T) {
	assert.Empty(t, parseDeviceList("List of devices attached\n\n"))
}

func TestParseStateUnknown(t *testing.T) {
	assert.Equal(t, StateUnknown, parseState("recovery"))
	assert.Equal(t, StateUnknown, parseState("no"))
}

func TestParseRouteSource(t *testing.T) {
	tests := []struct {
		name   string
		output string
		ip     string
		ok     bool
	}{
		{
			name:   "wlan route",
			output: "default via 192.168.1.1 dev wlan0 \n 192.168.1.0/24 dev wlan0 proto kernel scope link src 192.168.1.7",
			ip:     "192.168.1.7",
			ok:     true,
		},
		{
			name:   "first matching line wins",
			output: "10.0.0.0/8 dev rmnet0 src 10.1.2.3\n192.168.1.0/24 dev wlan0 src 192.168.1.7\n",
			ip:     "10.1.2.3",
			ok:     true,
		},
		{
			name:   "token right after src only",
			output: "192.168.1.0/24 dev wlan0 src 192.168.1.7 metric 600 src 192.168.1.99\r\n",
			ip:     "192.168.1.7",
			ok:     true,
		},
		{
			name:   "no src line",
			output: "default via 192.168.1.1 dev wlan0\n",
			ok:     false,
		},
		{
			name:   "src as a substring only",
			output: "192.168.1.0/24 dev srcnet proto kernel\n",
			ok:     false,
		},
		{
			name:   "dangling src",
			output: "192.168.1.0/24 dev wlan0 src\n",
			ok:     false,
		},
		{
			name:   "empty",
			output: "",
			ok:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ip, ok := parseRouteSource(tt.output)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.ip, ip)
		})
	}
}

func TestDevicesRunsAdb(t *testing.T) {
	runner := &proctest.Runner{
		OnOutput: func(name string, args []string) (proc.Result, error) {
			return proc.Result{Stdout: []byte(devicesOutput)}, nil
		},
	}
	c := NewClient(runner, "./adb")

	snap, err := c.Devices(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap, 4)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "./adb", calls[0].Name)
	assert.Equal(t, []string{"devices", "-l"}, calls[0].Args)
}

func TestDevicesBridgeUnreachable(t *testing.T) {
	runner := &proctest.Runner{
		OnOutput: func(string, []string) (proc.Result, error) {
			return proc.Result{Stderr: []byte("cannot connect to daemon")}, errors.New("exit status 1")
		},
	}
	_, err := NewClient(runner, "adb").Devices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adb devices")
	assert.Contains(t, err.Error(), "cannot connect to daemon")
}

func TestDeviceIP(t *testing.T) {
	runner := &proctest.Runner{
		OnOutput: func(string, []string) (proc.Result, error) {
			return proc.Result{Stdout: []byte("192.168.1.0/24 dev wlan0 proto kernel scope link src 192.168.1.7\n")}, nil
		},
	}
	ip, err := NewClient(runner, "adb").DeviceIP(context.Background(), "R58M90ABCDE")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.7", ip)
	assert.Equal(t, []string{"-s R58M90ABCDE shell ip route"}, runner.Lines())
}

func TestDeviceIPNoAddress(t *testing.T) {
	runner := &proctest.Runner{
		OnOutput: func(string, []string) (proc.Result, error) {
			return proc.Result{Stdout: []byte("default via 192.168.1.1 dev wlan0\n")}, nil
		},
	}
	ip, err := NewClient(runner, "adb").DeviceIP(context.Background(), "R58M90ABCDE")
	assert.Empty(t, ip)
	assert.ErrorIs(t, err, ErrNoAddress)
	assert.Equal(t, "failed to retrieve IP address", err.Error())
}

func TestDeviceIPErrorStream(t *testing.T) {
	runner := &proctest.Runner{
		OnOutput: func(string, []string) (proc.Result, error) {
			// stdout is ignored once the error stream has content
			return proc.Result{
				Stdout: []byte("192.168.1.0/24 dev wlan0 src 192.168.1.7\n"),
				Stderr: []byte("error: device unauthorized.\n"),
			}, nil
		},
	}
	ip, err := NewClient(runner, "adb").DeviceIP(context.Background(), "R58M90ABCDE")
	assert.Empty(t, ip)

	var se *StderrError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "R58M90ABCDE", se.Serial)
	assert.Equal(t, "error: device unauthorized.", se.Stderr)
	assert.Len(t, runner.Calls(), 1, "error stream is not retried")
}

func TestDeviceIPExitFailureWithoutStderr(t *testing.T) {
	runner := &proctest.Runner{
		OnOutput: func(string, []string) (proc.Result, error) {
			return proc.Result{}, errors.New("exit status 1")
		},
	}
	_, err := NewClient(runner, "adb").DeviceIP(context.Background(), "X")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoAddress)
}

func TestEnableTCPIPAndConnectAreDetached(t *testing.T) {
	runner := &proctest.Runner{}
	c := NewClient(runner, "adb")

	require.NoError(t, c.EnableTCPIP("R58M90ABCDE", 5555))
	require.NoError(t, c.Connect("R58M90ABCDE", "192.168.1.7", 5555))

	calls := runner.Calls()
	require.Len(t, calls, 2)
	for _, call := range calls {
		assert.True(t, call.Detached, call.Line())
	}
	assert.Equal(t, "-s R58M90ABCDE tcpip 5555", calls[0].Line())
	assert.Equal(t, "-s R58M90ABCDE connect 192.168.1.7:5555", calls[1].Line())
}

func TestEnableTCPIPStartFailure(t *testing.T) {
	runner := &proctest.Runner{
		OnStart: func(string, []string) (proc.Process, error) {
			return nil, errors.New("exec: \"adb\": executable file not found in $PATH")
		},
	}
	err := NewClient(runner, "adb").EnableTCPIP("R58M90ABCDE", 5555)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adb tcpip 5555")
}

// fakeDialer succeeds once up is set.
type fakeDialer struct {
	up    atomic.Bool
	dials atomic.Int32
}

func (f *fakeDialer) dial(context.Context, string, string) (net.Conn, error) {
	f.dials.Add(1)
	if !f.up.Load() {
		return nil, errors.New("connection refused")
	}
	client, server := net.Pipe()
	server.Close()
	return client, nil
}

func newServerClient(runner *proctest.Runner, d *fakeDialer) *Client {
	c := NewClient(runner, "adb")
	c.Dial = d.dial
	c.PollInterval = time.Millisecond
	c.ServerTimeout = 50 * time.Millisecond
	return c
}

func TestServerRunning(t *testing.T) {
	d := &fakeDialer{}
	c := newServerClient(&proctest.Runner{}, d)

	assert.False(t, c.ServerRunning(context.Background()))
	d.up.Store(true)
	assert.True(t, c.ServerRunning(context.Background()))
}

func TestStartServerWaitsForListener(t *testing.T) {
	d := &fakeDialer{}
	runner := &proctest.Runner{
		OnOutput: func(_ string, args []string) (proc.Result, error) {
			if strings.Join(args, " ") == "start-server" {
				d.up.Store(true)
			}
			return proc.Result{}, nil
		},
	}
	c := newServerClient(runner, d)

	require.NoError(t, c.StartServer(context.Background()))
	assert.Equal(t, []string{"start-server"}, runner.Lines())
}

func TestStartServerNeverListens(t *testing.T) {
	d := &fakeDialer{}
	c := newServerClient(&proctest.Runner{}, d)

	err := c.StartServer(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errServerDown)
	assert.Greater(t, d.dials.Load(), int32(1), "listener is polled")
}

func TestStartServerCommandFails(t *testing.T) {
	runner := &proctest.Runner{
		OnOutput: func(string, []string) (proc.Result, error) {
			return proc.Result{Stderr: []byte("could not install *smartsocket* listener")}, errors.New("exit status 1")
		},
	}
	err := newServerClient(runner, &fakeDialer{}).StartServer(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smartsocket")
}
