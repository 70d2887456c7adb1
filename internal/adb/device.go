package adb

import (
	"fmt"
	"regexp"

	"github.com/samber/lo"
)

// ConnectionType indicates how a device is connected.
type ConnectionType string

const (
	USB  ConnectionType = "usb"
	WiFi ConnectionType = "wifi"
)

// State is the bridge's view of a device.
type State string

const (
	StateOffline      State = "offline"
	StateOnline       State = "online"
	StateUnauthorized State = "unauthorized"
	StateUnknown      State = "unknown"
)

// parseState maps the state column of `adb devices` to a State.
func parseState(s string) State {
	switch s {
	case "device":
		return StateOnline
	case "offline":
		return StateOffline
	case "unauthorized":
		return StateUnauthorized
	default:
		return StateUnknown
	}
}

var hostPortRe = regexp.MustCompile(`^(?P<host>.+):(?P<port>\d+)$`)

// SplitSerial splits a "host:port" serial. ok is false for USB serials.
func SplitSerial(serial string) (host, port string, ok bool) {
	m := hostPortRe.FindStringSubmatch(serial)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// TCPIPSerial builds the serial the bridge assigns to a device reached over TCP/IP.
func TCPIPSerial(ip string, port int) string {
	return fmt.Sprintf("%s:%d", ip, port)
}

// Device represents an attached ADB device.
type Device struct {
	Serial      string
	State       State
	Model       string
	Product     string
	TransportID string
}

// IsOnline returns true if the device is ready for commands.
func (d Device) IsOnline() bool {
	return d.State == StateOnline
}

// IsWireless reports whether the serial is a "host:port" pair.
func (d Device) IsWireless() bool {
	_, _, ok := SplitSerial(d.Serial)
	return ok
}

// ConnType returns how the device is attached, judged from its serial.
func (d Device) ConnType() ConnectionType {
	if d.IsWireless() {
		return WiFi
	}
	return USB
}

// Snapshot is the device list as reported by one enumeration.
// It is never updated in place; call Client.Devices again for fresh state.
type Snapshot []Device

// OnlineAt reports whether the snapshot holds an online device with serial ip:port.
func (s Snapshot) OnlineAt(ip string, port int) bool {
	serial := TCPIPSerial(ip, port)
	return lo.ContainsBy(s, func(d Device) bool {
		return d.Serial == serial && d.IsOnline()
	})
}

// Wireless returns the devices attached over TCP/IP, in snapshot order.
func (s Snapshot) Wireless() Snapshot {
	return lo.Filter(s, func(d Device, _ int) bool {
		return d.IsWireless()
	})
}

// Only returns the devices whose serial equals serial.
func (s Snapshot) Only(serial string) Snapshot {
	return lo.Filter(s, func(d Device, _ int) bool {
		return d.Serial == serial
	})
}
