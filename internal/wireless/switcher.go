package wireless

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/intothedarkness/ScrCpyHelper/internal/adb"
	"github.com/intothedarkness/ScrCpyHelper/internal/config"
)

var errNotOnline = errors.New("device not online over TCP/IP")

// Outcome is what happened to one device during a switch.
type Outcome string

const (
	// AlreadyWireless means the device is attached by a host:port serial.
	AlreadyWireless Outcome = "already-wireless"
	// Unplug means the USB device is also reachable over TCP/IP already.
	Unplug   Outcome = "unplug"
	Switched Outcome = "switched"
	Failed   Outcome = "failed"
)

// Switcher moves USB-attached devices to TCP/IP mode.
type Switcher struct {
	ADB    *adb.Client
	Config *config.Config
	Out    io.Writer
}

// SwitchResult summarizes the switch of one device.
type SwitchResult struct {
	DeviceSerial string
	IP           string
	Outcome      Outcome
	Errors       []string
}

// SwitchAll switches every device of snap, one at a time, in order.
// A failure on one device never stops the batch.
func (s *Switcher) SwitchAll(ctx context.Context, snap adb.Snapshot) []SwitchResult {
	var results []SwitchResult
	for _, d := range snap {
		results = append(results, s.SwitchDevice(ctx, d))
	}
	return results
}

// SwitchDevice switches a single device.
func (s *Switcher) SwitchDevice(ctx context.Context, d adb.Device) SwitchResult {
	result := SwitchResult{DeviceSerial: d.Serial}
	port := s.Config.TCPIPPort

	if d.IsWireless() {
		fmt.Fprintf(s.Out, "device %s is now connected in wireless mode.\n", d.Serial)
		result.Outcome = AlreadyWireless
		return result
	}

	ip, err := s.ADB.DeviceIP(ctx, d.Serial)
	if err != nil {
		s.reportIPError(err)
		result.Outcome = Failed
		result.Errors = append(result.Errors, fmt.Sprintf("resolve ip: %v", err))
		return result
	}
	result.IP = ip

	online, err := onlineNow(ctx, s.ADB, ip, port)
	if err != nil {
		fmt.Fprintf(s.Out, "Error: %v\n", err)
		result.Outcome = Failed
		result.Errors = append(result.Errors, fmt.Sprintf("check %s: %v", ip, err))
		return result
	}
	if online {
		fmt.Fprintf(s.Out, "You may now disconnect the USB cable for device %s, it is now connected in TCPIP mode at %s\n", d.Serial, ip)
		result.Outcome = Unplug
		return result
	}

	fmt.Fprintf(s.Out, "device %s is now connected in USB mode, switching to TCPIP mode ...\n", d.Serial)
	if err := s.ADB.EnableTCPIP(d.Serial, port); err != nil {
		return s.fail(result, err)
	}
	if err := s.ADB.Connect(d.Serial, ip, port); err != nil {
		return s.fail(result, err)
	}
	if err := s.waitOnline(ctx, ip); err != nil {
		return s.fail(result, err)
	}

	fmt.Fprintln(s.Out, "done.")
	result.Outcome = Switched
	return result
}

// waitOnline polls fresh enumerations until ip:port is online or the
// switch timeout runs out.
func (s *Switcher) waitOnline(ctx context.Context, ip string) error {
	check := func() (struct{}, error) {
		online, err := onlineNow(ctx, s.ADB, ip, s.Config.TCPIPPort)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if !online {
			return struct{}{}, errNotOnline
		}
		return struct{}{}, nil
	}
	_, err := backoff.Retry(ctx, check,
		backoff.WithBackOff(backoff.NewConstantBackOff(s.Config.PollInterval)),
		backoff.WithMaxElapsedTime(s.Config.SwitchTimeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Debug().Err(err).Str("ip", ip).Dur("next", next).Msg("[waitOnline] retrying")
		}),
	)
	if err != nil {
		return fmt.Errorf("%s after %s: %w", adb.TCPIPSerial(ip, s.Config.TCPIPPort), s.Config.SwitchTimeout, err)
	}
	return nil
}

func (s *Switcher) fail(result SwitchResult, err error) SwitchResult {
	log.Debug().Err(err).Str("serial", result.DeviceSerial).Msg("[SwitchDevice] failed")
	fmt.Fprintln(s.Out, "failed.")
	result.Outcome = Failed
	result.Errors = append(result.Errors, err.Error())
	return result
}

func (s *Switcher) reportIPError(err error) {
	var se *adb.StderrError
	switch {
	case errors.As(err, &se):
		fmt.Fprintf(s.Out, "Error: %s\n", se.Stderr)
	case errors.Is(err, adb.ErrNoAddress):
		fmt.Fprintln(s.Out, "Failed to retrieve IP address.")
	default:
		fmt.Fprintf(s.Out, "Error: %v\n", err)
	}
}
