package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/intothedarkness/ScrCpyHelper/internal/adb"
	"github.com/intothedarkness/ScrCpyHelper/internal/config"
	"github.com/intothedarkness/ScrCpyHelper/internal/proc"
	"github.com/intothedarkness/ScrCpyHelper/internal/scrcpy"
)

var errExited = errors.New("exited")

// Launcher opens one mirror window per wireless device, tiled left to right.
type Launcher struct {
	Scrcpy *scrcpy.Client
	Config *config.Config
	Out    io.Writer
}

// MirrorResult summarizes the launch for one device.
type MirrorResult struct {
	DeviceSerial string
	Window       scrcpy.Window
	Launched     bool
	Errors       []string
}

// MirrorAll launches scrcpy for every wireless device of snap, in order.
// USB-only devices are skipped without a message.
func (l *Launcher) MirrorAll(ctx context.Context, snap adb.Snapshot) []MirrorResult {
	var results []MirrorResult
	w := l.Config.Window
	x := w.X
	for _, d := range snap.Wireless() {
		win := scrcpy.Window{X: x, Y: w.Y, Width: w.Width, Height: w.Height}
		r := l.MirrorDevice(ctx, d, win)
		if r.Launched {
			x += w.Stride
		}
		results = append(results, r)
	}
	return results
}

// MirrorDevice launches scrcpy for one wireless device and waits out the
// launch delay. Mirroring targets the host only; the port is dropped.
func (l *Launcher) MirrorDevice(ctx context.Context, d adb.Device, win scrcpy.Window) MirrorResult {
	result := MirrorResult{DeviceSerial: d.Serial, Window: win}
	host, _, ok := adb.SplitSerial(d.Serial)
	if !ok {
		result.Errors = append(result.Errors, fmt.Sprintf("%s is not a host:port serial", d.Serial))
		return result
	}

	fmt.Fprintf(l.Out, "Mirroring %s...\n", d.Serial)
	p, err := l.Scrcpy.Mirror(scrcpy.Options{
		Serial:  host,
		NoAudio: l.Config.NoAudio,
		Window:  win,
	})
	if err != nil {
		fmt.Fprintln(l.Out, "failed.")
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.Launched = true

	if err := l.settle(ctx, p); err != nil {
		log.Debug().Err(err).Str("serial", d.Serial).Msg("[MirrorDevice] scrcpy did not stay up")
		fmt.Fprintln(l.Out, "failed.")
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	fmt.Fprintln(l.Out, "done.")
	return result
}

// settle waits LaunchDelay so windows are created one after another, failing
// early if the mirroring process dies meanwhile.
func (l *Launcher) settle(ctx context.Context, p proc.Process) error {
	timer := time.NewTimer(l.Config.LaunchDelay)
	defer timer.Stop()

	select {
	case err := <-p.Done():
		if err == nil {
			err = errExited
		}
		return fmt.Errorf("scrcpy (pid %d) %w", p.Pid(), err)
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
