package cmd

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/spf13/cobra"

	"github.com/intothedarkness/ScrCpyHelper/internal/adb"
	"github.com/intothedarkness/ScrCpyHelper/internal/config"
	"github.com/intothedarkness/ScrCpyHelper/internal/proc"
	"github.com/intothedarkness/ScrCpyHelper/internal/scrcpy"
)

// Replaced in tests.
var (
	newRunner  = func() proc.Runner { return proc.NewExecRunner() }
	dialServer func(ctx context.Context, network, address string) (net.Conn, error)
)

// env bundles what every command needs.
type env struct {
	cfg    *config.Config
	adb    *adb.Client
	scrcpy *scrcpy.Client
	out    io.Writer
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	runner := newRunner()

	client := adb.NewClient(runner, cfg.ADBPath)
	client.ServerAddr = cfg.ADBServerAddr
	client.PollInterval = cfg.PollInterval
	client.ServerTimeout = cfg.ServerTimeout
	if dialServer != nil {
		client.Dial = dialServer
	}

	return &env{
		cfg:    cfg,
		adb:    client,
		scrcpy: scrcpy.NewClient(runner, cfg.ScrcpyPath),
		out:    cmd.OutOrStdout(),
	}, nil
}

// snapshot enumerates the attached devices and prints them.
func (e *env) snapshot(ctx context.Context) (adb.Snapshot, error) {
	snap, err := e.adb.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	printSnapshot(e.out, snap)
	return snap, nil
}

func printSnapshot(out io.Writer, snap adb.Snapshot) {
	if len(snap) == 0 {
		fmt.Fprintln(out, "No device is attached.")
		return
	}
	fmt.Fprintln(out, "Attached device(s)")
	fmt.Fprintln(out, "---------------------")
	for _, d := range snap {
		fmt.Fprintf(out, "%s - %s\n", d.Serial, d.Model)
	}
	fmt.Fprintln(out, "---------------------")
}

// ensureServer starts the adb server unless it is already listening.
func (e *env) ensureServer(ctx context.Context) error {
	if e.adb.ServerRunning(ctx) {
		return nil
	}
	fmt.Fprintln(e.out, "Starting adb server...")
	if err := e.adb.StartServer(ctx); err != nil {
		return fmt.Errorf("can't start adb server: %w", err)
	}
	fmt.Fprintln(e.out, "done.")
	return nil
}

// selectDevice narrows snap to serial when one was given.
func selectDevice(snap adb.Snapshot, serial string) (adb.Snapshot, error) {
	if serial == "" {
		return snap, nil
	}
	only := snap.Only(serial)
	if len(only) == 0 {
		return nil, fmt.Errorf("device %s is not attached", serial)
	}
	return only, nil
}
