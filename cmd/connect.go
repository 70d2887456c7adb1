package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/intothedarkness/ScrCpyHelper/internal/mirror"
)

var connectDevice string

var connectCmd = &cobra.Command{
	Use:                "connect",
	Short:              "Open a scrcpy mirror window for every wireless device",
	PersistentPreRunE:  requireDeps(adbTool, scrcpyTool),
	// Everything after the action is ignored.
	Args:               cobra.ArbitraryArgs,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		if err := e.ensureServer(ctx); err != nil {
			return err
		}
		snap, err := e.snapshot(ctx)
		if err != nil {
			return err
		}
		snap, err = selectDevice(snap, connectDevice)
		if err != nil {
			return err
		}

		launcher := &mirror.Launcher{
			Scrcpy: e.scrcpy,
			Config: e.cfg,
			Out:    e.out,
		}
		for _, r := range launcher.MirrorAll(ctx, snap) {
			log.Debug().
				Str("serial", r.DeviceSerial).
				Int("x", r.Window.X).
				Bool("launched", r.Launched).
				Strs("errors", r.Errors).
				Msg("mirror result")
		}
		return nil
	},
}

func init() {
	connectCmd.Flags().StringVarP(&connectDevice, "device", "d", "", "Device serial (default: all)")
	rootCmd.AddCommand(connectCmd)
}
