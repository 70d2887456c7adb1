package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/intothedarkness/ScrCpyHelper/internal/wireless"
)

var wirelessDevice string

var wirelessCmd = &cobra.Command{
	Use:                "wireless",
	Short:              "Switch USB connected devices to TCP/IP (wireless) mode",
	PersistentPreRunE:  requireDeps(adbTool),
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
		snap, err = selectDevice(snap, wirelessDevice)
		if err != nil {
			return err
		}

		switcher := &wireless.Switcher{
			ADB:    e.adb,
			Config: e.cfg,
			Out:    e.out,
		}
		for _, r := range switcher.SwitchAll(ctx, snap) {
			log.Debug().
				Str("serial", r.DeviceSerial).
				Str("ip", r.IP).
				Str("outcome", string(r.Outcome)).
				Strs("errors", r.Errors).
				Msg("switch result")
		}
		return nil
	},
}

func init() {
	wirelessCmd.Flags().StringVarP(&wirelessDevice, "device", "d", "", "Device serial (default: all)")
	rootCmd.AddCommand(wirelessCmd)
}
