package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/intothedarkness/ScrCpyHelper/internal/wireless"
)

var devicesShowIP bool

var devicesCmd = &cobra.Command{
	Use:               "devices",
	Short:             "List attached devices and how they are connected",
	PersistentPreRunE: requireDeps(adbTool),
	Args:              cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}

		devices, err := e.adb.Devices(ctx)
		if err != nil {
			return err
		}

		if len(devices) == 0 {
			fmt.Fprintln(e.out, "No device is attached.")
			return nil
		}

		for _, d := range devices {
			model := d.Model
			if model == "" {
				model = "unknown model"
			}
			fmt.Fprintf(e.out, "%-22s %-16s [%s] [%s]\n", d.Serial, model, d.ConnType(), d.State)

			if !devicesShowIP || !d.IsOnline() || d.IsWireless() {
				continue
			}
			ip, online := wireless.Check(ctx, e.adb, d, devices, e.cfg.TCPIPPort)
			switch {
			case ip == "":
				fmt.Fprintln(e.out, "  IP: unknown")
			case online:
				fmt.Fprintf(e.out, "  IP: %s (also connected over TCP/IP)\n", ip)
			default:
				fmt.Fprintf(e.out, "  IP: %s\n", ip)
			}
		}
		return nil
	},
}

func init() {
	devicesCmd.Flags().BoolVar(&devicesShowIP, "ip", false, "Resolve the IP address of online USB devices")
	rootCmd.AddCommand(devicesCmd)
}
