package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version of ScrCpyHelper.
const Version = "1.0.0"

const usage = `
Usage :
   scrcpyhelper wireless  - switch USB connected ADB devices to TCPIP (wireless) mode
   scrcpyhelper connect   - connect all devices for screen mirroring
`

var (
	configPath string
	debug      bool

	// cliArgs is the command line as given, flags included.
	cliArgs []string
)

var rootCmd = &cobra.Command{
	Use:     "scrcpyhelper [wireless|connect]",
	Short:   "Switch Android devices to wireless ADB and mirror them with scrcpy",
	Version: Version,
	Long: `ScrCpyHelper lists the devices attached to ADB, switches USB connected ones
to TCP/IP (wireless) mode, and opens a scrcpy mirror window for every wireless
device, tiled left to right across the desktop.`,
	// Unknown tokens, flag-like ones included, are accepted and ignored
	// after the device listing.
	Args:               cobra.ArbitraryArgs,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		if _, err := e.snapshot(cmd.Context()); err != nil {
			return err
		}
		if len(args) == 0 && !hasUnknownFlag(cmd, cliArgs) {
			fmt.Fprint(e.out, usage)
			return nil
		}
		log.Debug().Strs("args", cliArgs).Msg("unrecognized action, nothing to do")
		return nil
	},
}

// hasUnknownFlag reports whether raw holds a flag cmd does not define.
func hasUnknownFlag(cmd *cobra.Command, raw []string) bool {
	fs := cmd.Flags()
	for _, tok := range raw {
		switch {
		case tok == "--":
			return false
		case strings.HasPrefix(tok, "--"):
			name, _, _ := strings.Cut(tok[2:], "=")
			if fs.Lookup(name) == nil {
				return true
			}
		case strings.HasPrefix(tok, "-") && len(tok) > 1:
			if fs.ShorthandLookup(tok[1:2]) == nil {
				return true
			}
		}
	}
	return false
}

func initLogging() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func init() {
	cobra.OnInitialize(initLogging)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/scrcpyhelper/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log every adb and scrcpy invocation")
}

// Execute runs the root command.
func Execute() {
	if err := execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, args []string) error {
	cliArgs = args
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
