package cmd

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/intothedarkness/ScrCpyHelper/internal/config"
)

type dependency struct {
	name       string
	binary     func(cfg *config.Config) string
	installCmd map[string]string // GOOS -> install command
}

var adbTool = dependency{
	name:   "ADB (Android Debug Bridge)",
	binary: func(cfg *config.Config) string { return cfg.ADBPath },
	installCmd: map[string]string{
		"darwin":  "brew install android-platform-tools",
		"linux":   "sudo apt install android-tools-adb",
		"windows": "winget install Google.PlatformTools",
	},
}

var scrcpyTool = dependency{
	name:   "scrcpy",
	binary: func(cfg *config.Config) string { return cfg.ScrcpyPath },
	installCmd: map[string]string{
		"darwin":  "brew install scrcpy",
		"linux":   "sudo apt install scrcpy",
		"windows": "winget install Genymobile.scrcpy",
	},
}

// Replaced in tests.
var lookPath = exec.LookPath

// requireDeps returns a PersistentPreRunE that checks for the given external tools.
func requireDeps(deps ...dependency) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return checkDeps(cmd.ErrOrStderr(), cfg, deps)
	}
}

// checkDeps verifies that the required external tools can be found and
// prints install hints for the missing ones.
func checkDeps(w io.Writer, cfg *config.Config, deps []dependency) error {
	var missing []dependency
	for _, dep := range deps {
		if _, err := lookPath(dep.binary(cfg)); err != nil {
			missing = append(missing, dep)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	fmt.Fprintln(w, "ScrCpyHelper requires the following tools that are not installed:")
	fmt.Fprintln(w)
	for _, dep := range missing {
		fmt.Fprintf(w, "  - %s (%s)\n", dep.name, dep.binary(cfg))
		if cmd, ok := dep.installCmd[runtime.GOOS]; ok {
			fmt.Fprintf(w, "    install with: %s\n", cmd)
		} else {
			fmt.Fprintln(w, "    please install it manually")
		}
	}
	fmt.Fprintln(w)
	return fmt.Errorf("%s is required but not installed", missing[0].binary(cfg))
}
