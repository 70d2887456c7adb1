package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Window describes where mirror windows are placed. Each successive window
// is shifted right by Stride.
type Window struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Stride int `yaml:"stride"`
}

// Config is the top-level configuration.
type Config struct {
	ADBPath       string        `yaml:"adb_path"`
	ScrcpyPath    string        `yaml:"scrcpy_path"`
	ADBServerAddr string        `yaml:"adb_server_addr"`
	TCPIPPort     int           `yaml:"tcpip_port"`
	SwitchTimeout time.Duration `yaml:"switch_timeout"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	ServerTimeout time.Duration `yaml:"server_timeout"`
	LaunchDelay   time.Duration `yaml:"launch_delay"`
	NoAudio       bool          `yaml:"no_audio"`
	Window        Window        `yaml:"window"`
}

// DefaultConfig returns a config with sensible defaults.
// The window geometry suits a 4K display.
func DefaultConfig() *Config {
	return &Config{
		ADBPath:       ToolPath("adb"),
		ScrcpyPath:    ToolPath("scrcpy"),
		ADBServerAddr: "127.0.0.1:5037",
		TCPIPPort:     5555,
		SwitchTimeout: 7 * time.Second,
		PollInterval:  500 * time.Millisecond,
		ServerTimeout: 5 * time.Second,
		LaunchDelay:   3 * time.Second,
		NoAudio:       true,
		Window: Window{
			X:      200,
			Y:      100,
			Width:  600,
			Height: 1200,
			Stride: 600,
		},
	}
}

// ToolPath returns the path of an executable shipped next to this program,
// falling back to the bare name so it is resolved from PATH.
func ToolPath(name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	self, err := os.Executable()
	if err != nil {
		return name
	}
	candidate := filepath.Join(filepath.Dir(self), name)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return name
}

// ConfigDir returns the config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "scrcpyhelper")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "scrcpyhelper")
}

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Load reads the config file at path, returning defaults if it doesn't exist.
// An empty path means ConfigPath().
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values that would make the workflows misbehave.
func (c *Config) Validate() error {
	switch {
	case c.ADBPath == "":
		return fmt.Errorf("adb_path must not be empty")
	case c.ScrcpyPath == "":
		return fmt.Errorf("scrcpy_path must not be empty")
	case c.TCPIPPort <= 0 || c.TCPIPPort > 65535:
		return fmt.Errorf("tcpip_port %d out of range", c.TCPIPPort)
	case c.PollInterval <= 0:
		return fmt.Errorf("poll_interval must be positive")
	case c.SwitchTimeout <= 0 || c.ServerTimeout <= 0:
		return fmt.Errorf("switch_timeout and server_timeout must be positive")
	case c.LaunchDelay < 0:
		return fmt.Errorf("launch_delay must not be negative")
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("window size must be positive")
	}
	return nil
}

// Marshal renders the config as yaml.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}
