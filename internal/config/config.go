// Package config discovers and parses the daemon's TOML configuration:
// recognizer tuning plus, per device, a gesture-to-action table.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gestured/gestured/internal/gesture"
)

// Action is what a recognized gesture triggers. The zero value is a
// no-op; a non-empty Execute runs that shell command.
type Action struct {
	Execute string
}

// GestureMap maps recognized gestures to their actions for one device.
type GestureMap map[gesture.Gesture]Action

// Config is the merged view over every configuration file found.
type Config struct {
	Tuning  gesture.Tuning
	Devices map[string]GestureMap
}

// TOML shapes. Duration fields decode from strings like "100ms".
type fileConfig struct {
	Gesture tuningSection   `toml:"gesture"`
	Devices []deviceSection `toml:"devices"`
}

// duration lets TOML carry durations as strings.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	*d = duration(v)
	return err
}

type tuningSection struct {
	MaxTapDistance   float64  `toml:"max_tap_distance"`
	DebounceInterval duration `toml:"debounce_interval"`
	EventTimeout     duration `toml:"event_timeout"`
	DirectionBias    float64  `toml:"direction_bias"`
}

type deviceSection struct {
	Device   string           `toml:"device"`
	Gestures []gestureSection `toml:"gestures"`
}

type gestureSection struct {
	Type      string `toml:"type"`
	Fingers   int    `toml:"fingers"`
	Direction string `toml:"direction"`
	Execute   string `toml:"execute"`
}

// New returns an empty configuration with default tuning.
func New() *Config {
	return &Config{
		Tuning:  gesture.DefaultTuning(),
		Devices: make(map[string]GestureMap),
	}
}

// Dirs lists the locations searched by Load, for help output.
func Dirs() []string {
	return []string{
		"/etc/gestured.toml",
		"/etc/gestured.d/*.toml",
		"/usr/local/etc/gestured.toml",
		"/usr/local/etc/gestured.d/*.toml",
		"$XDG_CONFIG_HOME/gestured.toml",
		"$XDG_CONFIG_HOME/gestured.d/*.toml",
		"$HOME/.config/gestured.toml",
		"$HOME/.config/gestured.d/*.toml",
	}
}

// WatchDirs lists the concrete directories that can hold configuration
// files on this system, for the filesystem watcher.
func WatchDirs() []string {
	dirs := []string{
		"/etc", "/etc/gestured.d",
		"/usr/local/etc", "/usr/local/etc/gestured.d",
	}
	if home := userConfigHome(); home != "" {
		dirs = append(dirs, home, filepath.Join(home, "gestured.d"))
	}
	return dirs
}

// Load merges every configuration file found in the standard locations.
// Later files override earlier entries per (device, gesture) key.
// Unreadable or malformed files are logged and skipped; the caller
// decides whether an empty device table is fatal.
func Load() *Config {
	cfg := New()

	for _, prefix := range []string{"/etc", "/usr/local/etc"} {
		tryFile(cfg, filepath.Join(prefix, "gestured.toml"))
		tryDir(cfg, filepath.Join(prefix, "gestured.d"))
	}

	if home := userConfigHome(); home != "" {
		tryFile(cfg, filepath.Join(home, "gestured.toml"))
		tryDir(cfg, filepath.Join(home, "gestured.d"))
	}

	return cfg
}

// LoadFile reads exactly one configuration file (the -config flag).
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if err := mergeFile(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func userConfigHome() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config")
}

func tryFile(cfg *Config, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := mergeFile(cfg, path); err != nil {
		slog.Error("error loading configuration file", "path", path, "error", err)
	}
}

func tryDir(cfg *Config, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("error reading configuration directory", "dir", dir, "error", err)
		}
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
			continue
		}
		tryFile(cfg, filepath.Join(dir, entry.Name()))
	}
}

// mergeFile decodes one file into cfg. Invalid gesture entries are
// logged and skipped rather than failing the whole file.
func mergeFile(cfg *Config, path string) error {
	fc := fileConfig{
		Gesture: tuningSection{
			MaxTapDistance:   cfg.Tuning.MaxTapDistance,
			DebounceInterval: duration(cfg.Tuning.Debounce),
			EventTimeout:     duration(cfg.Tuning.EventTimeout),
			DirectionBias:    cfg.Tuning.DirectionBias,
		},
	}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return err
	}

	cfg.Tuning.MaxTapDistance = fc.Gesture.MaxTapDistance
	cfg.Tuning.Debounce = time.Duration(fc.Gesture.DebounceInterval)
	cfg.Tuning.EventTimeout = time.Duration(fc.Gesture.EventTimeout)
	cfg.Tuning.DirectionBias = fc.Gesture.DirectionBias

	for _, dev := range fc.Devices {
		if dev.Device == "" {
			slog.Warn("device entry without a device path, skipping", "path", path)
			continue
		}
		table := cfg.Devices[dev.Device]
		if table == nil {
			table = make(GestureMap)
			cfg.Devices[dev.Device] = table
		}
		for _, gc := range dev.Gestures {
			g, err := gc.gesture()
			if err != nil {
				slog.Warn("invalid gesture entry, skipping",
					"path", path, "device", dev.Device, "error", err)
				continue
			}
			table[g] = Action{Execute: gc.Execute}
		}
	}
	return nil
}

func (gc gestureSection) gesture() (gesture.Gesture, error) {
	if gc.Fingers < 1 || gc.Fingers > gesture.MaxFingers {
		return gesture.Gesture{}, fmt.Errorf("fingers must be 1..%d, got %d", gesture.MaxFingers, gc.Fingers)
	}
	switch gc.Type {
	case "tap":
		return gesture.NewTap(gc.Fingers), nil
	case "swipe":
		dir, err := gesture.ParseDirection(gc.Direction)
		if err != nil {
			return gesture.Gesture{}, err
		}
		return gesture.NewSwipe(gc.Fingers, dir), nil
	}
	return gesture.Gesture{}, fmt.Errorf("unknown gesture type %q", gc.Type)
}
