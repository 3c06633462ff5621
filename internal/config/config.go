// Package config loads the TOML configuration file (and its CLI-flag
// overrides) into the settings the player needs at startup: the Qobuz
// account, the output device, the web/TUI/connect presenter toggles,
// and the tunable delays the sink uses to ride out device transitions.
// Grounded on the teacher's own internal/config package: the same
// koanf-over-TOML loader, the same ~/.config/<app>/config.toml plus
// ./config.toml search order, the same nil-pointer-means-default idiom
// for optional bool settings.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the full set of settings read from config.toml, overridable
// per-run by the CLI flags documented on the `open` subcommand.
type Config struct {
	// Qobuz account. Both may also be supplied with --username and
	// --password. Whatever is set here overrides the username/password
	// saved in the persistence layer, and the merged pair is saved back
	// there; when neither source has both, startup fails.
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// DefaultQuality is the Qobuz format id to request when none is
	// specified per-stream (5=MP3, 6=CD FLAC, 7=Hi-Res <=96kHz, 27=Hi-Res
	// up to 192kHz).
	DefaultQuality int `koanf:"default_quality"`

	// Device is passed to the sink as an output device name. The sink
	// does not use it: output always opens on the system default device,
	// and no other device is tried.
	Device string `koanf:"device"`

	// Interface is the host:port the web presenter binds to when Web is
	// set; otherwise a non-empty Interface starts the connect listener
	// on it instead.
	Interface string `koanf:"interface"`

	// Web enables the web UI + SSE presenter alongside the TUI.
	Web bool `koanf:"web"`

	// DisableTUI turns off the terminal UI, useful when running headless
	// behind the web presenter or the connect protocol only.
	DisableTUI bool `koanf:"disable_tui"`

	// CacheDir holds the downloader's on-disk track cache. Empty means
	// the platform-standard cache directory for the app.
	CacheDir string `koanf:"cache_dir"`

	// DatabasePath overrides where the sqlite store keeps its file.
	// Empty means the platform-standard data directory for the app.
	DatabasePath string `koanf:"database_path"`

	// Player compensates for devices that need real time to settle a
	// state or sample-rate transition; both default to 0 (no delay).
	StateChangeDelayMS      int64 `koanf:"state_change_delay_ms"`
	SampleRateChangeDelayMS int64 `koanf:"sample_rate_change_delay_ms"`

	// Desktop notifications.
	Notifications NotificationsConfig `koanf:"notifications"`
}

// NotificationsConfig holds desktop notification settings.
type NotificationsConfig struct {
	Enabled      *bool `koanf:"enabled"`        // master toggle (default: false)
	NowPlaying   *bool `koanf:"now_playing"`    // on non-error notifications (default: true)
	Errors       *bool `koanf:"errors"`         // on errors (default: true)
	ShowAlbumArt *bool `koanf:"show_album_art"` // (default: true); not read, notifications carry no image
	Timeout      int32 `koanf:"timeout"`        // ms; unset or 0 means the default (5000)
}

// StateChangeDelay returns the configured delay as a time.Duration.
func (c *Config) StateChangeDelay() time.Duration {
	return time.Duration(c.StateChangeDelayMS) * time.Millisecond
}

// SampleRateChangeDelay returns the configured delay as a time.Duration.
func (c *Config) SampleRateChangeDelay() time.Duration {
	return time.Duration(c.SampleRateChangeDelayMS) * time.Millisecond
}

// Load reads config.toml from the standard search locations (later
// entries win) and unmarshals it into a Config with defaults applied.
func Load() (*Config, error) {
	k := koanf.New(".")

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{DefaultQuality: 6}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.CacheDir != "" {
		cfg.CacheDir = expandPath(cfg.CacheDir)
	}
	if cfg.DatabasePath != "" {
		cfg.DatabasePath = expandPath(cfg.DatabasePath)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	var paths []string

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "qobuz-player", "config.toml"))
	}
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetNotificationsConfig returns the notification configuration with
// defaults applied to any unset optional toggle.
func (c *Config) GetNotificationsConfig() NotificationsConfig {
	cfg := c.Notifications

	if cfg.Enabled == nil {
		f := false
		cfg.Enabled = &f
	}
	if cfg.NowPlaying == nil {
		t := true
		cfg.NowPlaying = &t
	}
	if cfg.Errors == nil {
		t := true
		cfg.Errors = &t
	}
	if cfg.ShowAlbumArt == nil {
		t := true
		cfg.ShowAlbumArt = &t
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5000
	}

	return cfg
}
