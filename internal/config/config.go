// Package config loads, saves and watches the daemon's settings.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"

	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/input"
)

// DefaultPath is where the daemon looks when -config is not given.
const DefaultPath = "/etc/applespi/config.toml"

// Config is the daemon configuration. Device and PollInterval are fixed
// for the life of a session; the touchpad cutoff and the log level are
// live tunables picked up by Watch.
type Config struct {
	Bus      BusConfig      `toml:"bus"`
	Touchpad TouchpadConfig `toml:"touchpad"`
	Log      LogConfig      `toml:"log"`
}

// BusConfig selects and paces the controller connection.
type BusConfig struct {
	// Device is the controller's spidev node. Empty means discover it
	// through udev.
	Device string `toml:"device"`

	// PollInterval is the poll loop cadence, stored in the file as
	// integer nanoseconds.
	PollInterval time.Duration `toml:"poll_interval"`
}

// TouchpadConfig tunes the touch tracker.
type TouchpadConfig struct {
	// MatchCutoff is how far a finger may travel between polls and still
	// be the same contact, in device units. Zero disables the cutoff.
	MatchCutoff int `toml:"match_cutoff"`
}

// LogConfig tunes logging.
type LogConfig struct {
	// Debug enables frame-level logging.
	Debug bool `toml:"debug"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Bus: BusConfig{
			PollInterval: time.Millisecond,
		},
		Touchpad: TouchpadConfig{
			MatchCutoff: input.DefaultMatchCutoff,
		},
	}
}

// Load reads the file at path. A missing file is not an error: the
// defaults are written there for the operator to edit, then returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// Watch reloads path whenever it is rewritten and hands the result to
// apply on the watcher goroutine. The directory is watched rather than
// the file so editors that replace-and-rename do not break the watch.
// Watch returns once the watcher is installed and runs until ctx ends.
func Watch(ctx context.Context, path string, apply func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return fmt.Errorf("config watch: %w", err)
	}

	want := filepath.Clean(path)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != want || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					slog.Warn("config reload failed", slog.Any("error", err))
					continue
				}
				slog.Info("config reloaded", slog.String("path", path))
				apply(cfg)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", slog.Any("error", err))
			}
		}
	}()
	return nil
}
