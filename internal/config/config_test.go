package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/input"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Bus.Device != "" {
		t.Errorf("Bus.Device = %q, want discovery default", cfg.Bus.Device)
	}
	if cfg.Bus.PollInterval != time.Millisecond {
		t.Errorf("Bus.PollInterval = %v, want 1ms", cfg.Bus.PollInterval)
	}
	if cfg.Touchpad.MatchCutoff != input.DefaultMatchCutoff {
		t.Errorf("Touchpad.MatchCutoff = %d, want %d", cfg.Touchpad.MatchCutoff, input.DefaultMatchCutoff)
	}
	if cfg.Log.Debug {
		t.Errorf("Log.Debug = true, want false")
	}
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("first Load = %+v, want defaults", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Load did not write the default file: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if !reflect.DeepEqual(again, cfg) {
		t.Errorf("reloading the written defaults changed them: %+v", again)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Bus.Device = "/dev/spidev1.0"
	cfg.Bus.PollInterval = 2 * time.Millisecond
	cfg.Touchpad.MatchCutoff = 512
	cfg.Log.Debug = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

// TestLoadPartialFileKeepsDefaults checks that keys absent from the file
// keep their defaults instead of zeroing out.
func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	partial := "[touchpad]\nmatch_cutoff = 99\n"
	if err := os.WriteFile(path, []byte(partial), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Touchpad.MatchCutoff != 99 {
		t.Errorf("Touchpad.MatchCutoff = %d, want 99", cfg.Touchpad.MatchCutoff)
	}
	if cfg.Bus.PollInterval != time.Millisecond {
		t.Errorf("Bus.PollInterval = %v, want the 1ms default", cfg.Bus.PollInterval)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("match_cutoff = {"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("Load: want decode error, got nil")
	}
}

func TestWatchReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	applied := make(chan *Config, 4)
	if err := Watch(ctx, path, func(c *Config) { applied <- c }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	changed := Default()
	changed.Touchpad.MatchCutoff = 2048
	if err := Save(path, changed); err != nil {
		t.Fatalf("Save: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-applied:
			if cfg.Touchpad.MatchCutoff == 2048 {
				return
			}
		case <-deadline:
			t.Fatalf("watcher never delivered the rewritten config")
		}
	}
}
