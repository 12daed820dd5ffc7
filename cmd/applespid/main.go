// applespid drives the MacBook SPI keyboard/touchpad controller from user
// space: it binds the spidev node, replays the power-on handshake, polls
// at a fixed cadence and republishes the decoded events through a pair of
// uinput virtual devices.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/SociOS-Linux/macbook12-spi-driver/internal/config"
	"github.com/SociOS-Linux/macbook12-spi-driver/internal/discover"
	"github.com/SociOS-Linux/macbook12-spi-driver/internal/spidev"
	"github.com/SociOS-Linux/macbook12-spi-driver/internal/uinput"
	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/input"
	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/session"
	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/spi"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "configuration file")
	devicePath := flag.String("device", "", "spidev node, overriding config and discovery")
	detect := flag.Bool("detect", false, "probe for the controller and exit")
	dump := flag.Bool("dump", false, "print events instead of creating uinput devices")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := new(slog.LevelVar)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer stop()

	if *detect {
		os.Exit(runDetect())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Warn("falling back to default configuration", slog.Any("error", err))
	}
	if *verbose || cfg.Log.Debug {
		level.Set(slog.LevelDebug)
	}

	if err := run(ctx, cfg, *configPath, *devicePath, *dump, *verbose, level); err != nil {
		slog.Error("applespid failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, configPath, devicePath string, dump, verbose bool, level *slog.LevelVar) error {
	device := devicePath
	if device == "" {
		device = cfg.Bus.Device
	}
	if device == "" {
		// When the firmware put the keyboard on USB, the SPI side is
		// dead; refuse rather than fight over it. An explicit -device
		// or configured node skips the guard.
		if name, attached, err := discover.USBKeyboard(); err != nil {
			slog.Warn("usb keyboard probe failed", slog.Any("error", err))
		} else if attached {
			return fmt.Errorf("%s is attached over USB; not binding SPI", name)
		}
		var err error
		device, err = discover.SPINode()
		if err != nil {
			return err
		}
		slog.Info("discovered controller", slog.String("device", device))
	}

	conn, err := spidev.Open(device)
	if err != nil {
		return err
	}

	var sink input.Sink
	if dump {
		sink = input.SinkFunc(func(e input.Event) error {
			fmt.Printf("%T%+v\n", e, e)
			return nil
		})
	} else {
		us, err := uinput.NewSink(uinput.DefaultPath)
		if err != nil {
			conn.Close()
			return err
		}
		defer us.Close()
		sink = us
	}

	sess := session.New(conn, sink, session.Config{MatchCutoff: cfg.Touchpad.MatchCutoff})
	defer sess.Stop()
	if err := sess.Start(ctx); err != nil {
		return fmt.Errorf("session start: %w", err)
	}

	// Live tunables land here from the watcher goroutine and are applied
	// between polls, keeping the session single-threaded.
	var pending atomic.Pointer[config.Config]
	if err := config.Watch(ctx, configPath, func(c *config.Config) {
		pending.Store(c)
	}); err != nil {
		slog.Warn("config watch disabled", slog.Any("error", err))
	}

	slog.Info("polling", slog.String("device", device), slog.Duration("interval", cfg.Bus.PollInterval))
	ticker := time.NewTicker(cfg.Bus.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if c := pending.Swap(nil); c != nil {
				sess.SetMatchCutoff(c.Touchpad.MatchCutoff)
				if !verbose {
					if c.Log.Debug {
						level.Set(slog.LevelDebug)
					} else {
						level.Set(slog.LevelInfo)
					}
				}
			}
			if err := sess.PollOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				// Transport errors are one skipped cycle, already
				// logged by the session. Anything else is fatal.
				var te *spi.TransportError
				if !errors.As(err, &te) {
					return err
				}
			}
		}
	}
}

func runDetect() int {
	code := 0
	if node, err := discover.SPINode(); err != nil {
		fmt.Printf("spidev:       %v\n", err)
		code = 1
	} else {
		fmt.Printf("spidev:       %s\n", node)
	}

	if name, attached, err := discover.USBKeyboard(); err != nil {
		fmt.Printf("usb keyboard: probe failed: %v\n", err)
	} else if attached {
		fmt.Printf("usb keyboard: %s attached; SPI interface is inactive\n", name)
		code = 1
	} else {
		fmt.Printf("usb keyboard: not attached\n")
	}

	devs, err := discover.HIDDevices()
	if err != nil {
		fmt.Printf("hid devices:  %v\n", err)
		return code
	}
	for _, d := range devs {
		fmt.Printf("hid:          %04x:%04x %s %s (%s)\n", d.VendorID, d.ProductID, d.Manufacturer, d.Product, d.Path)
	}
	return code
}
