// applespi-events tails the virtual devices applespid publishes and
// prints their event stream, closing the loop during bring-up: frames go
// in over SPI, events come back out of the kernel here.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	evdev "github.com/holoplot/go-evdev"
)

func main() {
	name := flag.String("name", "Apple SPI", "substring of the input device names to follow")
	flag.Parse()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer stop()

	paths, err := evdev.ListDevicePaths()
	if err != nil {
		fmt.Fprintf(os.Stderr, "list input devices: %v\n", err)
		os.Exit(1)
	}

	followed := 0
	for _, p := range paths {
		if !strings.Contains(p.Name, *name) {
			continue
		}
		dev, err := evdev.Open(p.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open %s: %v\n", p.Path, err)
			continue
		}
		fmt.Printf("following %s (%s)\n", p.Name, p.Path)
		followed++
		go tail(p.Name, dev)
	}
	if followed == 0 {
		fmt.Fprintf(os.Stderr, "no input devices matching %q; is applespid running?\n", *name)
		os.Exit(1)
	}

	<-ctx.Done()
}

// tail prints one device's events until the device goes away. SYN_REPORT
// draws a frame separator instead of its code.
func tail(label string, dev *evdev.InputDevice) {
	defer dev.Close()
	for {
		ev, err := dev.ReadOne()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: read: %v\n", label, err)
			return
		}
		if ev.Type == evdev.EV_SYN {
			fmt.Printf("%s: ----\n", label)
			continue
		}
		fmt.Printf("%s: %s %s %d\n", label, ev.TypeName(), ev.CodeName(), ev.Value)
	}
}
