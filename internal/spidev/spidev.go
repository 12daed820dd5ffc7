//go:build linux

// Package spidev drives the controller through a Linux /dev/spidevB.C
// node. The controller wants SPI mode 0, 8 bits per word and a 400 kHz
// clock; the ACPI tables advertise 8 MHz but transfers only come back
// clean at 400 kHz.
package spidev

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/protocol"
	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/spi"
)

// Bus parameters the controller requires.
const (
	Mode        = 0
	BitsPerWord = 8
	SpeedHz     = 400000
)

// turnaroundLen is the short device status read between the write and
// read phases of an exchange.
const turnaroundLen = 4

// Write-direction spidev ioctl requests, from linux/spi/spidev.h.
const (
	iocWrMode        = 0x40016b01
	iocWrBitsPerWord = 0x40016b03
	iocWrMaxSpeedHz  = 0x40046b04
)

// transfer mirrors struct spi_ioc_transfer. The kernel reads buffer
// addresses out of the 64-bit fields regardless of platform word size.
type transfer struct {
	txBuf       uint64
	rxBuf       uint64
	length      uint32
	speedHz     uint32
	delayUsecs  uint16
	bitsPerWord uint8
	csChange    uint8
	txNBits     uint8
	rxNBits     uint8
	pad         uint16
}

// iocMessage is SPI_IOC_MESSAGE(n): _IOW('k', 0, char[n*32]).
func iocMessage(n int) uint {
	size := (uint(n) * uint(unsafe.Sizeof(transfer{}))) & 0x3fff
	return 0x40006b00 | size<<16
}

// Conn is a spi.Conn bound to a spidev node.
type Conn struct {
	f      *os.File
	closed bool
}

// Open readies a spidev node for controller traffic.
func Open(path string) (*Conn, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("spidev: %w", err)
	}
	c := &Conn{f: f}
	if err := c.setup(); err != nil {
		f.Close()
		return nil, fmt.Errorf("spidev %s: %w", path, err)
	}
	return c, nil
}

func (c *Conn) setup() error {
	mode := uint8(Mode)
	if err := c.ioctl(iocWrMode, unsafe.Pointer(&mode)); err != nil {
		return fmt.Errorf("set mode: %w", err)
	}
	bits := uint8(BitsPerWord)
	if err := c.ioctl(iocWrBitsPerWord, unsafe.Pointer(&bits)); err != nil {
		return fmt.Errorf("set bits per word: %w", err)
	}
	speed := uint32(SpeedHz)
	if err := c.ioctl(iocWrMaxSpeedHz, unsafe.Pointer(&speed)); err != nil {
		return fmt.Errorf("set clock: %w", err)
	}
	return nil
}

// Exchange sends tx and collects the 256-byte response in one atomic bus
// message, so the kernel toggles chip select between the three phases
// without letting another client in.
func (c *Conn) Exchange(ctx context.Context, tx *protocol.Frame) (*protocol.Frame, error) {
	rx := new(protocol.Frame)
	var turnaround [turnaroundLen]byte
	err := c.message(ctx, exchangeTransfers(tx, &turnaround, rx))
	runtime.KeepAlive(tx)
	runtime.KeepAlive(&turnaround)
	runtime.KeepAlive(rx)
	if err != nil {
		return nil, &spi.TransportError{Op: "exchange", Err: err}
	}
	return rx, nil
}

// Read is the idle poll: a single receive-only transfer.
func (c *Conn) Read(ctx context.Context) (*protocol.Frame, error) {
	rx := new(protocol.Frame)
	err := c.message(ctx, readTransfers(rx))
	runtime.KeepAlive(rx)
	if err != nil {
		return nil, &spi.TransportError{Op: "read", Err: err}
	}
	return rx, nil
}

// Close releases the node. Safe to call twice.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.f.Close()
}

func (c *Conn) message(ctx context.Context, xfers []transfer) error {
	if c.closed {
		return spi.ErrClosed
	}
	// The ioctl itself cannot be interrupted; honor cancellation at the
	// cycle boundary.
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, c.f.Fd(), uintptr(iocMessage(len(xfers))), uintptr(unsafe.Pointer(&xfers[0])))
	if errno != 0 {
		return fmt.Errorf("SPI_IOC_MESSAGE(%d): %w", len(xfers), errno)
	}
	return nil
}

func (c *Conn) ioctl(req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, c.f.Fd(), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// exchangeTransfers builds the three-phase transaction: write the command
// frame, read and discard the turnaround reply, read the response. Chip
// select toggles after the first two phases; the end of the message
// handles the last.
func exchangeTransfers(tx *protocol.Frame, turnaround *[turnaroundLen]byte, rx *protocol.Frame) []transfer {
	return []transfer{
		{
			txBuf:    uint64(uintptr(unsafe.Pointer(&tx[0]))),
			length:   protocol.FrameSize,
			speedHz:  SpeedHz,
			csChange: 1,
		},
		{
			rxBuf:    uint64(uintptr(unsafe.Pointer(&turnaround[0]))),
			length:   turnaroundLen,
			speedHz:  SpeedHz,
			csChange: 1,
		},
		{
			rxBuf:   uint64(uintptr(unsafe.Pointer(&rx[0]))),
			length:  protocol.FrameSize,
			speedHz: SpeedHz,
		},
	}
}

func readTransfers(rx *protocol.Frame) []transfer {
	return []transfer{
		{
			rxBuf:   uint64(uintptr(unsafe.Pointer(&rx[0]))),
			length:  protocol.FrameSize,
			speedHz: SpeedHz,
		},
	}
}
