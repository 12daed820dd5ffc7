//go:build linux

// Package uinput surfaces the decoded input stream to the rest of the
// system as two kernel virtual devices, a keyboard and a multitouch
// touchpad, created through /dev/uinput.
package uinput

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DefaultPath is where the uinput control node normally lives.
const DefaultPath = "/dev/uinput"

// uinput ioctl requests and limits, from linux/uinput.h.
const (
	maxNameSize = 80
	absSize     = 64

	devCreate  = 0x5501
	devDestroy = 0x5502

	setEvBit   = 0x40045564
	setKeyBit  = 0x40045565
	setAbsBit  = 0x40045567
	setPropBit = 0x4004556e
)

// Event types and codes, from linux/input-event-codes.h. Only what the
// two devices emit.
const (
	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	synReport = 0

	btnLeft       = 0x110
	btnToolFinger = 0x145
	btnTouch      = 0x14a

	absMtSlot        = 0x2f
	absMtTouchMajor  = 0x30
	absMtTouchMinor  = 0x31
	absMtWidthMajor  = 0x32
	absMtWidthMinor  = 0x33
	absMtOrientation = 0x34
	absMtPositionX   = 0x35
	absMtPositionY   = 0x36
	absMtTrackingID  = 0x39
	absMtPressure    = 0x3a

	propPointer   = 0x00
	propButtonpad = 0x02

	// The controller hangs off an SPI bus, and the virtual devices say so.
	busSPI = 0x1c
)

// inputEvent mirrors struct input_event.
type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// inputID mirrors struct input_id.
type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// userDev mirrors struct uinput_user_dev.
type userDev struct {
	Name       [maxNameSize]byte
	ID         inputID
	EffectsMax uint32
	AbsMax     [absSize]int32
	AbsMin     [absSize]int32
	AbsFuzz    [absSize]int32
	AbsFlat    [absSize]int32
}

// eventWriter is the seam between device logic and the uinput node, so
// the slot bookkeeping and event encoding are testable without one.
type eventWriter interface {
	writeEvents(events []inputEvent) error
	Close() error
}

// device is one created uinput node.
type device struct {
	f    *os.File
	name string
}

// createDevice opens the uinput control node, lets setup register the
// device's capabilities, then publishes it under the given name.
func createDevice(path, name string, ud userDev, setup func(d *device) error) (*device, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|unix.O_NONBLOCK, 0660)
	if err != nil {
		return nil, fmt.Errorf("uinput: open %s: %w", path, err)
	}
	d := &device{f: f, name: name}
	if err := setup(d); err != nil {
		f.Close()
		return nil, fmt.Errorf("uinput %s: %w", name, err)
	}

	copy(ud.Name[:], name)
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, ud); err != nil {
		f.Close()
		return nil, fmt.Errorf("uinput %s: encode device: %w", name, err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return nil, fmt.Errorf("uinput %s: write device: %w", name, err)
	}
	if err := d.ioctl(devCreate, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("uinput %s: create: %w", name, err)
	}
	return d, nil
}

func (d *device) ioctl(req uint, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), uintptr(req), arg)
	if errno != 0 {
		return errno
	}
	return nil
}

func (d *device) setBit(req uint, bit uint16) error {
	if err := d.ioctl(req, uintptr(bit)); err != nil {
		return fmt.Errorf("register bit %#x: %w", bit, err)
	}
	return nil
}

// writeEvents flushes one batch of events to the kernel in a single write.
func (d *device) writeEvents(events []inputEvent) error {
	buf := bytes.NewBuffer(make([]byte, 0, len(events)*int(unsafe.Sizeof(inputEvent{}))))
	for _, e := range events {
		if err := binary.Write(buf, binary.LittleEndian, e); err != nil {
			return fmt.Errorf("uinput %s: encode event: %w", d.name, err)
		}
	}
	if _, err := d.f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("uinput %s: write events: %w", d.name, err)
	}
	return nil
}

// Close unpublishes the device and releases the node.
func (d *device) Close() error {
	if err := d.ioctl(devDestroy, 0); err != nil {
		d.f.Close()
		return fmt.Errorf("uinput %s: destroy: %w", d.name, err)
	}
	return d.f.Close()
}
