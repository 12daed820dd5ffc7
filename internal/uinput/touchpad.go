//go:build linux

package uinput

import (
	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/input"
	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/protocol"
)

// TouchpadName is the published name of the virtual touchpad.
const TouchpadName = "Apple SPI Touchpad"

// Axis ranges advertised to the kernel. Touch and tool diameters arrive
// from the controller at half scale and are doubled on the way out;
// pressure passes through as reported.
const (
	diameterMax = 2048
	pressureMax = 6000
	trackingMax = 0xffff
)

// Touchpad is the virtual multitouch device. It speaks the kernel MT
// protocol type B: per-slot updates under stable tracking ids, one
// report per frame.
//
// Contact and Click stage events; Sync retires the slots that went
// unmentioned, reports touch presence and flushes the whole frame in one
// write.
type Touchpad struct {
	w eventWriter

	pending []inputEvent
	seen    [protocol.MaxFingers]bool
	active  [protocol.MaxFingers]bool
	nextID  int32
}

// NewTouchpad registers a virtual touchpad with the controller's
// coordinate space.
func NewTouchpad(path string) (*Touchpad, error) {
	ud := userDev{ID: inputID{Bustype: busSPI, Version: 1}}
	set := func(axis uint16, min, max int32) {
		ud.AbsMin[axis] = min
		ud.AbsMax[axis] = max
	}
	set(absMtSlot, 0, protocol.MaxFingers-1)
	set(absMtTrackingID, 0, trackingMax)
	set(absMtPositionX, protocol.XMin, protocol.XMax)
	set(absMtPositionY, protocol.YMin, protocol.YMax)
	set(absMtTouchMajor, 0, diameterMax)
	set(absMtTouchMinor, 0, diameterMax)
	set(absMtWidthMajor, 0, diameterMax)
	set(absMtWidthMinor, 0, diameterMax)
	set(absMtOrientation, -protocol.MaxFingerOrientation, protocol.MaxFingerOrientation)
	set(absMtPressure, 0, pressureMax)

	dev, err := createDevice(path, TouchpadName, ud, func(d *device) error {
		for _, ev := range []uint16{evKey, evAbs} {
			if err := d.setBit(setEvBit, ev); err != nil {
				return err
			}
		}
		for _, key := range []uint16{btnLeft, btnTouch, btnToolFinger} {
			if err := d.setBit(setKeyBit, key); err != nil {
				return err
			}
		}
		for _, axis := range []uint16{
			absMtSlot, absMtTrackingID,
			absMtPositionX, absMtPositionY,
			absMtTouchMajor, absMtTouchMinor,
			absMtWidthMajor, absMtWidthMinor,
			absMtOrientation, absMtPressure,
		} {
			if err := d.setBit(setAbsBit, axis); err != nil {
				return err
			}
		}
		for _, prop := range []uint16{propPointer, propButtonpad} {
			if err := d.setBit(setPropBit, prop); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newTouchpad(dev), nil
}

func newTouchpad(w eventWriter) *Touchpad {
	return &Touchpad{w: w}
}

// Contact stages one tracked contact's state for the current frame. A
// contact id unseen since the last Sync gets a fresh tracking id.
func (t *Touchpad) Contact(c input.ContactUpdate) {
	if c.ID < 0 || c.ID >= protocol.MaxFingers {
		return
	}
	t.abs(absMtSlot, int32(c.ID))
	if !t.active[c.ID] {
		t.active[c.ID] = true
		t.abs(absMtTrackingID, t.nextID)
		t.nextID = (t.nextID + 1) & trackingMax
	}
	t.seen[c.ID] = true
	t.abs(absMtPositionX, int32(c.X))
	t.abs(absMtPositionY, int32(c.Y))
	t.abs(absMtTouchMajor, int32(c.TouchMajor)<<1)
	t.abs(absMtTouchMinor, int32(c.TouchMinor)<<1)
	t.abs(absMtWidthMajor, int32(c.ToolMajor)<<1)
	t.abs(absMtWidthMinor, int32(c.ToolMinor)<<1)
	t.abs(absMtOrientation, protocol.MaxFingerOrientation-int32(c.Orientation))
	t.abs(absMtPressure, int32(c.Pressure))
}

// Click stages the integrated button state.
func (t *Touchpad) Click(pressed bool) {
	t.key(btnLeft, pressed)
}

// Sync closes the frame: slots active before but unmentioned now are
// retired, touch presence is reported, and everything staged goes out in
// one write.
func (t *Touchpad) Sync() error {
	touching := false
	for slot := 0; slot < protocol.MaxFingers; slot++ {
		if t.active[slot] && !t.seen[slot] {
			t.abs(absMtSlot, int32(slot))
			t.abs(absMtTrackingID, -1)
			t.active[slot] = false
		}
		touching = touching || t.active[slot]
		t.seen[slot] = false
	}
	t.key(btnTouch, touching)
	t.key(btnToolFinger, touching)
	t.pending = append(t.pending, inputEvent{Type: evSyn, Code: synReport})

	err := t.w.writeEvents(t.pending)
	t.pending = t.pending[:0]
	return err
}

func (t *Touchpad) Close() error {
	return t.w.Close()
}

func (t *Touchpad) abs(axis uint16, value int32) {
	t.pending = append(t.pending, inputEvent{Type: evAbs, Code: axis, Value: value})
}

func (t *Touchpad) key(code uint16, pressed bool) {
	var v int32
	if pressed {
		v = 1
	}
	t.pending = append(t.pending, inputEvent{Type: evKey, Code: code, Value: v})
}
