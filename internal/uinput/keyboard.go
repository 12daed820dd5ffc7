//go:build linux

package uinput

import (
	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/protocol"
)

// KeyboardName is the published name of the virtual keyboard.
const KeyboardName = "Apple SPI Keyboard"

// Keyboard is the virtual keyboard device. It takes one key transition at
// a time, matching how the rollover tracker emits them, and flushes each
// with its own report.
type Keyboard struct {
	w eventWriter
}

// NewKeyboard registers a virtual keyboard capable of every key the
// controller can report.
func NewKeyboard(path string) (*Keyboard, error) {
	ud := userDev{ID: inputID{Bustype: busSPI, Version: 1}}
	dev, err := createDevice(path, KeyboardName, ud, func(d *device) error {
		if err := d.setBit(setEvBit, evKey); err != nil {
			return err
		}
		for _, code := range protocol.MappedKeycodes() {
			if err := d.setBit(setKeyBit, code); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Keyboard{w: dev}, nil
}

// Key reports one key transition.
func (k *Keyboard) Key(code uint16, pressed bool) error {
	var v int32
	if pressed {
		v = 1
	}
	return k.w.writeEvents([]inputEvent{
		{Type: evKey, Code: code, Value: v},
		{Type: evSyn, Code: synReport},
	})
}

func (k *Keyboard) Close() error {
	return k.w.Close()
}
