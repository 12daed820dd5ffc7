//go:build linux

package uinput

import (
	"errors"

	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/input"
	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/protocol"
)

// Sink feeds the session's event stream into the virtual device pair.
// Key transitions go straight out; touch events accumulate and flush on
// the cycle's FrameSync, preserving the tracker's framing.
type Sink struct {
	kbd *Keyboard
	tpd *Touchpad
}

// NewSink creates both virtual devices through the uinput node at path.
func NewSink(path string) (*Sink, error) {
	kbd, err := NewKeyboard(path)
	if err != nil {
		return nil, err
	}
	tpd, err := NewTouchpad(path)
	if err != nil {
		kbd.Close()
		return nil, err
	}
	return &Sink{kbd: kbd, tpd: tpd}, nil
}

// HandleEvent implements input.Sink.
func (s *Sink) HandleEvent(e input.Event) error {
	switch ev := e.(type) {
	case input.KeyPress:
		return s.kbd.Key(ev.Code, true)
	case input.KeyRelease:
		return s.kbd.Key(ev.Code, false)
	case input.ModifierChanged:
		code := protocol.ModifierKeycode(ev.Bit)
		if code == 0 {
			return nil
		}
		return s.kbd.Key(code, ev.Pressed)
	case input.ContactUpdate:
		s.tpd.Contact(ev)
		return nil
	case input.ClickChanged:
		s.tpd.Click(ev.Pressed)
		return nil
	case input.FrameSync:
		return s.tpd.Sync()
	}
	return nil
}

// Close unpublishes both devices.
func (s *Sink) Close() error {
	return errors.Join(s.kbd.Close(), s.tpd.Close())
}
