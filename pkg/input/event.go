// Package input reconstructs discrete input transitions from the stateless
// snapshots the controller delivers. The controller reports full state at
// every poll: which keys are held right now, which finger slots are active
// right now. The trackers here diff successive snapshots to recover key
// press/release edges and stable per-finger identities.
package input

// Event is one decoded input transition. The concrete types below are the
// complete set; consumers type-switch over them.
type Event interface {
	event()
}

// KeyPress reports a key going down. Code is a Linux input event code.
type KeyPress struct {
	Code uint16
}

// KeyRelease reports a key going up.
type KeyRelease struct {
	Code uint16
}

// ModifierChanged reports one modifier bit flipping. Bit is the position in
// the frame's modifier mask; protocol.ModifierKeycode maps it to a key code.
type ModifierChanged struct {
	Bit     int
	Pressed bool
}

// ContactUpdate reports the state of one tracked touch contact for the
// current cycle. Axis values are device units as decoded, except Y, which
// is remapped to YMin+YMax-Y so that the axis runs in the conventional
// direction.
type ContactUpdate struct {
	ID                     int
	X, Y                   int
	TouchMajor, TouchMinor int
	ToolMajor, ToolMinor   int
	Orientation            int
	Pressure               int
}

// ClickChanged reports the integrated button flipping state.
type ClickChanged struct {
	Pressed bool
}

// FrameSync marks the end of one touch cycle. Contacts that were reported
// in earlier cycles but not in this one are gone as of this marker.
type FrameSync struct{}

func (KeyPress) event()        {}
func (KeyRelease) event()      {}
func (ModifierChanged) event() {}
func (ContactUpdate) event()   {}
func (ClickChanged) event()    {}
func (FrameSync) event()       {}

// Sink receives the event stream, one cycle at a time, in emit order.
type Sink interface {
	HandleEvent(Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event) error

func (f SinkFunc) HandleEvent(e Event) error {
	return f(e)
}
