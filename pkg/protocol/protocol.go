// Package protocol implements the 256-byte message format spoken by the
// Apple SPI keyboard/touchpad controller (ACPI id APP000D, MacBook8,1).
// Every message in either direction is exactly one Frame; the leading
// 16-bit little-endian tag selects the payload layout.
package protocol

import "encoding/binary"

// FrameSize is the fixed length of every message in either direction.
const FrameSize = 256

// Packet type tags, offset 0, little-endian.
const (
	packetKeyboard = 0x0120
	packetTouchpad = 0x0220
	packetNothing  = 0xD040
)

// Frame is one raw 256-byte message as read from (or written to) the bus.
type Frame [FrameSize]byte

// Type returns the packet type tag.
func (f *Frame) Type() uint16 {
	return binary.LittleEndian.Uint16(f[0:2])
}

// Kind is the classification of a received frame.
type Kind int

const (
	KindUnknown Kind = iota
	KindKeyboard
	KindTouchpad
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindKeyboard:
		return "keyboard"
	case KindTouchpad:
		return "touchpad"
	case KindEmpty:
		return "empty"
	}
	return "unknown"
}

// Classify maps a frame's type tag to its Kind. Every tag value maps to
// exactly one Kind; tags the controller is not known to send come back as
// KindUnknown and must not be decoded.
func Classify(f *Frame) Kind {
	switch f.Type() {
	case packetKeyboard:
		return KindKeyboard
	case packetTouchpad:
		return KindTouchpad
	case packetNothing:
		return KindEmpty
	}
	return KindUnknown
}

// EmptyFrame returns a frame carrying the "nothing new" tag, the answer an
// idle controller gives to every poll.
func EmptyFrame() *Frame {
	var f Frame
	binary.LittleEndian.PutUint16(f[0:2], packetNothing)
	return &f
}

// s16 reads a signed little-endian 16-bit field.
func s16(b []byte) int {
	return int(int16(binary.LittleEndian.Uint16(b)))
}
