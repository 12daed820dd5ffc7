package protocol

import "encoding/binary"

// Keyboard payload field offsets.
const (
	offKBCounter   = 11
	offKBModifiers = 17
	offKBKeys      = 19
	offKBFn        = 25
	offKBCRC       = 26
)

// MaxRollover is how many simultaneous non-modifier keys one frame reports.
const MaxRollover = 6

// Modifiers is the modifier state reported with every keyboard frame, one
// bit per modifier key.
type Modifiers uint8

// Modifier bit positions.
const (
	ModLeftControl = iota
	ModLeftShift
	ModLeftAlt
	ModLeftMeta
	modReserved
	ModRightShift
	ModRightAlt
	ModRightMeta
)

// Test reports whether the modifier at the given bit position is pressed.
func (m Modifiers) Test(bit int) bool {
	return m&(1<<uint(bit)) != 0
}

func (m Modifiers) String() string {
	names := [8]string{"lctrl", "lshift", "lalt", "lmeta", "bit4", "rshift", "ralt", "rmeta"}
	s := ""
	for i, n := range names {
		if !m.Test(i) {
			continue
		}
		if s != "" {
			s += "+"
		}
		s += n
	}
	if s == "" {
		return "none"
	}
	return s
}

// KeyboardSnapshot is the decoded state of one keyboard frame: the full set
// of keys the controller currently sees as held, not a delta.
type KeyboardSnapshot struct {
	Keys      [MaxRollover]byte // raw key indexes, 0 = empty slot
	Modifiers Modifiers
	Fn        bool
	Counter   byte   // wraps at 255
	CRC       uint16 // trailing checksum field, carried but not validated
}

// DecodeKeyboard reinterprets a keyboard frame. It never fails: the frame
// length is fixed by the transport and every byte value is meaningful.
func DecodeKeyboard(f *Frame) KeyboardSnapshot {
	var s KeyboardSnapshot
	copy(s.Keys[:], f[offKBKeys:offKBKeys+MaxRollover])
	s.Modifiers = Modifiers(f[offKBModifiers])
	s.Fn = f[offKBFn] != 0
	s.Counter = f[offKBCounter]
	s.CRC = binary.LittleEndian.Uint16(f[offKBCRC : offKBCRC+2])
	return s
}
