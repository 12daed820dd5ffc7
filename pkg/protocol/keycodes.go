package protocol

// keycodes maps the raw key index reported in a keyboard frame to a Linux
// input event code (input-event-codes.h values). Index 0 means "no key";
// indexes the controller never reports map to 0 as well.
var keycodes = [...]uint16{
	0, 0, 0, 0,
	30, 48, 46, 32, 18, 33, 34, 35, 23, 36, // a b c d e f g h i j
	37, 38, 50, 49, 24, 25, 16, 19, 31, 20, // k l m n o p q r s t
	22, 47, 17, 45, 21, 44, // u v w x y z
	2, 3, 4, 5, 6, 7, 8, 9, 10, 11, // 1 2 3 4 5 6 7 8 9 0
	28, 1, 14, 15, 57, 12, // enter esc backspace tab space minus
	13, 26, 27, 43, 0, // equal leftbrace rightbrace backslash
	39, 40, 41, 51, 52, 53, // semicolon apostrophe grave comma dot slash
	58, // capslock
	59, 60, 61, 62, 63, 64, 65, 66, 67, 68, 87, 88, // f1 .. f12
	0, 0, 0, 0, 0, 0, 0, 0, 0,
	106, 105, 108, 103, // right left down up
}

// modifierKeycodes maps modifier bit positions to Linux input event codes.
// Bit 4 is reserved by the controller.
var modifierKeycodes = [8]uint16{29, 42, 56, 125, 0, 54, 100, 126}

// Keycode maps a raw key index to its Linux key code. Out-of-range and
// unmapped indexes return 0 ("no key") rather than failing.
func Keycode(raw byte) uint16 {
	if int(raw) >= len(keycodes) {
		return 0
	}
	return keycodes[raw]
}

// ModifierKeycode maps a modifier bit position to its Linux key code.
func ModifierKeycode(bit int) uint16 {
	if bit < 0 || bit >= len(modifierKeycodes) {
		return 0
	}
	return modifierKeycodes[bit]
}

// MappedKeycodes returns every distinct nonzero key code the controller can
// produce, modifiers included. Virtual device setup registers exactly these.
func MappedKeycodes() []uint16 {
	seen := make(map[uint16]bool)
	var out []uint16
	add := func(code uint16) {
		if code != 0 && !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	for _, code := range keycodes {
		add(code)
	}
	for _, code := range modifierKeycodes {
		add(code)
	}
	return out
}
