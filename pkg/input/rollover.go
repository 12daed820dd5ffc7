package input

import (
	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/protocol"
)

// RolloverTracker recovers key press and release edges from successive
// keyboard snapshots by set difference. Slot position carries no meaning:
// the controller reorders held keys between frames freely, so membership of
// the code value is what is diffed. Zero is "empty slot", never a key.
type RolloverTracker struct {
	prevKeys [protocol.MaxRollover]byte
	prevMods protocol.Modifiers
}

func NewRolloverTracker() *RolloverTracker {
	return &RolloverTracker{}
}

// Update diffs the snapshot against the previous one and returns the edge
// events: releases first, in previous-frame slot order, then presses in
// new-frame slot order, then modifier transitions in bit order. Duplicate
// codes within one snapshot produce at most one event per transition.
func (r *RolloverTracker) Update(s protocol.KeyboardSnapshot) []Event {
	var out []Event

	for i, old := range r.prevKeys {
		if old == 0 || firstIndex(r.prevKeys, old) != i {
			continue
		}
		if contains(s.Keys, old) {
			continue
		}
		if code := protocol.Keycode(old); code != 0 {
			out = append(out, KeyRelease{Code: code})
		}
	}

	for i, k := range s.Keys {
		if k == 0 || firstIndex(s.Keys, k) != i {
			continue
		}
		if contains(r.prevKeys, k) {
			continue
		}
		if code := protocol.Keycode(k); code != 0 {
			out = append(out, KeyPress{Code: code})
		}
	}

	for bit := 0; bit < 8; bit++ {
		was, now := r.prevMods.Test(bit), s.Modifiers.Test(bit)
		if was == now {
			continue
		}
		out = append(out, ModifierChanged{Bit: bit, Pressed: now})
	}

	r.prevKeys = s.Keys
	r.prevMods = s.Modifiers
	return out
}

func contains(keys [protocol.MaxRollover]byte, code byte) bool {
	return firstIndex(keys, code) >= 0
}

func firstIndex(keys [protocol.MaxRollover]byte, code byte) int {
	for i, k := range keys {
		if k == code {
			return i
		}
	}
	return -1
}
