package input

import (
	"reflect"
	"testing"

	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/protocol"
)

func snap(mods protocol.Modifiers, keys ...byte) protocol.KeyboardSnapshot {
	var s protocol.KeyboardSnapshot
	copy(s.Keys[:], keys)
	s.Modifiers = mods
	return s
}

func TestRolloverReleaseAll(t *testing.T) {
	r := NewRolloverTracker()
	r.Update(snap(0, 4, 5))

	got := r.Update(snap(0))
	want := []Event{
		KeyRelease{Code: protocol.Keycode(4)},
		KeyRelease{Code: protocol.Keycode(5)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("release-all events:\ngot:  %+v\nwant: %+v", got, want)
	}
}

func TestRolloverSinglePress(t *testing.T) {
	r := NewRolloverTracker()
	r.Update(snap(0, 4))

	got := r.Update(snap(0, 4, 7))
	want := []Event{KeyPress{Code: protocol.Keycode(7)}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("press events:\ngot:  %+v\nwant: %+v", got, want)
	}
}

func TestRolloverIdempotent(t *testing.T) {
	r := NewRolloverTracker()
	s := snap(0x05, 4, 9, 23)
	r.Update(s)

	if got := r.Update(s); len(got) != 0 {
		t.Errorf("second identical snapshot emitted %+v, want nothing", got)
	}
}

func TestRolloverReorderIsSilent(t *testing.T) {
	r := NewRolloverTracker()
	r.Update(snap(0, 4, 5, 6))

	if got := r.Update(snap(0, 6, 4, 5)); len(got) != 0 {
		t.Errorf("reordered snapshot emitted %+v, want nothing", got)
	}
}

func TestRolloverDuplicateCodes(t *testing.T) {
	r := NewRolloverTracker()

	got := r.Update(snap(0, 4, 4, 4))
	if want := []Event{KeyPress{Code: protocol.Keycode(4)}}; !reflect.DeepEqual(got, want) {
		t.Errorf("duplicated press:\ngot:  %+v\nwant: %+v", got, want)
	}

	got = r.Update(snap(0))
	if want := []Event{KeyRelease{Code: protocol.Keycode(4)}}; !reflect.DeepEqual(got, want) {
		t.Errorf("duplicated release:\ngot:  %+v\nwant: %+v", got, want)
	}
}

func TestRolloverReleasesBeforePresses(t *testing.T) {
	r := NewRolloverTracker()
	r.Update(snap(0, 4, 5))

	got := r.Update(snap(0, 5, 7, 9))
	want := []Event{
		KeyRelease{Code: protocol.Keycode(4)},
		KeyPress{Code: protocol.Keycode(7)},
		KeyPress{Code: protocol.Keycode(9)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mixed cycle:\ngot:  %+v\nwant: %+v", got, want)
	}
}

func TestRolloverReleaseOrderFollowsPreviousFrame(t *testing.T) {
	r := NewRolloverTracker()
	r.Update(snap(0, 9, 4, 7))

	got := r.Update(snap(0))
	want := []Event{
		KeyRelease{Code: protocol.Keycode(9)},
		KeyRelease{Code: protocol.Keycode(4)},
		KeyRelease{Code: protocol.Keycode(7)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("release order:\ngot:  %+v\nwant: %+v", got, want)
	}
}

func TestRolloverUnmappedCodesAreNoKey(t *testing.T) {
	r := NewRolloverTracker()
	// 70 is inside the table but maps to nothing; 200 is past the end.
	if got := r.Update(snap(0, 70, 200)); len(got) != 0 {
		t.Errorf("unmapped codes emitted %+v, want nothing", got)
	}
	if got := r.Update(snap(0)); len(got) != 0 {
		t.Errorf("unmapped codes emitted release %+v, want nothing", got)
	}
}

func TestRolloverModifiers(t *testing.T) {
	r := NewRolloverTracker()

	got := r.Update(snap(1<<protocol.ModLeftShift | 1<<protocol.ModRightMeta))
	want := []Event{
		ModifierChanged{Bit: protocol.ModLeftShift, Pressed: true},
		ModifierChanged{Bit: protocol.ModRightMeta, Pressed: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("modifier presses:\ngot:  %+v\nwant: %+v", got, want)
	}

	got = r.Update(snap(1 << protocol.ModRightMeta))
	want = []Event{ModifierChanged{Bit: protocol.ModLeftShift, Pressed: false}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("modifier release:\ngot:  %+v\nwant: %+v", got, want)
	}
}

func TestRolloverModifiersIndependentOfKeys(t *testing.T) {
	r := NewRolloverTracker()
	r.Update(snap(0, 4))

	// Same key held while a modifier flips: only the modifier moves.
	got := r.Update(snap(1<<protocol.ModLeftControl, 4))
	want := []Event{ModifierChanged{Bit: protocol.ModLeftControl, Pressed: true}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("modifier with held key:\ngot:  %+v\nwant: %+v", got, want)
	}
}

// Over any window that starts and ends with an all-zero snapshot, every
// code's press count must equal its release count.
func TestRolloverKeyBalance(t *testing.T) {
	sequence := []protocol.KeyboardSnapshot{
		snap(0),
		snap(0, 4),
		snap(0, 4, 5),
		snap(0, 5, 4, 6, 7, 8, 9),
		snap(0, 9, 8, 7, 6, 5, 4),
		snap(0, 9, 7, 5),
		snap(0, 10, 9, 7, 5),
		snap(0, 10),
		snap(0, 10, 10, 10),
		snap(0, 4),
		snap(0),
	}

	r := NewRolloverTracker()
	presses := map[uint16]int{}
	releases := map[uint16]int{}
	for _, s := range sequence {
		for _, e := range r.Update(s) {
			switch ev := e.(type) {
			case KeyPress:
				presses[ev.Code]++
			case KeyRelease:
				releases[ev.Code]++
			}
		}
	}

	for code, n := range presses {
		if releases[code] != n {
			t.Errorf("code %d: %d presses, %d releases", code, n, releases[code])
		}
	}
	for code, n := range releases {
		if presses[code] != n {
			t.Errorf("code %d: %d releases, %d presses", code, n, presses[code])
		}
	}
	if len(presses) == 0 {
		t.Fatal("sequence produced no events")
	}
}
