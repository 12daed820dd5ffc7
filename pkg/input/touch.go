package input

import (
	"sort"

	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/protocol"
)

// DefaultMatchCutoff is how far, in device units, a sample may land from a
// contact's last position and still be treated as the same finger. The
// value is a tunable, not a property of the hardware; it is roughly a tenth
// of the touchpad's width.
const DefaultMatchCutoff = 1024

// TouchTracker assigns stable identities to the finger samples of
// successive touchpad frames. Identities are small integers bounded by
// protocol.MaxFingers. A contact keeps its identity for as long as some
// active sample keeps matching it; when no sample does, the contact is
// retired and the identity becomes free, but not for reuse within the cycle
// that freed it unless every other identity is taken.
type TouchTracker struct {
	cutoffSq int64
	contacts []contact // live set, ascending identity
	click    bool
}

type contact struct {
	id   int
	x, y int
}

// NewTouchTracker returns a tracker with the given matching cutoff in
// device units. Zero disables the cutoff entirely.
func NewTouchTracker(cutoff int) *TouchTracker {
	c := int64(cutoff)
	return &TouchTracker{cutoffSq: c * c}
}

// SetCutoff replaces the matching cutoff for later cycles. Callers
// serialize it with Update, the same single-worker rule Update follows.
func (t *TouchTracker) SetCutoff(cutoff int) {
	c := int64(cutoff)
	t.cutoffSq = c * c
}

// Update filters the frame's active samples, re-associates them with the
// tracked contacts, and returns the cycle's events: one ContactUpdate per
// active sample in ascending identity order, a ClickChanged when the button
// state flipped, and a trailing FrameSync.
func (t *TouchTracker) Update(frame protocol.TouchFrame) []Event {
	type active struct {
		s    protocol.TouchSample
		x, y int
	}
	var actives []active
	for _, s := range frame.Fingers {
		if !s.Active() {
			continue
		}
		// The controller's Y axis runs opposite to the conventional
		// direction; remap into the same range.
		actives = append(actives, active{s: s, x: s.X, y: protocol.YMin + protocol.YMax - s.Y})
	}

	// Minimum-cost assignment of samples to existing contacts. The search
	// prefers, in order: more samples matched, lower total squared
	// distance, lower identities for earlier samples. Sizes are bounded by
	// MaxFingers, so exhaustive search is exact and cheap.
	n := len(actives)
	pick := make([]int, n) // contact index per sample, -1 = new contact
	best := make([]int, n)
	used := make([]bool, len(t.contacts))
	bestMatched, bestCost, haveBest := -1, int64(0), false

	var search func(si, matched int, cost int64)
	search = func(si, matched int, cost int64) {
		if si == n {
			better := !haveBest ||
				matched > bestMatched ||
				(matched == bestMatched && cost < bestCost) ||
				(matched == bestMatched && cost == bestCost && lowerPick(pick, best, t.contacts))
			if better {
				copy(best, pick)
				bestMatched, bestCost, haveBest = matched, cost, true
			}
			return
		}
		for ci := range t.contacts {
			if used[ci] {
				continue
			}
			d := distSq(actives[si].x, actives[si].y, t.contacts[ci].x, t.contacts[ci].y)
			if t.cutoffSq > 0 && d > t.cutoffSq {
				continue
			}
			used[ci] = true
			pick[si] = ci
			search(si+1, matched+1, cost+d)
			used[ci] = false
		}
		pick[si] = -1
		search(si+1, matched, cost)
	}
	search(0, 0, 0)

	// Identities freed this cycle are last in line for reassignment.
	matched := make([]bool, len(t.contacts))
	for _, ci := range best {
		if ci >= 0 {
			matched[ci] = true
		}
	}
	taken := make(map[int]bool)
	retired := make(map[int]bool)
	for ci, c := range t.contacts {
		if matched[ci] {
			taken[c.id] = true
		} else {
			retired[c.id] = true
		}
	}

	next := make([]contact, 0, n)
	updates := make([]ContactUpdate, 0, n)
	for si, a := range actives {
		var id int
		if ci := best[si]; ci >= 0 {
			id = t.contacts[ci].id
		} else {
			id = freeIdentity(taken, retired)
			taken[id] = true
		}
		next = append(next, contact{id: id, x: a.x, y: a.y})
		updates = append(updates, ContactUpdate{
			ID:          id,
			X:           a.x,
			Y:           a.y,
			TouchMajor:  a.s.TouchMajor,
			TouchMinor:  a.s.TouchMinor,
			ToolMajor:   a.s.ToolMajor,
			ToolMinor:   a.s.ToolMinor,
			Orientation: a.s.Orientation,
			Pressure:    a.s.Pressure,
		})
	}
	sort.Slice(next, func(i, j int) bool { return next[i].id < next[j].id })
	sort.Slice(updates, func(i, j int) bool { return updates[i].ID < updates[j].ID })
	t.contacts = next

	out := make([]Event, 0, len(updates)+2)
	for _, u := range updates {
		out = append(out, u)
	}
	if frame.Clicked != t.click {
		t.click = frame.Clicked
		out = append(out, ClickChanged{Pressed: frame.Clicked})
	}
	return append(out, FrameSync{})
}

// freeIdentity returns the lowest identity that is neither live nor, when
// avoidable, freed within this cycle.
func freeIdentity(taken, retired map[int]bool) int {
	for id := 0; id < protocol.MaxFingers; id++ {
		if !taken[id] && !retired[id] {
			return id
		}
	}
	for id := 0; id < protocol.MaxFingers; id++ {
		if !taken[id] {
			return id
		}
	}
	return protocol.MaxFingers - 1
}

// lowerPick reports whether assignment a hands out lower identities than b,
// comparing sample by sample. Unmatched samples rank above any identity.
func lowerPick(a, b []int, contacts []contact) bool {
	for i := range a {
		ai, bi := pickRank(a[i], contacts), pickRank(b[i], contacts)
		if ai != bi {
			return ai < bi
		}
	}
	return false
}

func pickRank(ci int, contacts []contact) int {
	if ci < 0 {
		return int(^uint(0) >> 1)
	}
	return contacts[ci].id
}

func distSq(x1, y1, x2, y2 int) int64 {
	dx, dy := int64(x1-x2), int64(y1-y2)
	return dx*dx + dy*dy
}
