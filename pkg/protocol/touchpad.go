package protocol

// Touchpad payload field offsets.
const (
	offTPFingerCount = 6
	offTPCounter     = 11
	offTPClicked     = 17

	offTPFingers  = 64
	fingerRecSize = 30

	// Offsets within one finger record, all signed little-endian 16-bit.
	offFOrigin      = 0
	offFAbsX        = 2
	offFAbsY        = 4
	offFRelX        = 6
	offFRelY        = 8
	offFToolMajor   = 10
	offFToolMinor   = 12
	offFOrientation = 14
	offFTouchMajor  = 16
	offFTouchMinor  = 18
	offFPressure    = 24
	offFMulti       = 26
)

// MaxFingers is how many finger slots one touchpad frame carries.
const MaxFingers = 6

// Coordinate space reported by the controller. Touch and tool axes come in
// at half scale; orientation is reported relative to MaxFingerOrientation,
// which on its own means a round (point) contact.
const (
	XMin = -4828
	XMax = 5345
	YMin = -203
	YMax = 6803

	MaxFingerOrientation = 16384
)

// TouchSample is one decoded finger slot. Values are device units, exactly
// as reported: no scaling, no axis flips.
type TouchSample struct {
	Origin                 int // zero when the tracked finger changed
	X, Y                   int
	RelX, RelY             int
	ToolMajor, ToolMinor   int
	Orientation            int
	TouchMajor, TouchMinor int
	Pressure               int
	Multi                  int
}

// Active reports whether the slot holds a real contact this frame.
func (s TouchSample) Active() bool {
	return s.TouchMajor != 0
}

// TouchFrame is the decoded state of one touchpad frame: all six finger
// slots in wire order plus the physical click state.
type TouchFrame struct {
	Fingers     [MaxFingers]TouchSample
	Clicked     bool
	FingerCount int  // count the controller claims, diagnostic only
	Counter     byte // wraps at 255
}

// DecodeTouchpad reinterprets a touchpad frame. Like DecodeKeyboard it is
// total: inactive slots decode to zero samples and are filtered later.
func DecodeTouchpad(f *Frame) TouchFrame {
	var t TouchFrame
	for i := 0; i < MaxFingers; i++ {
		rec := f[offTPFingers+i*fingerRecSize:]
		t.Fingers[i] = TouchSample{
			Origin:      s16(rec[offFOrigin:]),
			X:           s16(rec[offFAbsX:]),
			Y:           s16(rec[offFAbsY:]),
			RelX:        s16(rec[offFRelX:]),
			RelY:        s16(rec[offFRelY:]),
			ToolMajor:   s16(rec[offFToolMajor:]),
			ToolMinor:   s16(rec[offFToolMinor:]),
			Orientation: s16(rec[offFOrientation:]),
			TouchMajor:  s16(rec[offFTouchMajor:]),
			TouchMinor:  s16(rec[offFTouchMinor:]),
			Pressure:    s16(rec[offFPressure:]),
			Multi:       s16(rec[offFMulti:]),
		}
	}
	t.Clicked = f[offTPClicked] != 0
	t.FingerCount = int(f[offTPFingerCount])
	t.Counter = f[offTPCounter]
	return t
}
