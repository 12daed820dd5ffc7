package protocol

import "encoding/hex"

// The MacBook8,1 controller requires this exact handshake after power-on:
// each frame is written in order through the usual write-then-respond
// exchange and the responses are thrown away. The frames are opaque vendor
// data; all of them share one shape, a short preamble followed by zeros and
// a two-byte trailer at offsets 254..255, which is how they are stored here.
var initCommands = [...]struct{ head, tail string }{
	{"40d0000000000a002001d000000400004089", "d062"},
	{"40d0000000000a0020020000000400006019", "d062"},
	{"40d0000000000a00200201000004000061c8", "d062"},
	{"40d0000000000a00200202000004000061fb", "d062"},
	{"40d0000000000a002002030000040000602a", "d062"},
	{"40d0000000000a002002040000040000619d", "d062"},
	{"4001000000000a0032bf000008000000ce66", "2dff"},
	{"4001000000000a00320200011e0000009ae5", "2dff"},
	{"4001000000000e005209000204000400090000000d10", "5f19"},
	{"40d0000000000a00201001000004000053c9", "d062"},
	{"40d0000000000a00201001000004000053c9", "d062"},
	{"4001000000000c00510100030200020001006dde", "666a"},
	{"4002000000000c00520200000200020002017b11", "23ab"},
	{"40d0000000000a00201002000004000053fa", "d062"},
}

// InitSequence returns the power-on handshake for the MacBook8,1 firmware
// as freshly allocated frames, in send order.
func InitSequence() []*Frame {
	seq := make([]*Frame, len(initCommands))
	for i, c := range initCommands {
		var f Frame
		copy(f[:], mustHex(c.head))
		copy(f[FrameSize-2:], mustHex(c.tail))
		seq[i] = &f
	}
	return seq
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
