package spi

import (
	"context"

	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/protocol"
)

// Mock is an in-memory Conn for tests and examples. Scripted replies are
// consumed in order, one per Exchange or Read; when the script runs out
// the mock answers like an idle controller, with empty frames. The zero
// value is ready to use.
type Mock struct {
	// ExchangeLog holds a copy of every frame passed to Exchange, in
	// order. Copies, so callers may reuse their buffers.
	ExchangeLog []*protocol.Frame

	// ReadHook, when set, runs at the top of every Read call.
	ReadHook func()

	// CloseCalls counts Close invocations.
	CloseCalls int

	script []mockReply
	closed bool
}

type mockReply struct {
	frame *protocol.Frame
	err   error
}

// Script queues reply frames. The mock hands out copies, never the queued
// pointers themselves.
func (m *Mock) Script(frames ...*protocol.Frame) {
	for _, f := range frames {
		m.script = append(m.script, mockReply{frame: f})
	}
}

// ScriptError queues a bus failure. The next Exchange or Read returns it
// wrapped in a TransportError.
func (m *Mock) ScriptError(err error) {
	m.script = append(m.script, mockReply{err: err})
}

// Pending reports how many scripted replies remain.
func (m *Mock) Pending() int {
	return len(m.script)
}

func (m *Mock) Exchange(ctx context.Context, tx *protocol.Frame) (*protocol.Frame, error) {
	cp := *tx
	m.ExchangeLog = append(m.ExchangeLog, &cp)
	return m.next(ctx, "exchange")
}

func (m *Mock) Read(ctx context.Context) (*protocol.Frame, error) {
	if m.ReadHook != nil {
		m.ReadHook()
	}
	return m.next(ctx, "read")
}

func (m *Mock) Close() error {
	m.closed = true
	m.CloseCalls++
	return nil
}

func (m *Mock) next(ctx context.Context, op string) (*protocol.Frame, error) {
	if m.closed {
		return nil, &TransportError{Op: op, Err: ErrClosed}
	}
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if len(m.script) == 0 {
		return protocol.EmptyFrame(), nil
	}
	reply := m.script[0]
	m.script = m.script[1:]
	if reply.err != nil {
		return nil, &TransportError{Op: op, Err: reply.err}
	}
	cp := *reply.frame
	return &cp, nil
}
