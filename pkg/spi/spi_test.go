package spi

import (
	"context"
	"errors"
	"testing"

	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/protocol"
)

func TestTransportErrorUnwrap(t *testing.T) {
	inner := errors.New("bus stall")
	err := error(&TransportError{Op: "read", Err: inner})

	if !errors.Is(err, inner) {
		t.Errorf("errors.Is(err, inner) = false, want true")
	}
	if got, want := err.Error(), "spi read: bus stall"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var te *TransportError
	if !errors.As(err, &te) || te.Op != "read" {
		t.Errorf("errors.As failed to recover the transport error")
	}
}

// TestMockScriptOrder verifies replies come back in script order, shared
// between Exchange and Read, and that exhaustion degrades to idle frames.
func TestMockScriptOrder(t *testing.T) {
	ctx := context.Background()

	first := protocol.EmptyFrame()
	first[10] = 0xAA
	second := protocol.EmptyFrame()
	second[10] = 0xBB

	m := &Mock{}
	m.Script(first)
	m.ScriptError(errors.New("transfer aborted"))
	m.Script(second)

	got, err := m.Read(ctx)
	if err != nil {
		t.Fatalf("Read 1: %v", err)
	}
	if got[10] != 0xAA {
		t.Errorf("Read 1 returned wrong frame: byte 10 = %#x, want 0xaa", got[10])
	}

	if _, err := m.Exchange(ctx, protocol.EmptyFrame()); err == nil {
		t.Fatalf("Exchange 2: want scripted error, got nil")
	} else {
		var te *TransportError
		if !errors.As(err, &te) {
			t.Errorf("Exchange 2: error %v is not a TransportError", err)
		}
	}

	got, err = m.Read(ctx)
	if err != nil {
		t.Fatalf("Read 3: %v", err)
	}
	if got[10] != 0xBB {
		t.Errorf("Read 3 returned wrong frame: byte 10 = %#x, want 0xbb", got[10])
	}

	if m.Pending() != 0 {
		t.Fatalf("Pending() = %d, want 0", m.Pending())
	}
	got, err = m.Read(ctx)
	if err != nil {
		t.Fatalf("Read 4: %v", err)
	}
	if kind := protocol.Classify(got); kind != protocol.KindEmpty {
		t.Errorf("exhausted mock returned %v frame, want empty", kind)
	}
}

// TestMockOwnership verifies the mock neither aliases caller buffers in
// its log nor hands out its scripted frames directly.
func TestMockOwnership(t *testing.T) {
	ctx := context.Background()

	scripted := protocol.EmptyFrame()
	scripted[20] = 1
	m := &Mock{}
	m.Script(scripted)

	tx := protocol.EmptyFrame()
	tx[5] = 7
	reply, err := m.Exchange(ctx, tx)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}

	tx[5] = 99
	if m.ExchangeLog[0][5] != 7 {
		t.Errorf("ExchangeLog aliases the caller's buffer")
	}

	reply[20] = 99
	if scripted[20] != 1 {
		t.Errorf("reply aliases the scripted frame")
	}
}

func TestMockClosed(t *testing.T) {
	ctx := context.Background()

	m := &Mock{}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_, err := m.Read(ctx)
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Read after Close: err = %v, want ErrClosed", err)
	}
	if _, err := m.Exchange(ctx, protocol.EmptyFrame()); !errors.Is(err, ErrClosed) {
		t.Errorf("Exchange after Close: err = %v, want ErrClosed", err)
	}
}

func TestMockHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &Mock{}
	m.Script(protocol.EmptyFrame())
	_, err := m.Read(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Read with canceled context: err = %v, want context.Canceled", err)
	}
	if m.Pending() != 1 {
		t.Errorf("canceled call consumed a scripted reply")
	}
}
