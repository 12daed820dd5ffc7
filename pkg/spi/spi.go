// Package spi abstracts the half-duplex transaction shape the controller
// speaks. One implementation drives a Linux spidev node; the mock here
// replays scripted frames for tests and examples.
package spi

import (
	"context"
	"errors"
	"fmt"

	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/protocol"
)

// Conn is one open connection to the controller. Implementations are not
// safe for concurrent use; callers serialize access (the session does).
type Conn interface {
	// Exchange performs one full transaction as a single atomic bus
	// message: transmit tx, read and discard the short turnaround reply,
	// then read the real 256-byte response. The returned frame is owned
	// by the caller and never aliased by later calls.
	Exchange(ctx context.Context, tx *protocol.Frame) (*protocol.Frame, error)

	// Read performs the idle poll: one response-only transfer, no
	// transmit phase. Ownership semantics match Exchange.
	Read(ctx context.Context) (*protocol.Frame, error)

	// Close releases the bus handle. Further calls fail with ErrClosed.
	Close() error
}

// ErrClosed is returned for operations on a closed connection.
var ErrClosed = errors.New("spi: connection closed")

// TransportError wraps any bus-level failure: ioctl errors, short
// transfers, canceled contexts. Callers treat it as one skipped cycle
// during polling and as fatal during the init handshake.
type TransportError struct {
	Op  string // "exchange" or "read"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("spi %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
