// Package session drives one connection to the controller: the power-on
// handshake, then the poll cycle that turns raw frames into input events.
//
// A Session is single-threaded by contract. The host owns the cadence and
// calls PollOnce from one goroutine; the session holds no locks and
// instead asserts the contract, failing reentrant calls with ErrMisuse.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/input"
	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/protocol"
	"github.com/SociOS-Linux/macbook12-spi-driver/pkg/spi"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StatePolling
	StateStopped
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "stopped"
	case StateFaulted:
		return "faulted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrMisuse reports a call in the wrong lifecycle state or a reentrant
// PollOnce. These are caller bugs; the session never retries or masks
// them.
var ErrMisuse = errors.New("session misuse")

// Config carries the construction-time knobs of a Session.
type Config struct {
	// Init is the handshake sent on Start, in order. Empty selects the
	// stock MacBook8,1 sequence.
	Init []*protocol.Frame

	// MatchCutoff is the touch tracker's matching cutoff in device
	// units. Zero disables the cutoff.
	MatchCutoff int
}

// Session owns one controller connection and the tracker state behind it.
type Session struct {
	conn  spi.Conn
	sink  input.Sink
	init  []*protocol.Frame
	keys  *input.RolloverTracker
	touch *input.TouchTracker

	state State
	busy  atomic.Bool

	polls   int
	skipped int
}

// New builds a Session in StateIdle. Nothing touches the bus until Start.
func New(conn spi.Conn, sink input.Sink, cfg Config) *Session {
	init := cfg.Init
	if len(init) == 0 {
		init = protocol.InitSequence()
	}
	return &Session{
		conn:  conn,
		sink:  sink,
		init:  init,
		keys:  input.NewRolloverTracker(),
		touch: input.NewTouchTracker(cfg.MatchCutoff),
	}
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Start replays the handshake that brings the controller out of its
// power-on state. Responses are read to keep the bus in step but their
// content is discarded; the firmware acknowledges nothing useful. Any
// transport failure here is fatal and leaves the session Faulted.
func (s *Session) Start(ctx context.Context) error {
	if s.state != StateIdle {
		return fmt.Errorf("%w: start while %v", ErrMisuse, s.state)
	}
	s.state = StateInitializing
	slog.Debug("sending init sequence", slog.Int("frames", len(s.init)))
	for i, f := range s.init {
		if _, err := s.conn.Exchange(ctx, f); err != nil {
			s.state = StateFaulted
			return fmt.Errorf("init frame %d/%d: %w", i+1, len(s.init), err)
		}
	}
	s.state = StatePolling
	slog.Info("session polling", slog.Int("init_frames", len(s.init)))
	return nil
}

// PollOnce runs one poll cycle: read a frame, classify and decode it,
// diff it against the tracker state, and hand the resulting events to the
// sink in order. A transport failure skips the cycle and comes back
// wrapped; the session stays in Polling and the next call just retries.
func (s *Session) PollOnce(ctx context.Context) error {
	if !s.busy.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: reentrant poll", ErrMisuse)
	}
	defer s.busy.Store(false)

	if s.state != StatePolling {
		return fmt.Errorf("%w: poll while %v", ErrMisuse, s.state)
	}

	frame, err := s.conn.Read(ctx)
	if err != nil {
		s.skipped++
		slog.Warn("poll cycle skipped", slog.Any("error", err), slog.Int("skipped", s.skipped))
		return fmt.Errorf("poll: %w", err)
	}
	s.polls++

	var events []input.Event
	switch protocol.Classify(frame) {
	case protocol.KindKeyboard:
		snap := protocol.DecodeKeyboard(frame)
		events = s.keys.Update(snap)
		slog.Debug("keyboard frame", slog.Int("counter", int(snap.Counter)), slog.Int("events", len(events)))
	case protocol.KindTouchpad:
		tf := protocol.DecodeTouchpad(frame)
		events = s.touch.Update(tf)
		slog.Debug("touchpad frame", slog.Int("counter", int(tf.Counter)), slog.Int("events", len(events)))
	case protocol.KindEmpty:
		return nil
	default:
		slog.Debug("unknown frame", slog.String("tag", fmt.Sprintf("%#04x", frame.Type())))
		return nil
	}

	for _, e := range events {
		if err := s.sink.HandleEvent(e); err != nil {
			return fmt.Errorf("deliver event: %w", err)
		}
	}
	return nil
}

// SetMatchCutoff replaces the touch matching cutoff for later cycles.
// Callers serialize it with PollOnce, like every other session call.
func (s *Session) SetMatchCutoff(cutoff int) {
	s.touch.SetCutoff(cutoff)
}

// Stop tears the session down from any state and releases the connection.
// It is idempotent and safe after a partial or failed Start.
func (s *Session) Stop() error {
	if s.state == StateStopped {
		return nil
	}
	s.state = StateStopped
	slog.Info("session stopped", slog.Int("polls", s.polls), slog.Int("skipped", s.skipped))
	return s.conn.Close()
}
