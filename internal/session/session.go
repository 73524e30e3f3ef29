// Package session keeps one WebSocket connection to a room alive, reconnecting
// with linear backoff, and reports everything it sees as Events.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecode/internal/proto"
)

// ErrReconnectExhausted is returned by Run once the reconnect budget is spent.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

// State is the connection state.
type State int

const (
	// StateDisconnected means no socket is held.
	StateDisconnected State = iota
	// StateConnecting means a dial is in progress.
	StateConnecting
	// StateOpen means outbound messages are delivered.
	StateOpen
	// StateFailed is terminal: the retry budget is exhausted.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventKind tells the UI what happened on the network side.
type EventKind int

const (
	// EventStateChanged reports a state transition.
	EventStateChanged EventKind = iota
	// EventReconnecting reports a scheduled reconnect attempt.
	EventReconnecting
	// EventMessage delivers a decoded inbound message.
	EventMessage
)

// Event is sent from the session to the UI layer.
type Event struct {
	Kind        EventKind
	State       State
	Attempt     int
	MaxAttempts int
	Delay       time.Duration
	Message     proto.Message
	Err         error
}

// Options configure a Session.
type Options struct {
	URL          string
	Dialer       Dialer
	Backoff      LinearBackoff
	Clock        clock.Clock
	WriteTimeout time.Duration
	EventBuffer  int
	Logger       *zerolog.Logger
}

// Session owns the connection state of one room.
type Session struct {
	id           string
	url          string
	dialer       Dialer
	backoff      LinearBackoff
	clock        clock.Clock
	writeTimeout time.Duration
	log          zerolog.Logger
	events       chan Event

	mu       sync.Mutex
	state    State
	conn     Conn
	attempts int
}

// New builds a session in StateDisconnected. Zero options fall back to a real
// WebSocket dialer, the wall clock and DefaultBackoff.
func New(opts Options) *Session {
	if opts.Dialer == nil {
		opts.Dialer = WSDialer{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Backoff.Base <= 0 {
		opts.Backoff = DefaultBackoff()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	id := uuid.NewString()
	return &Session{
		id:           id,
		url:          opts.URL,
		dialer:       opts.Dialer,
		backoff:      opts.Backoff,
		clock:        opts.Clock,
		writeTimeout: opts.WriteTimeout,
		log:          logger.With().Str("session_id", id).Str("url", opts.URL).Logger(),
		events:       make(chan Event, opts.EventBuffer),
	}
}

// ID identifies this session in logs.
func (s *Session) ID() string { return s.id }

// Events is closed when Run returns.
func (s *Session) Events() <-chan Event { return s.events }

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attempts returns how many reconnects were made since the last open.
func (s *Session) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Send writes msg if the socket is open. Otherwise the message is dropped and
// Send returns false.
func (s *Session) Send(ctx context.Context, msg proto.Message) bool {
	s.mu.Lock()
	conn, state := s.conn, s.state
	s.mu.Unlock()

	if state != StateOpen || conn == nil {
		s.log.Debug().Str("type", msg.Type).Str("state", state.String()).Msg("drop outbound message")
		return false
	}

	wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	if err := conn.Write(wctx, msg); err != nil {
		s.log.Warn().Err(err).Str("type", msg.Type).Msg("write ws message")
		return false
	}
	return true
}

// Run connects and keeps reconnecting until ctx is done or the budget is
// spent, in which case it returns ErrReconnectExhausted.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.events)

	for {
		s.transition(ctx, StateConnecting, nil)

		conn, err := s.dialer.Dial(ctx, s.url)
		if err == nil {
			s.open(ctx, conn)
			err = s.readLoop(ctx, conn)
			s.release(conn)
		}

		if ctx.Err() != nil {
			s.setState(StateDisconnected)
			return nil
		}

		if isQuietClose(err) {
			s.log.Info().Err(err).Msg("ws connection closed")
		} else {
			s.log.Warn().Err(err).Msg("ws connection closed with error")
		}
		s.transition(ctx, StateDisconnected, err)

		s.mu.Lock()
		if s.backoff.Exhausted(s.attempts) {
			s.mu.Unlock()
			s.log.Error().Int("attempts", s.attempts).Msg("giving up reconnecting")
			s.transition(ctx, StateFailed, ErrReconnectExhausted)
			return ErrReconnectExhausted
		}
		s.attempts++
		attempt := s.attempts
		s.mu.Unlock()

		delay := s.backoff.Delay(attempt)
		// The timer must exist before the event is observable so a test clock
		// advanced on receipt always fires it.
		timer := s.clock.Timer(delay)
		s.log.Info().Int("attempt", attempt).Dur("delay", delay).Msg("scheduling reconnect")
		s.emit(ctx, Event{
			Kind:        EventReconnecting,
			State:       StateDisconnected,
			Attempt:     attempt,
			MaxAttempts: s.backoff.MaxAttempts,
			Delay:       delay,
		})

		select {
		case <-ctx.Done():
			timer.Stop()
			s.setState(StateDisconnected)
			return nil
		case <-timer.C:
		}
	}
}

func (s *Session) open(ctx context.Context, conn Conn) {
	s.mu.Lock()
	s.conn = conn
	s.attempts = 0
	s.state = StateOpen
	s.mu.Unlock()

	s.log.Info().Msg("ws connected")
	s.emit(ctx, Event{Kind: EventStateChanged, State: StateOpen, MaxAttempts: s.backoff.MaxAttempts})
}

func (s *Session) release(conn Conn) {
	s.mu.Lock()
	s.conn = nil
	if s.state == StateOpen {
		s.state = StateDisconnected
	}
	s.mu.Unlock()
	_ = conn.Close("bye")
}

func (s *Session) readLoop(ctx context.Context, conn Conn) error {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var msg proto.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn().Err(err).Int("bytes", len(data)).Msg("discard malformed ws message")
			continue
		}
		s.log.Debug().Str("type", msg.Type).Msg("received ws message")
		if !s.emit(ctx, Event{Kind: EventMessage, State: StateOpen, Message: msg}) {
			return ctx.Err()
		}
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) transition(ctx context.Context, state State, err error) {
	s.setState(state)
	s.mu.Lock()
	attempt := s.attempts
	s.mu.Unlock()
	s.emit(ctx, Event{
		Kind:        EventStateChanged,
		State:       state,
		Attempt:     attempt,
		MaxAttempts: s.backoff.MaxAttempts,
		Err:         err,
	})
}

func (s *Session) emit(ctx context.Context, ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
