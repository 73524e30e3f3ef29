// Package editor drives a live editing session: it mirrors local edits to the
// room, applies remote edits and runs the inline autocomplete loop.
package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecode/internal/proto"
	"github.com/vovakirdan/wirecode/internal/route"
	"github.com/vovakirdan/wirecode/internal/session"
)

// RoomLoader fetches the current room state.
type RoomLoader interface {
	GetRoom(ctx context.Context, roomID string) (*proto.RoomResponse, error)
}

// Completer returns autocomplete suggestions.
type Completer interface {
	Autocomplete(ctx context.Context, req proto.AutocompleteRequest) (*proto.AutocompleteResponse, error)
}

// Sender delivers outbound messages; it reports false when the message was dropped.
type Sender interface {
	Send(ctx context.Context, msg proto.Message) bool
}

// Options configure a Controller.
type Options struct {
	Ref       route.Ref
	Rooms     RoomLoader
	Completer Completer
	Sender    Sender
	View      View
	Clock     clock.Clock
	Debounce  time.Duration
	Logger    *zerolog.Logger
}

// Controller owns the buffer, the ghost suggestion and the debounce timer.
// It is not safe for concurrent use; Run serializes every event.
type Controller struct {
	ref       route.Ref
	rooms     RoomLoader
	completer Completer
	sender    Sender
	view      View
	clock     clock.Clock
	debounce  time.Duration
	log       zerolog.Logger

	buf        Buffer
	suggestion string

	debounceTimer *clock.Timer
	debounceC     <-chan time.Time

	seq     uint64
	results chan suggestionResult
}

// New builds a controller; call Start before feeding it events.
func New(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 400 * time.Millisecond
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Controller{
		ref:       opts.Ref,
		rooms:     opts.Rooms,
		completer: opts.Completer,
		sender:    opts.Sender,
		view:      opts.View,
		clock:     opts.Clock,
		debounce:  opts.Debounce,
		log:       logger.With().Str("room_id", opts.Ref.RoomID).Logger(),
		results:   make(chan suggestionResult, 1),
	}
}

// Buffer returns the current buffer.
func (c *Controller) Buffer() Buffer { return c.buf }

// Suggestion returns the live ghost suggestion, or "".
func (c *Controller) Suggestion() string { return c.suggestion }

// Start renders the initial chrome.
func (c *Controller) Start() {
	c.view.SetRoom(c.ref)
	c.view.SetStatus(Status{Text: "Disconnected"})
	c.view.SetUserCount(1)
	c.view.SetSuggestionPanel(PlaceholderIdle, true)
}

// Load fetches the room's code. Failure is reported to the view and otherwise ignored.
func (c *Controller) Load(ctx context.Context) {
	room, err := c.rooms.GetRoom(ctx, c.ref.RoomID)
	if err != nil {
		c.log.Error().Err(err).Msg("load room data")
		c.view.Notify(Notice{Kind: NoticeError, Text: "Failed to load room data"})
		return
	}
	b := Buffer{Text: room.Code}
	b.Cursor = b.Len()
	c.setBuffer(b, OriginRemote)
	c.touch()
}

// Run processes view input, session events, debounce expiry and suggestion
// results until ctx is done, inputs is closed or the user leaves.
func (c *Controller) Run(ctx context.Context, inputs <-chan Input, events <-chan session.Event) error {
	defer c.stopDebounce()

	for {
		select {
		case <-ctx.Done():
			return nil
		case in, ok := <-inputs:
			if !ok {
				return nil
			}
			if leave := c.HandleInput(ctx, in); leave {
				return nil
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.HandleEvent(ev)
		case <-c.debounceC:
			c.debounceC = nil
			c.requestSuggestion(ctx)
		case res := <-c.results:
			c.applySuggestion(res)
		}
	}
}

// HandleInput applies one user event and reports whether the user left.
func (c *Controller) HandleInput(ctx context.Context, in Input) bool {
	switch in.Kind {
	case InputEdit:
		c.localEdit(ctx, in.Text, in.Cursor)
	case InputKey:
		switch {
		case in.Key == KeyTab:
			c.acceptSuggestion(ctx)
		case in.Key == KeyEscape:
			c.clearSuggestion()
		case in.Key.IsArrow():
			c.moveCursor(ctx, in.Cursor)
		}
	case InputClick:
		c.moveCursor(ctx, in.Cursor)
	case InputScroll:
		c.buf = Buffer{Text: c.buf.Text, Cursor: c.buf.Cursor, Scroll: in.Scroll}.Clamp()
	case InputCopyRoomID:
		if err := c.view.CopyToClipboard(c.ref.RoomID); err != nil {
			c.log.Warn().Err(err).Msg("copy room id")
			c.view.Notify(Notice{Kind: NoticeError, Text: "Failed to copy Room ID"})
			return false
		}
		c.view.Notify(Notice{Kind: NoticeSuccess, Text: "Room ID copied to clipboard!"})
	case InputLeave:
		c.log.Info().Msg("leaving room")
		return true
	}
	return false
}

// HandleEvent applies a session event.
func (c *Controller) HandleEvent(ev session.Event) {
	switch ev.Kind {
	case session.EventMessage:
		c.HandleMessage(ev.Message)
	case session.EventReconnecting:
		c.view.SetStatus(Status{Text: fmt.Sprintf("Reconnecting... (%d/%d)", ev.Attempt, ev.MaxAttempts)})
	case session.EventStateChanged:
		switch ev.State {
		case session.StateConnecting:
			c.view.SetStatus(Status{Text: "Connecting..."})
		case session.StateOpen:
			c.view.SetStatus(Status{Connected: true, Text: "Connected"})
			c.view.Notify(Notice{Kind: NoticeSuccess, Text: "Connected to room!"})
		case session.StateDisconnected:
			c.view.SetStatus(Status{Text: "Disconnected"})
		case session.StateFailed:
			c.view.SetStatus(Status{Text: "Connection failed"})
			c.view.Notify(Notice{Kind: NoticeError, Text: "Connection lost. Please refresh the page."})
		}
	}
}

// HandleMessage applies one inbound room message.
func (c *Controller) HandleMessage(msg proto.Message) {
	c.log.Debug().Str("type", msg.Type).Msg("handle message")

	switch msg.Type {
	case proto.TypeInit:
		c.setBuffer(Buffer{Text: msg.CodeOrEmpty(), Cursor: c.buf.Cursor, Scroll: c.buf.Scroll}, OriginRemote)
		c.touch()
	case proto.TypeUserCountUpdate:
		c.view.SetUserCount(msg.CountOr(1))
	case proto.TypeUserJoined:
		c.view.SetUserCount(msg.CountOr(1))
		c.view.Notify(Notice{Kind: NoticeSuccess, Text: "A user joined the room"})
	case proto.TypeUserLeft:
		c.view.SetUserCount(msg.CountOr(1))
		c.view.Notify(Notice{Kind: NoticeError, Text: "A user left the room"})
	case proto.TypeCodeUpdate:
		code := msg.CodeOrEmpty()
		if code == c.buf.Text {
			return
		}
		c.setBuffer(Buffer{Text: code, Cursor: c.buf.Cursor, Scroll: c.buf.Scroll}, OriginRemote)
		c.clearSuggestion()
		c.touch()
	case proto.TypeCursorUpdate:
		if msg.Position != nil {
			c.log.Debug().Int("position", *msg.Position).Msg("remote cursor")
		}
	case proto.TypeError:
		text := msg.Message
		if text == "" {
			text = "An error occurred"
		}
		c.view.Notify(Notice{Kind: NoticeError, Text: text})
	default:
		c.log.Info().Str("type", msg.Type).Msg("unknown message type")
	}
}

func (c *Controller) localEdit(ctx context.Context, text string, cursor int) {
	c.clearSuggestion()
	c.setBuffer(Buffer{Text: text, Cursor: cursor, Scroll: c.buf.Scroll}, OriginLocal)
	c.propagate(ctx)
	c.scheduleSuggestion()
}

func (c *Controller) moveCursor(ctx context.Context, cursor int) {
	c.clearSuggestion()
	c.buf = Buffer{Text: c.buf.Text, Cursor: cursor, Scroll: c.buf.Scroll}.Clamp()
	c.sender.Send(ctx, proto.NewCursorUpdate(c.buf.Cursor))
}

func (c *Controller) setBuffer(b Buffer, origin Origin) {
	c.buf = b.Clamp()
	c.view.SetBuffer(c.buf, origin)
}

// propagate sends the whole document; only local changes come through here.
func (c *Controller) propagate(ctx context.Context) {
	if c.sender.Send(ctx, proto.NewCodeUpdate(c.buf.Text, c.ref.Language)) {
		c.touch()
	}
}

func (c *Controller) touch() {
	c.view.SetLastUpdate(c.clock.Now())
}
