package editor

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecode/internal/proto"
	"github.com/vovakirdan/wirecode/internal/route"
)

type fakeView struct {
	ref         route.Ref
	buf         Buffer
	origins     []Origin
	ghost       string
	panel       string
	placeholder bool
	status      Status
	users       int
	lastUpdate  time.Time
	notices     []Notice
	copied      string
	copyErr     error
}

func (v *fakeView) SetRoom(ref route.Ref) { v.ref = ref }
func (v *fakeView) SetBuffer(b Buffer, origin Origin) {
	v.buf = b
	v.origins = append(v.origins, origin)
}
func (v *fakeView) SetGhost(s string) { v.ghost = s }
func (v *fakeView) SetSuggestionPanel(text string, placeholder bool) {
	v.panel, v.placeholder = text, placeholder
}
func (v *fakeView) SetStatus(s Status)        { v.status = s }
func (v *fakeView) SetUserCount(n int)        { v.users = n }
func (v *fakeView) SetLastUpdate(t time.Time) { v.lastUpdate = t }
func (v *fakeView) Notify(n Notice)           { v.notices = append(v.notices, n) }
func (v *fakeView) CopyToClipboard(text string) error {
	if v.copyErr != nil {
		return v.copyErr
	}
	v.copied = text
	return nil
}

func (v *fakeView) lastNotice() Notice {
	if len(v.notices) == 0 {
		return Notice{}
	}
	return v.notices[len(v.notices)-1]
}

type fakeSender struct {
	mu     sync.Mutex
	closed bool
	sent   []proto.Message
}

func (s *fakeSender) Send(_ context.Context, msg proto.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sent = append(s.sent, msg)
	return true
}

func (s *fakeSender) messages() []proto.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]proto.Message(nil), s.sent...)
}

type fakeCompleter struct {
	calls chan proto.AutocompleteRequest
	reply func(proto.AutocompleteRequest) (*proto.AutocompleteResponse, error)
}

func newFakeCompleter(suggestion string) *fakeCompleter {
	return &fakeCompleter{
		calls: make(chan proto.AutocompleteRequest, 16),
		reply: func(proto.AutocompleteRequest) (*proto.AutocompleteResponse, error) {
			return &proto.AutocompleteResponse{Suggestion: suggestion, Confidence: 0.9}, nil
		},
	}
}

func (f *fakeCompleter) Autocomplete(_ context.Context, req proto.AutocompleteRequest) (*proto.AutocompleteResponse, error) {
	f.calls <- req
	return f.reply(req)
}

type fakeRooms struct {
	room *proto.RoomResponse
	err  error
}

func (f *fakeRooms) GetRoom(context.Context, string) (*proto.RoomResponse, error) {
	return f.room, f.err
}

type harness struct {
	c         *Controller
	view      *fakeView
	sender    *fakeSender
	completer *fakeCompleter
	clock     *clock.Mock
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		view:      &fakeView{},
		sender:    &fakeSender{},
		completer: newFakeCompleter(""),
		clock:     clock.NewMock(),
	}
	disabledLogger := zerolog.New(nil)
	h.c = New(Options{
		Ref:       route.Ref{RoomID: "room-1", Language: "python"},
		Rooms:     &fakeRooms{room: &proto.RoomResponse{RoomID: "room-1", Language: "python"}},
		Completer: h.completer,
		Sender:    h.sender,
		View:      h.view,
		Clock:     h.clock,
		Logger:    &disabledLogger,
	})
	h.c.Start()
	return h
}

// withBuffer sets the buffer as if it had been loaded from the room.
func (h *harness) withBuffer(text string, cursor int) {
	h.c.setBuffer(Buffer{Text: text, Cursor: cursor}, OriginRemote)
}

// withSuggestion makes s the live suggestion for the current buffer.
func (h *harness) withSuggestion(s string) {
	h.c.seq++
	h.c.applySuggestion(suggestionResult{
		seq:  h.c.seq,
		req:  proto.AutocompleteRequest{Code: h.c.buf.Text, CursorPosition: h.c.buf.Cursor},
		resp: &proto.AutocompleteResponse{Suggestion: s},
	})
}

func codeUpdate(code string) proto.Message {
	return proto.NewCodeUpdate(code, "python")
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}
