package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecode/internal/proto"
	"github.com/vovakirdan/wirecode/internal/testbackend"
)

func newTestClient(t *testing.T) (*Client, *testbackend.Backend) {
	t.Helper()

	backend := testbackend.New()
	ts := httptest.NewServer(backend.Handler())
	t.Cleanup(ts.Close)

	disabledLogger := zerolog.New(nil)
	return New(ts.URL, 2*time.Second, &disabledLogger), backend
}

func TestCreateRoomAndLookup(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	room, err := client.CreateRoom(ctx, "javascript")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.RoomID == "" || room.Language != "javascript" {
		t.Fatalf("unexpected room: %+v", room)
	}

	got, err := client.GetRoom(ctx, room.RoomID)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if got.RoomID != room.RoomID || got.Code != room.Code {
		t.Fatalf("lookup mismatch: %+v vs %+v", got, room)
	}
}

func TestCreateRoomStatusError(t *testing.T) {
	client, backend := newTestClient(t)
	backend.FailCreate(http.StatusServiceUnavailable)

	_, err := client.CreateRoom(context.Background(), "python")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", statusErr.Code)
	}
	if statusErr.Error() != "failed to create room: 503" {
		t.Fatalf("message = %q", statusErr.Error())
	}
}

func TestGetRoomNotFound(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.GetRoom(context.Background(), "missing")
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestAutocompleteSendsCursorAndLanguage(t *testing.T) {
	client, backend := newTestClient(t)

	requests := make(chan proto.AutocompleteRequest, 1)
	backend.SetSuggest(func(req proto.AutocompleteRequest) proto.AutocompleteResponse {
		requests <- req
		return proto.AutocompleteResponse{Suggestion: "a + b", Confidence: 0.9}
	})

	resp, err := client.Autocomplete(context.Background(), proto.AutocompleteRequest{
		Code:           "return ",
		CursorPosition: 7,
		Language:       "python",
	})
	if err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	if resp.Suggestion != "a + b" || resp.Confidence != 0.9 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	seen := <-requests
	if seen.CursorPosition != 7 || seen.Language != "python" || seen.Code != "return " {
		t.Fatalf("unexpected request: %+v", seen)
	}
}

func TestTransportError(t *testing.T) {
	disabledLogger := zerolog.New(nil)
	client := New("http://127.0.0.1:1", 500*time.Millisecond, &disabledLogger)

	_, err := client.GetRoom(context.Background(), "abc")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("transport failure must not look like a missing room: %v", err)
	}
}
