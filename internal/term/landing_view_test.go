package term

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecode/internal/landing"
	"github.com/vovakirdan/wirecode/internal/route"
)

type scriptedActions struct {
	view    *LandingView
	created []string
	joined  []string
}

func (a *scriptedActions) CreateRoom(_ context.Context, language string) error {
	a.created = append(a.created, language)
	a.view.Navigate(route.Ref{RoomID: "new-room", Language: language})
	return nil
}

func (a *scriptedActions) JoinRoom(_ context.Context, roomID string) error {
	a.joined = append(a.joined, roomID)
	if roomID != "known" {
		a.view.ShowError(landing.TargetJoin, "Room not found. Please check the room ID.")
		return errors.New("not found")
	}
	a.view.Navigate(route.Ref{RoomID: roomID, Language: "go"})
	return nil
}

func newTestLanding(input string) (*LandingView, *bytes.Buffer, *clock.Mock) {
	var out bytes.Buffer
	mock := clock.NewMock()
	v := NewLandingView(LandingOptions{
		In:       strings.NewReader(input),
		Out:      &out,
		Clock:    mock,
		ErrorTTL: 5 * time.Second,
	})
	return v, &out, mock
}

func TestLandingCreateUsesDefaultLanguage(t *testing.T) {
	v, _, _ := newTestLanding("1\n\n")
	actions := &scriptedActions{view: v}

	ref, err := v.Run(context.Background(), actions)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ref.RoomID != "new-room" || ref.Language != "python" {
		t.Fatalf("ref = %+v", ref)
	}
	if len(actions.created) != 1 || actions.created[0] != "python" {
		t.Fatalf("created = %v", actions.created)
	}
}

func TestLandingJoinRetriesAfterError(t *testing.T) {
	v, out, _ := newTestLanding("join\nnope\n2\nknown\n")
	actions := &scriptedActions{view: v}

	ref, err := v.Run(context.Background(), actions)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ref.RoomID != "known" {
		t.Fatalf("ref = %+v", ref)
	}
	if len(actions.joined) != 2 {
		t.Fatalf("joined = %v", actions.joined)
	}
	if !strings.Contains(out.String(), "Room not found. Please check the room ID.") {
		t.Fatalf("error not printed:\n%s", out.String())
	}
}

func TestLandingQuitAndEOF(t *testing.T) {
	for _, input := range []string{"q\n", "", "1\n"} {
		v, _, _ := newTestLanding(input)
		if _, err := v.Run(context.Background(), &scriptedActions{view: v}); !errors.Is(err, ErrQuit) {
			t.Fatalf("input %q: err = %v, want ErrQuit", input, err)
		}
	}
}

func TestLandingErrorHidesAfterTTL(t *testing.T) {
	v, _, mock := newTestLanding("")

	v.ShowError(landing.TargetJoin, "Please enter a room ID")
	if v.Error(landing.TargetJoin) == "" {
		t.Fatal("error not recorded")
	}
	mock.Add(4 * time.Second)
	if v.Error(landing.TargetJoin) == "" {
		t.Fatal("error hidden too early")
	}

	mock.Add(time.Second)
	deadline := time.Now().Add(time.Second)
	for v.Error(landing.TargetJoin) != "" {
		if time.Now().After(deadline) {
			t.Fatal("error still shown after the TTL")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLandingViewDrivesController(t *testing.T) {
	v, out, _ := newTestLanding("2\n   \nq\n")
	ctrl := landing.New(nil, v, v, nopLogger())

	if _, err := v.Run(context.Background(), ctrl); !errors.Is(err, ErrQuit) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out.String(), "Please enter a room ID") {
		t.Fatalf("validation error not shown:\n%s", out.String())
	}
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
