package term

import (
	"context"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecode/internal/editor"
	"github.com/vovakirdan/wirecode/internal/proto"
	"github.com/vovakirdan/wirecode/internal/route"
)

type nopSender struct{}

func (nopSender) Send(context.Context, proto.Message) bool { return true }

func newTestController(t *testing.T, v *EditorView, mock *clock.Mock) *editor.Controller {
	t.Helper()
	logger := zerolog.New(nil)
	c := editor.New(editor.Options{
		Ref:    route.Ref{RoomID: "room-1", Language: "python"},
		Sender: nopSender{},
		View:   v,
		Clock:  mock,
		Logger: &logger,
	})
	c.Start()
	return c
}

func TestRemoteUpdateBetweenKeyAndEcho(t *testing.T) {
	v, _, mock := newTestView(t)
	c := newTestController(t, v, mock)
	c.HandleMessage(proto.NewCodeUpdate("ab", "python"))

	ins := v.translate(keyPress{kind: keyRune, r: 'X'})
	if len(ins) != 1 {
		t.Fatalf("translate = %+v", ins)
	}
	c.HandleMessage(proto.NewCodeUpdate("remote", "python"))
	c.HandleInput(context.Background(), ins[0])

	if c.Buffer().Text != "Xab" {
		t.Fatalf("controller text = %q", c.Buffer().Text)
	}
	if v.buf.Text != c.Buffer().Text {
		t.Fatalf("view text = %q, controller text = %q", v.buf.Text, c.Buffer().Text)
	}
}

func TestLocalEchoesKeepTypedAhead(t *testing.T) {
	v, _, mock := newTestView(t)
	c := newTestController(t, v, mock)
	c.HandleMessage(proto.NewCodeUpdate("ab", "python"))

	first := v.translate(keyPress{kind: keyRune, r: 'X'})
	second := v.translate(keyPress{kind: keyRune, r: 'Y'})
	c.HandleInput(context.Background(), first[0])

	if v.buf.Text != "XYab" || v.buf.Cursor != 2 {
		t.Fatalf("echo of first key rewound the view: %+v", v.buf)
	}
	c.HandleInput(context.Background(), second[0])
	if v.buf.Text != c.Buffer().Text || v.buf.Cursor != c.Buffer().Cursor {
		t.Fatalf("view %+v, controller %+v", v.buf, c.Buffer())
	}
}
