package term

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vovakirdan/wirecode/internal/editor"
	"github.com/vovakirdan/wirecode/internal/route"
)

func newTestView(t *testing.T) (*EditorView, *bytes.Buffer, *clock.Mock) {
	t.Helper()
	var out bytes.Buffer
	mock := clock.NewMock()
	v := NewEditorView(EditorOptions{
		Out:       &out,
		Color:     true,
		Clipboard: true,
		Size:      func() (int, int) { return 40, 12 },
		Clock:     mock,
		NoticeTTL: 3 * time.Second,
	})
	t.Cleanup(v.Close)
	return v, &out, mock
}

func TestTypingProducesEdits(t *testing.T) {
	v, _, _ := newTestView(t)
	v.SetBuffer(editor.Buffer{Text: "ab", Cursor: 1}, editor.OriginRemote)

	got := v.translate(keyPress{kind: keyRune, r: 'X'})
	if len(got) != 1 || got[0].Kind != editor.InputEdit || got[0].Text != "aXb" || got[0].Cursor != 2 {
		t.Fatalf("insert = %+v", got)
	}

	got = v.translate(keyPress{kind: keyBackspace})
	if len(got) != 1 || got[0].Text != "ab" || got[0].Cursor != 1 {
		t.Fatalf("backspace = %+v", got)
	}

	got = v.translate(keyPress{kind: keyDelete})
	if len(got) != 1 || got[0].Text != "a" || got[0].Cursor != 1 {
		t.Fatalf("delete = %+v", got)
	}

	got = v.translate(keyPress{kind: keyEnter})
	if len(got) != 1 || got[0].Text != "a\n" || got[0].Cursor != 2 {
		t.Fatalf("enter = %+v", got)
	}
}

func TestBackspaceAtStartIsIgnored(t *testing.T) {
	v, _, _ := newTestView(t)
	v.SetBuffer(editor.Buffer{Text: "ab"}, editor.OriginRemote)

	if got := v.translate(keyPress{kind: keyBackspace}); len(got) != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestTabAndEscapeDependOnGhost(t *testing.T) {
	v, _, _ := newTestView(t)
	v.SetBuffer(editor.Buffer{Text: "x = ", Cursor: 4}, editor.OriginRemote)

	if got := v.translate(keyPress{kind: keyEscape}); len(got) != 0 {
		t.Fatalf("escape without ghost = %+v", got)
	}
	got := v.translate(keyPress{kind: keyTab})
	if len(got) != 1 || got[0].Kind != editor.InputEdit || got[0].Text != "x = \t" {
		t.Fatalf("tab without ghost = %+v", got)
	}

	v.SetGhost("42")
	got = v.translate(keyPress{kind: keyTab})
	if len(got) != 1 || got[0].Kind != editor.InputKey || got[0].Key != editor.KeyTab {
		t.Fatalf("tab with ghost = %+v", got)
	}
	got = v.translate(keyPress{kind: keyEscape})
	if len(got) != 1 || got[0].Key != editor.KeyEscape {
		t.Fatalf("escape with ghost = %+v", got)
	}
}

func TestCursorKeys(t *testing.T) {
	tests := []struct {
		name   string
		key    keyKind
		cursor int
		want   editor.Input
	}{
		{name: "left", key: keyLeft, cursor: 5, want: editor.Input{Kind: editor.InputKey, Key: editor.KeyLeft, Cursor: 4}},
		{name: "left at start", key: keyLeft, cursor: 0, want: editor.Input{Kind: editor.InputKey, Key: editor.KeyLeft, Cursor: 0}},
		{name: "right", key: keyRight, cursor: 5, want: editor.Input{Kind: editor.InputKey, Key: editor.KeyRight, Cursor: 6}},
		{name: "up keeps column", key: keyUp, cursor: 9, want: editor.Input{Kind: editor.InputKey, Key: editor.KeyUp, Cursor: 2}},
		{name: "down clamps to short line", key: keyDown, cursor: 12, want: editor.Input{Kind: editor.InputKey, Key: editor.KeyDown, Cursor: 16}},
		{name: "down on last line", key: keyDown, cursor: 14, want: editor.Input{Kind: editor.InputKey, Key: editor.KeyDown, Cursor: 16}},
		{name: "home", key: keyHome, cursor: 10, want: editor.Input{Kind: editor.InputClick, Cursor: 7}},
		{name: "end", key: keyEnd, cursor: 8, want: editor.Input{Kind: editor.InputClick, Cursor: 13}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _, _ := newTestView(t)
			// lines: "abcdef" [0,6], "ghijkl" [7,13], "mn" [14,16]
			v.SetBuffer(editor.Buffer{Text: "abcdef\nghijkl\nmn", Cursor: tt.cursor}, editor.OriginRemote)

			got := v.translate(keyPress{kind: tt.key})
			if len(got) != 1 || got[0] != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEchoOfOwnEditIsSkipped(t *testing.T) {
	v, _, _ := newTestView(t)
	v.SetBuffer(editor.Buffer{}, editor.OriginRemote)

	v.translate(keyPress{kind: keyRune, r: 'a'})
	v.translate(keyPress{kind: keyRune, r: 'b'})

	// The controller echoes "a" after the view already holds "ab".
	v.SetBuffer(editor.Buffer{Text: "a", Cursor: 1}, editor.OriginLocal)
	got := v.translate(keyPress{kind: keyRune, r: 'c'})
	if got[0].Text != "abc" {
		t.Fatalf("edit based on stale echo: %q", got[0].Text)
	}

	// An accepted suggestion is a local change the view did not make.
	v.SetBuffer(editor.Buffer{Text: "abc()", Cursor: 5}, editor.OriginLocal)
	got = v.translate(keyPress{kind: keyRune, r: ';'})
	if got[0].Text != "abc();" {
		t.Fatalf("accepted text not adopted: %q", got[0].Text)
	}
}

func TestScrollFollowsCursor(t *testing.T) {
	v, _, _ := newTestView(t)
	// 12 rows minus chrome leaves 6 code rows.
	text := strings.Repeat("x\n", 6)
	v.SetBuffer(editor.Buffer{Text: text, Cursor: len(text) - 1}, editor.OriginRemote)

	got := v.translate(keyPress{kind: keyDown})
	if len(got) != 2 || got[1].Kind != editor.InputScroll || got[1].Scroll != 1 {
		t.Fatalf("got %+v, want a scroll to 1", got)
	}
}

func TestLeaveNeedsConfirmation(t *testing.T) {
	v, _, mock := newTestView(t)

	if got := v.translate(keyPress{kind: keyLeave}); len(got) != 0 {
		t.Fatalf("first Ctrl-Q left: %+v", got)
	}
	if v.notice == nil || !strings.Contains(v.notice.Text, "Ctrl-Q again") {
		t.Fatalf("notice = %+v", v.notice)
	}
	mock.Add(time.Second)
	got := v.translate(keyPress{kind: keyLeave})
	if len(got) != 1 || got[0].Kind != editor.InputLeave {
		t.Fatalf("second Ctrl-Q = %+v", got)
	}

	if got := v.translate(keyPress{kind: keyInterrupt}); len(got) != 1 || got[0].Kind != editor.InputLeave {
		t.Fatalf("Ctrl-C = %+v", got)
	}
}

func TestRenderShowsGhostDimmed(t *testing.T) {
	v, out, _ := newTestView(t)
	v.SetRoom(route.Ref{RoomID: "r-42", Language: "python"})
	v.SetStatus(editor.Status{Connected: true, Text: "Connected"})
	v.SetUserCount(3)
	v.SetBuffer(editor.Buffer{Text: "def add(a, b):\n    return ", Cursor: 26}, editor.OriginRemote)
	out.Reset()

	v.SetGhost("a + b")

	frame := out.String()
	for _, want := range []string{
		"r-42", "[PYTHON]", "● Connected", "Users: 3",
		"    return " + ansiDim + "a + b" + ansiReset,
	} {
		if !strings.Contains(frame, want) {
			t.Fatalf("frame missing %q:\n%q", want, frame)
		}
	}
	// Cursor sits after "    return " on the second code row.
	if !strings.HasSuffix(frame, "\x1b[4;12H") {
		t.Fatalf("cursor not placed at the insertion point: %q", frame[len(frame)-12:])
	}
}

func TestNoticeAutoDismiss(t *testing.T) {
	v, _, mock := newTestView(t)

	v.Notify(editor.Notice{Kind: editor.NoticeSuccess, Text: "Connected to room!"})
	mock.Add(2 * time.Second)
	v.Notify(editor.Notice{Kind: editor.NoticeSuccess, Text: "A user joined the room"})

	mock.Add(2 * time.Second)
	if !noticeIs(v, "A user joined the room") {
		t.Fatal("replacement notice dismissed by the earlier timer")
	}

	mock.Add(time.Second)
	deadline := time.Now().Add(time.Second)
	for !noticeIs(v, "") {
		if time.Now().After(deadline) {
			t.Fatal("notice not dismissed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func noticeIs(v *EditorView, text string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.notice == nil {
		return text == ""
	}
	return v.notice.Text == text
}

func TestCopyToClipboard(t *testing.T) {
	v, out, _ := newTestView(t)
	out.Reset()

	if err := v.CopyToClipboard("room-7"); err != nil {
		t.Fatalf("CopyToClipboard: %v", err)
	}
	want := "\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte("room-7")) + "\a"
	if out.String() != want {
		t.Fatalf("wrote %q, want %q", out.String(), want)
	}

	v.clipboard = false
	if err := v.CopyToClipboard("room-7"); !errors.Is(err, ErrNoClipboard) {
		t.Fatalf("err = %v, want ErrNoClipboard", err)
	}
}

func TestReadInputsStopsOnLeave(t *testing.T) {
	v, _, _ := newTestView(t)
	inputs := make(chan editor.Input, 8)

	err := v.ReadInputs(context.Background(), strings.NewReader("hi\x03ignored"), inputs)
	if err != nil {
		t.Fatalf("ReadInputs: %v", err)
	}
	close(inputs)

	var kinds []editor.InputKind
	for in := range inputs {
		kinds = append(kinds, in.Kind)
	}
	want := []editor.InputKind{editor.InputEdit, editor.InputEdit, editor.InputLeave}
	if len(kinds) != len(want) {
		t.Fatalf("inputs = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("inputs = %v, want %v", kinds, want)
		}
	}
}
