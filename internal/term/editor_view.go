package term

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vovakirdan/wirecode/internal/editor"
	"github.com/vovakirdan/wirecode/internal/route"
)

// ErrNoClipboard is returned by CopyToClipboard when the output is not a terminal.
var ErrNoClipboard = errors.New("clipboard unavailable")

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiDim   = "\x1b[2m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiYel   = "\x1b[33m"
	ansiClear = "\x1b[H\x1b[2J"
	clearEOL  = "\x1b[K"

	tabWidth = 4
	// header, separator, separator, suggestion, notice, help
	chromeRows = 6
)

// EditorOptions configure an EditorView.
type EditorOptions struct {
	Out       io.Writer
	Color     bool
	Clipboard bool
	Size      func() (width, height int)
	Clock     clock.Clock
	NoticeTTL time.Duration
}

// EditorView renders an editor session on a raw-mode terminal and turns key
// presses into editor inputs.
type EditorView struct {
	out       io.Writer
	color     bool
	clipboard bool
	size      func() (int, int)
	clock     clock.Clock
	ttl       time.Duration

	mu          sync.Mutex
	ref         route.Ref
	buf         editor.Buffer
	pending     []string
	ghost       string
	panel       string
	placeholder bool
	status      editor.Status
	users       int
	lastUpdate  time.Time
	notice      *editor.Notice
	noticeGen   int
	noticeTimer *clock.Timer
	leaveArmed  time.Time
}

// NewEditorView builds a view; nothing is drawn until the controller starts.
func NewEditorView(opts EditorOptions) *EditorView {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = 3 * time.Second
	}
	if opts.Size == nil {
		opts.Size = func() (int, int) { return 80, 24 }
	}
	return &EditorView{
		out:       opts.Out,
		color:     opts.Color,
		clipboard: opts.Clipboard,
		size:      opts.Size,
		clock:     opts.Clock,
		ttl:       opts.NoticeTTL,
		users:     1,
	}
}

// SetRoom shows ref in the header.
func (v *EditorView) SetRoom(ref route.Ref) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ref = ref
	v.render()
}

// SetBuffer adopts the controller's buffer. Echoes of edits typed here are
// skipped: the local copy already holds them, plus any keys pressed since.
// A remote update replaces the local copy, so no later echo can match it.
func (v *EditorView) SetBuffer(b editor.Buffer, origin editor.Origin) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch origin {
	case editor.OriginRemote:
		v.pending = nil
	case editor.OriginLocal:
		idx := -1
		for i, text := range v.pending {
			if text == b.Text {
				idx = i
				break
			}
		}
		if idx >= 0 {
			v.pending = v.pending[idx+1:]
			return
		}
		v.pending = nil
	}
	v.buf = b
	v.scrollToCursor()
	v.render()
}

// SetGhost sets the inline completion drawn after the cursor.
func (v *EditorView) SetGhost(suggestion string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ghost = suggestion
	v.render()
}

// SetSuggestionPanel sets the suggestion line; placeholder text is drawn dimmed.
func (v *EditorView) SetSuggestionPanel(text string, placeholder bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.panel, v.placeholder = text, placeholder
	v.render()
}

// SetStatus updates the connection indicator.
func (v *EditorView) SetStatus(status editor.Status) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = status
	v.render()
}

// SetUserCount updates the participant count in the header.
func (v *EditorView) SetUserCount(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.users = n
	v.render()
}

// SetLastUpdate records when the room last changed.
func (v *EditorView) SetLastUpdate(t time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastUpdate = t
	v.render()
}

// Notify shows n until the notice TTL elapses or another notice replaces it.
func (v *EditorView) Notify(n editor.Notice) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notifyLocked(n)
}

func (v *EditorView) notifyLocked(n editor.Notice) {
	v.notice = &n
	v.noticeGen++
	gen := v.noticeGen
	if v.noticeTimer != nil {
		v.noticeTimer.Stop()
	}
	v.noticeTimer = v.clock.AfterFunc(v.ttl, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.noticeGen != gen {
			return
		}
		v.notice = nil
		v.render()
	})
	v.render()
}

// CopyToClipboard asks the terminal to set the clipboard with OSC 52.
func (v *EditorView) CopyToClipboard(text string) error {
	if !v.clipboard {
		return ErrNoClipboard
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	seq := "\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte(text)) + "\a"
	if _, err := io.WriteString(v.out, seq); err != nil {
		return fmt.Errorf("write clipboard sequence: %w", err)
	}
	return nil
}

// Close stops the notice timer.
func (v *EditorView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.noticeTimer != nil {
		v.noticeTimer.Stop()
		v.noticeTimer = nil
	}
}

// ReadInputs decodes keys from r and delivers the resulting inputs until r
// fails, ctx is done or the user leaves.
func (v *EditorView) ReadInputs(ctx context.Context, r io.Reader, inputs chan<- editor.Input) error {
	keys := newKeyReader(r)
	for {
		k, err := keys.next()
		if err != nil {
			return err
		}
		for _, in := range v.translate(k) {
			select {
			case inputs <- in:
			case <-ctx.Done():
				return ctx.Err()
			}
			if in.Kind == editor.InputLeave {
				return nil
			}
		}
	}
}

// translate applies k to the local buffer copy and returns the inputs the
// controller needs to see.
func (v *EditorView) translate(k keyPress) []editor.Input {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch k.kind {
	case keyRune:
		return v.edit(v.buf.Insert(string(k.r)))
	case keyEnter:
		return v.edit(v.buf.Insert("\n"))
	case keyTab:
		if v.ghost != "" {
			return []editor.Input{{Kind: editor.InputKey, Key: editor.KeyTab}}
		}
		return v.edit(v.buf.Insert("\t"))
	case keyBackspace:
		if b, ok := deleteBefore(v.buf); ok {
			return v.edit(b)
		}
	case keyDelete:
		if b, ok := deleteAt(v.buf); ok {
			return v.edit(b)
		}
	case keyEscape:
		if v.ghost != "" {
			return []editor.Input{{Kind: editor.InputKey, Key: editor.KeyEscape}}
		}
	case keyLeft:
		return v.move(editor.KeyLeft, v.buf.Cursor-1)
	case keyRight:
		return v.move(editor.KeyRight, v.buf.Cursor+1)
	case keyUp:
		return v.move(editor.KeyUp, moveVertical(v.buf, -1))
	case keyDown:
		return v.move(editor.KeyDown, moveVertical(v.buf, 1))
	case keyHome:
		return v.move(editor.KeyNone, lineStart(v.buf))
	case keyEnd:
		return v.move(editor.KeyNone, lineEnd(v.buf))
	case keyCopy:
		return []editor.Input{{Kind: editor.InputCopyRoomID}}
	case keyInterrupt:
		return []editor.Input{{Kind: editor.InputLeave}}
	case keyLeave:
		now := v.clock.Now()
		if !v.leaveArmed.IsZero() && now.Sub(v.leaveArmed) <= v.ttl {
			return []editor.Input{{Kind: editor.InputLeave}}
		}
		v.leaveArmed = now
		v.notifyLocked(editor.Notice{Kind: editor.NoticeError, Text: "Press Ctrl-Q again to leave the room"})
	}
	return nil
}

func (v *EditorView) edit(b editor.Buffer) []editor.Input {
	v.buf = b.Clamp()
	v.pending = append(v.pending, v.buf.Text)
	out := []editor.Input{{Kind: editor.InputEdit, Text: v.buf.Text, Cursor: v.buf.Cursor}}
	if v.scrollToCursor() {
		out = append(out, editor.Input{Kind: editor.InputScroll, Scroll: v.buf.Scroll})
	}
	v.render()
	return out
}

// move places the cursor. Arrows are reported as keys; Home and End place
// the cursor like a pointer click.
func (v *EditorView) move(key editor.Key, cursor int) []editor.Input {
	v.buf = editor.Buffer{Text: v.buf.Text, Cursor: cursor, Scroll: v.buf.Scroll}.Clamp()
	in := editor.Input{Kind: editor.InputKey, Key: key, Cursor: v.buf.Cursor}
	if key == editor.KeyNone {
		in.Kind = editor.InputClick
	}
	out := []editor.Input{in}
	if v.scrollToCursor() {
		out = append(out, editor.Input{Kind: editor.InputScroll, Scroll: v.buf.Scroll})
	}
	v.render()
	return out
}

// scrollToCursor keeps the cursor line inside the code area and reports
// whether the scroll offset changed.
func (v *EditorView) scrollToCursor() bool {
	rows := v.codeRows()
	line, _ := v.buf.Position()
	scroll := v.buf.Scroll
	if line < scroll {
		scroll = line
	}
	if line >= scroll+rows {
		scroll = line - rows + 1
	}
	if scroll == v.buf.Scroll {
		return false
	}
	v.buf.Scroll = scroll
	return true
}

func (v *EditorView) codeRows() int {
	_, h := v.size()
	return max(h-chromeRows, 1)
}

func (v *EditorView) render() {
	if v.out == nil {
		return
	}
	var frame bytes.Buffer
	v.draw(&frame)
	_, _ = v.out.Write(frame.Bytes())
}

func (v *EditorView) draw(w *bytes.Buffer) {
	width, _ := v.size()
	rows := v.codeRows()
	rule := strings.Repeat("─", max(width, 1))

	w.WriteString(ansiClear)
	v.line(w, v.header())
	v.line(w, v.style(ansiDim, rule))

	lines := v.codeLines()
	for i := 0; i < rows; i++ {
		n := v.buf.Scroll + i
		if n < len(lines) {
			v.line(w, lines[n])
		} else {
			v.line(w, v.style(ansiDim, "~"))
		}
	}

	v.line(w, v.style(ansiDim, rule))
	v.line(w, v.panelLine())
	v.line(w, v.noticeLine())
	w.WriteString(v.style(ansiDim, "Tab accept  Esc dismiss  Ctrl-Y copy room id  Ctrl-Q leave"))
	w.WriteString(clearEOL)

	line, col := v.cursorCell()
	fmt.Fprintf(w, "\x1b[%d;%dH", 3+line-v.buf.Scroll, col+1)
}

func (v *EditorView) line(w *bytes.Buffer, s string) {
	w.WriteString(s)
	w.WriteString(clearEOL)
	w.WriteString("\r\n")
}

func (v *EditorView) header() string {
	status := v.style(ansiRed, "○ "+v.status.Text)
	if v.status.Connected {
		status = v.style(ansiGreen, "● "+v.status.Text)
	} else if strings.HasPrefix(v.status.Text, "Reconnecting") || strings.HasPrefix(v.status.Text, "Connecting") {
		status = v.style(ansiYel, "○ "+v.status.Text)
	}
	updated := "never"
	if !v.lastUpdate.IsZero() {
		updated = v.lastUpdate.Local().Format("15:04:05")
	}
	return fmt.Sprintf("Room %s %s  %s  Users: %d  Last update: %s",
		v.style(ansiBold, v.ref.RoomID), v.style(ansiBold, "["+v.ref.Badge()+"]"), status, v.users, updated)
}

// codeLines splits the buffer into display lines with the ghost text
// spliced in at the cursor.
func (v *EditorView) codeLines() []string {
	before, after := v.buf.Split()
	var ghost string
	if v.ghost != "" {
		parts := strings.Split(expandTabs(v.ghost), "\n")
		for i, p := range parts {
			parts[i] = v.style(ansiDim, p)
		}
		ghost = strings.Join(parts, "\n")
	}
	return strings.Split(expandTabs(before)+ghost+expandTabs(after), "\n")
}

func (v *EditorView) cursorCell() (line, col int) {
	before, _ := v.buf.Split()
	line = strings.Count(before, "\n")
	if i := strings.LastIndexByte(before, '\n'); i >= 0 {
		before = before[i+1:]
	}
	return line, len([]rune(expandTabs(before)))
}

func (v *EditorView) panelLine() string {
	text := strings.ReplaceAll(v.panel, "\n", "⏎")
	if v.placeholder {
		return "Suggestion: " + v.style(ansiDim, text)
	}
	return "Suggestion: " + text
}

func (v *EditorView) noticeLine() string {
	if v.notice == nil {
		return ""
	}
	if v.notice.Kind == editor.NoticeError {
		return v.style(ansiRed, v.notice.Text)
	}
	return v.style(ansiGreen, v.notice.Text)
}

func (v *EditorView) style(code, s string) string {
	if !v.color || s == "" {
		return s
	}
	return code + s + ansiReset
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}
