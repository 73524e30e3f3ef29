// Package term is the terminal front end: a raw-mode editor view and a
// line-prompt landing view.
package term

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	xterm "golang.org/x/term"
)

const (
	altScreenOn  = "\x1b[?1049h"
	altScreenOff = "\x1b[?1049l"
)

// Terminal wraps the process's stdin and stdout.
type Terminal struct {
	in  *os.File
	out *os.File
}

// Stdio returns the terminal attached to os.Stdin and os.Stdout.
func Stdio() *Terminal {
	return &Terminal{in: os.Stdin, out: os.Stdout}
}

// In is the input stream.
func (t *Terminal) In() io.Reader { return t.in }

// Out is an ANSI-capable writer for stdout.
func (t *Terminal) Out() io.Writer { return colorable.NewColorable(t.out) }

// IsTTY reports whether both ends are interactive terminals.
func (t *Terminal) IsTTY() bool {
	return isTerminal(t.in) && isTerminal(t.out)
}

// Color reports whether stdout should get ANSI colours.
func (t *Terminal) Color() bool {
	return isTerminal(t.out) && os.Getenv("NO_COLOR") == ""
}

// Size returns the window size, falling back to 80x24.
func (t *Terminal) Size() (width, height int) {
	w, h, err := xterm.GetSize(int(t.out.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}

// EnterRaw switches to raw mode on the alternate screen. The returned func
// restores the previous state.
func (t *Terminal) EnterRaw() (restore func(), err error) {
	if !t.IsTTY() {
		return nil, fmt.Errorf("editor needs an interactive terminal")
	}
	fd := int(t.in.Fd())
	state, err := xterm.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enter raw mode: %w", err)
	}
	out := t.Out()
	_, _ = io.WriteString(out, altScreenOn)
	return func() {
		_, _ = io.WriteString(out, altScreenOff)
		_ = xterm.Restore(fd, state)
	}, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
