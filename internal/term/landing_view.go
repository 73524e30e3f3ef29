package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vovakirdan/wirecode/internal/landing"
	"github.com/vovakirdan/wirecode/internal/proto"
	"github.com/vovakirdan/wirecode/internal/route"
)

// ErrQuit is returned by LandingView.Run when the user quits or input ends.
var ErrQuit = errors.New("quit")

// LandingActions are the triggers the landing prompts fire.
type LandingActions interface {
	CreateRoom(ctx context.Context, language string) error
	JoinRoom(ctx context.Context, roomID string) error
}

// LandingOptions configure a LandingView.
type LandingOptions struct {
	In              io.Reader
	Out             io.Writer
	Color           bool
	Clock           clock.Clock
	ErrorTTL        time.Duration
	DefaultLanguage string
}

// LandingView is a line-prompt landing form. It implements landing.View and
// landing.Navigator.
type LandingView struct {
	in      *bufio.Scanner
	out     io.Writer
	color   bool
	clock   clock.Clock
	ttl     time.Duration
	defLang string

	mu       sync.Mutex
	errs     map[landing.Target]string
	errGen   map[landing.Target]int
	disabled map[landing.Target]bool
	target   *route.Ref
}

// NewLandingView builds a landing view.
func NewLandingView(opts LandingOptions) *LandingView {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.ErrorTTL <= 0 {
		opts.ErrorTTL = 5 * time.Second
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = proto.DefaultLanguage
	}
	return &LandingView{
		in:       bufio.NewScanner(opts.In),
		out:      opts.Out,
		color:    opts.Color,
		clock:    opts.Clock,
		ttl:      opts.ErrorTTL,
		defLang:  opts.DefaultLanguage,
		errs:     make(map[landing.Target]string),
		errGen:   make(map[landing.Target]int),
		disabled: make(map[landing.Target]bool),
	}
}

// ShowError prints msg and keeps it on the menu until the error TTL elapses.
func (v *LandingView) ShowError(t landing.Target, msg string) {
	v.mu.Lock()
	v.errs[t] = msg
	v.errGen[t]++
	gen := v.errGen[t]
	v.mu.Unlock()

	v.printf("%s\n", v.paint(ansiRed, "✗ "+msg))
	v.clock.AfterFunc(v.ttl, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.errGen[t] == gen {
			delete(v.errs, t)
		}
	})
}

func (v *LandingView) ClearError(t landing.Target) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.errs, t)
	v.errGen[t]++
}

func (v *LandingView) SetLoading(t landing.Target, on bool) {
	if !on {
		return
	}
	if t == landing.TargetJoin {
		v.printf("%s\n", v.paint(ansiDim, "Looking up room..."))
		return
	}
	v.printf("%s\n", v.paint(ansiDim, "Creating room..."))
}

func (v *LandingView) SetEnabled(t landing.Target, on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.disabled[t] = !on
}

// Navigate records the room the user is headed to; Run returns it.
func (v *LandingView) Navigate(ref route.Ref) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.target = &ref
}

// Error returns the error currently shown for t, or "".
func (v *LandingView) Error(t landing.Target) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errs[t]
}

// Run prompts until a room is chosen, the user quits or input ends.
func (v *LandingView) Run(ctx context.Context, actions LandingActions) (route.Ref, error) {
	for {
		if err := ctx.Err(); err != nil {
			return route.Ref{}, err
		}
		v.menu()
		choice, ok := v.prompt("> ")
		if !ok {
			return route.Ref{}, ErrQuit
		}

		switch strings.ToLower(choice) {
		case "1", "c", "create":
			lang, ok := v.prompt(fmt.Sprintf("Language [%s] (%s): ", v.defLang, strings.Join(proto.Languages, ", ")))
			if !ok {
				return route.Ref{}, ErrQuit
			}
			if lang == "" {
				lang = v.defLang
			}
			_ = actions.CreateRoom(ctx, lang)
		case "2", "j", "join":
			id, ok := v.prompt("Room ID: ")
			if !ok {
				return route.Ref{}, ErrQuit
			}
			_ = actions.JoinRoom(ctx, id)
		case "q", "quit", "exit":
			return route.Ref{}, ErrQuit
		case "":
			continue
		default:
			v.printf("Unknown choice %q\n", choice)
			continue
		}

		if ref, ok := v.Destination(); ok {
			return ref, nil
		}
	}
}

// Destination returns the room chosen so far.
func (v *LandingView) Destination() (route.Ref, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.target == nil {
		return route.Ref{}, false
	}
	return *v.target, true
}

func (v *LandingView) menu() {
	v.mu.Lock()
	createErr, joinErr := v.errs[landing.TargetCreate], v.errs[landing.TargetJoin]
	createBusy, joinBusy := v.disabled[landing.TargetCreate], v.disabled[landing.TargetJoin]
	v.mu.Unlock()

	v.printf("\n%s\n", v.paint(ansiBold, "wirecode: collaborative code editor"))
	v.printf("  1) Create a new room%s\n", busyMark(createBusy))
	if createErr != "" {
		v.printf("     %s\n", v.paint(ansiRed, createErr))
	}
	v.printf("  2) Join an existing room%s\n", busyMark(joinBusy))
	if joinErr != "" {
		v.printf("     %s\n", v.paint(ansiRed, joinErr))
	}
	v.printf("  q) Quit\n")
}

func (v *LandingView) prompt(label string) (string, bool) {
	v.printf("%s", label)
	if !v.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(v.in.Text()), true
}

func (v *LandingView) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(v.out, format, args...)
}

func (v *LandingView) paint(code, s string) string {
	if !v.color {
		return s
	}
	return code + s + ansiReset
}

func busyMark(busy bool) string {
	if busy {
		return " (busy)"
	}
	return ""
}
