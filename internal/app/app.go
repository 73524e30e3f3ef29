// Package app wires configuration, the HTTP client, the WebSocket session and
// the terminal views into the landing and editor flows.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecode/internal/api"
	"github.com/vovakirdan/wirecode/internal/config"
	"github.com/vovakirdan/wirecode/internal/editor"
	"github.com/vovakirdan/wirecode/internal/landing"
	"github.com/vovakirdan/wirecode/internal/route"
	"github.com/vovakirdan/wirecode/internal/session"
	"github.com/vovakirdan/wirecode/internal/term"
)

// Options override the process terminal and the WebSocket dialer.
type Options struct {
	Terminal *term.Terminal
	In       io.Reader
	Out      io.Writer
	Dialer   session.Dialer
}

// App runs the client flows.
type App struct {
	cfg    config.Config
	api    *api.Client
	term   *term.Terminal
	in     io.Reader
	out    io.Writer
	color  bool
	dialer session.Dialer
	log    *zerolog.Logger
}

// New validates cfg and builds the application.
func New(cfg config.Config, logger *zerolog.Logger, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if opts.Terminal == nil {
		opts.Terminal = term.Stdio()
	}
	color := false
	if opts.In == nil {
		opts.In = opts.Terminal.In()
	}
	if opts.Out == nil {
		opts.Out = opts.Terminal.Out()
		color = opts.Terminal.Color()
	}
	if opts.Dialer == nil {
		opts.Dialer = session.WSDialer{}
	}

	return &App{
		cfg:    cfg,
		api:    api.New(cfg.APIBaseURL, cfg.RequestTimeout, logger),
		term:   opts.Terminal,
		in:     opts.In,
		out:    opts.Out,
		color:  color,
		dialer: opts.Dialer,
		log:    logger,
	}, nil
}

// RunLanding prompts for a room and opens the editor on it. Quitting the
// prompt is not an error.
func (a *App) RunLanding(ctx context.Context) error {
	view := a.landingView()
	ctrl := landing.New(a.api, view, view, a.log)

	ref, err := view.Run(ctx, ctrl)
	if errors.Is(err, term.ErrQuit) {
		return nil
	}
	if err != nil {
		return err
	}
	return a.Edit(ctx, ref)
}

// CreateAndEdit creates a room for language and opens the editor on it.
// An empty language uses the configured default.
func (a *App) CreateAndEdit(ctx context.Context, language string) error {
	if language == "" {
		language = a.cfg.DefaultLanguage
	}
	view := a.landingView()
	if err := landing.New(a.api, view, view, a.log).CreateRoom(ctx, language); err != nil {
		return err
	}
	return a.editDestination(ctx, view)
}

// JoinAndEdit looks up roomID and opens the editor on it.
func (a *App) JoinAndEdit(ctx context.Context, roomID string) error {
	view := a.landingView()
	if err := landing.New(a.api, view, view, a.log).JoinRoom(ctx, roomID); err != nil {
		return err
	}
	return a.editDestination(ctx, view)
}

// RunEditor opens the editor for an editor link. A link without a room
// falls back to the landing prompts.
func (a *App) RunEditor(ctx context.Context, link string) error {
	ref, err := route.ParseEditorLink(link)
	if errors.Is(err, route.ErrMissingRoom) {
		a.log.Info().Str("link", link).Msg("no room in link, redirecting to landing")
		return a.RunLanding(ctx)
	}
	if err != nil {
		return err
	}
	return a.Edit(ctx, ref)
}

// Edit runs the terminal editor for ref until the user leaves.
func (a *App) Edit(ctx context.Context, ref route.Ref) error {
	restore, err := a.term.EnterRaw()
	if err != nil {
		return err
	}
	defer restore()

	view := term.NewEditorView(term.EditorOptions{
		Out:       a.term.Out(),
		Color:     a.term.Color(),
		Clipboard: true,
		Size:      a.term.Size,
		NoticeTTL: a.cfg.NotificationTTL,
	})
	defer view.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inputs := make(chan editor.Input)
	go func() {
		defer close(inputs)
		if err := view.ReadInputs(ctx, a.in, inputs); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn().Err(err).Msg("read terminal input")
		}
	}()

	return a.runRoom(ctx, ref, view, inputs)
}

// runRoom drives one editor session against view until the user leaves,
// inputs end or ctx is done.
func (a *App) runRoom(ctx context.Context, ref route.Ref, view editor.View, inputs <-chan editor.Input) error {
	logger := a.log.With().Str("room_id", ref.RoomID).Str("language", ref.Language).Logger()

	sess := session.New(session.Options{
		URL:    session.RoomURL(a.cfg.WSBaseURL, ref.RoomID),
		Dialer: a.dialer,
		Backoff: session.LinearBackoff{
			Base:        a.cfg.ReconnectBase,
			MaxAttempts: a.cfg.MaxReconnectAttempts,
		},
		Logger: &logger,
	})
	ctrl := editor.New(editor.Options{
		Ref:       ref,
		Rooms:     a.api,
		Completer: a.api,
		Sender:    sess,
		View:      view,
		Debounce:  a.cfg.AutocompleteDelay,
		Logger:    &logger,
	})

	ctrl.Start()
	ctrl.Load(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sessDone := make(chan error, 1)
	go func() { sessDone <- sess.Run(ctx) }()

	logger.Info().Str("session_id", sess.ID()).Msg("editor session started")
	err := ctrl.Run(ctx, inputs, sess.Events())
	cancel()

	if sessErr := <-sessDone; sessErr != nil {
		logger.Warn().Err(sessErr).Msg("session ended")
	}
	logger.Info().Msg("editor session finished")
	return err
}

func (a *App) editDestination(ctx context.Context, view *term.LandingView) error {
	ref, ok := view.Destination()
	if !ok {
		return errors.New("no room selected")
	}
	return a.Edit(ctx, ref)
}

func (a *App) landingView() *term.LandingView {
	return term.NewLandingView(term.LandingOptions{
		In:              a.in,
		Out:             a.out,
		Color:           a.color,
		ErrorTTL:        a.cfg.ErrorTTL,
		DefaultLanguage: a.cfg.DefaultLanguage,
	})
}
