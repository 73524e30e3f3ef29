// Package landing implements the room bootstrap flow: create a room or join
// one by id, then hand the room over to the editor.
package landing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecode/internal/api"
	"github.com/vovakirdan/wirecode/internal/proto"
	"github.com/vovakirdan/wirecode/internal/route"
)

var (
	// ErrEmptyRoomID is returned by JoinRoom for a blank room id.
	ErrEmptyRoomID = errors.New("empty room id")
	// ErrUnsupportedLanguage is returned by CreateRoom for a language outside proto.Languages.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrBusy is returned when the trigger already has a request in flight.
	ErrBusy = errors.New("request in flight")
)

const (
	msgEmptyRoomID  = "Please enter a room ID"
	msgRoomNotFound = "Room not found. Please check the room ID."
)

// Target names one of the two independent triggers.
type Target int

const (
	TargetCreate Target = iota
	TargetJoin
)

func (t Target) String() string {
	if t == TargetJoin {
		return "join"
	}
	return "create"
}

// View renders the landing form.
type View interface {
	ShowError(t Target, msg string)
	ClearError(t Target)
	SetLoading(t Target, on bool)
	SetEnabled(t Target, on bool)
}

// Navigator opens the editor for a room.
type Navigator interface {
	Navigate(ref route.Ref)
}

// Rooms is the part of the API the landing flow uses.
type Rooms interface {
	CreateRoom(ctx context.Context, language string) (*proto.RoomResponse, error)
	GetRoom(ctx context.Context, roomID string) (*proto.RoomResponse, error)
}

// Controller runs the create and join flows. Both methods are safe to call
// concurrently; each trigger ignores calls while its own request is running.
type Controller struct {
	rooms Rooms
	view  View
	nav   Navigator
	log   *zerolog.Logger

	mu   sync.Mutex
	busy map[Target]bool
}

// New builds a landing controller.
func New(rooms Rooms, view View, nav Navigator, logger *zerolog.Logger) *Controller {
	return &Controller{
		rooms: rooms,
		view:  view,
		nav:   nav,
		log:   logger,
		busy:  make(map[Target]bool),
	}
}

// CreateRoom creates a room for language (default python) and navigates to it.
func (c *Controller) CreateRoom(ctx context.Context, language string) error {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = proto.DefaultLanguage
	}
	if !proto.IsLanguage(language) {
		c.view.ShowError(TargetCreate, fmt.Sprintf("Unsupported language: %s", language))
		return fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	if !c.acquire(TargetCreate) {
		return ErrBusy
	}
	defer c.release(TargetCreate)

	room, err := c.rooms.CreateRoom(ctx, language)
	if err != nil {
		c.log.Error().Err(err).Str("language", language).Msg("create room")
		c.fail(TargetCreate, createMessage(err))
		return err
	}

	c.log.Info().Str("room_id", room.RoomID).Msg("navigating to new room")
	c.nav.Navigate(route.FromRoom(room))
	return nil
}

// JoinRoom looks up roomID and navigates to it. A blank id fails locally.
func (c *Controller) JoinRoom(ctx context.Context, roomID string) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		c.view.ShowError(TargetJoin, msgEmptyRoomID)
		return ErrEmptyRoomID
	}

	if !c.acquire(TargetJoin) {
		return ErrBusy
	}
	defer c.release(TargetJoin)

	room, err := c.rooms.GetRoom(ctx, roomID)
	if err != nil {
		c.log.Warn().Err(err).Str("room_id", roomID).Msg("join room")
		msg := err.Error()
		if errors.Is(err, api.ErrRoomNotFound) {
			msg = msgRoomNotFound
		}
		c.fail(TargetJoin, msg)
		return err
	}

	c.nav.Navigate(route.FromRoom(room))
	return nil
}

// acquire marks t busy, clears its error, shows loading and disables it.
func (c *Controller) acquire(t Target) bool {
	c.mu.Lock()
	if c.busy[t] {
		c.mu.Unlock()
		c.log.Debug().Stringer("target", t).Msg("ignored while busy")
		return false
	}
	c.busy[t] = true
	c.mu.Unlock()

	c.view.ClearError(t)
	c.view.SetLoading(t, true)
	c.view.SetEnabled(t, false)
	return true
}

func (c *Controller) release(t Target) {
	c.mu.Lock()
	c.busy[t] = false
	c.mu.Unlock()
}

// fail shows msg and resets the trigger so the user can retry.
func (c *Controller) fail(t Target, msg string) {
	c.view.ShowError(t, msg)
	c.view.SetLoading(t, false)
	c.view.SetEnabled(t, true)
}

func createMessage(err error) string {
	var se *api.StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("Failed to create room: %d", se.Code)
	}
	return err.Error()
}
