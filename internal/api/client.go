// Package api is the HTTP client for the room and autocomplete endpoints.
package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecode/internal/proto"
)

// ErrRoomNotFound is returned when a room lookup answers with a non-2xx status.
var ErrRoomNotFound = errors.New("room not found")

// StatusError reports a non-2xx answer from the backend.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to %s: %d", e.Op, e.Code)
}

// Client talks to the collaborative editor HTTP API.
type Client struct {
	http *resty.Client
	log  *zerolog.Logger
}

// New builds a client for baseURL. Requests time out after timeout.
func New(baseURL string, timeout time.Duration, logger *zerolog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.SetHeader("X-Request-ID", uuid.NewString())
		return nil
	})
	rc.OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
		logger.Debug().
			Str("method", r.Request.Method).
			Str("url", r.Request.URL).
			Str("request_id", r.Request.Header.Get("X-Request-ID")).
			Int("status", r.StatusCode()).
			Dur("took", r.Time()).
			Msg("api response")
		return nil
	})

	return &Client{http: rc, log: logger}
}

// CreateRoom creates a room for language.
// POST /rooms
func (c *Client) CreateRoom(ctx context.Context, language string) (*proto.RoomResponse, error) {
	var room proto.RoomResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(proto.CreateRoomRequest{Language: language}).
		SetResult(&room).
		Post("/rooms")
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	if resp.IsError() {
		return nil, &StatusError{Op: "create room", Code: resp.StatusCode()}
	}
	c.log.Info().Str("room_id", room.RoomID).Str("language", room.Language).Msg("room created")
	return &room, nil
}

// GetRoom looks up a room by id.
// GET /rooms/{roomId}
func (c *Client) GetRoom(ctx context.Context, roomID string) (*proto.RoomResponse, error) {
	var room proto.RoomResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("roomId", roomID).
		SetResult(&room).
		Get("/rooms/{roomId}")
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s (status %d)", ErrRoomNotFound, roomID, resp.StatusCode())
	}
	return &room, nil
}

// Autocomplete asks for a completion of code at cursor.
// POST /autocomplete
func (c *Client) Autocomplete(ctx context.Context, req proto.AutocompleteRequest) (*proto.AutocompleteResponse, error) {
	var out proto.AutocompleteResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/autocomplete")
	if err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}
	if resp.IsError() {
		return nil, &StatusError{Op: "autocomplete", Code: resp.StatusCode()}
	}
	return &out, nil
}
