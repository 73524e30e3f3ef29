// Package route carries a room reference between the landing and editor flows
// as query parameters, the way the pages hand it over in a browser.
package route

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/vovakirdan/wirecode/internal/proto"
)

const (
	// EditorPath is the path of editor links.
	EditorPath = "editor"
	// LandingPath is where a link without a room redirects to.
	LandingPath = "landing"

	paramRoom = "room"
	paramLang = "lang"
)

// ErrMissingRoom is returned when an editor link carries no room id.
var ErrMissingRoom = errors.New("missing room id")

// Ref identifies a collaborative session.
type Ref struct {
	RoomID   string
	Language string
}

// EditorLink encodes ref as "editor?room=<id>&lang=<lang>".
func EditorLink(ref Ref) string {
	q := url.Values{}
	q.Set(paramRoom, ref.RoomID)
	q.Set(paramLang, ref.Language)
	return EditorPath + "?" + q.Encode()
}

// ParseEditorLink extracts a Ref from a full or partial editor link.
// A bare query string ("room=..&lang=..") is accepted too.
func ParseEditorLink(raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ref{}, ErrMissingRoom
	}
	if !strings.Contains(raw, "?") && strings.Contains(raw, "=") {
		raw = "?" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Ref{}, fmt.Errorf("parse editor link: %w", err)
	}
	return FromQuery(u.Query())
}

// FromQuery reads room and lang parameters; lang defaults to python.
func FromQuery(q url.Values) (Ref, error) {
	room := strings.TrimSpace(q.Get(paramRoom))
	if room == "" {
		return Ref{}, ErrMissingRoom
	}
	lang := strings.TrimSpace(q.Get(paramLang))
	if lang == "" {
		lang = proto.DefaultLanguage
	}
	return Ref{RoomID: room, Language: lang}, nil
}

// FromRoom builds a Ref out of an API room response.
func FromRoom(room *proto.RoomResponse) Ref {
	return Ref{RoomID: room.RoomID, Language: room.Language}
}

// Badge is the upper-cased language label shown next to the room id.
func (r Ref) Badge() string {
	return strings.ToUpper(r.Language)
}
