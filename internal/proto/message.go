package proto

import "strings"

// Message types exchanged over /ws/{roomId}.
const (
	TypeInit            = "init"
	TypeUserCountUpdate = "user_count_update"
	TypeUserJoined      = "user_joined"
	TypeUserLeft        = "user_left"
	TypeCodeUpdate      = "code_update"
	TypeCursorUpdate    = "cursor_update"
	TypeError           = "error"
)

// Message is the flat JSON object sent in both directions; Type selects which fields are set.
type Message struct {
	Type     string  `json:"type"`
	Code     *string `json:"code,omitempty"`
	Count    *int    `json:"count,omitempty"`
	Position *int    `json:"position,omitempty"`
	Language string  `json:"language,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// NewCodeUpdate builds an outbound full-document update.
func NewCodeUpdate(code, language string) Message {
	return Message{Type: TypeCodeUpdate, Code: &code, Language: language}
}

// NewCursorUpdate builds an outbound cursor position update.
func NewCursorUpdate(position int) Message {
	return Message{Type: TypeCursorUpdate, Position: &position}
}

// CodeOrEmpty returns the code payload, or "" when absent.
func (m Message) CodeOrEmpty() string {
	if m.Code == nil {
		return ""
	}
	return *m.Code
}

// CountOr returns the participant count, or fallback when absent.
func (m Message) CountOr(fallback int) int {
	if m.Count == nil {
		return fallback
	}
	return *m.Count
}

// RoomResponse is returned by POST /rooms and GET /rooms/{roomId}.
type RoomResponse struct {
	RoomID   string `json:"roomId"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

// CreateRoomRequest is the POST /rooms body.
type CreateRoomRequest struct {
	Language string `json:"language"`
}

// AutocompleteRequest is the POST /autocomplete body.
type AutocompleteRequest struct {
	Code           string `json:"code"`
	CursorPosition int    `json:"cursorPosition"`
	Language       string `json:"language"`
}

// AutocompleteResponse is returned by POST /autocomplete.
type AutocompleteResponse struct {
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// DefaultLanguage is used when a link or form carries no language.
const DefaultLanguage = "python"

// Languages is the set a room can be created with.
var Languages = []string{"python", "javascript", "typescript", "java", "cpp", "go"}

// IsLanguage reports whether lang is one of Languages (case-insensitive).
func IsLanguage(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}
