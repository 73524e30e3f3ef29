package editor

import (
	"time"

	"github.com/vovakirdan/wirecode/internal/route"
)

// Placeholders shown in the suggestion panel.
const (
	PlaceholderIdle          = "Type to get suggestions..."
	PlaceholderNoSuggestions = "No suggestions"
)

// Origin tags who changed the buffer.
type Origin int

const (
	// OriginLocal is an edit made in this client; it is propagated.
	OriginLocal Origin = iota
	// OriginRemote is an update received from the room; it is never echoed back.
	OriginRemote
)

func (o Origin) String() string {
	if o == OriginRemote {
		return "remote"
	}
	return "local"
}

// NoticeKind styles a transient notification.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

// Notice is a transient notification.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Status is the connection indicator.
type Status struct {
	Connected bool
	Text      string
}

// View renders editor state. All calls come from the controller goroutine.
type View interface {
	SetRoom(ref route.Ref)
	SetBuffer(b Buffer, origin Origin)
	SetGhost(suggestion string)
	SetSuggestionPanel(text string, placeholder bool)
	SetStatus(status Status)
	SetUserCount(n int)
	SetLastUpdate(t time.Time)
	Notify(n Notice)
	CopyToClipboard(text string) error
}
