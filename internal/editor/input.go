package editor

// Key is a special key the controller reacts to.
type Key int

const (
	KeyNone Key = iota
	KeyTab
	KeyEscape
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
)

// IsArrow reports cursor-moving keys.
func (k Key) IsArrow() bool {
	return k == KeyLeft || k == KeyRight || k == KeyUp || k == KeyDown
}

// InputKind tells what the user did.
type InputKind int

const (
	// InputEdit carries the whole buffer after a user edit.
	InputEdit InputKind = iota
	// InputKey carries a special key and the cursor after it was applied.
	InputKey
	// InputClick carries a pointer-placed cursor.
	InputClick
	// InputScroll carries a new scroll offset.
	InputScroll
	// InputCopyRoomID asks to copy the room id.
	InputCopyRoomID
	// InputLeave leaves the room.
	InputLeave
)

// Input is a user event delivered by the view.
type Input struct {
	Kind   InputKind
	Key    Key
	Text   string
	Cursor int
	Scroll int
}
