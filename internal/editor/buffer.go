package editor

import (
	"strings"
	"unicode/utf8"
)

// Buffer is the editable text with a cursor and scroll offset. Offsets count
// runes, matching the character offsets the backend slices by.
type Buffer struct {
	Text   string
	Cursor int
	Scroll int
}

// Len returns the text length in runes.
func (b Buffer) Len() int {
	return utf8.RuneCountInString(b.Text)
}

// AtEnd reports whether the cursor sits after the last character.
func (b Buffer) AtEnd() bool {
	return b.Cursor >= b.Len()
}

// Blank reports whether the text has no non-space characters.
func (b Buffer) Blank() bool {
	return strings.TrimSpace(b.Text) == ""
}

// Clamp keeps cursor within [0, Len] and scroll within [0, lines-1].
func (b Buffer) Clamp() Buffer {
	n := b.Len()
	if b.Cursor < 0 {
		b.Cursor = 0
	}
	if b.Cursor > n {
		b.Cursor = n
	}
	if maxScroll := strings.Count(b.Text, "\n"); b.Scroll > maxScroll {
		b.Scroll = maxScroll
	}
	if b.Scroll < 0 {
		b.Scroll = 0
	}
	return b
}

// Split returns the text before and after the cursor.
func (b Buffer) Split() (before, after string) {
	b = b.Clamp()
	i := byteOffset(b.Text, b.Cursor)
	return b.Text[:i], b.Text[i:]
}

// Insert splices s at the cursor and moves the cursor past it.
func (b Buffer) Insert(s string) Buffer {
	before, after := b.Split()
	cursor := utf8.RuneCountInString(before) + utf8.RuneCountInString(s)
	return Buffer{Text: before + s + after, Cursor: cursor, Scroll: b.Scroll}
}

// Position returns the zero-based line and column of the cursor.
func (b Buffer) Position() (line, col int) {
	before, _ := b.Split()
	line = strings.Count(before, "\n")
	if i := strings.LastIndexByte(before, '\n'); i >= 0 {
		before = before[i+1:]
	}
	return line, utf8.RuneCountInString(before)
}

func byteOffset(s string, runes int) int {
	for i := range s {
		if runes == 0 {
			return i
		}
		runes--
	}
	return len(s)
}
