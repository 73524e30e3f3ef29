package term

import (
	"strings"
	"unicode/utf8"

	"github.com/vovakirdan/wirecode/internal/editor"
)

// deleteBefore removes the rune left of the cursor.
func deleteBefore(b editor.Buffer) (editor.Buffer, bool) {
	if b.Cursor <= 0 {
		return b, false
	}
	runes := []rune(b.Text)
	cur := min(b.Cursor, len(runes))
	return editor.Buffer{
		Text:   string(runes[:cur-1]) + string(runes[cur:]),
		Cursor: cur - 1,
		Scroll: b.Scroll,
	}.Clamp(), true
}

// deleteAt removes the rune under the cursor.
func deleteAt(b editor.Buffer) (editor.Buffer, bool) {
	runes := []rune(b.Text)
	if b.Cursor < 0 || b.Cursor >= len(runes) {
		return b, false
	}
	return editor.Buffer{
		Text:   string(runes[:b.Cursor]) + string(runes[b.Cursor+1:]),
		Cursor: b.Cursor,
		Scroll: b.Scroll,
	}.Clamp(), true
}

// lineBounds returns the rune offsets of the start and end of every line.
func lineBounds(text string) [][2]int {
	var bounds [][2]int
	start := 0
	for _, line := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(line)
		bounds = append(bounds, [2]int{start, start + n})
		start += n + 1
	}
	return bounds
}

// moveVertical moves the cursor delta lines keeping the column where possible.
func moveVertical(b editor.Buffer, delta int) int {
	line, col := b.Position()
	bounds := lineBounds(b.Text)
	target := line + delta
	if target < 0 {
		return 0
	}
	if target >= len(bounds) {
		return b.Len()
	}
	lb := bounds[target]
	return min(lb[0]+col, lb[1])
}

func lineStart(b editor.Buffer) int {
	line, _ := b.Position()
	return lineBounds(b.Text)[line][0]
}

func lineEnd(b editor.Buffer) int {
	line, _ := b.Position()
	return lineBounds(b.Text)[line][1]
}
