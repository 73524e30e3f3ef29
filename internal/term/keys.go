package term

import (
	"bufio"
	"io"
)

type keyKind int

const (
	keyUnknown keyKind = iota
	keyRune
	keyEnter
	keyBackspace
	keyDelete
	keyTab
	keyEscape
	keyLeft
	keyRight
	keyUp
	keyDown
	keyHome
	keyEnd
	keyCopy
	keyLeave
	keyInterrupt
)

type keyPress struct {
	kind keyKind
	r    rune
}

// keyReader decodes raw-mode terminal input into key presses.
type keyReader struct {
	r *bufio.Reader
}

func newKeyReader(r io.Reader) *keyReader {
	return &keyReader{r: bufio.NewReader(r)}
}

func (k *keyReader) next() (keyPress, error) {
	r, _, err := k.r.ReadRune()
	if err != nil {
		return keyPress{}, err
	}

	switch r {
	case 0x1b:
		return k.escape()
	case '\r', '\n':
		return keyPress{kind: keyEnter}, nil
	case 0x7f, 0x08:
		return keyPress{kind: keyBackspace}, nil
	case '\t':
		return keyPress{kind: keyTab}, nil
	case 0x03:
		return keyPress{kind: keyInterrupt}, nil
	case 0x11:
		return keyPress{kind: keyLeave}, nil
	case 0x19:
		return keyPress{kind: keyCopy}, nil
	case 0x01:
		return keyPress{kind: keyHome}, nil
	case 0x05:
		return keyPress{kind: keyEnd}, nil
	}
	if r < 0x20 {
		return keyPress{kind: keyUnknown, r: r}, nil
	}
	return keyPress{kind: keyRune, r: r}, nil
}

// escape decodes CSI and SS3 sequences. A lone ESC with nothing buffered
// behind it is the Escape key.
func (k *keyReader) escape() (keyPress, error) {
	if k.r.Buffered() == 0 {
		return keyPress{kind: keyEscape}, nil
	}
	intro, err := k.r.ReadByte()
	if err != nil {
		return keyPress{}, err
	}
	if intro != '[' && intro != 'O' {
		return keyPress{kind: keyUnknown, r: rune(intro)}, nil
	}

	var params []byte
	for {
		b, err := k.r.ReadByte()
		if err != nil {
			return keyPress{}, err
		}
		if b >= 0x40 && b <= 0x7e {
			return csiKey(params, b), nil
		}
		params = append(params, b)
	}
}

func csiKey(params []byte, final byte) keyPress {
	switch final {
	case 'A':
		return keyPress{kind: keyUp}
	case 'B':
		return keyPress{kind: keyDown}
	case 'C':
		return keyPress{kind: keyRight}
	case 'D':
		return keyPress{kind: keyLeft}
	case 'H':
		return keyPress{kind: keyHome}
	case 'F':
		return keyPress{kind: keyEnd}
	case '~':
		switch string(params) {
		case "1", "7":
			return keyPress{kind: keyHome}
		case "4", "8":
			return keyPress{kind: keyEnd}
		case "3":
			return keyPress{kind: keyDelete}
		}
	}
	return keyPress{kind: keyUnknown}
}
