package tui

import (
	"bufio"
	"io"
	"unicode/utf8"
)

// Key represents a keyboard input.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeyCtrlC
	KeyCtrlD
	KeyRune // Regular character
)

// KeyEvent represents a key press event.
type KeyEvent struct {
	Key  Key
	Rune rune // Only valid when Key == KeyRune
}

// KeyReader reads keyboard input from a raw terminal.
type KeyReader struct {
	reader *bufio.Reader
}

// NewKeyReader creates a KeyReader from the given io.Reader.
// The reader should be a raw terminal input (e.g., os.Stdin after term.MakeRaw).
func NewKeyReader(r io.Reader) *KeyReader {
	return &KeyReader{
		reader: bufio.NewReaderSize(r, 64),
	}
}

// ReadKey reads a single key event from the input.
// This method blocks until a key is pressed.
func (k *KeyReader) ReadKey() (KeyEvent, error) {
	b, err := k.reader.ReadByte()
	if err != nil {
		return KeyEvent{}, err
	}

	switch b {
	case 0x03:
		return KeyEvent{Key: KeyCtrlC}, nil
	case 0x04:
		return KeyEvent{Key: KeyCtrlD}, nil
	case 0x0D, 0x0A:
		return KeyEvent{Key: KeyEnter}, nil
	case 0x1B:
		k.skipEscapeSequence()
		return KeyEvent{Key: KeyEscape}, nil
	}

	if b >= 0x20 && b < 0x7F {
		return KeyEvent{Key: KeyRune, Rune: rune(b)}, nil
	}
	if b >= 0xC0 {
		return k.readUTF8(b)
	}
	return KeyEvent{Key: KeyUnknown}, nil
}

// skipEscapeSequence drops the rest of a CSI/SS3 sequence (arrow keys and
// the like) that is already buffered. None of them are bound.
func (k *KeyReader) skipEscapeSequence() {
	if k.reader.Buffered() == 0 {
		return
	}
	next, err := k.reader.ReadByte()
	if err != nil {
		return
	}
	if next != '[' && next != 'O' {
		k.reader.UnreadByte()
		return
	}
	for k.reader.Buffered() > 0 {
		b, err := k.reader.ReadByte()
		if err != nil || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
			return
		}
	}
}

// readUTF8 reads a multi-byte UTF-8 character.
func (k *KeyReader) readUTF8(first byte) (KeyEvent, error) {
	var buf [4]byte
	buf[0] = first

	var n int
	switch {
	case first&0xE0 == 0xC0:
		n = 2
	case first&0xF0 == 0xE0:
		n = 3
	case first&0xF8 == 0xF0:
		n = 4
	default:
		return KeyEvent{Key: KeyUnknown}, nil
	}

	for i := 1; i < n; i++ {
		b, err := k.reader.ReadByte()
		if err != nil {
			return KeyEvent{Key: KeyUnknown}, err
		}
		buf[i] = b
	}

	r, _ := utf8.DecodeRune(buf[:n])
	if r == utf8.RuneError {
		return KeyEvent{Key: KeyUnknown}, nil
	}
	return KeyEvent{Key: KeyRune, Rune: r}, nil
}

// actionKeys maps a command's position in the current action list to its
// shortcut. On the welcome stage the single action is also bound to 'g'.
var actionKeys = []rune{'1', '2', '3', '4', '5', '6', '7', '8', '9'}

// actionIndex returns the action position bound to r, or -1.
func actionIndex(r rune, count int) int {
	if count == 1 && (r == 'g' || r == 'G') {
		return 0
	}
	for i, k := range actionKeys {
		if k == r && i < count {
			return i
		}
	}
	return -1
}

// ActionKey returns the shortcut label shown for the action at position i.
func ActionKey(i, count int) string {
	if count == 1 {
		return "g"
	}
	if i < len(actionKeys) {
		return string(actionKeys[i])
	}
	return ""
}
