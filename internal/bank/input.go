package bank

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Sentinels carried by InputError.
var (
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
	ErrIllegalChar = errors.New("character not allowed in question text")
)

// InputError reports question text that cannot be carried through the
// question markup: malformed UTF-8 or a control character XML forbids.
type InputError struct {
	Line   int // one based
	Column int // one based, in runes
	Rune   rune
	Err    error
}

func (e *InputError) Error() string {
	if errors.Is(e.Err, ErrInvalidUTF8) {
		return fmt.Sprintf("line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("line %d, column %d: %v: %U", e.Line, e.Column, e.Err, e.Rune)
}

func (e *InputError) Unwrap() error { return e.Err }

// CheckText returns an *InputError for the first byte sequence in text that
// is not valid UTF-8 or is a character outside the XML 1.0 Char production.
func CheckText(text string) error {
	line, col := 1, 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		col++
		if r == utf8.RuneError && size == 1 {
			return &InputError{Line: line, Column: col, Rune: r, Err: ErrInvalidUTF8}
		}
		if !xmlChar(r) {
			return &InputError{Line: line, Column: col, Rune: r, Err: ErrIllegalChar}
		}
		if r == '\n' {
			line, col = line+1, 0
		}
		i += size
	}
	return nil
}

func xmlChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r < 0x20:
		return false
	case r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	default:
		return r >= 0x10000 && r <= utf8.MaxRune
	}
}
