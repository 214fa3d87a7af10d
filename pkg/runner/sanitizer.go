package runner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize bounds one line of player input, in bytes.
const DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitizer cleans player input before it reaches a dialogue, either as a
// choice number or as a text variable. The zero value uses DefaultMaxInputSize.
type Sanitizer struct {
	// MaxSize rejects longer input. Zero or negative means DefaultMaxInputSize.
	MaxSize int
}

// NewSanitizer returns a Sanitizer with the given byte limit.
func NewSanitizer(maxSize int) Sanitizer {
	return Sanitizer{MaxSize: maxSize}
}

// Limit reports the effective byte limit.
func (s Sanitizer) Limit() int {
	if s.MaxSize <= 0 {
		return DefaultMaxInputSize
	}
	return s.MaxSize
}

// Clean rejects oversized or invalid UTF-8 input and strips control
// characters other than newline, tab and carriage return. Oversized input is
// rejected rather than truncated so a partial answer never gets applied.
func (s Sanitizer) Clean(input string) (string, error) {
	if limit := s.Limit(); len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(input, isUnsafeControl) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if isUnsafeControl(r) {
			return -1
		}
		return r
	}, input), nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

// choiceIndex maps a 1-based answer onto an index among n options.
func choiceIndex(text string, n int) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}
