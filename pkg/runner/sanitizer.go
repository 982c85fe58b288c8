package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize bounds one prompt answer or parameter value.
	// Values may carry YAML flow lists and maps, hence the room.
	DefaultMaxInputSize = 16 << 10
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "BAKE_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge    = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8      = errors.New("input contains invalid UTF-8 sequences")
	ErrControlCharacter = errors.New("input contains control characters")
)

// SanitizeAnswer cleans a line typed at a prompt. Oversized or malformed
// answers are rejected; terminal control sequences are dropped so that a
// pasted escape code cannot repaint the console.
func SanitizeAnswer(input string) (string, error) {
	if err := checkInput(input); err != nil {
		return "", err
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

// SanitizeValue checks a parameter value received from a remote caller.
// Values are rendered into shell command lines, so control characters are
// an error instead of being removed behind the caller's back.
func SanitizeValue(input string) (string, error) {
	if err := checkInput(input); err != nil {
		return "", err
	}
	if i := strings.IndexFunc(input, isUnsafeControl); i >= 0 {
		r, _ := utf8.DecodeRuneInString(input[i:])
		return "", fmt.Errorf("%w: %U at byte %d", ErrControlCharacter, r, i)
	}
	return input, nil
}

func checkInput(input string) error {
	if limit := maxInputSize(); len(input) > limit {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return ErrInvalidUTF8
	}
	return nil
}

// isUnsafeControl keeps tab and line breaks, which YAML values may need.
func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
