// Package display holds presentation helpers for rendering episode text in
// logs and API responses. Defaulting and truncation happen here, at display
// time, never at storage time.
package display

import (
	"strings"
	"unicode"
)

const ellipsis = "..."

// DefaultText returns the pointed-to value, or the empty string for nil.
func DefaultText(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// Sanitize strips everything but letters, digits and spaces.
func Sanitize(input string) string {
	var builder strings.Builder
	builder.Grow(len(input))
	for _, character := range input {
		if unicode.IsLetter(character) || unicode.IsDigit(character) || character == ' ' {
			builder.WriteRune(character)
		}
	}
	return builder.String()
}

// Abbreviate fits input into maxWidth characters by sanitizing it and
// replacing the middle with an ellipsis. Strings at or under the width pass
// through unchanged; widths too small to abbreviate meaningfully truncate.
func Abbreviate(input string, maxWidth int) string {
	runes := []rune(input)
	if len(runes) <= maxWidth {
		return input
	}

	runes = []rune(Sanitize(input))
	if maxWidth < len(ellipsis)+2 {
		if len(runes) < maxWidth {
			return string(runes)
		}
		return string(runes[:maxWidth])
	}

	available := maxWidth - len(ellipsis)
	head := available / 2
	tail := available - head
	if len(runes) <= head+tail {
		return string(runes)
	}
	return string(runes[:head]) + ellipsis + string(runes[len(runes)-tail:])
}
