package util

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts PascalCase or camelCase to snake_case.
// Handles acronyms and digits (e.g., "HTTPSConnection" -> "https_connection",
// "Player2D" -> "player2d").
func ToSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(s)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			// Don't split inside an acronym unless this rune starts a new word,
			// and keep a trailing capital attached to a digit run (2D, 3D).
			prevUpper := unicode.IsUpper(prev)
			prevDigit := unicode.IsDigit(prev)
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			if prev != '_' && ((!prevUpper && !prevDigit) || nextLower) {
				result.WriteRune('_')
			}
		}

		result.WriteRune(r)
	}

	return strings.ToLower(result.String())
}

// UpperFirst upper-cases the first rune
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// LowerFirst lower-cases the first rune
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
