package utils

import (
	"unicode"
)

// ContainsControlChars checks if a string contains non printable characters
func ContainsControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return true
		}
	}
	return false
}

// HasSearchableRune reports whether s has at least one letter or digit.
func HasSearchableRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// IsValidQuery checks if input should be processed for search completions.
// Returns false for empty strings, strings with control characters, and strings
// made only of separators and punctuation.
func IsValidQuery(s string) bool {
	if len(s) == 0 {
		return false
	}
	if ContainsControlChars(s) {
		return false
	}
	return HasSearchableRune(s)
}
