package validators

import (
	"strings"
	"unicode/utf8"
)

// SanitizeString trims whitespace and cuts the result to maxLen bytes
// without splitting a multi-byte character.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 || len(trimmed) <= maxLen {
		return trimmed
	}
	n := maxLen
	for n > 0 && !utf8.RuneStart(trimmed[n]) {
		n--
	}
	return strings.TrimSpace(trimmed[:n])
}

// SanitizeEmail lowercases an address after trimming it.
func SanitizeEmail(input string) string {
	return strings.ToLower(SanitizeString(input, 254))
}
