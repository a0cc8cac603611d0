package matcher

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes a line description for history lookup and fuzzy
// comparison: lowercase, punctuation stripped, whitespace collapsed.
func Normalize(description string) string {
	lowered := strings.ToLower(description)
	var b strings.Builder
	b.Grow(len(lowered))
	lastSpace := true
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
