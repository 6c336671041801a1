// Package slug builds URL keys for events and tours.
package slug

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// SuffixLen is the number of uuid characters appended to a slug.
const SuffixLen = 8

// Slugify normalises s to NFKC, drops everything except letters, digits,
// underscores, hyphens and whitespace, lowercases it and joins words with
// single hyphens. Non-Latin letters are kept.
func Slugify(s string) string {
	s = norm.NFKC.String(s)
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.Is(unicode.Mn, r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		}
	}
	return strings.Trim(b.String(), "-_")
}

// New returns Slugify(title) followed by a hyphen and the first SuffixLen
// characters of a random uuid. An empty base yields just the suffix.
func New(title string) string {
	suffix := uuid.NewString()[:SuffixLen]
	base := Slugify(title)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
