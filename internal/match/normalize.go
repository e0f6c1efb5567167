// package match canonicalizes unverified track ideas against authoritative
// metadata search results.
package match

import (
	"strings"
	"unicode"
)

// Normalize lowercases text, strips punctuation except spaces, and collapses
// runs of whitespace. All scoring comparisons operate on normalized text.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// artistSeparators split a credited-artist string down to its first billed
// artist. Longer separators come first so " duet with " wins over " with ".
var artistSeparators = []string{
	" featuring ",
	" feat. ",
	" feat ",
	" duet with ",
	" with ",
	" and ",
	" & ",
	" vs. ",
	" vs ",
	" presents ",
	" / ",
	" x ",
}

// CleanArtist reduces a credited-artist string to the first billed artist.
// Returns "" for compilation credits like "Various Artists".
func CleanArtist(artist string) string {
	lower := strings.ToLower(artist)

	cut := len(artist)
	for _, sep := range artistSeparators {
		if idx := strings.Index(lower, sep); idx >= 0 && idx < cut {
			cut = idx
		}
	}

	cleaned := strings.TrimSpace(artist[:cut])
	if strings.EqualFold(cleaned, "various artists") {
		return ""
	}
	return cleaned
}

// titleTruncators mark where alternative-version suffixes begin.
var titleTruncators = []string{" (", "[", " /", " - "}

// CleanTitle strips alternative-version suffixes and wrapping quotes from a
// track title, e.g. `"Umbrella (feat. Jay-Z)"` becomes `Umbrella`.
func CleanTitle(title string) string {
	cut := len(title)
	for _, sep := range titleTruncators {
		if idx := strings.Index(title, sep); idx >= 0 && idx < cut {
			cut = idx
		}
	}

	cleaned := strings.TrimSpace(title[:cut])
	if len(cleaned) >= 2 && strings.HasPrefix(cleaned, `"`) && strings.HasSuffix(cleaned, `"`) {
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	return strings.TrimSpace(cleaned)
}
