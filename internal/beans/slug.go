package beans

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// UnnamedSlug is the reserved placeholder for names that slugify to
// nothing.
const UnnamedSlug = "unnamed"

var diacriticStripper = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Slugify derives a filesystem-safe slug from a surface name: lowercase,
// every run of non-alphanumeric characters collapsed to one hyphen,
// leading and trailing hyphens stripped. Diacritics fold to their base
// letters. An empty result maps to UnnamedSlug.
func Slugify(name string) string {
	folded, _, err := transform.String(diacriticStripper, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastHyphen := true // suppresses a leading hyphen
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return UnnamedSlug
	}
	return slug
}
