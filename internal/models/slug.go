package models

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength matches the articles.slug column.
const MaxSlugLength = 255

var (
	slugInvalid  = regexp.MustCompile(`[^\w\s-]`)
	slugSeparate = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts a title into a lowercase, hyphenated ASCII slug.
// Accented letters are transliterated to their base form; other non-ASCII
// characters are dropped.
func Slugify(title string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	ascii, _, err := transform.String(t, title)
	if err != nil {
		ascii = title
	}

	s := slugInvalid.ReplaceAllString(ascii, "")
	s = strings.TrimSpace(strings.ToLower(s))
	s = slugSeparate.ReplaceAllString(s, "-")
	return strings.Trim(s, "-_")
}
