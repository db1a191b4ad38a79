package card

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// wordRegex matches runs of Spanish letters, accents and ñ included
var wordRegex = regexp.MustCompile(`[a-zA-ZáéíóúüñÁÉÍÓÚÜÑ]+`)

// CleanWord trims a word and collapses internal whitespace, keeping case and accents.
// This is the form stored as the card's primary key.
func CleanWord(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Normalize folds a string for comparison:
// 1. Strip diacritics (NFD, drop nonspacing marks)
// 2. Lowercase
// 3. Trim and collapse whitespace
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return CleanWord(strings.ToLower(stripped))
}

// ExtractWords returns the Spanish words in text, in order of appearance.
func ExtractWords(text string) []string {
	return wordRegex.FindAllString(text, -1)
}
