package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s with Turkish casing rules, strips diacritics and
// collapses whitespace, so "Isı Geri Kazanım" and "isi geri kazanim" compare
// equal. Folding a folded string returns it unchanged.
func Fold(s string) string {
	lower := cases.Lower(language.Turkish).String(s)
	// ı has no decomposition, so it survives mark removal.
	lower = strings.ReplaceAll(lower, "ı", "i")

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, lower)
	if err != nil {
		folded = lower
	}
	return strings.Join(strings.Fields(folded), " ")
}

// Slug builds a URL slug from a category name.
func Slug(s string) string {
	result := strings.Map(func(c rune) rune {
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
			return c
		}
		if c == ' ' || c == '-' {
			return '-'
		}
		return -1
	}, Fold(s))
	for strings.Contains(result, "--") {
		result = strings.ReplaceAll(result, "--", "-")
	}
	return strings.Trim(result, "-")
}
