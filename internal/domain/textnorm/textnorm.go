// Package textnorm folds and tokenizes user-facing text so Polish and English
// keywords can be compared regardless of case and diacritics.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ł does not decompose under NFD, so it is mapped explicitly.
var strokeReplacer = strings.NewReplacer("ł", "l", "Ł", "L")

// Fold lower-cases s and strips diacritics (ą→a, ć→c, ę→e, ł→l, ń→n, ó→o, ś→s, ź→z, ż→z).
func Fold(s string) string {
	s = strokeReplacer.Replace(strings.ToLower(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Tokenize folds s and splits it on non-letter/digit boundaries, keeping
// tokens of at least two characters.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

// Words splits lower-cased s on word boundaries without folding.
func Words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ContainsPhrase reports whether folded haystack contains folded needle.
func ContainsPhrase(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(Fold(haystack), Fold(needle))
}

// FirstPhrase returns the first phrase from phrases found in text.
func FirstPhrase(text string, phrases []string) (string, bool) {
	folded := Fold(text)
	for _, p := range phrases {
		if p != "" && strings.Contains(folded, Fold(p)) {
			return p, true
		}
	}
	return "", false
}
