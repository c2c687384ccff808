// Package utterance provides deterministic text analysis for user input:
// normalization, slot extraction and command heuristics. It has no knowledge
// of the language-understanding backend and is safe to use as a fallback when
// that backend is unavailable.
package utterance

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold strips combining accent marks: "São Paulo" -> "Sao Paulo".
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize produces the canonical comparison form: accent-folded, lowercased
// and trimmed.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(Fold(s)))
}

// citySynonyms maps common abbreviations and nicknames to the catalog's city
// spelling, in normalized form.
var citySynonyms = map[string]string{
	"sp":             "sao paulo",
	"sampa":          "sao paulo",
	"sao-paulo":      "sao paulo",
	"rj":             "rio de janeiro",
	"rio":            "rio de janeiro",
	"rio-de-janeiro": "rio de janeiro",
	"bh":             "belo horizonte",
	"floripa":        "florianopolis",
}

// CanonicalCity normalizes a user-supplied city name and resolves known
// synonyms ("sp" -> "sao paulo").
func CanonicalCity(city string) string {
	c := Normalize(city)
	if canonical, ok := citySynonyms[c]; ok {
		return canonical
	}
	return c
}
