package crud

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeTable folds a client-supplied table name into lookup form:
// trimmed, lowercased and stripped of diacritics, so "Presenças" and
// "presencas" resolve to the same collection.
func normalizeTable(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	folded, _, err := transform.String(foldTransformer, name)
	if err != nil {
		return name
	}
	return folded
}
