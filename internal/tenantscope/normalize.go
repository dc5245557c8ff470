package tenantscope

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics decomposes to NFD, strips combining marks, and recomposes.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize folds diacritics, trims surrounding whitespace, and upper-cases.
// Every comparison in this package normalizes BOTH sides; comparing a
// normalized value against a raw one is a defect.
func Normalize(s string) string {
	folded, _, err := transform.String(foldDiacritics, s)
	if err != nil {
		// Invalid UTF-8 survives as-is; comparisons still work bytewise.
		folded = s
	}

	return strings.ToUpper(strings.TrimSpace(folded))
}

// NormalizeEmail lower-cases and trims. Emails keep their diacritics; only
// case and whitespace are insignificant.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
