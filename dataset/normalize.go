package dataset

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sentiment-dashboard/models"
)

// sideFixes maps title-cased spellings seen in the raw data to canonical sides.
// "Usa" is what title-casing does to "USA".
var sideFixes = map[string]string{
	"Rusia":   models.SideRussia,
	"Ukraina": models.SideUkraine,
	"Usa":     models.SideUSA,
}

// NormalizeSide title-cases s and corrects the known misspellings.
// Values that match no canonical side are returned title-cased.
func NormalizeSide(s string) string {
	t := cases.Title(language.Und).String(strings.TrimSpace(s))
	if fixed, ok := sideFixes[t]; ok {
		return fixed
	}
	return t
}

// IsCanonicalSide reports whether s is one of the three known sides.
func IsCanonicalSide(s string) bool {
	switch s {
	case models.SideRussia, models.SideUkraine, models.SideUSA:
		return true
	}
	return false
}
