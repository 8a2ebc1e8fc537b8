package report

import (
	"strings"

	"github.com/diyradiolab/FoodPantryParser/internal/model"
)

// Agencies are grouped by exact name string, so "East Frankfort" and
// "East Frankfort Baptist" silently become two agencies. The audit flags
// likely misspellings for the operator to correct in the source files; it
// never regroups anything itself.

// NamePair is two distinct agency names suspected of being the same agency.
type NamePair struct {
	A, B string
}

// AuditAgencyNames returns every pair of distinct agency names that match
// after normalization, or where one normalized name is a prefix of the
// other.
func AuditAgencyNames(orders []*model.Order) []NamePair {
	var names []string
	seen := make(map[string]bool)
	for _, o := range orders {
		if !seen[o.AgencyName] {
			seen[o.AgencyName] = true
			names = append(names, o.AgencyName)
		}
	}

	var pairs []NamePair
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if nearDuplicate(names[i], names[j]) {
				pairs = append(pairs, NamePair{A: names[i], B: names[j]})
			}
		}
	}
	return pairs
}

func nearDuplicate(a, b string) bool {
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return strings.HasPrefix(na, nb+" ") || strings.HasPrefix(nb, na+" ")
}

// normalizeName lowercases and collapses runs of whitespace.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
