package catalog

import "strings"

// Canonical garment categories. The taxonomy is open: inputs that match no
// rule pass through as their lowercased form rather than failing.
const (
	CategoryTops    = "tops"
	CategoryPants   = "pants"
	CategorySkirts  = "skirts"
	CategoryDresses = "dresses"
)

var (
	topsSubstrings  = []string{"t-shirt", "tshirt", "tee", "blouse"}
	topsExact       = []string{"shirt", "shirts", "top", "tops"}
	pantsSubstrings = []string{"pant", "jean", "trouser"}

	// categoryVariations is the inverse lookup used at query time: stored
	// raw categories are not renormalized in place, so a category filter
	// expands to every surface form that may have been persisted.
	categoryVariations = map[string][]string{
		CategoryTops:    {"tops", "top", "shirt", "shirts", "t-shirt", "tshirt", "tee", "blouse"},
		CategoryPants:   {"pants", "pant", "jeans", "jean", "trousers", "trouser"},
		CategorySkirts:  {"skirts", "skirt"},
		CategoryDresses: {"dresses", "dress"},
	}
)

// Classify maps free-form garment text to a canonical category. Rules are
// tested in fixed priority order (tops, pants, skirts, dresses) and the
// first match wins. The boolean reports whether any rule matched.
func Classify(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}

	for _, sub := range topsSubstrings {
		if strings.Contains(s, sub) {
			return CategoryTops, true
		}
	}
	for _, exact := range topsExact {
		if s == exact {
			return CategoryTops, true
		}
	}
	for _, sub := range pantsSubstrings {
		if strings.Contains(s, sub) {
			return CategoryPants, true
		}
	}
	if strings.Contains(s, "skirt") {
		return CategorySkirts, true
	}
	if strings.Contains(s, "dress") {
		return CategoryDresses, true
	}
	return "", false
}

// NormalizeCategory maps a raw category string into the taxonomy, returning
// the lowercased input unchanged when no rule applies. Empty input yields
// the empty string.
func NormalizeCategory(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if c, ok := Classify(s); ok {
		return c
	}
	return s
}

// CategoryVariations returns the known surface forms of a canonical
// category. Unknown categories map to a singleton set of themselves.
func CategoryVariations(canonical string) []string {
	if vars, ok := categoryVariations[strings.ToLower(canonical)]; ok {
		out := make([]string, len(vars))
		copy(out, vars)
		return out
	}
	return []string{strings.ToLower(canonical)}
}

// IsCanonicalCategory reports whether s is one of the fixed taxonomy values.
func IsCanonicalCategory(s string) bool {
	_, ok := categoryVariations[strings.ToLower(s)]
	return ok
}

// CanonicalCategories returns the fixed taxonomy values.
func CanonicalCategories() []string {
	return []string{CategoryTops, CategoryPants, CategorySkirts, CategoryDresses}
}
