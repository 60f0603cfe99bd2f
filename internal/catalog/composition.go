package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// CottonThreshold is the minimum cotton percentage for a garment to qualify.
const CottonThreshold = 90

// Composition is the parsed fabric content of a garment.
type Composition struct {
	// Fibers maps a normalized fiber name (lowercase, single-spaced) to its
	// declared percentage. Percentages are taken verbatim from the source
	// text and are not clamped or validated against 100.
	Fibers map[string]int

	// CottonQualified is true when at least one cotton-labeled fiber is
	// declared at CottonThreshold or above.
	CottonQualified bool
}

var (
	// fiberRe matches "<integer>% <fiber word run>". The fiber name is the
	// run of alphabetic words following the percent sign, ending at the next
	// digit or punctuation.
	fiberRe = regexp.MustCompile(`(?i)(\d+)\s*%\s*([a-z]+(?:\s+[a-z]+)*)`)

	// primaryCottonRe matches the first "<integer>% ... cotton" occurrence
	// with no intervening percentage.
	primaryCottonRe = regexp.MustCompile(`(?i)(\d+)\s*%[^\d%]*cotton`)

	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// ParseComposition scans raw composition text and returns the fiber map plus
// the cotton classification. Later occurrences of the same fiber overwrite
// earlier ones, matching the order fibers appear in garment descriptions
// ("shell: 95% cotton, lining: 5% elastane"). Empty or unparseable input
// yields an empty map and CottonQualified=false.
func ParseComposition(raw string) Composition {
	comp := Composition{Fibers: make(map[string]int)}
	if strings.TrimSpace(raw) == "" {
		return comp
	}

	for _, m := range fiberRe.FindAllStringSubmatch(raw, -1) {
		pct, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		fiber := normalizeFiber(m[2])
		if fiber == "" {
			continue
		}
		comp.Fibers[fiber] = pct
	}

	for fiber, pct := range comp.Fibers {
		if strings.Contains(fiber, "cotton") && pct >= CottonThreshold {
			comp.CottonQualified = true
			break
		}
	}
	return comp
}

// PrimaryCottonPercent returns the percentage from the first
// "<integer>% ... cotton" match in the text, or 0 when there is no match or
// the input is empty. A zero return is ambiguous: it means either no cotton
// or failed extraction, and callers must not treat it as a hard exclusion.
//
// This deliberately re-scans first-match-wins while ParseComposition keeps
// last-match-wins per fiber; the two stored fields are consumed differently
// downstream and are kept distinct.
func PrimaryCottonPercent(raw string) int {
	if raw == "" {
		return 0
	}
	m := primaryCottonRe.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	pct, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return pct
}

// normalizeFiber lowercases and single-spaces a matched fiber word run.
func normalizeFiber(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return multiSpaceRe.ReplaceAllString(s, " ")
}
