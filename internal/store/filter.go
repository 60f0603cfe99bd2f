package store

import (
	"regexp"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fibersift/fibersift/internal/catalog"
)

// cottonFloor resolves the effective minimum cotton percentage. The second
// return reports whether the caller set it explicitly; an explicit floor
// disables the zero-reading carve-out.
func (f Filter) cottonFloor() (int, bool) {
	if f.MinCotton != nil {
		return *f.MinCotton, true
	}
	return catalog.CottonThreshold, false
}

// matchesCotton applies the cotton constraint to one product. Under the
// default floor, a zero reading is ambiguous (cotton-free or extraction
// failure), so curated and taxonomy-matched products get the benefit of
// the doubt rather than silent exclusion.
func matchesCotton(p catalog.Product, f Filter) bool {
	floor, explicit := f.cottonFloor()
	if p.CottonPercentage >= floor {
		return true
	}
	if explicit || p.CottonPercentage != 0 {
		return false
	}
	return p.IsCurated || inTaxonomy(p.Category)
}

// inTaxonomy reports whether a stored raw category is an exact surface
// form of the fixed taxonomy. Descriptive categories that merely classify
// into it ("denim jeans") do not count; this mirrors the mongo clause's
// $in over taxonomyVariations.
func inTaxonomy(stored string) bool {
	s := strings.ToLower(strings.TrimSpace(stored))
	for _, v := range taxonomyVariations() {
		if s == v {
			return true
		}
	}
	return false
}

// matchesCategory reports whether a stored raw category belongs to the
// given canonical category's surface forms.
func matchesCategory(stored, canonical string) bool {
	s := strings.ToLower(strings.TrimSpace(stored))
	for _, v := range catalog.CategoryVariations(canonical) {
		if s == v {
			return true
		}
	}
	return false
}

// matchesSearch is a case-insensitive substring match over name, fabric
// text and color. A term that names a category doubles as a category
// browse, so "skirts" finds skirts even when no product name contains it.
func matchesSearch(p catalog.Product, term string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return true
	}
	for _, hay := range []string{p.Name, p.CompositionRaw, p.Color} {
		if hay != "" && strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	if c, ok := catalog.Classify(needle); ok {
		return matchesCategory(p.Category, c)
	}
	return false
}

// matches applies every Filter constraint to one product. Used directly by
// the memory backend; the mongo backend relies on buildMongoFilter for the
// same semantics server-side.
func matches(p catalog.Product, f Filter) bool {
	if f.Category != "" && !matchesCategory(p.Category, catalog.NormalizeCategory(f.Category)) {
		return false
	}
	if !matchesCotton(p, f) {
		return false
	}
	if !matchesSearch(p, f.Search) {
		return false
	}
	if f.MaxPrice > 0 && (p.Price == nil || *p.Price > f.MaxPrice) {
		return false
	}
	return true
}

// finalize is the shared second pass over backend results: stored raw
// categories are renormalized to canonical form, a category filter is
// re-checked against the normalized values, and the batch is sorted by
// ascending price with unpriced items last.
func finalize(products []catalog.Product, f Filter) []catalog.Product {
	out := products[:0]
	want := ""
	if f.Category != "" {
		want = catalog.NormalizeCategory(f.Category)
	}
	for _, p := range products {
		p.Category = catalog.NormalizeCategory(p.Category)
		if want != "" && p.Category != want {
			continue
		}
		out = append(out, p)
	}
	sortByPrice(out)
	return out
}

func sortByPrice(products []catalog.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		pi, pj := products[i].Price, products[j].Price
		switch {
		case pi == nil:
			return false
		case pj == nil:
			return true
		default:
			return *pi < *pj
		}
	})
}

// buildMongoFilter translates a Filter into a MongoDB query document with
// the same semantics as matches. Kept as a pure function so the document
// shape is testable without a live server.
func buildMongoFilter(f Filter) bson.M {
	var clauses []bson.M

	if f.Category != "" {
		canonical := catalog.NormalizeCategory(f.Category)
		clauses = append(clauses, bson.M{
			"category": bson.M{"$in": catalog.CategoryVariations(canonical)},
		})
	}

	floor, explicit := f.cottonFloor()
	if explicit {
		clauses = append(clauses, bson.M{"cotton_percentage": bson.M{"$gte": floor}})
	} else {
		clauses = append(clauses, bson.M{"$or": []bson.M{
			{"cotton_percentage": bson.M{"$gte": floor}},
			{
				"cotton_percentage": 0,
				"$or": []bson.M{
					{"is_curated": true},
					{"category": bson.M{"$in": taxonomyVariations()}},
				},
			},
		}})
	}

	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(strings.TrimSpace(f.Search)), Options: "i"}
		or := []bson.M{
			{"name": re},
			{"composition_raw": re},
			{"color": re},
		}
		if c, ok := catalog.Classify(f.Search); ok {
			or = append(or, bson.M{"category": bson.M{"$in": catalog.CategoryVariations(c)}})
		}
		clauses = append(clauses, bson.M{"$or": or})
	}

	if f.MaxPrice > 0 {
		clauses = append(clauses, bson.M{"price": bson.M{"$lte": f.MaxPrice}})
	}

	switch len(clauses) {
	case 0:
		return bson.M{}
	case 1:
		return clauses[0]
	default:
		return bson.M{"$and": clauses}
	}
}

// normalizeCategories maps raw stored categories to canonical form,
// deduplicates and sorts them.
func normalizeCategories(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		c := catalog.NormalizeCategory(r)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// taxonomyVariations flattens every surface form of the fixed taxonomy,
// covering stored raw categories in the carve-out clause.
func taxonomyVariations() []string {
	var all []string
	for _, c := range catalog.CanonicalCategories() {
		all = append(all, catalog.CategoryVariations(c)...)
	}
	return all
}
