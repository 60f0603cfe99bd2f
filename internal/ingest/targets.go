package ingest

import (
	"strings"

	"github.com/fibersift/fibersift/internal/catalog"
)

// Target selects what an ingestion run scrapes. Exactly one of the three
// concrete target types is passed to Pipeline.Run.
type Target interface {
	kind() string
}

// CategoryTarget scrapes a category/gender listing until Count qualified
// products are accepted.
type CategoryTarget struct {
	Category string
	Gender   string
	Count    int
}

func (CategoryTarget) kind() string { return "category" }

// SearchTarget maps a free-text query onto category runs.
type SearchTarget struct {
	Query string
	Count int
}

func (SearchTarget) kind() string { return "search" }

// URLListTarget scrapes hand-selected product URLs grouped by their
// intended category bucket. Accepted products are flagged curated.
type URLListTarget struct {
	Groups map[string][]string
}

func (URLListTarget) kind() string { return "urls" }

// queryKeywords maps query terms to categories. Ordered most-specific
// first: "t-shirt" must be tested before the generic "shirt" substring or
// the query would misclassify.
var queryKeywords = []struct {
	term     string
	category string
}{
	{"t-shirt", catalog.CategoryTops},
	{"tshirt", catalog.CategoryTops},
	{"trousers", catalog.CategoryPants},
	{"trouser", catalog.CategoryPants},
	{"blouse", catalog.CategoryTops},
	{"jeans", catalog.CategoryPants},
	{"jean", catalog.CategoryPants},
	{"dress", catalog.CategoryDresses},
	{"skirt", catalog.CategorySkirts},
	{"pants", catalog.CategoryPants},
	{"pant", catalog.CategoryPants},
	{"shirt", catalog.CategoryTops},
	{"tee", catalog.CategoryTops},
	{"top", catalog.CategoryTops},
}

// defaultCategories is sampled when a query matches no keyword at all.
var defaultCategories = []string{
	catalog.CategoryTops,
	catalog.CategoryPants,
	catalog.CategoryDresses,
}

// MapQuery derives category targets from a free-text query. A keyword match
// yields a single focused target; otherwise the default categories are
// sampled with the same count each.
func MapQuery(query string, count int) []CategoryTarget {
	q := strings.ToLower(query)
	gender := queryGender(q)

	for _, kw := range queryKeywords {
		if strings.Contains(q, kw.term) {
			return []CategoryTarget{{Category: kw.category, Gender: gender, Count: count}}
		}
	}

	targets := make([]CategoryTarget, 0, len(defaultCategories))
	for _, c := range defaultCategories {
		targets = append(targets, CategoryTarget{Category: c, Gender: gender, Count: count})
	}
	return targets
}

// queryGender inspects the query for gendered terms. The female terms are
// tested first since "men" is a substring of "women".
func queryGender(q string) string {
	for _, term := range []string{"women", "woman", "ladies", "female"} {
		if strings.Contains(q, term) {
			return catalog.GenderFemale
		}
	}
	for _, term := range []string{"men", "man", "male"} {
		if strings.Contains(q, term) {
			return catalog.GenderMale
		}
	}
	return ""
}
