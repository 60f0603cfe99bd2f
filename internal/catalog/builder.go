package catalog

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// unknownProductSentinel is the placeholder some listing templates render
// for dead or delisted SKUs. A page carrying it has no real product.
const unknownProductSentinel = "unknown product"

// defaultColor is used when no color keyword matches name or materials.
const defaultColor = "Various"

var (
	htmlIDRe   = regexp.MustCompile(`(\d+)\.html`)
	pathDigits = regexp.MustCompile(`/(\d{4,})(?:[/?#]|$)`)

	// colorKeywords is matched in order against name+materials; the first
	// hit wins.
	colorKeywords = []string{
		"black", "white", "blue", "red", "green", "pink", "beige",
		"brown", "grey", "gray", "navy", "yellow", "purple", "orange",
		"khaki", "cream", "ecru",
	}
)

// BuildProduct assembles a normalized Product from raw extraction output.
// It is a pure transformation: no I/O, and CreatedAt/UpdatedAt are left for
// the repository to assign on persistence.
//
// A missing name, or the "unknown product" placeholder, fails the build with
// an ExtractionError; the caller skips the URL rather than crashing.
func BuildProduct(raw *RawProduct, sourceURL string) (Product, error) {
	if raw == nil {
		return Product{}, &ExtractionError{URL: sourceURL, Err: ErrEmptyPage}
	}

	name := strings.TrimSpace(raw.Name)
	if name == "" || strings.EqualFold(name, unknownProductSentinel) {
		return Product{}, &ExtractionError{URL: sourceURL, Err: ErrNoName}
	}

	comp := ParseComposition(raw.MaterialsText)

	p := Product{
		URL:               sourceURL,
		ProductID:         extractProductID(sourceURL),
		Name:              name,
		Brand:             strings.TrimSpace(raw.Brand),
		Price:             raw.Price,
		Currency:          raw.Currency,
		Images:            raw.Images,
		SizesAvailable:    raw.Sizes,
		Color:             deriveColor(name, raw.MaterialsText),
		Category:          deriveCategory(sourceURL, name, raw.MaterialsText),
		Gender:            deriveGender(sourceURL),
		CompositionRaw:    raw.MaterialsText,
		CompositionParsed: comp.Fibers,
		CottonPercentage:  PrimaryCottonPercent(raw.MaterialsText),
		IsCottonQualified: comp.CottonQualified,
	}
	if len(p.Images) > 0 {
		p.Image = p.Images[0]
	}
	return p, nil
}

// deriveCategory resolves the category from the strongest available signal:
// the product name first, then the URL path, then the materials text. When
// nothing classifies, the lowercased name passes through (open taxonomy).
func deriveCategory(sourceURL, name, materials string) string {
	if c, ok := Classify(name); ok {
		return c
	}
	if u, err := url.Parse(sourceURL); err == nil {
		if c, ok := Classify(u.Path); ok {
			return c
		}
	}
	if c, ok := Classify(materials); ok {
		return c
	}
	return NormalizeCategory(name)
}

// deriveGender inspects the URL path for gendered section markers. The
// female markers are tested first since "/man" is a substring of "/woman".
func deriveGender(sourceURL string) string {
	s := strings.ToLower(sourceURL)
	if strings.Contains(s, "/woman") || strings.Contains(s, "/women") {
		return GenderFemale
	}
	if strings.Contains(s, "/man") || strings.Contains(s, "/men") {
		return GenderMale
	}
	return GenderUnknown
}

// deriveColor scans the name and materials for a known color keyword.
func deriveColor(name, materials string) string {
	haystack := strings.ToLower(name + " " + materials)
	for _, c := range colorKeywords {
		if strings.Contains(haystack, c) {
			return strings.ToUpper(c[:1]) + c[1:]
		}
	}
	return defaultColor
}

// extractProductID pulls the numeric product ID out of the URL, falling back
// to a random token. The fallback is acceptable because identity is by URL;
// the numeric ID is a secondary handle only.
func extractProductID(sourceURL string) string {
	if m := htmlIDRe.FindStringSubmatch(sourceURL); m != nil {
		return m[1]
	}
	if m := pathDigits.FindStringSubmatch(sourceURL); m != nil {
		return m[1]
	}
	return uuid.NewString()
}
