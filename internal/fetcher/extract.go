package fetcher

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"

	"github.com/fibersift/fibersift/internal/catalog"
)

// Selector fallback chains for common product-page markups. Each chain is
// tried in order; the first selector yielding text wins.
var (
	nameSelectors = []string{
		"h1[data-qa='product-name']",
		"h1.product-detail-info__header-name",
		"h1.product-name",
		".product-detail h1",
		"h1",
	}
	priceSelectors = []string{
		"[data-qa='price']",
		"span.price-current__amount",
		".product-detail-info .price__amount",
		".product-price",
		".price",
	}
	materialsSelectors = []string{
		"[data-qa='composition']",
		".product-detail-composition",
		".composition",
		".product-materials",
		"#materials",
	}
	imageSelectors = []string{
		".product-detail-images img",
		".media-image img",
		".product-detail img",
	}
	sizeSelectors = []string{
		"[data-qa='size-selector'] li",
		".size-selector-sizes li",
		".sizes li",
		"select.size option",
	}
	brandSelectors = []string{
		"[data-qa='brand']",
		".product-brand",
	}

	priceRe = regexp.MustCompile(`(\d+(?:[.,]\d{1,2})?)`)

	currencySymbols = map[string]string{
		"€": "EUR",
		"$": "USD",
		"£": "GBP",
	}
)

// ExtractProduct parses rendered product-page HTML into a RawProduct.
// Extraction is best-effort: any field may come back empty, and the builder
// decides whether the result is usable. A document that cannot be parsed at
// all returns an error.
func ExtractProduct(html, sourceURL string) (*catalog.RawProduct, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &FetchError{URL: sourceURL, Err: err}
	}

	raw := &catalog.RawProduct{
		Name:          firstText(doc, nameSelectors),
		Brand:         firstText(doc, brandSelectors),
		MaterialsText: firstText(doc, materialsSelectors),
	}

	if priceText := firstText(doc, priceSelectors); priceText != "" {
		raw.Price, raw.Currency = parsePrice(priceText)
	}

	doc.Find(strings.Join(imageSelectors, ", ")).Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok && src != "" {
			raw.Images = append(raw.Images, src)
		}
	})
	if len(raw.Images) == 0 {
		if og, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && og != "" {
			raw.Images = append(raw.Images, og)
		}
	}

	doc.Find(strings.Join(sizeSelectors, ", ")).Each(func(_ int, sel *goquery.Selection) {
		if label := strings.TrimSpace(sel.Text()); label != "" {
			raw.Sizes = append(raw.Sizes, label)
		}
	})

	// Composition blocks are the least consistently marked-up part of
	// product pages. When the CSS chains find nothing, fall back to an
	// XPath scan for text nodes carrying percent signs.
	if raw.MaterialsText == "" {
		raw.MaterialsText = materialsByXPath(html)
	}

	return raw, nil
}

// firstText returns the trimmed text of the first selector chain entry that
// matches a non-empty element.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// materialsByXPath collects percent-bearing leaf texts, joined in document
// order so fiber entries keep the order they appear on the page.
func materialsByXPath(html string) string {
	root, err := htmlquery.Parse(strings.NewReader(html))
	if err != nil {
		return ""
	}
	nodes, err := htmlquery.QueryAll(root, "//p[contains(text(), '%')] | //li[contains(text(), '%')] | //span[contains(text(), '%')]")
	if err != nil {
		return ""
	}

	var parts []string
	for _, n := range nodes {
		if text := strings.TrimSpace(htmlquery.InnerText(n)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, ". ")
}

// parsePrice extracts a numeric price and currency code from display text
// like "29,90 €" or "$35.00".
func parsePrice(text string) (*float64, string) {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return nil, ""
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return nil, ""
	}

	currency := ""
	for symbol, code := range currencySymbols {
		if strings.Contains(text, symbol) {
			currency = code
			break
		}
	}
	if currency == "" {
		upper := strings.ToUpper(text)
		for _, code := range []string{"EUR", "USD", "GBP"} {
			if strings.Contains(upper, code) {
				currency = code
				break
			}
		}
	}
	return &value, currency
}
