package catalog

import (
	"errors"
	"testing"
)

func TestBuildProductEndToEnd(t *testing.T) {
	price := 29.90
	raw := &RawProduct{
		Name:          "Cotton Crew Tee",
		Price:         &price,
		Currency:      "EUR",
		MaterialsText: "Shell: 95% Cotton, 5% Elastane.",
		Images:        []string{"https://cdn.example.com/p/123456_1.jpg"},
		Sizes:         []string{"S", "M", "L"},
	}

	p, err := BuildProduct(raw, "https://shop.example.com/woman/product/p123456.html")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if p.Category != CategoryTops {
		t.Errorf("category = %q, want tops (from \"tee\" in name)", p.Category)
	}
	if p.Gender != GenderFemale {
		t.Errorf("gender = %q, want female (from /woman in URL)", p.Gender)
	}
	if p.CottonPercentage != 95 {
		t.Errorf("cotton percentage = %d, want 95", p.CottonPercentage)
	}
	if !p.IsCottonQualified {
		t.Error("expected cotton qualified")
	}
	if p.Color != "Various" {
		t.Errorf("color = %q, want Various (no color keyword present)", p.Color)
	}
	if p.ProductID != "123456" {
		t.Errorf("product id = %q, want 123456", p.ProductID)
	}
	if p.Image != raw.Images[0] {
		t.Errorf("primary image = %q, want %q", p.Image, raw.Images[0])
	}
	if !p.CreatedAt.IsZero() || !p.UpdatedAt.IsZero() {
		t.Error("builder must leave timestamps for the repository")
	}
}

func TestBuildProductRejectsMissingName(t *testing.T) {
	cases := []*RawProduct{
		nil,
		{Name: ""},
		{Name: "   "},
		{Name: "Unknown Product"},
	}

	for _, raw := range cases {
		_, err := BuildProduct(raw, "https://shop.example.com/p1.html")
		if err == nil {
			t.Errorf("BuildProduct(%+v) succeeded, want extraction error", raw)
			continue
		}
		var exErr *ExtractionError
		if !errors.As(err, &exErr) {
			t.Errorf("error %v is not an ExtractionError", err)
		}
	}
}

func TestBuildProductGender(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://shop.example.com/woman/tops/p1.html", GenderFemale},
		{"https://shop.example.com/women/tops/p1.html", GenderFemale},
		{"https://shop.example.com/man/tops/p1.html", GenderMale},
		{"https://shop.example.com/men/tops/p1.html", GenderMale},
		{"https://shop.example.com/kids/tops/p1.html", GenderUnknown},
	}

	for _, tt := range tests {
		p, err := BuildProduct(&RawProduct{Name: "Basic Tee"}, tt.url)
		if err != nil {
			t.Fatalf("build %s: %v", tt.url, err)
		}
		if p.Gender != tt.want {
			t.Errorf("gender for %s = %q, want %q", tt.url, p.Gender, tt.want)
		}
	}
}

func TestBuildProductCategoryFallsBackToURL(t *testing.T) {
	// The name carries no garment signal; the URL path does.
	p, err := BuildProduct(&RawProduct{Name: "Summer Essential"},
		"https://shop.example.com/woman/skirts/p777.html")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.Category != CategorySkirts {
		t.Errorf("category = %q, want skirts from URL path", p.Category)
	}
}

func TestBuildProductColorKeyword(t *testing.T) {
	p, err := BuildProduct(&RawProduct{Name: "Navy Chino Pants"},
		"https://shop.example.com/man/p42.html")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.Color != "Navy" {
		t.Errorf("color = %q, want Navy", p.Color)
	}
}

func TestBuildProductIDFallback(t *testing.T) {
	p, err := BuildProduct(&RawProduct{Name: "Basic Tee"},
		"https://shop.example.com/woman/basics")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.ProductID == "" {
		t.Error("expected a random token when URL has no numeric ID")
	}
}

func TestBuildProductZeroCottonAmbiguity(t *testing.T) {
	// No materials text at all: zero percentage, not qualified, no error.
	p, err := BuildProduct(&RawProduct{Name: "Linen Blend Shirt"},
		"https://shop.example.com/man/p9.html")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.CottonPercentage != 0 {
		t.Errorf("cotton = %d, want ambiguous 0", p.CottonPercentage)
	}
	if p.IsCottonQualified {
		t.Error("no composition must not qualify")
	}
}
