package catalog

import "time"

// Gender classification derived from the product URL.
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderUnknown = "unknown"
)

// Product is a normalized, storage-ready catalog record. Identity is the
// canonical source URL: repeated ingestion of the same URL updates the
// stored record in place, never duplicates it.
type Product struct {
	// URL is the canonical source URL and the primary dedup key.
	URL string `bson:"url" json:"url"`

	// ProductID is the numeric ID extracted from the URL, or a random token
	// when the URL carries none. Secondary identifier only.
	ProductID string `bson:"product_id" json:"id"`

	Name     string   `bson:"name" json:"name"`
	Brand    string   `bson:"brand,omitempty" json:"brand,omitempty"`
	Price    *float64 `bson:"price,omitempty" json:"price,omitempty"`
	Currency string   `bson:"currency,omitempty" json:"currency,omitempty"`

	// Image is the primary image; Images holds every discovered image URL.
	Image  string   `bson:"image,omitempty" json:"image,omitempty"`
	Images []string `bson:"images,omitempty" json:"images,omitempty"`

	SizesAvailable []string `bson:"sizes_available,omitempty" json:"sizesAvailable,omitempty"`
	Color          string   `bson:"color" json:"color"`
	Category       string   `bson:"category" json:"category"`
	Gender         string   `bson:"gender" json:"gender"`

	// CompositionRaw is the fabric text as scraped; CompositionParsed is the
	// fiber map derived from it.
	CompositionRaw    string         `bson:"composition_raw,omitempty" json:"materials,omitempty"`
	CompositionParsed map[string]int `bson:"composition_parsed,omitempty" json:"compositionParsed,omitempty"`

	// CottonPercentage is the first-match cotton reading. Zero is ambiguous:
	// no cotton, or extraction failure.
	CottonPercentage  int  `bson:"cotton_percentage" json:"cottonPercentage"`
	IsCottonQualified bool `bson:"is_cotton_qualified" json:"isCottonQualified"`

	// IsCurated marks hand-selected seed URLs ingested outside the general
	// category crawl.
	IsCurated bool `bson:"is_curated" json:"isCurated"`

	// CreatedAt is set once on first insert; UpdatedAt on every upsert.
	// Both are owned by the repository, not the builder.
	CreatedAt time.Time `bson:"created_at,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
}

// RawProduct is the best-effort extraction output for a single product page.
// Every field except Name may be absent; the fetch collaborator surfaces
// whatever it managed to pull out of the page.
type RawProduct struct {
	Name          string
	Brand         string
	Price         *float64
	Currency      string
	MaterialsText string
	Images        []string
	Sizes         []string
}
