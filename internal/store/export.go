package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fibersift/fibersift/internal/catalog"
)

// Export writes products to w in the given format: "json" (indented
// array), "jsonl" (one object per line) or "csv".
func Export(w io.Writer, format string, products []catalog.Product) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(products); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
		return nil

	case "jsonl":
		enc := json.NewEncoder(w)
		for _, p := range products {
			if err := enc.Encode(p); err != nil {
				return fmt.Errorf("encode JSONL: %w", err)
			}
		}
		return nil

	case "csv":
		return exportCSV(w, products)

	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

var csvHeaders = []string{
	"url", "name", "brand", "price", "currency", "category", "gender",
	"cotton_percentage", "is_cotton_qualified", "is_curated", "color", "composition",
}

func exportCSV(w io.Writer, products []catalog.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeaders); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, p := range products {
		price := ""
		if p.Price != nil {
			price = strconv.FormatFloat(*p.Price, 'f', 2, 64)
		}
		row := []string{
			p.URL, p.Name, p.Brand, price, p.Currency, p.Category, p.Gender,
			strconv.Itoa(p.CottonPercentage),
			strconv.FormatBool(p.IsCottonQualified),
			strconv.FormatBool(p.IsCurated),
			p.Color, p.CompositionRaw,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
