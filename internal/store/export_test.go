package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fibersift/fibersift/internal/catalog"
)

func exportFixture() []catalog.Product {
	return []catalog.Product{
		{
			URL: "https://shop.example.com/p1.html", Name: "Crew Tee", Category: "tops",
			Price: fp(19.90), Currency: "EUR", CottonPercentage: 95, IsCottonQualified: true,
		},
		{
			URL: "https://shop.example.com/p2.html", Name: "No Price Tee", Category: "tops",
		},
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, "json", exportFixture()))

	var got []catalog.Product
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Crew Tee", got[0].Name)
}

func TestExportJSONL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, "jsonl", exportFixture()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2, "one object per line")
	for _, line := range lines {
		var p catalog.Product
		require.NoError(t, json.Unmarshal([]byte(line), &p))
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, "csv", exportFixture()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two rows")
	assert.Equal(t, csvHeaders, rows[0])
	assert.Equal(t, "19.90", rows[1][3])
	assert.Equal(t, "", rows[2][3], "missing price stays empty, not zero")
}

func TestExportUnknownFormat(t *testing.T) {
	err := Export(&bytes.Buffer{}, "xml", nil)
	assert.Error(t, err)
}
