package catalog

import (
	"reflect"
	"testing"
)

func TestParseCompositionBasic(t *testing.T) {
	comp := ParseComposition("95% Cotton, 5% Elastane")

	want := map[string]int{"cotton": 95, "elastane": 5}
	if !reflect.DeepEqual(comp.Fibers, want) {
		t.Errorf("fibers = %v, want %v", comp.Fibers, want)
	}
	if !comp.CottonQualified {
		t.Error("expected cotton qualified at 95%")
	}
}

func TestParseCompositionThresholdBoundary(t *testing.T) {
	tests := []struct {
		raw       string
		qualified bool
	}{
		{"89% Cotton, 11% Elastane", false},
		{"90% Cotton, 10% Elastane", true},
		{"100% Cotton", true},
		{"50% Cotton, 50% Polyester", false},
		{"95% Polyester, 5% Elastane", false},
	}

	for _, tt := range tests {
		comp := ParseComposition(tt.raw)
		if comp.CottonQualified != tt.qualified {
			t.Errorf("ParseComposition(%q).CottonQualified = %v, want %v",
				tt.raw, comp.CottonQualified, tt.qualified)
		}
	}
}

func TestParseCompositionEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "pure softness, no numbers here"} {
		comp := ParseComposition(raw)
		if len(comp.Fibers) != 0 {
			t.Errorf("ParseComposition(%q) fibers = %v, want empty", raw, comp.Fibers)
		}
		if comp.CottonQualified {
			t.Errorf("ParseComposition(%q) qualified, want false", raw)
		}
	}
}

func TestParseCompositionLastMatchWins(t *testing.T) {
	// Shell listed first, lining last: the lining reading overwrites.
	comp := ParseComposition("Shell: 95% cotton. Lining: 40% cotton, 60% viscose.")
	if got := comp.Fibers["cotton"]; got != 40 {
		t.Errorf("cotton = %d, want 40 (last match wins)", got)
	}
}

func TestParseCompositionMultiWordFiber(t *testing.T) {
	comp := ParseComposition("92% Organic Cotton, 8% Recycled Polyester")
	if got := comp.Fibers["organic cotton"]; got != 92 {
		t.Errorf("organic cotton = %d, want 92", got)
	}
	if !comp.CottonQualified {
		t.Error("cotton-labeled fiber at 92% should qualify")
	}
}

func TestParseCompositionOutOfRangePassesThrough(t *testing.T) {
	// Malformed percentages are not clamped; downstream tolerates them.
	comp := ParseComposition("150% cotton")
	if got := comp.Fibers["cotton"]; got != 150 {
		t.Errorf("cotton = %d, want 150 uncorrected", got)
	}
	if !comp.CottonQualified {
		t.Error("150% still crosses the threshold")
	}
}

func TestParseCompositionDeterministic(t *testing.T) {
	raw := "Shell: 60% cotton, 40% linen. Lining: 100% cotton."
	a := ParseComposition(raw)
	b := ParseComposition(raw)

	if !reflect.DeepEqual(a.Fibers, b.Fibers) || a.CottonQualified != b.CottonQualified {
		t.Errorf("parse not deterministic: %v vs %v", a, b)
	}
}

func TestPrimaryCottonPercent(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"95% Cotton, 5% Elastane", 95},
		{"5% Elastane, 95% Cotton", 95},
		{"100% polyester", 0},
		{"", 0},
		{"Shell: 95% cotton. Lining: 40% cotton.", 95},
	}

	for _, tt := range tests {
		if got := PrimaryCottonPercent(tt.raw); got != tt.want {
			t.Errorf("PrimaryCottonPercent(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestPrimaryDivergesFromMap(t *testing.T) {
	// First-match-wins for the primary reading, last-match-wins for the map.
	// Both behaviors are load-bearing for previously stored records.
	raw := "Shell: 95% cotton. Lining: 40% cotton."

	if got := PrimaryCottonPercent(raw); got != 95 {
		t.Errorf("primary = %d, want 95", got)
	}
	if got := ParseComposition(raw).Fibers["cotton"]; got != 40 {
		t.Errorf("map cotton = %d, want 40", got)
	}
}
