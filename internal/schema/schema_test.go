package schema

import (
	"testing"

	"github.com/fiquant/taxpro-bulk/internal/types"
)

func TestColumnsLayout(t *testing.T) {
	if ColumnCount() != 19 {
		t.Fatalf("expected 19 import columns, got %d", ColumnCount())
	}
	headers := Headers()
	if headers[0] != HeaderMarker {
		t.Fatalf("expected first header %q, got %q", HeaderMarker, headers[0])
	}
	if headers[2] != "Basic Salary*" {
		t.Fatalf("expected basic salary in third column, got %q", headers[2])
	}
	if len(ExportHeaders()) != 25 {
		t.Fatalf("expected 25 export headers, got %d", len(ExportHeaders()))
	}
}

func TestColumnFieldsAreDistinct(t *testing.T) {
	var rec types.EmployeeRecord
	seen := make(map[*string]string)
	for _, c := range Columns() {
		p := c.Field(&rec)
		if other, ok := seen[p]; ok {
			t.Fatalf("columns %s and %s share a field", other, c.Key)
		}
		seen[p] = c.Key
	}
}

func TestRowClassification(t *testing.T) {
	if !IsSampleName("  John Doe ") {
		t.Fatal("expected sample name to match after trim")
	}
	if IsSampleName("John Doey") {
		t.Fatal("expected near-miss name not to match")
	}
	if !IsWatermark("© 2026 Fiquant TaxPro") || !IsWatermark("Fiquant TaxPro - generated template") {
		t.Fatal("expected watermark rows to match")
	}
	if IsWatermark("Tunde Bakare") {
		t.Fatal("expected employee name not to be a watermark")
	}
}

func TestVersionTagRoundTrip(t *testing.T) {
	v, ok := ParseVersionTag(VersionTag())
	if !ok || v != Version {
		t.Fatalf("expected %q, got %q (ok=%v)", Version, v, ok)
	}
	if _, ok := ParseVersionTag("Generated on 2026-10-15"); ok {
		t.Fatal("expected plain cell not to parse as a version tag")
	}
}
