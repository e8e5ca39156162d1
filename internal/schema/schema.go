// =============================================================================
// Bulk PAYE - Import Schema
// =============================================================================
//
// This package is the single source of truth for the spreadsheet layout that
// the template generator writes and the parser reads back:
//   - the 19 import columns, in their fixed order
//   - the 25-column export header
//   - the literal markers used to find the header row, the sample rows and
//     the watermark block
//   - the schema version tag written into generated templates
//
// The parser maps cells positionally, so changing the column order here is a
// breaking change and must come with a new Version.
//
// =============================================================================

package schema

import (
	"strings"

	"github.com/fiquant/taxpro-bulk/internal/types"
)

// =============================================================================
// MARKERS
// =============================================================================

const (
	// Version identifies the column layout. Bump it whenever Columns changes.
	Version = "paye-bulk/v1"

	// VersionTagPrefix starts the cell that carries the version in a
	// generated template.
	VersionTagPrefix = "Schema:"

	// HeaderMarker is the literal first cell of the header row.
	HeaderMarker = "Employee Name*"

	// SampleMarker opens the sample data section above the header.
	SampleMarker = "SAMPLE DATA"

	// WatermarkCompany is the company literal that opens watermark rows.
	WatermarkCompany = "Fiquant TaxPro"

	// WatermarkGlyph is the copyright glyph that opens watermark rows.
	WatermarkGlyph = "©"
)

// SampleNames are the sentinel employee names used by the template's sample
// rows. Rows whose first cell equals one of them are never imported.
var SampleNames = []string{
	"John Doe",
	"Jane Smith",
	"Adaeze Okafor",
}

// =============================================================================
// COLUMNS
// =============================================================================

// Column describes one import column.
type Column struct {
	// Key is the stable machine name (also used by Session.UpdateField).
	Key string

	// Header is the text written in the template header row.
	Header string

	// Required columns must be non-empty for a row to be imported.
	Required bool

	// Numeric columns are normalized to numbers before calculation.
	Numeric bool

	// Field returns a pointer to the record field backing this column.
	Field func(r *types.EmployeeRecord) *string
}

var columns = []Column{
	{Key: "name", Header: HeaderMarker, Required: true, Field: func(r *types.EmployeeRecord) *string { return &r.Name }},
	{Key: "tax_id", Header: "Tax ID", Field: func(r *types.EmployeeRecord) *string { return &r.TaxID }},
	{Key: "basic_salary", Header: "Basic Salary*", Required: true, Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.BasicSalary }},
	{Key: "housing_allowance", Header: "Housing Allowance", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.HousingAllowance }},
	{Key: "transport_allowance", Header: "Transport Allowance", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.TransportAllowance }},
	{Key: "meal_allowance", Header: "Meal Allowance", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.MealAllowance }},
	{Key: "utility_allowance", Header: "Utility Allowance", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.UtilityAllowance }},
	{Key: "leave_allowance", Header: "Leave Allowance", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.LeaveAllowance }},
	{Key: "other_allowance", Header: "Other Allowance", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.OtherAllowance }},
	{Key: "bik_vehicle", Header: "BIK - Vehicle", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.BIKVehicle }},
	{Key: "bik_housing", Header: "BIK - Housing", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.BIKHousing }},
	{Key: "bonus", Header: "Bonus", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.Bonus }},
	{Key: "pension", Header: "Pension Contribution", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.Pension }},
	{Key: "housing_fund", Header: "NHF Contribution", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.HousingFund }},
	{Key: "life_insurance", Header: "Life Insurance", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.LifeInsurance }},
	{Key: "health_insurance", Header: "Health Insurance", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.HealthInsurance }},
	{Key: "health_scheme", Header: "NHIS Contribution", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.HealthScheme }},
	{Key: "annual_rent", Header: "Annual Rent", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.AnnualRent }},
	{Key: "mortgage_interest", Header: "Mortgage Interest", Numeric: true, Field: func(r *types.EmployeeRecord) *string { return &r.MortgageInterest }},
}

// ComputedHeaders are the six calculator-derived columns appended on export.
var ComputedHeaders = []string{
	"Gross Income",
	"Taxable BIK",
	"Total Reliefs",
	"Taxable Income",
	"PAYE Tax",
	"Net Pay",
}

// Columns returns the import columns in template order.
func Columns() []Column {
	out := make([]Column, len(columns))
	copy(out, columns)
	return out
}

// ColumnCount is the number of import columns.
func ColumnCount() int {
	return len(columns)
}

// ColumnByKey looks a column up by its Key.
func ColumnByKey(key string) (Column, bool) {
	for _, c := range columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// Headers returns the template header row.
func Headers() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Header
	}
	return out
}

// ExportHeaders returns the 25-column export header: the import headers
// without the required-field asterisks, followed by ComputedHeaders.
func ExportHeaders() []string {
	out := make([]string, 0, len(columns)+len(ComputedHeaders))
	for _, c := range columns {
		out = append(out, strings.TrimSuffix(c.Header, "*"))
	}
	return append(out, ComputedHeaders...)
}

// =============================================================================
// ROW CLASSIFICATION
// =============================================================================

// IsSampleName reports whether a first cell is one of the sample sentinels.
//
// NOTE: a real employee who shares a sample name is excluded as well. Tagging
// sample rows with a hidden column would avoid that, but templates already in
// circulation do not carry such a column.
func IsSampleName(cell string) bool {
	cell = strings.TrimSpace(cell)
	for _, name := range SampleNames {
		if cell == name {
			return true
		}
	}
	return false
}

// IsWatermark reports whether a first cell belongs to the watermark block.
func IsWatermark(cell string) bool {
	return strings.Contains(cell, WatermarkGlyph) || strings.Contains(cell, WatermarkCompany)
}

// VersionTag is the cell text written into generated templates.
func VersionTag() string {
	return VersionTagPrefix + " " + Version
}

// ParseVersionTag extracts the version from a cell written by VersionTag.
func ParseVersionTag(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)
	if !strings.HasPrefix(cell, VersionTagPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(cell, VersionTagPrefix)), true
}
