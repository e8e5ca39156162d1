// =============================================================================
// Bulk PAYE - Input Checks
// =============================================================================
//
// Reviews imported records and reports cells that will not be read the way
// the employer probably intended. Nothing here rejects a record: the
// normalizer still coerces every amount, these checks only say where it had
// to guess.
//
// CHECKS:
//   - Amount cells with no recoverable number (read as 0)
//   - Negative amounts
//   - Amounts with more than two decimal places
//   - Tax IDs containing anything but letters, digits, '-' and '/'
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/fiquant/taxpro-bulk/internal/normalize"
	"github.com/fiquant/taxpro-bulk/internal/schema"
	"github.com/fiquant/taxpro-bulk/internal/types"
)

// =============================================================================
// WARNING TYPE
// =============================================================================

// Warning is one suspicious cell.
type Warning struct {
	// RecordID is the record's positional ID.
	RecordID int

	// Employee is the record's name, for display.
	Employee string

	// Field is the column header, without the required marker.
	Field string

	// Value is the raw cell text.
	Value string

	// Message describes the problem and how the value will be read.
	Message string
}

// String formats the warning for display.
func (w Warning) String() string {
	return fmt.Sprintf("Record #%d (%s) %s = %q: %s", w.RecordID, w.Employee, w.Field, w.Value, w.Message)
}

// =============================================================================
// CHECKS
// =============================================================================

// CheckRecord returns the warnings for one record, in column order.
func CheckRecord(rec types.EmployeeRecord) []Warning {
	var warnings []Warning
	add := func(col schema.Column, value, msg string) {
		warnings = append(warnings, Warning{
			RecordID: rec.ID,
			Employee: rec.Name,
			Field:    strings.TrimSuffix(col.Header, "*"),
			Value:    value,
			Message:  msg,
		})
	}

	for _, col := range schema.Columns() {
		value := strings.TrimSpace(*col.Field(&rec))
		if value == "" {
			continue
		}
		if !col.Numeric {
			if col.Key == "tax_id" {
				if msg := checkTaxID(value); msg != "" {
					add(col, value, msg)
				}
			}
			continue
		}
		if msg := checkAmount(value); msg != "" {
			add(col, value, msg)
		}
	}
	return warnings
}

// CheckAll runs CheckRecord over a batch.
func CheckAll(records []types.EmployeeRecord) []Warning {
	var warnings []Warning
	for _, rec := range records {
		warnings = append(warnings, CheckRecord(rec)...)
	}
	return warnings
}

func checkAmount(value string) string {
	d, ok := normalize.Decimal(value)
	if !ok {
		return "not a number, read as 0"
	}
	if d.IsNegative() {
		return "negative amount"
	}
	if d.Exponent() < -2 {
		return "more than 2 decimal places"
	}
	return ""
}

func checkTaxID(value string) string {
	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '/' {
			return "contains characters other than letters, digits, '-' and '/'"
		}
	}
	return ""
}

// =============================================================================
// OUTPUT
// =============================================================================

// FormatWarnings formats warnings for display or logging.
//
// RETURNS:
//   - "" when there are no warnings, otherwise one numbered line each.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "%d input warning(s):\n", len(warnings))
	for i, w := range warnings {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, w)
	}
	return builder.String()
}
