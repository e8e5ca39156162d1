// =============================================================================
// Bulk PAYE - Aggregation and CSV Export
// =============================================================================
//
// Aggregate folds computed records into batch totals. ExportCSV/WriteCSV
// serialize computed records into the fixed 25-column export layout
// (19 input columns followed by 6 computed columns).
//
// Neither function modifies the records it is given, and only records with
// Calculated=true are included.
//
// =============================================================================

package report

import (
	"bytes"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/fiquant/taxpro-bulk/internal/types"
)

// Totals are the batch-level sums shown after Calculate All.
type Totals struct {
	GrossTotal float64
	TaxTotal   float64
	NetTotal   float64
	Count      int
}

// Aggregate sums the already-rounded calculator outputs. No further rounding
// is applied.
func Aggregate(records []types.EmployeeRecord) Totals {
	var t Totals
	for _, r := range records {
		if !r.Calculated || r.Result == nil {
			continue
		}
		t.GrossTotal += r.Result.GrossIncome
		t.TaxTotal += r.Result.Tax
		t.NetTotal += r.Result.NetPay
		t.Count++
	}
	return t
}

// exportRow is one line of the export file. The tag order must match
// schema.ExportHeaders.
type exportRow struct {
	Name               string `csv:"Employee Name"`
	TaxID              string `csv:"Tax ID"`
	BasicSalary        string `csv:"Basic Salary"`
	HousingAllowance   string `csv:"Housing Allowance"`
	TransportAllowance string `csv:"Transport Allowance"`
	MealAllowance      string `csv:"Meal Allowance"`
	UtilityAllowance   string `csv:"Utility Allowance"`
	LeaveAllowance     string `csv:"Leave Allowance"`
	OtherAllowance     string `csv:"Other Allowance"`
	BIKVehicle         string `csv:"BIK - Vehicle"`
	BIKHousing         string `csv:"BIK - Housing"`
	Bonus              string `csv:"Bonus"`
	Pension            string `csv:"Pension Contribution"`
	HousingFund        string `csv:"NHF Contribution"`
	LifeInsurance      string `csv:"Life Insurance"`
	HealthInsurance    string `csv:"Health Insurance"`
	HealthScheme       string `csv:"NHIS Contribution"`
	AnnualRent         string `csv:"Annual Rent"`
	MortgageInterest   string `csv:"Mortgage Interest"`

	GrossIncome   float64 `csv:"Gross Income"`
	TaxableBIK    float64 `csv:"Taxable BIK"`
	TotalReliefs  float64 `csv:"Total Reliefs"`
	TaxableIncome float64 `csv:"Taxable Income"`
	Tax           float64 `csv:"PAYE Tax"`
	NetPay        float64 `csv:"Net Pay"`
}

func toRows(records []types.EmployeeRecord) []exportRow {
	rows := make([]exportRow, 0, len(records))
	for _, r := range records {
		if !r.Calculated || r.Result == nil {
			continue
		}
		rows = append(rows, exportRow{
			Name:               r.Name,
			TaxID:              r.TaxID,
			BasicSalary:        r.BasicSalary,
			HousingAllowance:   r.HousingAllowance,
			TransportAllowance: r.TransportAllowance,
			MealAllowance:      r.MealAllowance,
			UtilityAllowance:   r.UtilityAllowance,
			LeaveAllowance:     r.LeaveAllowance,
			OtherAllowance:     r.OtherAllowance,
			BIKVehicle:         r.BIKVehicle,
			BIKHousing:         r.BIKHousing,
			Bonus:              r.Bonus,
			Pension:            r.Pension,
			HousingFund:        r.HousingFund,
			LifeInsurance:      r.LifeInsurance,
			HealthInsurance:    r.HealthInsurance,
			HealthScheme:       r.HealthScheme,
			AnnualRent:         r.AnnualRent,
			MortgageInterest:   r.MortgageInterest,
			GrossIncome:        r.Result.GrossIncome,
			TaxableBIK:         r.Result.TaxableBIK,
			TotalReliefs:       r.Result.TotalReliefs,
			TaxableIncome:      r.Result.TaxableIncome,
			Tax:                r.Result.Tax,
			NetPay:             r.Result.NetPay,
		})
	}
	return rows
}

// WriteCSV writes the export to w.
//
// RETURNS:
//   - ErrNothingToExport (validation) when no record is calculated.
//   - A serialization error if encoding fails. Callers that write to a file
//     should write to a buffer or temp file first so nothing partial is kept.
func WriteCSV(w io.Writer, records []types.EmployeeRecord) error {
	rows := toRows(records)
	if len(rows) == 0 {
		return types.NewError(types.KindValidation, types.ErrNothingToExport,
			"There are no calculated employees to export.", "run Calculate All first")
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return types.NewError(types.KindSerialization, err, "Failed to generate the CSV export.", "")
	}
	return nil
}

// ExportCSV returns the export as a string.
func ExportCSV(records []types.EmployeeRecord) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return "", err
	}
	return buf.String(), nil
}
