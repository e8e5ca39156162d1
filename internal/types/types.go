// =============================================================================
// Bulk PAYE - Shared Types
// =============================================================================
//
// This package contains the types shared by every stage of the bulk pipeline
// so that the parser, normalizer, orchestrator, exporter and session can talk
// to each other without import cycles. Types defined here are used by:
//   - spreadsheet (produces EmployeeRecord values)
//   - normalize   (EmployeeRecord -> CalculationInput)
//   - calculator  (CalculationInput -> ComputedResult)
//   - batch       (attaches ComputedResult to records)
//   - report      (folds and exports computed records)
//   - session     (owns the record list)
//
// =============================================================================

package types

import "strings"

// =============================================================================
// EMPLOYEE RECORD
// =============================================================================

// EmployeeRecord is one row of the bulk calculator, either typed in manually
// or produced by the spreadsheet parser.
//
// All input fields hold the raw text the operator entered. Converting them to
// numbers is the normalizer's job, because a blank cell and a literal "0" are
// not always the same thing (see the housing fund field).
type EmployeeRecord struct {
	// ID is the positional identifier (1-indexed) within the batch.
	ID int

	// Name is the employee's name. Required.
	Name string

	// TaxID is the employee's tax identification number. Optional.
	TaxID string

	// BasicSalary is the monthly basic salary. Required.
	BasicSalary string

	// Allowances.
	HousingAllowance   string
	TransportAllowance string
	MealAllowance      string
	UtilityAllowance   string
	LeaveAllowance     string
	OtherAllowance     string

	// Benefits in kind. The calculator applies a fixed inclusion percentage.
	BIKVehicle string
	BIKHousing string
	Bonus      string

	// Contributions.
	Pension         string
	HousingFund     string
	LifeInsurance   string
	HealthInsurance string
	HealthScheme    string

	// Reliefs.
	AnnualRent       string
	MortgageInterest string

	// Calculated is true once the calculator has produced Result for the
	// current field values.
	Calculated bool

	// Result is the calculator output, nil until Calculated is true.
	Result *ComputedResult
}

// Eligible reports whether the record can be sent to the calculator: both the
// name and the basic salary must be non-empty after trimming.
func (r EmployeeRecord) Eligible() bool {
	return strings.TrimSpace(r.Name) != "" && strings.TrimSpace(r.BasicSalary) != ""
}

// ClearResult drops any computed state. Called whenever an input field changes.
func (r *EmployeeRecord) ClearResult() {
	r.Calculated = false
	r.Result = nil
}

// =============================================================================
// CALCULATOR CONTRACT
// =============================================================================

// HousingFund carries the housing-fund contribution together with whether the
// operator filled the field in at all. Applicable=false means "not
// applicable"; Applicable=true with Value=0 means "applicable, contributes 0".
type HousingFund struct {
	Applicable bool
	Value      float64
}

// CalculationInput is the numeric contract handed to the external calculator.
type CalculationInput struct {
	Name  string
	TaxID string

	BasicSalary float64

	HousingAllowance   float64
	TransportAllowance float64
	MealAllowance      float64
	UtilityAllowance   float64
	LeaveAllowance     float64
	OtherAllowance     float64

	BIKVehicle float64
	BIKHousing float64
	Bonus      float64

	Pension         float64
	HousingFund     HousingFund
	LifeInsurance   float64
	HealthInsurance float64
	HealthScheme    float64

	AnnualRent       float64
	MortgageInterest float64
}

// ComputedResult is the calculator output for one employee. Values are carried
// forward exactly as the calculator rounded them.
type ComputedResult struct {
	GrossIncome   float64
	TaxableBIK    float64
	TotalReliefs  float64
	TaxableIncome float64
	Tax           float64
	NetPay        float64
}

// =============================================================================
// COMPANY CONTEXT
// =============================================================================

// CompanyContext is per-batch metadata used only when exporting. It is never
// validated against the records.
type CompanyContext struct {
	Name      string
	TaxID     string
	Authority string
	Month     string
	Year      int
}
