// =============================================================================
// Bulk PAYE - Calculator Contract
// =============================================================================
//
// The per-record tax engine is an external collaborator. The pipeline only
// depends on the Calculator interface; this package also ships:
//   - Func:     adapts a plain function (tests, host-provided engines)
//   - FlatRate: a stand-in engine for the CLI and for demos. It is NOT a
//               statement of tax law.
//
// =============================================================================

package calculator

import (
	"context"
	"math"

	"github.com/fiquant/taxpro-bulk/internal/types"
)

// Calculator computes the result for one employee.
type Calculator interface {
	Calculate(ctx context.Context, in types.CalculationInput) (*types.ComputedResult, error)
}

// Func adapts an ordinary function to the Calculator interface.
type Func func(ctx context.Context, in types.CalculationInput) (*types.ComputedResult, error)

// Calculate calls f.
func (f Func) Calculate(ctx context.Context, in types.CalculationInput) (*types.ComputedResult, error) {
	return f(ctx, in)
}

// FlatRate applies one rate to taxable income.
//
//	gross          = basic + allowances + bonus
//	taxable BIK    = (vehicle + housing BIK) * BIKInclusionRate
//	reliefs        = contributions (housing fund only if applicable)
//	                 + rent + mortgage interest
//	taxable income = max(0, gross + taxable BIK - reliefs)
//	tax            = taxable income * TaxRate
//	net pay        = gross - tax - contributions
//
// All outputs are rounded to 2 decimal places.
type FlatRate struct {
	TaxRate          float64
	BIKInclusionRate float64
}

// Calculate implements Calculator.
func (c FlatRate) Calculate(ctx context.Context, in types.CalculationInput) (*types.ComputedResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gross := in.BasicSalary +
		in.HousingAllowance + in.TransportAllowance + in.MealAllowance +
		in.UtilityAllowance + in.LeaveAllowance + in.OtherAllowance +
		in.Bonus

	bik := (in.BIKVehicle + in.BIKHousing) * c.BIKInclusionRate

	contributions := in.Pension + in.LifeInsurance + in.HealthInsurance + in.HealthScheme
	if in.HousingFund.Applicable {
		contributions += in.HousingFund.Value
	}
	reliefs := contributions + in.AnnualRent + in.MortgageInterest

	taxable := math.Max(0, gross+bik-reliefs)
	tax := taxable * c.TaxRate

	return &types.ComputedResult{
		GrossIncome:   round2(gross),
		TaxableBIK:    round2(bik),
		TotalReliefs:  round2(reliefs),
		TaxableIncome: round2(taxable),
		Tax:           round2(tax),
		NetPay:        round2(gross - tax - contributions),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
