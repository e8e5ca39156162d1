// =============================================================================
// Bulk PAYE - Record Normalizer
// =============================================================================
//
// Turns the raw strings of an EmployeeRecord into the numeric
// CalculationInput the calculator expects. Operators type amounts the way
// they see them on a payslip, so the parser is tolerant:
//   "250,000"      -> 250000
//   "NGN 250,000"  -> 250000
//   "₦ 1,200.50"   -> 1200.5
//   "-5,000"       -> -5000
//   "(5,000)"      -> -5000
//   "1.5E+06"      -> 1500000
//   "1.200,50"     -> 1200.5
//   "" / "n/a"     -> 0
//
// =============================================================================

package normalize

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fiquant/taxpro-bulk/internal/types"
)

// Normalize converts a record into calculator input. It never fails: blank
// and unparseable amounts become 0.
func Normalize(rec types.EmployeeRecord) types.CalculationInput {
	return types.CalculationInput{
		Name:  strings.TrimSpace(rec.Name),
		TaxID: strings.TrimSpace(rec.TaxID),

		BasicSalary: Amount(rec.BasicSalary),

		HousingAllowance:   Amount(rec.HousingAllowance),
		TransportAllowance: Amount(rec.TransportAllowance),
		MealAllowance:      Amount(rec.MealAllowance),
		UtilityAllowance:   Amount(rec.UtilityAllowance),
		LeaveAllowance:     Amount(rec.LeaveAllowance),
		OtherAllowance:     Amount(rec.OtherAllowance),

		BIKVehicle: Amount(rec.BIKVehicle),
		BIKHousing: Amount(rec.BIKHousing),
		Bonus:      Amount(rec.Bonus),

		Pension:         Amount(rec.Pension),
		HousingFund:     HousingFund(rec.HousingFund),
		LifeInsurance:   Amount(rec.LifeInsurance),
		HealthInsurance: Amount(rec.HealthInsurance),
		HealthScheme:    Amount(rec.HealthScheme),

		AnnualRent:       Amount(rec.AnnualRent),
		MortgageInterest: Amount(rec.MortgageInterest),
	}
}

// HousingFund keeps "left blank" (not applicable) apart from an explicit
// zero contribution.
func HousingFund(raw string) types.HousingFund {
	return types.HousingFund{
		Applicable: strings.TrimSpace(raw) != "",
		Value:      Amount(raw),
	}
}

// Amount parses a user-formatted money string, returning 0 when nothing
// numeric can be recovered.
func Amount(raw string) float64 {
	d, ok := Decimal(raw)
	if !ok {
		return 0
	}
	return d.InexactFloat64()
}

// Decimal is the exact form of Amount. ok is false for blank or unparseable
// input.
func Decimal(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Plain numbers, including exponent form ("1.5E+06") that spreadsheet
	// apps write when saving narrow columns to CSV.
	d, err := decimal.NewFromString(s)
	if err != nil {
		clean, cleanNeg := stripFormatting(s)
		if clean == "" || clean == "." {
			return decimal.Zero, false
		}
		if d, err = decimal.NewFromString(clean); err != nil {
			return decimal.Zero, false
		}
		if cleanNeg {
			d = d.Neg()
		}
	}
	if math.IsInf(d.InexactFloat64(), 0) {
		return decimal.Zero, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

// stripFormatting drops currency symbols, words and thousands separators,
// keeping digits and a single decimal point. A comma after the last '.'
// ("1.200,50") is read as the decimal separator. The first '-' ahead of any
// digit is reported as neg.
func stripFormatting(s string) (clean string, neg bool) {
	if dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ","); dot >= 0 && comma > dot {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			neg = !neg
		}
	}
	return b.String(), neg
}
