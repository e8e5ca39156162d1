package normalize

import (
	"testing"

	"github.com/fiquant/taxpro-bulk/internal/types"
)

func TestAmount(t *testing.T) {
	cases := map[string]float64{
		"":            0,
		"   ":         0,
		"n/a":         0,
		"250000":      250000,
		"250,000":     250000,
		"NGN 250,000": 250000,
		"₦ 1,200.50":  1200.5,
		"-5,000":      -5000,
		"(5,000)":     -5000,
		"1.2.3":       0,
		" 42 ":        42,
		"1.5E+06":     1500000,
		"2.5e5":       250000,
		"(1.5E+06)":   -1500000,
		"1.200,50":    1200.5,
		"1,200.50":    1200.5,
		"1e400":       0,
	}
	for in, want := range cases {
		if got := Amount(in); got != want {
			t.Fatalf("Amount(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestHousingFundBlankVersusZero(t *testing.T) {
	blank := HousingFund("")
	if blank.Applicable || blank.Value != 0 {
		t.Fatalf("expected blank to be not applicable with 0, got %+v", blank)
	}
	zero := HousingFund("0")
	if !zero.Applicable || zero.Value != 0 {
		t.Fatalf("expected literal 0 to be applicable with 0, got %+v", zero)
	}
	if blank == zero {
		t.Fatal("expected blank and zero housing fund to be distinguishable")
	}
}

func TestNormalizeCoercesBlanks(t *testing.T) {
	in := Normalize(types.EmployeeRecord{Name: " Tunde ", BasicSalary: "500,000"})
	if in.Name != "Tunde" {
		t.Fatalf("expected trimmed name, got %q", in.Name)
	}
	if in.BasicSalary != 500000 {
		t.Fatalf("expected basic salary 500000, got %v", in.BasicSalary)
	}
	if in.HousingAllowance != 0 || in.Bonus != 0 || in.MortgageInterest != 0 {
		t.Fatalf("expected blank fields to be 0, got %+v", in)
	}
	if in.HousingFund.Applicable {
		t.Fatal("expected blank housing fund to be not applicable")
	}
}
