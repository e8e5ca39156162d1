package quota

import (
	"fmt"
	"strings"
)

// Tier is a subscription level.
type Tier string

const (
	Free       Tier = "free"
	Starter    Tier = "starter"
	Pro        Tier = "pro"
	Premium    Tier = "premium"
	Enterprise Tier = "enterprise"
)

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{Free, Starter, Pro, Premium, Enterprise}

// ParseTier accepts a tier name in any case.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tiers {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// Unlimited disables a ceiling.
const Unlimited = -1

// ProStaffLimit is the default per-submission staff ceiling for the pro tier.
//
// TODO: confirm the pro staff limit with product; pricing copy says 50 in
// places. Override with quota.pro_staff_limit until then.
const ProStaffLimit = 25

// Limits are the ceilings of one tier.
type Limits struct {
	// StaffLimit is the most records one submission may carry.
	StaffLimit int

	// MonthlyLimit is the number of submissions allowed per calendar month.
	MonthlyLimit int
}

// LimitTable maps every tier to its ceilings.
type LimitTable map[Tier]Limits

// DefaultLimits returns the standard tier table. proStaffLimit <= 0 uses
// ProStaffLimit.
func DefaultLimits(proStaffLimit int) LimitTable {
	if proStaffLimit <= 0 {
		proStaffLimit = ProStaffLimit
	}
	return LimitTable{
		Free:       {StaffLimit: 10, MonthlyLimit: 3},
		Starter:    {StaffLimit: 10, MonthlyLimit: Unlimited},
		Pro:        {StaffLimit: proStaffLimit, MonthlyLimit: Unlimited},
		Premium:    {StaffLimit: Unlimited, MonthlyLimit: Unlimited},
		Enterprise: {StaffLimit: Unlimited, MonthlyLimit: Unlimited},
	}
}
