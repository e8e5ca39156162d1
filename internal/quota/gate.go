package quota

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Feature is a tier-gated capability.
type Feature string

const (
	FeatureTemplateDownload Feature = "template_download"
	FeatureBulkUpload       Feature = "bulk_upload"
	FeatureBulkCalculate    Feature = "bulk_calculate"
	FeatureCSVExport        Feature = "csv_export"
)

// Features lists every gated feature.
var Features = []Feature{FeatureTemplateDownload, FeatureBulkUpload, FeatureBulkCalculate, FeatureCSVExport}

const gateModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

const actionUse = "use"

// Minimums maps each feature to the lowest tier that unlocks it. Higher tiers
// inherit through the role chain. Features missing from the map are denied
// to every tier.
type Minimums map[Feature]Tier

// DefaultMinimums opens every feature to every tier. Tiers differ only in
// their quota limits.
func DefaultMinimums() Minimums {
	return Minimums{
		FeatureTemplateDownload: Free,
		FeatureBulkUpload:       Free,
		FeatureBulkCalculate:    Free,
		FeatureCSVExport:        Free,
	}
}

// GateInfo describes how a feature looks to a tier.
type GateInfo struct {
	Allowed bool

	// CTATier is the tier to upgrade to. Empty when Allowed.
	CTATier Tier

	// Message is the upgrade prompt. Empty when Allowed.
	Message string
}

// Gate answers feature questions from a casbin policy. It has no rendering
// concerns.
type Gate struct {
	enforcer *casbin.Enforcer
}

func subject(t Tier) string { return "tier:" + string(t) }

// NewGate builds the gate with DefaultMinimums.
func NewGate() (*Gate, error) {
	return NewGateWith(DefaultMinimums())
}

// NewGateWith builds the policy: every tier inherits the tier below it, and
// each feature is granted to its minimum tier.
func NewGateWith(minimums Minimums) (*Gate, error) {
	m, err := model.NewModelFromString(gateModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load gate model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate enforcer: %w", err)
	}

	for i := 1; i < len(Tiers); i++ {
		if _, err := e.AddGroupingPolicy(subject(Tiers[i]), subject(Tiers[i-1])); err != nil {
			return nil, fmt.Errorf("failed to add tier inheritance: %w", err)
		}
	}
	for _, f := range Features {
		tier, ok := minimums[f]
		if !ok {
			continue
		}
		if _, err := e.AddPolicy(subject(tier), string(f), actionUse); err != nil {
			return nil, fmt.Errorf("failed to add policy for %s: %w", f, err)
		}
	}
	return &Gate{enforcer: e}, nil
}

// CanUse reports whether tier may use feature. Unknown tiers and features are
// denied.
func (g *Gate) CanUse(feature Feature, tier Tier) bool {
	ok, err := g.enforcer.Enforce(subject(tier), string(feature), actionUse)
	return err == nil && ok
}

// DescribeGate explains the gate for a tier, naming the cheapest tier that
// unlocks the feature when it is locked.
func (g *Gate) DescribeGate(feature Feature, tier Tier) GateInfo {
	if g.CanUse(feature, tier) {
		return GateInfo{Allowed: true}
	}
	for _, t := range Tiers {
		if g.CanUse(feature, t) {
			return GateInfo{
				CTATier: t,
				Message: fmt.Sprintf("Upgrade to %s to unlock %s.", t.Title(), feature.Label()),
			}
		}
	}
	return GateInfo{Message: fmt.Sprintf("%s is not available.", feature.Label())}
}

// Title is the display name of the tier.
func (t Tier) Title() string {
	switch t {
	case Free:
		return "Free"
	case Starter:
		return "Starter"
	case Pro:
		return "Pro"
	case Premium:
		return "Premium"
	case Enterprise:
		return "Enterprise"
	}
	return string(t)
}

// Label is the display name of the feature.
func (f Feature) Label() string {
	switch f {
	case FeatureTemplateDownload:
		return "template download"
	case FeatureBulkUpload:
		return "bulk upload"
	case FeatureBulkCalculate:
		return "bulk calculation"
	case FeatureCSVExport:
		return "CSV export"
	}
	return string(f)
}
