package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fiquant/taxpro-bulk/internal/logging"
	"github.com/fiquant/taxpro-bulk/internal/types"
)

// Outcome is the verdict of a quota check.
type Outcome int

const (
	Allowed Outcome = iota
	StaffLimitExceeded
	MonthlyLimitExceeded
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case StaffLimitExceeded:
		return "staff_limit_exceeded"
	case MonthlyLimitExceeded:
		return "monthly_limit_exceeded"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Decision is the result of Guard.Evaluate.
type Decision struct {
	Outcome Outcome

	// Limit is the ceiling that was hit (staff or monthly).
	Limit int

	// Used is the number of submissions already made this month.
	Used int

	// ResetDate is when the monthly counter next resets.
	ResetDate time.Time
}

// Allowed reports whether the submission may proceed.
func (d Decision) Allowed() bool { return d.Outcome == Allowed }

// Err converts a refusal into a quota-exceeded error. It returns nil for an
// allowed decision.
func (d Decision) Err() error {
	switch d.Outcome {
	case StaffLimitExceeded:
		return types.NewError(types.KindQuotaExceeded, types.ErrStaffLimitExceeded,
			fmt.Sprintf("Your plan allows up to %d employees per submission.", d.Limit),
			"remove some employees or upgrade your plan")
	case MonthlyLimitExceeded:
		return types.NewError(types.KindQuotaExceeded, types.ErrMonthlyLimitExceeded,
			fmt.Sprintf("You have used all %d bulk submissions for this month.", d.Limit),
			"the limit resets on "+d.ResetDate.Format("2 January 2006")+", or upgrade your plan")
	default:
		return nil
	}
}

// Guard enforces the per-tier ceilings.
type Guard struct {
	store  Store
	limits LimitTable
	now    func() time.Time
	logger logrus.FieldLogger
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Guard) { g.logger = l }
}

// NewGuard creates a Guard over store. A nil limits table uses
// DefaultLimits(0).
func NewGuard(store Store, limits LimitTable, opts ...Option) *Guard {
	if limits == nil {
		limits = DefaultLimits(0)
	}
	g := &Guard{store: store, limits: limits, now: time.Now, logger: logging.Discard()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Limits returns the ceilings of tier.
func (g *Guard) Limits(tier Tier) (Limits, error) {
	l, ok := g.limits[tier]
	if !ok {
		return Limits{}, types.NewError(types.KindValidation, fmt.Errorf("unknown tier %q", tier),
			fmt.Sprintf("Unknown subscription tier %q.", tier), "")
	}
	return l, nil
}

// current reads the state and applies the month rollover, persisting it when
// the month changed.
func (g *Guard) current(ctx context.Context) (State, error) {
	s, err := g.store.Read(ctx)
	if err != nil {
		return State{}, fmt.Errorf("failed to read quota state: %w", err)
	}
	s, changed := Rollover(s, g.now())
	if changed {
		if err := g.store.Write(ctx, s); err != nil {
			return State{}, fmt.Errorf("failed to persist quota rollover: %w", err)
		}
		g.logger.WithField("month_key", s.MonthKey).Info("quota counter reset for new month")
	}
	return s, nil
}

// Evaluate checks whether a submission of staffCount records is allowed on
// tier. It does not consume quota.
//
// RETURNS:
//   - The decision. Staff ceilings are checked before monthly ceilings.
//   - An error if the tier is unknown or the store fails.
func (g *Guard) Evaluate(ctx context.Context, staffCount int, tier Tier) (Decision, error) {
	limits, err := g.Limits(tier)
	if err != nil {
		return Decision{}, err
	}
	s, err := g.current(ctx)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{Outcome: Allowed, Used: s.Counter, ResetDate: NextReset(g.now())}

	if limits.StaffLimit != Unlimited && staffCount > limits.StaffLimit {
		d.Outcome = StaffLimitExceeded
		d.Limit = limits.StaffLimit
		return d, nil
	}
	if limits.MonthlyLimit != Unlimited && s.Counter >= limits.MonthlyLimit {
		d.Outcome = MonthlyLimitExceeded
		d.Limit = limits.MonthlyLimit
		return d, nil
	}
	return d, nil
}

// Consume records one successful submission. Call it only after Evaluate
// allowed the submission and the batch produced at least one result.
func (g *Guard) Consume(ctx context.Context, tier Tier) (State, error) {
	if _, err := g.Limits(tier); err != nil {
		return State{}, err
	}
	s, err := g.current(ctx)
	if err != nil {
		return State{}, err
	}
	s.Counter++
	if err := g.store.Write(ctx, s); err != nil {
		return State{}, fmt.Errorf("failed to persist quota counter: %w", err)
	}
	g.logger.WithFields(logrus.Fields{
		"tier":      tier,
		"month_key": s.MonthKey,
		"counter":   s.Counter,
	}).Debug("quota consumed")
	return s, nil
}

// Usage returns the current state after rollover, for display.
func (g *Guard) Usage(ctx context.Context) (State, error) {
	return g.current(ctx)
}
