// =============================================================================
// Bulk PAYE - Batch Orchestrator
// =============================================================================
//
// Runs the calculator over a batch of employee records.
//
// GUARANTEES:
//   - The returned slice has the same length and order as the input.
//   - The input slice is never modified.
//   - A failing (or panicking) calculator call only affects its own record.
//   - Ineligible records pass through untouched.
//
// By default records are processed one at a time, so at most one calculator
// call is in flight. With Workers > 1 calls fan out through an errgroup with
// a concurrency limit, and every result is written back by its original index.
//
// =============================================================================

package batch

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fiquant/taxpro-bulk/internal/calculator"
	"github.com/fiquant/taxpro-bulk/internal/logging"
	"github.com/fiquant/taxpro-bulk/internal/normalize"
	"github.com/fiquant/taxpro-bulk/internal/types"
)

// RecordFailure describes one record the calculator could not compute.
type RecordFailure struct {
	RecordID int    `csv:"Record ID" yaml:"record_id"`
	Name     string `csv:"Employee Name" yaml:"name"`
	Reason   string `csv:"Reason" yaml:"reason"`
}

// Summary reports the outcome of a Run.
type Summary struct {
	Attempted int
	Succeeded int
	Skipped   int
	Failed    []RecordFailure
}

// Orchestrator drives the calculator over a batch.
type Orchestrator struct {
	calc    calculator.Calculator
	logger  logrus.FieldLogger
	workers int
}

// New creates an orchestrator. workers <= 1 means strictly sequential.
func New(calc calculator.Calculator, logger logrus.FieldLogger, workers int) *Orchestrator {
	if logger == nil {
		logger = logging.Discard()
	}
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{calc: calc, logger: logger, workers: workers}
}

// outcome is the result of one calculator call, kept by input index.
type outcome struct {
	result *types.ComputedResult
	err    error
}

// Run computes every eligible record.
//
// PARAMETERS:
//   - ctx:     passed to each calculator call. Cancellation is the only way
//              to stop a batch early; records not yet started are left
//              uncalculated and reported as failures.
//   - records: the batch. Not modified.
//
// RETURNS:
//   - A new slice with Calculated/Result set on the records that succeeded.
//   - A Summary of attempted, succeeded, skipped and failed records.
func (o *Orchestrator) Run(ctx context.Context, records []types.EmployeeRecord) ([]types.EmployeeRecord, Summary) {
	out := make([]types.EmployeeRecord, len(records))
	copy(out, records)

	var eligible []int
	for i := range out {
		if out[i].Eligible() {
			out[i].ClearResult()
			eligible = append(eligible, i)
		}
	}

	outcomes := make([]outcome, len(out))
	if o.workers == 1 {
		for _, i := range eligible {
			outcomes[i] = o.computeLogged(ctx, out[i])
		}
	} else {
		o.fanOut(ctx, out, eligible, outcomes)
	}

	summary := Summary{
		Attempted: len(eligible),
		Skipped:   len(out) - len(eligible),
	}
	for _, i := range eligible {
		oc := outcomes[i]
		if oc.err != nil {
			summary.Failed = append(summary.Failed, RecordFailure{
				RecordID: out[i].ID,
				Name:     out[i].Name,
				Reason:   oc.err.Error(),
			})
			continue
		}
		out[i].Calculated = true
		out[i].Result = oc.result
		summary.Succeeded++
	}

	o.logger.WithFields(logrus.Fields{
		"attempted": summary.Attempted,
		"succeeded": summary.Succeeded,
		"failed":    len(summary.Failed),
		"skipped":   summary.Skipped,
	}).Info("batch calculation finished")

	return out, summary
}

func (o *Orchestrator) fanOut(ctx context.Context, records []types.EmployeeRecord, eligible []int, outcomes []outcome) {
	// Per-record errors are stored, never returned, so one failure does not
	// cancel its siblings. Each goroutine owns outcomes[i].
	var g errgroup.Group
	g.SetLimit(o.workers)

	for _, i := range eligible {
		i := i
		rec := records[i]
		g.Go(func() error {
			outcomes[i] = o.computeLogged(ctx, rec)
			return nil
		})
	}
	_ = g.Wait()
}

// computeLogged is computeOne with any failure logged immediately.
func (o *Orchestrator) computeLogged(ctx context.Context, rec types.EmployeeRecord) outcome {
	oc := o.computeOne(ctx, rec)
	if oc.err != nil {
		logging.LogError(o.logger.WithFields(logrus.Fields{
			"record_id": rec.ID,
			"employee":  rec.Name,
		}), "batch", "Run", "calculate record", nil, oc.err)
	}
	return oc
}

// computeOne normalizes and calculates one record, converting a panic in the
// calculator into an error.
func (o *Orchestrator) computeOne(ctx context.Context, rec types.EmployeeRecord) (oc outcome) {
	defer func() {
		if r := recover(); r != nil {
			oc = outcome{err: fmt.Errorf("calculator panicked: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return outcome{err: err}
	}

	res, err := o.calc.Calculate(ctx, normalize.Normalize(rec))
	if err != nil {
		return outcome{err: err}
	}
	if res == nil {
		return outcome{err: fmt.Errorf("calculator returned no result")}
	}
	return outcome{result: res}
}
