// =============================================================================
// Bulk PAYE - Session
// =============================================================================
//
// A Session owns the operator's list of employee records and implements the
// four actions of the bulk calculator page:
//
//   Download Template -> Template
//   Upload File       -> LoadFile
//   Calculate All     -> CalculateAll
//   Export CSV        -> ExportCSV
//
// plus manual entry (AddRecord, UpdateField, Remove, Reset).
//
// A Session is not safe for concurrent use.
//
// =============================================================================

package session

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fiquant/taxpro-bulk/internal/batch"
	"github.com/fiquant/taxpro-bulk/internal/calculator"
	"github.com/fiquant/taxpro-bulk/internal/logging"
	"github.com/fiquant/taxpro-bulk/internal/quota"
	"github.com/fiquant/taxpro-bulk/internal/report"
	"github.com/fiquant/taxpro-bulk/internal/schema"
	"github.com/fiquant/taxpro-bulk/internal/spreadsheet"
	"github.com/fiquant/taxpro-bulk/internal/templategen"
	"github.com/fiquant/taxpro-bulk/internal/types"
)

// Deps are the collaborators of a Session. Calculator and Guard are
// required.
type Deps struct {
	Calculator calculator.Calculator
	Guard      *quota.Guard
	Gate       *quota.Gate
	Parser     *spreadsheet.Parser
	Logger     logrus.FieldLogger

	// Tier gates Template, LoadFile and ExportCSV. Empty means free.
	Tier quota.Tier

	// Workers > 1 lets the orchestrator run that many calculator calls at
	// once.
	Workers int
}

// Session is one operator's bulk calculation workspace.
type Session struct {
	id      string
	tier    quota.Tier
	records []types.EmployeeRecord

	orch   *batch.Orchestrator
	guard  *quota.Guard
	gate   *quota.Gate
	parser *spreadsheet.Parser
	logger logrus.FieldLogger
}

// New creates an empty session.
func New(deps Deps) (*Session, error) {
	if deps.Calculator == nil {
		return nil, fmt.Errorf("session: calculator is required")
	}
	if deps.Guard == nil {
		return nil, fmt.Errorf("session: quota guard is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Gate == nil {
		g, err := quota.NewGate()
		if err != nil {
			return nil, err
		}
		deps.Gate = g
	}
	if deps.Tier == "" {
		deps.Tier = quota.Free
	}
	if deps.Parser == nil {
		deps.Parser = spreadsheet.New(spreadsheet.Options{}, deps.Logger)
	}

	id := uuid.NewString()
	logger := deps.Logger.WithField("session", id)
	return &Session{
		id:     id,
		tier:   deps.Tier,
		orch:   batch.New(deps.Calculator, logger, deps.Workers),
		guard:  deps.Guard,
		gate:   deps.Gate,
		parser: deps.Parser,
		logger: logger,
	}, nil
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// SetTier changes the tier used by the feature gate.
func (s *Session) SetTier(t quota.Tier) { s.tier = t }

// Records returns a copy of the record list.
func (s *Session) Records() []types.EmployeeRecord {
	out := make([]types.EmployeeRecord, len(s.records))
	copy(out, s.records)
	return out
}

// =============================================================================
// MANUAL ENTRY
// =============================================================================

// AddRecord appends a record and returns its assigned ID. Any computed state
// on rec is dropped.
func (s *Session) AddRecord(rec types.EmployeeRecord) int {
	rec.ClearResult()
	rec.ID = len(s.records) + 1
	s.records = append(s.records, rec)
	return rec.ID
}

// UpdateField sets one input field by its schema key (e.g. "basic_salary")
// and clears the record's result.
func (s *Session) UpdateField(id int, field, value string) error {
	i, err := s.index(id)
	if err != nil {
		return err
	}
	col, ok := schema.ColumnByKey(field)
	if !ok {
		return types.NewError(types.KindValidation, fmt.Errorf("%w: %s", types.ErrUnknownField, field),
			fmt.Sprintf("Unknown employee field %q.", field), "")
	}
	*col.Field(&s.records[i]) = value
	s.records[i].ClearResult()
	return nil
}

// Remove deletes a record and renumbers the rest positionally.
func (s *Session) Remove(id int) error {
	i, err := s.index(id)
	if err != nil {
		return err
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	s.renumber()
	return nil
}

// Reset empties the session.
func (s *Session) Reset() {
	s.records = nil
}

func (s *Session) index(id int) (int, error) {
	if id < 1 || id > len(s.records) {
		return 0, types.NewError(types.KindValidation, fmt.Errorf("%w: %d", types.ErrRecordNotFound, id),
			fmt.Sprintf("Employee #%d does not exist.", id), "")
	}
	return id - 1, nil
}

func (s *Session) renumber() {
	for i := range s.records {
		s.records[i].ID = i + 1
	}
}

// =============================================================================
// ACTIONS
// =============================================================================

// Template writes a fresh template to w.
func (s *Session) Template(w io.Writer, opts templategen.Options) error {
	if err := s.requireFeature(quota.FeatureTemplateDownload, s.tier); err != nil {
		return err
	}
	return templategen.Write(w, opts)
}

// LoadFile replaces the record list with the contents of an uploaded file.
// On any error the current list is left as it was.
func (s *Session) LoadFile(data []byte, filename string) (spreadsheet.Report, error) {
	if err := s.requireFeature(quota.FeatureBulkUpload, s.tier); err != nil {
		return spreadsheet.Report{}, err
	}
	records, rep, err := s.parser.ParseWithReport(data, filename)
	if err != nil {
		return rep, err
	}
	s.records = records
	s.logger.WithFields(logrus.Fields{"file": filename, "records": len(records)}).Info("upload loaded")
	return rep, nil
}

// CalculateAll runs the calculator over every eligible record.
//
// ORDER OF CHECKS:
//   1. Feature gate for bulk calculation
//   2. At least one eligible record
//   3. Quota (staff and monthly ceilings), before any calculator call
//   4. Orchestrator run
//   5. Quota consumed only if at least one record was computed
//
// RETURNS:
//   - The batch summary.
//   - A validation or quota-exceeded error when a check fails. Per-record
//     calculator failures are reported in the summary, not as an error.
func (s *Session) CalculateAll(ctx context.Context, tier quota.Tier) (batch.Summary, error) {
	if err := s.requireFeature(quota.FeatureBulkCalculate, tier); err != nil {
		return batch.Summary{}, err
	}

	eligible := 0
	for _, r := range s.records {
		if r.Eligible() {
			eligible++
		}
	}
	if eligible == 0 {
		return batch.Summary{}, types.NewError(types.KindValidation, types.ErrEmptyBatch,
			"Add at least one employee with a name and basic salary.", "")
	}

	decision, err := s.guard.Evaluate(ctx, eligible, tier)
	if err != nil {
		return batch.Summary{}, err
	}
	if !decision.Allowed() {
		s.logger.WithFields(logrus.Fields{
			"tier":    tier,
			"outcome": decision.Outcome.String(),
			"limit":   decision.Limit,
		}).Warn("bulk calculation refused by quota")
		return batch.Summary{}, decision.Err()
	}

	out, summary := s.orch.Run(ctx, s.records)
	s.records = out

	if summary.Succeeded > 0 {
		if _, err := s.guard.Consume(ctx, tier); err != nil {
			// The results stand; only the bookkeeping failed.
			logging.LogError(s.logger, "session", "CalculateAll", "consume quota", nil, err)
		}
	}
	return summary, nil
}

// Totals folds the computed records.
func (s *Session) Totals() report.Totals {
	return report.Aggregate(s.records)
}

// ExportCSV renders the computed records. company is used only for logging;
// callers use it to name the file.
func (s *Session) ExportCSV(company types.CompanyContext) (string, error) {
	if err := s.requireFeature(quota.FeatureCSVExport, s.tier); err != nil {
		return "", err
	}
	out, err := report.ExportCSV(s.records)
	if err != nil {
		return "", err
	}
	s.logger.WithFields(logrus.Fields{
		"company": company.Name,
		"period":  strings.TrimSpace(fmt.Sprintf("%s %d", company.Month, company.Year)),
		"rows":    s.Totals().Count,
	}).Info("csv exported")
	return out, nil
}

// CanExport returns ErrFeatureLocked when the session's tier may not export.
// Call it before CalculateAll when the results will be exported.
func (s *Session) CanExport() error {
	return s.requireFeature(quota.FeatureCSVExport, s.tier)
}

func (s *Session) requireFeature(f quota.Feature, tier quota.Tier) error {
	info := s.gate.DescribeGate(f, tier)
	if info.Allowed {
		return nil
	}
	remediation := ""
	if info.CTATier != "" {
		remediation = "upgrade to " + info.CTATier.Title()
	}
	return types.NewError(types.KindValidation, fmt.Errorf("%w: %s", types.ErrFeatureLocked, f), info.Message, remediation)
}
