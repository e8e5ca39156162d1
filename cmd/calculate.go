// =============================================================================
// Bulk PAYE - Calculate Command
// =============================================================================
//
// COMMAND USAGE:
//   taxpro-bulk calculate --file staff.xlsx [flags]
//
// PIPELINE:
//   1. Load the file into a session (Upload File); log input warnings
//   2. Calculate All: feature gate, quota check, per-employee calculation
//   3. Print totals; write a failure log for employees that failed
//   4. With --export, write the CSV export atomically (Export CSV)
//   5. With an archive directory configured, archive the input file
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fiquant/taxpro-bulk/internal/batch"
	"github.com/fiquant/taxpro-bulk/internal/logging"
	"github.com/fiquant/taxpro-bulk/internal/validation"
	"github.com/fiquant/taxpro-bulk/pkg/utils"
)

var (
	calcFile    string
	calcTier    string
	calcExport  bool
	calcOut     string
	calcCompany string
	calcMonth   string
	calcYear    int
)

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Calculate PAYE for every employee in a file",
	Long: `Loads an employee file, checks the tier's staff and monthly limits, then
calculates every employee. An employee whose calculation fails is reported and
skipped; the others are still calculated. One monthly submission is used only
if at least one employee was calculated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		tier, err := a.tier(calcTier)
		if err != nil {
			return err
		}
		s, err := a.session(tier)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(calcFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", calcFile, err)
		}
		if _, err := s.LoadFile(data, calcFile); err != nil {
			return err
		}
		for _, w := range validation.CheckAll(s.Records()) {
			a.logger.WithFields(logrus.Fields{
				"record_id": w.RecordID,
				"field":     w.Field,
				"value":     w.Value,
			}).Warn(w.Message)
		}

		if calcExport {
			if err := s.CanExport(); err != nil {
				return err
			}
		}

		summary, err := s.CalculateAll(cmd.Context(), tier)
		if err != nil {
			return err
		}

		totals := s.Totals()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Calculated %d of %d employees (%d skipped, %d failed)\n",
			summary.Succeeded, summary.Attempted+summary.Skipped, summary.Skipped, len(summary.Failed))
		fmt.Fprintf(out, "Gross total: %.2f\nPAYE total:  %.2f\nNet total:   %.2f\n",
			totals.GrossTotal, totals.TaxTotal, totals.NetTotal)

		if len(summary.Failed) > 0 {
			path, err := utils.WriteFailureLog(failureEntries(summary.Failed), a.cfg.OutputDir, filepath.Base(calcFile))
			if err != nil {
				logging.LogError(a.logger, "cmd", "calculate", "write failure log", nil, err)
			} else {
				fmt.Fprintf(out, "Failed employees logged to %s\n", path)
			}
		}

		if calcExport {
			month, year := calcMonth, calcYear
			now := time.Now()
			if month == "" {
				month = now.Month().String()
			}
			if year == 0 {
				year = now.Year()
			}
			company := a.cfg.CompanyContext(calcCompany, month, year)

			csvText, err := s.ExportCSV(company)
			if err != nil {
				return err
			}

			path := calcOut
			if path == "" {
				name := utils.GenerateOutputFileName(a.cfg.OutputNameFormat, ".csv", map[string]string{
					"company": company.Name,
					"period":  fmt.Sprintf("%s_%d", company.Month, company.Year),
				})
				path = a.files.OutputPath(name)
			}
			if err := utils.WriteFileAtomic(path, []byte(csvText)); err != nil {
				return err
			}
			fmt.Fprintf(out, "Export written to %s\n", path)
		}

		if archived, err := a.files.ArchiveInputFile(calcFile); err != nil {
			logging.LogError(a.logger, "cmd", "calculate", "archive input", calcFile, err)
		} else if archived != "" {
			a.logger.WithField("archive", archived).Info("input archived")
		}
		return nil
	},
}

func failureEntries(failed []batch.RecordFailure) []utils.FailureLogEntry {
	entries := make([]utils.FailureLogEntry, len(failed))
	for i, f := range failed {
		entries[i] = utils.FailureLogEntry{RecordID: f.RecordID, Employee: f.Name, Reason: f.Reason}
	}
	return entries
}

func init() {
	f := calculateCmd.Flags()
	f.StringVarP(&calcFile, "file", "f", "", "Employee file (.csv, .xlsx, .xls)")
	f.StringVar(&calcTier, "tier", "", "Subscription tier (default from config)")
	f.BoolVar(&calcExport, "export", false, "Write the results as CSV")
	f.StringVarP(&calcOut, "out", "o", "", "Export path (default: output directory, named by output_name_format)")
	f.StringVar(&calcCompany, "company", "", "Company name for the export (default from config)")
	f.StringVar(&calcMonth, "month", "", "Payroll month for the export (default: current month)")
	f.IntVar(&calcYear, "year", 0, "Payroll year for the export (default: current year)")
	cobra.CheckErr(calculateCmd.MarkFlagRequired("file"))
	rootCmd.AddCommand(calculateCmd)
}
