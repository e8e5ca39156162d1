package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fiquant/taxpro-bulk/internal/validation"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Check an employee file without calculating",
	Long: `Parses an uploaded .csv, .xlsx or .xls file and lists the employees that
would be calculated, together with the rows that were skipped. No quota is
used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		data, err := os.ReadFile(importFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", importFile, err)
		}

		records, rep, err := a.parser().ParseWithReport(data, importFile)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Sheet %q, header on row %d", rep.Sheet, rep.HeaderRow)
		if rep.Version != "" {
			fmt.Fprintf(out, ", template %s", rep.Version)
		}
		fmt.Fprintln(out)

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tEmployee\tTax ID\tBasic Salary")
		for _, r := range records {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Name, r.TaxID, r.BasicSalary)
		}
		tw.Flush()

		fmt.Fprintf(out, "\n%d employees ready; skipped %d sample, %d watermark, %d incomplete rows\n",
			rep.Imported, len(rep.Sample), len(rep.Watermark), len(rep.Ineligible))
		if len(rep.Ineligible) > 0 {
			fmt.Fprintf(out, "Incomplete rows (missing name or basic salary): %v\n", rep.Ineligible)
		}
		if w := validation.FormatWarnings(validation.CheckAll(records)); w != "" {
			fmt.Fprint(out, "\n"+w)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "Employee file (.csv, .xlsx, .xls)")
	cobra.CheckErr(importCmd.MarkFlagRequired("file"))
	rootCmd.AddCommand(importCmd)
}
