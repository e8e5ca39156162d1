// =============================================================================
// Bulk PAYE - Root Command
// =============================================================================
//
// COBRA CLI STRUCTURE:
//   rootCmd (taxpro-bulk)
//   ├── templateCmd  (taxpro-bulk template)   Download Template
//   ├── importCmd    (taxpro-bulk import)     Upload File, dry run
//   ├── calculateCmd (taxpro-bulk calculate)  Upload File + Calculate All + Export CSV
//   ├── quotaCmd     (taxpro-bulk quota)      Show usage, limits and feature gates
//   └── versionCmd   (taxpro-bulk version)
//
// EXIT CODES:
//   0 success, 1 unexpected error, 2 validation, 3 file format,
//   4 quota exceeded, 5 serialization
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fiquant/taxpro-bulk/internal/types"
)

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "taxpro-bulk",
	Short: "Bulk PAYE calculator - template, import, calculate and export employee payroll tax",
	Long: `taxpro-bulk computes PAYE for many employees at once.

Download the employee template, fill it in (or export your own sheet in the
same layout), then upload it to calculate every employee and export the
results as CSV. Usage is limited per subscription tier.

Example Usage:
  taxpro-bulk template --out staff.xlsx
  taxpro-bulk import --file staff.xlsx
  taxpro-bulk calculate --file staff.xlsx --tier pro --export --month October --year 2026
  taxpro-bulk quota --tier free`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the CLI and exits with a code derived from the error kind.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch types.KindOf(err) {
	case types.KindValidation:
		return 2
	case types.KindFormat:
		return 3
	case types.KindQuotaExceeded:
		return 4
	case types.KindSerialization:
		return 5
	default:
		return 1
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file; ignored when the default is absent",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
