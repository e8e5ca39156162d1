// =============================================================================
// Bulk PAYE - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   taxpro-bulk version
//
// OUTPUT:
//   TaxPro Bulk PAYE
//   Version:    1.2.0
//   Build Date: 2026-10-01
//   Schema:     paye-bulk/v1
//   Go Version: go1.24.0
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fiquant/taxpro-bulk/internal/schema"
)

// =============================================================================
// VERSION INFORMATION
// =============================================================================
// Set at build time:
//   go build -ldflags "-X 'github.com/fiquant/taxpro-bulk/cmd.Version=1.2.0'"

var (
	Version   = "dev"
	BuildDate = "unknown"
)

// =============================================================================
// VERSION COMMAND DEFINITION
// =============================================================================

// versionCmd represents the 'version' command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "TaxPro Bulk PAYE")
		fmt.Fprintf(out, "Version:    %s\n", Version)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Schema:     %s\n", schema.Version)
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
