// =============================================================================
// Bulk PAYE - Main Entry Point
// =============================================================================
//
// USAGE:
//   taxpro-bulk template    - Write the employee template
//   taxpro-bulk import      - Check an employee file
//   taxpro-bulk calculate   - Calculate PAYE for an employee file
//   taxpro-bulk quota       - Show usage and limits
//   taxpro-bulk version     - Display the application version
//
// LAYOUT:
//   cmd/       : CLI commands (Cobra)
//   internal/  : template, parser, normalizer, quota, batch, report, session
//   pkg/       : shared file utilities
//
// =============================================================================

package main

import (
	"github.com/fiquant/taxpro-bulk/cmd"
)

func main() {
	cmd.Execute()
}
