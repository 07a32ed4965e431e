// =============================================================================
// OFX to CSV Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the OFX to CSV Converter CLI application.
// It initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   ofx2csv convert [files...] - Convert OFX files to CSV
//   ofx2csv inspect <file>     - Print what a file contains
//   ofx2csv version            - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Parser, writers, validation and the conversion pipeline
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/OFX-to-CSV-conversion/cmd"
)

func main() {
	cmd.Execute()
}
