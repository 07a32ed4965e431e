// =============================================================================
// OFX to CSV Converter - Inspect Command
// =============================================================================
//
// This file defines the 'inspect' command. It runs the conversion pipeline
// in dry-run mode and prints the account details, the transactions and the
// validation issues of a file without writing anything.
//
// COMMAND USAGE:
//   ofx2csv inspect <file>
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/config"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/converter"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/validation"
	"github.com/spf13/cobra"
)

// inspectCmd represents the 'inspect' command.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print the contents of an OFX file without converting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd, mainConfig, args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, cfg *config.MainConfig, file string) error {
	// Account details are always shown, whatever the output setting.
	inspectCfg := *cfg
	inspectCfg.Parser.IncludeAccountDetails = true

	conv, err := converter.New(file, &inspectCfg)
	if err != nil {
		return err
	}
	conv.DryRun = true

	result := conv.Run(cmd.Context())
	if result.Statement == nil {
		return result.Error
	}

	printInspection(cmd.OutOrStdout(), result)
	return result.Error
}

// printInspection writes the human-readable report of one dry run.
func printInspection(out io.Writer, result converter.Result) {
	stmt := result.Statement

	fmt.Fprintf(out, "File: %s\n\n", result.FilePath)

	if stmt.Account != nil {
		fmt.Fprintln(out, "Account:")
		for _, entry := range stmt.Account.Entries() {
			if entry.Value == "" {
				continue
			}
			fmt.Fprintf(out, "  %s: %s\n", entry.Label, entry.Value)
		}
		fmt.Fprintln(out)
	}

	if len(stmt.Transactions) == 0 {
		fmt.Fprintln(out, "No transactions found in the file.")
	} else {
		fmt.Fprintf(out, "Transactions (%d):\n", len(stmt.Transactions))
		printTransactions(out, stmt.Transactions)
	}

	if result.Validation != nil && len(result.Validation.Errors) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, validation.FormatErrors(result.Validation.Errors))
	}

	if result.OutputFile != "" {
		fmt.Fprintf(out, "\nWould write: %s\n", result.OutputFile)
	}
}
