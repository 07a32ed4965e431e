// =============================================================================
// OFX to CSV Converter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, which is the main command for
// converting OFX files to CSV. It runs the conversion pipeline for every
// input file, one file after another.
//
// COMMAND USAGE:
//   ofx2csv convert [files...] [flags]
//
// INPUT SELECTION:
//   - Files given as arguments are converted as is.
//   - Without arguments, every *.ofx file in --dir (or input_dir) is
//     converted.
//
// PROCESSING PIPELINE (per file, see the converter package):
//   1. Parse the OFX file
//   2. Apply transformation rules
//   3. Validate
//   4. Write the CSV (and XLSX) file
//   5. Archive the input file
//
// AFTER THE BATCH:
//   A summary report and an error log are written to reports_dir, when set.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/config"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/converter"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/csvwriter"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/logger"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/types"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/pkg/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// convertFlags holds the flags of the convert command. Each flag overrides
// the matching configuration key only when it is given.
type convertFlags struct {
	dir             string
	outputDir       string
	delimiter       string
	onInvalidAmount string
	charset         string
	noMemo          bool
	accountDetails  bool
	splitTags       bool
	recursive       bool
	xlsx            bool
	dryRun          bool
}

var convertOpts convertFlags

// =============================================================================
// CONVERT COMMAND DEFINITION
// =============================================================================

// convertCmd represents the 'convert' command.
var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert OFX files to CSV",
	Long: `The convert command parses OFX statement files and writes one CSV file
per input, named after the input with the .ofx extension replaced by .csv.

Without file arguments, every *.ofx file in the input directory is converted.
With --recursive (or recursive: true) subdirectories are searched as well.
Files are processed one after another. With continue_on_error (the default)
a failing file does not stop the others.

On successful processing:
  - The CSV file is written next to the input, or into --output-dir
  - The input is moved to archive_dir, when set (under year/month/day
    subdirectories with archive_timestamp_subdirs)

On error:
  - No output file is written for the failing input
  - The error is logged and added to the error log in reports_dir`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := convertOpts.apply(cmd, mainConfig); err != nil {
			return err
		}
		return runConvert(cmd.Context(), cmd.OutOrStdout(), mainConfig, args, convertOpts.dir, convertOpts.dryRun)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(convertCmd)

	flags := convertCmd.Flags()
	flags.StringVar(&convertOpts.dir, "dir", "", "Convert every .ofx file in this directory (default: input_dir)")
	flags.StringVarP(&convertOpts.outputDir, "output-dir", "o", "", "Write output files to this directory")
	flags.StringVarP(&convertOpts.delimiter, "delimiter", "d", "", `Field delimiter: ",", ";", "|" or tab`)
	flags.StringVar(&convertOpts.onInvalidAmount, "on-invalid-amount", "", "Invalid amount policy: abort or skip")
	flags.StringVar(&convertOpts.charset, "charset", "", "Input charset: utf-8, windows-1252 or iso-8859-1")
	flags.BoolVar(&convertOpts.noMemo, "no-memo", false, "Omit the Memo column")
	flags.BoolVar(&convertOpts.accountDetails, "account-details", false, "Write the account details block above the header")
	flags.BoolVar(&convertOpts.splitTags, "split-tags", false, "Split lines holding several tags (single-line OFX)")
	flags.BoolVarP(&convertOpts.recursive, "recursive", "r", false, "Also look for .ofx files in subdirectories")
	flags.BoolVar(&convertOpts.xlsx, "xlsx", false, "Also write an .xlsx file")
	flags.BoolVar(&convertOpts.dryRun, "dry-run", false, "Parse and validate without writing or moving files")
}

// apply copies the flags that were given onto cfg and revalidates it.
func (f convertFlags) apply(cmd *cobra.Command, cfg *config.MainConfig) error {
	changed := cmd.Flags().Changed

	if changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if changed("delimiter") {
		cfg.CSV.Delimiter = f.delimiter
	}
	if changed("on-invalid-amount") {
		cfg.Parser.OnInvalidAmount = f.onInvalidAmount
	}
	if changed("charset") {
		cfg.Charset = f.charset
	}
	if changed("no-memo") {
		cfg.Parser.IncludeMemo = !f.noMemo
	}
	if changed("account-details") {
		cfg.Parser.IncludeAccountDetails = f.accountDetails
	}
	if changed("split-tags") {
		cfg.SplitTags = f.splitTags
	}
	if changed("recursive") {
		cfg.Recursive = f.recursive
	}
	if changed("xlsx") {
		cfg.XLSX.Enabled = f.xlsx
	}

	return cfg.Validate()
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runConvert converts the selected files and writes the batch reports.
// It returns an error when at least one file failed.
func runConvert(ctx context.Context, out io.Writer, cfg *config.MainConfig, args []string, dir string, dryRun bool) error {
	runID := uuid.NewString()
	log := logger.WithFields(logger.FromContext(ctx), map[string]interface{}{"run_id": runID})
	ctx = logger.WithContext(ctx, log)

	// =========================================================================
	// STEP 1: SELECT INPUT FILES
	// =========================================================================

	inputFiles, err := selectInputFiles(cfg, args, dir)
	if err != nil {
		return err
	}
	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No OFX files found.")
		return nil
	}

	log.Info().Int("files", len(inputFiles)).Bool("dry_run", dryRun).Msg("Starting conversion")

	// =========================================================================
	// STEP 2: CONVERT FILES
	// =========================================================================

	summary := utils.ProcessingSummary{
		RunID:      runID,
		StartTime:  time.Now(),
		TotalFiles: len(inputFiles),
	}
	var errorLog []utils.ErrorLogEntry

	for _, file := range inputFiles {
		if ctx.Err() != nil {
			break
		}

		result := convertOne(ctx, cfg, file, dryRun)
		reportResult(out, result, dryRun)
		errorLog = append(errorLog, errorLogEntries(result)...)

		if !result.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    file,
				ErrorMessage: result.Error.Error(),
			})
			if !cfg.ContinueOnError {
				break
			}
			continue
		}

		summary.SuccessfulFiles++
		summary.TotalTransactions += result.Stats.Transactions
		summary.TotalWarnings += result.Stats.ValidationIssues
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:    file,
			OutputFile:   result.OutputFile,
			ArchivePath:  result.ArchivePath,
			Transactions: result.Stats.Transactions,
			Warnings:     result.Stats.ValidationIssues,
			ProcessTime:  result.Stats.ProcessingTime,
		})
	}
	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 3: WRITE REPORTS
	// =========================================================================

	if !dryRun {
		fm := utils.NewFileManager(cfg.InputDir, cfg.ArchiveDir, cfg.ReportsDir)
		if path, err := fm.WriteSummaryLog(summary); err != nil {
			log.Error().Err(err).Msg("Failed to write summary")
		} else if path != "" {
			log.Info().Str("path", path).Msg("Wrote processing summary")
		}
		if path, err := fm.WriteErrorLog(errorLog); err != nil {
			log.Error().Err(err).Msg("Failed to write error log")
		} else if path != "" {
			log.Info().Str("path", path).Msg("Wrote error log")
		}
	}

	log.Info().
		Int("successful", summary.SuccessfulFiles).
		Int("failed", summary.FailedFiles).
		Int("transactions", summary.TotalTransactions).
		Dur("elapsed", summary.EndTime.Sub(summary.StartTime)).
		Msg("Conversion complete")

	if err := ctx.Err(); err != nil {
		return err
	}
	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// selectInputFiles returns args when given, otherwise the *.ofx files of
// dir (or of the configured input directory). With cfg.Recursive the
// subdirectories are searched too, except the archive directory.
func selectInputFiles(cfg *config.MainConfig, args []string, dir string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if dir == "" {
		dir = cfg.InputDir
	}

	fm := utils.NewFileManager(dir, cfg.ArchiveDir, "")

	var files []string
	var err error
	if cfg.Recursive {
		files, err = fm.DiscoverInputFilesRecursive(utils.InputExtension)
	} else {
		files, err = fm.DiscoverInputFiles("*" + utils.InputExtension)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	return files, nil
}

func convertOne(ctx context.Context, cfg *config.MainConfig, file string, dryRun bool) converter.Result {
	conv, err := converter.New(file, cfg)
	if err != nil {
		return converter.Result{FilePath: file, Error: err}
	}
	conv.DryRun = dryRun
	return conv.Run(ctx)
}

// reportResult prints the user-facing messages for one file.
func reportResult(out io.Writer, result converter.Result, dryRun bool) {
	name := filepath.Base(result.FilePath)

	if !result.Success {
		fmt.Fprintf(out, "  ✗ %s: %v\n", name, result.Error)
		return
	}

	if result.Stats.Transactions == 0 {
		fmt.Fprintf(out, "No transactions found in %s.\n", name)
	} else if verbose {
		fmt.Fprintf(out, "Transactions in %s:\n", name)
		printTransactions(out, result.Statement.Transactions)
	}

	if dryRun {
		fmt.Fprintf(out, "  ✓ %s -> %s (dry run, %d transaction(s))\n", name, result.OutputFile, result.Stats.Transactions)
		return
	}
	fmt.Fprintf(out, "Transactions saved to CSV: %s\n", result.OutputFile)
	if result.XLSXFile != "" {
		fmt.Fprintf(out, "Transactions saved to XLSX: %s\n", result.XLSXFile)
	}
}

// printTransactions prints one summary line per transaction.
func printTransactions(out io.Writer, transactions []types.Transaction) {
	for _, txn := range transactions {
		fmt.Fprintf(out, "Type: %s, Date: %s, Amount: %s, ID: %s, Name: %s, Memo: %s\n",
			txn.Type, txn.Date, csvwriter.FormatAmount(txn.Amount), txn.ID, txn.Name, txn.Memo)
	}
}

// errorLogEntries turns a failed conversion, and the validation issues of
// any conversion, into error log entries.
func errorLogEntries(result converter.Result) []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry
	file := filepath.Base(result.FilePath)

	if result.Error != nil {
		entry := utils.ErrorLogEntry{
			Timestamp:    time.Now(),
			FileName:     file,
			ErrorType:    errorType(result.Error),
			ErrorMessage: result.Error.Error(),
		}
		var perr *types.ParseError
		if errors.As(result.Error, &perr) {
			entry.LineNumber = perr.Line
			entry.FieldName = perr.Tag
			entry.FieldValue = perr.Text
		}
		entries = append(entries, entry)
	}

	if result.Validation != nil {
		for _, issue := range result.Validation.Errors {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp:    time.Now(),
				FileName:     file,
				ErrorType:    "validation " + issue.Severity,
				ErrorMessage: issue.Error(),
				LineNumber:   issue.Line,
				FieldName:    issue.Field,
				FieldValue:   issue.Value,
			})
		}
	}

	return entries
}

// errorType classifies err by its sentinel.
func errorType(err error) string {
	for _, sentinel := range []error{
		types.ErrSourceUnavailable,
		types.ErrSinkUnavailable,
		types.ErrMalformedStructure,
		types.ErrInvalidAmount,
		types.ErrValidationFailed,
		context.Canceled,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "conversion error"
}
