// =============================================================================
// OFX to CSV Converter - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It orchestrates the
// pipeline for a single file, from OFX parsing to CSV output.
//
// CONVERSION PIPELINE:
//   1. Parse the OFX file into a statement
//   2. Apply transformation rules to the transaction fields
//   3. Validate the statement
//   4. Render the CSV lines
//   5. Write the CSV file (and the XLSX file, if enabled)
//   6. Archive the input file
//
// CONCURRENCY:
//   A Converter handles one file and holds no shared state. The convert
//   command runs converters one after another.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/config"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/csvwriter"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/logger"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/ofxparser"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/types"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/validation"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/xlsxwriter"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFile is the path of the CSV file. In a dry run it is the path
	// that would have been written.
	OutputFile string

	// XLSXFile is the path of the XLSX file, when the export is enabled.
	XLSXFile string

	// ArchivePath is where the input file was moved, when archiving is
	// enabled and succeeded.
	ArchivePath string

	// Statement is the parsed and transformed statement. It is nil if
	// parsing failed.
	Statement *types.Statement

	// Validation holds the validation issues. It is nil if validation did
	// not run.
	Validation *validation.ValidationResult

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// Transactions is the number of transactions written.
	Transactions int

	// Warnings is the number of parser warnings.
	Warnings int

	// ValidationIssues is the number of validation issues, warnings included.
	ValidationIssues int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the conversion of a single OFX file.
type Converter struct {
	// inputPath is the path to the input OFX file.
	inputPath string

	// mainConfig is the main application configuration.
	mainConfig *config.MainConfig

	transformer *Transformer
	files       *utils.FileManager

	// DryRun parses, transforms and validates without writing, archiving
	// or moving anything.
	DryRun bool
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - inputPath: The path to the input OFX file.
//   - mainConfig: The main application configuration.
//
// RETURNS:
//   - A new Converter instance.
//   - An error if the transformation rules are invalid.
func New(inputPath string, mainConfig *config.MainConfig) (*Converter, error) {
	transformer, err := NewTransformer(mainConfig.TransformationRules)
	if err != nil {
		return nil, fmt.Errorf("invalid transformation rules: %w", err)
	}

	files := utils.NewFileManager(mainConfig.InputDir, mainConfig.ArchiveDir, mainConfig.ReportsDir)
	files.UseTimestampSubdirs = mainConfig.ArchiveTimestampSubdirs

	return &Converter{
		inputPath:   inputPath,
		mainConfig:  mainConfig,
		transformer: transformer,
		files:       files,
	}, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline for the file. The logger is taken
// from ctx; cancellation is checked before any work starts.
func (c *Converter) Run(ctx context.Context) Result {
	startTime := time.Now()
	result := Result{FilePath: c.inputPath}
	log := logger.FromContext(ctx).With().Str("file", c.inputPath).Logger()

	fail := func(err error) Result {
		result.Error = err
		result.Stats.ProcessingTime = time.Since(startTime)
		log.Error().Err(err).Msg("Conversion failed")
		return result
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 1: PARSE
	// =========================================================================

	log.Debug().Msg("Parsing OFX file")

	stmt, err := ofxparser.ParseFile(c.inputPath, c.mainConfig.ParserOptions())
	if err != nil {
		return fail(fmt.Errorf("failed to parse OFX: %w", err))
	}

	result.Statement = stmt
	result.Stats.Warnings = len(stmt.Warnings)
	for _, w := range stmt.Warnings {
		log.Warn().Int("line", w.Line).Str("tag", w.Tag).Str("value", w.Value).Msg(w.Message)
	}
	log.Debug().Int("transactions", len(stmt.Transactions)).Msg("Parsed statement")

	// =========================================================================
	// STEP 2: APPLY TRANSFORMATION RULES
	// =========================================================================

	if err := c.transformer.TransformStatement(stmt); err != nil {
		return fail(fmt.Errorf("failed to apply transformations: %w", err))
	}

	// =========================================================================
	// STEP 3: VALIDATE
	// =========================================================================

	csvOpts := c.mainConfig.CSVOptions()
	delimiter, err := csvwriter.ResolveDelimiter(csvOpts.Delimiter)
	if err != nil {
		return fail(err)
	}

	validator := validation.NewValidator(validation.ValidationOptions{
		Delimiter:             delimiter,
		QuoteFields:           csvOpts.QuoteFields,
		IncludeMemo:           csvOpts.IncludeMemo,
		TreatWarningsAsErrors: c.mainConfig.StrictValidation,
	})
	report := validator.ValidateAll(stmt)
	result.Validation = report
	result.Stats.ValidationIssues = len(report.Errors)

	for _, issue := range report.Errors {
		// Parser warnings were logged in step 1.
		if issue.Rule == validation.RuleParser {
			continue
		}
		log.Warn().Str("rule", issue.Rule).Str("field", issue.Field).Msg(issue.Error())
	}

	if !report.IsValid {
		return fail(fmt.Errorf("%w: %d error(s)", types.ErrValidationFailed, report.ErrorCount))
	}

	// =========================================================================
	// STEP 4: RENDER
	// =========================================================================

	lines, err := csvwriter.Render(stmt, csvOpts)
	if err != nil {
		return fail(fmt.Errorf("failed to render CSV: %w", err))
	}

	result.OutputFile = utils.OutputPath(c.inputPath, c.mainConfig.OutputDir, ".csv")
	if c.mainConfig.XLSX.Enabled {
		result.XLSXFile = utils.OutputPath(c.inputPath, c.mainConfig.OutputDir, ".xlsx")
	}
	result.Stats.Transactions = len(stmt.Transactions)

	if c.DryRun {
		log.Info().Str("output", result.OutputFile).Msg("Dry run: nothing written")
		result.Success = true
		result.Stats.ProcessingTime = time.Since(startTime)
		return result
	}

	// =========================================================================
	// STEP 5: WRITE OUTPUT FILES
	// =========================================================================

	if err := csvwriter.WriteFile(result.OutputFile, lines, csvOpts); err != nil {
		return fail(fmt.Errorf("failed to write CSV: %w", err))
	}
	log.Info().Str("output", result.OutputFile).Int("transactions", result.Stats.Transactions).Msg("Wrote CSV")

	if result.XLSXFile != "" {
		if err := xlsxwriter.WriteFile(result.XLSXFile, stmt, c.mainConfig.XLSXOptions()); err != nil {
			// A failed file leaves no output behind.
			if rmErr := os.Remove(result.OutputFile); rmErr != nil {
				log.Warn().Err(rmErr).Str("output", result.OutputFile).Msg("Failed to remove CSV after XLSX error")
			}
			return fail(fmt.Errorf("failed to write XLSX: %w", err))
		}
		log.Info().Str("output", result.XLSXFile).Msg("Wrote XLSX")
	}

	// =========================================================================
	// STEP 6: ARCHIVE INPUT
	// =========================================================================

	if c.mainConfig.ArchiveDir != "" {
		archived, err := c.files.ArchiveInputFile(c.inputPath)
		if err != nil {
			// The output is complete; a failed move only leaves the input
			// in place.
			log.Warn().Err(err).Msg("Failed to archive input file")
		} else {
			result.ArchivePath = archived
			log.Debug().Str("archive", archived).Msg("Archived input file")
		}
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)

	return result
}
