// =============================================================================
// OFX to CSV Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
//
// CONFIGURATION SOURCES (later sources win):
//   1. Built-in defaults (see Defaults)
//   2. YAML file (--config, default "ofx2csv.yaml")
//   3. ".env" file in the working directory, if present
//   4. OFX2CSV_* environment variables
//
// A missing default config file is not an error: the defaults are used. A
// config file named explicitly on the command line must exist.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/csvwriter"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/logger"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/ofxparser"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/xlsxwriter"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file looked up when --config is not given.
const DefaultConfigFile = "ofx2csv.yaml"

// DefaultEnvFile is the dotenv file loaded after the YAML file.
const DefaultEnvFile = ".env"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "OFX2CSV_"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for *.ofx files when convert runs without file
	// arguments.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the generated files. When empty, each output file
	// is written next to its input.
	OutputDir string `yaml:"output_dir"`

	// ArchiveDir receives input files after a successful conversion.
	// When empty, inputs are left in place.
	ArchiveDir string `yaml:"archive_dir"`

	// ArchiveTimestampSubdirs files archived inputs under year/month/day
	// subdirectories of ArchiveDir.
	// Default: false
	ArchiveTimestampSubdirs bool `yaml:"archive_timestamp_subdirs"`

	// ReportsDir receives the processing summary and error log of a batch
	// run. When empty, no reports are written.
	ReportsDir string `yaml:"reports_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "trace", "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "console" or "json".
	// Default: "console"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// ContinueOnError keeps a batch running after a file fails.
	// Default: true
	ContinueOnError bool `yaml:"continue_on_error"`

	// Recursive makes directory discovery descend into subdirectories.
	// The archive directory is never scanned.
	// Default: false
	Recursive bool `yaml:"recursive"`

	// Charset is the character encoding of the input files.
	// Valid values: "utf-8", "windows-1252", "iso-8859-1"
	// Default: "utf-8"
	Charset string `yaml:"charset"`

	// SplitTags breaks lines holding several tags into one tag per line
	// before parsing. Needed for OFX files written on a single line.
	// Default: false
	SplitTags bool `yaml:"split_tags"`

	// StrictValidation turns validation warnings into file failures.
	// Default: false
	StrictValidation bool `yaml:"strict_validation"`

	// =========================================================================
	// COMPONENT SETTINGS
	// =========================================================================

	Parser ParserConfig `yaml:"parser"`
	CSV    CSVConfig    `yaml:"csv"`
	XLSX   XLSXConfig   `yaml:"xlsx"`

	// =========================================================================
	// TRANSFORMATION RULES
	// =========================================================================

	// TransformationRules are applied to the transaction fields before the
	// output is rendered.
	//
	// CUSTOMIZATION: Define rules for the fields Type, Name, Memo and ID.
	// Example:
	//   transformation_rules:
	//     - field: Name
	//       actions:
	//         - type: normalize_whitespace
	//         - type: uppercase
	TransformationRules []TransformationRule `yaml:"transformation_rules"`
}

// ParserConfig holds the settings of the OFX line parser.
type ParserConfig struct {
	// IncludeAccountDetails extracts BANKID, ACCTID and the other account
	// tags and writes them above the CSV header.
	// Default: false
	IncludeAccountDetails bool `yaml:"include_account_details"`

	// IncludeMemo adds the Memo column.
	// Default: true
	IncludeMemo bool `yaml:"include_memo"`

	// DateLayout formats date-only values, as a Go time layout.
	// Default: "2006-01-02"
	DateLayout string `yaml:"date_layout"`

	// DateTimeLayout formats values that carry a time of day.
	// Default: "2006-01-02 15:04:05"
	DateTimeLayout string `yaml:"date_time_layout"`

	// OnInvalidAmount is "abort" (fail the file) or "skip" (drop the
	// transaction and record a warning).
	// Default: "abort"
	OnInvalidAmount string `yaml:"on_invalid_amount"`
}

// CSVConfig holds the settings of the CSV writer.
type CSVConfig struct {
	// Delimiter is ",", ";", "|" or "\t" (names "comma", "semicolon",
	// "pipe" and "tab" are accepted too).
	// Default: ";"
	Delimiter string `yaml:"delimiter"`

	// LineEnding is "lf" or "crlf".
	// Default: "lf"
	LineEnding string `yaml:"line_ending"`

	// QuoteFields enables RFC 4180 quoting.
	// Default: false
	QuoteFields bool `yaml:"quote_fields"`
}

// XLSXConfig holds the settings of the XLSX export.
type XLSXConfig struct {
	// Enabled writes an .xlsx file next to every .csv file.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// SheetName names the transactions sheet.
	// Default: "Transactions"
	SheetName string `yaml:"sheet_name"`
}

// =============================================================================
// TRANSFORMATION RULE STRUCTURE
// =============================================================================

// Fields that transformation rules may target.
var TransformableFields = []string{"Type", "Name", "Memo", "ID"}

// TransformationRule defines a transformation to apply to a specific field.
type TransformationRule struct {
	// Field is one of TransformableFields.
	Field string `yaml:"field"`

	// Actions is a list of transformations to apply to this field.
	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction defines a single transformation action.
type TransformationAction struct {
	// Type is the type of transformation to apply. See the converter
	// package for the supported types.
	Type string `yaml:"type"`

	// Value is the parameter for the transformation.
	Value string `yaml:"value"`

	// Find is used for "replace" and "regex_replace" transformations.
	Find string `yaml:"find,omitempty"`

	// LookupTable is used for "lookup" transformations.
	// Example:
	//   lookup_table:
	//     DEBIT: Debito
	//     CREDIT: Credito
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Defaults returns the configuration used when nothing is configured.
func Defaults() *MainConfig {
	return &MainConfig{
		InputDir:        "./input",
		LogLevel:        "info",
		LogFormat:       logger.FormatConsole,
		ContinueOnError: true,
		Charset:         "utf-8",
		Parser: ParserConfig{
			IncludeMemo:     true,
			DateLayout:      ofxparser.DefaultDateLayout,
			DateTimeLayout:  ofxparser.DefaultDateTimeLayout,
			OnInvalidAmount: string(ofxparser.AmountAbort),
		},
		CSV: CSVConfig{
			Delimiter:  ";",
			LineEnding: csvwriter.LineEndingLF,
		},
		XLSX: XLSXConfig{
			SheetName: xlsxwriter.DefaultSheetName,
		},
	}
}

// applyMainConfigDefaults refills string settings that the YAML file set to
// an empty value.
func applyMainConfigDefaults(config *MainConfig) {
	defaults := Defaults()

	if config.InputDir == "" {
		config.InputDir = defaults.InputDir
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.LogFormat == "" {
		config.LogFormat = defaults.LogFormat
	}
	if config.Charset == "" {
		config.Charset = defaults.Charset
	}
	if config.Parser.DateLayout == "" {
		config.Parser.DateLayout = defaults.Parser.DateLayout
	}
	if config.Parser.DateTimeLayout == "" {
		config.Parser.DateTimeLayout = defaults.Parser.DateTimeLayout
	}
	if config.Parser.OnInvalidAmount == "" {
		config.Parser.OnInvalidAmount = defaults.Parser.OnInvalidAmount
	}
	if config.CSV.Delimiter == "" {
		config.CSV.Delimiter = defaults.CSV.Delimiter
	}
	if config.CSV.LineEnding == "" {
		config.CSV.LineEnding = defaults.CSV.LineEnding
	}
	if config.XLSX.SheetName == "" {
		config.XLSX.SheetName = defaults.XLSX.SheetName
	}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration.
//
// PARAMETERS:
//   - configPath: The path to the YAML configuration file.
//   - explicit: Whether the path was given by the user. A missing file is
//     only an error when it was.
//
// RETURNS:
//   - A pointer to the validated MainConfig.
//   - An error if a file cannot be read or parsed, or a value is invalid.
func LoadMainConfig(configPath string, explicit bool) (*MainConfig, error) {
	config := Defaults()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		// Keys missing from the file keep their default values.
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := loadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	applyMainConfigDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadEnvFile loads path into the process environment. Variables that are
// already set are not overwritten.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies the OFX2CSV_* environment variables.
func applyEnvOverrides(config *MainConfig) error {
	stringVars := map[string]*string{
		"INPUT_DIR":         &config.InputDir,
		"OUTPUT_DIR":        &config.OutputDir,
		"ARCHIVE_DIR":       &config.ArchiveDir,
		"REPORTS_DIR":       &config.ReportsDir,
		"LOG_LEVEL":         &config.LogLevel,
		"LOG_FORMAT":        &config.LogFormat,
		"CHARSET":           &config.Charset,
		"DELIMITER":         &config.CSV.Delimiter,
		"LINE_ENDING":       &config.CSV.LineEnding,
		"ON_INVALID_AMOUNT": &config.Parser.OnInvalidAmount,
		"XLSX_SHEET_NAME":   &config.XLSX.SheetName,
	}
	for key, target := range stringVars {
		if value, ok := os.LookupEnv(EnvPrefix + key); ok {
			*target = value
		}
	}

	boolVars := map[string]*bool{
		"CONTINUE_ON_ERROR":         &config.ContinueOnError,
		"RECURSIVE":                 &config.Recursive,
		"ARCHIVE_TIMESTAMP_SUBDIRS": &config.ArchiveTimestampSubdirs,
		"SPLIT_TAGS":                &config.SplitTags,
		"STRICT_VALIDATION":         &config.StrictValidation,
		"INCLUDE_ACCOUNT_DETAILS":   &config.Parser.IncludeAccountDetails,
		"INCLUDE_MEMO":              &config.Parser.IncludeMemo,
		"QUOTE_FIELDS":              &config.CSV.QuoteFields,
		"XLSX_ENABLED":              &config.XLSX.Enabled,
	}
	for key, target := range boolVars {
		value, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*target = parsed
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks that every setting holds a supported value.
func (c *MainConfig) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != logger.FormatConsole && c.LogFormat != logger.FormatJSON {
		return fmt.Errorf("unsupported log format: %q", c.LogFormat)
	}
	if !ofxparser.ValidCharset(c.Charset) {
		return fmt.Errorf("unsupported charset: %q", c.Charset)
	}
	switch ofxparser.AmountPolicy(c.Parser.OnInvalidAmount) {
	case ofxparser.AmountAbort, ofxparser.AmountSkip:
	default:
		return fmt.Errorf("unsupported on_invalid_amount policy: %q", c.Parser.OnInvalidAmount)
	}
	if _, err := csvwriter.ResolveDelimiter(c.CSV.Delimiter); err != nil {
		return err
	}
	if _, err := csvwriter.Terminator(c.CSV.LineEnding); err != nil {
		return err
	}

	for i, rule := range c.TransformationRules {
		if !isTransformableField(rule.Field) {
			return fmt.Errorf("transformation rule %d: unsupported field %q (allowed: %v)",
				i+1, rule.Field, TransformableFields)
		}
	}

	return nil
}

func isTransformableField(field string) bool {
	for _, f := range TransformableFields {
		if f == field {
			return true
		}
	}
	return false
}

// =============================================================================
// COMPONENT OPTIONS
// =============================================================================

// ParserOptions returns the line parser options for this configuration.
func (c *MainConfig) ParserOptions() ofxparser.Options {
	return ofxparser.Options{
		AccountDetails:  c.Parser.IncludeAccountDetails,
		IncludeMemo:     c.Parser.IncludeMemo,
		DateLayout:      c.Parser.DateLayout,
		DateTimeLayout:  c.Parser.DateTimeLayout,
		OnInvalidAmount: ofxparser.AmountPolicy(c.Parser.OnInvalidAmount),
		SplitTags:       c.SplitTags,
		Charset:         c.Charset,
	}
}

// CSVOptions returns the CSV writer options for this configuration.
func (c *MainConfig) CSVOptions() csvwriter.Options {
	return csvwriter.Options{
		Delimiter:      c.CSV.Delimiter,
		IncludeMemo:    c.Parser.IncludeMemo,
		AccountDetails: c.Parser.IncludeAccountDetails,
		QuoteFields:    c.CSV.QuoteFields,
		LineEnding:     c.CSV.LineEnding,
	}
}

// XLSXOptions returns the XLSX export options for this configuration.
func (c *MainConfig) XLSXOptions() xlsxwriter.Options {
	return xlsxwriter.Options{
		SheetName:      c.XLSX.SheetName,
		IncludeMemo:    c.Parser.IncludeMemo,
		AccountDetails: c.Parser.IncludeAccountDetails,
	}
}
