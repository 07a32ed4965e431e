// =============================================================================
// OFX to CSV Converter - Validation Engine
// =============================================================================
//
// This module checks a parsed statement for conditions that produce a CSV
// file which is syntactically fine but likely to be wrong for its reader:
//   - Required fields missing (Type, ID, Date)
//   - Duplicate transaction IDs (FITID)
//   - Field values containing the output delimiter (unquoted output only)
//   - Problems the parser recovered from (unparseable dates, skipped amounts)
//
// ERROR HANDLING:
//   - Issues are collected, not returned one at a time
//   - Each issue carries its context (transaction, field, value, line)
//   - Issues are warnings by default; strict mode promotes them to errors,
//     which fail the file
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names.
const (
	RuleRequired          = "required"
	RuleDuplicateID       = "duplicate_id"
	RuleEmbeddedDelimiter = "embedded_delimiter"
	RuleParser            = "parser"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation issue.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Field is the name of the CSV column (or OFX tag for parser issues).
	Field string

	// Value is the offending value.
	Value string

	// Rule is the check that was violated.
	Rule string

	// Message is a human-readable description.
	Message string

	// Transaction is the 1-indexed position of the transaction in the
	// statement, or 0 when the issue is not tied to one.
	Transaction int

	// Line is the input line number, when known.
	Line int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var location string
	switch {
	case e.Transaction > 0:
		location = fmt.Sprintf("Transaction %d", e.Transaction)
	case e.Line > 0:
		location = fmt.Sprintf("Line %d", e.Line)
	default:
		location = "Statement"
	}

	return fmt.Sprintf("[%s] %s, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		location,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no errors.
	IsValid bool

	// Errors contains all issues, warnings included.
	Errors []*ValidationError

	// ErrorCount is the number of errors.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// TransactionsValidated is the number of transactions checked.
	TransactionsValidated int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// Delimiter is the resolved output delimiter. Empty disables the
	// embedded delimiter check.
	Delimiter string

	// QuoteFields reports whether the output quotes its fields, in which
	// case embedded delimiters are harmless.
	QuoteFields bool

	// IncludeMemo adds the Memo column to the embedded delimiter check.
	IncludeMemo bool

	// TreatWarningsAsErrors promotes every issue to an error.
	// Default: false
	TreatWarningsAsErrors bool
}

// Validator checks statements.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a new Validator instance.
func NewValidator(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// ValidateAll checks stmt and returns every issue found.
func (v *Validator) ValidateAll(stmt *types.Statement) *ValidationResult {
	var issues []*ValidationError

	for _, w := range stmt.Warnings {
		issues = append(issues, &ValidationError{
			Field:   w.Tag,
			Value:   w.Value,
			Rule:    RuleParser,
			Message: w.Message,
			Line:    w.Line,
		})
	}

	seen := make(map[string]int, len(stmt.Transactions))
	for i, txn := range stmt.Transactions {
		position := i + 1
		issues = append(issues, v.validateTransaction(position, txn)...)

		if txn.ID == "" {
			continue
		}
		if first, ok := seen[txn.ID]; ok {
			issues = append(issues, &ValidationError{
				Field:       "ID",
				Value:       txn.ID,
				Rule:        RuleDuplicateID,
				Message:     fmt.Sprintf("duplicate of transaction %d", first),
				Transaction: position,
			})
			continue
		}
		seen[txn.ID] = position
	}

	result := &ValidationResult{
		Errors:                issues,
		TransactionsValidated: len(stmt.Transactions),
	}
	for _, issue := range issues {
		if v.options.TreatWarningsAsErrors {
			issue.Severity = SeverityError
		} else {
			issue.Severity = SeverityWarning
		}

		if issue.Severity == SeverityError {
			result.ErrorCount++
		} else {
			result.WarningCount++
		}
	}
	result.IsValid = result.ErrorCount == 0

	return result
}

func (v *Validator) validateTransaction(position int, txn types.Transaction) []*ValidationError {
	var issues []*ValidationError

	required := []struct{ field, value string }{
		{"Type", txn.Type},
		{"ID", txn.ID},
		{"Date", txn.Date},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			issues = append(issues, &ValidationError{
				Field:       r.field,
				Rule:        RuleRequired,
				Message:     "required field is empty",
				Transaction: position,
			})
		}
	}

	if v.options.Delimiter == "" || v.options.QuoteFields {
		return issues
	}

	text := []struct{ field, value string }{
		{"Type", txn.Type},
		{"Date", txn.Date},
		{"ID", txn.ID},
		{"Name", txn.Name},
	}
	if v.options.IncludeMemo {
		text = append(text, struct{ field, value string }{"Memo", txn.Memo})
	}
	for _, f := range text {
		if strings.Contains(f.value, v.options.Delimiter) {
			issues = append(issues, &ValidationError{
				Field:       f.field,
				Value:       f.value,
				Rule:        RuleEmbeddedDelimiter,
				Message:     fmt.Sprintf("value contains the delimiter %q and will shift the columns", v.options.Delimiter),
				Transaction: position,
			})
		}
	}

	return issues
}

// =============================================================================
// ERROR REPORTING
// =============================================================================

// FormatErrors formats validation issues for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d issue(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
