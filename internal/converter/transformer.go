// =============================================================================
// OFX to CSV Converter - Transformation Engine
// =============================================================================
//
// This module rewrites transaction text fields before they are rendered.
// Rules come from the transformation_rules section of the configuration and
// may target Type, Name, Memo and ID. Amount and Date are never transformed;
// their formatting is owned by the parser and the writers.
//
// TRANSFORMATION TYPES:
//   - String manipulations (prepend, append, trim, case conversion)
//   - Padding and substrings
//   - Lookup table replacements
//   - Regular expression replacements
//   - Defaults for empty fields
//
// COMMON USE CASES:
//   - Translating type codes (DEBIT -> Debito) with a lookup table
//   - Cleaning payee names (normalize_whitespace, title_case)
//   - Prefixing transaction IDs with the account number
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/config"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	digitRun      = regexp.MustCompile(`\d+`)
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer handles field value transformations.
type Transformer struct {
	rules []config.TransformationRule

	// patterns caches the compiled regex of every regex_replace action,
	// keyed by its pattern.
	patterns map[string]*regexp.Regexp
}

// NewTransformer creates a new Transformer with the given rules.
// It fails on unknown action types and invalid regular expressions, so a
// bad rule is reported before any file is converted.
func NewTransformer(rules []config.TransformationRule) (*Transformer, error) {
	t := &Transformer{
		rules:    rules,
		patterns: make(map[string]*regexp.Regexp),
	}

	for _, rule := range rules {
		for _, action := range rule.Actions {
			if !supportedActions[action.Type] {
				return nil, fmt.Errorf("field %s: unknown transformation type: %s", rule.Field, action.Type)
			}
			if action.Type != "regex_replace" || action.Find == "" {
				continue
			}
			re, err := regexp.Compile(action.Find)
			if err != nil {
				return nil, fmt.Errorf("field %s: invalid regex pattern: %w", rule.Field, err)
			}
			t.patterns[action.Find] = re
		}
	}

	return t, nil
}

var supportedActions = map[string]bool{
	"prepend_string":       true,
	"append_string":        true,
	"trim":                 true,
	"trim_left":            true,
	"trim_right":           true,
	"uppercase":            true,
	"lowercase":            true,
	"title_case":           true,
	"replace":              true,
	"regex_replace":        true,
	"substring":            true,
	"pad_zeros_to_length":  true,
	"remove_leading_zeros": true,
	"lookup":               true,
	"lookup_with_default":  true,
	"if_empty_use_default": true,
	"if_empty_use_field":   true,
	"extract_digits":       true,
	"normalize_whitespace": true,
}

// =============================================================================
// TRANSFORMATION FUNCTIONS
// =============================================================================

// Transform applies every rule for fieldName to value, in rule order.
//
// PARAMETERS:
//   - fieldName: The name of the field being transformed.
//   - value: The current value of the field.
//   - allFields: All text fields of the transaction, before transformation.
func (t *Transformer) Transform(fieldName, value string, allFields map[string]string) (string, error) {
	result := value
	for _, rule := range t.rules {
		if rule.Field != fieldName {
			continue
		}
		for _, action := range rule.Actions {
			var err error
			result, err = t.apply(result, action, allFields)
			if err != nil {
				return "", fmt.Errorf("transformation '%s' failed: %w", action.Type, err)
			}
		}
	}
	return result, nil
}

// apply applies a single transformation action.
func (t *Transformer) apply(value string, action config.TransformationAction, allFields map[string]string) (string, error) {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "prepend_string":
		return action.Value + value, nil

	case "append_string":
		return value + action.Value, nil

	case "trim":
		return strings.TrimSpace(value), nil

	case "trim_left":
		if action.Value != "" {
			return strings.TrimLeft(value, action.Value), nil
		}
		return strings.TrimLeft(value, " \t\n\r"), nil

	case "trim_right":
		if action.Value != "" {
			return strings.TrimRight(value, action.Value), nil
		}
		return strings.TrimRight(value, " \t\n\r"), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	case "lowercase":
		return strings.ToLower(value), nil

	case "title_case":
		// EXAMPLE: "PADARIA CENTRAL" -> "Padaria Central"
		return cases.Title(language.Und).String(value), nil

	case "replace":
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case "regex_replace":
		// EXAMPLE:
		//   Input: "PIX 12345 JOAO"
		//   Action: regex_replace with find "\\d+ " and value ""
		//   Output: "PIX JOAO"
		if action.Find == "" {
			return value, nil
		}
		return t.patterns[action.Find].ReplaceAllString(value, action.Value), nil

	case "substring":
		// VALUE FORMAT: "start,end" (0-indexed runes, end is exclusive)
		parts := strings.Split(action.Value, ",")
		if len(parts) != 2 {
			return "", fmt.Errorf("substring expects \"start,end\", got %q", action.Value)
		}
		start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return "", fmt.Errorf("substring start: %w", err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return "", fmt.Errorf("substring end: %w", err)
		}

		runes := []rune(value)
		start = max(start, 0)
		end = min(end, len(runes))
		if start >= end {
			return "", nil
		}
		return string(runes[start:end]), nil

	// =========================================================================
	// PADDING
	// =========================================================================

	case "pad_zeros_to_length":
		// EXAMPLE: "123" with value "8" -> "00000123"
		targetLength, err := strconv.Atoi(action.Value)
		if err != nil || targetLength <= 0 {
			return "", fmt.Errorf("pad_zeros_to_length expects a positive length, got %q", action.Value)
		}
		return PadLeft(value, targetLength, '0'), nil

	case "remove_leading_zeros":
		result := strings.TrimLeft(value, "0")
		if result == "" && value != "" {
			return "0", nil
		}
		return result, nil

	// =========================================================================
	// LOOKUP TABLE REPLACEMENTS
	// =========================================================================

	case "lookup":
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return value, nil

	case "lookup_with_default":
		// The default value is specified in action.Value.
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return action.Value, nil

	// =========================================================================
	// EMPTY VALUES
	// =========================================================================

	case "if_empty_use_default":
		if strings.TrimSpace(value) == "" {
			return action.Value, nil
		}
		return value, nil

	case "if_empty_use_field":
		// VALUE: The name of the field to use, e.g. "Memo".
		if strings.TrimSpace(value) == "" {
			if otherValue, exists := allFields[action.Value]; exists {
				return otherValue, nil
			}
		}
		return value, nil

	// =========================================================================
	// CLEANUP
	// =========================================================================

	case "extract_digits":
		return strings.Join(digitRun.FindAllString(value, -1), ""), nil

	case "normalize_whitespace":
		return strings.TrimSpace(whitespaceRun.ReplaceAllString(value, " ")), nil

	default:
		return "", fmt.Errorf("unknown transformation type: %s", action.Type)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// PadLeft pads a string with a character on the left to reach the target
// length in runes.
func PadLeft(s string, length int, padChar rune) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}

// =============================================================================
// STATEMENT TRANSFORMATION
// =============================================================================

// TransformTransaction applies all rules to the text fields of txn.
// Every rule sees the field values as they were before any rule ran.
func (t *Transformer) TransformTransaction(txn *types.Transaction) error {
	if len(t.rules) == 0 {
		return nil
	}

	fields := map[string]*string{
		"Type": &txn.Type,
		"Name": &txn.Name,
		"Memo": &txn.Memo,
		"ID":   &txn.ID,
	}
	original := make(map[string]string, len(fields))
	for name, ptr := range fields {
		original[name] = *ptr
	}

	for _, name := range config.TransformableFields {
		transformed, err := t.Transform(name, original[name], original)
		if err != nil {
			return fmt.Errorf("error transforming field '%s': %w", name, err)
		}
		*fields[name] = transformed
	}
	return nil
}

// TransformStatement applies all rules to every transaction of stmt.
func (t *Transformer) TransformStatement(stmt *types.Statement) error {
	for i := range stmt.Transactions {
		if err := t.TransformTransaction(&stmt.Transactions[i]); err != nil {
			return fmt.Errorf("transaction %d (%s): %w", i+1, stmt.Transactions[i].ID, err)
		}
	}
	return nil
}
