// =============================================================================
// OFX to CSV Converter - CSV Writer
// =============================================================================
//
// This module renders a parsed statement as delimited text.
//
// OUTPUT LAYOUT:
//   Bank ID: 0341                      \
//   Account ID: 12345-6                 | only when account details are
//   ...                                 | enabled and present
//   Date As Of: 2023-06-30             /
//   <blank line>
//   Type;Date;Amount;ID;Name;Memo      header (Memo is optional)
//   DEBIT;2023-06-05;-120.35;...       one row per transaction
//
// QUOTING:
//   Fields are NOT quoted by default. A delimiter inside a field (e.g. a
//   comma in a payee name) shifts the row's columns. The validation package
//   flags such rows. Setting QuoteFields switches to RFC 4180 quoting through
//   encoding/csv; this changes the output format and must be opted into.
//
// =============================================================================

package csvwriter

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/types"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/pkg/utils"
	"github.com/shopspring/decimal"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Line endings accepted by Options.LineEnding.
const (
	LineEndingLF   = "lf"
	LineEndingCRLF = "crlf"
)

// Column names, in output order.
const (
	ColumnType   = "Type"
	ColumnDate   = "Date"
	ColumnAmount = "Amount"
	ColumnID     = "ID"
	ColumnName   = "Name"
	ColumnMemo   = "Memo"
)

// Options controls the rendered layout.
type Options struct {
	// Delimiter separates fields. One of ",", ";", "|" or "\t".
	// Default: ";"
	Delimiter string

	// IncludeMemo adds the Memo column.
	// Default: true
	IncludeMemo bool

	// AccountDetails emits the "Key: value" block when the statement has
	// account details.
	AccountDetails bool

	// QuoteFields enables RFC 4180 quoting of fields.
	QuoteFields bool

	// LineEnding is "lf" or "crlf".
	// Default: "lf"
	LineEnding string
}

// DefaultOptions returns the layout used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Delimiter:   ";",
		IncludeMemo: true,
		LineEnding:  LineEndingLF,
	}
}

// ResolveDelimiter maps a configured delimiter, or one of its names, to the
// delimiter string.
func ResolveDelimiter(value string) (string, error) {
	switch value {
	case ",", "comma":
		return ",", nil
	case ";", "semicolon":
		return ";", nil
	case "|", "pipe":
		return "|", nil
	case "\t", "\\t", "tab":
		return "\t", nil
	default:
		return "", fmt.Errorf("unsupported delimiter: %q", value)
	}
}

// Terminator returns the byte sequence for a line ending name.
func Terminator(lineEnding string) (string, error) {
	switch lineEnding {
	case "", LineEndingLF:
		return "\n", nil
	case LineEndingCRLF:
		return "\r\n", nil
	default:
		return "", fmt.Errorf("unsupported line ending: %q", lineEnding)
	}
}

// =============================================================================
// RENDERING
// =============================================================================

// Header returns the column names for opts.
func Header(opts Options) []string {
	columns := []string{ColumnType, ColumnDate, ColumnAmount, ColumnID, ColumnName}
	if opts.IncludeMemo {
		columns = append(columns, ColumnMemo)
	}
	return columns
}

// Fields returns the column values of one transaction for opts.
func Fields(txn types.Transaction, opts Options) []string {
	fields := []string{txn.Type, txn.Date, FormatAmount(txn.Amount), txn.ID, txn.Name}
	if opts.IncludeMemo {
		fields = append(fields, txn.Memo)
	}
	return fields
}

// FormatAmount formats an amount with exactly two decimals and a dot
// separator, whatever the process locale.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// Render produces the output lines for stmt, without line terminators.
func Render(stmt *types.Statement, opts Options) ([]string, error) {
	delimiter, err := ResolveDelimiter(opts.Delimiter)
	if err != nil {
		return nil, err
	}
	opts.Delimiter = delimiter

	lines := make([]string, 0, len(stmt.Transactions)+10)

	if opts.AccountDetails && stmt.Account != nil {
		for _, entry := range stmt.Account.Entries() {
			lines = append(lines, entry.Label+": "+entry.Value)
		}
		lines = append(lines, "")
	}

	header, err := joinFields(Header(opts), opts)
	if err != nil {
		return nil, err
	}
	lines = append(lines, header)

	for _, txn := range stmt.Transactions {
		row, err := joinFields(Fields(txn, opts), opts)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", txn.ID, err)
		}
		lines = append(lines, row)
	}

	return lines, nil
}

func joinFields(fields []string, opts Options) (string, error) {
	if !opts.QuoteFields {
		return strings.Join(fields, opts.Delimiter), nil
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	w.Comma = rune(opts.Delimiter[0])
	if err := w.Write(fields); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// =============================================================================
// OUTPUT
// =============================================================================

// Write writes lines to w, terminating each with lineEnding.
func Write(w io.Writer, lines []string, lineEnding string) error {
	terminator, err := Terminator(lineEnding)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if _, err := bw.WriteString(terminator); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes lines to path atomically: either the complete file is in
// place afterwards or path is left untouched.
func WriteFile(path string, lines []string, opts Options) error {
	err := utils.WriteFileAtomic(path, func(w io.Writer) error {
		return Write(w, lines, opts.LineEnding)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrSinkUnavailable, err)
	}
	return nil
}
