// =============================================================================
// OFX to CSV Converter - OFX Line Parser
// =============================================================================
//
// This module turns the flat tag lines of an OFX statement into a
// types.Statement. It is a single forward pass over the input: no lookahead,
// no backtracking, no nesting. Each trimmed line is matched against a fixed
// set of tags:
//
//   <STMTTRN>              opens a transaction
//   <TRNTYPE> <DTPOSTED>   set fields on the open transaction
//   <TRNAMT> <FITID>
//   <NAME> <MEMO>
//   </STMTTRN>             closes the transaction and appends it
//
//   <BANKID> <ACCTID>      account details, written regardless of whether a
//   <ACCTTYPE> <DTSTART>   transaction is open (only when AccountDetails is
//   <DTEND> <BALAMT>       enabled)
//   <DTASOF>
//
// Every other line is ignored.
//
// STATE MACHINE:
//   Idle --<STMTTRN>--> BuildingRecord --</STMTTRN>--> Idle
//
//   A field tag, or </STMTTRN>, seen while Idle is a malformed structure.
//   So is <STMTTRN> while BuildingRecord, or end of input while
//   BuildingRecord. No partial transaction is ever returned.
//
// =============================================================================

package ofxparser

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/types"
	"github.com/shopspring/decimal"
)

// =============================================================================
// TAGS
// =============================================================================

const (
	tagOpenTransaction  = "STMTTRN"
	tagCloseTransaction = "/STMTTRN"

	tagType   = "TRNTYPE"
	tagDate   = "DTPOSTED"
	tagAmount = "TRNAMT"
	tagID     = "FITID"
	tagName   = "NAME"
	tagMemo   = "MEMO"

	tagBankID      = "BANKID"
	tagAccountID   = "ACCTID"
	tagAccountType = "ACCTTYPE"
	tagStartDate   = "DTSTART"
	tagEndDate     = "DTEND"
	tagBalance     = "BALAMT"
	tagDateAsOf    = "DTASOF"
)

// maxLineLength bounds a single physical line. Single-line OFX exports put
// the whole document on one line.
const maxLineLength = 16 * 1024 * 1024

// =============================================================================
// OPTIONS
// =============================================================================

// AmountPolicy decides what happens to a transaction whose <TRNAMT> is not
// a valid decimal number.
type AmountPolicy string

const (
	// AmountAbort fails the whole parse pass.
	AmountAbort AmountPolicy = "abort"

	// AmountSkip drops the affected transaction and records a warning.
	AmountSkip AmountPolicy = "skip"
)

// Options controls which tags are recognized and how values are formatted.
type Options struct {
	// AccountDetails enables extraction of the account-level tags.
	AccountDetails bool

	// IncludeMemo enables the <MEMO> tag. When false <MEMO> lines are
	// ignored like any other unrecognized line.
	IncludeMemo bool

	// DateLayout is the Go layout used for date-only output values.
	// Default: "2006-01-02"
	DateLayout string

	// DateTimeLayout is the Go layout used when the input carries a time.
	// Default: "2006-01-02 15:04:05"
	DateTimeLayout string

	// OnInvalidAmount selects the policy for malformed amounts.
	// Default: AmountAbort
	OnInvalidAmount AmountPolicy

	// SplitTags splits each physical line before every '<' so that files
	// with several tags per line are inspected one tag at a time.
	SplitTags bool

	// Charset is the input character set. Empty means UTF-8.
	// See decoderFor for the supported names.
	Charset string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		IncludeMemo:     true,
		DateLayout:      DefaultDateLayout,
		DateTimeLayout:  DefaultDateTimeLayout,
		OnInvalidAmount: AmountAbort,
	}
}

func (o Options) withDefaults() Options {
	if o.DateLayout == "" {
		o.DateLayout = DefaultDateLayout
	}
	if o.DateTimeLayout == "" {
		o.DateTimeLayout = DefaultDateTimeLayout
	}
	if o.OnInvalidAmount == "" {
		o.OnInvalidAmount = AmountAbort
	}
	return o
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// ParseFile opens an OFX file and parses it.
//
// RETURNS:
//   - The parsed statement.
//   - An error wrapping types.ErrSourceUnavailable if the file cannot be
//     opened or read, or a *types.ParseError for structural and amount
//     failures. The statement is nil whenever an error is returned.
func ParseFile(path string, opts Options) (*types.Statement, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrSourceUnavailable, err)
	}
	defer file.Close()

	return ParseReader(file, opts)
}

// ParseReader reads all lines from r and parses them.
// The whole input is read before parsing starts, so a read failure never
// yields a partial result.
func ParseReader(r io.Reader, opts Options) (*types.Statement, error) {
	lines, err := ReadLines(r, opts.Charset)
	if err != nil {
		return nil, err
	}
	return Parse(lines, opts)
}

// ReadLines reads r line by line, decoding it from charset first.
func ReadLines(r io.Reader, charset string) ([]string, error) {
	decoded, err := decodeReader(r, charset)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read: %w", types.ErrSourceUnavailable, err)
	}

	return lines, nil
}

// Parse runs the parse pass over lines. It does no I/O and has no side
// effects, so identical input always yields an identical statement.
func Parse(lines []string, opts Options) (*types.Statement, error) {
	p := &pass{
		opts: opts.withDefaults(),
		stmt: &types.Statement{
			Transactions: []types.Transaction{},
		},
	}
	if p.opts.AccountDetails {
		p.stmt.Account = &types.AccountDetails{}
	}

	for i, raw := range lines {
		lineNo := i + 1
		for _, line := range logicalLines(raw, p.opts.SplitTags) {
			if err := p.handle(lineNo, strings.TrimSpace(line)); err != nil {
				return nil, err
			}
		}
	}

	if p.current != nil {
		return nil, &types.ParseError{
			Line: p.current.openedAt,
			Text: "<" + tagOpenTransaction + ">",
			Tag:  tagOpenTransaction,
			Err:  fmt.Errorf("%w: transaction is never closed", types.ErrMalformedStructure),
		}
	}

	return p.stmt, nil
}

// =============================================================================
// PARSE PASS
// =============================================================================

// txnBuilder is the transaction currently being assembled.
type txnBuilder struct {
	txn       types.Transaction
	openedAt  int
	discarded bool
}

// pass holds the state of one parse. current is nil while Idle.
type pass struct {
	opts    Options
	stmt    *types.Statement
	current *txnBuilder
}

func (p *pass) handle(lineNo int, line string) error {
	tag, ok := leadingTag(line)
	if !ok {
		return nil
	}

	switch tag {
	case tagOpenTransaction:
		if p.current != nil {
			return p.malformed(lineNo, line, tag, fmt.Sprintf("transaction opened on line %d is still open", p.current.openedAt))
		}
		p.current = &txnBuilder{openedAt: lineNo}
		return nil

	case tagCloseTransaction:
		if p.current == nil {
			return p.malformed(lineNo, line, tag, "no open transaction")
		}
		if !p.current.discarded {
			p.stmt.Transactions = append(p.stmt.Transactions, p.current.txn)
		}
		p.current = nil
		return nil

	case tagType, tagDate, tagAmount, tagID, tagName:
		return p.setField(lineNo, line, tag)

	case tagMemo:
		if !p.opts.IncludeMemo {
			return nil
		}
		return p.setField(lineNo, line, tag)

	case tagBankID, tagAccountID, tagAccountType, tagStartDate, tagEndDate, tagBalance, tagDateAsOf:
		if p.stmt.Account == nil {
			return nil
		}
		p.setAccountField(lineNo, line, tag)
		return nil
	}

	return nil
}

func (p *pass) setField(lineNo int, line, tag string) error {
	if p.current == nil {
		return p.malformed(lineNo, line, tag, "field outside of a transaction")
	}

	value := extractValue(line, tag)
	txn := &p.current.txn

	switch tag {
	case tagType:
		txn.Type = value
	case tagID:
		txn.ID = value
	case tagName:
		txn.Name = value
	case tagMemo:
		txn.Memo = value
	case tagDate:
		formatted, ok := FormatTransactionDate(value, p.opts.DateLayout, p.opts.DateTimeLayout)
		if !ok {
			p.warn(lineNo, tag, formatted, "date does not match any known layout; keeping raw value")
		}
		txn.Date = formatted
	case tagAmount:
		amount, err := parseAmount(value)
		if err != nil {
			if p.opts.OnInvalidAmount == AmountSkip {
				p.current.discarded = true
				p.warn(lineNo, tag, value, "invalid amount; transaction skipped")
				return nil
			}
			return &types.ParseError{
				Line: lineNo,
				Text: line,
				Tag:  tag,
				Err:  fmt.Errorf("%w: %w", types.ErrInvalidAmount, err),
			}
		}
		txn.Amount = amount
	}

	return nil
}

func (p *pass) setAccountField(lineNo int, line, tag string) {
	value := extractValue(line, tag)
	account := p.stmt.Account

	formatDate := func() string {
		formatted, ok := FormatAccountDate(value, p.opts.DateLayout)
		if !ok {
			p.warn(lineNo, tag, formatted, "date does not match layout yyyyMMdd; keeping raw value")
		}
		return formatted
	}

	switch tag {
	case tagBankID:
		account.BankID = value
	case tagAccountID:
		account.AccountID = value
	case tagAccountType:
		account.AccountType = value
	case tagBalance:
		account.Balance = value
	case tagStartDate:
		account.StartDate = formatDate()
	case tagEndDate:
		account.EndDate = formatDate()
	case tagDateAsOf:
		account.DateAsOf = formatDate()
	}
}

func (p *pass) warn(lineNo int, tag, value, msg string) {
	p.stmt.Warnings = append(p.stmt.Warnings, types.Warning{
		Line:    lineNo,
		Tag:     tag,
		Value:   value,
		Message: msg,
	})
}

func (p *pass) malformed(lineNo int, line, tag, detail string) error {
	return &types.ParseError{
		Line: lineNo,
		Text: line,
		Tag:  tag,
		Err:  fmt.Errorf("%w: %s", types.ErrMalformedStructure, detail),
	}
}

// =============================================================================
// LINE HELPERS
// =============================================================================

// leadingTag returns the name of the tag that starts line, e.g. "FITID" for
// "<FITID>123" or "/STMTTRN" for "</STMTTRN>".
func leadingTag(line string) (string, bool) {
	if !strings.HasPrefix(line, "<") {
		return "", false
	}
	end := strings.IndexByte(line, '>')
	if end < 2 {
		return "", false
	}
	return line[1:end], true
}

// extractValue strips the opening and, when present, the closing tag from
// line and trims what is left. OFX routinely omits closing tags on leaf
// elements.
func extractValue(line, tag string) string {
	value := strings.ReplaceAll(line, "<"+tag+">", "")
	value = strings.ReplaceAll(value, "</"+tag+">", "")
	return strings.TrimSpace(value)
}

// logicalLines splits a physical line before every '<' when split is set.
func logicalLines(line string, split bool) []string {
	if !split {
		return []string{line}
	}

	parts := make([]string, 0, 4)
	start := 0
	for i := 1; i < len(line); i++ {
		if line[i] == '<' {
			parts = append(parts, line[start:i])
			start = i
		}
	}
	return append(parts, line[start:])
}

// parseAmount parses a dot-decimal amount independent of locale.
func parseAmount(value string) (float64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) {
		return 0, fmt.Errorf("amount %q out of range", value)
	}
	return f, nil
}
