// =============================================================================
// OFX to CSV Converter - Shared Types
// =============================================================================
//
// This package contains the statement model shared by the parser, the
// writers, and the validator. Keeping it here avoids import cycles between:
//   - ofxparser
//   - csvwriter / xlsxwriter
//   - validation
//   - converter
//
// =============================================================================

package types

// =============================================================================
// TRANSACTION TYPES
// =============================================================================

// Transaction represents one statement line item (one <STMTTRN> block).
// Fields that do not appear in the input keep their zero values.
type Transaction struct {
	// Type is the transaction type code, e.g. "DEBIT" or "CREDIT".
	Type string

	// Date is the posting date after reformatting. If the raw value could
	// not be parsed it holds the raw value (timezone suffix removed).
	Date string

	// Amount is the signed transaction amount.
	Amount float64

	// ID is the financial institution transaction ID (FITID).
	ID string

	// Name is the payee or counterparty name.
	Name string

	// Memo is the free-text note attached to the transaction.
	Memo string
}

// =============================================================================
// ACCOUNT DETAILS
// =============================================================================

// Account detail labels, in output order.
const (
	LabelBankID      = "Bank ID"
	LabelAccountID   = "Account ID"
	LabelAccountType = "Account Type"
	LabelStartDate   = "Start Date"
	LabelEndDate     = "End Date"
	LabelBalance     = "Balance"
	LabelDateAsOf    = "Date As Of"
)

// AccountDetails holds the account-level fields of a statement.
// Later occurrences of a tag overwrite earlier ones.
type AccountDetails struct {
	BankID      string
	AccountID   string
	AccountType string
	StartDate   string
	EndDate     string
	Balance     string
	DateAsOf    string
}

// Entry is a single labeled account detail.
type Entry struct {
	Label string
	Value string
}

// Entries returns the account details as label/value pairs in the fixed
// output order.
func (a *AccountDetails) Entries() []Entry {
	return []Entry{
		{LabelBankID, a.BankID},
		{LabelAccountID, a.AccountID},
		{LabelAccountType, a.AccountType},
		{LabelStartDate, a.StartDate},
		{LabelEndDate, a.EndDate},
		{LabelBalance, a.Balance},
		{LabelDateAsOf, a.DateAsOf},
	}
}

// =============================================================================
// STATEMENT
// =============================================================================

// Statement is the result of a single parse pass.
type Statement struct {
	// Account is nil unless account detail extraction was enabled.
	Account *AccountDetails

	// Transactions are in the order their closing markers appeared.
	Transactions []Transaction

	// Warnings are recoverable conditions found during the pass.
	Warnings []Warning
}

// Warning records a recoverable condition found while parsing.
type Warning struct {
	// Line is the 1-indexed physical line number in the input.
	Line int

	// Tag is the OFX tag the warning refers to, without brackets.
	Tag string

	// Value is the offending raw value.
	Value string

	// Message describes the condition.
	Message string
}
