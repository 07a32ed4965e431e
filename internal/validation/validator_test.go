package validation

import (
	"testing"

	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAll_Clean(t *testing.T) {
	stmt := &types.Statement{Transactions: []types.Transaction{
		{Type: "DEBIT", Date: "2023-01-01", Amount: -50.5, ID: "T1", Name: "Store"},
		{Type: "CREDIT", Date: "2023-01-02", Amount: 10, ID: "T2", Name: "Refund"},
	}}

	result := NewValidator(ValidationOptions{Delimiter: ";"}).ValidateAll(stmt)

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.TransactionsValidated)
}

func TestValidateAll_RequiredFields(t *testing.T) {
	stmt := &types.Statement{Transactions: []types.Transaction{
		{Amount: 1, Name: "No type, id or date"},
	}}

	result := NewValidator(ValidationOptions{}).ValidateAll(stmt)

	require.Len(t, result.Errors, 3)
	for _, issue := range result.Errors {
		assert.Equal(t, RuleRequired, issue.Rule)
		assert.Equal(t, SeverityWarning, issue.Severity)
		assert.Equal(t, 1, issue.Transaction)
	}
	assert.True(t, result.IsValid)
	assert.Equal(t, 3, result.WarningCount)
}

func TestValidateAll_DuplicateID(t *testing.T) {
	stmt := &types.Statement{Transactions: []types.Transaction{
		{Type: "DEBIT", Date: "2023-01-01", ID: "T1"},
		{Type: "DEBIT", Date: "2023-01-01", ID: "T2"},
		{Type: "DEBIT", Date: "2023-01-01", ID: "T1"},
	}}

	result := NewValidator(ValidationOptions{}).ValidateAll(stmt)

	require.Len(t, result.Errors, 1)
	issue := result.Errors[0]
	assert.Equal(t, RuleDuplicateID, issue.Rule)
	assert.Equal(t, 3, issue.Transaction)
	assert.Equal(t, "duplicate of transaction 1", issue.Message)
}

func TestValidateAll_EmbeddedDelimiter(t *testing.T) {
	stmt := &types.Statement{Transactions: []types.Transaction{
		{Type: "DEBIT", Date: "2023-01-01", ID: "T1", Name: "Smith, John", Memo: "a,b"},
	}}

	withoutMemo := NewValidator(ValidationOptions{Delimiter: ","}).ValidateAll(stmt)
	withMemo := NewValidator(ValidationOptions{Delimiter: ",", IncludeMemo: true}).ValidateAll(stmt)
	quoted := NewValidator(ValidationOptions{Delimiter: ",", IncludeMemo: true, QuoteFields: true}).ValidateAll(stmt)

	require.Len(t, withoutMemo.Errors, 1)
	assert.Equal(t, "Name", withoutMemo.Errors[0].Field)
	assert.Equal(t, RuleEmbeddedDelimiter, withoutMemo.Errors[0].Rule)
	assert.Len(t, withMemo.Errors, 2)
	assert.Empty(t, quoted.Errors)
}

func TestValidateAll_ParserWarnings(t *testing.T) {
	stmt := &types.Statement{
		Transactions: []types.Transaction{},
		Warnings: []types.Warning{
			{Line: 7, Tag: "DTPOSTED", Value: "abcdefgh", Message: "unrecognized date, kept as is"},
		},
	}

	result := NewValidator(ValidationOptions{}).ValidateAll(stmt)

	require.Len(t, result.Errors, 1)
	issue := result.Errors[0]
	assert.Equal(t, RuleParser, issue.Rule)
	assert.Equal(t, 7, issue.Line)
	assert.Equal(t, "[WARNING] Line 7, Field 'DTPOSTED': unrecognized date, kept as is (value: 'abcdefgh')", issue.Error())
}

func TestValidateAll_Strict(t *testing.T) {
	stmt := &types.Statement{Transactions: []types.Transaction{
		{Type: "DEBIT", Date: "2023-01-01"},
	}}

	result := NewValidator(ValidationOptions{TreatWarningsAsErrors: true}).ValidateAll(stmt)

	assert.False(t, result.IsValid)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, SeverityError, result.Errors[0].Severity)
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "No validation errors.", FormatErrors(nil))

	out := FormatErrors([]*ValidationError{{
		Severity:    SeverityWarning,
		Field:       "ID",
		Value:       "T1",
		Message:     "duplicate of transaction 1",
		Transaction: 2,
	}})

	assert.Contains(t, out, "Validation completed with 1 issue(s)")
	assert.Contains(t, out, "1. [WARNING] Transaction 2, Field 'ID': duplicate of transaction 1 (value: 'T1')")
}
