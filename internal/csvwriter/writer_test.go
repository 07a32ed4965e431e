package csvwriter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStatement() *types.Statement {
	return &types.Statement{
		Account: &types.AccountDetails{
			BankID:      "0341",
			AccountID:   "12345-6",
			AccountType: "CHECKING",
			StartDate:   "2023-06-01",
			EndDate:     "2023-06-30",
			Balance:     "2304.65",
			DateAsOf:    "2023-06-30",
		},
		Transactions: []types.Transaction{
			{Type: "DEBIT", Date: "2023-01-01", Amount: -50.5, ID: "T1", Name: "Store"},
			{Type: "CREDIT", Date: "2023-01-02 10:00:00", Amount: 1200, ID: "T2", Name: "Payroll", Memo: "January"},
		},
	}
}

func TestRender_CommaWithoutMemo(t *testing.T) {
	opts := Options{Delimiter: ",", LineEnding: LineEndingLF}

	lines, err := Render(sampleStatement(), opts)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"Type,Date,Amount,ID,Name",
		"DEBIT,2023-01-01,-50.50,T1,Store",
		"CREDIT,2023-01-02 10:00:00,1200.00,T2,Payroll",
	}, lines)
}

func TestRender_Defaults(t *testing.T) {
	lines, err := Render(sampleStatement(), DefaultOptions())

	require.NoError(t, err)
	assert.Equal(t, []string{
		"Type;Date;Amount;ID;Name;Memo",
		"DEBIT;2023-01-01;-50.50;T1;Store;",
		"CREDIT;2023-01-02 10:00:00;1200.00;T2;Payroll;January",
	}, lines)
}

func TestRender_AccountDetails(t *testing.T) {
	opts := DefaultOptions()
	opts.AccountDetails = true

	lines, err := Render(sampleStatement(), opts)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"Bank ID: 0341",
		"Account ID: 12345-6",
		"Account Type: CHECKING",
		"Start Date: 2023-06-01",
		"End Date: 2023-06-30",
		"Balance: 2304.65",
		"Date As Of: 2023-06-30",
		"",
		"Type;Date;Amount;ID;Name;Memo",
	}, lines[:9])
	assert.Len(t, lines, 11)
}

func TestRender_AccountDetailsAbsent(t *testing.T) {
	stmt := sampleStatement()
	stmt.Account = nil
	opts := DefaultOptions()
	opts.AccountDetails = true

	lines, err := Render(stmt, opts)

	require.NoError(t, err)
	assert.Equal(t, "Type;Date;Amount;ID;Name;Memo", lines[0])
}

func TestRender_NoTransactions(t *testing.T) {
	lines, err := Render(&types.Statement{Transactions: []types.Transaction{}}, DefaultOptions())

	require.NoError(t, err)
	assert.Equal(t, []string{"Type;Date;Amount;ID;Name;Memo"}, lines)
}

func TestRender_EmbeddedDelimiterNotQuoted(t *testing.T) {
	stmt := &types.Statement{Transactions: []types.Transaction{
		{Type: "DEBIT", Date: "2023-01-01", Amount: 1, ID: "X", Name: "Smith, John"},
	}}

	lines, err := Render(stmt, Options{Delimiter: ","})

	require.NoError(t, err)
	assert.Equal(t, "DEBIT,2023-01-01,1.00,X,Smith, John", lines[1])
}

func TestRender_QuoteFields(t *testing.T) {
	stmt := &types.Statement{Transactions: []types.Transaction{
		{Type: "DEBIT", Date: "2023-01-01", Amount: 1, ID: "X", Name: `Smith, "JJ"`},
	}}

	lines, err := Render(stmt, Options{Delimiter: ",", QuoteFields: true})

	require.NoError(t, err)
	assert.Equal(t, "Type,Date,Amount,ID,Name", lines[0])
	assert.Equal(t, `DEBIT,2023-01-01,1.00,X,"Smith, ""JJ"""`, lines[1])
}

func TestRender_UnsupportedDelimiter(t *testing.T) {
	_, err := Render(sampleStatement(), Options{Delimiter: "#"})

	assert.ErrorContains(t, err, "unsupported delimiter")
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{-50.5, "-50.50"},
		{0, "0.00"},
		{1200, "1200.00"},
		{0.125, "0.13"},
		{-0.004, "0.00"},
		{1234567.891, "1234567.89"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.amount))
	}
}

func TestResolveDelimiter(t *testing.T) {
	for input, want := range map[string]string{
		",": ",", "comma": ",",
		";": ";", "semicolon": ";",
		"|": "|", "pipe": "|",
		"\t": "\t", `\t`: "\t", "tab": "\t",
	} {
		got, err := ResolveDelimiter(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestWrite_LineEndings(t *testing.T) {
	var lf, crlf bytes.Buffer

	require.NoError(t, Write(&lf, []string{"a", "", "b"}, LineEndingLF))
	require.NoError(t, Write(&crlf, []string{"a", "b"}, LineEndingCRLF))

	assert.Equal(t, "a\n\nb\n", lf.String())
	assert.Equal(t, "a\r\nb\r\n", crlf.String())
	assert.Error(t, Write(&lf, nil, "cr"))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "june.csv")
	opts := DefaultOptions()

	lines, err := Render(sampleStatement(), opts)
	require.NoError(t, err)
	require.NoError(t, WriteFile(path, lines, opts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Type;Date;Amount;ID;Name;Memo\n"+
		"DEBIT;2023-01-01;-50.50;T1;Store;\n"+
		"CREDIT;2023-01-02 10:00:00;1200.00;T2;Payroll;January\n", string(data))
}

func TestWriteFile_SinkUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := WriteFile(filepath.Join(blocker, "june.csv"), []string{"x"}, DefaultOptions())

	assert.ErrorIs(t, err, types.ErrSinkUnavailable)
}
