package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/config"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/converter"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/logger"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/testutil"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/types"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietContext() context.Context {
	return logger.WithContext(context.Background(), logger.NewWithWriter(&bytes.Buffer{}))
}

func TestRunConvert_Directory(t *testing.T) {
	dir := t.TempDir()
	testutil.CopyFixture(t, "statement", dir)
	testutil.CopyFixture(t, "empty", dir)
	cfg := config.Defaults()
	cfg.InputDir = dir
	cfg.ReportsDir = filepath.Join(dir, "reports")

	var out bytes.Buffer
	err := runConvert(quietContext(), &out, cfg, nil, "", false)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "No transactions found in empty.ofx.")
	assert.Contains(t, out.String(), "Transactions saved to CSV: "+filepath.Join(dir, "statement.csv"))
	assert.True(t, utils.FileExists(filepath.Join(dir, "empty.csv")))

	reports, err := os.ReadDir(cfg.ReportsDir)
	require.NoError(t, err)
	require.Len(t, reports, 1, "only the summary is written when nothing failed")
	assert.Contains(t, reports[0].Name(), "processing_summary_")
}

func TestRunConvert_Recursive(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "2023", "06")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	testutil.CopyFixture(t, "statement", nested)
	cfg := config.Defaults()
	cfg.ArchiveDir = filepath.Join(dir, "archive")

	var out bytes.Buffer
	require.NoError(t, runConvert(quietContext(), &out, cfg, nil, dir, false))
	assert.Equal(t, "No OFX files found.\n", out.String(), "flat discovery ignores subdirectories")

	cfg.Recursive = true
	out.Reset()
	require.NoError(t, runConvert(quietContext(), &out, cfg, nil, dir, false))
	assert.Contains(t, out.String(), "Transactions saved to CSV: "+filepath.Join(nested, "statement.csv"))
	assert.True(t, utils.FileExists(filepath.Join(dir, "archive", "statement.ofx")))

	// A second run finds nothing: the archived input is not picked up again.
	out.Reset()
	require.NoError(t, runConvert(quietContext(), &out, cfg, nil, dir, false))
	assert.Equal(t, "No OFX files found.\n", out.String())
}

func TestRunConvert_NoFiles(t *testing.T) {
	cfg := config.Defaults()

	var out bytes.Buffer
	err := runConvert(quietContext(), &out, cfg, nil, t.TempDir(), false)

	require.NoError(t, err)
	assert.Equal(t, "No OFX files found.\n", out.String())
}

func TestRunConvert_FailureContinues(t *testing.T) {
	dir := t.TempDir()
	bad := testutil.CopyFixture(t, "malformed", dir)
	good := testutil.CopyFixture(t, "statement", dir)
	cfg := config.Defaults()
	cfg.ReportsDir = filepath.Join(dir, "reports")

	var out bytes.Buffer
	err := runConvert(quietContext(), &out, cfg, []string{bad, good}, "", false)

	assert.EqualError(t, err, "1 of 2 file(s) failed")
	assert.Contains(t, out.String(), "✗ malformed.ofx")
	assert.True(t, utils.FileExists(filepath.Join(dir, "statement.csv")))

	reports, err := os.ReadDir(cfg.ReportsDir)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestRunConvert_StopOnError(t *testing.T) {
	dir := t.TempDir()
	bad := testutil.CopyFixture(t, "malformed", dir)
	good := testutil.CopyFixture(t, "statement", dir)
	cfg := config.Defaults()
	cfg.ContinueOnError = false

	err := runConvert(quietContext(), &bytes.Buffer{}, cfg, []string{bad, good}, "", false)

	assert.Error(t, err)
	assert.False(t, utils.FileExists(filepath.Join(dir, "statement.csv")))
}

func TestRunConvert_DryRun(t *testing.T) {
	dir := t.TempDir()
	input := testutil.CopyFixture(t, "statement", dir)
	cfg := config.Defaults()
	cfg.ReportsDir = filepath.Join(dir, "reports")

	var out bytes.Buffer
	err := runConvert(quietContext(), &out, cfg, []string{input}, "", true)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "(dry run, 3 transaction(s))")
	assert.False(t, utils.FileExists(filepath.Join(dir, "statement.csv")))
	assert.False(t, utils.FileExists(cfg.ReportsDir))
}

func TestPrintTransactions(t *testing.T) {
	var out bytes.Buffer

	printTransactions(&out, []types.Transaction{
		{Type: "DEBIT", Date: "2023-01-01", Amount: -50.5, ID: "T1", Name: "Store"},
	})

	assert.Equal(t, "Type: DEBIT, Date: 2023-01-01, Amount: -50.50, ID: T1, Name: Store, Memo: \n", out.String())
}

func TestErrorLogEntries(t *testing.T) {
	parseErr := &types.ParseError{
		Line: 3,
		Text: "<TRNTYPE>DEBIT",
		Tag:  "TRNTYPE",
		Err:  fmt.Errorf("%w: field outside of a transaction", types.ErrMalformedStructure),
	}

	entries := errorLogEntries(converter.Result{
		FilePath: "/in/june.ofx",
		Error:    fmt.Errorf("failed to parse OFX: %w", parseErr),
	})

	require.Len(t, entries, 1)
	assert.Equal(t, "june.ofx", entries[0].FileName)
	assert.Equal(t, "malformed structure", entries[0].ErrorType)
	assert.Equal(t, 3, entries[0].LineNumber)
	assert.Equal(t, "TRNTYPE", entries[0].FieldName)
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "source unavailable", errorType(fmt.Errorf("x: %w", types.ErrSourceUnavailable)))
	assert.Equal(t, "context canceled", errorType(context.Canceled))
	assert.Equal(t, "conversion error", errorType(fmt.Errorf("other")))
}

func TestPrintInspection(t *testing.T) {
	dir := t.TempDir()
	input := testutil.CopyFixture(t, "statement", dir)
	cfg := config.Defaults()
	cfg.Parser.IncludeAccountDetails = true

	conv, err := converter.New(input, cfg)
	require.NoError(t, err)
	conv.DryRun = true
	result := conv.Run(quietContext())
	require.NoError(t, result.Error)

	var out bytes.Buffer
	printInspection(&out, result)

	assert.Contains(t, out.String(), "  Bank ID: 0341\n")
	assert.Contains(t, out.String(), "Transactions (3):\n")
	assert.Contains(t, out.String(), "Type: CREDIT, Date: 2023-06-15 12:00:00, Amount: 2500.00, ID: 20230615002, Name: Salario, Memo: \n")
	assert.Contains(t, out.String(), "Would write: "+filepath.Join(dir, "statement.csv"))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "OFX to CSV Converter\nVersion:    "+Version)
}
