// =============================================================================
// OFX to CSV Converter - XLSX Export
// =============================================================================
//
// This module writes a parsed statement to an XLSX workbook next to the CSV
// output. The workbook holds the same columns as the CSV file, with Amount
// stored as a number (format "0.00") rather than text.
//
// WORKBOOK LAYOUT:
//
//   | Type  | Date       | Amount  | ID | Name  | Memo |   <- sheet "Transactions"
//   |-------|------------|---------|----|-------|------|
//   | DEBIT | 2023-01-01 | -50.50  | T1 | Store |      |
//
//   | Field      | Value |                               <- sheet "Account"
//   |------------|-------|                                  (only with account
//   | Bank ID    | 0341  |                                   details enabled)
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"io"

	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/csvwriter"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/types"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/pkg/utils"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// OPTIONS
// =============================================================================

// DefaultSheetName is the name of the transactions sheet.
const DefaultSheetName = "Transactions"

// AccountSheetName is the name of the account details sheet.
const AccountSheetName = "Account"

// Options controls the workbook layout.
type Options struct {
	// SheetName is the name of the transactions sheet.
	// Default: "Transactions"
	SheetName string

	// IncludeMemo adds the Memo column.
	IncludeMemo bool

	// AccountDetails adds the "Account" sheet when the statement has
	// account details.
	AccountDetails bool
}

// amountNumFmt is the built-in Excel number format "0.00".
const amountNumFmt = 2

// =============================================================================
// WORKBOOK GENERATION
// =============================================================================

// Build creates the workbook for stmt. The caller must Close it.
func Build(stmt *types.Statement, opts Options) (*excelize.File, error) {
	if opts.SheetName == "" {
		opts.SheetName = DefaultSheetName
	}

	f := excelize.NewFile()

	// A new workbook starts with a single "Sheet1".
	if err := f.SetSheetName("Sheet1", opts.SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := writeTransactions(f, stmt, opts); err != nil {
		f.Close()
		return nil, err
	}

	if opts.AccountDetails && stmt.Account != nil {
		if err := writeAccount(f, stmt.Account); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

func writeTransactions(f *excelize.File, stmt *types.Statement, opts Options) error {
	sheet := opts.SheetName
	header := csvwriter.Header(csvwriter.Options{IncludeMemo: opts.IncludeMemo})

	headerRow := make([]interface{}, len(header))
	for i, name := range header {
		headerRow[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, boldStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, txn := range stmt.Transactions {
		row := []interface{}{txn.Type, txn.Date, txn.Amount, txn.ID, txn.Name}
		if opts.IncludeMemo {
			row = append(row, txn.Memo)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write transaction %s: %w", txn.ID, err)
		}
	}

	if len(stmt.Transactions) > 0 {
		amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: amountNumFmt})
		if err != nil {
			return fmt.Errorf("failed to create amount style: %w", err)
		}
		lastAmount, err := excelize.CoordinatesToCellName(3, len(stmt.Transactions)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "C2", lastAmount, amountStyle); err != nil {
			return fmt.Errorf("failed to style amounts: %w", err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 20)
}

func writeAccount(f *excelize.File, account *types.AccountDetails) error {
	if _, err := f.NewSheet(AccountSheetName); err != nil {
		return fmt.Errorf("failed to create account sheet: %w", err)
	}

	if err := f.SetSheetRow(AccountSheetName, "A1", &[]interface{}{"Field", "Value"}); err != nil {
		return err
	}
	for i, entry := range account.Entries() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(AccountSheetName, cell, &[]interface{}{entry.Label, entry.Value}); err != nil {
			return fmt.Errorf("failed to write %s: %w", entry.Label, err)
		}
	}

	return f.SetColWidth(AccountSheetName, "A", "B", 20)
}

// =============================================================================
// OUTPUT
// =============================================================================

// WriteFile builds the workbook and writes it atomically to path.
func WriteFile(path string, stmt *types.Statement, opts Options) error {
	f, err := Build(stmt, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	err = utils.WriteFileAtomic(path, func(w io.Writer) error {
		return f.Write(w)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrSinkUnavailable, err)
	}
	return nil
}
