package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"stockwatch/pkg/contracts/domain"
)

const historySheet = "History"

// WriteHistoryXLSX writes a user's transactions as an Excel workbook with
// a styled header row.
func WriteHistoryXLSX(w io.Writer, transactions []domain.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(historySheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range historyHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(historySheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		f.SetCellStyle(historySheet, cell, cell, headerStyle)
	}

	for row, tx := range transactions {
		values := []interface{}{
			tx.ExecutedAt.UTC().Format(time.RFC3339),
			tx.Symbol,
			string(tx.Operation),
			tx.Quantity,
			tx.UnitPrice,
			tx.Quantity * tx.UnitPrice,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(historySheet, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	f.SetColWidth(historySheet, "A", "A", 22)
	f.SetColWidth(historySheet, "B", "F", 12)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
