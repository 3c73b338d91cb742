// Package exporter renders wallet history as CSV and XLSX downloads.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"stockwatch/pkg/contracts/domain"
)

var historyHeaders = []string{"Date", "Symbol", "Operation", "Quantity", "Unit Price", "Total"}

// WriteHistoryCSV writes a user's transactions as CSV. A UTF-8 BOM is
// prepended so Excel opens the file correctly.
func WriteHistoryCSV(w io.Writer, transactions []domain.Transaction) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(historyHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, tx := range transactions {
		if err := writer.Write(historyRecord(tx)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func historyRecord(tx domain.Transaction) []string {
	return []string{
		tx.ExecutedAt.UTC().Format(time.RFC3339),
		tx.Symbol,
		string(tx.Operation),
		formatFloat(tx.Quantity),
		formatFloat(tx.UnitPrice),
		formatFloat(tx.Quantity * tx.UnitPrice),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
