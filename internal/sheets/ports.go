package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for spreadsheet adapters.
type (
	// TransactionExporter writes transactions as rows, one sheet per year.
	// Rows already present (same transaction id) are skipped.
	TransactionExporter interface {
		Export(ctx context.Context, txs []core.Transaction) (ExportResult, error)
	}

	// TransactionLister reads exported rows back for one month.
	TransactionLister interface {
		ListTransactions(ctx context.Context, year int, month int) ([]core.Transaction, error)
	}
)

type ExportResult struct {
	Appended int
	Skipped  int
	// Sheets touched, in year order.
	Sheets []string
}
