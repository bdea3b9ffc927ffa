package memory

import (
	"context"
	"testing"

	"fintrack/internal/core"
)

func TestExporterAppendsAndSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	e := New("")
	txs := []core.Transaction{
		{ID: 1, TransactionDate: core.NewDate(2024, 1, 2), Type: core.Expense, Amount: 100},
		{ID: 2, TransactionDate: core.NewDate(2025, 3, 4), Type: core.Income, Amount: 200},
		{ID: 3},
	}

	res, err := e.Export(ctx, txs)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Appended != 2 || res.Skipped != 1 {
		t.Fatalf("Export() = %+v, want 2 appended 1 skipped", res)
	}
	if len(res.Sheets) != 2 || res.Sheets[0] != "2024 Transactions" || res.Sheets[1] != "2025 Transactions" {
		t.Fatalf("unexpected sheets: %v", res.Sheets)
	}

	res, err = e.Export(ctx, txs[:2])
	if err != nil || res.Appended != 0 || res.Skipped != 2 {
		t.Fatalf("second Export() = %+v, err=%v", res, err)
	}
	if got := e.Rows(2024); len(got) != 1 {
		t.Fatalf("Rows(2024) = %v", got)
	}
}

func TestExporterListTransactions(t *testing.T) {
	ctx := context.Background()
	e := New("Ledger")
	_, _ = e.Export(ctx, []core.Transaction{
		{ID: 1, TransactionDate: core.NewDate(2024, 1, 2)},
		{ID: 2, TransactionDate: core.NewDate(2024, 2, 2)},
	})

	got, err := e.ListTransactions(ctx, 2024, 2)
	if err != nil || len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("ListTransactions() = %v, err=%v", got, err)
	}
	if _, err := e.ListTransactions(ctx, 2024, 0); err == nil {
		t.Fatal("expected invalid month error")
	}
}
