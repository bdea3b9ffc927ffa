package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

var (
	_ ports.TransactionExporter = (*Exporter)(nil)
	_ ports.TransactionLister   = (*Exporter)(nil)
)

// Exporter keeps exported rows in memory, one slice per year sheet.
type Exporter struct {
	mu     sync.Mutex
	base   string
	sheets map[int][]core.Transaction
}

func New(base string) *Exporter {
	if base == "" {
		base = "Transactions"
	}
	return &Exporter{base: base, sheets: make(map[int][]core.Transaction)}
}

func (e *Exporter) Export(_ context.Context, txs []core.Transaction) (ports.ExportResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res ports.ExportResult
	touched := map[int]bool{}
	for _, t := range txs {
		if t.TransactionDate.IsZero() {
			res.Skipped++
			continue
		}
		year := t.TransactionDate.Year()
		touched[year] = true
		if e.hasLocked(year, t.ID) {
			res.Skipped++
			continue
		}
		e.sheets[year] = append(e.sheets[year], t)
		res.Appended++
	}

	years := make([]int, 0, len(touched))
	for y := range touched {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		res.Sheets = append(res.Sheets, fmt.Sprintf("%d %s", y, e.base))
	}
	return res, nil
}

func (e *Exporter) hasLocked(year int, id int64) bool {
	for _, t := range e.sheets[year] {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (e *Exporter) ListTransactions(_ context.Context, year int, month int) ([]core.Transaction, error) {
	if err := core.YearMonth(year, month); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []core.Transaction
	for _, t := range e.sheets[year] {
		if int(t.TransactionDate.Month()) == month {
			out = append(out, t)
		}
	}
	return out, nil
}

// Rows returns a copy of everything exported for year.
func (e *Exporter) Rows(year int) []core.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.Transaction(nil), e.sheets[year]...)
}
