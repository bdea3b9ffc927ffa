package store

import (
	"context"
	"sync"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

type TransactionAPI interface {
	List(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error)
	Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	Update(ctx context.Context, id int64, in core.TransactionInput) (core.Transaction, error)
	Remove(ctx context.Context, id int64) error
	MonthlySummary(ctx context.Context, year, month int) (core.MonthlySummary, error)
	Daily(ctx context.Context, year, month int) ([]core.DailySummary, error)
	Export(ctx context.Context, format api.ExportFormat, f core.ExportFilter) (api.File, error)
}

type TransactionStore struct {
	base
	api TransactionAPI

	mu             sync.RWMutex
	transactions   []core.Transaction
	monthlySummary *core.MonthlySummary
	daily          []core.DailySummary
	loading        bool
}

func NewTransactionStore(api TransactionAPI, opts ...Option) *TransactionStore {
	s := &TransactionStore{api: api}
	s.init(log.ComponentTransaction, opts)
	return s
}

func (s *TransactionStore) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.transactions)
}

func (s *TransactionStore) MonthlySummary() *core.MonthlySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.monthlySummary == nil {
		return nil
	}
	sum := *s.monthlySummary
	sum.IncomeSummary = clone(sum.IncomeSummary)
	sum.ExpenseSummary = clone(sum.ExpenseSummary)
	return &sum
}

func (s *TransactionStore) Daily() []core.DailySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.daily)
}

func (s *TransactionStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *TransactionStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *TransactionStore) Fetch(ctx context.Context, f core.TransactionFilter) error {
	s.setLoading(true)
	defer s.setLoading(false)

	txs, err := s.api.List(ctx, f)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.transactions = txs
	s.mu.Unlock()

	s.emit(ctx, core.ResourceTransaction, core.OpFetched, 0, len(txs))
	return nil
}

// Create prepends the new transaction: the list is most-recent-first. If a
// concurrent Fetch already loaded it, the entry is replaced in place.
func (s *TransactionStore) Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	t, err := s.api.Create(ctx, in)
	if err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	if !replaceByID(s.transactions, t) {
		s.transactions = append([]core.Transaction{t}, s.transactions...)
	}
	s.mu.Unlock()

	s.emit(ctx, core.ResourceTransaction, core.OpCreated, t.ID, 1)
	return t, nil
}

func (s *TransactionStore) Update(ctx context.Context, id int64, in core.TransactionInput) (core.Transaction, error) {
	t, err := s.api.Update(ctx, id, in)
	if err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	replaceByID(s.transactions, t)
	s.mu.Unlock()

	s.emit(ctx, core.ResourceTransaction, core.OpUpdated, t.ID, 1)
	return t, nil
}

func (s *TransactionStore) Remove(ctx context.Context, id int64) error {
	if err := s.api.Remove(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.transactions = removeByID(s.transactions, id)
	s.mu.Unlock()

	s.emit(ctx, core.ResourceTransaction, core.OpRemoved, id, 1)
	return nil
}

// FetchMonthlySummary shares the list's loading flag.
func (s *TransactionStore) FetchMonthlySummary(ctx context.Context, year, month int) (core.MonthlySummary, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	sum, err := s.api.MonthlySummary(ctx, year, month)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	s.mu.Lock()
	cached := sum
	s.monthlySummary = &cached
	s.mu.Unlock()

	s.emit(ctx, core.ResourceMonthlySummary, core.OpFetched, 0, 1)
	return sum, nil
}

func (s *TransactionStore) FetchDaily(ctx context.Context, year, month int) ([]core.DailySummary, error) {
	days, err := s.api.Daily(ctx, year, month)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.daily = days
	s.mu.Unlock()

	s.emit(ctx, core.ResourceDailySummary, core.OpFetched, 0, len(days))
	return clone(days), nil
}

// Export downloads a file; nothing is cached.
func (s *TransactionStore) Export(ctx context.Context, format api.ExportFormat, f core.ExportFilter) (api.File, error) {
	file, err := s.api.Export(ctx, format, f)
	if err != nil {
		return api.File{}, err
	}
	s.logger.DebugContext(ctx, "Export downloaded",
		log.FieldOperation, log.OpExport,
		log.FieldTarget, file.Name,
		log.FieldBytes, len(file.Data))
	return file, nil
}
