package store

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type DashboardAPI interface {
	Get(ctx context.Context) (core.Dashboard, error)
}

type DashboardStore struct {
	base
	api DashboardAPI

	mu        sync.RWMutex
	dashboard *core.Dashboard
	loading   bool
}

func NewDashboardStore(api DashboardAPI, opts ...Option) *DashboardStore {
	s := &DashboardStore{api: api}
	s.init(log.ComponentDashboard, opts)
	return s
}

func (s *DashboardStore) Dashboard() *core.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dashboard == nil {
		return nil
	}
	d := *s.dashboard
	d.RecentTransactions = clone(d.RecentTransactions)
	return &d
}

func (s *DashboardStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *DashboardStore) Fetch(ctx context.Context) (core.Dashboard, error) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	d, err := s.api.Get(ctx)
	if err != nil {
		return core.Dashboard{}, err
	}
	s.mu.Lock()
	cached := d
	s.dashboard = &cached
	s.mu.Unlock()

	s.emit(ctx, core.ResourceDashboard, core.OpFetched, 0, len(d.RecentTransactions))
	return d, nil
}

// LoadOverview fills the stores behind the home page concurrently: the
// dashboard, the account list and summary, and the month's summary. The
// first error is returned; the other loads still complete or are cancelled.
func LoadOverview(ctx context.Context, d *DashboardStore, accounts *AccountStore, txs *TransactionStore, year, month int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := d.Fetch(gctx)
		return err
	})
	g.Go(func() error {
		return accounts.Fetch(gctx)
	})
	g.Go(func() error {
		_, err := accounts.FetchSummary(gctx)
		return err
	})
	g.Go(func() error {
		_, err := txs.FetchMonthlySummary(gctx, year, month)
		return err
	})
	return g.Wait()
}
