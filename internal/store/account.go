package store

import (
	"context"
	"sync"

	"fintrack/internal/apiclient"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// DefaultSummaryError is shown when a summary failure carries no backend message.
const DefaultSummaryError = "could not load account summary"

type AccountAPI interface {
	List(ctx context.Context) ([]core.Account, error)
	Get(ctx context.Context, id int64) (core.Account, error)
	Summary(ctx context.Context) (core.AccountSummary, error)
	Create(ctx context.Context, in core.AccountInput) (core.Account, error)
	Update(ctx context.Context, id int64, in core.AccountInput) (core.Account, error)
	Remove(ctx context.Context, id int64) error
}

type AccountStore struct {
	base
	api AccountAPI

	mu             sync.RWMutex
	accounts       []core.Account
	selected       *core.Account
	summary        *core.AccountSummary
	loading        bool
	summaryLoading bool
	summaryError   string
}

func NewAccountStore(api AccountAPI, opts ...Option) *AccountStore {
	s := &AccountStore{api: api}
	s.init(log.ComponentAccount, opts)
	return s
}

func (s *AccountStore) Accounts() []core.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.accounts)
}

func (s *AccountStore) Selected() *core.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	a := *s.selected
	return &a
}

func (s *AccountStore) Summary() *core.AccountSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return nil
	}
	sum := *s.summary
	sum.Accounts = clone(sum.Accounts)
	return &sum
}

func (s *AccountStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *AccountStore) SummaryLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaryLoading
}

func (s *AccountStore) SummaryError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaryError
}

func (s *AccountStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// Fetch replaces the cached list with the server's.
func (s *AccountStore) Fetch(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	accounts, err := s.api.List(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.accounts = accounts
	s.mu.Unlock()

	s.emit(ctx, core.ResourceAccount, core.OpFetched, 0, len(accounts))
	return nil
}

// FetchOne loads one account, selects it and patches it into the list if cached.
func (s *AccountStore) FetchOne(ctx context.Context, id int64) (core.Account, error) {
	a, err := s.api.Get(ctx, id)
	if err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	sel := a
	s.selected = &sel
	replaceByID(s.accounts, a)
	s.mu.Unlock()

	s.emit(ctx, core.ResourceAccount, core.OpFetched, a.ID, 1)
	return a, nil
}

// FetchSummary loads the aggregate. On failure summaryError holds the
// backend message (or DefaultSummaryError) and the error is returned.
func (s *AccountStore) FetchSummary(ctx context.Context) (core.AccountSummary, error) {
	s.mu.Lock()
	s.summaryLoading = true
	s.summaryError = ""
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.summaryLoading = false
		s.mu.Unlock()
	}()

	sum, err := s.api.Summary(ctx)
	if err != nil {
		s.mu.Lock()
		s.summaryError = apiclient.Message(err, DefaultSummaryError)
		s.mu.Unlock()
		return core.AccountSummary{}, err
	}
	s.mu.Lock()
	cached := sum
	s.summary = &cached
	s.mu.Unlock()

	s.emit(ctx, core.ResourceAccountSummary, core.OpFetched, 0, sum.AccountCount)
	return sum, nil
}

// syncSummarySafe refreshes the summary after a mutation. Its failure is
// logged and never reaches the caller of the mutation.
func (s *AccountStore) syncSummarySafe(ctx context.Context) {
	if _, err := s.FetchSummary(ctx); err != nil {
		s.logger.WarnContext(ctx, "Account summary refresh failed",
			log.FieldOperation, log.OpSummary,
			log.FieldError, err)
	}
}

func (s *AccountStore) Create(ctx context.Context, in core.AccountInput) (core.Account, error) {
	a, err := s.api.Create(ctx, in)
	if err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	// A Fetch that finished meanwhile may already hold the new row.
	if !replaceByID(s.accounts, a) {
		s.accounts = append(s.accounts, a)
	}
	s.mu.Unlock()

	s.emit(ctx, core.ResourceAccount, core.OpCreated, a.ID, 1)
	s.syncSummarySafe(ctx)
	return a, nil
}

func (s *AccountStore) Update(ctx context.Context, id int64, in core.AccountInput) (core.Account, error) {
	a, err := s.api.Update(ctx, id, in)
	if err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	replaceByID(s.accounts, a)
	if s.selected != nil && s.selected.ID == id {
		sel := a
		s.selected = &sel
	}
	s.mu.Unlock()

	s.emit(ctx, core.ResourceAccount, core.OpUpdated, a.ID, 1)
	s.syncSummarySafe(ctx)
	return a, nil
}

func (s *AccountStore) Remove(ctx context.Context, id int64) error {
	if err := s.api.Remove(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.accounts = removeByID(s.accounts, id)
	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
	}
	s.mu.Unlock()

	s.emit(ctx, core.ResourceAccount, core.OpRemoved, id, 1)
	s.syncSummarySafe(ctx)
	return nil
}
