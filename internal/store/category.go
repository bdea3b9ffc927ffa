package store

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type CategoryAPI interface {
	List(ctx context.Context) ([]core.Category, error)
	Create(ctx context.Context, in core.CategoryInput) (core.Category, error)
	Update(ctx context.Context, id int64, in core.CategoryUpdate) (core.Category, error)
	Remove(ctx context.Context, id int64) error
}

type CategoryStore struct {
	base
	api CategoryAPI

	mu         sync.RWMutex
	categories []core.Category
	loading    bool
}

func NewCategoryStore(api CategoryAPI, opts ...Option) *CategoryStore {
	s := &CategoryStore{api: api}
	s.init(log.ComponentCategory, opts)
	return s
}

func (s *CategoryStore) Categories() []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.categories)
}

// ByType returns the cached categories of one type.
func (s *CategoryStore) ByType(t core.CategoryType) []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func (s *CategoryStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *CategoryStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *CategoryStore) Fetch(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	categories, err := s.api.List(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.categories = categories
	s.mu.Unlock()

	s.emit(ctx, core.ResourceCategory, core.OpFetched, 0, len(categories))
	return nil
}

func (s *CategoryStore) Create(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	c, err := s.api.Create(ctx, in)
	if err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	if !replaceByID(s.categories, c) {
		s.categories = append(s.categories, c)
	}
	s.mu.Unlock()

	s.emit(ctx, core.ResourceCategory, core.OpCreated, c.ID, 1)
	return c, nil
}

func (s *CategoryStore) Update(ctx context.Context, id int64, in core.CategoryUpdate) (core.Category, error) {
	c, err := s.api.Update(ctx, id, in)
	if err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	replaceByID(s.categories, c)
	s.mu.Unlock()

	s.emit(ctx, core.ResourceCategory, core.OpUpdated, c.ID, 1)
	return c, nil
}

func (s *CategoryStore) Remove(ctx context.Context, id int64) error {
	if err := s.api.Remove(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.categories = removeByID(s.categories, id)
	s.mu.Unlock()

	s.emit(ctx, core.ResourceCategory, core.OpRemoved, id, 1)
	return nil
}
