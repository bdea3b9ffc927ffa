// Package store keeps in-memory copies of backend resources.
//
// Each store replaces its collection wholesale on fetch and applies exactly
// one local patch per create, update or remove, using the entity the server
// returned. Readers get copies. Changes are announced to subscribers and,
// optionally, to a Publisher.
package store

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Publisher forwards change events outside the process.
type Publisher interface {
	Publish(ctx context.Context, ev core.ChangeEvent) error
}

type Option func(*base)

func WithLogger(l *log.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(b *base) { b.publisher = p }
}

// base carries the subscription and publishing plumbing shared by all stores.
type base struct {
	logger    *log.Logger
	publisher Publisher

	subMu  sync.Mutex
	subs   map[int]func(core.ChangeEvent)
	nextID int
}

func (b *base) init(component string, opts []Option) {
	b.logger = log.Discard()
	b.subs = make(map[int]func(core.ChangeEvent))
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.WithComponent(component)
}

// Subscribe registers fn for change events and returns a func that removes it.
func (b *base) Subscribe(fn func(core.ChangeEvent)) func() {
	b.subMu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.subMu.Unlock()
	return func() {
		b.subMu.Lock()
		delete(b.subs, id)
		b.subMu.Unlock()
	}
}

// emit must be called without the store's state lock held.
func (b *base) emit(ctx context.Context, resource string, op core.ChangeOp, id int64, count int) {
	ev := core.ChangeEvent{Resource: resource, Op: op, ID: id, Count: count, At: time.Now().UTC()}

	b.subMu.Lock()
	fns := make([]func(core.ChangeEvent), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}

	if b.publisher != nil {
		if err := b.publisher.Publish(ctx, ev); err != nil {
			b.logger.WarnContext(ctx, "Failed to publish change event",
				log.FieldOperation, log.OpPublish,
				"resource", resource,
				log.FieldError, err)
		}
	}
}

// Entities with an int64 identity.
type identified interface {
	core.Account | core.Category | core.Transaction
}

func idOf[T identified](v T) int64 {
	switch e := any(v).(type) {
	case core.Account:
		return e.ID
	case core.Category:
		return e.ID
	case core.Transaction:
		return e.ID
	}
	return 0
}

// replaceByID swaps in v where the ids match. Absent ids are a no-op.
func replaceByID[T identified](list []T, v T) bool {
	id := idOf(v)
	for i := range list {
		if idOf(list[i]) == id {
			list[i] = v
			return true
		}
	}
	return false
}

// removeByID returns list without id, as a new slice.
func removeByID[T identified](list []T, id int64) []T {
	out := make([]T, 0, len(list))
	for _, v := range list {
		if idOf(v) != id {
			out = append(out, v)
		}
	}
	return out
}

func clone[T any](list []T) []T {
	if list == nil {
		return nil
	}
	return append(make([]T, 0, len(list)), list...)
}
