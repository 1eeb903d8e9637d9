// Package reqscope holds per-request state for the application services:
// lookups memoized for the life of one request, and batches of writes that
// apply as a unit.
package reqscope

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

type scopeKey struct{}

// Scope is the state of one request. The zero value is not usable; call
// New.
type Scope struct {
	ctx   context.Context
	memo  sync.Map
	group singleflight.Group

	mu      sync.Mutex
	staged  []Step
	applied bool
}

// New returns a Scope whose fetches run with ctx.
func New(ctx context.Context) *Scope {
	return &Scope{ctx: ctx}
}

// From returns the Scope attached to ctx, or nil.
func From(ctx context.Context) *Scope {
	if ctx == nil {
		return nil
	}

	s, _ := ctx.Value(scopeKey{}).(*Scope)

	return s
}

// Attach returns a copy of ctx carrying s.
func Attach(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// Ensure returns ctx unchanged when it already has a Scope, and otherwise
// attaches a new one.
func Ensure(ctx context.Context) context.Context {
	if From(ctx) != nil {
		return ctx
	}

	return Attach(ctx, New(ctx))
}

// Memo returns the value cached under key in ctx's Scope, calling fetch on
// a miss. Concurrent misses on the same key share one fetch. Errors are not
// cached. Without a Scope, fetch is called directly.
func Memo[T any](ctx context.Context, key string, fetch func(context.Context) (T, error)) (T, error) {
	s := From(ctx)
	if s == nil {
		return fetch(ctx)
	}

	if v, ok := s.memo.Load(key); ok {
		return v.(T), nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if v, ok := s.memo.Load(key); ok {
			return v, nil
		}

		v, err := fetch(s.ctx)
		if err != nil {
			return nil, err
		}

		s.memo.Store(key, v)

		return v, nil
	})
	if err != nil {
		var zero T

		return zero, err
	}

	return v.(T), nil
}
