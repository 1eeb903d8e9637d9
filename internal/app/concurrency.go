package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Parallel2 runs two lookups concurrently and returns both results or the
// first error. The shared context is canceled as soon as one fails.
//
//	outlet, qt, err := Parallel2(ctx,
//	    func(ctx context.Context) (*domain.Outlet, error) { return catalog.GetOutlet(ctx, outletID) },
//	    func(ctx context.Context) (*domain.QuoteType, error) { return catalog.GetQuoteType(ctx, typeID) },
//	)
func Parallel2[T1, T2 any](
	ctx context.Context,
	fn1 func(context.Context) (T1, error),
	fn2 func(context.Context) (T2, error),
) (result1 T1, result2 T2, err error) {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var fnErr error

		result1, fnErr = fn1(ctx)

		return fnErr
	})

	g.Go(func() error {
		var fnErr error

		result2, fnErr = fn2(ctx)

		return fnErr
	})

	err = g.Wait()
	if err != nil {
		var (
			zero1 T1
			zero2 T2
		)

		return zero1, zero2, fmt.Errorf("parallel execution failed: %w", err)
	}

	return result1, result2, nil
}

// ParallelMap applies fn to every key with at most limit calls in flight
// and returns the results keyed the same way.
func ParallelMap[K comparable, V any](
	ctx context.Context,
	limit int,
	keys []K,
	fn func(context.Context, K) (V, error),
) (map[K]V, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	results := make([]V, len(keys))

	for i, key := range keys {
		g.Go(func() error {
			v, err := fn(ctx, key)
			if err != nil {
				return err
			}

			results[i] = v

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parallel execution failed: %w", err)
	}

	out := make(map[K]V, len(keys))
	for i, key := range keys {
		out[key] = results[i]
	}

	return out, nil
}
