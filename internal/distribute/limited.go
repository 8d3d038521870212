// Package distribute provides concurrency primitives, like limited distribution of work.
package distribute

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

var ErrNotEnoughConcurrency = fmt.Errorf("concurrency must be greater than zero")

// OneToN distributes work to a limited number of worker functions.
// Items produced by sourceFn are handed to concurrency instances of workerFn.
// The first error cancels ctx for all other functions and is returned.
//
// sourceFn should stop sending once ctx is done, Send does that for it.
func OneToN[T any](
	ctx context.Context,
	sourceFn func(ctx context.Context, dataCh chan<- T) error,
	workerFn func(ctx context.Context, data T) error,
	concurrency int,
) error {
	if concurrency < 1 {
		return ErrNotEnoughConcurrency
	}

	ch := make(chan T, concurrency)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer close(ch)
		return sourceFn(ctx, ch)
	})
	for i := 0; i < concurrency; i++ {
		eg.Go(func() error {
			for data := range ch {
				err := workerFn(ctx, data)
				if err != nil {
					return err
				}
			}

			return ctx.Err()
		})
	}

	return eg.Wait()
}

// Each feeds all items of a slice to workerFn using OneToN.
func Each[T any](ctx context.Context, items []T, workerFn func(ctx context.Context, item T) error, concurrency int) error {
	return OneToN(ctx, func(ctx context.Context, dataCh chan<- T) error {
		for _, item := range items {
			err := Send(ctx, dataCh, item)
			if err != nil {
				return err
			}
		}

		return nil
	}, workerFn, concurrency)
}

// Send puts data into dataCh unless ctx is done first.
func Send[T any](ctx context.Context, dataCh chan<- T, data T) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case dataCh <- data:
		return nil
	}
}
