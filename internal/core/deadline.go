package core

import (
	"context"
	"fmt"
	"time"
)

// RunWithTimeout runs fn and gives up once timeout elapses or ctx is done.
// fn keeps running in the background after a timeout because the cgo calls it
// wraps cannot be interrupted; its late result is discarded.
// A panic inside fn is returned as an error. A non-positive timeout runs fn
// inline with no deadline.
func RunWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
