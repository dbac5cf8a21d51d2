package app

import "context"

// Result carries the outcome of a dispatched call.
type Result[T any] struct {
	Value T
	Err   error
}

// Dispatch runs fn on its own goroutine and delivers the result exactly
// once on the returned channel. The channel is buffered so fn never blocks
// when the receiver has gone away.
func Dispatch[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		v, err := fn(ctx)
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}

// Await waits for the result of a dispatched call or for ctx to end.
func Await[T any](ctx context.Context, ch <-chan Result[T]) (T, error) {
	select {
	case r := <-ch:
		return r.Value, r.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
