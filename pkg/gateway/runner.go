package gateway

import (
	"context"
	"time"

	"github.com/voxenlabs/voxgate/pkg/modeladapter"
)

// DefaultAttemptTimeout bounds one candidate attempt when no override is
// configured.
const DefaultAttemptTimeout = 180 * time.Second

// RunWithTimeout executes fn on its own goroutine under a deadline. If fn
// has not produced a result by then, a Timeout-kind canonical error is
// returned and the late result is discarded; cancellation of the underlying
// call is best-effort via the derived context.
func RunWithTimeout[T any](ctx context.Context, d time.Duration, provider string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		val T
		err error
	}

	// Buffered so a late fn does not block its goroutine forever.
	ch := make(chan outcome, 1)

	go func() {
		val, err := fn(ctx)
		ch <- outcome{val: val, err: err}
	}()

	select {
	case out := <-ch:
		return out.val, out.err
	case <-ctx.Done():
		var zero T
		return zero, &modeladapter.Error{
			Kind:     modeladapter.KindTimeout,
			Provider: provider,
			Message:  "attempt deadline exceeded",
			Cause:    ctx.Err(),
		}
	}
}
