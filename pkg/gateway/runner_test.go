package gateway_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxenlabs/voxgate/pkg/gateway"
	"github.com/voxenlabs/voxgate/pkg/modeladapter"
)

func TestRunWithTimeout_PassesThroughResult(t *testing.T) {
	got, err := gateway.RunWithTimeout(context.Background(), time.Second, "p", func(context.Context) (string, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestRunWithTimeout_PassesThroughError(t *testing.T) {
	boom := errors.New("boom")

	_, err := gateway.RunWithTimeout(context.Background(), time.Second, "p", func(context.Context) (int, error) {
		return 0, boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestRunWithTimeout_DeadlineExceeded(t *testing.T) {
	start := time.Now()

	_, err := gateway.RunWithTimeout(context.Background(), 30*time.Millisecond, "slowprov", func(ctx context.Context) (string, error) {
		select {
		case <-time.After(time.Second):
			return "late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	aerr, ok := modeladapter.AsError(err)
	require.True(t, ok)
	assert.Equal(t, modeladapter.KindTimeout, aerr.Kind)
	assert.Equal(t, "slowprov", aerr.Provider)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRunWithTimeout_CancelsCallContext(t *testing.T) {
	canceled := make(chan struct{})

	_, err := gateway.RunWithTimeout(context.Background(), 20*time.Millisecond, "p", func(ctx context.Context) (string, error) {
		<-ctx.Done()
		close(canceled)
		return "", ctx.Err()
	})

	require.Error(t, err)

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("fn never observed cancellation")
	}
}
