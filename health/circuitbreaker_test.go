package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig()
	cfg.FailureThreshold = 2
	cfg.TimeoutSeconds = 60
	cb := NewCircuitBreaker("dep", cfg)

	fail := func(ctx context.Context) error { return errors.New("boom") }

	require.Error(t, cb.Call(context.Background(), fail))
	require.Equal(t, Closed, cb.State())
	require.Error(t, cb.Call(context.Background(), fail))
	require.Equal(t, Open, cb.State())

	err := cb.Call(context.Background(), func(ctx context.Context) error { return nil })
	var openErr *ErrCircuitOpen
	require.ErrorAs(t, err, &openErr)
}

func TestCircuitBreakerHalfOpenRecovers(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig()
	cfg.FailureThreshold = 1
	cfg.SuccessThreshold = 2
	cfg.TimeoutSeconds = 0 // transitions to half-open immediately on next admit
	cfg.HalfOpenRequestLimit = 5
	cb := NewCircuitBreaker("dep", cfg)

	require.Error(t, cb.Call(context.Background(), func(ctx context.Context) error { return errors.New("x") }))
	require.Equal(t, Open, cb.State())

	time.Sleep(time.Millisecond)

	require.NoError(t, cb.Call(context.Background(), func(ctx context.Context) error { return nil }))
	require.Equal(t, HalfOpen, cb.State())

	require.NoError(t, cb.Call(context.Background(), func(ctx context.Context) error { return nil }))
	require.Equal(t, Closed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig()
	cfg.FailureThreshold = 1
	cfg.TimeoutSeconds = 0
	cfg.HalfOpenRequestLimit = 5
	cb := NewCircuitBreaker("dep", cfg)

	require.Error(t, cb.Call(context.Background(), func(ctx context.Context) error { return errors.New("x") }))
	time.Sleep(time.Millisecond)

	require.Error(t, cb.Call(context.Background(), func(ctx context.Context) error { return errors.New("still failing") }))
	require.Equal(t, Open, cb.State())
}
