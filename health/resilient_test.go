package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightning-os/runtime/provider"
)

type fakeStorageProvider struct {
	failContainerExists bool
}

func (f *fakeStorageProvider) HealthCheck(ctx context.Context) (provider.HealthCheckResult, error) {
	return provider.HealthCheckResult{Status: provider.HealthHealthy}, nil
}
func (f *fakeStorageProvider) Initialize(ctx context.Context) error { return nil }
func (f *fakeStorageProvider) Close(ctx context.Context) error      { return nil }
func (f *fakeStorageProvider) CreateContainerIfNotExists(ctx context.Context, container, partitionKeyPath string) error {
	return nil
}
func (f *fakeStorageProvider) DeleteContainer(ctx context.Context, container string) error { return nil }
func (f *fakeStorageProvider) ContainerExists(ctx context.Context, container string) (bool, error) {
	if f.failContainerExists {
		return false, errors.New("boom")
	}
	return true, nil
}
func (f *fakeStorageProvider) GetDocumentStore(container string) (provider.DocumentStore, error) {
	return nil, nil
}

func TestResilientStorageProviderWrapsCircuitBreaker(t *testing.T) {
	inner := &fakeStorageProvider{failContainerExists: true}
	cb := NewCircuitBreaker("storage", CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, TimeoutSeconds: 60, HalfOpenRequestLimit: 1})
	wrapped := NewResilientStorageProvider(inner, cb)

	ctx := context.Background()
	_, err := wrapped.ContainerExists(ctx, "x")
	require.Error(t, err)
	_, err = wrapped.ContainerExists(ctx, "x")
	require.Error(t, err)

	_, err = wrapped.ContainerExists(ctx, "x")
	var circuitOpen *ErrCircuitOpen
	require.ErrorAs(t, err, &circuitOpen)
}

func TestResilientStorageProviderPassesThroughDocumentStore(t *testing.T) {
	inner := &fakeStorageProvider{}
	cb := NewCircuitBreaker("storage", DefaultCircuitBreakerConfig())
	wrapped := NewResilientStorageProvider(inner, cb)

	ds, err := wrapped.GetDocumentStore("widgets")
	require.NoError(t, err)
	require.Nil(t, ds) // fake returns nil, nil; wrapper must not panic unwrapping it
}
