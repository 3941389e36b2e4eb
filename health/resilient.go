package health

import (
	"context"

	"github.com/lightning-os/runtime/event"
	"github.com/lightning-os/runtime/provider"
)

// ResilientDocumentStore wraps a provider.DocumentStore so every call is
// admission-controlled by a CircuitBreaker.
type ResilientDocumentStore struct {
	inner   provider.DocumentStore
	breaker *CircuitBreaker
}

func NewResilientDocumentStore(inner provider.DocumentStore, breaker *CircuitBreaker) *ResilientDocumentStore {
	return &ResilientDocumentStore{inner: inner, breaker: breaker}
}

func (r *ResilientDocumentStore) Create(ctx context.Context, d *provider.Document) (*provider.Document, error) {
	var out *provider.Document
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		got, err := r.inner.Create(ctx, d)
		out = got
		return err
	})
	return out, err
}

func (r *ResilientDocumentStore) Read(ctx context.Context, id, partitionKey string) (*provider.Document, error) {
	var out *provider.Document
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		d, err := r.inner.Read(ctx, id, partitionKey)
		out = d
		return err
	})
	return out, err
}

func (r *ResilientDocumentStore) Update(ctx context.Context, d *provider.Document) (*provider.Document, error) {
	var out *provider.Document
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		got, err := r.inner.Update(ctx, d)
		out = got
		return err
	})
	return out, err
}

func (r *ResilientDocumentStore) Delete(ctx context.Context, id, partitionKey string) (bool, error) {
	var out bool
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		got, err := r.inner.Delete(ctx, id, partitionKey)
		out = got
		return err
	})
	return out, err
}

func (r *ResilientDocumentStore) Query(ctx context.Context, criteria map[string]any, partitionKey string, maxItems int) ([]*provider.Document, error) {
	var out []*provider.Document
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		docs, err := r.inner.Query(ctx, criteria, partitionKey, maxItems)
		out = docs
		return err
	})
	return out, err
}

func (r *ResilientDocumentStore) ListAll(ctx context.Context, partitionKey string, maxItems int) ([]*provider.Document, error) {
	var out []*provider.Document
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		docs, err := r.inner.ListAll(ctx, partitionKey, maxItems)
		out = docs
		return err
	})
	return out, err
}

// ResilientStorageProvider wraps a provider.StorageProvider so every
// container-management call is admission-controlled, and hands out document
// stores already wrapped with the same breaker.
type ResilientStorageProvider struct {
	inner   provider.StorageProvider
	breaker *CircuitBreaker
}

func NewResilientStorageProvider(inner provider.StorageProvider, breaker *CircuitBreaker) *ResilientStorageProvider {
	return &ResilientStorageProvider{inner: inner, breaker: breaker}
}

func (r *ResilientStorageProvider) HealthCheck(ctx context.Context) (provider.HealthCheckResult, error) {
	return r.inner.HealthCheck(ctx)
}

func (r *ResilientStorageProvider) Initialize(ctx context.Context) error {
	return r.breaker.Call(ctx, func(ctx context.Context) error { return r.inner.Initialize(ctx) })
}

func (r *ResilientStorageProvider) Close(ctx context.Context) error {
	return r.breaker.Call(ctx, func(ctx context.Context) error { return r.inner.Close(ctx) })
}

func (r *ResilientStorageProvider) CreateContainerIfNotExists(ctx context.Context, container, partitionKeyPath string) error {
	return r.breaker.Call(ctx, func(ctx context.Context) error {
		return r.inner.CreateContainerIfNotExists(ctx, container, partitionKeyPath)
	})
}

func (r *ResilientStorageProvider) DeleteContainer(ctx context.Context, container string) error {
	return r.breaker.Call(ctx, func(ctx context.Context) error { return r.inner.DeleteContainer(ctx, container) })
}

func (r *ResilientStorageProvider) ContainerExists(ctx context.Context, container string) (bool, error) {
	var out bool
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		got, err := r.inner.ContainerExists(ctx, container)
		out = got
		return err
	})
	return out, err
}

func (r *ResilientStorageProvider) GetDocumentStore(container string) (provider.DocumentStore, error) {
	ds, err := r.inner.GetDocumentStore(container)
	if err != nil || ds == nil {
		return ds, err
	}
	return NewResilientDocumentStore(ds, r.breaker), nil
}

var _ provider.StorageProvider = (*ResilientStorageProvider)(nil)

// ResilientEventBus wraps the operations of an EventBus that perform I/O
// (publication); subscription management stays local and unwrapped.
type ResilientEventBus struct {
	provider.EventBus
	breaker *CircuitBreaker
}

func NewResilientEventBus(inner provider.EventBus, breaker *CircuitBreaker) *ResilientEventBus {
	return &ResilientEventBus{EventBus: inner, breaker: breaker}
}

func (r *ResilientEventBus) Publish(ctx context.Context, e *event.Event, topic string) error {
	return r.breaker.Call(ctx, func(ctx context.Context) error { return r.EventBus.Publish(ctx, e, topic) })
}

// ResilientContainerRuntime wraps a provider.ContainerRuntime's I/O calls.
type ResilientContainerRuntime struct {
	inner   provider.ContainerRuntime
	breaker *CircuitBreaker
}

func NewResilientContainerRuntime(inner provider.ContainerRuntime, breaker *CircuitBreaker) *ResilientContainerRuntime {
	return &ResilientContainerRuntime{inner: inner, breaker: breaker}
}

func (r *ResilientContainerRuntime) HealthCheck(ctx context.Context) (provider.HealthCheckResult, error) {
	return r.inner.HealthCheck(ctx)
}

func (r *ResilientContainerRuntime) RunContainer(ctx context.Context, image string, args []string, env map[string]string) (string, error) {
	var id string
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		got, err := r.inner.RunContainer(ctx, image, args, env)
		id = got
		return err
	})
	return id, err
}

func (r *ResilientContainerRuntime) StopContainer(ctx context.Context, containerID string) error {
	return r.breaker.Call(ctx, func(ctx context.Context) error { return r.inner.StopContainer(ctx, containerID) })
}

// ResilientServerlessRuntime wraps a provider.ServerlessRuntime's I/O calls.
type ResilientServerlessRuntime struct {
	inner   provider.ServerlessRuntime
	breaker *CircuitBreaker
}

func NewResilientServerlessRuntime(inner provider.ServerlessRuntime, breaker *CircuitBreaker) *ResilientServerlessRuntime {
	return &ResilientServerlessRuntime{inner: inner, breaker: breaker}
}

func (r *ResilientServerlessRuntime) HealthCheck(ctx context.Context) (provider.HealthCheckResult, error) {
	return r.inner.HealthCheck(ctx)
}

func (r *ResilientServerlessRuntime) Invoke(ctx context.Context, functionName string, payload map[string]any) (map[string]any, error) {
	var out map[string]any
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		res, err := r.inner.Invoke(ctx, functionName, payload)
		out = res
		return err
	})
	return out, err
}
