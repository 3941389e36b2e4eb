// Package factory is the process-wide {provider_name -> constructor}
// registry per capability. GetFactory is an explicit singleton:
// applications may register additional constructors at startup, but the
// instance itself never changes mid-process.
package factory

import (
	"sync"

	"github.com/lightning-os/runtime/config"
	"github.com/lightning-os/runtime/provider"
)

type StorageConstructor func(cfg *config.Config) (provider.StorageProvider, error)
type EventBusConstructor func(cfg *config.Config) (provider.EventBus, error)
type ContainerConstructor func(cfg *config.Config) (provider.ContainerRuntime, error)
type ServerlessConstructor func(cfg *config.Config) (provider.ServerlessRuntime, error)

type Factory struct {
	mu         sync.RWMutex
	storage    map[string]StorageConstructor
	eventBus   map[string]EventBusConstructor
	container  map[string]ContainerConstructor
	serverless map[string]ServerlessConstructor
}

func newFactory() *Factory {
	return &Factory{
		storage:    make(map[string]StorageConstructor),
		eventBus:   make(map[string]EventBusConstructor),
		container:  make(map[string]ContainerConstructor),
		serverless: make(map[string]ServerlessConstructor),
	}
}

var (
	once     sync.Once
	instance *Factory
)

// GetFactory returns the single process-wide Factory, seeded with the
// built-in "local" constructor for every capability.
func GetFactory() *Factory {
	once.Do(func() {
		instance = newFactory()
		registerBuiltins(instance)
	})
	return instance
}

func (f *Factory) RegisterStorage(name string, ctor StorageConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storage[name] = ctor
}

func (f *Factory) RegisterEventBus(name string, ctor EventBusConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventBus[name] = ctor
}

func (f *Factory) RegisterContainerRuntime(name string, ctor ContainerConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.container[name] = ctor
}

func (f *Factory) RegisterServerlessRuntime(name string, ctor ServerlessConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serverless[name] = ctor
}

func (f *Factory) CreateStorage(cfg *config.Config) (provider.StorageProvider, error) {
	f.mu.RLock()
	ctor, ok := f.storage[cfg.StorageProvider]
	f.mu.RUnlock()
	if !ok {
		return nil, &provider.UnknownProviderError{Capability: "storage", Name: cfg.StorageProvider}
	}
	return ctor(cfg)
}

func (f *Factory) CreateEventBus(cfg *config.Config) (provider.EventBus, error) {
	f.mu.RLock()
	ctor, ok := f.eventBus[cfg.EventBusProvider]
	f.mu.RUnlock()
	if !ok {
		return nil, &provider.UnknownProviderError{Capability: "event_bus", Name: cfg.EventBusProvider}
	}
	return ctor(cfg)
}

func (f *Factory) CreateContainerRuntime(cfg *config.Config) (provider.ContainerRuntime, error) {
	f.mu.RLock()
	ctor, ok := f.container[cfg.ContainerRuntime]
	f.mu.RUnlock()
	if !ok {
		return nil, &provider.UnknownProviderError{Capability: "container_runtime", Name: cfg.ContainerRuntime}
	}
	return ctor(cfg)
}

func (f *Factory) CreateServerlessRuntime(cfg *config.Config) (provider.ServerlessRuntime, error) {
	f.mu.RLock()
	ctor, ok := f.serverless[cfg.ServerlessProvider]
	f.mu.RUnlock()
	if !ok {
		return nil, &provider.UnknownProviderError{Capability: "serverless", Name: cfg.ServerlessProvider}
	}
	return ctor(cfg)
}
