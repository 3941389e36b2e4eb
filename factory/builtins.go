package factory

import (
	"path/filepath"

	"github.com/lightning-os/runtime/bus"
	"github.com/lightning-os/runtime/config"
	"github.com/lightning-os/runtime/provider"
	"github.com/lightning-os/runtime/store"
)

// registerBuiltins wires the "local" provider name for every capability to
// the reference in-process implementations.
func registerBuiltins(f *Factory) {
	f.RegisterStorage("local", func(cfg *config.Config) (provider.StorageProvider, error) {
		path := cfg.StoragePath
		if path == "" {
			path = filepath.Join(".", "lightning.db")
		}
		return store.NewSQLiteProvider(path), nil
	})

	f.RegisterEventBus("local", func(cfg *config.Config) (provider.EventBus, error) {
		busCfg := bus.DefaultConfig()
		if cfg.MaxConcurrentOperations > 0 {
			busCfg.MaxConcurrentOperations = cfg.MaxConcurrentOperations
		}
		if cfg.OperationTimeoutSeconds > 0 {
			busCfg.OperationTimeout = secondsToDuration(cfg.OperationTimeoutSeconds)
		}
		if cfg.RetryMaxAttempts >= 0 {
			busCfg.RetryMaxAttempts = cfg.RetryMaxAttempts
		}
		if cfg.RetryBackoffSeconds > 0 {
			busCfg.RetryBackoffSeconds = cfg.RetryBackoffSeconds
		}
		return bus.New(busCfg, nil, nil), nil
	})

	f.RegisterContainerRuntime("local", func(cfg *config.Config) (provider.ContainerRuntime, error) {
		return newLocalContainerRuntime(), nil
	})

	f.RegisterServerlessRuntime("local", func(cfg *config.Config) (provider.ServerlessRuntime, error) {
		return newLocalServerlessRuntime(), nil
	})
}
