// Package config loads the Runtime's single immutable configuration record
// from defaults, an optional config file (JSON, YAML, or TOML), and
// environment overrides, following the framework's golobby/config + feeders
// pattern.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/golobby/config/v3"
	"github.com/golobby/config/v3/pkg/feeder"

	"github.com/lightning-os/runtime/feeders"
)

// Mode selects the default provider set for a deployment target.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeAzure  Mode = "azure"
	ModeAWS    Mode = "aws"
	ModeGCP    Mode = "gcp"
	ModeHybrid Mode = "hybrid"
)

var validModes = map[Mode]bool{
	ModeLocal: true, ModeAzure: true, ModeAWS: true, ModeGCP: true, ModeHybrid: true,
}

// Config is the one immutable record built per process. Field names and
// defaults mirror the original RuntimeConfig, and every field is reachable
// via the LIGHTNING_-prefixed environment variable named in its `env` tag.
type Config struct {
	Mode Mode `json:"mode" yaml:"mode" env:"LIGHTNING_MODE"`

	StorageProvider         string `json:"storage_provider" yaml:"storage_provider" env:"LIGHTNING_STORAGE_PROVIDER"`
	StorageConnectionString string `json:"storage_connection_string" yaml:"storage_connection_string" env:"LIGHTNING_STORAGE_CONNECTION"`
	StorageEndpoint         string `json:"storage_endpoint" yaml:"storage_endpoint" env:"LIGHTNING_STORAGE_ENDPOINT"`
	StoragePath             string `json:"storage_path" yaml:"storage_path" env:"LIGHTNING_STORAGE_PATH"`

	EventBusProvider         string `json:"event_bus_provider" yaml:"event_bus_provider" env:"LIGHTNING_EVENT_BUS_PROVIDER"`
	EventBusConnectionString string `json:"event_bus_connection_string" yaml:"event_bus_connection_string" env:"LIGHTNING_EVENT_BUS_CONNECTION"`
	EventBusEndpoint         string `json:"event_bus_endpoint" yaml:"event_bus_endpoint" env:"LIGHTNING_EVENT_BUS_ENDPOINT"`

	ContainerRuntime      string `json:"container_runtime" yaml:"container_runtime" env:"LIGHTNING_CONTAINER_RUNTIME"`
	ContainerRegistry     string `json:"container_registry" yaml:"container_registry" env:"LIGHTNING_CONTAINER_REGISTRY"`
	ContainerRegistryUser string `json:"container_registry_username" yaml:"container_registry_username" env:"LIGHTNING_CONTAINER_REGISTRY_USERNAME"`
	ContainerRegistryPass string `json:"container_registry_password" yaml:"container_registry_password" env:"LIGHTNING_CONTAINER_REGISTRY_PASSWORD"`

	ServerlessProvider string `json:"serverless_provider" yaml:"serverless_provider" env:"LIGHTNING_SERVERLESS_PROVIDER"`
	ServerlessEndpoint string `json:"serverless_endpoint" yaml:"serverless_endpoint" env:"LIGHTNING_SERVERLESS_ENDPOINT"`

	Region        string `json:"region" yaml:"region" env:"LIGHTNING_REGION"`
	ProjectID     string `json:"project_id" yaml:"project_id" env:"LIGHTNING_PROJECT_ID"`
	ResourceGroup string `json:"resource_group" yaml:"resource_group" env:"LIGHTNING_RESOURCE_GROUP"`

	AuthEnabled       bool `json:"auth_enabled" yaml:"auth_enabled" env:"LIGHTNING_AUTH_ENABLED"`
	EncryptionEnabled bool `json:"encryption_enabled" yaml:"encryption_enabled" env:"LIGHTNING_ENCRYPTION_ENABLED"`

	// APIKeys is populated from LIGHTNING_API_KEY_<NAME> env vars, which the
	// struct-tag feeder cannot express; Load fills it in a second pass.
	APIKeys map[string]string `json:"api_keys" yaml:"api_keys"`

	LogLevel            string `json:"log_level" yaml:"log_level" env:"LIGHTNING_LOG_LEVEL"`
	LogProvider         string `json:"log_provider" yaml:"log_provider" env:"LIGHTNING_LOG_PROVIDER"`
	LogConnectionString string `json:"log_connection_string" yaml:"log_connection_string" env:"LIGHTNING_LOG_CONNECTION"`

	MaxConcurrentOperations int     `json:"max_concurrent_operations" yaml:"max_concurrent_operations" env:"LIGHTNING_MAX_CONCURRENT_OPERATIONS"`
	OperationTimeoutSeconds int     `json:"operation_timeout_seconds" yaml:"operation_timeout_seconds" env:"LIGHTNING_OPERATION_TIMEOUT"`
	RetryMaxAttempts        int     `json:"retry_max_attempts" yaml:"retry_max_attempts" env:"LIGHTNING_RETRY_MAX_ATTEMPTS"`
	RetryBackoffSeconds     float64 `json:"retry_backoff_seconds" yaml:"retry_backoff_seconds" env:"LIGHTNING_RETRY_BACKOFF"`
}

// Defaults returns the baseline record Load starts from before applying a
// file and the environment.
func Defaults() *Config {
	return &Config{
		Mode:                    ModeLocal,
		StorageProvider:         "local",
		EventBusProvider:        "local",
		ContainerRuntime:        "local",
		ServerlessProvider:      "local",
		APIKeys:                 map[string]string{},
		LogLevel:                "info",
		LogProvider:             "stdout",
		MaxConcurrentOperations: 100,
		OperationTimeoutSeconds: 300,
		RetryMaxAttempts:        3,
		RetryBackoffSeconds:     1,
	}
}

// Load builds the Config from (a) Defaults, (b) an optional config file at
// filePath (JSON, YAML, or TOML, picked by extension), and (c) the
// environment — environment values win over the file, which wins over
// defaults. A missing file is tolerated; any other read or
// decode error is not.
func Load(filePath string) (*Config, error) {
	cfg := Defaults()

	c := config.New()
	if f, ok, err := fileFeeder(filePath); err != nil {
		return nil, newError("file", err.Error())
	} else if ok {
		c.AddFeeder(f)
	}
	c.AddFeeder(feeder.Env{})
	c.AddStruct(cfg)
	if err := c.Feed(); err != nil {
		return nil, newError("file_or_env", err.Error())
	}

	loadAPIKeys(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileFeeder selects one of the framework's own format feeders by file
// extension. ok is false (with a nil error) when filePath is empty or the
// file does not exist, so a missing config file is not an error.
func fileFeeder(filePath string) (f config.Feeder, ok bool, err error) {
	if filePath == "" {
		return nil, false, nil
	}
	if _, statErr := os.Stat(filePath); statErr != nil {
		if os.IsNotExist(statErr) {
			return nil, false, nil
		}
		return nil, false, statErr
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return feeders.NewYamlFeeder(filePath), true, nil
	case ".toml":
		return feeders.NewTomlFeeder(filePath), true, nil
	default:
		return feeders.NewJsonFeeder(filePath), true, nil
	}
}

const apiKeyPrefix = "LIGHTNING_API_KEY_"

func loadAPIKeys(cfg *Config) {
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				key, val := kv[:i], kv[i+1:]
				if len(key) > len(apiKeyPrefix) && key[:len(apiKeyPrefix)] == apiKeyPrefix {
					name := key[len(apiKeyPrefix):]
					cfg.APIKeys[name] = val
				}
				break
			}
		}
	}
}

// Validate rejects an unknown mode and malformed tunables, surfacing *Error.
// Provider names are not checked here; an unregistered name is reported by
// the factory as *provider.UnknownProviderError when the provider is built.
func Validate(cfg *Config) error {
	if !validModes[cfg.Mode] {
		return newError("mode", "unknown mode: "+string(cfg.Mode))
	}
	if cfg.MaxConcurrentOperations <= 0 {
		return newError("max_concurrent_operations", "must be positive")
	}
	if cfg.OperationTimeoutSeconds <= 0 {
		return newError("operation_timeout_seconds", "must be positive")
	}
	if cfg.RetryMaxAttempts < 0 {
		return newError("retry_max_attempts", "must be non-negative")
	}
	if cfg.RetryBackoffSeconds < 0 {
		return newError("retry_backoff_seconds", "must be non-negative")
	}
	return nil
}
