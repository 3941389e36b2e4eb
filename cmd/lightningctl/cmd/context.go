package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lightning-os/runtime/config"
	"github.com/lightning-os/runtime/factory"
	"github.com/lightning-os/runtime/internal/logging"
	"github.com/lightning-os/runtime/plan"
	"github.com/lightning-os/runtime/planvalidate"
	"github.com/lightning-os/runtime/provider"
)

const appsContainer = "lightningctl_apps"

// cliContext holds the collaborators every subcommand needs, assembled from
// --config/--tools-file/--events-file rather than a running Runtime: the CLI
// is a short-lived process per invocation.
type cliContext struct {
	cfg    *config.Config
	logger logging.Logger
	tools  *plan.ToolRegistry
	events *plan.EventRegistry
}

func loadContext(cmd *cobra.Command) (*cliContext, error) {
	configPath, _ := cmd.Flags().GetString("config")
	toolsFile, _ := cmd.Flags().GetString("tools-file")
	eventsFile, _ := cmd.Flags().GetString("events-file")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewSlog(parseLevel(cfg.LogLevel))

	tools := plan.NewToolRegistry(logger)
	if toolsFile != "" {
		if err := seedTools(tools, toolsFile); err != nil {
			return nil, fmt.Errorf("load tools file: %w", err)
		}
	}

	events := plan.NewEventRegistry(logger)
	if eventsFile != "" {
		if err := seedEvents(events, eventsFile); err != nil {
			return nil, fmt.Errorf("load events file: %w", err)
		}
	}

	return &cliContext{cfg: cfg, logger: logger, tools: tools, events: events}, nil
}

func (c *cliContext) newValidator() (*planvalidate.Validator, error) {
	return planvalidate.NewValidator(c.tools, c.events)
}

// openStorage instantiates the configured StorageProvider directly through
// the factory: the CLI does not run the health monitor or wrap providers in
// a circuit breaker, since each invocation is a single short operation.
func (c *cliContext) openStorage(ctx context.Context) (provider.StorageProvider, error) {
	storage, err := factory.GetFactory().CreateStorage(c.cfg)
	if err != nil {
		return nil, err
	}
	if err := storage.Initialize(ctx); err != nil {
		return nil, err
	}
	return storage, nil
}

func (c *cliContext) appsStore(ctx context.Context) (provider.DocumentStore, func(), error) {
	storage, err := c.openStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := storage.CreateContainerIfNotExists(ctx, appsContainer, "/id"); err != nil {
		return nil, nil, err
	}
	ds, err := storage.GetDocumentStore(appsContainer)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = storage.Close(ctx) }
	return ds, closeFn, nil
}

func seedTools(reg *plan.ToolRegistry, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var defs []plan.ToolMetadata
	if err := json.Unmarshal(raw, &defs); err != nil {
		return err
	}
	for _, d := range defs {
		reg.Register(d)
	}
	return nil
}

func seedEvents(reg *plan.EventRegistry, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var defs []plan.EventDefinition
	if err := json.Unmarshal(raw, &defs); err != nil {
		return err
	}
	for _, d := range defs {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
