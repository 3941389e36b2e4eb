// Package runtime wires the Config, Factory, health wrapper, event bus, and
// instruction processor into one assembled process.
package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/lightning-os/runtime/config"
	"github.com/lightning-os/runtime/factory"
	"github.com/lightning-os/runtime/health"
	"github.com/lightning-os/runtime/instruction"
	"github.com/lightning-os/runtime/internal/logging"
	"github.com/lightning-os/runtime/plan"
	"github.com/lightning-os/runtime/planvalidate"
	"github.com/lightning-os/runtime/provider"
)

const defaultHealthCheckInterval = 30 * time.Second

// Runtime holds every assembled capability for one process.
type Runtime struct {
	Config *config.Config
	Logger logging.Logger

	Storage    provider.StorageProvider
	Bus        provider.EventBus
	Containers provider.ContainerRuntime
	Serverless provider.ServerlessRuntime

	Monitor *health.Monitor

	Tools      *plan.ToolRegistry
	Events     *plan.EventRegistry
	PlanStore  plan.Store
	Validator  *planvalidate.Validator
	Processor  *instruction.Processor
}

// Options lets a caller supply the collaborator the core does not implement
// (the planner), the logger, and the instruction observer, while leaving
// provider construction to the factory. The registries are always built by
// Assemble and are not overridable here.
type Options struct {
	Planner  instruction.Planner
	Logger   logging.Logger
	Observer instruction.Observer
}

// Assemble builds a Runtime: config -> providers via the factory ->
// resilient wrapping -> health monitor -> event bus -> instruction processor
// subscribed as a handler.
func Assemble(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	if opts.Planner == nil {
		return nil, fmt.Errorf("runtime: a Planner collaborator is required")
	}

	f := factory.GetFactory()

	storage, err := f.CreateStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("runtime: create storage: %w", err)
	}
	eventBus, err := f.CreateEventBus(cfg)
	if err != nil {
		return nil, fmt.Errorf("runtime: create event bus: %w", err)
	}
	containers, err := f.CreateContainerRuntime(cfg)
	if err != nil {
		return nil, fmt.Errorf("runtime: create container runtime: %w", err)
	}
	serverless, err := f.CreateServerlessRuntime(cfg)
	if err != nil {
		return nil, fmt.Errorf("runtime: create serverless runtime: %w", err)
	}

	monitor := health.NewMonitor(defaultHealthCheckInterval, opts.Logger)

	storageBreaker := health.NewCircuitBreaker("storage", health.DefaultCircuitBreakerConfig())
	resilientStorage := health.NewResilientStorageProvider(storage, storageBreaker)
	monitor.Register("storage", resilientStorage)

	containerBreaker := health.NewCircuitBreaker("container_runtime", health.DefaultCircuitBreakerConfig())
	resilientContainers := health.NewResilientContainerRuntime(containers, containerBreaker)
	monitor.Register("container_runtime", resilientContainers)

	serverlessBreaker := health.NewCircuitBreaker("serverless", health.DefaultCircuitBreakerConfig())
	resilientServerless := health.NewResilientServerlessRuntime(serverless, serverlessBreaker)
	monitor.Register("serverless", resilientServerless)

	// The event bus is not itself HealthCheckable; it is wrapped
	// for Publish admission control using its own breaker, independent of
	// the health monitor's registered targets.
	busBreaker := health.NewCircuitBreaker("event_bus", health.DefaultCircuitBreakerConfig())
	resilientBus := health.NewResilientEventBus(eventBus, busBreaker)

	if err := storage.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("runtime: initialize storage: %w", err)
	}

	monitor.Start(ctx)

	if err := resilientBus.Start(ctx); err != nil {
		monitor.Stop()
		return nil, fmt.Errorf("runtime: start event bus: %w", err)
	}

	tools := plan.NewToolRegistry(opts.Logger)
	events := plan.NewEventRegistry(opts.Logger)
	store := plan.NewMemoryStore()

	validator, err := planvalidate.NewValidator(tools, events)
	if err != nil {
		return nil, fmt.Errorf("runtime: build plan validator: %w", err)
	}

	processor := instruction.NewProcessor(opts.Planner, validator, tools, events, store, opts.Logger, opts.Observer)
	processor.SetRetryBackoff(time.Duration(cfg.RetryBackoffSeconds * float64(time.Second)))
	if err := processor.Subscribe(resilientBus, "default"); err != nil {
		return nil, fmt.Errorf("runtime: subscribe instruction processor: %w", err)
	}

	return &Runtime{
		Config:     cfg,
		Logger:     opts.Logger,
		Storage:    resilientStorage,
		Bus:        resilientBus,
		Containers: resilientContainers,
		Serverless: resilientServerless,
		Monitor:    monitor,
		Tools:      tools,
		Events:     events,
		PlanStore:  store,
		Validator:  validator,
		Processor:  processor,
	}, nil
}

// Shutdown tears down in reverse order: bus stopped, monitor stopped,
// storage closed. The instruction processor has no separate lifecycle to
// unwind beyond its bus subscription, which stops receiving once the bus
// does.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if err := r.Bus.Stop(ctx); err != nil {
		return fmt.Errorf("runtime: stop event bus: %w", err)
	}
	r.Monitor.Stop()
	if err := r.Storage.Close(ctx); err != nil {
		return fmt.Errorf("runtime: close storage: %w", err)
	}
	return nil
}
