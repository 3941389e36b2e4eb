package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lightning-os/runtime/provider"
)

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// localContainerRuntime is the "local" ContainerRuntime: it tracks handles
// in memory rather than shelling out to a container engine, enough for the
// core to exercise the capability end-to-end in development.
type localContainerRuntime struct {
	mu      sync.Mutex
	running map[string]string // id -> image
}

func newLocalContainerRuntime() *localContainerRuntime {
	return &localContainerRuntime{running: make(map[string]string)}
}

func (r *localContainerRuntime) RunContainer(ctx context.Context, image string, args []string, env map[string]string) (string, error) {
	id := uuid.NewString()
	r.mu.Lock()
	r.running[id] = image
	r.mu.Unlock()
	return id, nil
}

func (r *localContainerRuntime) StopContainer(ctx context.Context, containerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.running[containerID]; !ok {
		return &provider.NotFoundError{Kind: "container", ID: containerID}
	}
	delete(r.running, containerID)
	return nil
}

func (r *localContainerRuntime) HealthCheck(ctx context.Context) (provider.HealthCheckResult, error) {
	return provider.HealthCheckResult{Status: provider.HealthHealthy, Timestamp: time.Now().UTC()}, nil
}

// localServerlessRuntime is the "local" ServerlessRuntime: Invoke echoes the
// payload back under the invoked function's name, standing in for a real
// FaaS dispatch.
type localServerlessRuntime struct{}

func newLocalServerlessRuntime() *localServerlessRuntime {
	return &localServerlessRuntime{}
}

func (r *localServerlessRuntime) Invoke(ctx context.Context, functionName string, payload map[string]any) (map[string]any, error) {
	if functionName == "" {
		return nil, fmt.Errorf("factory: function name required")
	}
	return map[string]any{"function": functionName, "echo": payload}, nil
}

func (r *localServerlessRuntime) HealthCheck(ctx context.Context) (provider.HealthCheckResult, error) {
	return provider.HealthCheckResult{Status: provider.HealthHealthy, Timestamp: time.Now().UTC()}, nil
}

var (
	_ provider.ContainerRuntime  = (*localContainerRuntime)(nil)
	_ provider.ServerlessRuntime = (*localServerlessRuntime)(nil)
)
