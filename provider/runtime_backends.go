package provider

import "context"

// ContainerRuntime and ServerlessRuntime are specified only to the extent
// the core references them: enough surface for the factory and
// resilient wrapper to treat them like any other capability, with concrete
// behavior left to out-of-core collaborators (Docker/K8s/cloud SDKs).
type ContainerRuntime interface {
	HealthCheckable
	RunContainer(ctx context.Context, image string, args []string, env map[string]string) (string, error)
	StopContainer(ctx context.Context, containerID string) error
}

type ServerlessRuntime interface {
	HealthCheckable
	Invoke(ctx context.Context, functionName string, payload map[string]any) (map[string]any, error)
}
