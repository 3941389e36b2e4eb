package health

import (
	"context"
	"sync"
	"time"

	"github.com/lightning-os/runtime/internal/logging"
	"github.com/lightning-os/runtime/provider"
)

// StatusChangeCallback is invoked whenever a monitored target's status
// differs from its previous observation.
type StatusChangeCallback func(name string, previous, current provider.HealthStatus)

const defaultHistorySize = 100

type observation struct {
	result provider.HealthCheckResult
}

type target struct {
	name    string
	checker provider.HealthCheckable
	history []observation
	last    provider.HealthStatus
}

// Monitor periodically observes a set of HealthCheckable targets and keeps
// a bounded history per target. It never mutates a CircuitBreaker directly:
// breaker state and health observations are deliberately decoupled, so a
// degraded-but-not-yet-tripped dependency is still visible.
type Monitor struct {
	mu          sync.Mutex
	interval    time.Duration
	historySize int
	logger      logging.Logger

	targets   map[string]*target
	callbacks []StatusChangeCallback

	cancel context.CancelFunc
	done   chan struct{}
}

func NewMonitor(interval time.Duration, logger logging.Logger) *Monitor {
	if logger == nil {
		logger = logging.Nop{}
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		interval:    interval,
		historySize: defaultHistorySize,
		logger:      logger,
		targets:     make(map[string]*target),
	}
}

// Register adds a target to the rotation. Safe to call before or after Start.
func (m *Monitor) Register(name string, checker provider.HealthCheckable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.targets[name] = &target{name: name, checker: checker, last: provider.HealthUnknown}
}

func (m *Monitor) Unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.targets, name)
}

func (m *Monitor) OnStatusChange(cb StatusChangeCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// Start launches the periodic observation loop. Idempotent.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.loop(loopCtx)
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.observeAll(ctx)
		}
	}
}

func (m *Monitor) observeAll(ctx context.Context) {
	m.mu.Lock()
	snapshot := make([]*target, 0, len(m.targets))
	for _, t := range m.targets {
		snapshot = append(snapshot, t)
	}
	m.mu.Unlock()

	for _, t := range snapshot {
		result, err := t.checker.HealthCheck(ctx)
		if err != nil {
			result = provider.HealthCheckResult{Status: provider.HealthUnhealthy, Error: err.Error(), Timestamp: time.Now().UTC()}
		}
		m.record(t.name, result)
	}
}

func (m *Monitor) record(name string, result provider.HealthCheckResult) {
	m.mu.Lock()
	t, ok := m.targets[name]
	if !ok {
		m.mu.Unlock()
		return
	}
	previous := t.last
	t.last = result.Status
	t.history = append(t.history, observation{result: result})
	if len(t.history) > m.historySize {
		t.history = t.history[len(t.history)-m.historySize:]
	}
	callbacks := append([]StatusChangeCallback(nil), m.callbacks...)
	m.mu.Unlock()

	if previous != result.Status {
		m.logger.Info("health status changed", "target", name, "from", previous, "to", result.Status)
		for _, cb := range callbacks {
			cb(name, previous, result.Status)
		}
	}
}

// History returns up to historySize most recent observations for a target,
// oldest first.
func (m *Monitor) History(name string) []provider.HealthCheckResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[name]
	if !ok {
		return nil
	}
	out := make([]provider.HealthCheckResult, len(t.history))
	for i, o := range t.history {
		out[i] = o.result
	}
	return out
}

// Status returns every target's most recently observed status.
func (m *Monitor) Status() map[string]provider.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]provider.HealthStatus, len(m.targets))
	for name, t := range m.targets {
		out[name] = t.last
	}
	return out
}
