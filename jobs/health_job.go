package jobs

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

// HealthProber is the slice of the gateway the monitor needs.
type HealthProber interface {
	Health(ctx context.Context) error
}

// ConnectivityMonitor periodically probes the API liveness endpoint and logs
// reachability transitions. It never re-runs bootstrap: mutations already
// degrade to local-only on their own, so the monitor exists purely for
// operator visibility.
type ConnectivityMonitor struct {
	prober HealthProber
	logger *zap.Logger

	// 0 unknown, 1 reachable, 2 unreachable
	state atomic.Int32
}

// NewConnectivityMonitor creates a monitor around the given prober.
func NewConnectivityMonitor(prober HealthProber, logger *zap.Logger) *ConnectivityMonitor {
	return &ConnectivityMonitor{prober: prober, logger: logger}
}

// Register adds the probe to the scheduler under the given cron expression.
func (m *ConnectivityMonitor) Register(s *Scheduler, cronExpr string) error {
	return s.AddJob("api-connectivity", cronExpr, m.Probe)
}

// Probe runs one liveness check and logs state transitions.
func (m *ConnectivityMonitor) Probe() {
	err := m.prober.Health(context.Background())

	var next int32 = 1
	if err != nil {
		next = 2
	}
	prev := m.state.Swap(next)
	if prev == next {
		return
	}

	if err != nil {
		m.logger.Warn("api unreachable, store continues on local state", zap.Error(err))
	} else {
		m.logger.Info("api reachable")
	}
}

// Reachable reports the last observed state; false until a probe succeeds.
func (m *ConnectivityMonitor) Reachable() bool {
	return m.state.Load() == 1
}
