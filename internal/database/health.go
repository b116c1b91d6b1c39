package database

import (
	"context"
	"time"
)

// HealthStatus reports connectivity and pool usage for readiness probes.
type HealthStatus struct {
	Healthy         bool          `json:"healthy"`
	Latency         time.Duration `json:"latency"`
	OpenConnections int           `json:"open_connections"`
	InUse           int           `json:"in_use"`
	Idle            int           `json:"idle"`
	Error           string        `json:"error,omitempty"`
}

// Health pings the database and snapshots pool stats.
func (m *Manager) Health(ctx context.Context) *HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := m.db.PingContext(ctx)
	latency := time.Since(start)

	stats := m.db.Stats()
	status := &HealthStatus{
		Healthy:         err == nil,
		Latency:         latency,
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}
