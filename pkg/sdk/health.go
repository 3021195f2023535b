package decayscope

import (
	"context"

	healthuc "github.com/kailas-cloud/decayscope/internal/usecase/health"
	"github.com/kailas-cloud/decayscope/internal/version"
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded" (embedder down), "error" (store down)
	Checks map[string]string // component → "ok"/"error"/"disabled"
	Build  string            // library version and commit
}

// Healthy reports whether every enabled component answered.
func (h HealthStatus) Healthy() bool { return h.Status == string(healthuc.Healthy) }

// CanAnalyze reports whether analyses can run and be stored. A degraded client
// still analyzes, on lexical vectors.
func (h HealthStatus) CanAnalyze() bool { return h.Status != string(healthuc.Unhealthy) }

// Health checks the store and, when it can report, the embedder.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
		Build:  version.Current().String(),
	}
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
