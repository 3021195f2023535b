package decayscope

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/decayscope/internal/domain/usage"
)

// UsageReport contains today's embedding token usage.
type UsageReport struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	TokensUsed  int64
	Budget      BudgetStatus
}

// BudgetStatus tracks token quota state.
type BudgetStatus struct {
	Unlimited       bool
	TokensLimit     int64
	TokensRemaining int64
	IsExhausted     bool
	ResetsAt        time.Time
}

// Usage returns today's embedding usage. Without an embedder it reports zero usage.
// Observer always records success: the underlying use-case is in-memory.
func (c *Client) Usage(ctx context.Context) UsageReport {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, nil) }()

	report := c.usageSvc.GetReport(ctx)
	b := report.Budget()

	return UsageReport{
		PeriodStart: report.PeriodStart(),
		PeriodEnd:   report.PeriodEnd(),
		TokensUsed:  report.TokensUsed(),
		Budget: BudgetStatus{
			Unlimited:       b.Unlimited(),
			TokensLimit:     b.TokensLimit(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
			ResetsAt:        b.ResetsAt(),
		},
	}
}

// usageUseCase is the internal interface for usage reports.
type usageUseCase interface {
	GetReport(ctx context.Context) domusage.Report
}
