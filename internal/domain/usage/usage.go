package usage

import (
	"time"

	"github.com/kailas-cloud/decayscope/internal/domain/usage/budget"
)

// Report is the embedding provider usage for the current UTC day.
type Report struct {
	provider    string
	periodStart time.Time
	periodEnd   time.Time
	tokensUsed  int64
	budget      budget.Budget
}

// NewReport creates a usage report.
func NewReport(provider string, start, end time.Time, tokensUsed int64, b budget.Budget) Report {
	return Report{
		provider:    provider,
		periodStart: start.UTC(),
		periodEnd:   end.UTC(),
		tokensUsed:  tokensUsed,
		budget:      b,
	}
}

// Provider returns the embedding provider name, empty when embeddings are disabled.
func (r Report) Provider() string { return r.provider }

// PeriodStart returns the start of the reported day.
func (r Report) PeriodStart() time.Time { return r.periodStart }

// PeriodEnd returns the end of the reported day.
func (r Report) PeriodEnd() time.Time { return r.periodEnd }

// TokensUsed returns provider tokens billed so far today. Cache hits are free.
func (r Report) TokensUsed() int64 { return r.tokensUsed }

// Budget returns the budget status.
func (r Report) Budget() budget.Budget { return r.budget }
