package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/decayscope/internal/domain/usage"
	"github.com/kailas-cloud/decayscope/internal/domain/usage/budget"
)

// Service handles usage reporting.
type Service struct {
	br    BudgetReader
	clock func() time.Time
}

// New creates a Service. br can be nil (embeddings disabled or no tracking).
func New(br BudgetReader) *Service {
	return &Service{br: br, clock: time.Now}
}

// WithClock overrides the clock that decides the reported day.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// GetReport builds the usage report for the current UTC day.
func (s *Service) GetReport(_ context.Context) domusage.Report {
	now := s.clock().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	if s.br == nil {
		return domusage.NewReport("", dayStart, dayEnd, 0, budget.New(0, 0, dayEnd))
	}

	b := budget.New(s.br.Limit(), s.br.Remaining(), dayEnd)
	return domusage.NewReport(s.br.Provider(), dayStart, dayEnd, s.br.Used(), b)
}
