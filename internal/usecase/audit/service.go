// Package audit persists analysis outcomes and drives their review workflow.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/decayscope/internal/domain/review"
	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
	"github.com/kailas-cloud/decayscope/internal/logger"
)

// Service records analyses and applies review decisions.
type Service struct {
	repo  Repository
	clock func() time.Time
	newID func() string
}

// New creates an audit service.
func New(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now, newID: uuid.NewString}
}

// WithClock overrides the clock stamped on records and reviews.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// WithIDGenerator overrides record id generation.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	if gen != nil {
		s.newID = gen
	}
	return s
}

// Record stores a fresh analysis as a pending record.
func (s *Service) Record(
	ctx context.Context, documentID, workspaceID string, out verdict.Outcome,
) (review.Record, error) {
	rec := review.NewRecord(s.newID(), documentID, workspaceID, out, s.clock())
	if err := s.repo.Create(ctx, rec); err != nil {
		return review.Record{}, fmt.Errorf("record analysis: %w", err)
	}
	logger.FromContext(ctx).Debug("Analysis recorded",
		zap.String("analysis_id", rec.ID),
		zap.String("document_id", documentID),
		zap.String("risk_level", string(out.Verdict.RiskLevel)),
	)
	return rec, nil
}

// Get returns a stored analysis.
func (s *Service) Get(ctx context.Context, id string) (review.Record, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return review.Record{}, fmt.Errorf("get analysis: %w", err)
	}
	return rec, nil
}

// Latest returns the most recent analysis of a document.
func (s *Service) Latest(ctx context.Context, documentID string) (review.Record, error) {
	rec, err := s.repo.Latest(ctx, documentID)
	if err != nil {
		return review.Record{}, fmt.Errorf("latest analysis: %w", err)
	}
	return rec, nil
}

// History returns up to limit analyses of a document, newest first.
func (s *Service) History(ctx context.Context, documentID string, limit int) ([]review.Record, error) {
	recs, err := s.repo.History(ctx, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("analysis history: %w", err)
	}
	return recs, nil
}

// Review moves a pending analysis to status.
func (s *Service) Review(ctx context.Context, id, status string) (review.Record, error) {
	to, err := review.Parse(status)
	if err != nil {
		return review.Record{}, err
	}

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return review.Record{}, fmt.Errorf("get analysis: %w", err)
	}

	next, err := rec.Review(to, s.clock())
	if err != nil {
		return review.Record{}, err
	}
	if err := s.repo.Update(ctx, next); err != nil {
		return review.Record{}, fmt.Errorf("update analysis: %w", err)
	}

	logger.FromContext(ctx).Info("Analysis reviewed",
		zap.String("analysis_id", id),
		zap.String("from", string(rec.Status)),
		zap.String("to", string(next.Status)),
	)
	return next, nil
}
