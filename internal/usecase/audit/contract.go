package audit

import (
	"context"

	"github.com/kailas-cloud/decayscope/internal/domain/review"
)

// Repository persists analysis records.
type Repository interface {
	Create(ctx context.Context, rec review.Record) error
	Update(ctx context.Context, rec review.Record) error
	Get(ctx context.Context, id string) (review.Record, error)
	Latest(ctx context.Context, documentID string) (review.Record, error)
	History(ctx context.Context, documentID string, limit int) ([]review.Record, error)
}
