package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/decayscope/internal/db"
	"github.com/kailas-cloud/decayscope/internal/domain"
	"github.com/kailas-cloud/decayscope/internal/domain/review"
)

// DefaultHistoryLimit caps the per-document analysis history list.
const DefaultHistoryLimit = 50

var (
	recordPrefix  = domain.KeyPrefix + "analysis:"
	latestPrefix  = domain.KeyPrefix + "analysis:latest:"
	historyPrefix = domain.KeyPrefix + "analysis:history:"
)

// store is the consumer interface for the analysis repository (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	PushCapped(ctx context.Context, key string, value []byte, maxLen int64) error
	Range(ctx context.Context, key string, start, stop int64) ([][]byte, error)
}

// Repo stores analysis records as JSON values in Redis.
type Repo struct {
	store        store
	historyLimit int64
}

// New creates an analysis repository.
func New(s store) *Repo {
	return &Repo{store: s, historyLimit: DefaultHistoryLimit}
}

// WithHistoryLimit overrides the per-document history cap.
func (r *Repo) WithHistoryLimit(n int) *Repo {
	if n > 0 {
		r.historyLimit = int64(n)
	}
	return r
}

// Create stores a new record and makes it the document's latest analysis.
func (r *Repo) Create(ctx context.Context, rec review.Record) error {
	if err := r.put(ctx, rec); err != nil {
		return err
	}
	if err := r.store.Set(ctx, latestPrefix+rec.DocumentID, []byte(rec.ID)); err != nil {
		return fmt.Errorf("set latest analysis: %w", err)
	}
	if err := r.store.PushCapped(ctx, historyPrefix+rec.DocumentID, []byte(rec.ID), r.historyLimit); err != nil {
		return fmt.Errorf("append analysis history: %w", err)
	}
	return nil
}

// Update overwrites an existing record.
func (r *Repo) Update(ctx context.Context, rec review.Record) error {
	return r.put(ctx, rec)
}

// Get loads a record by id.
func (r *Repo) Get(ctx context.Context, id string) (review.Record, error) {
	data, err := r.store.Get(ctx, recordPrefix+id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return review.Record{}, fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
		}
		return review.Record{}, fmt.Errorf("get analysis: %w", err)
	}

	var dto recordDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return review.Record{}, fmt.Errorf("decode analysis %s: %w", id, err)
	}
	return fromDTO(dto), nil
}

// Latest loads the most recent record for a document.
func (r *Repo) Latest(ctx context.Context, documentID string) (review.Record, error) {
	id, err := r.store.Get(ctx, latestPrefix+documentID)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return review.Record{}, fmt.Errorf("no analysis for document %s: %w", documentID, domain.ErrNotFound)
		}
		return review.Record{}, fmt.Errorf("get latest analysis: %w", err)
	}
	return r.Get(ctx, string(id))
}

// History returns up to limit records for a document, newest first. Records that
// have expired or vanished are skipped.
func (r *Repo) History(ctx context.Context, documentID string, limit int) ([]review.Record, error) {
	if limit <= 0 || int64(limit) > r.historyLimit {
		limit = int(r.historyLimit)
	}
	ids, err := r.store.Range(ctx, historyPrefix+documentID, 0, int64(limit)-1)
	if err != nil {
		return nil, fmt.Errorf("list analysis history: %w", err)
	}

	out := make([]review.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := r.Get(ctx, string(id))
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Repo) put(ctx context.Context, rec review.Record) error {
	data, err := json.Marshal(toDTO(rec))
	if err != nil {
		return fmt.Errorf("encode analysis %s: %w", rec.ID, err)
	}
	if err := r.store.Set(ctx, recordPrefix+rec.ID, data); err != nil {
		return fmt.Errorf("store analysis: %w", err)
	}
	return nil
}
