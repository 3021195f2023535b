package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	dombatch "github.com/kailas-cloud/decayscope/internal/domain/batch"
	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/logger"
	"github.com/kailas-cloud/decayscope/internal/metrics"
)

// Item is one document of a batch with its version history.
type Item struct {
	Document document.Snapshot
	Versions []document.Version
}

// BatchAnalyze analyzes every item against the shared candidate pool. Results keep
// input order; an item that fails yields an error record instead of failing the batch.
// A zero now means the service clock, read once for the whole batch. With an embedder,
// pool members without a vector are embedded once up front.
func (s *Service) BatchAnalyze(
	ctx context.Context, items []Item, pool []document.Snapshot, now time.Time,
) []dombatch.Result {
	if now.IsZero() {
		now = s.clock()
	}
	if s.embed != nil {
		pool = s.newPeerEmbedder().shared(ctx, pool)
	}
	results := make([]dombatch.Result, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for i := range items {
		i := i
		g.Go(func() error {
			results[i] = s.analyzeItem(gctx, items[i], pool, now)
			metrics.BatchItemsTotal.WithLabelValues(string(results[i].Status())).Inc()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Service) analyzeItem(
	ctx context.Context, it Item, pool []document.Snapshot, now time.Time,
) dombatch.Result {
	id := it.Document.ID()
	if err := ctx.Err(); err != nil {
		return dombatch.NewError(id, fmt.Errorf("batch canceled: %w", err))
	}

	out, err := s.Analyze(ctx, Input{
		Document:      it.Document,
		Versions:      it.Versions,
		CandidatePool: pool,
		Now:           now,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("Batch item failed", zap.String("document_id", id), zap.Error(err))
		return dombatch.NewError(id, err)
	}
	return dombatch.NewOK(id, out)
}
