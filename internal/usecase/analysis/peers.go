package analysis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/decayscope/internal/domain"
	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/domain/vector"
	"github.com/kailas-cloud/decayscope/internal/logger"
	"github.com/kailas-cloud/decayscope/internal/metrics"
)

// DefaultMaxPeerEmbeds bounds the provider calls one analysis spends on candidates and
// prior versions that carry no stored vector.
const DefaultMaxPeerEmbeds = 32

// peerEmbedder gives candidates and versions a provider vector so they compare in the
// same space as a provider-embedded subject. It stops calling the provider after the
// first failure or once its call budget is spent; peers left without a vector are
// compared lexically.
type peerEmbedder struct {
	svc    *Service
	left   int
	failed bool
	filled int
}

func (s *Service) newPeerEmbedder() *peerEmbedder {
	return &peerEmbedder{svc: s, left: s.maxPeerEmbeds}
}

func (p *peerEmbedder) embed(ctx context.Context, text string) vector.Vector {
	if p.failed || p.left <= 0 || strings.TrimSpace(text) == "" {
		return nil
	}
	p.left--

	v, err := p.svc.callEmbedder(ctx, text)
	if err != nil {
		p.failed = true
		reason := fallbackReason(err)
		metrics.EmbeddingFallbacksTotal.WithLabelValues(reason).Inc()
		logger.FromContext(ctx).Warn("Peer embedding unavailable, comparing lexically",
			zap.String("reason", reason),
			zap.Error(err),
		)
		return nil
	}
	p.filled++
	return v
}

// pool returns a copy of pool where candidates of the subject's workspace without a
// vector carry a provider vector.
func (p *peerEmbedder) pool(
	ctx context.Context, subject document.Snapshot, pool []document.Snapshot,
) []document.Snapshot {
	return p.fill(ctx, pool, func(c document.Snapshot) bool {
		return c.ID() != subject.ID() && c.WorkspaceID() == subject.WorkspaceID()
	})
}

// shared embeds a candidate pool once for a whole batch.
func (p *peerEmbedder) shared(ctx context.Context, pool []document.Snapshot) []document.Snapshot {
	return p.fill(ctx, pool, func(document.Snapshot) bool { return true })
}

func (p *peerEmbedder) fill(
	ctx context.Context, pool []document.Snapshot, want func(document.Snapshot) bool,
) []document.Snapshot {
	out := make([]document.Snapshot, len(pool))
	copy(out, pool)
	for i, c := range out {
		if !vector.IsEmpty(c.Embedding()) || !want(c) {
			continue
		}
		if v := p.embed(ctx, c.Content()); v != nil {
			out[i] = c.WithEmbedding(v)
		}
	}
	return out
}

// versions returns a copy of versions where prior versions without a vector carry a
// provider vector.
func (p *peerEmbedder) versions(
	ctx context.Context, subject document.Snapshot, versions []document.Version,
) []document.Version {
	out := make([]document.Version, len(versions))
	copy(out, versions)
	for i := range out {
		if out[i].Number >= subject.CurrentVersion() || !vector.IsEmpty(out[i].Embedding) {
			continue
		}
		if v := p.embed(ctx, out[i].Content); v != nil {
			out[i].Embedding = v
		}
	}
	return out
}

// callEmbedder runs one provider call under the embed timeout. An empty vector is a
// provider error.
func (s *Service) callEmbedder(ctx context.Context, text string) (vector.Vector, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	res, err := s.embed.Embed(callCtx, text)
	if err != nil {
		return nil, err
	}
	if vector.IsEmpty(res.Vector) {
		return nil, fmt.Errorf("empty vector: %w", domain.ErrEmbeddingProviderError)
	}
	return res.Vector, nil
}
