// Package analysis orchestrates the decay detectors into one verdict per document.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/decayscope/internal/domain"
	"github.com/kailas-cloud/decayscope/internal/domain/confidence"
	"github.com/kailas-cloud/decayscope/internal/domain/contradiction"
	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/domain/drift"
	"github.com/kailas-cloud/decayscope/internal/domain/freshness"
	"github.com/kailas-cloud/decayscope/internal/domain/policy"
	"github.com/kailas-cloud/decayscope/internal/domain/recommend"
	"github.com/kailas-cloud/decayscope/internal/domain/vector"
	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
	"github.com/kailas-cloud/decayscope/internal/logger"
	"github.com/kailas-cloud/decayscope/internal/metrics"
)

// Vector sources recorded in the audit block.
const (
	SourceStored   = "stored"
	SourceProvider = "provider"
	SourceLexical  = "lexical"
)

// DefaultEmbedTimeout bounds one embedding provider call.
const DefaultEmbedTimeout = 5 * time.Second

// DefaultMaxConcurrency bounds batch fan-out.
const DefaultMaxConcurrency = 4

// Input is everything one analysis reads. Related, when non-nil, is used as-is;
// otherwise related documents are discovered in CandidatePool.
type Input struct {
	Document      document.Snapshot
	Versions      []document.Version
	Related       []document.Related
	CandidatePool []document.Snapshot
	Now           time.Time
}

// Service runs the decay pipeline.
type Service struct {
	policy         policy.Policy
	detector       *contradiction.Detector
	embed          Embedder
	embedTimeout   time.Duration
	maxConcurrency int
	maxPeerEmbeds  int
	clock          func() time.Time
}

// New creates an analysis service. embed can be nil.
func New(p policy.Policy, embed Embedder) *Service {
	return &Service{
		policy:         p,
		detector:       contradiction.NewDetector(p),
		embed:          embed,
		embedTimeout:   DefaultEmbedTimeout,
		maxConcurrency: DefaultMaxConcurrency,
		maxPeerEmbeds:  DefaultMaxPeerEmbeds,
		clock:          time.Now,
	}
}

// WithDetector replaces the contradiction detector (custom rule tables).
func (s *Service) WithDetector(d *contradiction.Detector) *Service {
	if d != nil {
		s.detector = d
	}
	return s
}

// WithEmbedTimeout configures the per-call embedding timeout.
func (s *Service) WithEmbedTimeout(d time.Duration) *Service {
	if d > 0 {
		s.embedTimeout = d
	}
	return s
}

// WithMaxConcurrency configures how many documents a batch analyzes at once.
func (s *Service) WithMaxConcurrency(n int) *Service {
	if n > 0 {
		s.maxConcurrency = n
	}
	return s
}

// WithMaxPeerEmbeds bounds the provider calls one analysis spends on candidates and
// versions without a stored vector. Zero disables peer embedding.
func (s *Service) WithMaxPeerEmbeds(n int) *Service {
	if n >= 0 {
		s.maxPeerEmbeds = n
	}
	return s
}

// WithClock overrides the clock used when Input.Now is zero.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// Policy returns the thresholds the service scores with.
func (s *Service) Policy() policy.Policy { return s.policy }

// Analyze produces the verdict and audit block for one document. It fails only on
// malformed input; embedding failures degrade to lexical vectors.
func (s *Service) Analyze(ctx context.Context, in Input) (verdict.Outcome, error) {
	start := time.Now()
	doc := in.Document

	if err := doc.Validate(); err != nil {
		return verdict.Outcome{}, err
	}
	if err := document.ValidateVersions(doc.ID(), in.Versions); err != nil {
		return verdict.Outcome{}, err
	}
	ctx = logger.WithDocument(ctx, doc.ID())

	now := in.Now
	if now.IsZero() {
		now = s.clock()
	}

	vec, source := s.resolveVector(ctx, doc)
	doc = doc.WithEmbedding(vec)

	pool, versions := in.CandidatePool, in.Versions
	embeddedPeers := 0
	if source == SourceProvider {
		peers := s.newPeerEmbedder()
		if in.Related == nil {
			pool = peers.pool(ctx, doc, pool)
		}
		versions = peers.versions(ctx, doc, versions)
		embeddedPeers = peers.filled
	}

	related := in.Related
	if related == nil {
		related = s.FindRelated(doc, pool)
	} else {
		related = withoutSelf(doc.ID(), related)
	}

	var (
		fresh  freshness.Result
		contra contradiction.Result
		drifts drift.Result
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		fresh = freshness.Evaluate(s.policy, doc, now)
		return nil
	})
	g.Go(func() error {
		contra = s.detector.Detect(doc, related)
		return nil
	})
	g.Go(func() error {
		drifts = drift.Analyze(s.policy, doc, versions)
		return nil
	})
	if err := g.Wait(); err != nil {
		return verdict.Outcome{}, fmt.Errorf("run detectors: %w", err)
	}

	breakdown := confidence.Score(s.policy, confidence.Inputs{
		AgePenalty:           fresh.Penalty,
		ContradictionPenalty: contra.Penalty,
		DriftPenalty:         drifts.Penalty,
		RelatedCount:         len(related),
	})
	risk := confidence.ClassifyRisk(s.policy, breakdown.FinalConfidence, confidence.Signals{
		HasContradictions:   contra.Has(),
		HasSignificantDrift: drifts.HasSignificant(),
		FreshnessCritical:   fresh.Status == freshness.StatusCritical,
	})

	reasons := make([]verdict.Reason, 0, len(contra.Findings)+3)
	if r, ok := fresh.Reason(doc); ok {
		reasons = append(reasons, r)
	}
	reasons = append(reasons, contra.Reasons()...)
	if r, ok := drifts.Reason(doc); ok {
		reasons = append(reasons, r)
	}
	if breakdown.SupportPenalty > 0 {
		reasons = append(reasons, supportReason(doc, len(related)))
	}

	flagged := confidence.ShouldFlagDecay(breakdown.FinalConfidence, risk)
	summary := recommend.NoSignals
	recs := []verdict.Recommendation{}
	if flagged {
		labels := labelsOf(related)
		summary = recommend.Summary(reasons, labels)
		recs = recommend.Recommendations(reasons, labels)
	}

	out := verdict.Outcome{
		Verdict: verdict.Verdict{
			DecayDetected:         flagged,
			ConfidenceScore:       breakdown.FinalConfidence,
			RiskLevel:             risk,
			DecayReasons:          reasons,
			WhatChangedSummary:    summary,
			UpdateRecommendations: recs,
			Citations:             verdict.Citations(reasons, document.IDs(related)),
		},
		Audit: verdict.Audit{
			Freshness:      fresh.Audit(),
			Contradictions: contra.Audit(),
			Drift:          drifts.Audit(),
			RelatedCount:   len(related),
			VectorSource:   source,
			EmbeddedPeers:  embeddedPeers,
			Confidence:     breakdown,
		},
	}

	metrics.ObserveAnalysis(string(risk), flagged, time.Since(start))
	return out, nil
}

// resolveVector picks the subject vector: stored, then provider, then lexical.
func (s *Service) resolveVector(ctx context.Context, doc document.Snapshot) (vector.Vector, string) {
	if v := doc.Embedding(); !vector.IsEmpty(v) {
		return v, SourceStored
	}
	if s.embed == nil {
		return vector.Lexical(doc.Content()), SourceLexical
	}

	v, err := s.callEmbedder(ctx, doc.Content())
	if err == nil {
		return v, SourceProvider
	}

	reason := fallbackReason(err)
	metrics.EmbeddingFallbacksTotal.WithLabelValues(reason).Inc()
	logger.FromContext(ctx).Warn("Embedding unavailable, using lexical vector",
		zap.String("reason", reason),
		zap.Error(err),
	)
	return vector.Lexical(doc.Content()), SourceLexical
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return "quota"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	default:
		return "provider_error"
	}
}

func supportReason(doc document.Snapshot, related int) verdict.Reason {
	desc := "No related documents corroborate this content"
	if related > 0 {
		desc = fmt.Sprintf("Only %d related document(s) corroborate this content", related)
	}
	return verdict.Reason{
		Type:        verdict.ReasonLowSupport,
		Description: desc,
		Sources:     []string{doc.ID()},
	}
}

func withoutSelf(id string, related []document.Related) []document.Related {
	out := make([]document.Related, 0, len(related))
	for _, r := range related {
		if r.Document.ID() != id {
			out = append(out, r)
		}
	}
	return out
}

func labelsOf(related []document.Related) recommend.Labels {
	labels := make(recommend.Labels, len(related))
	for _, r := range related {
		if t := r.Document.Title(); t != "" {
			labels[r.Document.ID()] = t
		}
	}
	return labels
}
