package analysis

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/decayscope/internal/domain"
	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/domain/policy"
	"github.com/kailas-cloud/decayscope/internal/domain/vector"
	"github.com/kailas-cloud/decayscope/internal/metrics"
)

// --- Mocks ---

// textEmbedder maps known texts to fixed vectors; unknown texts get the z axis.
type textEmbedder struct {
	mu      sync.Mutex
	vectors map[string]vector.Vector
	failOn  string
	calls   int
}

func (e *textEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if text == e.failOn {
		return domain.EmbeddingResult{}, domain.ErrRateLimited
	}
	v, ok := e.vectors[text]
	if !ok {
		v = vector.Dense{0, 0, 1}
	}
	return domain.EmbeddingResult{Vector: v}, nil
}

func (e *textEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// --- Helpers ---

const (
	subjectText  = "Deployments must complete within 5 minutes."
	lookalike    = "Deployments must complete within 5 minutes, always."
	paraphrase   = "Releases are expected to wrap up quickly."
	unrelatedTxt = "Quarterly budget reviews happen in March."
)

func axisEmbedder() *textEmbedder {
	return &textEmbedder{vectors: map[string]vector.Vector{
		subjectText: vector.Dense{1, 0, 0},
		paraphrase:  vector.Dense{1, 0, 0},
		lookalike:   vector.Dense{0, 1, 0},
	}}
}

// --- Tests ---

func TestAnalyze_PoolComparedInProviderSpace(t *testing.T) {
	emb := axisEmbedder()
	pool := []document.Snapshot{
		snap("doc-a", document.TypeGuide, jan, lookalike),
		snap("doc-b", document.TypeGuide, jan, paraphrase),
	}

	out, err := New(policy.Default(), emb).Analyze(context.Background(), Input{
		Document: snap("doc-1", document.TypeSOP, jan, subjectText), CandidatePool: pool, Now: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Audit.VectorSource != SourceProvider || out.Audit.EmbeddedPeers != 2 {
		t.Errorf("source = %s, embedded peers = %d", out.Audit.VectorSource, out.Audit.EmbeddedPeers)
	}
	if out.Audit.RelatedCount != 1 {
		t.Fatalf("related = %d, want 1", out.Audit.RelatedCount)
	}
	if !slices.Contains(out.Verdict.Citations, "doc-b") || slices.Contains(out.Verdict.Citations, "doc-a") {
		t.Errorf("citations = %v, want the provider neighbor doc-b only", out.Verdict.Citations)
	}
}

func TestAnalyze_VersionsComparedInProviderSpace(t *testing.T) {
	emb := axisEmbedder()
	doc := document.Reconstruct(document.Fields{
		ID: "doc-1", WorkspaceID: "ws", Type: document.TypeSOP, Content: subjectText,
		CurrentVersion: 3, UpdatedAt: jan,
	})
	versions := []document.Version{
		{DocumentID: "doc-1", Number: 2, Content: paraphrase},
		{DocumentID: "doc-1", Number: 1, Content: lookalike},
	}

	out, err := New(policy.Default(), emb).Analyze(context.Background(), Input{
		Document: doc, Versions: versions, Related: []document.Related{}, Now: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	d := out.Audit.Drift
	if d.MaxDrift != 1 || len(d.Changes) != 1 || d.Changes[0].Version != 1 {
		t.Errorf("drift = %+v, want only version 1 drifted", d)
	}
	if versions[0].Embedding != nil || versions[1].Embedding != nil {
		t.Error("caller versions must not be modified")
	}
	// subject + two versions; supplied related skips the pool
	if got := emb.callCount(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestAnalyze_PeerEmbedsBounded(t *testing.T) {
	emb := axisEmbedder()
	pool := []document.Snapshot{
		snap("doc-a", document.TypeGuide, jan, unrelatedTxt),
		snap("doc-b", document.TypeGuide, jan, paraphrase),
		snap("doc-c", document.TypeGuide, jan, lookalike),
	}

	out, err := New(policy.Default(), emb).WithMaxPeerEmbeds(1).Analyze(context.Background(), Input{
		Document: snap("doc-1", document.TypeSOP, jan, subjectText), CandidatePool: pool, Now: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := emb.callCount(); got != 2 {
		t.Errorf("calls = %d, want subject + 1 peer", got)
	}
	if out.Audit.EmbeddedPeers != 1 {
		t.Errorf("embedded peers = %d", out.Audit.EmbeddedPeers)
	}
}

func TestAnalyze_PeerFailureStopsProviderCalls(t *testing.T) {
	emb := axisEmbedder()
	emb.failOn = lookalike
	counter := metrics.EmbeddingFallbacksTotal.WithLabelValues("rate_limited")
	before := testutil.ToFloat64(counter)

	pool := []document.Snapshot{
		snap("doc-a", document.TypeGuide, jan, lookalike),
		snap("doc-b", document.TypeGuide, jan, paraphrase),
	}
	out, err := New(policy.Default(), emb).Analyze(context.Background(), Input{
		Document: snap("doc-1", document.TypeSOP, jan, subjectText), CandidatePool: pool, Now: now,
	})
	if err != nil {
		t.Fatalf("peer failure must not fail the analysis: %v", err)
	}
	if got := emb.callCount(); got != 2 {
		t.Errorf("calls = %d, want subject + failed peer", got)
	}
	if out.Audit.VectorSource != SourceProvider || out.Audit.EmbeddedPeers != 0 {
		t.Errorf("audit = %+v", out.Audit)
	}
	// unembedded peers compare lexically: the lookalike is a close lexical neighbor
	if out.Audit.RelatedCount == 0 {
		t.Error("lexical fallback should still find the lookalike")
	}
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("fallbacks = %v, want %v", got, before+1)
	}
}

func TestAnalyze_NoPeerEmbedsWithoutProviderVector(t *testing.T) {
	emb := axisEmbedder()
	doc := snap("doc-1", document.TypeSOP, jan, subjectText).WithEmbedding(vector.Dense{1, 0, 0})
	pool := []document.Snapshot{snap("doc-b", document.TypeGuide, jan, paraphrase)}

	out, err := New(policy.Default(), emb).Analyze(context.Background(), Input{
		Document: doc, CandidatePool: pool, Now: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	if emb.callCount() != 0 || out.Audit.EmbeddedPeers != 0 {
		t.Errorf("calls = %d, embedded peers = %d", emb.callCount(), out.Audit.EmbeddedPeers)
	}
}

func TestBatchAnalyze_EmbedsSharedPoolOnce(t *testing.T) {
	emb := axisEmbedder()
	pool := []document.Snapshot{
		snap("doc-1", document.TypeSOP, jan, subjectText),
		snap("doc-b", document.TypeGuide, jan, paraphrase),
		snap("doc-c", document.TypeGuide, jan, lookalike),
	}
	items := []Item{{Document: pool[0]}, {Document: pool[1]}}

	results := New(policy.Default(), emb).BatchAnalyze(context.Background(), items, pool, now)
	for _, r := range results {
		if r.Err() != nil {
			t.Fatalf("%s: %v", r.ID(), r.Err())
		}
	}
	// three pool members up front, then one subject call per item
	if got := emb.callCount(); got != 5 {
		t.Errorf("calls = %d, want 5", got)
	}
}
