package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/decayscope/internal/domain"
	dombatch "github.com/kailas-cloud/decayscope/internal/domain/batch"
	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/domain/policy"
	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
	"github.com/kailas-cloud/decayscope/internal/metrics"
)

func TestBatchAnalyze_NullContentYieldsErrorRecord(t *testing.T) {
	items := []Item{
		{Document: deploySubject()},
		{Document: snap("doc-bad", document.TypeSOP, jan, "")},
	}
	errBefore := testutil.ToFloat64(metrics.BatchItemsTotal.WithLabelValues("error"))

	results := New(policy.Default(), nil).BatchAnalyze(context.Background(), items, nil, now)
	if len(results) != 2 {
		t.Fatalf("len = %d, want 2", len(results))
	}

	if results[0].ID() != "doc-1" || results[0].Status() != dombatch.StatusOK {
		t.Errorf("results[0] = %+v", results[0])
	}

	bad := results[1]
	if bad.ID() != "doc-bad" || bad.Status() != dombatch.StatusError {
		t.Fatalf("results[1] = %+v", bad)
	}
	if !errors.Is(bad.Err(), domain.ErrInvalidDocument) {
		t.Errorf("err = %v", bad.Err())
	}
	v := bad.Verdict()
	if v.RiskLevel != verdict.RiskHigh || v.DecayDetected || v.ConfidenceScore != 0 {
		t.Errorf("error verdict = %+v", v)
	}
	if len(v.DecayReasons) != 1 || v.DecayReasons[0].Type != verdict.ReasonError {
		t.Fatalf("reasons = %+v", v.DecayReasons)
	}
	if v.DecayReasons[0].Sources[0] != "doc-bad" || !strings.Contains(v.DecayReasons[0].Description, "invalid document") {
		t.Errorf("reason = %+v", v.DecayReasons[0])
	}

	if got := testutil.ToFloat64(metrics.BatchItemsTotal.WithLabelValues("error")); got != errBefore+1 {
		t.Errorf("batch_items_total{error} = %v, want %v", got, errBefore+1)
	}
}

func TestBatchAnalyze_PreservesOrder(t *testing.T) {
	ids := []string{"d0", "d1", "d2", "d3", "d4", "d5", "d6", "d7", "d8", "d9"}
	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, Item{Document: snap(id, document.TypeNotes, jan, "Notes must list the on-call owner.")})
	}

	results := New(policy.Default(), nil).WithMaxConcurrency(3).BatchAnalyze(context.Background(), items, nil, now)
	for i, r := range results {
		if r.ID() != ids[i] {
			t.Errorf("results[%d].ID() = %s, want %s", i, r.ID(), ids[i])
		}
	}
}

func TestBatchAnalyze_SharedPoolAndClock(t *testing.T) {
	pool := []document.Snapshot{deploySubject(), deployNewer()}
	items := []Item{{Document: deploySubject()}, {Document: deployNewer()}}

	results := New(policy.Default(), nil).BatchAnalyze(context.Background(), items, pool, now)
	if !results[0].Verdict().DecayDetected || results[0].Verdict().RiskLevel != verdict.RiskHigh {
		t.Errorf("older deploy doc should be contradicted: %+v", results[0].Verdict())
	}
	if results[1].Verdict().RiskLevel == verdict.RiskHigh {
		t.Errorf("newer deploy doc should not be contradicted by the older one: %+v", results[1].Verdict())
	}
}

func TestBatchAnalyze_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := New(policy.Default(), nil).BatchAnalyze(ctx, []Item{{Document: deploySubject()}}, nil, now)
	if results[0].Status() != dombatch.StatusError {
		t.Errorf("status = %s, want error", results[0].Status())
	}
	if !errors.Is(results[0].Err(), context.Canceled) {
		t.Errorf("err = %v", results[0].Err())
	}
}

func TestBatchAnalyze_Empty(t *testing.T) {
	if got := New(policy.Default(), nil).BatchAnalyze(context.Background(), nil, nil, now); len(got) != 0 {
		t.Errorf("results = %+v", got)
	}
}
