package drift

import (
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/domain/policy"
	"github.com/kailas-cloud/decayscope/internal/domain/vector"
	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
)

func subject(current int) document.Snapshot {
	return document.Reconstruct(document.Fields{
		ID: "doc-1", Type: document.TypeSpec, Content: "alpha beta gamma",
		CurrentVersion: current, UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Embedding: vector.Dense{1, 0},
	})
}

func version(n int, emb vector.Dense) document.Version {
	return document.Version{DocumentID: "doc-1", Number: n, Content: "unused", Embedding: emb}
}

func TestAnalyze_NoVersions(t *testing.T) {
	res := Analyze(policy.Default(), subject(1), nil)
	if res.Penalty != 0 || res.MaxDrift != 0 || len(res.Changes) != 0 {
		t.Errorf("res = %+v", res)
	}
	if _, ok := res.Reason(subject(1)); ok {
		t.Error("no versions should yield no reason")
	}
}

func TestAnalyze_OnlyPriorVersionsCompared(t *testing.T) {
	versions := []document.Version{
		version(3, vector.Dense{0, 1}),
		version(2, vector.Dense{1, 0}),
	}
	res := Analyze(policy.Default(), subject(3), versions)
	if res.Compared != 1 {
		t.Errorf("Compared = %d, want 1", res.Compared)
	}
	if res.MaxDrift != 0 || len(res.Changes) != 0 {
		t.Errorf("current version must be ignored: %+v", res)
	}
}

func TestAnalyze_SignificantReferencesMostRecent(t *testing.T) {
	versions := []document.Version{
		version(1, vector.Dense{1, 2}), // drift 0.553
		version(3, vector.Dense{3, 4}), // drift 0.4
		version(2, vector.Dense{1, 1}), // drift 0.293
	}
	snapshot := append([]document.Version(nil), versions...)

	res := Analyze(policy.Default(), subject(4), versions)

	if res.Penalty != 0.2 {
		t.Errorf("Penalty = %v, want 0.2", res.Penalty)
	}
	if res.MaxDrift != 0.553 {
		t.Errorf("MaxDrift = %v, want 0.553", res.MaxDrift)
	}
	if len(res.Changes) != 3 {
		t.Fatalf("Changes = %+v", res.Changes)
	}
	wantOrder := []int{3, 2, 1}
	for i, c := range res.Changes {
		if c.Version != wantOrder[i] {
			t.Errorf("Changes[%d].Version = %d, want %d", i, c.Version, wantOrder[i])
		}
	}
	if !res.Changes[0].Significant || res.Changes[1].Significant || !res.Changes[2].Significant {
		t.Errorf("significance = %+v", res.Changes)
	}
	if !res.HasSignificant() {
		t.Error("HasSignificant() = false")
	}

	r, ok := res.Reason(subject(4))
	if !ok {
		t.Fatal("expected a reason")
	}
	if r.Type != verdict.ReasonVersionDrift || !strings.Contains(r.Description, "version 3") {
		t.Errorf("reason = %+v", r)
	}
	if !strings.Contains(r.Description, "significant") {
		t.Errorf("Description = %q", r.Description)
	}

	for i := range versions {
		if versions[i].Number != snapshot[i].Number {
			t.Fatal("input versions were reordered")
		}
	}
}

func TestAnalyze_ModerateOnly(t *testing.T) {
	versions := []document.Version{
		version(1, vector.Dense{1, 1}), // drift 0.293
		version(2, vector.Dense{4, 3}), // drift 0.2
	}
	res := Analyze(policy.Default(), subject(3), versions)
	if res.Penalty != 0.1 {
		t.Errorf("Penalty = %v, want 0.1", res.Penalty)
	}
	if res.HasSignificant() {
		t.Error("HasSignificant() = true")
	}
	if len(res.Changes) != 1 || res.Changes[0].Version != 1 {
		t.Fatalf("Changes = %+v", res.Changes)
	}
	r, ok := res.Reason(subject(3))
	if !ok || !strings.Contains(r.Description, "moderate") || !strings.Contains(r.Description, "version 1") {
		t.Errorf("reason = %+v", r)
	}
}

func TestAnalyze_BelowThresholdNoSignal(t *testing.T) {
	res := Analyze(policy.Default(), subject(2), []document.Version{version(1, vector.Dense{4, 3})})
	if res.Penalty != 0 || len(res.Changes) != 0 {
		t.Errorf("res = %+v", res)
	}
	if res.MaxDrift != 0.2 {
		t.Errorf("MaxDrift = %v, want 0.2", res.MaxDrift)
	}
}

func TestAnalyze_LexicalFallbackWhenVersionHasNoEmbedding(t *testing.T) {
	v := document.Version{DocumentID: "doc-1", Number: 1, Content: "alpha beta gamma"}
	res := Analyze(policy.Default(), subject(2), []document.Version{v})
	if res.MaxDrift != 0 {
		t.Errorf("identical text should not drift, got %v", res.MaxDrift)
	}

	v.Content = "completely unrelated words"
	res = Analyze(policy.Default(), subject(2), []document.Version{v})
	if res.MaxDrift != 1 || res.Penalty != 0.2 {
		t.Errorf("MaxDrift = %v, Penalty = %v", res.MaxDrift, res.Penalty)
	}
}

func TestAnalyze_NonLatinIdenticalVersionDoesNotDrift(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"cyrillic", "Развертывание в продакшен должно завершиться за пять минут."},
		{"han", "部署必须在五分钟内完成。"},
		{"accented", "La révision doit être approuvée par l'équipe sécurité."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := document.Reconstruct(document.Fields{
				ID: "doc-1", Type: document.TypeSOP, Content: tt.content,
				CurrentVersion: 2, UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			})
			v := document.Version{DocumentID: "doc-1", Number: 1, Content: tt.content}
			res := Analyze(policy.Default(), doc, []document.Version{v})
			if res.MaxDrift != 0 || res.Penalty != 0 || res.HasSignificant() {
				t.Errorf("res = %+v, want no drift", res)
			}
		})
	}
}

func TestAnalyze_PenaltyCapped(t *testing.T) {
	p := policy.Default()
	p.Drift.Cap = 0.15
	res := Analyze(p, subject(2), []document.Version{version(1, vector.Dense{0, 1})})
	if res.Penalty != 0.15 {
		t.Errorf("Penalty = %v, want cap 0.15", res.Penalty)
	}
}

func TestResult_Audit(t *testing.T) {
	res := Analyze(policy.Default(), subject(2), []document.Version{version(1, vector.Dense{0, 1})})
	a := res.Audit()
	if a.MaxDrift != 1 || a.Penalty != 0.2 || a.Compared != 1 || len(a.Changes) != 1 {
		t.Errorf("Audit = %+v", a)
	}
}
