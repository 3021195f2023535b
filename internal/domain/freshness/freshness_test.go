package freshness

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/domain/policy"
	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func snapshot(docType document.Type, updatedDaysAgo int, verifiedDaysAgo *int) document.Snapshot {
	f := document.Fields{
		ID:             "doc-1",
		Type:           docType,
		Content:        "content",
		CurrentVersion: 1,
		UpdatedAt:      now.AddDate(0, 0, -updatedDaysAgo),
	}
	if verifiedDaysAgo != nil {
		v := now.AddDate(0, 0, -*verifiedDaysAgo)
		f.LastVerifiedAt = &v
	}
	return document.Reconstruct(f)
}

func TestEvaluate_SOPAt40DaysIsWarning(t *testing.T) {
	res := Evaluate(policy.Default(), snapshot(document.TypeSOP, 40, nil), now)
	if res.Status != StatusWarning {
		t.Fatalf("Status = %s, want warning", res.Status)
	}
	want := 0.1 + 0.2*(10.0/60.0)
	if math.Abs(res.Penalty-want) > 1e-9 {
		t.Errorf("Penalty = %v, want %v", res.Penalty, want)
	}
	if res.Audit().Penalty != 0.133 {
		t.Errorf("audit penalty = %v, want 0.133", res.Audit().Penalty)
	}
}

func TestEvaluate_CriticalAgeGetsMaxPenalty(t *testing.T) {
	p := policy.Default()
	for _, docType := range []document.Type{
		document.TypeSOP, document.TypePolicy, document.TypeSpec,
		document.TypeGuide, document.TypeNotes, document.Type("Memo"),
	} {
		critical := p.Window(docType).CriticalDays
		for _, age := range []int{critical, critical + 1, critical * 3} {
			res := Evaluate(p, snapshot(docType, age, nil), now)
			if res.Status != StatusCritical {
				t.Errorf("%s at %d days: Status = %s", docType, age, res.Status)
			}
			if res.Penalty != p.Freshness.MaxPenalty {
				t.Errorf("%s at %d days: Penalty = %v", docType, age, res.Penalty)
			}
		}
	}
}

func TestEvaluate_Boundaries(t *testing.T) {
	p := policy.Default()
	tests := []struct {
		age         int
		wantStatus  Status
		wantPenalty float64
	}{
		{0, StatusFresh, 0},
		{29, StatusFresh, 0},
		{30, StatusWarning, 0.1},
		{60, StatusWarning, 0.2},
		{89, StatusWarning, 0.1 + 0.2*(59.0/60.0)},
		{90, StatusCritical, 0.3},
	}
	for _, tc := range tests {
		res := Evaluate(p, snapshot(document.TypeSOP, tc.age, nil), now)
		if res.Status != tc.wantStatus {
			t.Errorf("age %d: Status = %s, want %s", tc.age, res.Status, tc.wantStatus)
		}
		if math.Abs(res.Penalty-tc.wantPenalty) > 1e-9 {
			t.Errorf("age %d: Penalty = %v, want %v", tc.age, res.Penalty, tc.wantPenalty)
		}
	}
}

func TestEvaluate_PenaltyMonotoneInAge(t *testing.T) {
	p := policy.Default()
	prev := -1.0
	for age := 0; age <= 400; age++ {
		res := Evaluate(p, snapshot(document.TypeNotes, age, nil), now)
		if res.Penalty < prev {
			t.Fatalf("penalty decreased at age %d: %v < %v", age, res.Penalty, prev)
		}
		prev = res.Penalty
	}
}

func TestEvaluate_LastVerifiedResetsReference(t *testing.T) {
	verified := 5
	res := Evaluate(policy.Default(), snapshot(document.TypeSOP, 200, &verified), now)
	if res.Status != StatusFresh || res.AgeDays != 5 {
		t.Errorf("Status = %s, AgeDays = %d; want fresh, 5", res.Status, res.AgeDays)
	}
}

func TestEvaluate_FutureReferenceIsZeroAge(t *testing.T) {
	res := Evaluate(policy.Default(), snapshot(document.TypeSOP, -10, nil), now)
	if res.AgeDays != 0 || res.Status != StatusFresh {
		t.Errorf("AgeDays = %d, Status = %s", res.AgeDays, res.Status)
	}
}

func TestEvaluate_PartialDaysFloor(t *testing.T) {
	doc := document.Reconstruct(document.Fields{
		ID: "doc-1", Type: document.TypeSOP, Content: "c", CurrentVersion: 1,
		UpdatedAt: now.Add(-(30*24*time.Hour - time.Minute)),
	})
	res := Evaluate(policy.Default(), doc, now)
	if res.AgeDays != 29 || res.Status != StatusFresh {
		t.Errorf("AgeDays = %d, Status = %s; want 29, fresh", res.AgeDays, res.Status)
	}
}

func TestEvaluate_UnknownTypeUsesLenientWindow(t *testing.T) {
	res := Evaluate(policy.Default(), snapshot(document.Type("Memo"), 100, nil), now)
	if res.Status != StatusFresh {
		t.Errorf("Status = %s, want fresh under Notes window", res.Status)
	}
	if res.Window.CriticalDays != 365 {
		t.Errorf("Window = %+v", res.Window)
	}
}

func TestResult_Reason(t *testing.T) {
	p := policy.Default()
	fresh := Evaluate(p, snapshot(document.TypeSOP, 1, nil), now)
	if _, ok := fresh.Reason(snapshot(document.TypeSOP, 1, nil)); ok {
		t.Error("fresh document should produce no reason")
	}

	doc := snapshot(document.TypeSOP, 120, nil)
	stale := Evaluate(p, doc, now)
	r, ok := stale.Reason(doc)
	if !ok {
		t.Fatal("critical document should produce a reason")
	}
	if r.Type != verdict.ReasonTime {
		t.Errorf("Type = %s", r.Type)
	}
	if len(r.Sources) != 1 || r.Sources[0] != "doc-1" {
		t.Errorf("Sources = %v", r.Sources)
	}
	if !strings.Contains(r.Description, "120 days") || !strings.Contains(r.Description, "critical") {
		t.Errorf("Description = %q", r.Description)
	}
}
