// Package freshness scores time-based staleness against per-type age windows.
package freshness

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/domain/policy"
	"github.com/kailas-cloud/decayscope/internal/domain/vector"
	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
)

// Status is the staleness state of a document.
type Status string

// Freshness states. A document only moves back to fresh when it is re-verified.
const (
	StatusFresh    Status = "fresh"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Result is the outcome of a freshness evaluation.
type Result struct {
	Status    Status
	AgeDays   int
	Reference time.Time
	Window    policy.Window
	Penalty   float64
}

// Evaluate ages doc from its last verification (or last update) to now.
func Evaluate(p policy.Policy, doc document.Snapshot, now time.Time) Result {
	ref := doc.UpdatedAt()
	if verified, ok := doc.LastVerifiedAt(); ok {
		ref = verified
	}

	age := int(now.Sub(ref) / (24 * time.Hour))
	if age < 0 {
		age = 0
	}

	w := p.Window(doc.Type())
	res := Result{AgeDays: age, Reference: ref, Window: w}

	switch {
	case age < w.WarningDays:
		res.Status = StatusFresh
	case age >= w.CriticalDays:
		res.Status = StatusCritical
		res.Penalty = p.Freshness.MaxPenalty
	default:
		res.Status = StatusWarning
		res.Penalty = interpolate(p.Freshness, w, age)
	}
	return res
}

func interpolate(f policy.Freshness, w policy.Window, age int) float64 {
	span := w.CriticalDays - w.WarningDays
	if span <= 0 {
		return f.MaxPenalty
	}
	frac := float64(age-w.WarningDays) / float64(span)
	return f.FloorPenalty + (f.MaxPenalty-f.FloorPenalty)*frac
}

// Reason returns the time reason for a stale document. ok is false when fresh.
func (r Result) Reason(doc document.Snapshot) (verdict.Reason, bool) {
	if r.Status == StatusFresh {
		return verdict.Reason{}, false
	}

	typeName := string(doc.Type())
	if !doc.Type().Known() {
		typeName = "unclassified"
	}

	var desc string
	if r.Status == StatusCritical {
		desc = fmt.Sprintf("Document not verified for %d days, past the %d-day critical threshold for %s documents.",
			r.AgeDays, r.Window.CriticalDays, typeName)
	} else {
		desc = fmt.Sprintf("Document not verified for %d days, past the %d-day warning threshold for %s documents.",
			r.AgeDays, r.Window.WarningDays, typeName)
	}
	return verdict.Reason{
		Type:        verdict.ReasonTime,
		Description: desc,
		Sources:     []string{doc.ID()},
	}, true
}

// Audit returns the audit view of r.
func (r Result) Audit() verdict.Freshness {
	return verdict.Freshness{
		Status:        string(r.Status),
		AgeDays:       r.AgeDays,
		ReferenceDate: r.Reference.UTC(),
		WarningDays:   r.Window.WarningDays,
		CriticalDays:  r.Window.CriticalDays,
		Penalty:       vector.Round(r.Penalty, 3),
	}
}
