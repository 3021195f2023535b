// Package drift measures semantic change between a document and its prior versions.
package drift

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/domain/policy"
	"github.com/kailas-cloud/decayscope/internal/domain/vector"
	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
)

// Change is a prior version whose drift reached the moderate threshold.
type Change struct {
	Version     int
	Drift       float64
	Significant bool
	Author      string
}

// Result is the outcome of the drift analysis.
type Result struct {
	MaxDrift float64
	Penalty  float64
	Compared int
	// Changes are newest-first.
	Changes []Change
}

// HasSignificant reports whether any recorded change is significant.
func (r Result) HasSignificant() bool {
	for _, c := range r.Changes {
		if c.Significant {
			return true
		}
	}
	return false
}

// Analyze compares doc against every version older than its current one. versions is
// not modified.
func Analyze(p policy.Policy, doc document.Snapshot, versions []document.Version) Result {
	prior := make([]document.Version, 0, len(versions))
	for _, v := range versions {
		if v.Number < doc.CurrentVersion() {
			prior = append(prior, v)
		}
	}
	sort.SliceStable(prior, func(i, j int) bool { return prior[i].Number > prior[j].Number })

	cfg := p.Drift
	res := Result{Compared: len(prior)}
	for _, v := range prior {
		sim := vector.Compare(doc.Content(), doc.Embedding(), v.Content, v.Embedding)
		d := vector.Difference(sim)
		res.MaxDrift = math.Max(res.MaxDrift, d)
		if d >= cfg.ModerateThreshold {
			res.Changes = append(res.Changes, Change{
				Version:     v.Number,
				Drift:       d,
				Significant: d >= cfg.SignificantThreshold,
				Author:      v.Author,
			})
		}
	}

	switch {
	case res.MaxDrift >= cfg.SignificantThreshold:
		res.Penalty = cfg.SignificantPenalty
	case res.MaxDrift >= cfg.ModerateThreshold:
		res.Penalty = cfg.ModeratePenalty
	}
	res.Penalty = math.Min(res.Penalty, cfg.Cap)
	return res
}

// Reason returns the single version_drift reason, citing the most recent significant
// change, or the most recent moderate one when none is significant.
func (r Result) Reason(doc document.Snapshot) (verdict.Reason, bool) {
	if len(r.Changes) == 0 {
		return verdict.Reason{}, false
	}

	ref := r.Changes[0]
	for _, c := range r.Changes {
		if c.Significant {
			ref = c
			break
		}
	}

	grade := "moderate"
	if ref.Significant {
		grade = "significant"
	}
	desc := fmt.Sprintf("Content changed %s since version %d (drift %.3f, %d of %d prior versions differ materially).",
		grade, ref.Version, ref.Drift, len(r.Changes), r.Compared)
	return verdict.Reason{
		Type:        verdict.ReasonVersionDrift,
		Description: desc,
		Sources:     []string{doc.ID()},
	}, true
}

// Audit returns the audit view of r.
func (r Result) Audit() verdict.Drift {
	changes := make([]verdict.Change, 0, len(r.Changes))
	for _, c := range r.Changes {
		changes = append(changes, verdict.Change{Version: c.Version, Drift: c.Drift, Significant: c.Significant})
	}
	return verdict.Drift{
		MaxDrift: r.MaxDrift,
		Penalty:  vector.Round(r.Penalty, 3),
		Compared: r.Compared,
		Changes:  changes,
	}
}
