// Package confidence folds detector penalties into one score and classifies risk.
package confidence

import (
	"math"

	"github.com/kailas-cloud/decayscope/internal/domain/policy"
	"github.com/kailas-cloud/decayscope/internal/domain/vector"
	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
)

// Starting is the confidence before any penalty.
const Starting = 1.0

// Inputs are the raw detector penalties and the corroboration count.
type Inputs struct {
	AgePenalty           float64
	ContradictionPenalty float64
	DriftPenalty         float64
	RelatedCount         int
}

// SupportPenalty is the full cap with no related documents, shrinks linearly up to
// the corroboration count, and is zero from there on.
func SupportPenalty(p policy.Policy, related int) float64 {
	target := p.Support.Corroboration
	switch {
	case related <= 0:
		return p.Support.Cap
	case related >= target:
		return 0
	default:
		return p.Support.Cap * (1 - float64(related)/float64(target))
	}
}

// Score subtracts each capped penalty from the starting confidence. The final score is
// clamped to [0,1] and rounded to 2 decimals; the ledger keeps 3.
func Score(p policy.Policy, in Inputs) verdict.Breakdown {
	age := capped(in.AgePenalty, p.Freshness.MaxPenalty)
	contra := capped(in.ContradictionPenalty, p.Contradiction.Cap)
	drift := capped(in.DriftPenalty, p.Drift.Cap)
	support := capped(SupportPenalty(p, in.RelatedCount), p.Support.Cap)

	total := age + contra + drift + support
	final := clamp(Starting-total, 0, 1)

	return verdict.Breakdown{
		StartingConfidence:   Starting,
		AgePenalty:           vector.Round(age, 3),
		ContradictionPenalty: vector.Round(contra, 3),
		DriftPenalty:         vector.Round(drift, 3),
		SupportPenalty:       vector.Round(support, 3),
		TotalPenalty:         vector.Round(total, 3),
		FinalConfidence:      vector.Round(final, 2),
	}
}

// Signals are the detector facts risk classification looks at besides the score.
type Signals struct {
	HasContradictions   bool
	HasSignificantDrift bool
	FreshnessCritical   bool
}

// ClassifyRisk returns the first matching level: high, then medium, else low.
func ClassifyRisk(p policy.Policy, conf float64, s Signals) verdict.RiskLevel {
	switch {
	case s.HasContradictions || conf < p.Risk.HighBelow:
		return verdict.RiskHigh
	case s.HasSignificantDrift || s.FreshnessCritical || conf < p.Risk.MediumBelow:
		return verdict.RiskMedium
	default:
		return verdict.RiskLow
	}
}

// ShouldFlagDecay routes anything short of full confidence at low risk to review.
func ShouldFlagDecay(conf float64, risk verdict.RiskLevel) bool {
	return conf < 1.0 || risk != verdict.RiskLow
}

func capped(v, limit float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, math.Max(limit, 0))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
