// Package verdict defines the public decay verdict and the internal audit block
// produced alongside it.
package verdict

import "time"

// ReasonType classifies a decay reason.
type ReasonType string

// Reason types, in the order the orchestrator emits them.
const (
	ReasonTime          ReasonType = "time"
	ReasonContradiction ReasonType = "contradiction"
	ReasonVersionDrift  ReasonType = "version_drift"
	ReasonLowSupport    ReasonType = "low_support"
	ReasonError         ReasonType = "error"
)

// Reason explains one decay signal. Sources lists the implicated document ids.
type Reason struct {
	Type        ReasonType `json:"type"`
	Description string     `json:"description"`
	Sources     []string   `json:"sources"`
}

// RiskLevel is the triage bucket of a verdict.
type RiskLevel string

// Risk levels.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid reports whether r is a known risk level.
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Priority ranks a recommendation.
type Priority string

// Recommendation priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Recommendation is a suggested edit for a human reviewer. It is never applied automatically.
type Recommendation struct {
	Section       string   `json:"section"`
	SuggestedText string   `json:"suggested_text"`
	Action        string   `json:"action"`
	Priority      Priority `json:"priority"`
}

// Verdict is the public result of one analysis.
type Verdict struct {
	DecayDetected         bool             `json:"decay_detected"`
	ConfidenceScore       float64          `json:"confidence_score"`
	RiskLevel             RiskLevel        `json:"risk_level"`
	DecayReasons          []Reason         `json:"decay_reasons"`
	WhatChangedSummary    string           `json:"what_changed_summary"`
	UpdateRecommendations []Recommendation `json:"update_recommendations"`
	Citations             []string         `json:"citations"`
}

// Breakdown is the itemized penalty ledger behind a confidence score. Audit-only.
type Breakdown struct {
	StartingConfidence   float64 `json:"starting_confidence"`
	AgePenalty           float64 `json:"age_penalty"`
	ContradictionPenalty float64 `json:"contradiction_penalty"`
	DriftPenalty         float64 `json:"drift_penalty"`
	SupportPenalty       float64 `json:"support_penalty"`
	TotalPenalty         float64 `json:"total_penalty"`
	FinalConfidence      float64 `json:"final_confidence"`
}

// Freshness is the audit view of the freshness evaluation.
type Freshness struct {
	Status        string    `json:"status"`
	AgeDays       int       `json:"age_days"`
	ReferenceDate time.Time `json:"reference_date"`
	WarningDays   int       `json:"warning_days"`
	CriticalDays  int       `json:"critical_days"`
	Penalty       float64   `json:"penalty"`
}

// Contradiction is one raw statement conflict.
type Contradiction struct {
	RelatedID        string  `json:"related_id"`
	Rule             string  `json:"rule"`
	Severity         string  `json:"severity"`
	Similarity       float64 `json:"similarity"`
	SubjectStatement string  `json:"subject_statement"`
	RelatedStatement string  `json:"related_statement"`
}

// Change is a recorded drift between the current content and one prior version.
type Change struct {
	Version     int     `json:"version"`
	Drift       float64 `json:"drift"`
	Significant bool    `json:"significant"`
}

// Drift is the audit view of the version drift analysis.
type Drift struct {
	MaxDrift float64  `json:"max_drift"`
	Penalty  float64  `json:"penalty"`
	Compared int      `json:"compared"`
	Changes  []Change `json:"changes"`
}

// Audit is the internal breakdown stored with an analysis. It is never exposed
// through the public verdict.
type Audit struct {
	Freshness      Freshness       `json:"freshness"`
	Contradictions []Contradiction `json:"contradictions"`
	Drift          Drift           `json:"drift"`
	RelatedCount   int             `json:"related_count"`
	VectorSource   string          `json:"vector_source"`
	EmbeddedPeers  int             `json:"embedded_peers"`
	Confidence     Breakdown       `json:"confidence_breakdown"`
}

// Outcome pairs a verdict with its audit block.
type Outcome struct {
	Verdict Verdict
	Audit   Audit
}

// ErrorVerdict is the record produced for a document that could not be analyzed.
func ErrorVerdict(documentID string, err error) Verdict {
	sources := []string{}
	if documentID != "" {
		sources = append(sources, documentID)
	}
	reasons := []Reason{{
		Type:        ReasonError,
		Description: err.Error(),
		Sources:     sources,
	}}
	return Verdict{
		DecayDetected:         false,
		ConfidenceScore:       0,
		RiskLevel:             RiskHigh,
		DecayReasons:          reasons,
		WhatChangedSummary:    "Analysis failed: " + err.Error(),
		UpdateRecommendations: []Recommendation{},
		Citations:             Citations(reasons, nil),
	}
}

// Citations returns the deduplicated union of reason sources and related ids,
// in first-occurrence order.
func Citations(reasons []Reason, relatedIDs []string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, r := range reasons {
		for _, s := range r.Sources {
			add(s)
		}
	}
	for _, id := range relatedIDs {
		add(id)
	}
	return out
}
