package analysis

import (
	"time"

	"github.com/kailas-cloud/decayscope/internal/domain/review"
	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
)

// recordDTO is the stored JSON shape of an analysis.
type recordDTO struct {
	ID                    string                   `json:"id"`
	DocumentID            string                   `json:"document_id"`
	WorkspaceID           string                   `json:"workspace_id"`
	DecayDetected         bool                     `json:"decay_detected"`
	ConfidenceScore       float64                  `json:"confidence_score"`
	RiskLevel             verdict.RiskLevel        `json:"risk_level"`
	DecayReasons          []verdict.Reason         `json:"decay_reasons"`
	WhatChangedSummary    string                   `json:"what_changed_summary"`
	UpdateRecommendations []verdict.Recommendation `json:"update_recommendations"`
	Citations             []string                 `json:"citations"`
	ConfidenceBreakdown   verdict.Breakdown        `json:"confidence_breakdown"`
	Audit                 auditDTO                 `json:"audit"`
	AnalyzedAt            time.Time                `json:"analyzed_at"`
	ReviewStatus          review.Status            `json:"review_status"`
	ReviewedAt            *time.Time               `json:"reviewed_at,omitempty"`
}

// auditDTO is the audit block minus the confidence ledger, which is stored top-level.
type auditDTO struct {
	Freshness      verdict.Freshness       `json:"freshness"`
	Contradictions []verdict.Contradiction `json:"contradictions"`
	Drift          verdict.Drift           `json:"drift"`
	RelatedCount   int                     `json:"related_count"`
	VectorSource   string                  `json:"vector_source"`
	EmbeddedPeers  int                     `json:"embedded_peers"`
}

func toDTO(r review.Record) recordDTO {
	v, a := r.Verdict, r.Audit
	return recordDTO{
		ID:                    r.ID,
		DocumentID:            r.DocumentID,
		WorkspaceID:           r.WorkspaceID,
		DecayDetected:         v.DecayDetected,
		ConfidenceScore:       v.ConfidenceScore,
		RiskLevel:             v.RiskLevel,
		DecayReasons:          v.DecayReasons,
		WhatChangedSummary:    v.WhatChangedSummary,
		UpdateRecommendations: v.UpdateRecommendations,
		Citations:             v.Citations,
		ConfidenceBreakdown:   a.Confidence,
		Audit: auditDTO{
			Freshness:      a.Freshness,
			Contradictions: a.Contradictions,
			Drift:          a.Drift,
			RelatedCount:   a.RelatedCount,
			VectorSource:   a.VectorSource,
			EmbeddedPeers:  a.EmbeddedPeers,
		},
		AnalyzedAt:   r.AnalyzedAt,
		ReviewStatus: r.Status,
		ReviewedAt:   r.ReviewedAt,
	}
}

func fromDTO(d recordDTO) review.Record {
	return review.Record{
		ID:          d.ID,
		DocumentID:  d.DocumentID,
		WorkspaceID: d.WorkspaceID,
		Verdict: verdict.Verdict{
			DecayDetected:         d.DecayDetected,
			ConfidenceScore:       d.ConfidenceScore,
			RiskLevel:             d.RiskLevel,
			DecayReasons:          d.DecayReasons,
			WhatChangedSummary:    d.WhatChangedSummary,
			UpdateRecommendations: d.UpdateRecommendations,
			Citations:             d.Citations,
		},
		Audit: verdict.Audit{
			Freshness:      d.Audit.Freshness,
			Contradictions: d.Audit.Contradictions,
			Drift:          d.Audit.Drift,
			RelatedCount:   d.Audit.RelatedCount,
			VectorSource:   d.Audit.VectorSource,
			EmbeddedPeers:  d.Audit.EmbeddedPeers,
			Confidence:     d.ConfidenceBreakdown,
		},
		AnalyzedAt: d.AnalyzedAt,
		Status:     d.ReviewStatus,
		ReviewedAt: d.ReviewedAt,
	}
}
