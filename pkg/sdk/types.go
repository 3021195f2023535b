package decayscope

import (
	"time"

	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
)

// Document types with stock freshness windows. Any other type uses the lenient window.
const (
	TypeSOP    = "sop"
	TypePolicy = "policy"
	TypeSpec   = "spec"
	TypeGuide  = "guide"
	TypeNotes  = "notes"
)

// Document is a snapshot of a knowledge-base document.
type Document struct {
	ID             string
	WorkspaceID    string
	Title          string
	Type           string
	Content        string
	CurrentVersion int
	UpdatedAt      time.Time
	LastVerifiedAt *time.Time

	// Embedding is a stored dense vector; TermWeights a stored sparse one.
	// Both empty means the vector is computed at analysis time.
	Embedding   []float64
	TermWeights map[string]float64
}

// Version is a prior revision of a document.
type Version struct {
	Number    int
	Content   string
	Author    string
	CreatedAt time.Time
}

// RelatedDocument is a caller-retrieved neighbor with its similarity to the subject.
type RelatedDocument struct {
	Document   Document
	Similarity float64
}

// AnalyzeRequest is the input of one analysis.
type AnalyzeRequest struct {
	Document Document
	Versions []Version
	// Related is used as-is when non-nil (an empty slice means no neighbors).
	// When nil, neighbors are discovered in CandidatePool.
	Related       []RelatedDocument
	CandidatePool []Document
	// Now is the evaluation time; zero means the current time.
	Now time.Time
}

// BatchItem is one document of a batch analysis.
type BatchItem struct {
	Document Document
	Versions []Version
}

// Verdict types shared with the HTTP API.
type (
	Verdict        = verdict.Verdict
	Reason         = verdict.Reason
	Recommendation = verdict.Recommendation
	RiskLevel      = verdict.RiskLevel
)

// Risk levels.
const (
	RiskLow    = verdict.RiskLow
	RiskMedium = verdict.RiskMedium
	RiskHigh   = verdict.RiskHigh
)

// ReviewStatus is the workflow state of a stored analysis.
type ReviewStatus string

// Review statuses. Only pending analyses can be reviewed.
const (
	ReviewPending   ReviewStatus = "pending"
	ReviewReviewed  ReviewStatus = "reviewed"
	ReviewDismissed ReviewStatus = "dismissed"
	ReviewActioned  ReviewStatus = "actioned"
)

// Analysis is a stored verdict.
type Analysis struct {
	ID           string
	DocumentID   string
	WorkspaceID  string
	Verdict      Verdict
	AnalyzedAt   time.Time
	ReviewStatus ReviewStatus
	ReviewedAt   *time.Time
}

// BatchResult is the outcome of one item in a batch analysis.
// A failed item still carries its high-risk error verdict.
type BatchResult struct {
	DocumentID string
	AnalysisID string // empty when the item failed or was not persisted
	OK         bool
	Verdict    Verdict
	Err        error
}
