package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	dombatch "github.com/kailas-cloud/decayscope/internal/domain/batch"
	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/domain/review"
	domusage "github.com/kailas-cloud/decayscope/internal/domain/usage"
	"github.com/kailas-cloud/decayscope/internal/domain/vector"
	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
	analysisuc "github.com/kailas-cloud/decayscope/internal/usecase/analysis"
	"github.com/kailas-cloud/decayscope/internal/version"
)

// ErrorCode is the machine-readable error code in error responses.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest              ErrorCode = "bad_request"
	CodeUnauthorized            ErrorCode = "unauthorized"
	CodeInvalidDocument         ErrorCode = "invalid_document"
	CodeValidationFailed        ErrorCode = "validation_failed"
	CodeNotFound                ErrorCode = "not_found"
	CodeInvalidReviewTransition ErrorCode = "invalid_review_transition"
	CodeRateLimited             ErrorCode = "rate_limited"
	CodeEmbeddingQuotaExceeded  ErrorCode = "embedding_quota_exceeded"
	CodeEmbeddingProviderError  ErrorCode = "embedding_provider_error"
	CodeInternalError           ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Embedding accepts either JSON shape: an object of term weights (sparse) or an
// array of numbers (dense).
type Embedding struct {
	Vector vector.Vector
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Embedding) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		e.Vector = nil
	case data[0] == '[':
		var dense []float64
		if err := json.Unmarshal(data, &dense); err != nil {
			return fmt.Errorf("dense embedding: %w", err)
		}
		e.Vector = vector.Dense(dense)
	case data[0] == '{':
		var sparse map[string]float64
		if err := json.Unmarshal(data, &sparse); err != nil {
			return fmt.Errorf("sparse embedding: %w", err)
		}
		e.Vector = vector.Sparse(sparse)
	default:
		return errors.New("embedding must be an object or an array")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (e Embedding) MarshalJSON() ([]byte, error) {
	if e.Vector == nil {
		return []byte("null"), nil
	}
	return json.Marshal(e.Vector)
}

// Document is the wire form of a document snapshot.
type Document struct {
	ID             string     `json:"id"`
	WorkspaceID    string     `json:"workspace_id"`
	Title          string     `json:"title,omitempty"`
	Type           string     `json:"type"`
	Content        *string    `json:"content"`
	CurrentVersion int        `json:"current_version"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastVerifiedAt *time.Time `json:"last_verified_at,omitempty"`
	Embedding      *Embedding `json:"embedding,omitempty"`
}

// Snapshot converts without validation; the analysis validates.
func (d Document) Snapshot() document.Snapshot {
	f := document.Fields{
		ID:             d.ID,
		WorkspaceID:    d.WorkspaceID,
		Title:          d.Title,
		Type:           document.ParseType(d.Type),
		CurrentVersion: d.CurrentVersion,
		UpdatedAt:      d.UpdatedAt,
		LastVerifiedAt: d.LastVerifiedAt,
	}
	if d.Content != nil {
		f.Content = *d.Content
	}
	if d.Embedding != nil {
		f.Embedding = d.Embedding.Vector
	}
	return document.Reconstruct(f)
}

// Version is the wire form of a prior revision.
type Version struct {
	Number    int        `json:"number"`
	Content   string     `json:"content"`
	Author    string     `json:"author,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Embedding *Embedding `json:"embedding,omitempty"`
}

// RelatedDocument is a caller-supplied neighbor.
type RelatedDocument struct {
	Document   Document `json:"document"`
	Similarity float64  `json:"similarity"`
}

// AnalyzeRequest is the body of POST /api/v1/analyses.
type AnalyzeRequest struct {
	Document         Document           `json:"document"`
	Versions         []Version          `json:"versions"`
	RelatedDocuments *[]RelatedDocument `json:"related_documents,omitempty"`
	CandidatePool    []Document         `json:"candidate_pool,omitempty"`
	Now              *time.Time         `json:"now,omitempty"`
}

// BatchItem is one document of a batch request.
type BatchItem struct {
	Document Document  `json:"document"`
	Versions []Version `json:"versions"`
}

// BatchRequest is the body of POST /api/v1/analyses/batch.
type BatchRequest struct {
	Documents     []BatchItem `json:"documents"`
	CandidatePool []Document  `json:"candidate_pool,omitempty"`
	Now           *time.Time  `json:"now,omitempty"`
}

// ReviewRequest is the body of PUT /api/v1/analyses/{id}/review.
type ReviewRequest struct {
	Status string `json:"status"`
}

// AnalysisResponse is the public view of a stored analysis. It never carries the
// confidence breakdown.
type AnalysisResponse struct {
	AnalysisID   string          `json:"analysis_id"`
	DocumentID   string          `json:"document_id"`
	WorkspaceID  string          `json:"workspace_id"`
	Verdict      verdict.Verdict `json:"verdict"`
	AnalyzedAt   time.Time       `json:"analyzed_at"`
	ReviewStatus review.Status   `json:"review_status"`
	ReviewedAt   *time.Time      `json:"reviewed_at,omitempty"`
}

// AnalysisListResponse wraps a document's analysis history.
type AnalysisListResponse struct {
	Items []AnalysisResponse `json:"items"`
}

// BatchResultItem is one entry of a batch response.
type BatchResultItem struct {
	DocumentID string          `json:"document_id"`
	Status     string          `json:"status"`
	AnalysisID string          `json:"analysis_id,omitempty"`
	Verdict    verdict.Verdict `json:"verdict"`
	Error      string          `json:"error,omitempty"`
}

// BatchResponse is the body returned by the batch endpoint.
type BatchResponse struct {
	Results []BatchResultItem `json:"results"`
}

// UsageBudget is the budget block of a usage response.
type UsageBudget struct {
	Unlimited       bool      `json:"unlimited"`
	TokensLimit     int64     `json:"tokens_limit"`
	TokensRemaining int64     `json:"tokens_remaining"`
	IsExhausted     bool      `json:"is_exhausted"`
	ResetsAt        time.Time `json:"resets_at"`
}

// UsageResponse is the body of GET /api/v1/usage.
type UsageResponse struct {
	Provider    string      `json:"provider,omitempty"`
	Period      string      `json:"period"`
	PeriodStart time.Time   `json:"period_start"`
	PeriodEnd   time.Time   `json:"period_end"`
	TokensUsed  int64       `json:"tokens_used"`
	Budget      UsageBudget `json:"budget"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Build  version.Build     `json:"build"`
}

func snapshots(docs []Document) []document.Snapshot {
	if docs == nil {
		return nil
	}
	out := make([]document.Snapshot, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Snapshot())
	}
	return out
}

func versionsFromDTO(docID string, vs []Version) []document.Version {
	out := make([]document.Version, 0, len(vs))
	for _, v := range vs {
		dv := document.Version{
			DocumentID: docID,
			Number:     v.Number,
			Content:    v.Content,
			Author:     v.Author,
			CreatedAt:  v.CreatedAt,
		}
		if v.Embedding != nil {
			dv.Embedding = v.Embedding.Vector
		}
		out = append(out, dv)
	}
	return out
}

// Input converts the request into an analysis input.
func (r AnalyzeRequest) Input() analysisuc.Input {
	doc := r.Document.Snapshot()
	in := analysisuc.Input{
		Document:      doc,
		Versions:      versionsFromDTO(doc.ID(), r.Versions),
		CandidatePool: snapshots(r.CandidatePool),
	}
	if r.RelatedDocuments != nil {
		in.Related = make([]document.Related, 0, len(*r.RelatedDocuments))
		for _, rd := range *r.RelatedDocuments {
			in.Related = append(in.Related, document.Related{
				Document:   rd.Document.Snapshot(),
				Similarity: rd.Similarity,
			})
		}
	}
	if r.Now != nil {
		in.Now = *r.Now
	}
	return in
}

// Items converts the batch documents into analysis items.
func (r BatchRequest) Items() []analysisuc.Item {
	out := make([]analysisuc.Item, 0, len(r.Documents))
	for _, it := range r.Documents {
		doc := it.Document.Snapshot()
		out = append(out, analysisuc.Item{Document: doc, Versions: versionsFromDTO(doc.ID(), it.Versions)})
	}
	return out
}

func recordToResponse(rec review.Record) AnalysisResponse {
	return AnalysisResponse{
		AnalysisID:   rec.ID,
		DocumentID:   rec.DocumentID,
		WorkspaceID:  rec.WorkspaceID,
		Verdict:      rec.Verdict,
		AnalyzedAt:   rec.AnalyzedAt,
		ReviewStatus: rec.Status,
		ReviewedAt:   rec.ReviewedAt,
	}
}

// BatchResultToResponse converts a batch result; analysisID is empty when nothing was persisted.
func BatchResultToResponse(r dombatch.Result, analysisID string) BatchResultItem {
	item := BatchResultItem{
		DocumentID: r.ID(),
		Status:     string(r.Status()),
		AnalysisID: analysisID,
		Verdict:    r.Verdict(),
	}
	if err := r.Err(); err != nil {
		item.Error = safeDomainMessage(err)
	}
	return item
}

// Pool returns the shared candidate pool.
func (r BatchRequest) Pool() []document.Snapshot { return snapshots(r.CandidatePool) }

// NowOrZero returns the request's evaluation time, or zero for the service clock.
func (r BatchRequest) NowOrZero() time.Time {
	if r.Now == nil {
		return time.Time{}
	}
	return *r.Now
}

func usageToResponse(r domusage.Report) UsageResponse {
	b := r.Budget()
	return UsageResponse{
		Provider:    r.Provider(),
		Period:      "day",
		PeriodStart: r.PeriodStart(),
		PeriodEnd:   r.PeriodEnd(),
		TokensUsed:  r.TokensUsed(),
		Budget: UsageBudget{
			Unlimited:       b.Unlimited(),
			TokensLimit:     b.TokensLimit(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
			ResetsAt:        b.ResetsAt(),
		},
	}
}
