package decayscope

import (
	"context"
	"fmt"
	"time"

	dombatch "github.com/kailas-cloud/decayscope/internal/domain/batch"
	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/domain/review"
	"github.com/kailas-cloud/decayscope/internal/domain/vector"
	analysisuc "github.com/kailas-cloud/decayscope/internal/usecase/analysis"
)

// Analyze scores one document and stores the verdict as a pending analysis.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (a Analysis, err error) {
	start := time.Now()
	defer func() { c.obs.observe("analysis.create", start, err) }()

	in := analysisuc.Input{
		Document:      toSnapshot(req.Document),
		Versions:      toVersions(req.Document.ID, req.Versions),
		CandidatePool: toSnapshots(req.CandidatePool),
		Now:           req.Now,
	}
	if req.Related != nil {
		in.Related = make([]document.Related, 0, len(req.Related))
		for _, r := range req.Related {
			in.Related = append(in.Related, document.Related{
				Document:   toSnapshot(r.Document),
				Similarity: r.Similarity,
			})
		}
	}

	out, err := c.analysisSvc.Analyze(ctx, in)
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze %s: %w", req.Document.ID, err)
	}
	c.obs.verdict(req.Document.ID, out.Verdict)

	rec, err := c.auditSvc.Record(ctx, req.Document.ID, req.Document.WorkspaceID, out)
	if err != nil {
		return Analysis{}, fmt.Errorf("store analysis: %w", err)
	}
	return fromRecord(rec), nil
}

// AnalyzeBatch scores many documents against a shared candidate pool. Results keep
// input order; a failed item yields an error result rather than failing the batch.
// A zero now means the current time.
func (c *Client) AnalyzeBatch(
	ctx context.Context, items []BatchItem, pool []Document, now time.Time,
) (results []BatchResult) {
	start := time.Now()
	defer func() { c.obs.observe("analysis.batch", start, nil) }()

	ucItems := make([]analysisuc.Item, 0, len(items))
	for _, it := range items {
		ucItems = append(ucItems, analysisuc.Item{
			Document: toSnapshot(it.Document),
			Versions: toVersions(it.Document.ID, it.Versions),
		})
	}

	raw := c.analysisSvc.BatchAnalyze(ctx, ucItems, toSnapshots(pool), now)
	results = make([]BatchResult, 0, len(raw))
	for i, r := range raw {
		res := BatchResult{
			DocumentID: r.ID(),
			OK:         r.Status() == dombatch.StatusOK,
			Verdict:    r.Verdict(),
			Err:        r.Err(),
		}
		if res.OK {
			c.obs.verdict(r.ID(), r.Verdict())
			rec, err := c.auditSvc.Record(ctx, r.ID(), items[i].Document.WorkspaceID, r.Outcome())
			if err != nil {
				c.obs.observe("analysis.store", start, err)
			} else {
				res.AnalysisID = rec.ID
			}
		}
		results = append(results, res)
	}
	return results
}

// Get returns a stored analysis.
func (c *Client) Get(ctx context.Context, id string) (a Analysis, err error) {
	start := time.Now()
	defer func() { c.obs.observe("analysis.get", start, err) }()

	rec, err := c.auditSvc.Get(ctx, id)
	if err != nil {
		return Analysis{}, fmt.Errorf("get analysis %s: %w", id, err)
	}
	return fromRecord(rec), nil
}

// Latest returns the most recent analysis of a document.
func (c *Client) Latest(ctx context.Context, documentID string) (a Analysis, err error) {
	start := time.Now()
	defer func() { c.obs.observe("analysis.latest", start, err) }()

	rec, err := c.auditSvc.Latest(ctx, documentID)
	if err != nil {
		return Analysis{}, fmt.Errorf("latest analysis of %s: %w", documentID, err)
	}
	return fromRecord(rec), nil
}

// History returns up to limit analyses of a document, newest first.
func (c *Client) History(ctx context.Context, documentID string, limit int) (out []Analysis, err error) {
	start := time.Now()
	defer func() { c.obs.observe("analysis.history", start, err) }()

	recs, err := c.auditSvc.History(ctx, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("analysis history of %s: %w", documentID, err)
	}
	out = make([]Analysis, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromRecord(rec))
	}
	return out, nil
}

// Review moves a pending analysis to status. A second review fails with
// ErrInvalidReviewTransition.
func (c *Client) Review(ctx context.Context, id string, status ReviewStatus) (a Analysis, err error) {
	start := time.Now()
	defer func() { c.obs.observe("analysis.review", start, err) }()

	rec, err := c.auditSvc.Review(ctx, id, string(status))
	if err != nil {
		return Analysis{}, fmt.Errorf("review analysis %s: %w", id, err)
	}
	return fromRecord(rec), nil
}

// --- converters ---

func toSnapshot(d Document) document.Snapshot {
	f := document.Fields{
		ID:             d.ID,
		WorkspaceID:    d.WorkspaceID,
		Title:          d.Title,
		Type:           document.ParseType(d.Type),
		Content:        d.Content,
		CurrentVersion: d.CurrentVersion,
		UpdatedAt:      d.UpdatedAt,
		LastVerifiedAt: d.LastVerifiedAt,
	}
	switch {
	case len(d.Embedding) > 0:
		f.Embedding = vector.Dense(d.Embedding)
	case len(d.TermWeights) > 0:
		f.Embedding = vector.Sparse(d.TermWeights)
	}
	return document.Reconstruct(f)
}

func toSnapshots(docs []Document) []document.Snapshot {
	if docs == nil {
		return nil
	}
	out := make([]document.Snapshot, 0, len(docs))
	for _, d := range docs {
		out = append(out, toSnapshot(d))
	}
	return out
}

func toVersions(documentID string, vs []Version) []document.Version {
	out := make([]document.Version, 0, len(vs))
	for _, v := range vs {
		out = append(out, document.Version{
			DocumentID: documentID,
			Number:     v.Number,
			Content:    v.Content,
			Author:     v.Author,
			CreatedAt:  v.CreatedAt,
		})
	}
	return out
}

func fromRecord(rec review.Record) Analysis {
	return Analysis{
		ID:           rec.ID,
		DocumentID:   rec.DocumentID,
		WorkspaceID:  rec.WorkspaceID,
		Verdict:      rec.Verdict,
		AnalyzedAt:   rec.AnalyzedAt,
		ReviewStatus: ReviewStatus(rec.Status),
		ReviewedAt:   rec.ReviewedAt,
	}
}
