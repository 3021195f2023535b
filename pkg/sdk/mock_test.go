package decayscope

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/decayscope/internal/domain"
	"github.com/kailas-cloud/decayscope/internal/domain/review"
	audituc "github.com/kailas-cloud/decayscope/internal/usecase/audit"
	healthuc "github.com/kailas-cloud/decayscope/internal/usecase/health"
)

// --- audit repository mock ---

type memRepo struct {
	records map[string]review.Record
	order   []string
	err     error
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[string]review.Record)}
}

func (m *memRepo) Create(_ context.Context, rec review.Record) error {
	if m.err != nil {
		return m.err
	}
	m.records[rec.ID] = rec
	m.order = append(m.order, rec.ID)
	return nil
}

func (m *memRepo) Update(_ context.Context, rec review.Record) error {
	m.records[rec.ID] = rec
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (review.Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return review.Record{}, fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
	}
	return rec, nil
}

func (m *memRepo) Latest(ctx context.Context, documentID string) (review.Record, error) {
	recs, _ := m.History(ctx, documentID, 1)
	if len(recs) == 0 {
		return review.Record{}, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	return recs[0], nil
}

func (m *memRepo) History(_ context.Context, documentID string, limit int) ([]review.Record, error) {
	var out []review.Record
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		if rec := m.records[m.order[i]]; rec.DocumentID == documentID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// --- health mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- helpers ---

var (
	jan        = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	evalTime   = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	recordedAt = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
)

func testAudit(repo *memRepo) *audituc.Service {
	n := 0
	return audituc.New(repo).
		WithClock(func() time.Time { return recordedAt }).
		WithIDGenerator(func() string { n++; return fmt.Sprintf("a-%d", n) })
}

func subjectDoc() Document {
	return Document{
		ID: "doc-1", WorkspaceID: "ws", Title: "Deploy SOP", Type: TypeSOP,
		Content: "Deployments must complete within 5 minutes.", CurrentVersion: 1, UpdatedAt: jan,
	}
}

func newerDoc() Document {
	return Document{
		ID: "doc-2", WorkspaceID: "ws", Title: "Deploy SOP v2", Type: TypeSOP,
		Content: "Deployments must complete within 15 minutes.", CurrentVersion: 1, UpdatedAt: jan.AddDate(0, 0, 5),
	}
}

