// Package review models the human-review workflow attached to a stored analysis.
package review

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/decayscope/internal/domain"
	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
)

// Status is the review state of an analysis.
type Status string

// Review states. Pending is the only state with outgoing transitions.
const (
	StatusPending   Status = "pending"
	StatusReviewed  Status = "reviewed"
	StatusDismissed Status = "dismissed"
	StatusActioned  Status = "actioned"
)

// Parse validates s as a review status.
func Parse(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusReviewed, StatusDismissed, StatusActioned:
		return st, nil
	default:
		return "", fmt.Errorf("unknown review status %q: %w", s, domain.ErrInvalidRequest)
	}
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool { return s != StatusPending }

// Transition checks that from -> to is allowed and returns to.
func Transition(from, to Status) (Status, error) {
	if from != StatusPending || to == StatusPending {
		return "", domain.NewReviewTransitionError(string(from), string(to))
	}
	return to, nil
}

// Record is a persisted analysis: the verdict, its audit block and review state.
type Record struct {
	ID          string
	DocumentID  string
	WorkspaceID string
	Verdict     verdict.Verdict
	Audit       verdict.Audit
	AnalyzedAt  time.Time
	Status      Status
	ReviewedAt  *time.Time
}

// NewRecord creates a pending record for a fresh analysis.
func NewRecord(id, documentID, workspaceID string, out verdict.Outcome, analyzedAt time.Time) Record {
	return Record{
		ID:          id,
		DocumentID:  documentID,
		WorkspaceID: workspaceID,
		Verdict:     out.Verdict,
		Audit:       out.Audit,
		AnalyzedAt:  analyzedAt.UTC(),
		Status:      StatusPending,
	}
}

// Review moves the record to status to, stamping the review time.
func (r Record) Review(to Status, at time.Time) (Record, error) {
	next, err := Transition(r.Status, to)
	if err != nil {
		return Record{}, err
	}
	reviewed := at.UTC()
	r.Status = next
	r.ReviewedAt = &reviewed
	return r, nil
}
