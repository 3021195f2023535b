package batch

import "github.com/kailas-cloud/decayscope/internal/domain/verdict"

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of analyzing one document in a batch. Error results still
// carry a verdict: the synthetic high-risk error record.
type Result struct {
	id      string
	status  ItemStatus
	err     error
	outcome verdict.Outcome
}

// NewOK creates a successful batch result.
func NewOK(id string, outcome verdict.Outcome) Result {
	return Result{id: id, status: StatusOK, outcome: outcome}
}

// NewError creates a failed batch result with its error record.
func NewError(id string, err error) Result {
	return Result{
		id:      id,
		status:  StatusError,
		err:     err,
		outcome: verdict.Outcome{Verdict: verdict.ErrorVerdict(id, err)},
	}
}

// ID returns the document identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Verdict returns the analysis verdict, or the error record for failed items.
func (r Result) Verdict() verdict.Verdict { return r.outcome.Verdict }

// Outcome returns the verdict with its audit block. Failed items have an empty audit.
func (r Result) Outcome() verdict.Outcome { return r.outcome }
