package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidDocument signals a malformed document snapshot (missing id, null content, ...).
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidRequest signals a malformed analysis request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidReviewTransition signals a review status change the workflow does not allow.
	ErrInvalidReviewTransition = errors.New("invalid review transition")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// ReviewTransitionError wraps ErrInvalidReviewTransition with the current status.
type ReviewTransitionError struct {
	From string
	To   string
}

func (e *ReviewTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidReviewTransition.Error(), e.From, e.To)
}

func (e *ReviewTransitionError) Unwrap() error { return ErrInvalidReviewTransition }

// NewReviewTransitionError creates a review transition error.
func NewReviewTransitionError(from, to string) error {
	return &ReviewTransitionError{From: from, To: to}
}
