package decayscope

import "github.com/kailas-cloud/decayscope/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound                = domain.ErrNotFound
	ErrInvalidDocument         = domain.ErrInvalidDocument
	ErrInvalidRequest          = domain.ErrInvalidRequest
	ErrInvalidReviewTransition = domain.ErrInvalidReviewTransition
	ErrRateLimited             = domain.ErrRateLimited
	ErrEmbeddingQuotaExceeded  = domain.ErrEmbeddingQuotaExceeded
	ErrEmbeddingProviderError  = domain.ErrEmbeddingProviderError
)
