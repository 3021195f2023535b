package analysis

import (
	"context"

	"github.com/kailas-cloud/decayscope/internal/domain"
)

// Embedder is the vectorization contract the orchestrator consumes. A nil Embedder
// means lexical vectors only.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
