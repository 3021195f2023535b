package domain

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/decayscope/internal/domain/vector"
)

// Embedder is the shared text vectorization contract between layers.
// Implementations may return either vector shape; similarity is defined for both.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Vector       vector.Vector
	PromptTokens int
	TotalTokens  int
}

// LexicalEmbedder is the local provider: term-frequency vectors, no network, no tokens.
type LexicalEmbedder struct{}

// Embed implements Embedder.
func (LexicalEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	return EmbeddingResult{Vector: vector.Lexical(text)}, nil
}

// InstructionEmbedder is a domain decorator that prepends instruction text before embedding.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder creates a decorator that prepends instruction text.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prepends instruction and delegates to inner embedder.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}
