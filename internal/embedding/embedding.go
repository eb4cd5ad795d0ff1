// Package embedding constructs the process-wide embedder and turns text
// chunks into vectors. The embedder is built exactly once at startup and
// injected into every component that needs it; re-instantiating the model per
// request was the dominant historical cost in this pipeline.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/config"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
)

// NewEmbedder builds an embedder for the configured provider. openai covers
// any openai-compatible endpoint (OpenRouter included).
func NewEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	switch cfg.Provider {
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing ollama embedder: %w", err)
		}
		return embeddings.NewEmbedder(llm)
	case "openai", "":
		llm, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing openai embedder: %w", err)
		}
		return embeddings.NewEmbedder(llm)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// Embedder is the text-in/vector-out contract the pipeline depends on.
// langchaingo's EmbedderImpl satisfies it; tests substitute a fake.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// EmbedChunks embeds each chunk and attaches its source identity.
func EmbedChunks(ctx context.Context, embedder Embedder, filename string, chunks []models.Chunk) ([]models.ChunkEmbedding, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	var out []models.ChunkEmbedding
	for _, chunk := range chunks {
		vec, err := embedder.EmbedQuery(ctx, chunk.Content)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d (page %d): %w", chunk.ChunkID, chunk.PageNumber, err)
		}
		out = append(out, models.ChunkEmbedding{
			Content:        chunk.Content,
			Embedding:      vec,
			SourceFilename: filename,
			PageNumber:     chunk.PageNumber,
			ChunkID:        chunk.ChunkID,
		})
	}
	return out, nil
}
