package processor

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/db"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
)

// BunStore adapts the db package to the processor's Store interface. Each
// write acquires its own transaction scoped to that call.
type BunStore struct {
	DB *bun.DB
}

func (s *BunStore) StoreExtractResult(ctx context.Context, calls []models.CapitalCall, dists []models.Distribution, adjs []models.Adjustment) error {
	return db.StoreExtractResult(ctx, s.DB, calls, dists, adjs)
}

func (s *BunStore) StoreTextChunks(ctx context.Context, chunks []models.TextChunk) error {
	return db.StoreTextChunks(ctx, s.DB, chunks)
}

func (s *BunStore) SupersedeChunks(ctx context.Context, documentID int64) error {
	return db.SupersedeChunks(ctx, s.DB, documentID)
}
