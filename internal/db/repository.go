package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
)

// CreateFund stores a new fund and returns it with its assigned ID.
func CreateFund(ctx context.Context, db *bun.DB, fund *models.Fund) error {
	_, err := db.NewInsert().Model(fund).Exec(ctx)
	return err
}

func GetFund(ctx context.Context, db *bun.DB, id int64) (*models.Fund, error) {
	fund := new(models.Fund)
	if err := db.NewSelect().Model(fund).Where("f.id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return fund, nil
}

// CreateDocument registers an upload in pending state.
func CreateDocument(ctx context.Context, db *bun.DB, doc *models.Document) error {
	doc.ParsingStatus = models.StatusPending
	_, err := db.NewInsert().Model(doc).Exec(ctx)
	return err
}

func GetDocument(ctx context.Context, db *bun.DB, id int64) (*models.Document, error) {
	doc := new(models.Document)
	if err := db.NewSelect().Model(doc).Where("d.id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDocumentStatus applies a status transition atomically, rejecting
// backward moves. The whole read-check-write runs in one transaction so two
// concurrent workers cannot race a document backward.
func UpdateDocumentStatus(ctx context.Context, db *bun.DB, id int64, next models.ParsingStatus, errMsg string, report *models.ProcessingReport) error {
	return db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		doc := new(models.Document)
		if err := tx.NewSelect().Model(doc).Where("d.id = ?", id).For("UPDATE").Scan(ctx); err != nil {
			return err
		}
		if !doc.ParsingStatus.CanTransitionTo(next) {
			return fmt.Errorf("invalid status transition %s -> %s for document %d", doc.ParsingStatus, next, id)
		}

		q := tx.NewUpdate().Model((*models.Document)(nil)).
			Set("parsing_status = ?", next).
			Where("id = ?", id)
		if errMsg != "" {
			q = q.Set("error_message = ?", errMsg)
		}
		if report != nil {
			q = q.Set("stats = ?", report).
				Set("page_count = ?", report.PagesProcessed).
				Set("chunk_count = ?", report.ChunksCreated)
		}
		_, err := q.Exec(ctx)
		return err
	})
}

// StoreExtractResult persists all records extracted from one table inside a
// single transaction scoped to this call: either the table's rows all land or
// none do. The transaction never outlives the call.
func StoreExtractResult(ctx context.Context, db *bun.DB, calls []models.CapitalCall, dists []models.Distribution, adjs []models.Adjustment) error {
	return db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if len(calls) > 0 {
			if _, err := tx.NewInsert().Model(&calls).Exec(ctx); err != nil {
				return err
			}
		}
		if len(dists) > 0 {
			if _, err := tx.NewInsert().Model(&dists).Exec(ctx); err != nil {
				return err
			}
		}
		if len(adjs) > 0 {
			if _, err := tx.NewInsert().Model(&adjs).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListCapitalCalls returns all capital calls for a fund, oldest first.
func ListCapitalCalls(ctx context.Context, db *bun.DB, fundID int64) ([]models.CapitalCall, error) {
	var calls []models.CapitalCall
	err := db.NewSelect().Model(&calls).
		Where("cc.fund_id = ?", fundID).
		Order("call_date ASC").
		Scan(ctx)
	return calls, err
}

func ListDistributions(ctx context.Context, db *bun.DB, fundID int64) ([]models.Distribution, error) {
	var dists []models.Distribution
	err := db.NewSelect().Model(&dists).
		Where("dist.fund_id = ?", fundID).
		Order("distribution_date ASC").
		Scan(ctx)
	return dists, err
}

func ListAdjustments(ctx context.Context, db *bun.DB, fundID int64) ([]models.Adjustment, error) {
	var adjs []models.Adjustment
	err := db.NewSelect().Model(&adjs).
		Where("adj.fund_id = ?", fundID).
		Order("adjustment_date ASC").
		Scan(ctx)
	return adjs, err
}

// StoreTextChunks inserts chunk rows. Chunks are immutable; reprocessing
// replaces a document's chunks via SupersedeChunks first.
func StoreTextChunks(ctx context.Context, db *bun.DB, chunks []models.TextChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	_, err := db.NewInsert().Model(&chunks).Exec(ctx)
	return err
}

// SupersedeChunks removes the previous generation of chunks for a document.
func SupersedeChunks(ctx context.Context, db *bun.DB, documentID int64) error {
	_, err := db.NewDelete().Model((*models.TextChunk)(nil)).
		Where("document_id = ?", documentID).
		Exec(ctx)
	return err
}
