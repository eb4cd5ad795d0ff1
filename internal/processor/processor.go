// Package processor orchestrates page-by-page extraction of one document:
// table detection, classification, record extraction, text chunking, and
// vector indexing. One page or table going bad never aborts the document.
package processor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/chromemdb"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/config"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/embedding"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/parser"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/tableparse"
)

// Store is the slice of durable storage the processor needs. The bun-backed
// implementation lives in store.go; tests substitute a fake.
type Store interface {
	StoreExtractResult(ctx context.Context, calls []models.CapitalCall, dists []models.Distribution, adjs []models.Adjustment) error
	StoreTextChunks(ctx context.Context, chunks []models.TextChunk) error
	SupersedeChunks(ctx context.Context, documentID int64) error
}

// VectorIndex is the retrieval-index collaborator.
type VectorIndex interface {
	Upsert(ctx context.Context, records []chromemdb.ChunkRecord) error
	DeleteDocument(ctx context.Context, documentID int64) error
}

// Processor processes one document at a time. A Processor holds no
// per-document state, so distinct documents may be processed concurrently by
// distinct goroutines as long as each brings its own PageSource.
type Processor struct {
	store    Store
	index    VectorIndex
	embedder embedding.Embedder
	chunker  *parser.Chunker
}

func NewProcessor(store Store, index VectorIndex, embedder embedding.Embedder, cfg *config.RAGConfig) *Processor {
	return &Processor{
		store:    store,
		index:    index,
		embedder: embedder,
		chunker:  parser.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
	}
}

// Process runs the full extraction pipeline over one page source and returns
// the report. It never returns an error: every recoverable failure lands in
// the report, and the caller derives the terminal status from it.
func (p *Processor) Process(ctx context.Context, doc *models.Document, source parser.PageSource, fundID int64) *models.ProcessingReport {
	report := &models.ProcessingReport{}

	// Reprocessing supersedes the previous generation of chunks.
	if err := p.store.SupersedeChunks(ctx, doc.ID); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("superseding chunks: %v", err))
	}
	if err := p.index.DeleteDocument(ctx, doc.ID); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("clearing vector index: %v", err))
	}

	numPages := source.NumPages()
	var allChunks []models.Chunk
	chunkIndex := 0

	for page := 1; page <= numPages; page++ {
		pageChunks := p.processPage(ctx, doc, source, fundID, page, chunkIndex, report)
		chunkIndex += len(pageChunks)
		allChunks = append(allChunks, pageChunks...)
		report.PagesProcessed++
	}

	if len(allChunks) > 0 {
		p.indexChunks(ctx, doc, fundID, allChunks, report)
	}

	log.Info().
		Int64("document_id", doc.ID).
		Int("pages", report.PagesProcessed).
		Int("tables", report.TablesFound).
		Int("records", report.Records()).
		Int("chunks", report.ChunksCreated).
		Int("errors", len(report.Errors)).
		Msg("document processed")
	return report
}

// processPage handles one page in isolation; a panic inside page handling is
// converted into a report error so the remaining pages still run.
func (p *Processor) processPage(ctx context.Context, doc *models.Document, source parser.PageSource, fundID int64, page, chunkIndex int, report *models.ProcessingReport) (chunks []models.Chunk) {
	defer func() {
		if r := recover(); r != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("page %d: panic: %v", page, r))
			chunks = nil
		}
	}()

	tables, err := source.Tables(page)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("page %d: detecting tables: %v", page, err))
	} else {
		report.TablesFound += len(tables)
		for i, table := range tables {
			p.processTable(ctx, doc, fundID, page, i, table, report)
		}
	}

	text, err := source.Text(page)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("page %d: extracting text: %v", page, err))
		return nil
	}
	if text == "" {
		return nil
	}
	markdown, err := parser.ToMarkdown(text)
	if err != nil {
		// Fall back to the raw text; chunking raw prose still beats losing
		// the page from the index.
		markdown = text
	}
	return p.chunker.Chunk(markdown, page, chunkIndex)
}

func (p *Processor) processTable(ctx context.Context, doc *models.Document, fundID int64, page, tableIdx int, table models.RawTable, report *models.ProcessingReport) {
	c := tableparse.Classify(table)
	if c.Kind == tableparse.KindUnknown {
		// Unknown is a recorded non-result, not an error: zero rows, and the
		// document can still complete cleanly.
		log.Debug().Int("page", page).Int("table", tableIdx).Msg("table classified unknown, skipping")
		return
	}

	res := tableparse.Extract(table, c, fundID, doc.ID)
	for _, rowErr := range res.RowErrors {
		report.Errors = append(report.Errors, fmt.Sprintf("page %d table %d: %s", page, tableIdx, rowErr))
	}
	if res.Records() == 0 {
		return
	}

	if err := p.store.StoreExtractResult(ctx, res.CapitalCalls, res.Distributions, res.Adjustments); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("page %d table %d: storing records: %v", page, tableIdx, err))
		return
	}
	report.CapitalCalls += len(res.CapitalCalls)
	report.Distributions += len(res.Distributions)
	report.Adjustments += len(res.Adjustments)
}

// indexChunks embeds the document's chunks and writes them to both durable
// storage and the vector index.
func (p *Processor) indexChunks(ctx context.Context, doc *models.Document, fundID int64, chunks []models.Chunk, report *models.ProcessingReport) {
	embedded, err := embedding.EmbedChunks(ctx, p.embedder, doc.FileName, chunks)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("embedding chunks: %v", err))
		return
	}

	rows := make([]models.TextChunk, len(embedded))
	records := make([]chromemdb.ChunkRecord, len(embedded))
	for i, ce := range embedded {
		uid := uuid.NewString()
		rows[i] = models.TextChunk{
			ChunkUID:   uid,
			DocumentID: doc.ID,
			FundID:     fundID,
			PageNumber: ce.PageNumber,
			ChunkIndex: ce.ChunkID,
			Content:    ce.Content,
			Embedding:  ce.Embedding,
		}
		records[i] = chromemdb.ChunkRecord{
			ID:         uid,
			Content:    ce.Content,
			Embedding:  ce.Embedding,
			DocumentID: doc.ID,
			FundID:     fundID,
			Page:       ce.PageNumber,
			ChunkIndex: ce.ChunkID,
			SourceFile: ce.SourceFilename,
		}
	}

	if err := p.store.StoreTextChunks(ctx, rows); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("storing chunks: %v", err))
		return
	}
	if err := p.index.Upsert(ctx, records); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("indexing chunks: %v", err))
		return
	}
	report.ChunksCreated = len(embedded)
}
