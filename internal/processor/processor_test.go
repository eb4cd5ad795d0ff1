package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/chromemdb"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/config"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
)

type fakeStore struct {
	calls  []models.CapitalCall
	dists  []models.Distribution
	adjs   []models.Adjustment
	chunks []models.TextChunk

	superseded []int64

	storeResultErr error
	storeChunksErr error
}

func (f *fakeStore) StoreExtractResult(_ context.Context, calls []models.CapitalCall, dists []models.Distribution, adjs []models.Adjustment) error {
	if f.storeResultErr != nil {
		return f.storeResultErr
	}
	f.calls = append(f.calls, calls...)
	f.dists = append(f.dists, dists...)
	f.adjs = append(f.adjs, adjs...)
	return nil
}

func (f *fakeStore) StoreTextChunks(_ context.Context, chunks []models.TextChunk) error {
	if f.storeChunksErr != nil {
		return f.storeChunksErr
	}
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeStore) SupersedeChunks(_ context.Context, documentID int64) error {
	f.superseded = append(f.superseded, documentID)
	return nil
}

type fakeIndex struct {
	records []chromemdb.ChunkRecord
	deleted []int64
}

func (f *fakeIndex) Upsert(_ context.Context, records []chromemdb.ChunkRecord) error {
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeIndex) DeleteDocument(_ context.Context, documentID int64) error {
	f.deleted = append(f.deleted, documentID)
	return nil
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakePage struct {
	text      string
	tables    []models.RawTable
	textErr   error
	tablesErr error
	panics    bool
}

type fakeSource struct {
	pages []fakePage
}

func (f *fakeSource) NumPages() int { return len(f.pages) }

func (f *fakeSource) Text(page int) (string, error) {
	p := f.pages[page-1]
	if p.panics {
		panic("corrupt page stream")
	}
	return p.text, p.textErr
}

func (f *fakeSource) Tables(page int) ([]models.RawTable, error) {
	p := f.pages[page-1]
	return p.tables, p.tablesErr
}

func (f *fakeSource) Close() error { return nil }

func callTable() models.RawTable {
	return models.RawTable{
		Header: []string{"Call Date", "Call Type", "Amount"},
		Rows: [][]string{
			{"2024-01-15", "Regular Capital Call", "$1,000,000.00"},
			{"2024-03-20", "Regular Capital Call", "$2,500,000.00"},
		},
	}
}

func newTestProcessor(store *fakeStore, index *fakeIndex, embedder *fakeEmbedder) *Processor {
	return NewProcessor(store, index, embedder, &config.RAGConfig{ChunkSize: 1000, ChunkOverlap: 200})
}

func TestProcess(t *testing.T) {
	ctx := context.Background()
	doc := &models.Document{ID: 42, FundID: 1, FileName: "q1-report.pdf"}

	t.Run("table records and prose chunks from a clean document", func(t *testing.T) {
		store := &fakeStore{}
		index := &fakeIndex{}
		p := newTestProcessor(store, index, &fakeEmbedder{})

		source := &fakeSource{pages: []fakePage{
			{text: "Capital call notice for Q1.", tables: []models.RawTable{callTable()}},
			{text: "The fund continues to perform in line with expectations."},
		}}

		report := p.Process(ctx, doc, source, 1)

		assert.Equal(t, 2, report.PagesProcessed)
		assert.Equal(t, 1, report.TablesFound)
		assert.Equal(t, 2, report.CapitalCalls)
		assert.Equal(t, 2, report.ChunksCreated)
		assert.Empty(t, report.Errors)
		assert.Equal(t, models.StatusCompleted, report.FinalStatus())

		require.Len(t, store.calls, 2)
		assert.Equal(t, int64(42), store.calls[0].DocumentID)

		require.Len(t, store.chunks, 2)
		require.Len(t, index.records, 2)
		assert.Equal(t, store.chunks[0].ChunkUID, index.records[0].ID)
		assert.Equal(t, "q1-report.pdf", index.records[0].SourceFile)
	})

	t.Run("reprocessing supersedes the previous chunk generation", func(t *testing.T) {
		store := &fakeStore{}
		index := &fakeIndex{}
		p := newTestProcessor(store, index, &fakeEmbedder{})

		p.Process(ctx, doc, &fakeSource{pages: []fakePage{{text: "some prose"}}}, 1)

		assert.Equal(t, []int64{42}, store.superseded)
		assert.Equal(t, []int64{42}, index.deleted)
	})

	t.Run("a failing page does not abort the rest", func(t *testing.T) {
		store := &fakeStore{}
		p := newTestProcessor(store, &fakeIndex{}, &fakeEmbedder{})

		source := &fakeSource{pages: []fakePage{
			{textErr: errors.New("decode error"), tablesErr: errors.New("decode error")},
			{text: "Distribution notice.", tables: []models.RawTable{{
				Header: []string{"Distribution Date", "Amount"},
				Rows:   [][]string{{"2024-06-30", "$750,000.00"}},
			}}},
		}}

		report := p.Process(ctx, doc, source, 1)

		assert.Equal(t, 2, report.PagesProcessed)
		assert.Equal(t, 1, report.Distributions)
		assert.Len(t, report.Errors, 2)
		assert.Equal(t, models.StatusCompletedWithErrors, report.FinalStatus())
	})

	t.Run("a panicking page becomes a report error", func(t *testing.T) {
		store := &fakeStore{}
		p := newTestProcessor(store, &fakeIndex{}, &fakeEmbedder{})

		source := &fakeSource{pages: []fakePage{
			{panics: true},
			{text: "Still readable."},
		}}

		report := p.Process(ctx, doc, source, 1)

		assert.Equal(t, 2, report.PagesProcessed)
		require.Len(t, report.Errors, 1)
		assert.Contains(t, report.Errors[0], "panic")
		assert.Equal(t, 1, report.ChunksCreated)
	})

	t.Run("unknown tables complete cleanly when text still chunks", func(t *testing.T) {
		store := &fakeStore{}
		p := newTestProcessor(store, &fakeIndex{}, &fakeEmbedder{})

		source := &fakeSource{pages: []fakePage{
			{
				text: "Office directory and narrative text.",
				tables: []models.RawTable{{
					Header: []string{"Employee", "Office"},
					Rows:   [][]string{{"J. Smith", "NYC"}},
				}},
			},
		}}

		report := p.Process(ctx, doc, source, 1)

		assert.Zero(t, report.Records())
		assert.Equal(t, 1, report.ChunksCreated)
		assert.Empty(t, report.Errors)
		assert.Equal(t, models.StatusCompleted, report.FinalStatus())
	})

	t.Run("storage failure is recorded and counts stay untouched", func(t *testing.T) {
		store := &fakeStore{storeResultErr: errors.New("db down")}
		p := newTestProcessor(store, &fakeIndex{}, &fakeEmbedder{})

		source := &fakeSource{pages: []fakePage{
			{tables: []models.RawTable{callTable()}},
		}}

		report := p.Process(ctx, doc, source, 1)

		assert.Zero(t, report.CapitalCalls)
		require.NotEmpty(t, report.Errors)
		assert.Contains(t, report.Errors[0], "storing records")
	})

	t.Run("embedding failure leaves records intact", func(t *testing.T) {
		store := &fakeStore{}
		p := newTestProcessor(store, &fakeIndex{}, &fakeEmbedder{err: errors.New("model offline")})

		source := &fakeSource{pages: []fakePage{
			{text: "Capital call notice.", tables: []models.RawTable{callTable()}},
		}}

		report := p.Process(ctx, doc, source, 1)

		assert.Equal(t, 2, report.CapitalCalls)
		assert.Zero(t, report.ChunksCreated)
		require.NotEmpty(t, report.Errors)
		assert.Equal(t, models.StatusCompletedWithErrors, report.FinalStatus())
	})
}
