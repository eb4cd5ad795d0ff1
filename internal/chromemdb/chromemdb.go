// Package chromemdb manages the chromem-go vector index holding document
// text chunks. Similarity is cosine; metadata carries enough identity to cite
// sources back to a document and page.
package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

// Metadata keys stored with every chunk.
const (
	MetaDocumentID = "document_id"
	MetaFundID     = "fund_id"
	MetaPage       = "page"
	MetaChunkIndex = "chunk_index"
	MetaSourceFile = "source_file"
)

// ChunkRecord is one retrieval unit to upsert.
type ChunkRecord struct {
	ID         string
	Content    string
	Embedding  []float32
	DocumentID int64
	FundID     int64
	Page       int
	ChunkIndex int
	SourceFile string
}

// SearchResult is one ranked hit from the index.
type SearchResult struct {
	ID         string
	Content    string
	Score      float32
	DocumentID int64
	FundID     int64
	Page       int
	ChunkIndex int
	SourceFile string
}

// VectorDBManager encapsulates the chromem-go database operations.
type VectorDBManager struct {
	db            *chromem.DB
	collection    *chromem.Collection
	encryptionKey string
}

// NewVectorDBManager opens (or creates) the index. With an empty path the
// index lives in memory, which tests use. encryptionKey is only required for
// Export and Import.
func NewVectorDBManager(dbPath, collectionName, encryptionKey string) (*VectorDBManager, error) {
	var db *chromem.DB
	var err error
	if dbPath == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector database: %w", err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}

	return &VectorDBManager{db: db, collection: collection, encryptionKey: encryptionKey}, nil
}

// Export writes the index to an encrypted snapshot file, used to move an
// index between environments without re-embedding every document.
func (m *VectorDBManager) Export(filePath string) error {
	if m.encryptionKey == "" {
		return fmt.Errorf("export requires an encryption key")
	}
	if err := m.db.Export(filePath, false, m.encryptionKey); err != nil {
		return fmt.Errorf("failed to export vector index: %w", err)
	}
	log.Info().Str("file", filePath).Msg("exported vector index")
	return nil
}

// Import restores the index from a snapshot written by Export. The collection
// handle is re-resolved afterwards since the import replaces collections.
func (m *VectorDBManager) Import(filePath string) error {
	if m.encryptionKey == "" {
		return fmt.Errorf("import requires an encryption key")
	}
	name := m.collection.Name
	if err := m.db.Import(filePath, m.encryptionKey); err != nil {
		return fmt.Errorf("failed to import vector index: %w", err)
	}
	collection, err := m.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to reopen collection after import: %w", err)
	}
	m.collection = collection
	log.Info().Str("file", filePath).Msg("imported vector index")
	return nil
}

// Upsert adds chunk records to the index.
func (m *VectorDBManager) Upsert(ctx context.Context, records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:        r.ID,
			Content:   r.Content,
			Embedding: r.Embedding,
			Metadata: map[string]string{
				MetaDocumentID: strconv.FormatInt(r.DocumentID, 10),
				MetaFundID:     strconv.FormatInt(r.FundID, 10),
				MetaPage:       strconv.Itoa(r.Page),
				MetaChunkIndex: strconv.Itoa(r.ChunkIndex),
				MetaSourceFile: r.SourceFile,
			},
		}
	}
	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	log.Debug().Int("count", len(docs)).Msg("upserted chunks into vector index")
	return nil
}

// Search returns the top-k chunks for the query embedding, optionally scoped
// to one fund. Results come back ranked by cosine similarity, descending.
func (m *VectorDBManager) Search(ctx context.Context, queryEmbedding []float32, topK int, fundID int64) ([]SearchResult, error) {
	if count := m.collection.Count(); count < topK {
		topK = count
	}
	if topK <= 0 {
		return nil, nil
	}

	var where map[string]string
	if fundID > 0 {
		where = map[string]string{MetaFundID: strconv.FormatInt(fundID, 10)}
	}

	results, err := m.collection.QueryEmbedding(ctx, queryEmbedding, topK, where, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			ID:         r.ID,
			Content:    r.Content,
			Score:      r.Similarity,
			DocumentID: atoi64(r.Metadata[MetaDocumentID]),
			FundID:     atoi64(r.Metadata[MetaFundID]),
			Page:       atoi(r.Metadata[MetaPage]),
			ChunkIndex: atoi(r.Metadata[MetaChunkIndex]),
			SourceFile: r.Metadata[MetaSourceFile],
		}
	}
	return out, nil
}

// DeleteDocument removes every chunk of a document, used when reprocessing
// supersedes the previous generation of chunks.
func (m *VectorDBManager) DeleteDocument(ctx context.Context, documentID int64) error {
	where := map[string]string{MetaDocumentID: strconv.FormatInt(documentID, 10)}
	if err := m.collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("failed to delete document chunks: %w", err)
	}
	return nil
}

func atoi64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
