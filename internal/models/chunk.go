package models

// Chunk represents a parsed chunk with metadata, before it is embedded.
type Chunk struct {
	Content    string
	PageNumber int
	ChunkID    int
}

// ChunkEmbedding pairs a chunk with its vector and source identity.
type ChunkEmbedding struct {
	Content        string
	Embedding      []float32
	SourceFilename string
	PageNumber     int
	ChunkID        int
}

// RawTable is a table as detected on a page: a header row plus data rows.
// Detection is best-effort; classification decides what the table means.
type RawTable struct {
	Header []string
	Rows   [][]string
}
