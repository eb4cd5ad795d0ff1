package chromemdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() ChunkRecord {
	return ChunkRecord{
		ID:         "c1",
		Content:    "Capital call notice for Q1.",
		Embedding:  []float32{1, 0, 0},
		DocumentID: 42,
		FundID:     7,
		Page:       1,
		ChunkIndex: 0,
		SourceFile: "q1-report.pdf",
	}
}

func TestVectorDBManager(t *testing.T) {
	ctx := context.Background()

	t.Run("search round-trips chunk metadata", func(t *testing.T) {
		m, err := NewVectorDBManager("", "fund_documents", "")
		require.NoError(t, err)
		require.NoError(t, m.Upsert(ctx, []ChunkRecord{sampleRecord()}))

		hits, err := m.Search(ctx, []float32{1, 0, 0}, 5, 7)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, int64(42), hits[0].DocumentID)
		assert.Equal(t, int64(7), hits[0].FundID)
		assert.Equal(t, 1, hits[0].Page)
		assert.Equal(t, "q1-report.pdf", hits[0].SourceFile)
	})

	t.Run("fund filter excludes other funds", func(t *testing.T) {
		m, err := NewVectorDBManager("", "fund_documents", "")
		require.NoError(t, err)
		require.NoError(t, m.Upsert(ctx, []ChunkRecord{sampleRecord()}))

		hits, err := m.Search(ctx, []float32{1, 0, 0}, 5, 99)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("export requires an encryption key", func(t *testing.T) {
		m, err := NewVectorDBManager("", "fund_documents", "")
		require.NoError(t, err)

		err = m.Export(filepath.Join(t.TempDir(), "index.chromem"))
		require.Error(t, err)
		err = m.Import(filepath.Join(t.TempDir(), "index.chromem"))
		require.Error(t, err)
	})

	t.Run("export and import round-trip the index", func(t *testing.T) {
		m, err := NewVectorDBManager("", "fund_documents", "s3cret")
		require.NoError(t, err)
		require.NoError(t, m.Upsert(ctx, []ChunkRecord{sampleRecord()}))

		file := filepath.Join(t.TempDir(), "index.chromem")
		require.NoError(t, m.Export(file))

		restored, err := NewVectorDBManager("", "fund_documents", "s3cret")
		require.NoError(t, err)
		require.NoError(t, restored.Import(file))

		hits, err := restored.Search(ctx, []float32{1, 0, 0}, 5, 7)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "Capital call notice for Q1.", hits[0].Content)
	})
}
