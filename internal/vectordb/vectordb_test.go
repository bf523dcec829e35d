package vectordb

import (
	"context"
	"math"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/models"
)

// stubEmbedding returns fixed unit vectors per text, so similarity ordering
// is fully deterministic without a provider.
func stubEmbedding(vectors map[string][]float32) chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		if v, ok := vectors[text]; ok {
			return v, nil
		}
		return []float32{0, 1, 0}, nil
	}
}

func unit(x, y, z float32) []float32 {
	n := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	return []float32{x / n, y / n, z / n}
}

func testVectors() map[string][]float32 {
	return map[string][]float32{
		"alpha": unit(1, 0, 0),
		"beta":  unit(1, 1, 0),
		"gamma": unit(0, 0, 1),
		"query": unit(1, 0.1, 0),
	}
}

func testChunks() []models.Chunk {
	return []models.Chunk{
		{Content: "alpha", Source: "doc.pdf", PageNumber: 1, ChunkID: 1},
		{Content: "beta", Source: "doc.pdf", PageNumber: 1, ChunkID: 2},
		{Content: "gamma", Source: "doc.pdf", PageNumber: 2, ChunkID: 1},
	}
}

func TestRetrieve_NearestFirst(t *testing.T) {
	ix, err := NewInMemory("test", stubEmbedding(testVectors()))
	require.NoError(t, err)
	require.NoError(t, ix.Build(context.Background(), testChunks()))

	chunks, err := ix.Retrieve(context.Background(), "query", 2)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "alpha", chunks[0].Content)
	assert.Equal(t, "beta", chunks[1].Content)
	assert.Equal(t, "doc.pdf", chunks[0].Source)
	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.Equal(t, 1, chunks[0].ChunkID)
}

func TestRetrieve_ClampsKToCount(t *testing.T) {
	ix, err := NewInMemory("test", stubEmbedding(testVectors()))
	require.NoError(t, err)
	require.NoError(t, ix.Build(context.Background(), testChunks()))

	chunks, err := ix.Retrieve(context.Background(), "query", 10)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	ix, err := NewInMemory("test", stubEmbedding(testVectors()))
	require.NoError(t, err)

	chunks, err := ix.Retrieve(context.Background(), "query", 3)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestBuild_ReplacesPreviousIndex(t *testing.T) {
	ix, err := NewInMemory("test", stubEmbedding(testVectors()))
	require.NoError(t, err)

	require.NoError(t, ix.Build(context.Background(), testChunks()))
	require.NoError(t, ix.Build(context.Background(), testChunks()))
	assert.Equal(t, 3, ix.Count())
}

func TestBuild_EmptyChunks(t *testing.T) {
	ix, err := NewInMemory("test", stubEmbedding(testVectors()))
	require.NoError(t, err)
	assert.Error(t, ix.Build(context.Background(), nil))
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	embed := stubEmbedding(testVectors())

	ix, err := Open(dir, "test", embed)
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Count())
	require.NoError(t, ix.Build(context.Background(), testChunks()))

	reopened, err := Open(dir, "test", embed)
	require.NoError(t, err)
	assert.Equal(t, 3, reopened.Count())

	chunks, err := reopened.Retrieve(context.Background(), "query", 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "alpha", chunks[0].Content)
}
