package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunks(n int) []Chunk {
	chunks := make([]Chunk, n)
	for i := range chunks {
		chunks[i] = Chunk{
			FileID:     "file-a",
			FileName:   "a.txt",
			ChunkIndex: i,
			Text:       "chunk",
			MimeType:   "text/plain",
		}
	}
	return chunks
}

func TestBuildRejectsCountMismatch(t *testing.T) {
	_, err := Build(2, [][]float32{{1, 0}}, testChunks(2))

	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestBuildRejectsWrongWidth(t *testing.T) {
	_, err := Build(3, [][]float32{{1, 0}}, testChunks(1))

	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestBuildNormalizesVectors(t *testing.T) {
	snap, err := Build(2, [][]float32{{3, 4}}, testChunks(1))
	require.NoError(t, err)

	results, err := snap.Search([]float32{0.6, 0.8}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)
}

func TestSearchOrdersByScore(t *testing.T) {
	snap, err := Build(2, [][]float32{
		{0, 1},
		{1, 0},
		{1, 1},
	}, testChunks(3))
	require.NoError(t, err)

	results, err := snap.Search(Normalize([]float32{1, 0}), 3)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0].Position)
	assert.Equal(t, 2, results[1].Position)
	assert.Equal(t, 0, results[2].Position)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	assert.GreaterOrEqual(t, results[1].Score, results[2].Score)
}

func TestSearchCapsAtK(t *testing.T) {
	snap, err := Build(2, [][]float32{{1, 0}, {0, 1}, {1, 1}}, testChunks(3))
	require.NoError(t, err)

	results, err := snap.Search([]float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = snap.Search([]float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchRejectsWrongQueryWidth(t *testing.T) {
	snap, err := Build(2, [][]float32{{1, 0}}, testChunks(1))
	require.NoError(t, err)

	_, err = snap.Search([]float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFileCount(t *testing.T) {
	chunks := testChunks(3)
	chunks[2].FileID = "file-b"
	snap, err := Build(2, [][]float32{{1, 0}, {0, 1}, {1, 1}}, chunks)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.FileCount())
	assert.Equal(t, 3, snap.Len())
	assert.Equal(t, 2, snap.Dimension())
}

func TestNormalizeZeroVector(t *testing.T) {
	out := Normalize([]float32{0, 0, 0})

	assert.Equal(t, []float32{0, 0, 0}, out)
}
