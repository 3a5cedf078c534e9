package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataroom-chatbot/internal/blobstore"
)

func TestManagerPublishThenLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	mgr := NewManager(store, 3)

	chunks := []Chunk{
		{FileID: "f1", FileName: "memo.txt", ChunkIndex: 0, Text: "fund terms", MimeType: "text/plain", ContextLevel: LevelFund},
		{FileID: "f2", FileName: "deck.pdf", ChunkIndex: 0, Text: "company metrics", MimeType: "application/pdf", ContextLevel: LevelCompany},
	}
	snap, err := Build(3, [][]float32{{1, 2, 3}, {4, 5, 6}}, chunks)
	require.NoError(t, err)

	handle, err := mgr.Publish(ctx, snap)
	require.NoError(t, err)
	require.NotEmpty(t, handle)
	assert.Same(t, snap, mgr.Current())

	loaded, err := mgr.Load(ctx, handle)
	require.NoError(t, err)

	assert.Equal(t, snap.Len(), loaded.Len())
	assert.Equal(t, snap.Dimension(), loaded.Dimension())
	assert.Equal(t, chunks[0].Text, loaded.Chunk(0).Text)
	assert.Equal(t, chunks[1].FileName, loaded.Chunk(1).FileName)
	// Vector values survive persistence bit-exact.
	assert.Equal(t, snap.vectors, loaded.vectors)
}

func TestManagerLoadCurrent(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	writer := NewManager(store, 2)
	snap, err := Build(2, [][]float32{{1, 0}}, testChunks(1))
	require.NoError(t, err)
	_, err = writer.Publish(ctx, snap)
	require.NoError(t, err)

	reader := NewManager(store, 2)
	require.Nil(t, reader.Current())
	require.NoError(t, reader.LoadCurrent(ctx))
	require.NotNil(t, reader.Current())
	assert.Equal(t, 1, reader.Current().Len())
}

func TestManagerLoadCurrentEmptyStore(t *testing.T) {
	mgr := NewManager(blobstore.NewMemoryStore(), 2)

	err := mgr.LoadCurrent(context.Background())

	assert.ErrorIs(t, err, ErrIndexNotFound)
	assert.Nil(t, mgr.Current())
}

func TestManagerLoadMissingHandle(t *testing.T) {
	mgr := NewManager(blobstore.NewMemoryStore(), 2)

	_, err := mgr.Load(context.Background(), "no-such-handle")

	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestManagerLoadRejectsDimensionChange(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	writer := NewManager(store, 2)
	snap, err := Build(2, [][]float32{{1, 0}}, testChunks(1))
	require.NoError(t, err)
	handle, err := writer.Publish(ctx, snap)
	require.NoError(t, err)

	reader := NewManager(store, 4)
	_, err = reader.Load(ctx, handle)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestManagerExists(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	mgr := NewManager(store, 2)

	ok, err := mgr.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	snap, err := Build(2, [][]float32{{1, 0}}, testChunks(1))
	require.NoError(t, err)
	_, err = mgr.Publish(ctx, snap)
	require.NoError(t, err)

	ok, err = mgr.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVectorCodecRejectsCorruptBlob(t *testing.T) {
	_, _, err := decodeVectors([]byte{1, 2, 3})
	assert.Error(t, err)

	snap, err := Build(2, [][]float32{{1, 0}}, testChunks(1))
	require.NoError(t, err)
	blob := encodeVectors(snap)

	blob[0] ^= 0xFF
	_, _, err = decodeVectors(blob)
	assert.Error(t, err)
}
