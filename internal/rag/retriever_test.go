package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataroom-chatbot/internal/ai"
	"dataroom-chatbot/internal/index"
)

// fakeEmbedder maps texts to fixed vectors.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(ctx context.Context, cfg ai.EmbeddingConfig, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.vectors[text]
	if !ok {
		return []float32{0, 0}, nil
	}
	return v, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, cfg ai.EmbeddingConfig, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := f.Embed(ctx, cfg, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func retrieverSnapshot(t *testing.T) *index.Snapshot {
	t.Helper()
	snap, err := index.Build(2, [][]float32{
		{1, 0},
		{0, 1},
		{1, 0},
	}, []index.Chunk{
		{FileID: "f1", FileName: "terms.txt", Text: "fund terms"},
		{FileID: "f2", FileName: "acme.txt", Text: "acme metrics"},
		{FileID: "f3", FileName: "copy.txt", Text: "fund terms"},
	})
	require.NoError(t, err)
	return snap
}

func TestRetrieveFiltersByScore(t *testing.T) {
	snap := retrieverSnapshot(t)
	client := &fakeEmbedder{vectors: map[string][]float32{"q": {1, 0}}}
	r := NewRetriever(client, ai.EmbeddingConfig{}, 5, 0.5)

	chunks, sources, err := r.Retrieve(context.Background(), snap, []string{"q"})
	require.NoError(t, err)

	// The orthogonal chunk scores 0 and stays out.
	assert.Equal(t, []string{"fund terms"}, chunks)
	assert.NotContains(t, sources, "acme.txt")
}

func TestRetrieveDedupesTextButKeepsBothSources(t *testing.T) {
	snap := retrieverSnapshot(t)
	client := &fakeEmbedder{vectors: map[string][]float32{"q": {1, 0}}}
	r := NewRetriever(client, ai.EmbeddingConfig{}, 5, 0.5)

	chunks, sources, err := r.Retrieve(context.Background(), snap, []string{"q"})
	require.NoError(t, err)

	// Identical text from two files yields one chunk but credits both files.
	assert.Equal(t, []string{"fund terms"}, chunks)
	assert.Equal(t, []string{"terms.txt", "copy.txt"}, sources)
}

func TestRetrieveMergesVariantsInOrder(t *testing.T) {
	snap := retrieverSnapshot(t)
	client := &fakeEmbedder{vectors: map[string][]float32{
		"first":  {1, 0},
		"second": {0, 1},
	}}
	r := NewRetriever(client, ai.EmbeddingConfig{}, 5, 0.5)

	chunks, sources, err := r.Retrieve(context.Background(), snap, []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, []string{"fund terms", "acme metrics"}, chunks)
	assert.Equal(t, []string{"terms.txt", "copy.txt", "acme.txt"}, sources)
}

func TestRetrieveEmptyWhenNothingClearsFloor(t *testing.T) {
	snap := retrieverSnapshot(t)
	client := &fakeEmbedder{vectors: map[string][]float32{"q": {1, 1}}}
	r := NewRetriever(client, ai.EmbeddingConfig{}, 5, 0.9)

	chunks, sources, err := r.Retrieve(context.Background(), snap, []string{"q"})
	require.NoError(t, err)

	assert.Empty(t, chunks)
	assert.Empty(t, sources)
}

func TestRetrieveAbortsOnEmbedFailure(t *testing.T) {
	snap := retrieverSnapshot(t)
	client := &fakeEmbedder{err: errors.New("embedding api down")}
	r := NewRetriever(client, ai.EmbeddingConfig{}, 5, 0.5)

	_, _, err := r.Retrieve(context.Background(), snap, []string{"q"})

	assert.Error(t, err)
}
