package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataroom-chatbot/internal/ai"
	"dataroom-chatbot/internal/blobstore"
	"dataroom-chatbot/internal/config"
	"dataroom-chatbot/internal/index"
	"dataroom-chatbot/internal/ingest"
)

// scriptedLLM answers each pipeline stage by inspecting the prompt.
type scriptedLLM struct{}

func (scriptedLLM) Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error) {
	prompt := messages[len(messages)-1].Content
	switch {
	case strings.Contains(prompt, "Classify this question"):
		return `{"level": "fund-level", "entities": [], "keywords": ["fund size"], "exclude_keywords": []}`, nil
	case strings.Contains(prompt, "Rewrite this question"):
		if strings.Contains(prompt, "weather") {
			return "Any forecast for today?\nIs it sunny right now?", nil
		}
		return "How large is the fund?\nWhat is the fund's total size?", nil
	case strings.Contains(prompt, "Score how relevant"):
		n := strings.Count(prompt, "Passage ")
		scores := make([]string, n)
		for i := range scores {
			scores[i] = "8"
		}
		return strings.Join(scores, ", "), nil
	default:
		return "The fund size is $50M.", nil
	}
}

// keywordEmbedder gives fund-related texts and everything else orthogonal
// unit vectors, so relevance is deterministic.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(ctx context.Context, cfg ai.EmbeddingConfig, text string) ([]float32, error) {
	if strings.Contains(strings.ToLower(text), "fund") {
		return []float32{1, 0, 0}, nil
	}
	return []float32{0, 1, 0}, nil
}

func (e keywordEmbedder) EmbedBatch(ctx context.Context, cfg ai.EmbeddingConfig, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, cfg, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// listSource serves a fixed document set.
type listSource struct {
	docs []ingest.Document
}

func (s listSource) ListDocuments(ctx context.Context) ([]ingest.Document, error) {
	return s.docs, nil
}

func newTestService(t *testing.T, source ingest.Source) *DataroomService {
	t.Helper()
	manager := index.NewManager(blobstore.NewMemoryStore(), 3)
	return NewDataroomService(
		manager,
		index.NewChunker(50, 10),
		source,
		nil,
		scriptedLLM{},
		ai.ChatConfig{Model: "test-chat"},
		keywordEmbedder{},
		ai.EmbeddingConfig{Model: "test-embed"},
		config.IndexConfig{TopK: 5, MinScore: 0.5},
	)
}

func TestAnswerBeforeAnyRebuild(t *testing.T) {
	svc := newTestService(t, nil)

	answer, sources, err := svc.AnswerQuestion(context.Background(), "What is the fund size?", nil)

	require.NoError(t, err)
	assert.Equal(t, noIndexAnswer, answer)
	assert.Empty(t, sources)
	assert.NotNil(t, sources)
}

func TestAnswerWithIncompatiblePersistedIndex(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	writer := index.NewManager(store, 3)
	snap, err := index.Build(3, [][]float32{{1, 0, 0}}, []index.Chunk{
		{FileID: "f1", FileName: "Fund.txt", Text: "the fund"},
	})
	require.NoError(t, err)
	_, err = writer.Publish(ctx, snap)
	require.NoError(t, err)

	// Same store, different configured embedding width: the persisted
	// snapshot cannot serve and answering falls back conversationally.
	svc := NewDataroomService(
		index.NewManager(store, 4),
		index.NewChunker(50, 10),
		nil,
		nil,
		scriptedLLM{},
		ai.ChatConfig{},
		keywordEmbedder{},
		ai.EmbeddingConfig{},
		config.IndexConfig{TopK: 5, MinScore: 0.5},
	)

	answer, sources, err := svc.AnswerQuestion(ctx, "What is the fund size?", nil)

	require.NoError(t, err)
	assert.Equal(t, noIndexAnswer, answer)
	assert.Empty(t, sources)
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	svc := newTestService(t, nil)

	_, _, err := svc.AnswerQuestion(context.Background(), "   ", nil)

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRefreshWithoutSource(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.RefreshDataroom(context.Background())

	assert.ErrorIs(t, err, ErrNoSource)
}

func TestRebuildWithNoUsableContent(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.RebuildIndex(context.Background(), []ingest.Document{
		{ID: "f1", Name: "empty.txt", Content: "   \n  "},
	})
	assert.ErrorIs(t, err, ErrNoContent)

	_, err = svc.RebuildIndex(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestRefreshThenAnswerEndToEnd(t *testing.T) {
	ctx := context.Background()
	source := listSource{docs: []ingest.Document{
		{
			ID:       "file-fund",
			Name:     "Fund.txt",
			Content:  strings.Repeat("The fund size is $50M. ", 120),
			MimeType: "text/plain",
		},
		{
			ID:       "file-notes",
			Name:     "Notes.txt",
			Content:  "Offsite agenda and travel notes.",
			MimeType: "text/plain",
		},
	}}
	svc := newTestService(t, source)

	result, err := svc.RefreshDataroom(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.FilesIndexed)
	assert.Greater(t, result.ChunksIndexed, 1)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Exists)
	assert.Equal(t, 2, status.FileCount)

	answer, sources, err := svc.AnswerQuestion(ctx, "What is the fund size?", nil)
	require.NoError(t, err)
	assert.Equal(t, "The fund size is $50M.", answer)
	assert.Contains(t, sources, "Fund.txt")
	assert.NotContains(t, sources, "Notes.txt")
}

func TestAnswerWithNoRelevantContext(t *testing.T) {
	ctx := context.Background()
	source := listSource{docs: []ingest.Document{
		{ID: "file-fund", Name: "Fund.txt", Content: strings.Repeat("The fund size is $50M. ", 60)},
	}}
	svc := newTestService(t, source)

	_, err := svc.RefreshDataroom(ctx)
	require.NoError(t, err)

	answer, sources, err := svc.AnswerQuestion(ctx, "What is the weather today?", nil)

	require.NoError(t, err)
	assert.Equal(t, noContextAnswer, answer)
	assert.Empty(t, sources)
}

func TestStatusOnEmptyStore(t *testing.T) {
	svc := newTestService(t, nil)

	status, err := svc.Status(context.Background())

	require.NoError(t, err)
	assert.False(t, status.Exists)
	assert.Equal(t, 0, status.FileCount)
}
