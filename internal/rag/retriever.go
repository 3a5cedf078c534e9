package rag

import (
	"context"
	"fmt"

	"dataroom-chatbot/internal/ai"
	"dataroom-chatbot/internal/index"
)

const (
	DefaultTopK = 5

	// DefaultMinScore favors recall over precision; the reranker prunes the
	// false positives this floor lets through.
	DefaultMinScore = 0.5
)

// Retriever runs the similarity search for every query variant and merges
// the hits into ordered, deduplicated chunk texts and source names.
type Retriever struct {
	client   EmbeddingClient
	cfg      ai.EmbeddingConfig
	topK     int
	minScore float32
}

func NewRetriever(client EmbeddingClient, cfg ai.EmbeddingConfig, topK int, minScore float64) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Retriever{client: client, cfg: cfg, topK: topK, minScore: float32(minScore)}
}

// Retrieve searches the snapshot once per variant, in variant order. Chunks
// are deduplicated by exact text (first occurrence wins) and sources are
// distinct file names in insertion order. Empty results mean no passage
// cleared the score floor; the caller treats that as "no relevant
// information". An embedding failure aborts the whole call.
func (r *Retriever) Retrieve(ctx context.Context, snap *index.Snapshot, variants []string) ([]string, []string, error) {
	seenChunks := make(map[string]struct{})
	seenFiles := make(map[string]struct{})
	var chunks []string
	var sources []string

	for _, variant := range variants {
		vector, err := r.client.Embed(ctx, r.cfg, variant)
		if err != nil {
			return nil, nil, fmt.Errorf("embed query variant failed: %w", err)
		}

		results, err := snap.Search(index.Normalize(vector), r.topK)
		if err != nil {
			return nil, nil, err
		}

		for _, hit := range results {
			if hit.Score <= r.minScore {
				continue
			}
			meta := snap.Chunk(hit.Position)
			if meta.Text != "" {
				if _, dup := seenChunks[meta.Text]; !dup {
					seenChunks[meta.Text] = struct{}{}
					chunks = append(chunks, meta.Text)
				}
			}
			if _, dup := seenFiles[meta.FileName]; !dup {
				seenFiles[meta.FileName] = struct{}{}
				sources = append(sources, meta.FileName)
			}
		}
	}
	return chunks, sources, nil
}
