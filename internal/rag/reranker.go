package rag

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"dataroom-chatbot/internal/ai"
)

const (
	// Previews keep the scoring prompt cheap; the full chunk text still
	// flows to the synthesizer.
	rerankPreviewChars = 200

	// Chunks scoring below this are dropped, unless that would drop them all.
	rerankKeepScore = 4
)

// Reranker asks the model to score each retrieved chunk's relevance to the
// original question on a 0-10 scale in one batched prompt. It fails open:
// any problem with the reply returns the input unchanged.
type Reranker struct {
	client CompletionClient
	cfg    ai.ChatConfig
}

func NewReranker(client CompletionClient, cfg ai.ChatConfig) *Reranker {
	return &Reranker{client: client, cfg: cfg}
}

// Rerank filters and reorders chunks by model-judged relevance. With 0 or 1
// chunks there is nothing to reorder. A non-empty input never comes back
// empty: when every score is below the cut, the single best chunk survives.
func (r *Reranker) Rerank(ctx context.Context, question string, chunks []string) []string {
	if len(chunks) <= 1 {
		return chunks
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Score how relevant each passage is to the question on a scale of 0 to 10.\n\nQuestion: %s\n\n", question)
	for i, chunk := range chunks {
		fmt.Fprintf(&sb, "Passage %d: %s\n\n", i+1, preview(chunk, rerankPreviewChars))
	}
	sb.WriteString("Reply with only the scores as comma-separated integers, one per passage, in order.")

	reply, err := r.client.Complete(ctx, r.cfg, []ai.ChatMessage{
		{Role: "user", Content: sb.String()},
	})
	if err != nil {
		log.Printf("rerank degraded: %v", err)
		return chunks
	}

	scores, err := parseScores(reply)
	if err != nil || len(scores) != len(chunks) {
		log.Printf("rerank degraded: unusable score reply %q", strings.TrimSpace(reply))
		return chunks
	}

	order := make([]int, len(chunks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	var kept []string
	for _, i := range order {
		if scores[i] >= rerankKeepScore {
			kept = append(kept, chunks[i])
		}
	}
	if len(kept) == 0 {
		// Better one weak chunk than an empty context.
		kept = []string{chunks[order[0]]}
	}
	return kept
}

func parseScores(reply string) ([]int, error) {
	parts := strings.Split(strings.TrimSpace(reply), ",")
	scores := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("parse score %q failed: %w", part, err)
		}
		scores = append(scores, n)
	}
	return scores, nil
}

func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
