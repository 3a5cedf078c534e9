// Package rag implements the question-answering funnel: query planning,
// multi-variant retrieval, LLM reranking and answer synthesis.
package rag

import (
	"context"

	"dataroom-chatbot/internal/ai"
)

// CompletionClient is the slice of the LLM client the funnel needs.
// *ai.OpenAICompatibleClient satisfies it.
type CompletionClient interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error)
}

// EmbeddingClient is the slice of the embedding provider the retriever needs.
type EmbeddingClient interface {
	Embed(ctx context.Context, cfg ai.EmbeddingConfig, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, cfg ai.EmbeddingConfig, texts []string) ([][]float32, error)
}
