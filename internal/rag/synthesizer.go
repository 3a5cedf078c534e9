package rag

import (
	"context"
	"fmt"
	"log"
	"strings"

	"dataroom-chatbot/internal/ai"
)

// MaxHistoryTurns bounds how much caller-supplied conversation history makes
// it into the prompt. Enforced here, never by mutating the caller's slice.
const MaxHistoryTurns = 10

const systemInstruction = `You are an assistant answering questions about documents in an investment dataroom.
Distinguish carefully between scopes when answering:
- fund-level: terms and performance of the fund itself (size, fees, carried interest, IRR).
- portfolio-level: aggregates across the portfolio companies.
- company-level: a single portfolio company.
If a question is ambiguous about scope, state which scope your answer covers.
Use only the provided context. If the context does not contain enough information, say so clearly. Be concise and accurate.`

// Synthesizer assembles the bounded system/history/context/question prompt
// and produces the final answer text. Upstream failures become an apologetic
// answer rather than an error: the conversational surface always responds.
type Synthesizer struct {
	client CompletionClient
	cfg    ai.ChatConfig
}

func NewSynthesizer(client CompletionClient, cfg ai.ChatConfig) *Synthesizer {
	return &Synthesizer{client: client, cfg: cfg}
}

func (s *Synthesizer) Synthesize(ctx context.Context, question string, contextChunks []string, history []ai.ChatMessage) string {
	if len(history) > MaxHistoryTurns {
		history = history[len(history)-MaxHistoryTurns:]
	}

	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: systemInstruction})
	messages = append(messages, history...)
	messages = append(messages, ai.ChatMessage{
		Role: "user",
		Content: fmt.Sprintf(
			"Context from dataroom documents:\n%s\n\nQuestion: %s\n\nAnswer in plain prose; use short bullet points only when listing figures.",
			strings.Join(contextChunks, "\n\n"),
			question,
		),
	})

	answer, err := s.client.Complete(ctx, s.cfg, messages)
	if err != nil {
		log.Printf("answer synthesis failed: %v", err)
		return fmt.Sprintf("Sorry, I encountered an error while generating the answer: %v", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = "The model returned an empty response."
	}
	return answer
}
