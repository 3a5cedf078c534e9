package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataroom-chatbot/internal/ai"
)

func TestSynthesizePromptLayout(t *testing.T) {
	client := &fakeCompletion{reply: "The fund size is $50M."}
	s := NewSynthesizer(client, ai.ChatConfig{})

	answer := s.Synthesize(context.Background(), "What is the fund size?",
		[]string{"chunk one", "chunk two"},
		[]ai.ChatMessage{{Role: "user", Content: "earlier question"}})

	assert.Equal(t, "The fund size is $50M.", answer)
	require.Len(t, client.prompts, 1)
	messages := client.prompts[0]
	require.Len(t, messages, 3)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "earlier question", messages[1].Content)
	assert.Contains(t, messages[2].Content, "chunk one\n\nchunk two")
	assert.Contains(t, messages[2].Content, "What is the fund size?")
}

func TestSynthesizeTrimsHistoryWithoutMutation(t *testing.T) {
	client := &fakeCompletion{reply: "ok"}
	s := NewSynthesizer(client, ai.ChatConfig{})

	history := make([]ai.ChatMessage, 25)
	for i := range history {
		history[i] = ai.ChatMessage{Role: "user", Content: fmt.Sprintf("turn %d", i)}
	}

	s.Synthesize(context.Background(), "q", []string{"ctx"}, history)

	require.Len(t, client.prompts, 1)
	messages := client.prompts[0]
	// system + last 10 turns + question
	require.Len(t, messages, MaxHistoryTurns+2)
	assert.Equal(t, "turn 15", messages[1].Content)
	assert.Len(t, history, 25)
}

func TestSynthesizeErrorBecomesApology(t *testing.T) {
	client := &fakeCompletion{err: errors.New("model offline")}
	s := NewSynthesizer(client, ai.ChatConfig{})

	answer := s.Synthesize(context.Background(), "q", []string{"ctx"}, nil)

	assert.Contains(t, answer, "Sorry, I encountered an error")
	assert.Contains(t, answer, "model offline")
}

func TestSynthesizeEmptyReply(t *testing.T) {
	client := &fakeCompletion{reply: "   \n"}
	s := NewSynthesizer(client, ai.ChatConfig{})

	answer := s.Synthesize(context.Background(), "q", []string{"ctx"}, nil)

	assert.Equal(t, "The model returned an empty response.", answer)
}
