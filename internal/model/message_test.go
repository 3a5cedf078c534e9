package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageSourceRoundTrip(t *testing.T) {
	var m Message
	m.SetSources([]string{"Fund.txt", "Deck.pdf"})

	assert.Equal(t, []string{"Fund.txt", "Deck.pdf"}, m.SourceNames())
}

func TestMessageSourcesEmpty(t *testing.T) {
	var m Message

	assert.Nil(t, m.SourceNames())

	m.SetSources(nil)
	assert.Empty(t, m.Sources)
}

func TestMessageSourcesMalformed(t *testing.T) {
	m := Message{Sources: "{broken"}

	assert.Nil(t, m.SourceNames())
}
