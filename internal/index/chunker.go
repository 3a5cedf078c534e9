package index

import "unicode"

const (
	DefaultChunkSize    = 300
	DefaultChunkOverlap = 50

	// How many tokens to walk back from a raw cut looking for a sentence end.
	sentenceLookback = 20
)

// Chunker splits document text into overlapping token-bounded passages.
// Tokens are whitespace-delimited runs; chunk text is always an exact
// substring of the input, so newlines and spacing survive into the chunk.
type Chunker struct {
	chunkSize int
	overlap   int
}

func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

type tokenSpan struct {
	start int
	end   int
}

// Split returns the chunk texts for the given document text. Empty and
// whitespace-only input yields no chunks. Each window advances by
// chunkSize-overlap tokens, so termination is guaranteed.
func (c *Chunker) Split(text string) []string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(tokens) {
		end := start + c.chunkSize
		if end >= len(tokens) {
			end = len(tokens)
		} else {
			end = c.cutPoint(text, tokens, start, end)
		}
		chunks = append(chunks, text[tokens[start].start:tokens[end-1].end])
		if end == len(tokens) {
			break
		}
		start = end - c.overlap
	}
	return chunks
}

// cutPoint backs off from the raw window end looking for a token that closes
// a sentence, so chunks end on natural boundaries when one is nearby. The
// raw end is kept when no terminator is found, or when backing off would
// stall the window.
func (c *Chunker) cutPoint(text string, tokens []tokenSpan, start, end int) int {
	lowest := end - sentenceLookback
	if lowest <= start+c.overlap {
		lowest = start + c.overlap + 1
	}
	for j := end; j >= lowest; j-- {
		if closesSentence(text, tokens, j-1) {
			return j
		}
	}
	return end
}

// closesSentence reports whether token i ends with a sentence terminator or
// is followed by a line break.
func closesSentence(text string, tokens []tokenSpan, i int) bool {
	tok := tokens[i]
	switch text[tok.end-1] {
	case '.', '!', '?':
		return true
	}
	if i+1 < len(tokens) {
		for _, b := range []byte(text[tok.end:tokens[i+1].start]) {
			if b == '\n' {
				return true
			}
		}
	}
	return false
}

func tokenize(text string) []tokenSpan {
	var spans []tokenSpan
	inToken := false
	start := 0
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inToken {
				spans = append(spans, tokenSpan{start: start, end: i})
				inToken = false
			}
			continue
		}
		if !inToken {
			start = i
			inToken = true
		}
	}
	if inToken {
		spans = append(spans, tokenSpan{start: start, end: len(text)})
	}
	return spans
}
