package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrDimensionMismatch covers both a vector of the wrong width and a
	// vectors/chunks length mismatch; either means the snapshot would be
	// structurally corrupt.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrIndexNotFound means no snapshot has been persisted yet.
	ErrIndexNotFound = errors.New("index not found")
)

// Chunk is the metadata record stored alongside each vector. The join key is
// positional: chunk i describes vector i.
type Chunk struct {
	FileID         string   `json:"file_id"`
	FileName       string   `json:"file_name"`
	ChunkIndex     int      `json:"chunk_index"`
	Text           string   `json:"chunk_text"`
	MimeType       string   `json:"mime_type"`
	ModifiedTime   string   `json:"modified_time,omitempty"`
	ContextLevel   string   `json:"context_level"`
	SectionHeading string   `json:"section_heading,omitempty"`
	KeyEntities    []string `json:"key_entities,omitempty"`
}

// SearchResult is one nearest-neighbor hit: the cosine score and the
// position of the matching chunk within the snapshot.
type SearchResult struct {
	Score    float32
	Position int
}

// Snapshot is an immutable (vectors, chunks) pair. Vectors are unit-norm, so
// inner product equals cosine similarity. A snapshot is never mutated after
// Build; the unit of replacement is the whole snapshot.
type Snapshot struct {
	dim     int
	vectors [][]float32
	chunks  []Chunk
}

// Build normalizes every vector to unit L2 norm and pairs it with its chunk.
// Fails with ErrDimensionMismatch when counts diverge or any vector does not
// match the configured dimension.
func Build(dim int, vectors [][]float32, chunks []Chunk) (*Snapshot, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dim)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: %d vectors vs %d chunks", ErrDimensionMismatch, len(vectors), len(chunks))
	}

	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d dims, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
		normalized[i] = Normalize(v)
	}

	stored := make([]Chunk, len(chunks))
	copy(stored, chunks)
	return &Snapshot{dim: dim, vectors: normalized, chunks: stored}, nil
}

// Search returns up to k results ordered by descending inner product. The
// query must already be unit-norm; scores land in [-1, 1]. Ties keep the
// lower position first.
func (s *Snapshot) Search(query []float32, k int) ([]SearchResult, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dims, want %d", ErrDimensionMismatch, len(query), s.dim)
	}
	if k <= 0 || len(s.vectors) == 0 {
		return nil, nil
	}

	results := make([]SearchResult, len(s.vectors))
	for i, v := range s.vectors {
		results[i] = SearchResult{Score: dot(v, query), Position: i}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Chunk returns the metadata at position i.
func (s *Snapshot) Chunk(i int) Chunk {
	return s.chunks[i]
}

// Len returns the number of indexed chunks.
func (s *Snapshot) Len() int {
	return len(s.chunks)
}

// Dimension returns the embedding width the snapshot was built with.
func (s *Snapshot) Dimension() int {
	return s.dim
}

// FileCount returns the number of distinct file IDs across the metadata.
func (s *Snapshot) FileCount() int {
	seen := make(map[string]struct{})
	for i := range s.chunks {
		seen[s.chunks[i].FileID] = struct{}{}
	}
	return len(seen)
}

// Normalize returns a unit-L2-norm copy of v. Zero vectors come back as a
// zero copy rather than NaN.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	norm := float32(math.Sqrt(sum))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
