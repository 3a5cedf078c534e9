package index

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"path"
	"sync/atomic"

	"github.com/google/uuid"

	"dataroom-chatbot/internal/blobstore"
)

const (
	vectorsMagic = uint32(0x44525658) // "DRVX"

	currentKey  = "current"
	vectorsFile = "vectors.bin"
	chunksFile  = "chunks.json"
)

// Manager owns the currently-published snapshot and its persistence. Every
// rebuild writes a brand-new artifact pair under a fresh handle and flips the
// current pointer only after both writes succeed, so readers never observe a
// half-written index and a failed rebuild leaves the serving snapshot intact.
type Manager struct {
	store   blobstore.Store
	dim     int
	current atomic.Pointer[Snapshot]
}

func NewManager(store blobstore.Store, dim int) *Manager {
	return &Manager{store: store, dim: dim}
}

// Current returns the published snapshot, or nil when none has been loaded.
// Snapshots are immutable, so no locking is needed on the read path.
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}

// Dimension returns the embedding width the manager expects.
func (m *Manager) Dimension() int {
	return m.dim
}

// Publish persists the snapshot under a fresh handle, repoints the current
// marker and swaps the in-memory snapshot. Returns the new handle.
func (m *Manager) Publish(ctx context.Context, snap *Snapshot) (string, error) {
	handle := uuid.NewString()

	if err := m.store.Write(ctx, path.Join(handle, vectorsFile), encodeVectors(snap)); err != nil {
		return "", fmt.Errorf("persist vectors failed: %w", err)
	}
	chunkBytes, err := json.Marshal(snap.chunks)
	if err != nil {
		return "", fmt.Errorf("marshal chunk metadata failed: %w", err)
	}
	if err := m.store.Write(ctx, path.Join(handle, chunksFile), chunkBytes); err != nil {
		return "", fmt.Errorf("persist chunk metadata failed: %w", err)
	}

	// The pointer flip is the commit point.
	if err := m.store.Write(ctx, currentKey, []byte(handle)); err != nil {
		return "", fmt.Errorf("repoint current snapshot failed: %w", err)
	}

	m.current.Store(snap)
	log.Printf("published index snapshot %s (%d chunks, %d files)", handle, snap.Len(), snap.FileCount())
	return handle, nil
}

// Load reads the artifact pair behind the given handle. Vector values round-
// trip byte-exact; no renormalization happens on load.
func (m *Manager) Load(ctx context.Context, handle string) (*Snapshot, error) {
	vecBytes, err := m.store.Read(ctx, path.Join(handle, vectorsFile))
	if errors.Is(err, blobstore.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: handle %s", ErrIndexNotFound, handle)
	}
	if err != nil {
		return nil, fmt.Errorf("read vectors failed: %w", err)
	}

	chunkBytes, err := m.store.Read(ctx, path.Join(handle, chunksFile))
	if errors.Is(err, blobstore.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: handle %s", ErrIndexNotFound, handle)
	}
	if err != nil {
		return nil, fmt.Errorf("read chunk metadata failed: %w", err)
	}

	dim, vectors, err := decodeVectors(vecBytes)
	if err != nil {
		return nil, err
	}
	if dim != m.dim {
		return nil, fmt.Errorf("%w: stored dim %d, configured %d", ErrDimensionMismatch, dim, m.dim)
	}

	var chunks []Chunk
	if err := json.Unmarshal(chunkBytes, &chunks); err != nil {
		return nil, fmt.Errorf("unmarshal chunk metadata failed: %w", err)
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: %d vectors vs %d chunks in snapshot %s",
			ErrDimensionMismatch, len(vectors), len(chunks), handle)
	}

	return &Snapshot{dim: dim, vectors: vectors, chunks: chunks}, nil
}

// LoadCurrent resolves the current pointer and swaps the referenced snapshot
// in. Returns ErrIndexNotFound when no snapshot has ever been published.
func (m *Manager) LoadCurrent(ctx context.Context) error {
	handleBytes, err := m.store.Read(ctx, currentKey)
	if errors.Is(err, blobstore.ErrKeyNotFound) {
		return ErrIndexNotFound
	}
	if err != nil {
		return fmt.Errorf("read current snapshot pointer failed: %w", err)
	}

	snap, err := m.Load(ctx, string(bytes.TrimSpace(handleBytes)))
	if err != nil {
		return err
	}
	m.current.Store(snap)
	return nil
}

// Exists reports whether a complete snapshot (both artifacts) is persisted
// behind the current pointer.
func (m *Manager) Exists(ctx context.Context) (bool, error) {
	handleBytes, err := m.store.Read(ctx, currentKey)
	if errors.Is(err, blobstore.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read current snapshot pointer failed: %w", err)
	}
	handle := string(bytes.TrimSpace(handleBytes))

	for _, name := range []string{vectorsFile, chunksFile} {
		ok, err := m.store.Exists(ctx, path.Join(handle, name))
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// encodeVectors lays vectors out as a fixed header (magic, dim, count)
// followed by row-major little-endian float32 bits.
func encodeVectors(snap *Snapshot) []byte {
	buf := make([]byte, 12+4*snap.dim*len(snap.vectors))
	binary.LittleEndian.PutUint32(buf[0:4], vectorsMagic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(snap.dim))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(snap.vectors)))
	off := 12
	for _, v := range snap.vectors {
		for _, x := range v {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(x))
			off += 4
		}
	}
	return buf
}

func decodeVectors(data []byte) (int, [][]float32, error) {
	if len(data) < 12 {
		return 0, nil, fmt.Errorf("vector blob truncated: %d bytes", len(data))
	}
	if binary.LittleEndian.Uint32(data[0:4]) != vectorsMagic {
		return 0, nil, fmt.Errorf("vector blob has wrong magic")
	}
	dim := int(binary.LittleEndian.Uint32(data[4:8]))
	count := int(binary.LittleEndian.Uint32(data[8:12]))
	if dim <= 0 || count < 0 {
		return 0, nil, fmt.Errorf("vector blob has invalid header: dim=%d count=%d", dim, count)
	}
	want := 12 + 4*dim*count
	if len(data) != want {
		return 0, nil, fmt.Errorf("vector blob size mismatch: have %d bytes, want %d", len(data), want)
	}

	vectors := make([][]float32, count)
	off := 12
	for i := range vectors {
		row := make([]float32, dim)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		vectors[i] = row
	}
	return dim, vectors, nil
}
