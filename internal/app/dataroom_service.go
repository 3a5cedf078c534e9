package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"dataroom-chatbot/internal/ai"
	"dataroom-chatbot/internal/config"
	"dataroom-chatbot/internal/index"
	"dataroom-chatbot/internal/ingest"
	"dataroom-chatbot/internal/model"
	"dataroom-chatbot/internal/rag"
	"dataroom-chatbot/internal/repository"
)

var (
	// ErrNoContent means documents were supplied but none yielded a chunk.
	ErrNoContent = errors.New("documents produced no indexable chunks")

	// ErrNoSource means no acquisition source is configured.
	ErrNoSource = errors.New("no document source configured")
)

// User-facing fallbacks for states where no grounded answer is possible.
const (
	noIndexAnswer   = "I don't have access to any documents yet. Please update the dataroom first."
	noContextAnswer = "I couldn't find any relevant information in the dataroom to answer your question."
)

// DataroomService owns the retrieval-augmented answering pipeline: rebuild
// the index from acquired documents, answer questions against the published
// snapshot, report index status.
type DataroomService struct {
	manager     *index.Manager
	chunker     *index.Chunker
	source      ingest.Source
	docRepo     *repository.DocumentRepository
	embedClient rag.EmbeddingClient
	embCfg      ai.EmbeddingConfig
	planner     *rag.Planner
	retriever   *rag.Retriever
	reranker    *rag.Reranker
	synthesizer *rag.Synthesizer

	// Rebuilds are single-writer; readers go through the manager's
	// immutable snapshot and never block.
	rebuildMu sync.Mutex
}

func NewDataroomService(
	manager *index.Manager,
	chunker *index.Chunker,
	source ingest.Source,
	docRepo *repository.DocumentRepository,
	completionClient rag.CompletionClient,
	chatCfg ai.ChatConfig,
	embedClient rag.EmbeddingClient,
	embCfg ai.EmbeddingConfig,
	indexCfg config.IndexConfig,
) *DataroomService {
	// Planner and reranker replies are short and structured; keep them on a
	// tighter token budget than the answer itself.
	plannerCfg := chatCfg
	plannerCfg.MaxTokens = 300
	rerankCfg := chatCfg
	rerankCfg.MaxTokens = 100

	return &DataroomService{
		manager:     manager,
		chunker:     chunker,
		source:      source,
		docRepo:     docRepo,
		embedClient: embedClient,
		embCfg:      embCfg,
		planner:     rag.NewPlanner(completionClient, plannerCfg),
		retriever:   rag.NewRetriever(embedClient, embCfg, indexCfg.TopK, indexCfg.MinScore),
		reranker:    rag.NewReranker(completionClient, rerankCfg),
		synthesizer: rag.NewSynthesizer(completionClient, chatCfg),
	}
}

// RebuildResult reports what a full index rebuild produced.
type RebuildResult struct {
	ChunksIndexed int `json:"chunks_indexed"`
	FilesIndexed  int `json:"files_indexed"`
}

// IndexStatus reports whether a complete snapshot is persisted and how many
// distinct files it covers.
type IndexStatus struct {
	Exists    bool `json:"exists"`
	FileCount int  `json:"file_count"`
}

// RefreshDataroom acquires the current document set from the configured
// source and rebuilds the index from it.
func (s *DataroomService) RefreshDataroom(ctx context.Context) (*RebuildResult, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	docs, err := s.source.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	return s.RebuildIndex(ctx, docs)
}

// RebuildIndex chunks and embeds the given documents into a brand-new
// snapshot and atomically replaces the published one. Fails with
// ErrNoContent when every document chunks to nothing; a failure partway
// leaves the previously-serving snapshot untouched.
func (s *DataroomService) RebuildIndex(ctx context.Context, docs []ingest.Document) (*RebuildResult, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	var chunks []index.Chunk
	var texts []string
	var catalog []model.Document

	for _, doc := range docs {
		parts := s.chunker.Split(doc.Content)
		for i, text := range parts {
			chunks = append(chunks, index.Chunk{
				FileID:         doc.ID,
				FileName:       doc.Name,
				ChunkIndex:     i,
				Text:           text,
				MimeType:       doc.MimeType,
				ModifiedTime:   doc.ModifiedTime,
				ContextLevel:   index.ClassifyContextLevel(text),
				SectionHeading: index.ExtractHeading(text),
				KeyEntities:    index.ExtractEntities(text),
			})
			texts = append(texts, text)
		}
		if len(parts) > 0 {
			catalog = append(catalog, model.Document{
				FileID:       doc.ID,
				Name:         doc.Name,
				MimeType:     doc.MimeType,
				ModifiedTime: doc.ModifiedTime,
				ChunkCount:   len(parts),
			})
		}
	}
	if len(chunks) == 0 {
		return nil, ErrNoContent
	}

	log.Printf("rebuilding index: %d chunks from %d files", len(chunks), len(catalog))

	vectors, err := s.embedClient.EmbedBatch(ctx, s.embCfg, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks failed: %w", err)
	}

	snap, err := index.Build(s.manager.Dimension(), vectors, chunks)
	if err != nil {
		return nil, err
	}
	if _, err := s.manager.Publish(ctx, snap); err != nil {
		return nil, err
	}

	if s.docRepo != nil {
		// The catalog is informational; a write failure must not undo a
		// successfully published snapshot.
		if err := s.docRepo.ReplaceAll(catalog); err != nil {
			log.Printf("update document catalog failed: %v", err)
		}
	}

	return &RebuildResult{
		ChunksIndexed: len(chunks),
		FilesIndexed:  snap.FileCount(),
	}, nil
}

// AnswerQuestion runs the full funnel: plan, retrieve, rerank, synthesize.
// History is read-only and optional. A missing index or empty retrieval
// yields a plain-language answer with no sources, not an error.
func (s *DataroomService) AnswerQuestion(ctx context.Context, question string, history []ai.ChatMessage) (string, []string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, ErrInvalidInput
	}

	snap := s.manager.Current()
	if snap == nil {
		if err := s.manager.LoadCurrent(ctx); err != nil {
			// An index persisted under a different embedding dimension is as
			// unusable as no index; both get the conversational fallback.
			if errors.Is(err, index.ErrIndexNotFound) || errors.Is(err, index.ErrDimensionMismatch) {
				return noIndexAnswer, []string{}, nil
			}
			return "", nil, err
		}
		snap = s.manager.Current()
	}

	intent := s.planner.ClassifyIntent(ctx, question)
	variants := s.planner.ExpandQuery(ctx, question, intent)

	chunks, sources, err := s.retriever.Retrieve(ctx, snap, variants)
	if err != nil {
		return "", nil, err
	}
	if len(chunks) == 0 {
		return noContextAnswer, []string{}, nil
	}

	chunks = s.reranker.Rerank(ctx, question, chunks)
	answer := s.synthesizer.Synthesize(ctx, question, chunks, history)
	return answer, sources, nil
}

// Status reports index existence and file count from the persisted snapshot.
func (s *DataroomService) Status(ctx context.Context) (*IndexStatus, error) {
	exists, err := s.manager.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &IndexStatus{}, nil
	}

	if s.manager.Current() == nil {
		if err := s.manager.LoadCurrent(ctx); err != nil {
			return nil, err
		}
	}
	return &IndexStatus{
		Exists:    true,
		FileCount: s.manager.Current().FileCount(),
	}, nil
}
