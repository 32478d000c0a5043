package embedding

import (
	"context"
	"fmt"
	"strings"

	"yt-chatbot-be/internal/pkg/logger"
)

// EmbeddingError stops an ingestion: without vectors there is nothing to answer from.
type EmbeddingError struct {
	Reason string
	Err    error
}

func (e *EmbeddingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embedding error: %s: %v", e.Reason, e.Err)
	}
	return "embedding error: " + e.Reason
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// ChunkMetadata is stored next to every chunk vector.
type ChunkMetadata struct {
	VideoId string `json:"video_id"`
	ChunkId int    `json:"chunk_id"`
}

func (m ChunkMetadata) Map() map[string]interface{} {
	return map[string]interface{}{
		"video_id": m.VideoId,
		"chunk_id": m.ChunkId,
	}
}

// EmbeddedChunks holds three position-aligned slices.
type EmbeddedChunks struct {
	Texts     []string
	Vectors   [][]float32
	Metadatas []ChunkMetadata
}

func (e *EmbeddedChunks) Dimension() int {
	if len(e.Vectors) == 0 {
		return 0
	}
	return len(e.Vectors[0])
}

func (e *EmbeddedChunks) MetadataMaps() []map[string]interface{} {
	maps := make([]map[string]interface{}, len(e.Metadatas))
	for i, m := range e.Metadatas {
		maps[i] = m.Map()
	}
	return maps
}

type Embedder struct {
	provider EmbeddingProvider
	logger   logger.ILogger
}

func NewEmbedder(provider EmbeddingProvider, log logger.ILogger) *Embedder {
	return &Embedder{
		provider: provider,
		logger:   log,
	}
}

func (e *Embedder) ProviderName() string {
	return e.provider.Name()
}

// EmbedChunks trims chunks, drops blank ones, and embeds the rest. Chunk ids
// index the filtered list, so texts, vectors and metadata stay aligned.
func (e *Embedder) EmbedChunks(ctx context.Context, chunks []string, videoId string) (*EmbeddedChunks, error) {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if t := strings.TrimSpace(c); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return nil, &EmbeddingError{Reason: "no valid text chunks found"}
	}

	vectors, err := e.provider.Embed(ctx, texts)
	if err != nil {
		e.logger.Error("EMBEDDING", "Embedding provider failed", map[string]interface{}{
			"video_id": videoId,
			"provider": e.provider.Name(),
			"error":    err.Error(),
		})
		return nil, &EmbeddingError{Reason: "provider failed", Err: err}
	}
	if len(vectors) != len(texts) {
		return nil, &EmbeddingError{Reason: fmt.Sprintf("embedding count mismatch: %d vs %d", len(vectors), len(texts))}
	}

	metas := make([]ChunkMetadata, len(texts))
	for i := range texts {
		metas[i] = ChunkMetadata{VideoId: videoId, ChunkId: i}
		vectors[i] = NormalizeVector(vectors[i])
	}

	e.logger.Info("EMBEDDING", "Chunks embedded", map[string]interface{}{
		"video_id":  videoId,
		"chunks":    len(texts),
		"dropped":   len(chunks) - len(texts),
		"dimension": len(vectors[0]),
	})

	return &EmbeddedChunks{
		Texts:     texts,
		Vectors:   vectors,
		Metadatas: metas,
	}, nil
}

// EmbedQuery embeds a single question for similarity search.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.provider.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, &EmbeddingError{Reason: fmt.Sprintf("expected 1 query vector, got %d", len(vectors))}
	}
	return NormalizeVector(vectors[0]), nil
}
