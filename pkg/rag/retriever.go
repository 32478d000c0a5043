package rag

import (
	"context"
	"sync"

	"yt-chatbot-be/pkg/vectorstore"
)

// QueryEmbedder turns a question into a query vector.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// Retriever finds the chunks nearest to a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]vectorstore.Match, error)
}

// VectorRetriever searches the working partition of the managed index. The
// index handle is opened on first use and kept.
type VectorRetriever struct {
	embedder QueryEmbedder
	manager  *vectorstore.Manager

	mu    sync.Mutex
	index vectorstore.Index
}

var _ Retriever = &VectorRetriever{}

func NewVectorRetriever(embedder QueryEmbedder, manager *vectorstore.Manager) *VectorRetriever {
	return &VectorRetriever{
		embedder: embedder,
		manager:  manager,
	}
}

// SetIndex hands over the handle ingestion already opened.
func (r *VectorRetriever) SetIndex(idx vectorstore.Index) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = idx
}

func (r *VectorRetriever) Retrieve(ctx context.Context, query string, topK int) ([]vectorstore.Match, error) {
	idx, err := r.openIndex(ctx)
	if err != nil {
		return nil, err
	}
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.manager.Query(ctx, idx, vector, topK)
}

func (r *VectorRetriever) openIndex(ctx context.Context) (vectorstore.Index, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index != nil {
		return r.index, nil
	}
	idx, err := r.manager.OpenIndex(ctx)
	if err != nil {
		return nil, err
	}
	r.index = idx
	return idx, nil
}
