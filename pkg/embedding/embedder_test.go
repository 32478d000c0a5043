package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"yt-chatbot-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	inner EmbeddingProvider
	calls int
	texts []string
}

func (c *countingProvider) Name() string { return c.inner.Name() }

func (c *countingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls++
	c.texts = append(c.texts, texts...)
	return c.inner.Embed(ctx, texts)
}

type brokenProvider struct {
	vectors [][]float32
	err     error
}

func (b *brokenProvider) Name() string { return "broken" }

func (b *brokenProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return b.vectors, b.err
}

func TestEmbedChunksFiltersAndAligns(t *testing.T) {
	e := NewEmbedder(NewHashProvider(64), logger.NewNopLogger())

	out, err := e.EmbedChunks(context.Background(), []string{"  first chunk ", "", "   ", "second chunk"}, "abc12345678")
	require.NoError(t, err)

	assert.Equal(t, []string{"first chunk", "second chunk"}, out.Texts)
	require.Len(t, out.Vectors, 2)
	assert.Equal(t, 64, out.Dimension())
	assert.Equal(t, []ChunkMetadata{
		{VideoId: "abc12345678", ChunkId: 0},
		{VideoId: "abc12345678", ChunkId: 1},
	}, out.Metadatas)
	assert.Equal(t, map[string]interface{}{"video_id": "abc12345678", "chunk_id": 1}, out.MetadataMaps()[1])

	for _, v := range out.Vectors {
		assert.InDelta(t, 1.0, norm(v), 1e-5)
	}
}

func TestEmbedChunksAllBlank(t *testing.T) {
	e := NewEmbedder(NewHashProvider(8), logger.NewNopLogger())

	_, err := e.EmbedChunks(context.Background(), []string{" ", "\n\t", ""}, "abc12345678")

	var embErr *EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Contains(t, err.Error(), "no valid text chunks")
}

func TestEmbedChunksCountMismatch(t *testing.T) {
	e := NewEmbedder(&brokenProvider{vectors: [][]float32{{1, 0}}}, logger.NewNopLogger())

	_, err := e.EmbedChunks(context.Background(), []string{"a", "b"}, "abc12345678")

	var embErr *EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Contains(t, err.Error(), "count mismatch: 1 vs 2")
}

func TestEmbedChunksProviderFailure(t *testing.T) {
	cause := errors.New("model offline")
	e := NewEmbedder(&brokenProvider{err: cause}, logger.NewNopLogger())

	_, err := e.EmbedChunks(context.Background(), []string{"a"}, "abc12345678")

	var embErr *EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.ErrorIs(t, err, cause)
}

func TestEmbeddingIsIdempotent(t *testing.T) {
	counter := &countingProvider{inner: NewHashProvider(128)}
	e := NewEmbedder(NewCachedProvider(counter, 0), logger.NewNopLogger())

	first, err := e.EmbedQuery(context.Background(), "What is this video about?")
	require.NoError(t, err)
	second, err := e.EmbedQuery(context.Background(), "What is this video about?")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.InDelta(t, 1.0, CosineSimilarity(first, second), 1e-9)
	assert.Equal(t, 1, counter.calls)
}

func TestCachedProviderOnlyEmbedsMissingTexts(t *testing.T) {
	counter := &countingProvider{inner: NewHashProvider(16)}
	p := NewCachedProvider(counter, 0)

	_, err := p.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	out, err := p.Embed(context.Background(), []string{"beta", "gamma", "alpha"})
	require.NoError(t, err)

	assert.Equal(t, 2, counter.calls)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, counter.texts)
	require.Len(t, out, 3)
	direct, _ := NewHashProvider(16).Embed(context.Background(), []string{"beta", "gamma", "alpha"})
	assert.Equal(t, direct, out)
}

func TestHashProviderKeywordSimilarity(t *testing.T) {
	p := NewHashProvider(384)
	vecs, err := p.Embed(context.Background(), []string{
		"cats are small furry animals",
		"tell me about cats",
		"quarterly revenue grew by ten percent",
	})
	require.NoError(t, err)

	assert.Greater(t, CosineSimilarity(vecs[0], vecs[1]), CosineSimilarity(vecs[2], vecs[1]))
}

func TestNormalizeVector(t *testing.T) {
	assert.Equal(t, []float32{0.6, 0.8}, NormalizeVector([]float32{3, 4}))
	assert.Equal(t, []float32{0, 0}, NormalizeVector([]float32{0, 0}))
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

type fixedCountProvider struct {
	inner EmbeddingProvider
	n     int
	armed bool
}

func (f *fixedCountProvider) Name() string { return f.inner.Name() }

func (f *fixedCountProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if !f.armed {
		return f.inner.Embed(ctx, texts)
	}
	out := make([][]float32, f.n)
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func TestCachedProviderRejectsMisalignedBatch(t *testing.T) {
	inner := &fixedCountProvider{inner: NewHashProvider(3), n: 3}
	p := NewCachedProvider(inner, 0)
	_, err := p.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)

	// "a" is cached, so the provider is asked for two texts and answers with three.
	inner.armed = true
	e := NewEmbedder(p, logger.NewNopLogger())
	_, err = e.EmbedChunks(context.Background(), []string{"a", "b", "c"}, "abc12345678")

	var embErr *EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Contains(t, err.Error(), "count mismatch: 3 vs 2")

	// Nothing from the bad batch was cached.
	inner.armed = false
	out, err := p.Embed(context.Background(), []string{"b"})
	require.NoError(t, err)
	direct, _ := NewHashProvider(3).Embed(context.Background(), []string{"b"})
	assert.Equal(t, direct, out)
}
