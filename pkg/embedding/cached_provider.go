package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedProvider memoizes vectors per text for the life of the process, so
// the same text always maps to the same vector and is only sent to the
// model once.
type CachedProvider struct {
	inner EmbeddingProvider
	cache *cache.Cache
}

var _ EmbeddingProvider = &CachedProvider{}

func NewCachedProvider(inner EmbeddingProvider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &CachedProvider{
		inner: inner,
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

func (p *CachedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if v, found := p.cache.Get(p.key(text)); found {
			vectors[i] = v.([]float32)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	fresh, err := p.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	// Nothing is cached from a misaligned answer.
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embedding count mismatch: %d vs %d", len(fresh), len(missing))
	}

	for j, vec := range fresh {
		vectors[missingIdx[j]] = vec
		p.cache.Set(p.key(missing[j]), vec, cache.DefaultExpiration)
	}
	return vectors, nil
}

func (p *CachedProvider) key(text string) string {
	sum := sha256.Sum256([]byte(p.inner.Name() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
