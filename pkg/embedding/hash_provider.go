package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// HashProvider is a model-free embedder: lower-cased words are hashed into
// a fixed number of buckets. Useful offline and with the memory vector
// store; retrieval quality is keyword overlap only.
type HashProvider struct {
	Dimension int
}

var _ EmbeddingProvider = &HashProvider{}

func NewHashProvider(dimension int) *HashProvider {
	if dimension <= 0 {
		dimension = 384
	}
	return &HashProvider{Dimension: dimension}
}

func (p *HashProvider) Name() string {
	return fmt.Sprintf("hash/%d", p.Dimension)
}

func (p *HashProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, p.Dimension)
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		for _, w := range words {
			h := fnv.New32a()
			_, _ = h.Write([]byte(w))
			vec[h.Sum32()%uint32(p.Dimension)]++
		}
		vectors[i] = NormalizeVector(vec)
	}
	return vectors, nil
}
