package bootstrap

import (
	"testing"

	"yt-chatbot-be/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingProviderDefaultModels(t *testing.T) {
	cases := []struct {
		provider string
		model    string
		want     string
	}{
		{provider: "ollama", want: "ollama/all-minilm"},
		{provider: "gemini", want: "gemini/text-embedding-004"},
		{provider: "jina", want: "jina/jina-embeddings-v2-small-en"},
		{provider: "hash", want: "hash/384"},
		{provider: "gemini", model: "gemini-embedding-001", want: "gemini/gemini-embedding-001"},
		{provider: "jina", model: "jina-embeddings-v3", want: "jina/jina-embeddings-v3"},
	}

	for _, tc := range cases {
		t.Run(tc.provider+"/"+tc.model, func(t *testing.T) {
			t.Setenv("EMBEDDING_PROVIDER", tc.provider)
			t.Setenv("EMBEDDING_MODEL", tc.model)
			t.Setenv("GOOGLE_GEMINI_API_KEY", "gemini-key")
			t.Setenv("JINA_API_KEY", "jina-key")

			p, err := newEmbeddingProvider(config.Load(), &Container{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, p.Name())
		})
	}
}

func TestEmbeddingProviderRequiresKeys(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "gemini")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "")
	_, err := newEmbeddingProvider(config.Load(), &Container{})
	assert.ErrorContains(t, err, "GOOGLE_GEMINI_API_KEY")

	t.Setenv("EMBEDDING_PROVIDER", "faiss")
	_, err = newEmbeddingProvider(config.Load(), &Container{})
	assert.ErrorContains(t, err, "unknown EMBEDDING_PROVIDER")
}
