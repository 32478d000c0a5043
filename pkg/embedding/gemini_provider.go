package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1"

type GeminiProvider struct {
	ApiKey   string
	Model    string
	BaseURL  string
	TaskType string
	Client   *http.Client
}

func NewGeminiProvider(apiKey string, model string) *GeminiProvider {
	if model == "" {
		model = "text-embedding-004"
	}
	return &GeminiProvider{
		ApiKey:   apiKey,
		Model:    model,
		BaseURL:  geminiBaseURL,
		TaskType: "RETRIEVAL_DOCUMENT",
		Client:   &http.Client{},
	}
}

func (p *GeminiProvider) Name() string {
	return "gemini/" + p.Model
}

func (p *GeminiProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	batch := BatchEmbeddingRequest{
		Requests: make([]EmbeddingRequest, len(texts)),
	}
	for i, text := range texts {
		batch.Requests[i] = EmbeddingRequest{
			Model: "models/" + p.Model,
			Content: EmbeddingRequestContent{
				Parts: []EmbeddingRequestContentPart{{Text: text}},
			},
			TaskType: p.TaskType,
		}
	}

	geminiReqJson, err := json.Marshal(batch)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:batchEmbedContents", p.BaseURL, p.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(geminiReqJson))
	if err != nil {
		return nil, err
	}

	req.Header.Set("x-goog-api-key", p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error from gemini response, code %d, body %s", res.StatusCode, string(resByte))
	}

	var resEmbedding BatchEmbeddingResponse
	if err := json.Unmarshal(resByte, &resEmbedding); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(resEmbedding.Embeddings))
	for i, e := range resEmbedding.Embeddings {
		vectors[i] = NormalizeVector(e.Values)
	}
	return vectors, nil
}
