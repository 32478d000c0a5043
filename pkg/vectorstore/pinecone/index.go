package pinecone

import (
	"context"
	"errors"
	"net/http"

	"yt-chatbot-be/pkg/vectorstore"
)

type Index struct {
	client *Client
	host   string
}

var _ vectorstore.Index = &Index{}

type vector struct {
	Id       string                 `json:"id"`
	Values   []float32              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []vector `json:"vectors"`
	Namespace string   `json:"namespace"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

type deleteRequest struct {
	DeleteAll bool   `json:"deleteAll"`
	Namespace string `json:"namespace"`
}

type queryRequest struct {
	Namespace       string    `json:"namespace"`
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		Id       string                 `json:"id"`
		Score    float64                `json:"score"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"matches"`
}

func (i *Index) Upsert(ctx context.Context, namespace string, records []vectorstore.Record) (int, error) {
	req := upsertRequest{
		Vectors:   make([]vector, len(records)),
		Namespace: namespace,
	}
	for k, r := range records {
		req.Vectors[k] = vector{Id: r.Id, Values: r.Values, Metadata: r.Metadata}
	}

	var res upsertResponse
	if err := i.client.do(ctx, http.MethodPost, i.host+"/vectors/upsert", req, &res); err != nil {
		return 0, err
	}
	return res.UpsertedCount, nil
}

func (i *Index) DeleteAll(ctx context.Context, namespace string) error {
	err := i.client.do(ctx, http.MethodPost, i.host+"/vectors/delete", deleteRequest{
		DeleteAll: true,
		Namespace: namespace,
	}, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return vectorstore.ErrNamespaceNotFound
	}
	return err
}

func (i *Index) Query(ctx context.Context, namespace string, vec []float32, topK int) ([]vectorstore.Match, error) {
	var res queryResponse
	err := i.client.do(ctx, http.MethodPost, i.host+"/query", queryRequest{
		Namespace:       namespace,
		Vector:          vec,
		TopK:            topK,
		IncludeMetadata: true,
	}, &res)
	if err != nil {
		return nil, err
	}

	matches := make([]vectorstore.Match, len(res.Matches))
	for k, m := range res.Matches {
		matches[k] = vectorstore.Match{Id: m.Id, Score: m.Score, Metadata: m.Metadata}
	}
	return matches, nil
}
