// Package pinecone talks to the Pinecone control and data plane REST APIs.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"yt-chatbot-be/pkg/vectorstore"
)

const (
	defaultControlURL = "https://api.pinecone.io"
	apiVersion        = "2024-07"
)

type Client struct {
	apiKey     string
	controlURL string
	httpClient *http.Client
}

var _ vectorstore.IndexService = &Client{}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		controlURL: defaultControlURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// WithControlURL points the client at another control plane.
func (c *Client) WithControlURL(u string) *Client {
	c.controlURL = strings.TrimRight(u, "/")
	return c
}

// APIError is a non-2xx answer from Pinecone.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pinecone api error (status %d): %s", e.StatusCode, e.Body)
}

type indexStatus struct {
	Ready bool   `json:"ready"`
	State string `json:"state"`
}

type indexModel struct {
	Name      string      `json:"name"`
	Dimension int         `json:"dimension"`
	Metric    string      `json:"metric"`
	Host      string      `json:"host"`
	Status    indexStatus `json:"status"`
}

func (m indexModel) description() vectorstore.IndexDescription {
	return vectorstore.IndexDescription{
		Name:      m.Name,
		Dimension: m.Dimension,
		Metric:    m.Metric,
		Host:      m.Host,
		Ready:     m.Status.Ready,
	}
}

type listIndexesResponse struct {
	Indexes []indexModel `json:"indexes"`
}

type serverlessSpec struct {
	Cloud  string `json:"cloud"`
	Region string `json:"region"`
}

type createIndexRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Spec      struct {
		Serverless serverlessSpec `json:"serverless"`
	} `json:"spec"`
}

func (c *Client) ListIndexes(ctx context.Context) ([]vectorstore.IndexDescription, error) {
	var res listIndexesResponse
	if err := c.do(ctx, http.MethodGet, c.controlURL+"/indexes", nil, &res); err != nil {
		return nil, err
	}
	out := make([]vectorstore.IndexDescription, len(res.Indexes))
	for i, m := range res.Indexes {
		out[i] = m.description()
	}
	return out, nil
}

func (c *Client) CreateIndex(ctx context.Context, spec vectorstore.IndexSpec) error {
	req := createIndexRequest{
		Name:      spec.Name,
		Dimension: spec.Dimension,
		Metric:    spec.Metric,
	}
	req.Spec.Serverless = serverlessSpec{Cloud: spec.Cloud, Region: spec.Region}
	return c.do(ctx, http.MethodPost, c.controlURL+"/indexes", req, nil)
}

func (c *Client) DescribeIndex(ctx context.Context, name string) (*vectorstore.IndexDescription, error) {
	var m indexModel
	err := c.do(ctx, http.MethodGet, c.controlURL+"/indexes/"+url.PathEscape(name), nil, &m)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", vectorstore.ErrIndexNotFound, name)
		}
		return nil, err
	}
	desc := m.description()
	return &desc, nil
}

// Index resolves the data plane host of an index.
func (c *Client) Index(ctx context.Context, name string) (vectorstore.Index, error) {
	desc, err := c.DescribeIndex(ctx, name)
	if err != nil {
		return nil, err
	}
	if desc.Host == "" {
		return nil, fmt.Errorf("index %s has no host yet", name)
	}
	return &Index{client: c, host: normalizeHost(desc.Host)}, nil
}

func normalizeHost(host string) string {
	host = strings.TrimRight(host, "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("X-Pinecone-API-Version", apiVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
