package vectorstore

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNamespaceNotFound is returned by DeleteAll when the partition holds nothing.
	ErrNamespaceNotFound = errors.New("namespace not found")
	// ErrIndexNotReady is returned when a new index does not become ready in time.
	ErrIndexNotReady = errors.New("index not ready")
	ErrIndexNotFound = errors.New("index not found")
)

const (
	MetricCosine = "cosine"

	// DefaultNamespace addresses the index's default partition.
	DefaultNamespace = ""
)

type IndexSpec struct {
	Name      string
	Dimension int
	Metric    string
	Cloud     string
	Region    string
}

type IndexDescription struct {
	Name      string
	Dimension int
	Metric    string
	Host      string
	Ready     bool
}

// Record is one stored chunk. Metadata carries video_id, chunk_id and text.
type Record struct {
	Id       string
	Values   []float32
	Metadata map[string]interface{}
}

type Match struct {
	Id       string
	Score    float64
	Metadata map[string]interface{}
}

// Text returns the chunk text stored in the match metadata.
func (m Match) Text() string {
	if s, ok := m.Metadata["text"].(string); ok {
		return s
	}
	return ""
}

// IndexService manages named indexes of a vector backend.
type IndexService interface {
	ListIndexes(ctx context.Context) ([]IndexDescription, error)
	CreateIndex(ctx context.Context, spec IndexSpec) error
	DescribeIndex(ctx context.Context, name string) (*IndexDescription, error)
	Index(ctx context.Context, name string) (Index, error)
}

// Index is a handle to one index.
type Index interface {
	Upsert(ctx context.Context, namespace string, records []Record) (int, error)
	DeleteAll(ctx context.Context, namespace string) error
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error)
}

// UpsertError reports a batch write that failed part way. Records before
// the failing batch are already stored.
type UpsertError struct {
	Batch   int
	Written int
	Err     error
}

func (e *UpsertError) Error() string {
	return fmt.Sprintf("upsert failed at batch %d after %d records: %v", e.Batch, e.Written, e.Err)
}

func (e *UpsertError) Unwrap() error {
	return e.Err
}

// RecordId builds the "{video_id}::{position}" record id.
func RecordId(videoId string, position int) string {
	return fmt.Sprintf("%s::%d", videoId, position)
}
