// Package memory is an in-process vector backend for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"yt-chatbot-be/pkg/embedding"
	"yt-chatbot-be/pkg/vectorstore"
)

type Service struct {
	mu      sync.Mutex
	indexes map[string]*Index

	// ReadyAfter makes a new index report not-ready for that many describes.
	ReadyAfter int
	pending    map[string]int
}

var _ vectorstore.IndexService = &Service{}

func NewService() *Service {
	return &Service{
		indexes: make(map[string]*Index),
		pending: make(map[string]int),
	}
}

func (s *Service) ListIndexes(ctx context.Context) ([]vectorstore.IndexDescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]vectorstore.IndexDescription, 0, len(s.indexes))
	for _, idx := range s.indexes {
		out = append(out, s.describe(idx))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Service) CreateIndex(ctx context.Context, spec vectorstore.IndexSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indexes[spec.Name]; ok {
		return fmt.Errorf("index %s already exists", spec.Name)
	}
	if spec.Dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", spec.Dimension)
	}
	s.indexes[spec.Name] = newIndex(spec.Name, spec.Dimension)
	s.pending[spec.Name] = s.ReadyAfter
	return nil
}

func (s *Service) DescribeIndex(ctx context.Context, name string) (*vectorstore.IndexDescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indexes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrIndexNotFound, name)
	}
	desc := s.describe(idx)
	if s.pending[name] > 0 {
		s.pending[name]--
	}
	return &desc, nil
}

func (s *Service) Index(ctx context.Context, name string) (vectorstore.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indexes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrIndexNotFound, name)
	}
	return idx, nil
}

func (s *Service) describe(idx *Index) vectorstore.IndexDescription {
	return vectorstore.IndexDescription{
		Name:      idx.name,
		Dimension: idx.dimension,
		Metric:    vectorstore.MetricCosine,
		Ready:     s.pending[idx.name] == 0,
	}
}

type Index struct {
	mu         sync.RWMutex
	name       string
	dimension  int
	namespaces map[string]map[string]vectorstore.Record
}

func newIndex(name string, dimension int) *Index {
	return &Index{
		name:       name,
		dimension:  dimension,
		namespaces: make(map[string]map[string]vectorstore.Record),
	}
}

func (i *Index) Upsert(ctx context.Context, namespace string, records []vectorstore.Record) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, r := range records {
		if len(r.Values) != i.dimension {
			return 0, fmt.Errorf("record %s has dimension %d, index expects %d", r.Id, len(r.Values), i.dimension)
		}
	}

	ns, ok := i.namespaces[namespace]
	if !ok {
		ns = make(map[string]vectorstore.Record)
		i.namespaces[namespace] = ns
	}
	for _, r := range records {
		values := make([]float32, len(r.Values))
		copy(values, r.Values)
		ns[r.Id] = vectorstore.Record{Id: r.Id, Values: values, Metadata: r.Metadata}
	}
	return len(records), nil
}

func (i *Index) DeleteAll(ctx context.Context, namespace string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.namespaces[namespace]) == 0 {
		return vectorstore.ErrNamespaceNotFound
	}
	delete(i.namespaces, namespace)
	return nil
}

func (i *Index) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]vectorstore.Match, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if len(vector) != i.dimension {
		return nil, fmt.Errorf("query dimension %d, index expects %d", len(vector), i.dimension)
	}

	matches := make([]vectorstore.Match, 0, len(i.namespaces[namespace]))
	for _, r := range i.namespaces[namespace] {
		matches = append(matches, vectorstore.Match{
			Id:       r.Id,
			Score:    embedding.CosineSimilarity(vector, r.Values),
			Metadata: r.Metadata,
		})
	}
	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Score == matches[b].Score {
			return matches[a].Id < matches[b].Id
		}
		return matches[a].Score > matches[b].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Count returns the number of records in a partition.
func (i *Index) Count(namespace string) int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.namespaces[namespace])
}
