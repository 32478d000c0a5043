// Package pgvector stores vectors in Postgres with the pgvector extension.
package pgvector

import (
	"context"
	"errors"
	"fmt"

	"yt-chatbot-be/pkg/vectorstore"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db *gorm.DB
}

var _ vectorstore.IndexService = &Service{}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func toDescription(m VectorIndex) vectorstore.IndexDescription {
	return vectorstore.IndexDescription{
		Name:      m.Name,
		Dimension: m.Dimension,
		Metric:    m.Metric,
		Ready:     true,
	}
}

func (s *Service) ListIndexes(ctx context.Context) ([]vectorstore.IndexDescription, error) {
	var models []VectorIndex
	if err := s.db.WithContext(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]vectorstore.IndexDescription, len(models))
	for i, m := range models {
		out[i] = toDescription(m)
	}
	return out, nil
}

func (s *Service) CreateIndex(ctx context.Context, spec vectorstore.IndexSpec) error {
	metric := spec.Metric
	if metric == "" {
		metric = vectorstore.MetricCosine
	}
	if metric != vectorstore.MetricCosine {
		return fmt.Errorf("unsupported metric %q", metric)
	}
	return s.db.WithContext(ctx).Create(&VectorIndex{
		Name:      spec.Name,
		Dimension: spec.Dimension,
		Metric:    metric,
	}).Error
}

func (s *Service) DescribeIndex(ctx context.Context, name string) (*vectorstore.IndexDescription, error) {
	var m VectorIndex
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", vectorstore.ErrIndexNotFound, name)
		}
		return nil, err
	}
	desc := toDescription(m)
	return &desc, nil
}

func (s *Service) Index(ctx context.Context, name string) (vectorstore.Index, error) {
	desc, err := s.DescribeIndex(ctx, name)
	if err != nil {
		return nil, err
	}
	return &Index{db: s.db, name: desc.Name, dimension: desc.Dimension}, nil
}

type Index struct {
	db        *gorm.DB
	name      string
	dimension int
}

var _ vectorstore.Index = &Index{}

func (i *Index) Upsert(ctx context.Context, namespace string, records []vectorstore.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	models := make([]VectorRecord, len(records))
	for k, r := range records {
		if len(r.Values) != i.dimension {
			return 0, fmt.Errorf("record %s has dimension %d, index expects %d", r.Id, len(r.Values), i.dimension)
		}
		models[k] = VectorRecord{
			IndexName: i.name,
			Namespace: namespace,
			Id:        r.Id,
			Embedding: pgvector.NewVector(r.Values),
			Metadata:  datatypes.JSONMap(r.Metadata),
		}
	}

	result := i.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "index_name"}, {Name: "namespace"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding", "metadata", "updated_at"}),
	}).Create(&models)
	if result.Error != nil {
		return 0, result.Error
	}
	return len(models), nil
}

func (i *Index) DeleteAll(ctx context.Context, namespace string) error {
	result := i.db.WithContext(ctx).
		Where("index_name = ? AND namespace = ?", i.name, namespace).
		Delete(&VectorRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return vectorstore.ErrNamespaceNotFound
	}
	return nil
}

func (i *Index) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]vectorstore.Match, error) {
	if topK <= 0 {
		topK = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity
	type result struct {
		VectorRecord
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)
	err := i.db.WithContext(ctx).
		Table("vector_records").
		Select("vector_records.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("index_name = ? AND namespace = ?", i.name, namespace).
		Order("similarity DESC").
		Limit(topK).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	matches := make([]vectorstore.Match, len(results))
	for k, r := range results {
		matches[k] = vectorstore.Match{
			Id:       r.Id,
			Score:    r.Similarity,
			Metadata: map[string]interface{}(r.Metadata),
		}
	}
	return matches, nil
}
