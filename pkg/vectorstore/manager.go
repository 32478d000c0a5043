package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yt-chatbot-be/internal/pkg/logger"

	"github.com/cenkalti/backoff/v4"
)

type ManagerConfig struct {
	IndexName    string
	Cloud        string
	Region       string
	Namespace    string
	BatchSize    int
	SettleDelay  time.Duration
	PollInterval time.Duration
	ReadyTimeout time.Duration
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		IndexName:    "yt-chatbot",
		Cloud:        "aws",
		Region:       "us-east-1",
		Namespace:    DefaultNamespace,
		BatchSize:    100,
		SettleDelay:  2 * time.Second,
		PollInterval: time.Second,
		ReadyTimeout: 2 * time.Minute,
	}
}

// Manager owns the lifecycle of the configured index: create if absent,
// clear the working partition, write records in batches.
type Manager struct {
	service IndexService
	cfg     ManagerConfig
	logger  logger.ILogger
}

var errStillPending = errors.New("index still initializing")

func NewManager(service IndexService, cfg ManagerConfig, log logger.ILogger) *Manager {
	def := DefaultManagerConfig()
	if cfg.IndexName == "" {
		cfg.IndexName = def.IndexName
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = def.ReadyTimeout
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	return &Manager{
		service: service,
		cfg:     cfg,
		logger:  log,
	}
}

func (m *Manager) IndexName() string {
	return m.cfg.IndexName
}

func (m *Manager) Namespace() string {
	return m.cfg.Namespace
}

// GetOrCreateIndex returns the configured index, creating it with the given
// dimension when absent. The dimension of an existing index is not enforced.
func (m *Manager) GetOrCreateIndex(ctx context.Context, dimension int) (Index, error) {
	indexes, err := m.service.ListIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}

	for _, idx := range indexes {
		if idx.Name != m.cfg.IndexName {
			continue
		}
		if idx.Dimension != 0 && idx.Dimension != dimension {
			m.logger.Warn("VECTORSTORE", "Existing index dimension differs from embedding dimension", map[string]interface{}{
				"index":           m.cfg.IndexName,
				"index_dimension": idx.Dimension,
				"dimension":       dimension,
			})
		}
		return m.service.Index(ctx, m.cfg.IndexName)
	}

	m.logger.Info("VECTORSTORE", "Creating index", map[string]interface{}{
		"index":     m.cfg.IndexName,
		"dimension": dimension,
		"cloud":     m.cfg.Cloud,
		"region":    m.cfg.Region,
	})

	err = m.service.CreateIndex(ctx, IndexSpec{
		Name:      m.cfg.IndexName,
		Dimension: dimension,
		Metric:    MetricCosine,
		Cloud:     m.cfg.Cloud,
		Region:    m.cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create index %s: %w", m.cfg.IndexName, err)
	}

	if err := m.waitReady(ctx); err != nil {
		return nil, err
	}

	return m.service.Index(ctx, m.cfg.IndexName)
}

// OpenIndex returns a handle to the configured index without creating it.
func (m *Manager) OpenIndex(ctx context.Context) (Index, error) {
	indexes, err := m.service.ListIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	for _, idx := range indexes {
		if idx.Name == m.cfg.IndexName {
			return m.service.Index(ctx, m.cfg.IndexName)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, m.cfg.IndexName)
}

func (m *Manager) waitReady(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.cfg.PollInterval
	b.MaxInterval = 10 * m.cfg.PollInterval
	b.MaxElapsedTime = m.cfg.ReadyTimeout

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		desc, err := m.service.DescribeIndex(ctx, m.cfg.IndexName)
		if err != nil {
			return err
		}
		if !desc.Ready {
			return errStillPending
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		m.logger.Error("VECTORSTORE", "Index did not become ready", map[string]interface{}{
			"index":    m.cfg.IndexName,
			"attempts": attempts,
			"error":    err.Error(),
		})
		return fmt.Errorf("%w: %s after %d checks: %v", ErrIndexNotReady, m.cfg.IndexName, attempts, err)
	}

	m.logger.Info("VECTORSTORE", "Index ready", map[string]interface{}{
		"index":    m.cfg.IndexName,
		"attempts": attempts,
	})
	return nil
}

// ClearVectors deletes every record in the working partition and waits for
// the delete to settle. An empty partition is not an error.
func (m *Manager) ClearVectors(ctx context.Context, idx Index) error {
	err := idx.DeleteAll(ctx, m.cfg.Namespace)
	switch {
	case err == nil:
		m.logger.Info("VECTORSTORE", "Cleared partition", map[string]interface{}{
			"index":     m.cfg.IndexName,
			"namespace": m.cfg.Namespace,
		})
	case errors.Is(err, ErrNamespaceNotFound):
		m.logger.Debug("VECTORSTORE", "Partition already empty", map[string]interface{}{
			"index":     m.cfg.IndexName,
			"namespace": m.cfg.Namespace,
		})
	default:
		return fmt.Errorf("clear vectors: %w", err)
	}

	if m.cfg.SettleDelay == 0 {
		return nil
	}
	select {
	case <-time.After(m.cfg.SettleDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpsertVectors writes one record per chunk with id "{video_id}::{i}" and the
// chunk text merged into its metadata. Batches are sent in order.
func (m *Manager) UpsertVectors(ctx context.Context, idx Index, videoId string, texts []string, vectors [][]float32, metadatas []map[string]interface{}) (int, error) {
	if len(texts) != len(vectors) || len(texts) != len(metadatas) {
		return 0, fmt.Errorf("upsert vectors: misaligned input: %d texts, %d vectors, %d metadatas", len(texts), len(vectors), len(metadatas))
	}

	records := make([]Record, len(texts))
	for i, text := range texts {
		meta := make(map[string]interface{}, len(metadatas[i])+1)
		for k, v := range metadatas[i] {
			meta[k] = v
		}
		meta["text"] = text
		records[i] = Record{
			Id:       RecordId(videoId, i),
			Values:   vectors[i],
			Metadata: meta,
		}
	}

	written := 0
	for start, batch := 0, 0; start < len(records); start, batch = start+m.cfg.BatchSize, batch+1 {
		end := start + m.cfg.BatchSize
		if end > len(records) {
			end = len(records)
		}
		n, err := idx.Upsert(ctx, m.cfg.Namespace, records[start:end])
		if err != nil {
			m.logger.Error("VECTORSTORE", "Upsert batch failed", map[string]interface{}{
				"video_id": videoId,
				"batch":    batch,
				"written":  written,
				"error":    err.Error(),
			})
			return written, &UpsertError{Batch: batch, Written: written, Err: err}
		}
		written += n
	}

	m.logger.Info("VECTORSTORE", "Vectors stored", map[string]interface{}{
		"video_id": videoId,
		"index":    m.cfg.IndexName,
		"count":    written,
	})
	return written, nil
}

// Query searches the working partition.
func (m *Manager) Query(ctx context.Context, idx Index, vector []float32, topK int) ([]Match, error) {
	return idx.Query(ctx, m.cfg.Namespace, vector, topK)
}
