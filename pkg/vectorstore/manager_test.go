package vectorstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"yt-chatbot-be/internal/pkg/logger"
	"yt-chatbot-be/pkg/vectorstore"
	"yt-chatbot-be/pkg/vectorstore/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() vectorstore.ManagerConfig {
	cfg := vectorstore.DefaultManagerConfig()
	cfg.SettleDelay = 0
	cfg.PollInterval = time.Millisecond
	cfg.ReadyTimeout = time.Second
	return cfg
}

func unit(dim, hot int) []float32 {
	v := make([]float32, dim)
	v[hot] = 1
	return v
}

type recordingIndex struct {
	vectorstore.Index
	batches   []int
	failAt    int
	deleteErr error
}

func (r *recordingIndex) Upsert(ctx context.Context, ns string, records []vectorstore.Record) (int, error) {
	if r.failAt > 0 && len(r.batches)+1 == r.failAt {
		return 0, errors.New("write rejected")
	}
	r.batches = append(r.batches, len(records))
	return r.Index.Upsert(ctx, ns, records)
}

func (r *recordingIndex) DeleteAll(ctx context.Context, ns string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.Index.DeleteAll(ctx, ns)
}

func TestGetOrCreateIndexIsIdempotent(t *testing.T) {
	svc := memory.NewService()
	svc.ReadyAfter = 3
	m := vectorstore.NewManager(svc, testConfig(), logger.NewNopLogger())

	first, err := m.GetOrCreateIndex(context.Background(), 4)
	require.NoError(t, err)
	second, err := m.GetOrCreateIndex(context.Background(), 4)
	require.NoError(t, err)

	assert.Same(t, first, second)
	indexes, _ := svc.ListIndexes(context.Background())
	require.Len(t, indexes, 1)
	assert.Equal(t, "yt-chatbot", indexes[0].Name)
	assert.True(t, indexes[0].Ready)
}

func TestGetOrCreateIndexTimesOut(t *testing.T) {
	svc := memory.NewService()
	svc.ReadyAfter = 1 << 30
	cfg := testConfig()
	cfg.ReadyTimeout = 30 * time.Millisecond
	m := vectorstore.NewManager(svc, cfg, logger.NewNopLogger())

	_, err := m.GetOrCreateIndex(context.Background(), 4)
	assert.ErrorIs(t, err, vectorstore.ErrIndexNotReady)
}

func TestGetOrCreateIndexKeepsExistingDimension(t *testing.T) {
	svc := memory.NewService()
	require.NoError(t, svc.CreateIndex(context.Background(), vectorstore.IndexSpec{Name: "yt-chatbot", Dimension: 8}))
	m := vectorstore.NewManager(svc, testConfig(), logger.NewNopLogger())

	_, err := m.GetOrCreateIndex(context.Background(), 4)
	require.NoError(t, err)
	desc, err := svc.DescribeIndex(context.Background(), "yt-chatbot")
	require.NoError(t, err)
	assert.Equal(t, 8, desc.Dimension)
}

func TestOpenIndexMissing(t *testing.T) {
	m := vectorstore.NewManager(memory.NewService(), testConfig(), logger.NewNopLogger())
	_, err := m.OpenIndex(context.Background())
	assert.ErrorIs(t, err, vectorstore.ErrIndexNotFound)
}

func TestClearVectorsToleratesEmptyPartition(t *testing.T) {
	m := vectorstore.NewManager(memory.NewService(), testConfig(), logger.NewNopLogger())
	idx, err := m.GetOrCreateIndex(context.Background(), 4)
	require.NoError(t, err)

	assert.NoError(t, m.ClearVectors(context.Background(), idx))
}

func TestClearVectorsSurfacesOtherErrors(t *testing.T) {
	m := vectorstore.NewManager(memory.NewService(), testConfig(), logger.NewNopLogger())
	idx, err := m.GetOrCreateIndex(context.Background(), 4)
	require.NoError(t, err)

	err = m.ClearVectors(context.Background(), &recordingIndex{Index: idx, deleteErr: errors.New("boom")})
	assert.ErrorContains(t, err, "boom")
}

func TestClearVectorsWaitsForSettle(t *testing.T) {
	cfg := testConfig()
	cfg.SettleDelay = 20 * time.Millisecond
	m := vectorstore.NewManager(memory.NewService(), cfg, logger.NewNopLogger())
	idx, err := m.GetOrCreateIndex(context.Background(), 4)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, m.ClearVectors(context.Background(), idx))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestUpsertVectorsBuildsRecords(t *testing.T) {
	m := vectorstore.NewManager(memory.NewService(), testConfig(), logger.NewNopLogger())
	idx, err := m.GetOrCreateIndex(context.Background(), 4)
	require.NoError(t, err)

	n, err := m.UpsertVectors(context.Background(), idx, "abc12345678",
		[]string{"first", "second"},
		[][]float32{unit(4, 0), unit(4, 1)},
		[]map[string]interface{}{
			{"video_id": "abc12345678", "chunk_id": 0},
			{"video_id": "abc12345678", "chunk_id": 1},
		})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	matches, err := m.Query(context.Background(), idx, unit(4, 1), 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "abc12345678::1", matches[0].Id)
	assert.Equal(t, "second", matches[0].Text())
	assert.Equal(t, 1, matches[0].Metadata["chunk_id"])
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
}

func TestUpsertVectorsBatches(t *testing.T) {
	m := vectorstore.NewManager(memory.NewService(), testConfig(), logger.NewNopLogger())
	idx, err := m.GetOrCreateIndex(context.Background(), 4)
	require.NoError(t, err)
	rec := &recordingIndex{Index: idx}

	texts, vectors, metas := fixture("abc12345678", 250)
	n, err := m.UpsertVectors(context.Background(), rec, "abc12345678", texts, vectors, metas)
	require.NoError(t, err)

	assert.Equal(t, 250, n)
	assert.Equal(t, []int{100, 100, 50}, rec.batches)
}

func TestUpsertVectorsReportsFailedBatch(t *testing.T) {
	m := vectorstore.NewManager(memory.NewService(), testConfig(), logger.NewNopLogger())
	idx, err := m.GetOrCreateIndex(context.Background(), 4)
	require.NoError(t, err)
	rec := &recordingIndex{Index: idx, failAt: 2}

	texts, vectors, metas := fixture("abc12345678", 150)
	n, err := m.UpsertVectors(context.Background(), rec, "abc12345678", texts, vectors, metas)

	var upErr *vectorstore.UpsertError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, 1, upErr.Batch)
	assert.Equal(t, 100, upErr.Written)
	assert.Equal(t, 100, n)
}

func TestUpsertVectorsRejectsMisalignedInput(t *testing.T) {
	m := vectorstore.NewManager(memory.NewService(), testConfig(), logger.NewNopLogger())
	idx, err := m.GetOrCreateIndex(context.Background(), 4)
	require.NoError(t, err)

	_, err = m.UpsertVectors(context.Background(), idx, "abc12345678", []string{"a"}, nil, nil)
	assert.ErrorContains(t, err, "misaligned")
}

func TestClearThenUpsertLeavesNoResidue(t *testing.T) {
	ctx := context.Background()
	m := vectorstore.NewManager(memory.NewService(), testConfig(), logger.NewNopLogger())
	idx, err := m.GetOrCreateIndex(ctx, 4)
	require.NoError(t, err)

	textsB, vectorsB, metasB := fixture("videoBBBBBB", 6)
	_, err = m.UpsertVectors(ctx, idx, "videoBBBBBB", textsB, vectorsB, metasB)
	require.NoError(t, err)

	require.NoError(t, m.ClearVectors(ctx, idx))
	textsA, vectorsA, metasA := fixture("videoAAAAAA", 2)
	_, err = m.UpsertVectors(ctx, idx, "videoAAAAAA", textsA, vectorsA, metasA)
	require.NoError(t, err)

	matches, err := m.Query(ctx, idx, unit(4, 0), 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, match := range matches {
		assert.Equal(t, "videoAAAAAA", match.Metadata["video_id"])
	}
}

func fixture(videoId string, n int) ([]string, [][]float32, []map[string]interface{}) {
	texts := make([]string, n)
	vectors := make([][]float32, n)
	metas := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		texts[i] = videoId + " chunk"
		vectors[i] = unit(4, i%4)
		metas[i] = map[string]interface{}{"video_id": videoId, "chunk_id": i}
	}
	return texts, vectors, metas
}
