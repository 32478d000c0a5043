package memory

import (
	"context"
	"testing"

	"yt-chatbot-be/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryRanksByCosine(t *testing.T) {
	ctx := context.Background()
	idx := newIndex("yt", 2)

	_, err := idx.Upsert(ctx, "vid", []vectorstore.Record{
		{Id: "far", Values: []float32{0, 1}},
		{Id: "near", Values: []float32{2, 0.1}},
		{Id: "opposite", Values: []float32{-1, 0}},
		{Id: "zero", Values: []float32{0, 0}},
	})
	require.NoError(t, err)

	matches, err := idx.Query(ctx, "vid", []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "near", matches[0].Id)
	assert.InDelta(t, 0.9988, matches[0].Score, 1e-3)
	// far and zero both score 0 and tie-break by id
	assert.Equal(t, "far", matches[1].Id)
	assert.Equal(t, "zero", matches[2].Id)
}

func TestQueryRejectsWrongDimension(t *testing.T) {
	idx := newIndex("yt", 3)
	_, err := idx.Query(context.Background(), "vid", []float32{1, 0}, 3)
	assert.ErrorContains(t, err, "query dimension 2")
}

func TestDeleteAllMissingNamespace(t *testing.T) {
	idx := newIndex("yt", 2)
	err := idx.DeleteAll(context.Background(), "vid")
	assert.ErrorIs(t, err, vectorstore.ErrNamespaceNotFound)
}
