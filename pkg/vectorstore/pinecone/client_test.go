package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"yt-chatbot-be/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinecone struct {
	t        *testing.T
	srv      *httptest.Server
	created  *createIndexRequest
	upserted []upsertRequest
	deleted  []deleteRequest
	missing  bool
}

func newFakePinecone(t *testing.T) *fakePinecone {
	f := &fakePinecone{t: t}
	mux := http.NewServeMux()
	mux.HandleFunc("/indexes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("Api-Key"))
		if r.Method == http.MethodPost {
			var req createIndexRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.created = &req
			w.WriteHeader(http.StatusCreated)
			return
		}
		_, _ = w.Write([]byte(`{"indexes":[{"name":"yt-chatbot","dimension":384,"metric":"cosine","host":"` + f.srv.URL + `","status":{"ready":true,"state":"Ready"}}]}`))
	})
	mux.HandleFunc("/indexes/yt-chatbot", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"yt-chatbot","dimension":384,"metric":"cosine","host":"` + f.srv.URL + `","status":{"ready":true,"state":"Ready"}}`))
	})
	mux.HandleFunc("/vectors/upsert", func(w http.ResponseWriter, r *http.Request) {
		var req upsertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.upserted = append(f.upserted, req)
		_ = json.NewEncoder(w).Encode(upsertResponse{UpsertedCount: len(req.Vectors)})
	})
	mux.HandleFunc("/vectors/delete", func(w http.ResponseWriter, r *http.Request) {
		var req deleteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.deleted = append(f.deleted, req)
		if f.missing {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":5,"message":"Namespace not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.IncludeMetadata)
		assert.Equal(t, 5, req.TopK)
		_, _ = w.Write([]byte(`{"matches":[{"id":"abc12345678::0","score":0.92,"metadata":{"video_id":"abc12345678","chunk_id":0,"text":"Hello world."}}]}`))
	})
	f.srv = httptest.NewServer(mux)
	return f
}

func TestClientListAndCreate(t *testing.T) {
	f := newFakePinecone(t)
	defer f.srv.Close()
	c := NewClient("key").WithControlURL(f.srv.URL)

	indexes, err := c.ListIndexes(context.Background())
	require.NoError(t, err)
	require.Len(t, indexes, 1)
	assert.Equal(t, 384, indexes[0].Dimension)
	assert.True(t, indexes[0].Ready)

	err = c.CreateIndex(context.Background(), vectorstore.IndexSpec{
		Name: "other", Dimension: 384, Metric: "cosine", Cloud: "aws", Region: "us-east-1",
	})
	require.NoError(t, err)
	require.NotNil(t, f.created)
	assert.Equal(t, "aws", f.created.Spec.Serverless.Cloud)
	assert.Equal(t, "us-east-1", f.created.Spec.Serverless.Region)
}

func TestIndexUpsertQueryDelete(t *testing.T) {
	f := newFakePinecone(t)
	defer f.srv.Close()
	c := NewClient("key").WithControlURL(f.srv.URL)

	idx, err := c.Index(context.Background(), "yt-chatbot")
	require.NoError(t, err)

	n, err := idx.Upsert(context.Background(), "", []vectorstore.Record{
		{Id: "abc12345678::0", Values: []float32{1, 0}, Metadata: map[string]interface{}{"text": "Hello world."}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, f.upserted, 1)
	assert.Equal(t, "abc12345678::0", f.upserted[0].Vectors[0].Id)

	matches, err := idx.Query(context.Background(), "", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Hello world.", matches[0].Text())
	assert.InDelta(t, 0.92, matches[0].Score, 1e-9)

	require.NoError(t, idx.DeleteAll(context.Background(), ""))
	require.Len(t, f.deleted, 1)
	assert.True(t, f.deleted[0].DeleteAll)
}

func TestIndexDeleteMissingNamespace(t *testing.T) {
	f := newFakePinecone(t)
	f.missing = true
	defer f.srv.Close()
	c := NewClient("key").WithControlURL(f.srv.URL)

	idx, err := c.Index(context.Background(), "yt-chatbot")
	require.NoError(t, err)

	assert.ErrorIs(t, idx.DeleteAll(context.Background(), ""), vectorstore.ErrNamespaceNotFound)
}

func TestDescribeUnknownIndex(t *testing.T) {
	f := newFakePinecone(t)
	defer f.srv.Close()
	c := NewClient("key").WithControlURL(f.srv.URL)

	_, err := c.DescribeIndex(context.Background(), "nope")
	assert.ErrorIs(t, err, vectorstore.ErrIndexNotFound)
}

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, "https://idx-abc.svc.pinecone.io", normalizeHost("idx-abc.svc.pinecone.io"))
	assert.Equal(t, "http://localhost:5080", normalizeHost("http://localhost:5080/"))
}
