package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timedText = `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
	`<text start="0.5" dur="2.1">Hello &amp;amp; welcome</text>` +
	`<text start="2.6" dur="1.4">&lt;font color=&quot;#fff&quot;&gt;to the show&lt;/font&gt;</text>` +
	`<text start="4.0" dur="1.0">   </text>` +
	`</transcript>`

func newYoutubeServer(t *testing.T, page func(baseURL string) string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			fmt.Fprint(w, page(srv.URL))
		case "/api/timedtext":
			fmt.Fprint(w, timedText)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSourceListAndFetch(t *testing.T) {
	srv := newYoutubeServer(t, func(base string) string {
		return `<html><script>var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"},` +
			`"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` +
			`{"baseUrl":"` + base + `/api/timedtext?v=abc12345678&lang=hi","languageCode":"hi","kind":"asr"},` +
			`{"baseUrl":"` + base + `/api/timedtext?v=abc12345678&lang=en&fmt=srv3","languageCode":"en"}` +
			`]}},"videoDetails":{}};</script></html>`
	})

	src := NewHTTPSource(srv.URL)
	tracks, err := src.List(context.Background(), "abc12345678")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "hi", tracks[0].LanguageCode())
	assert.Equal(t, "en", tracks[1].LanguageCode())

	got, err := tracks[1].Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Hello & welcome", got[0].Text)
	assert.Equal(t, 0.5, got[0].Start)
	assert.Equal(t, 2.1, got[0].Duration)
	assert.Equal(t, "to the show", got[1].Text)
}

func TestHTTPSourceTranscriptsDisabled(t *testing.T) {
	srv := newYoutubeServer(t, func(string) string {
		return `<html>{"playabilityStatus":{"status":"OK"},"videoDetails":{}}</html>`
	})

	_, err := NewHTTPSource(srv.URL).List(context.Background(), "abc12345678")
	assert.ErrorIs(t, err, ErrTranscriptsDisabled)
}

func TestHTTPSourceVideoNotFound(t *testing.T) {
	srv := newYoutubeServer(t, func(string) string {
		return `<html>{"playabilityStatus":{"status":"ERROR","reason":"Video unavailable"}}</html>`
	})

	_, err := NewHTTPSource(srv.URL).List(context.Background(), "abc12345678")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestHTTPSourceRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL).List(context.Background(), "abc12345678")
	assert.ErrorIs(t, err, ErrTooManyRequests)
}
