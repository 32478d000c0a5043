package youtube

import (
	"context"
	"errors"
	"testing"

	"yt-chatbot-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrack struct {
	code     string
	snippets []Snippet
	err      error
	fetched  int
}

func (t *fakeTrack) LanguageCode() string { return t.code }

func (t *fakeTrack) Fetch(ctx context.Context) ([]Snippet, error) {
	t.fetched++
	return t.snippets, t.err
}

type fakeSource struct {
	tracks []Track
	err    error
}

func (s *fakeSource) List(ctx context.Context, videoId string) ([]Track, error) {
	return s.tracks, s.err
}

type upperTranslator struct {
	calls []string
}

func (u *upperTranslator) Translate(ctx context.Context, text string) string {
	u.calls = append(u.calls, text)
	return "translated: " + text
}

func snippets(texts ...string) []Snippet {
	out := make([]Snippet, len(texts))
	for i, t := range texts {
		out[i] = Snippet{Text: t, Start: float64(i), Duration: 1}
	}
	return out
}

func newFetcher(src TranscriptSource, tr Translator) *TranscriptFetcher {
	return NewTranscriptFetcher(src, tr, FetcherConfig{}, logger.NewNopLogger())
}

func TestFetchPrefersHindiOverEnglish(t *testing.T) {
	hi := &fakeTrack{code: "hi", snippets: snippets("namaste", "duniya")}
	en := &fakeTrack{code: "en", snippets: snippets("hello", "world")}
	tr := &upperTranslator{}

	text, err := newFetcher(&fakeSource{tracks: []Track{en, hi}}, tr).Fetch(context.Background(), "abc12345678")

	require.NoError(t, err)
	assert.Equal(t, "translated: namaste duniya", text)
	assert.Equal(t, []string{"namaste duniya"}, tr.calls)
	assert.Equal(t, 0, en.fetched)
}

func TestFetchEnglishIsNotTranslated(t *testing.T) {
	en := &fakeTrack{code: "en", snippets: snippets("Hello world.", "This is a test.")}
	tr := &upperTranslator{}

	text, err := newFetcher(&fakeSource{tracks: []Track{en}}, tr).Fetch(context.Background(), "abc12345678")

	require.NoError(t, err)
	assert.Equal(t, "Hello world. This is a test.", text)
	assert.Empty(t, tr.calls)
}

func TestFetchLastSeenTrackWins(t *testing.T) {
	first := &fakeTrack{code: "en", snippets: snippets("first")}
	second := &fakeTrack{code: "en", snippets: snippets("second")}

	text, err := newFetcher(&fakeSource{tracks: []Track{first, second}}, nil).Fetch(context.Background(), "abc12345678")

	require.NoError(t, err)
	assert.Equal(t, "second", text)
}

func TestFetchEmptyPreferredTrackFallsThrough(t *testing.T) {
	hi := &fakeTrack{code: "hi"}
	en := &fakeTrack{code: "en", snippets: snippets("fallback")}

	text, err := newFetcher(&fakeSource{tracks: []Track{hi, en}}, &upperTranslator{}).Fetch(context.Background(), "abc12345678")

	require.NoError(t, err)
	assert.Equal(t, "fallback", text)
}

func TestFetchNoPreferredTrack(t *testing.T) {
	fr := &fakeTrack{code: "fr", snippets: snippets("bonjour")}
	de := &fakeTrack{code: "de", snippets: snippets("hallo")}

	_, err := newFetcher(&fakeSource{tracks: []Track{fr, de}}, nil).Fetch(context.Background(), "abc12345678")

	var tErr *TranscriptError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, TranscriptUnavailable, tErr.Kind)
	assert.Equal(t, []string{"fr", "de"}, tErr.Available)
	assert.Equal(t, "No transcript found in hi/en (available: fr, de).", tErr.Error())
}

func TestFetchAccessErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantPrefix string
	}{
		{name: "disabled", err: ErrTranscriptsDisabled, wantPrefix: "Transcript error: "},
		{name: "not found", err: ErrVideoNotFound, wantPrefix: "Transcript error: "},
		{name: "network", err: errors.New("connection reset"), wantPrefix: "Error fetching transcript: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newFetcher(&fakeSource{err: tt.err}, nil).Fetch(context.Background(), "abc12345678")

			var tErr *TranscriptError
			require.ErrorAs(t, err, &tErr)
			assert.Equal(t, TranscriptAccessError, tErr.Kind)
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), tt.wantPrefix)
		})
	}
}

func TestFetchTrackDownloadFailure(t *testing.T) {
	en := &fakeTrack{code: "en", err: errors.New("timeout")}

	_, err := newFetcher(&fakeSource{tracks: []Track{en}}, nil).Fetch(context.Background(), "abc12345678")

	var tErr *TranscriptError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, TranscriptAccessError, tErr.Kind)
}

func TestFetchCustomPreference(t *testing.T) {
	hi := &fakeTrack{code: "hi", snippets: snippets("namaste")}
	en := &fakeTrack{code: "en", snippets: snippets("hello")}

	f := NewTranscriptFetcher(&fakeSource{tracks: []Track{hi, en}}, &upperTranslator{}, FetcherConfig{
		PreferredLanguages: []string{"en", "hi"},
	}, logger.NewNopLogger())
	text, err := f.Fetch(context.Background(), "abc12345678")

	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}
