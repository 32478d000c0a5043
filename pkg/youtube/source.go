package youtube

import (
	"context"
	"errors"
)

var (
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	ErrVideoNotFound       = errors.New("video not found")
	ErrTooManyRequests     = errors.New("youtube is rate limiting requests from this ip")
)

// Snippet is one timed line of a caption track.
type Snippet struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Track is a single language's caption stream for a video.
type Track interface {
	LanguageCode() string
	Fetch(ctx context.Context) ([]Snippet, error)
}

// TranscriptSource lists the caption tracks available for a video.
type TranscriptSource interface {
	List(ctx context.Context, videoId string) ([]Track, error)
}
