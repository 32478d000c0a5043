package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"yt-chatbot-be/internal/pkg/logger"
)

type TranscriptErrorKind int

const (
	// TranscriptUnavailable means the video has no track in any preferred language.
	TranscriptUnavailable TranscriptErrorKind = iota + 1
	// TranscriptAccessError means listing or downloading tracks failed.
	TranscriptAccessError
)

func (k TranscriptErrorKind) String() string {
	switch k {
	case TranscriptUnavailable:
		return "unavailable"
	case TranscriptAccessError:
		return "access_error"
	default:
		return "unknown"
	}
}

// TranscriptError is returned by TranscriptFetcher.Fetch. Callers branch on Kind.
type TranscriptError struct {
	Kind      TranscriptErrorKind
	VideoId   string
	Wanted    []string
	Available []string
	Err       error
}

func (e *TranscriptError) Error() string {
	if e.Kind == TranscriptUnavailable {
		msg := fmt.Sprintf("No transcript found in %s", strings.Join(e.Wanted, "/"))
		if len(e.Available) > 0 {
			msg += fmt.Sprintf(" (available: %s)", strings.Join(e.Available, ", "))
		}
		return msg + "."
	}
	if errors.Is(e.Err, ErrTranscriptsDisabled) || errors.Is(e.Err, ErrVideoNotFound) {
		return fmt.Sprintf("Transcript error: %v", e.Err)
	}
	return fmt.Sprintf("Error fetching transcript: %v", e.Err)
}

func (e *TranscriptError) Unwrap() error {
	return e.Err
}

// Translator turns text into the target language. It never fails: on any
// problem it returns (part of) the input untouched.
type Translator interface {
	Translate(ctx context.Context, text string) string
}

type FetcherConfig struct {
	// PreferredLanguages is checked in order; the first track present wins.
	PreferredLanguages []string
	// TargetLanguage tracks are used as-is, every other language is translated.
	TargetLanguage string
}

type TranscriptFetcher struct {
	source     TranscriptSource
	translator Translator
	cfg        FetcherConfig
	logger     logger.ILogger
}

func NewTranscriptFetcher(source TranscriptSource, translator Translator, cfg FetcherConfig, log logger.ILogger) *TranscriptFetcher {
	if len(cfg.PreferredLanguages) == 0 {
		cfg.PreferredLanguages = []string{"hi", "en"}
	}
	if cfg.TargetLanguage == "" {
		cfg.TargetLanguage = "en"
	}
	return &TranscriptFetcher{
		source:     source,
		translator: translator,
		cfg:        cfg,
		logger:     log,
	}
}

// Fetch returns the transcript text of a video in the target language.
// Any failure is a *TranscriptError.
func (f *TranscriptFetcher) Fetch(ctx context.Context, videoId string) (string, error) {
	tracks, err := f.source.List(ctx, videoId)
	if err != nil {
		return "", f.accessError(videoId, err)
	}

	// Last seen wins when a language code appears more than once.
	byCode := make(map[string]Track, len(tracks))
	var available []string
	for _, t := range tracks {
		code := t.LanguageCode()
		if _, seen := byCode[code]; !seen {
			available = append(available, code)
		}
		byCode[code] = t
	}

	for _, code := range f.cfg.PreferredLanguages {
		track, ok := byCode[code]
		if !ok {
			continue
		}

		snippets, err := track.Fetch(ctx)
		if err != nil {
			return "", f.accessError(videoId, err)
		}
		if len(snippets) == 0 {
			f.logger.Warn("YOUTUBE", "Caption track is empty, trying next language", map[string]interface{}{
				"video_id": videoId,
				"language": code,
			})
			continue
		}

		text := JoinSnippets(snippets)
		if code == f.cfg.TargetLanguage || f.translator == nil {
			f.logger.Info("YOUTUBE", "Transcript fetched", map[string]interface{}{
				"video_id": videoId,
				"language": code,
				"length":   len(text),
			})
			return text, nil
		}

		translated := f.translator.Translate(ctx, text)
		f.logger.Info("YOUTUBE", "Transcript fetched and translated", map[string]interface{}{
			"video_id": videoId,
			"language": code,
			"target":   f.cfg.TargetLanguage,
			"length":   len(translated),
		})
		return translated, nil
	}

	return "", &TranscriptError{
		Kind:      TranscriptUnavailable,
		VideoId:   videoId,
		Wanted:    f.cfg.PreferredLanguages,
		Available: available,
	}
}

func (f *TranscriptFetcher) accessError(videoId string, err error) error {
	f.logger.Error("YOUTUBE", "Transcript fetch failed", map[string]interface{}{
		"video_id": videoId,
		"error":    err.Error(),
	})
	return &TranscriptError{
		Kind:    TranscriptAccessError,
		VideoId: videoId,
		Wanted:  f.cfg.PreferredLanguages,
		Err:     err,
	}
}

// JoinSnippets concatenates snippet text with single spaces.
func JoinSnippets(snippets []Snippet) string {
	parts := make([]string, len(snippets))
	for i, s := range snippets {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}
