package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const defaultWatchBaseURL = "https://www.youtube.com"

var markupTag = regexp.MustCompile(`<[^>]*>`)

// HTTPSource reads caption tracks straight from the public watch page.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

var _ TranscriptSource = &HTTPSource{}

func NewHTTPSource(baseURL string) *HTTPSource {
	if baseURL == "" {
		baseURL = defaultWatchBaseURL
	}
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type captionsPayload struct {
	Renderer struct {
		CaptionTracks []captionTrack `json:"captionTracks"`
	} `json:"playerCaptionsTracklistRenderer"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedTextDocument struct {
	Texts []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Body  string `xml:",chardata"`
	} `xml:"text"`
}

func (s *HTTPSource) List(ctx context.Context, videoId string) ([]Track, error) {
	endpoint := fmt.Sprintf("%s/watch?v=%s", s.BaseURL, videoId)
	body, err := s.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	page := string(body)

	if strings.Contains(page, `class="g-recaptcha"`) {
		return nil, ErrTooManyRequests
	}

	marker := `"captions":`
	idx := strings.Index(page, marker)
	if idx == -1 {
		if !strings.Contains(page, `"playabilityStatus":`) || strings.Contains(page, `"status":"ERROR"`) {
			return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoId)
		}
		return nil, ErrTranscriptsDisabled
	}

	// The decoder stops after the first JSON value, so the rest of the page is ignored.
	var captions captionsPayload
	if err := json.NewDecoder(strings.NewReader(page[idx+len(marker):])).Decode(&captions); err != nil {
		return nil, fmt.Errorf("decode caption tracks: %w", err)
	}
	if len(captions.Renderer.CaptionTracks) == 0 {
		return nil, ErrTranscriptsDisabled
	}

	tracks := make([]Track, 0, len(captions.Renderer.CaptionTracks))
	for _, ct := range captions.Renderer.CaptionTracks {
		tracks = append(tracks, &httpTrack{
			source:       s,
			baseURL:      strings.ReplaceAll(ct.BaseURL, "&fmt=srv3", ""),
			languageCode: ct.LanguageCode,
		})
	}
	return tracks, nil
}

func (s *HTTPSource) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept-Language", "en-US")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return bodyBytes, nil
	case http.StatusTooManyRequests:
		return nil, ErrTooManyRequests
	case http.StatusNotFound:
		return nil, ErrVideoNotFound
	default:
		return nil, fmt.Errorf("youtube error: status %d", resp.StatusCode)
	}
}

type httpTrack struct {
	source       *HTTPSource
	baseURL      string
	languageCode string
}

func (t *httpTrack) LanguageCode() string {
	return t.languageCode
}

func (t *httpTrack) Fetch(ctx context.Context) ([]Snippet, error) {
	body, err := t.source.get(ctx, t.baseURL)
	if err != nil {
		return nil, err
	}

	var doc timedTextDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode timed text: %w", err)
	}

	snippets := make([]Snippet, 0, len(doc.Texts))
	for _, line := range doc.Texts {
		text := strings.TrimSpace(markupTag.ReplaceAllString(html.UnescapeString(line.Body), ""))
		if text == "" {
			continue
		}
		start, _ := strconv.ParseFloat(line.Start, 64)
		dur, _ := strconv.ParseFloat(line.Dur, 64)
		snippets = append(snippets, Snippet{
			Text:     text,
			Start:    start,
			Duration: dur,
		})
	}
	return snippets, nil
}
