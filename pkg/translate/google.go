package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"yt-chatbot-be/internal/pkg/logger"

	"golang.org/x/time/rate"
)

const (
	DefaultEndpoint = "https://translate.googleapis.com/translate_a/single"
	// DefaultWindowSize is the longest text the endpoint accepts in one call.
	DefaultWindowSize    = 2000
	DefaultMinASCIIRatio = 0.3
)

type Config struct {
	Endpoint       string
	SourceLanguage string
	TargetLanguage string
	WindowSize     int
	MinASCIIRatio  float64
	// RequestsPerSecond throttles calls to the endpoint. Zero disables throttling.
	RequestsPerSecond float64
}

// GoogleTranslator translates long text window by window through the public
// translate endpoint.
type GoogleTranslator struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  logger.ILogger
}

func NewGoogleTranslator(cfg Config, log logger.ILogger) *GoogleTranslator {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.SourceLanguage == "" {
		cfg.SourceLanguage = "auto"
	}
	if cfg.TargetLanguage == "" {
		cfg.TargetLanguage = "en"
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.MinASCIIRatio <= 0 {
		cfg.MinASCIIRatio = DefaultMinASCIIRatio
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &GoogleTranslator{
		cfg: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: limiter,
		logger:  log,
	}
}

// Translate never fails. A window whose call fails keeps its original text,
// and a result that does not pass the quality gate is discarded in favour of
// the input.
func (t *GoogleTranslator) Translate(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	windows := SplitWindows(text, t.cfg.WindowSize)
	parts := make([]string, 0, len(windows))
	failed := 0

	for i, window := range windows {
		translated, err := t.translateWindow(ctx, window)
		if err != nil {
			failed++
			t.logger.Warn("TRANSLATE", "Window translation failed, keeping original text", map[string]interface{}{
				"window": i,
				"error":  err.Error(),
			})
			parts = append(parts, window)
			continue
		}
		parts = append(parts, translated)
	}

	translated := strings.TrimSpace(strings.Join(parts, " "))

	ratio, letters := ASCIIRatio(translated)
	if letters > 0 && ratio < t.cfg.MinASCIIRatio {
		t.logger.Warn("TRANSLATE", "Translation rejected by quality gate", map[string]interface{}{
			"ascii_ratio": ratio,
			"min_ratio":   t.cfg.MinASCIIRatio,
		})
		return text
	}

	t.logger.Debug("TRANSLATE", "Translation finished", map[string]interface{}{
		"windows":     len(windows),
		"failed":      failed,
		"ascii_ratio": ratio,
	})
	return translated
}

func (t *GoogleTranslator) translateWindow(ctx context.Context, window string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", t.cfg.SourceLanguage)
	params.Set("tl", t.cfg.TargetLanguage)
	params.Set("dt", "t")
	params.Set("q", window)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate error: status %d", resp.StatusCode)
	}

	return parseTranslation(bodyBytes)
}

// parseTranslation reads [[["translated","original",...],...],...].
func parseTranslation(body []byte) (string, error) {
	var result []json.RawMessage
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result) == 0 {
		return "", fmt.Errorf("empty translate response")
	}

	var segments [][]interface{}
	if err := json.Unmarshal(result[0], &segments); err != nil {
		return "", fmt.Errorf("unmarshal segments: %w", err)
	}

	var sb strings.Builder
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		if s, ok := segment[0].(string); ok && s != "" {
			sb.WriteString(s)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no translated segments")
	}
	return sb.String(), nil
}

// SplitWindows cuts text into consecutive windows of at most size characters.
func SplitWindows(text string, size int) []string {
	runes := []rune(text)
	windows := make([]string, 0, len(runes)/size+1)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, string(runes[i:end]))
	}
	return windows
}

// ASCIIRatio returns the share of ASCII letters among all letters in text,
// along with the total letter count.
func ASCIIRatio(text string) (float64, int) {
	ascii, total := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		if r <= unicode.MaxASCII {
			ascii++
		}
	}
	if total == 0 {
		return 0, 0
	}
	return float64(ascii) / float64(total), total
}
