package llm

import (
	"context"
	"time"

	"yt-chatbot-be/internal/pkg/logger"

	"github.com/sony/gobreaker"
)

type BreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// BreakerProvider stops calling a failing model until it recovers, so a
// dead endpoint fails questions fast instead of holding each request open.
type BreakerProvider struct {
	inner LLMProvider
	cb    *gobreaker.CircuitBreaker
}

var _ LLMProvider = &BreakerProvider{}

func NewBreakerProvider(inner LLMProvider, cfg BreakerConfig, log logger.ILogger) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("LLM", "Circuit breaker state change", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	}
	return &BreakerProvider{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Chat(ctx, history, options...)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (b *BreakerProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return b.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}
