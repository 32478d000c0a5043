package rag

import (
	"context"
	"fmt"
	"time"

	"yt-chatbot-be/internal/pkg/logger"
	"yt-chatbot-be/pkg/llm"
	"yt-chatbot-be/pkg/rag/prompt"
	"yt-chatbot-be/pkg/vectorstore"
)

type AnswererConfig struct {
	TopK        int
	MaxChars    int
	Temperature float64
	TopP        float64
	MaxTokens   int
}

func DefaultAnswererConfig() AnswererConfig {
	return AnswererConfig{
		TopK:        5,
		MaxChars:    500,
		Temperature: 0.1,
		TopP:        0.9,
		MaxTokens:   900,
	}
}

// Answer is the outcome of one question. Err is set when generation failed;
// Text then holds the apology shown to the user.
type Answer struct {
	Text    string
	Context string
	Sources []vectorstore.Match
	Err     error
}

// Answerer runs retrieve, assemble, prompt, generate and postprocess for a
// question. It never returns an error: failures become answer text.
type Answerer struct {
	retriever Retriever
	model     llm.LLMProvider
	prompts   *prompt.Builder
	cfg       AnswererConfig
	logger    logger.ILogger
}

func NewAnswerer(retriever Retriever, model llm.LLMProvider, prompts *prompt.Builder, cfg AnswererConfig, log logger.ILogger) *Answerer {
	def := DefaultAnswererConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = def.MaxChars
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if prompts == nil {
		prompts = prompt.NewBuilder("")
	}
	return &Answerer{
		retriever: retriever,
		model:     model,
		prompts:   prompts,
		cfg:       cfg,
		logger:    log,
	}
}

func (a *Answerer) Answer(ctx context.Context, query string) (ans *Answer) {
	start := time.Now()
	ans = &Answer{}
	defer func() {
		if r := recover(); r != nil {
			ans.Err = fmt.Errorf("panic: %v", r)
			ans.Text = apology(ans.Err)
		}
	}()

	ans.Sources = a.retrieve(ctx, query)

	texts := make([]string, 0, len(ans.Sources))
	for _, m := range ans.Sources {
		texts = append(texts, m.Text())
	}
	ans.Context = prompt.AssembleContext(texts)

	messages := a.prompts.Build(ans.Context, query)

	raw, err := a.model.Chat(ctx, messages,
		llm.WithTemperature(a.cfg.Temperature),
		llm.WithTopP(a.cfg.TopP),
		llm.WithMaxTokens(a.cfg.MaxTokens),
	)
	if err != nil {
		a.logger.Error("RAG", "Generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		ans.Err = err
		ans.Text = apology(err)
		return ans
	}

	ans.Text = Postprocess(raw, a.cfg.MaxChars)

	a.logger.Info("RAG", "Question answered", map[string]interface{}{
		"sources":     len(ans.Sources),
		"raw_chars":   len([]rune(raw)),
		"final_chars": len([]rune(ans.Text)),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return ans
}

// retrieve is best effort; any failure means answering without context.
func (a *Answerer) retrieve(ctx context.Context, query string) []vectorstore.Match {
	matches, err := a.retriever.Retrieve(ctx, query, a.cfg.TopK)
	if err != nil {
		a.logger.Warn("RAG", "Retrieval failed, answering without context", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return matches
}

func apology(err error) string {
	return fmt.Sprintf("Sorry, I encountered an error while processing your question: %v", err)
}
