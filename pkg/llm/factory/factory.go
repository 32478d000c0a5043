package factory

import (
	"fmt"

	"yt-chatbot-be/pkg/llm"
	"yt-chatbot-be/pkg/llm/ollama"
	"yt-chatbot-be/pkg/llm/openai"
)

type Config struct {
	Provider string
	Model    string
	BaseURL  string
	ApiKey   string
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "groq":
		if cfg.ApiKey == "" {
			return nil, fmt.Errorf("groq provider requires an api key")
		}
		if cfg.BaseURL != "" {
			model := cfg.Model
			if model == "" {
				model = openai.GroqDefaultModel
			}
			return openai.NewProvider("groq", cfg.ApiKey, cfg.BaseURL, model), nil
		}
		return openai.NewGroqProvider(cfg.ApiKey, cfg.Model), nil
	case "huggingface":
		return openai.NewHuggingFaceProvider(cfg.ApiKey, cfg.BaseURL, cfg.Model), nil
	case "openai":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai-compatible provider requires a base url")
		}
		return openai.NewProvider("openai", cfg.ApiKey, cfg.BaseURL, cfg.Model), nil
	case "ollama":
		return ollama.NewOllamaProvider(cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
