package llm

import (
	"context"
	"fmt"
	"sparkle-backend/internal/config"
)

// New builds the configured provider. The second return value is the
// keyword extractor when the provider supports forced tool calls, nil
// otherwise.
func New(ctx context.Context, cfg config.Config) (Client, KeywordExtractor, error) {
	switch cfg.LLMProvider {
	case "openai":
		c := NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		return c, c, nil
	case "langchain":
		c, err := NewLangChainClient(LangChainConfig{
			Model:   cfg.LangChainModel,
			BaseURL: cfg.LangChainBaseURL,
			APIKey:  cfg.LangChainAPIKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %s", cfg.LLMProvider)
	}
}
