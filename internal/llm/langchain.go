package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainClient serves OpenAI-compatible endpoints (Groq and friends)
// through langchaingo.
type LangChainClient struct {
	llm llms.Model
}

type LangChainConfig struct {
	Model   string // e.g. "llama-3.1-70b-versatile"
	BaseURL string // optional, for Groq or other OpenAI-compatible APIs
	APIKey  string // falls back to env if empty
}

func NewLangChainClient(cfg LangChainConfig) (*LangChainClient, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain openai client: %w", err)
	}
	return &LangChainClient{llm: model}, nil
}

func buildContents(system string, messages []Message) []llms.MessageContent {
	contents := make([]llms.MessageContent, 0, len(messages)+1)
	if system != "" {
		contents = append(contents, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	for _, m := range messages {
		var msgType llms.ChatMessageType
		switch m.Role {
		case RoleSystem:
			msgType = llms.ChatMessageTypeSystem
		case RoleAssistant:
			msgType = llms.ChatMessageTypeAI
		default:
			msgType = llms.ChatMessageTypeHuman
		}
		contents = append(contents, llms.TextParts(msgType, m.Content))
	}
	return contents
}

func (c *LangChainClient) Chat(ctx context.Context, system string, messages []Message) (string, error) {
	resp, err := c.llm.GenerateContent(ctx, buildContents(system, messages))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from LLM")
	}
	return resp.Choices[0].Content, nil
}

func (c *LangChainClient) ChatStream(ctx context.Context, system string, messages []Message, onChunk func(string) error) (string, error) {
	var acc strings.Builder
	_, err := c.llm.GenerateContent(ctx, buildContents(system, messages),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			acc.Write(chunk)
			return onChunk(string(chunk))
		}),
	)
	if err != nil {
		return acc.String(), err
	}
	return acc.String(), nil
}
