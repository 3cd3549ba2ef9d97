package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient is the primary provider: streaming chat plus forced
// function-call keyword extraction.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *OpenAIClient) buildMessages(system string, messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return out
}

func (c *OpenAIClient) Chat(ctx context.Context, system string, messages []Message) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: c.buildMessages(system, messages),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) ChatStream(ctx context.Context, system string, messages []Message, onChunk func(string) error) (string, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: c.buildMessages(system, messages),
		Stream:   true,
	})
	if err != nil {
		return "", fmt.Errorf("create stream: %w", err)
	}
	defer stream.Close()

	var acc strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return acc.String(), nil
		}
		if err != nil {
			// truncated output is returned for persistence as-is
			return acc.String(), fmt.Errorf("stream recv: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		acc.WriteString(chunk)
		if err := onChunk(chunk); err != nil {
			return acc.String(), err
		}
	}
}

const extractFunctionName = "extract_search_keyword"

type extractArgs struct {
	Keyword string `json:"keyword"`
}

// ExtractKeyword forces the model to call extract_search_keyword and returns
// the keyword argument. An empty keyword is returned as "" with nil error so
// the caller can skip the engine.
func (c *OpenAIClient) ExtractKeyword(ctx context.Context, message string, service string) (string, error) {
	fn := &openai.FunctionDefinition{
		Name:        extractFunctionName,
		Description: "Extract the single best search keyword or phrase from the user's message for a " + service + " search.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"keyword": {
					"type": "string",
					"description": "The search keyword or short phrase."
				}
			},
			"required": ["keyword"]
		}`),
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		Tools: []openai.Tool{{Type: openai.ToolTypeFunction, Function: fn}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: extractFunctionName},
		},
	})
	if err != nil {
		return "", fmt.Errorf("keyword extraction: %w", err)
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return "", nil
	}

	var args extractArgs
	raw := resp.Choices[0].Message.ToolCalls[0].Function.Arguments
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return "", fmt.Errorf("decode tool arguments: %w", err)
	}
	return strings.TrimSpace(args.Keyword), nil
}
