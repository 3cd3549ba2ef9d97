package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Client is one upstream model. ChatStream produces a lazy, finite,
// non-restartable sequence of text chunks: onChunk runs once per chunk in
// upstream order, and returning an error from it cancels the stream. The
// accumulated text (possibly truncated on upstream failure) is returned
// either way.
type Client interface {
	Chat(ctx context.Context, system string, messages []Message) (string, error)
	ChatStream(ctx context.Context, system string, messages []Message, onChunk func(chunk string) error) (string, error)
}

// KeywordExtractor pulls a search keyword out of a user message via a
// forced function call. Providers that cannot force tool selection do not
// implement it.
type KeywordExtractor interface {
	ExtractKeyword(ctx context.Context, message string, service string) (string, error)
}
