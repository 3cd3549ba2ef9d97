package session

import "fmt"

// InboundFrame is one client turn. Authentication is deferred to the first
// frame, so the bearer token rides on every message. Slug is empty on the
// first turn of a fresh conversation; the chat is then created lazily.
type InboundFrame struct {
	Message     string   `json:"message"`
	EnginesList []uint64 `json:"engines_list,omitempty"`
	Token       string   `json:"token"`
	ReplyTo     *uint64  `json:"reply_to,omitempty"`
	Slug        string   `json:"slug,omitempty"`
}

// OutboundFrame is one streamed chunk. The final frame of a turn carries
// is_ended=true, an empty content and the persisted engine message id.
type OutboundFrame struct {
	Content   string `json:"content"`
	Slug      string `json:"slug"`
	MessageID uint64 `json:"message_id,omitempty"`
	IsEnded   bool   `json:"is_ended"`
}

// Close codes. 4xxx is the private websocket range; clients key off these
// to distinguish bad token from quota from plain caller mistakes.
const (
	CloseUnauthorized      = 4001
	ClosePaymentRequired   = 4002
	CloseForbiddenCategory = 4003
	CloseNotFound          = 4004
	CloseBadRequest        = 4005
	CloseQuotaExceeded     = 4029
	CloseIdleTimeout       = 4408
	CloseInternal          = 1011
)

// CloseError terminates a session with a machine-readable code, a human
// detail and, for rate limits, the seconds until retry makes sense.
type CloseError struct {
	Code        int
	Reason      string
	WaitSeconds int
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("close %d: %s", e.Code, e.Reason)
}

// CloseText is the reason carried on the close frame. Websocket close
// reasons are capped at 123 bytes, so this stays terse.
func (e *CloseError) CloseText() string {
	if e.WaitSeconds > 0 {
		return fmt.Sprintf("%s (retry in %ds)", e.Reason, e.WaitSeconds)
	}
	return e.Reason
}

func closeErr(code int, reason string) *CloseError {
	return &CloseError{Code: code, Reason: reason}
}
