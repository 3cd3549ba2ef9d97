package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"sparkle-backend/internal/auth"
	"sparkle-backend/internal/events"
	"sparkle-backend/internal/llm"
	"sparkle-backend/internal/models"
	"sparkle-backend/internal/prompt"
	"sparkle-backend/internal/quota"
	"sparkle-backend/internal/repo"

	"gorm.io/gorm"
)

// Emitter forwards one outbound frame to the client. The websocket session
// implements it; tests substitute a recorder.
type Emitter interface {
	Emit(f OutboundFrame) error
}

// State is what a session remembers across turns: who authenticated and
// which chat the turns belong to.
type State struct {
	UserID     uint64
	CustomerID uint64
	Chat       *models.Chat
}

// Processor runs one turn of the session state machine:
// AUTHENTICATING -> VALIDATING -> ASSEMBLING -> STREAMING -> PERSISTING.
// It is transport-independent; the websocket layer owns the connection and
// the idle timer.
type Processor struct {
	chats     repo.ChatRepoInterface
	engines   repo.EngineRepoInterface
	billing   repo.BillingRepoInterface
	assembler *prompt.Assembler
	client    llm.Client
	filter    *llm.BrandFilter
	publisher *events.Publisher // nil when the queue is not configured

	jwtSecret     string
	historyWindow int
}

func NewProcessor(
	chats repo.ChatRepoInterface,
	engines repo.EngineRepoInterface,
	billing repo.BillingRepoInterface,
	assembler *prompt.Assembler,
	client llm.Client,
	filter *llm.BrandFilter,
	publisher *events.Publisher,
	jwtSecret string,
	historyWindow int,
) *Processor {
	return &Processor{
		chats:         chats,
		engines:       engines,
		billing:       billing,
		assembler:     assembler,
		client:        client,
		filter:        filter,
		publisher:     publisher,
		jwtSecret:     jwtSecret,
		historyWindow: historyWindow,
	}
}

// RunTurn processes one inbound frame. A non-nil return closes the session
// with that code; nil means the turn completed and the session stays ACTIVE.
func (p *Processor) RunTurn(ctx context.Context, st *State, f InboundFrame, em Emitter) *CloseError {
	// AUTHENTICATING: every frame re-validates its bearer token.
	userID, err := auth.ValidateToken(f.Token, p.jwtSecret)
	if err != nil {
		return closeErr(CloseUnauthorized, "unauthorized")
	}
	st.UserID = userID

	// VALIDATING, in order: subscription, daily cap, message text,
	// categories, reply-to. Each check is a hard stop.
	customer, err := p.billing.GetCustomerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return closeErr(ClosePaymentRequired, string(quota.DenyNoSubscription))
		}
		log.Printf("load customer %d: %v", userID, err)
		return closeErr(CloseInternal, "internal_error")
	}
	st.CustomerID = customer.ID

	if d := quota.Check(customer, nil); !d.Allow {
		return p.denyClose(d)
	}

	if strings.TrimSpace(f.Message) == "" {
		return closeErr(CloseBadRequest, "empty_message")
	}

	var requested []models.Engine
	if len(f.EnginesList) > 0 {
		requested, err = p.engines.GetByIDs(ctx, f.EnginesList)
		if err != nil {
			log.Printf("load engines: %v", err)
			return closeErr(CloseInternal, "internal_error")
		}
	}
	if d := quota.Check(customer, requested); !d.Allow {
		return p.denyClose(d)
	}

	var replyText string
	if f.ReplyTo != nil {
		replied, err := p.chats.GetMessageForUser(ctx, *f.ReplyTo, userID)
		if err != nil {
			return closeErr(CloseNotFound, "reply_to_not_found")
		}
		replyText = replied.Content
	}

	// Consume the daily slot with a single conditional increment so
	// concurrent sessions of one customer cannot overshoot the cap.
	plan := &customer.Subscription.Plan
	consumed, err := p.billing.ConsumeDailyMessage(ctx, customer.ID, plan.MessagesPerDay)
	if err != nil {
		log.Printf("consume daily message: %v", err)
		return closeErr(CloseInternal, "internal_error")
	}
	if !consumed {
		return p.denyClose(quota.Decision{Reason: quota.DenyDailyCap})
	}

	chat, ce := p.resolveChat(ctx, st, f)
	if ce != nil {
		return ce
	}

	history, err := p.chats.GetHistory(ctx, chat.ID, p.historyWindow)
	if err != nil {
		log.Printf("load history: %v", err)
		return closeErr(CloseInternal, "internal_error")
	}

	// The user message is persisted before streaming begins.
	userMsg := &models.Message{
		ChatID:    chat.ID,
		Role:      models.RoleUser,
		Content:   f.Message,
		ReplyToID: f.ReplyTo,
		Engines:   requested,
	}
	if err := p.chats.CreateMessage(ctx, userMsg); err != nil {
		log.Printf("persist user message: %v", err)
		return closeErr(CloseInternal, "internal_error")
	}

	// ASSEMBLING
	finalMessage, systemPrompt, err := p.assembler.Assemble(ctx, f.Message, f.EnginesList, replyText)
	if err != nil {
		switch {
		case errors.Is(err, prompt.ErrEnginesNotFound),
			errors.Is(err, prompt.ErrMixedCategories),
			errors.Is(err, prompt.ErrNoValidData):
			return closeErr(CloseBadRequest, err.Error())
		default:
			log.Printf("assemble prompt: %v", err)
			return closeErr(CloseInternal, "internal_error")
		}
	}

	messages := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		role := llm.RoleUser
		if m.Role == models.RoleEngine {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: finalMessage})

	// STREAMING: chunks go out in upstream order, one frame per chunk,
	// brand-filtered. An upstream failure truncates; whatever accumulated
	// is persisted and the session stays open.
	reply, streamErr := p.client.ChatStream(ctx, systemPrompt, messages, func(chunk string) error {
		return em.Emit(OutboundFrame{
			Content: p.filter.Rewrite(chunk),
			Slug:    chat.Slug,
		})
	})
	if streamErr != nil {
		log.Printf("upstream stream for chat %s truncated: %v", chat.Slug, streamErr)
	}

	// PERSISTING
	engineMsg := &models.Message{
		ChatID:  chat.ID,
		Role:    models.RoleEngine,
		Content: p.filter.Rewrite(reply),
		Engines: requested,
	}
	if err := p.chats.CreateMessage(ctx, engineMsg); err != nil {
		log.Printf("persist engine message: %v", err)
		return closeErr(CloseInternal, "internal_error")
	}

	if p.publisher != nil {
		ev := events.NewTurnEvent(customer.ID, chat.Slug, engineMsg.ID)
		if err := p.publisher.PublishTurn(ctx, ev); err != nil {
			log.Printf("publish usage event %s: %v", ev.ID, err)
		}
	}

	if err := em.Emit(OutboundFrame{
		Slug:      chat.Slug,
		MessageID: engineMsg.ID,
		IsEnded:   true,
	}); err != nil {
		log.Printf("final frame for chat %s: %v", chat.Slug, err)
	}
	return nil
}

// resolveChat reuses the session's chat, looks up a supplied slug, or
// creates the chat lazily on the first message.
func (p *Processor) resolveChat(ctx context.Context, st *State, f InboundFrame) (*models.Chat, *CloseError) {
	if st.Chat != nil {
		return st.Chat, nil
	}

	if f.Slug != "" {
		chat, err := p.chats.GetChatBySlug(ctx, f.Slug, st.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, closeErr(CloseNotFound, "chat_not_found")
			}
			log.Printf("load chat %s: %v", f.Slug, err)
			return nil, closeErr(CloseInternal, "internal_error")
		}
		st.Chat = chat
		return chat, nil
	}

	chat := &models.Chat{
		UserID: st.UserID,
		Title:  chatTitle(f.Message),
	}
	if err := p.chats.CreateChat(ctx, chat); err != nil {
		log.Printf("create chat: %v", err)
		return nil, closeErr(CloseInternal, "internal_error")
	}
	st.Chat = chat
	return chat, nil
}

func (p *Processor) denyClose(d quota.Decision) *CloseError {
	switch d.Reason {
	case quota.DenyNoSubscription:
		return closeErr(ClosePaymentRequired, string(d.Reason))
	case quota.DenyDailyCap:
		ce := closeErr(CloseQuotaExceeded, string(d.Reason))
		ce.WaitSeconds = secondsUntilMidnightUTC(time.Now())
		return ce
	case quota.DenyCategory:
		return closeErr(CloseForbiddenCategory, string(d.Reason))
	default:
		return closeErr(CloseInternal, "internal_error")
	}
}

// secondsUntilMidnightUTC is the wait hint on quota closes; counters reset
// shortly after midnight UTC.
func secondsUntilMidnightUTC(now time.Time) int {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return int(midnight.Sub(now).Seconds())
}

// chatTitle derives the lazy chat's title from the first message,
// truncated on a rune boundary.
func chatTitle(message string) string {
	title := strings.TrimSpace(message)
	if r := []rune(title); len(r) > 64 {
		title = string(r[:64])
	}
	if title == "" {
		title = "New chat"
	}
	return title
}
