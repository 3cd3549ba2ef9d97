package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"sparkle-backend/internal/adapters"
	"sparkle-backend/internal/auth"
	"sparkle-backend/internal/llm"
	"sparkle-backend/internal/models"
	"sparkle-backend/internal/prompt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const testSecret = "session-test-secret"

type fakeChatRepo struct {
	chats    []*models.Chat
	messages []*models.Message
	nextID   uint64
}

func (f *fakeChatRepo) CreateChat(ctx context.Context, chat *models.Chat) error {
	f.nextID++
	chat.ID = f.nextID
	if chat.Slug == "" {
		chat.Slug = "slug-1"
	}
	f.chats = append(f.chats, chat)
	return nil
}

func (f *fakeChatRepo) GetChatBySlug(ctx context.Context, slug string, userID uint64) (*models.Chat, error) {
	for _, c := range f.chats {
		if c.Slug == slug && c.UserID == userID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeChatRepo) ListChats(ctx context.Context, userID uint64, limit int) ([]models.Chat, error) {
	return nil, nil
}

func (f *fakeChatRepo) CreateMessage(ctx context.Context, msg *models.Message) error {
	f.nextID++
	msg.ID = f.nextID
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeChatRepo) GetMessageForUser(ctx context.Context, id uint64, userID uint64) (*models.Message, error) {
	for _, m := range f.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeChatRepo) GetHistory(ctx context.Context, chatID uint64, limit int) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		if m.ChatID == chatID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) GetMessages(ctx context.Context, chatID uint64) ([]models.Message, error) {
	return f.GetHistory(ctx, chatID, 0)
}

type fakeEngineRepo struct {
	engines    []models.Engine
	defaultCat *models.EngineCategory
}

func (f *fakeEngineRepo) GetByIDs(ctx context.Context, ids []uint64) ([]models.Engine, error) {
	var out []models.Engine
	for _, id := range ids {
		for _, e := range f.engines {
			if e.ID == id {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (f *fakeEngineRepo) GetDefaultCategory(ctx context.Context) (*models.EngineCategory, error) {
	if f.defaultCat == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.defaultCat, nil
}

func (f *fakeEngineRepo) ListCategories(ctx context.Context) ([]models.EngineCategory, error) {
	return nil, nil
}

func (f *fakeEngineRepo) ListEngines(ctx context.Context, categoryID uint64) ([]models.Engine, error) {
	return f.engines, nil
}

type fakeBillingRepo struct {
	customer  *models.Customer
	consumed  int
	consumeOK bool
}

func (f *fakeBillingRepo) GetCustomerByUserID(ctx context.Context, userID uint64) (*models.Customer, error) {
	if f.customer == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.customer, nil
}

func (f *fakeBillingRepo) ConsumeDailyMessage(ctx context.Context, customerID uint64, limit int) (bool, error) {
	f.consumed++
	return f.consumeOK, nil
}

func (f *fakeBillingRepo) ConsumeProjectSlot(ctx context.Context, customerID uint64, limit int) (bool, error) {
	return true, nil
}

func (f *fakeBillingRepo) ConsumeBookmarkSlot(ctx context.Context, customerID uint64, limit int) (bool, error) {
	return true, nil
}

func (f *fakeBillingRepo) ResetDailyCounters(ctx context.Context) (int64, error) { return 0, nil }

func (f *fakeBillingRepo) CreateUsageEvent(ctx context.Context, ev *models.UsageEvent) error {
	return nil
}

type fakeClient struct {
	chunks []string
	err    error
}

func (f *fakeClient) Chat(ctx context.Context, system string, messages []llm.Message) (string, error) {
	return "", nil
}

func (f *fakeClient) ChatStream(ctx context.Context, system string, messages []llm.Message, onChunk func(string) error) (string, error) {
	var full string
	for _, c := range f.chunks {
		if err := onChunk(c); err != nil {
			return full, err
		}
		full += c
	}
	return full, f.err
}

type emptyLookup struct{}

func (emptyLookup) Lookup(service models.ExternalService) (adapters.Adapter, bool) {
	return nil, false
}

type recorder struct {
	frames []OutboundFrame
}

func (r *recorder) Emit(f OutboundFrame) error {
	r.frames = append(r.frames, f)
	return nil
}

func entitledCustomer() *models.Customer {
	return &models.Customer{
		ID:     5,
		UserID: 1,
		Subscription: &models.Subscription{
			Status: models.SubscriptionActive,
			Plan: models.Plan{
				MessagesPerDay: 50,
				Categories:     datatypes.JSON([]byte(`[1]`)),
			},
		},
	}
}

type harness struct {
	chats   *fakeChatRepo
	billing *fakeBillingRepo
	proc    *Processor
}

func newHarness(client llm.Client, billing *fakeBillingRepo, engines *fakeEngineRepo) *harness {
	chats := &fakeChatRepo{}
	assembler := prompt.NewAssembler(engines, emptyLookup{}, nil)
	proc := NewProcessor(
		chats, engines, billing,
		assembler, client, llm.NewBrandFilter("Sparkle"), nil,
		testSecret, 20,
	)
	return &harness{chats: chats, billing: billing, proc: proc}
}

func validToken(t *testing.T) string {
	t.Helper()
	token, err := auth.SignToken(1, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func defaultEngines() *fakeEngineRepo {
	return &fakeEngineRepo{
		defaultCat: &models.EngineCategory{ID: 1, SystemPrompt: "You are helpful."},
		engines: []models.Engine{
			{ID: 1, CategoryID: 1, Prompt: "be terse", Category: models.EngineCategory{ID: 1, SystemPrompt: "cat one"}},
			{ID: 2, CategoryID: 2, Prompt: "other", Category: models.EngineCategory{ID: 2, SystemPrompt: "cat two"}},
		},
	}
}

func TestRunTurn_HappyPath(t *testing.T) {
	billing := &fakeBillingRepo{customer: entitledCustomer(), consumeOK: true}
	h := newHarness(&fakeClient{chunks: []string{"Hello ", "from ChatGPT"}}, billing, defaultEngines())

	var st State
	rec := &recorder{}
	ce := h.proc.RunTurn(context.Background(), &st, InboundFrame{
		Message: "hi there",
		Token:   validToken(t),
	}, rec)
	if ce != nil {
		t.Fatalf("unexpected close: %v", ce)
	}

	if st.Chat == nil || st.Chat.Slug == "" {
		t.Fatal("chat was not created lazily")
	}
	if billing.consumed != 1 {
		t.Fatalf("daily counter consumed %d times, want 1", billing.consumed)
	}

	// one user and one engine message, brand mentions rewritten
	if len(h.chats.messages) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(h.chats.messages))
	}
	if h.chats.messages[0].Role != models.RoleUser || h.chats.messages[0].Content != "hi there" {
		t.Fatalf("unexpected user message: %+v", h.chats.messages[0])
	}
	engineMsg := h.chats.messages[1]
	if engineMsg.Role != models.RoleEngine || engineMsg.Content != "Hello from Sparkle" {
		t.Fatalf("unexpected engine message: %+v", engineMsg)
	}

	// streamed chunks in order, then the final frame with the persisted id
	if len(rec.frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(rec.frames))
	}
	if rec.frames[0].Content != "Hello " || rec.frames[1].Content != "from Sparkle" {
		t.Fatalf("unexpected chunks: %+v", rec.frames[:2])
	}
	final := rec.frames[2]
	if !final.IsEnded || final.Content != "" || final.MessageID != engineMsg.ID || final.Slug != st.Chat.Slug {
		t.Fatalf("unexpected final frame: %+v", final)
	}
}

func TestRunTurn_SecondTurnReusesChat(t *testing.T) {
	billing := &fakeBillingRepo{customer: entitledCustomer(), consumeOK: true}
	h := newHarness(&fakeClient{chunks: []string{"ok"}}, billing, defaultEngines())

	var st State
	rec := &recorder{}
	token := validToken(t)
	if ce := h.proc.RunTurn(context.Background(), &st, InboundFrame{Message: "one", Token: token}, rec); ce != nil {
		t.Fatalf("turn 1: %v", ce)
	}
	first := st.Chat.ID
	if ce := h.proc.RunTurn(context.Background(), &st, InboundFrame{Message: "two", Token: token}, rec); ce != nil {
		t.Fatalf("turn 2: %v", ce)
	}
	if st.Chat.ID != first {
		t.Fatalf("second turn opened a new chat: %d then %d", first, st.Chat.ID)
	}
	if len(h.chats.chats) != 1 {
		t.Fatalf("created %d chats, want 1", len(h.chats.chats))
	}
}

func TestRunTurn_BadToken(t *testing.T) {
	billing := &fakeBillingRepo{customer: entitledCustomer(), consumeOK: true}
	h := newHarness(&fakeClient{}, billing, defaultEngines())

	var st State
	ce := h.proc.RunTurn(context.Background(), &st, InboundFrame{Message: "hi", Token: "garbage"}, &recorder{})
	if ce == nil || ce.Code != CloseUnauthorized {
		t.Fatalf("expected 4001, got %v", ce)
	}
}

func TestRunTurn_NoCustomer(t *testing.T) {
	h := newHarness(&fakeClient{}, &fakeBillingRepo{}, defaultEngines())

	var st State
	ce := h.proc.RunTurn(context.Background(), &st, InboundFrame{Message: "hi", Token: validToken(t)}, &recorder{})
	if ce == nil || ce.Code != ClosePaymentRequired {
		t.Fatalf("expected 4002, got %v", ce)
	}
}

func TestRunTurn_DailyCapExhausted(t *testing.T) {
	customer := entitledCustomer()
	customer.MessagesSentToday = 50
	billing := &fakeBillingRepo{customer: customer, consumeOK: false}
	h := newHarness(&fakeClient{}, billing, defaultEngines())

	var st State
	ce := h.proc.RunTurn(context.Background(), &st, InboundFrame{Message: "hi", Token: validToken(t)}, &recorder{})
	if ce == nil || ce.Code != CloseQuotaExceeded {
		t.Fatalf("expected 4029, got %v", ce)
	}
	if ce.WaitSeconds <= 0 || ce.WaitSeconds > 24*60*60 {
		t.Fatalf("wait seconds out of range: %d", ce.WaitSeconds)
	}
	if len(h.chats.messages) != 0 {
		t.Fatal("message persisted despite exhausted quota")
	}
}

func TestRunTurn_EmptyMessage(t *testing.T) {
	billing := &fakeBillingRepo{customer: entitledCustomer(), consumeOK: true}
	h := newHarness(&fakeClient{}, billing, defaultEngines())

	var st State
	ce := h.proc.RunTurn(context.Background(), &st, InboundFrame{Message: "   ", Token: validToken(t)}, &recorder{})
	if ce == nil || ce.Code != CloseBadRequest {
		t.Fatalf("expected 4005, got %v", ce)
	}
	if billing.consumed != 0 {
		t.Fatal("quota consumed for an empty message")
	}
}

func TestRunTurn_ForbiddenCategory(t *testing.T) {
	billing := &fakeBillingRepo{customer: entitledCustomer(), consumeOK: true}
	h := newHarness(&fakeClient{}, billing, defaultEngines())

	// engine 2 sits in category 2; the plan only allows category 1
	var st State
	ce := h.proc.RunTurn(context.Background(), &st, InboundFrame{
		Message:     "hi",
		EnginesList: []uint64{2},
		Token:       validToken(t),
	}, &recorder{})
	if ce == nil || ce.Code != CloseForbiddenCategory {
		t.Fatalf("expected 4003, got %v", ce)
	}
	if billing.consumed != 0 {
		t.Fatal("quota consumed for a forbidden category")
	}
}

func TestRunTurn_MixedCategoriesCloseBeforeStreaming(t *testing.T) {
	customer := entitledCustomer()
	customer.Subscription.Plan.Categories = datatypes.JSON([]byte(`[1,2]`))
	billing := &fakeBillingRepo{customer: customer, consumeOK: true}
	h := newHarness(&fakeClient{chunks: []string{"never sent"}}, billing, defaultEngines())

	var st State
	rec := &recorder{}
	ce := h.proc.RunTurn(context.Background(), &st, InboundFrame{
		Message:     "hi",
		EnginesList: []uint64{1, 2},
		Token:       validToken(t),
	}, rec)
	if ce == nil || ce.Code != CloseBadRequest || ce.Reason != "mixed_categories" {
		t.Fatalf("expected 4005 mixed_categories, got %v", ce)
	}
	if len(rec.frames) != 0 {
		t.Fatalf("streamed %d frames before validation failed", len(rec.frames))
	}
}

func TestRunTurn_ReplyToNotFound(t *testing.T) {
	billing := &fakeBillingRepo{customer: entitledCustomer(), consumeOK: true}
	h := newHarness(&fakeClient{}, billing, defaultEngines())

	missing := uint64(777)
	var st State
	ce := h.proc.RunTurn(context.Background(), &st, InboundFrame{
		Message: "hi",
		ReplyTo: &missing,
		Token:   validToken(t),
	}, &recorder{})
	if ce == nil || ce.Code != CloseNotFound {
		t.Fatalf("expected 4004, got %v", ce)
	}
}

func TestChatTitle_TruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 100)
	title := chatTitle(long)
	if !utf8.ValidString(title) {
		t.Fatalf("title is not valid UTF-8: %q", title)
	}
	if got := len([]rune(title)); got != 64 {
		t.Fatalf("title length = %d runes, want 64", got)
	}

	if got := chatTitle("  short  "); got != "short" {
		t.Fatalf("short title = %q", got)
	}
	if got := chatTitle("   "); got != "New chat" {
		t.Fatalf("blank title = %q", got)
	}
}

func TestRunTurn_UpstreamFailurePersistsPartialReply(t *testing.T) {
	billing := &fakeBillingRepo{customer: entitledCustomer(), consumeOK: true}
	h := newHarness(&fakeClient{chunks: []string{"partial"}, err: errors.New("upstream died")}, billing, defaultEngines())

	var st State
	rec := &recorder{}
	ce := h.proc.RunTurn(context.Background(), &st, InboundFrame{Message: "hi", Token: validToken(t)}, rec)
	if ce != nil {
		t.Fatalf("truncated stream should not close the session: %v", ce)
	}
	if len(h.chats.messages) != 2 || h.chats.messages[1].Content != "partial" {
		t.Fatalf("partial reply not persisted: %+v", h.chats.messages)
	}
	final := rec.frames[len(rec.frames)-1]
	if !final.IsEnded {
		t.Fatalf("missing final frame: %+v", rec.frames)
	}
}
