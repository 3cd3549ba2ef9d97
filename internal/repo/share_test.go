package repo

import (
	"context"
	"errors"
	"testing"

	"sparkle-backend/internal/models"

	"gorm.io/gorm"
)

func TestEnsureChatShareKey_Idempotent(t *testing.T) {
	db := openTestDB(t, "share_chat")
	chats := NewChatRepository(db)
	shares := NewShareRepository(db)
	ctx := context.Background()

	chat := &models.Chat{UserID: 1, Title: "shared"}
	if err := chats.CreateChat(ctx, chat); err != nil {
		t.Fatalf("create chat: %v", err)
	}

	first, err := shares.EnsureChatShareKey(ctx, chat.Slug, 1)
	if err != nil {
		t.Fatalf("first share: %v", err)
	}
	if first == "" {
		t.Fatal("expected a share key")
	}

	second, err := shares.EnsureChatShareKey(ctx, chat.Slug, 1)
	if err != nil {
		t.Fatalf("second share: %v", err)
	}
	if second != first {
		t.Fatalf("share key changed: %q then %q", first, second)
	}
}

func TestEnsureKey_LostRaceReturnsWinnersKey(t *testing.T) {
	db := openTestDB(t, "share_race")
	chats := NewChatRepository(db)
	ctx := context.Background()

	chat := &models.Chat{UserID: 1, Title: "contended"}
	if err := chats.CreateChat(ctx, chat); err != nil {
		t.Fatalf("create chat: %v", err)
	}

	// Another request generates the key between this caller's read and its
	// conditional update.
	const winner = "11111111-2222-3333-4444-555555555555"
	if err := db.Model(&models.Chat{ID: chat.ID}).
		UpdateColumn("share_key", winner).Error; err != nil {
		t.Fatalf("seed winning key: %v", err)
	}

	r := &ShareRepo{db: db}
	stale := &models.Chat{ID: chat.ID} // loaded before the winner wrote
	key, err := r.ensureKey(ctx, stale, nil)
	if err != nil {
		t.Fatalf("ensure key: %v", err)
	}
	if key != winner {
		t.Fatalf("key = %q, want the winner's %q", key, winner)
	}

	var reloaded models.Chat
	if err := db.First(&reloaded, chat.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ShareKey == nil || *reloaded.ShareKey != winner {
		t.Fatalf("winner's key overwritten: %+v", reloaded.ShareKey)
	}
}

func TestEnsureChatShareKey_OwnerOnly(t *testing.T) {
	db := openTestDB(t, "share_owner")
	chats := NewChatRepository(db)
	shares := NewShareRepository(db)
	ctx := context.Background()

	chat := &models.Chat{UserID: 1, Title: "shared"}
	if err := chats.CreateChat(ctx, chat); err != nil {
		t.Fatalf("create chat: %v", err)
	}

	if _, err := shares.EnsureChatShareKey(ctx, chat.Slug, 2); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("non-owner generated a share key: %v", err)
	}
}

func TestGetChatByShareKey_AndViewer(t *testing.T) {
	db := openTestDB(t, "share_viewer")
	chats := NewChatRepository(db)
	shares := NewShareRepository(db)
	ctx := context.Background()

	owner := &models.User{Email: "owner@example.com", PasswordHash: "x"}
	visitor := &models.User{Email: "visitor@example.com", PasswordHash: "x"}
	if err := db.Create(owner).Error; err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	if err := db.Create(visitor).Error; err != nil {
		t.Fatalf("seed visitor: %v", err)
	}

	chat := &models.Chat{UserID: owner.ID, Title: "shared"}
	if err := chats.CreateChat(ctx, chat); err != nil {
		t.Fatalf("create chat: %v", err)
	}
	key, err := shares.EnsureChatShareKey(ctx, chat.Slug, owner.ID)
	if err != nil {
		t.Fatalf("share: %v", err)
	}

	got, err := shares.GetChatByShareKey(ctx, key)
	if err != nil {
		t.Fatalf("get by key: %v", err)
	}
	if got.ID != chat.ID {
		t.Fatalf("resolved chat %d, want %d", got.ID, chat.ID)
	}

	if err := shares.AddChatViewer(ctx, chat.ID, visitor.ID); err != nil {
		t.Fatalf("add viewer: %v", err)
	}

	var reloaded models.Chat
	if err := db.Preload("Viewers").First(&reloaded, chat.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Viewers) != 1 || reloaded.Viewers[0].ID != visitor.ID {
		t.Fatalf("unexpected viewers: %+v", reloaded.Viewers)
	}
}

func TestEnsureProjectAndBookmarkShareKeys(t *testing.T) {
	db := openTestDB(t, "share_workspace")
	shares := NewShareRepository(db)
	workspace := NewWorkspaceRepository(db)
	ctx := context.Background()

	project := &models.Project{UserID: 1, Name: "alpha"}
	if err := workspace.CreateProject(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	bookmark := &models.Bookmark{UserID: 1, Name: "saved"}
	if err := workspace.CreateBookmark(ctx, bookmark); err != nil {
		t.Fatalf("create bookmark: %v", err)
	}

	pk, err := shares.EnsureProjectShareKey(ctx, project.ID, 1)
	if err != nil || pk == "" {
		t.Fatalf("project share: %q %v", pk, err)
	}
	bk, err := shares.EnsureBookmarkShareKey(ctx, bookmark.ID, 1)
	if err != nil || bk == "" {
		t.Fatalf("bookmark share: %q %v", bk, err)
	}
	if pk == bk {
		t.Fatal("project and bookmark share one key")
	}
}
