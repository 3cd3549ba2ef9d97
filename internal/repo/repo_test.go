package repo

import (
	"testing"

	"sparkle-backend/internal/models"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Each test opens its own named in-memory database so rows never leak
// between tests while the pool still shares one underlying store.
func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Chat{},
		&models.Message{},
		&models.EngineCategory{},
		&models.Engine{},
		&models.Plan{},
		&models.Customer{},
		&models.Subscription{},
		&models.Project{},
		&models.Bookmark{},
		&models.UsageEvent{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}
