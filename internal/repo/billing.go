package repo

import (
	"context"
	"sparkle-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BillingRepo struct {
	db *gorm.DB
}

type BillingRepoInterface interface {
	GetCustomerByUserID(ctx context.Context, userID uint64) (*models.Customer, error)
	ConsumeDailyMessage(ctx context.Context, customerID uint64, limit int) (bool, error)
	ConsumeProjectSlot(ctx context.Context, customerID uint64, limit int) (bool, error)
	ConsumeBookmarkSlot(ctx context.Context, customerID uint64, limit int) (bool, error)
	ResetDailyCounters(ctx context.Context) (int64, error)
	CreateUsageEvent(ctx context.Context, ev *models.UsageEvent) error
}

func NewBillingRepository(db *gorm.DB) BillingRepoInterface {
	return &BillingRepo{db: db}
}

func (r *BillingRepo) GetCustomerByUserID(ctx context.Context, userID uint64) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.WithContext(ctx).
		Preload("Subscription.Plan").
		Where("user_id = ?", userID).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ConsumeDailyMessage increments the daily counter only while it is below
// the plan limit. Check and increment are one conditional UPDATE, so
// concurrent sessions of the same customer cannot overshoot the cap.
func (r *BillingRepo) ConsumeDailyMessage(ctx context.Context, customerID uint64, limit int) (bool, error) {
	return r.consume(ctx, customerID, "messages_sent_today", limit)
}

func (r *BillingRepo) ConsumeProjectSlot(ctx context.Context, customerID uint64, limit int) (bool, error) {
	return r.consume(ctx, customerID, "projects_created", limit)
}

func (r *BillingRepo) ConsumeBookmarkSlot(ctx context.Context, customerID uint64, limit int) (bool, error) {
	return r.consume(ctx, customerID, "bookmarks_created", limit)
}

func (r *BillingRepo) consume(ctx context.Context, customerID uint64, column string, limit int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ? AND "+column+" < ?", customerID, limit).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ResetDailyCounters zeroes every customer's daily message count. Only the
// worker calls this; sessions never reset counters.
func (r *BillingRepo) ResetDailyCounters(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("messages_sent_today > 0").
		UpdateColumn("messages_sent_today", 0)
	return res.RowsAffected, res.Error
}

// CreateUsageEvent is idempotent on the event's ULID, so a redelivered
// queue message does not duplicate the audit row.
func (r *BillingRepo) CreateUsageEvent(ctx context.Context, ev *models.UsageEvent) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(ev).Error
}
