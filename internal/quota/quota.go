// Package quota holds the pure entitlement decision. It must run before
// any persistence or external call in a turn.
package quota

import "sparkle-backend/internal/models"

type DenyReason string

const (
	DenyNoSubscription DenyReason = "no_active_subscription"
	DenyDailyCap       DenyReason = "daily_message_cap"
	DenyCategory       DenyReason = "category_forbidden"
)

type Decision struct {
	Allow  bool
	Reason DenyReason
}

func allow() Decision            { return Decision{Allow: true} }
func deny(r DenyReason) Decision { return Decision{Reason: r} }

// Check decides whether the customer may send a message through the
// requested engines. The customer must carry its subscription and plan.
// The daily counter is consumed separately by an atomic conditional
// update; this read-side check exists to fail fast.
func Check(c *models.Customer, engines []models.Engine) Decision {
	if c == nil || !c.Entitled() {
		return deny(DenyNoSubscription)
	}
	plan := &c.Subscription.Plan
	if c.MessagesSentToday >= plan.MessagesPerDay {
		return deny(DenyDailyCap)
	}
	for _, e := range engines {
		if !plan.AllowsCategory(e.CategoryID) {
			return deny(DenyCategory)
		}
	}
	return allow()
}
