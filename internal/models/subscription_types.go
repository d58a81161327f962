package models

import "time"

// SubscriptionStatus is the lifecycle state of a user subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// UserSubscription defines the model for the 'user_subscriptions' table
type UserSubscription struct {
	ID        int64              `json:"id" db:"id"`
	UserID    int64              `json:"userId" db:"user_id"`
	PlanID    int64              `json:"planId" db:"plan_id"`
	Status    SubscriptionStatus `json:"status" db:"status"`
	ExpiresAt *time.Time         `json:"expiresAt,omitempty" db:"expires_at"` // NULL never expires
	CreatedAt time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" db:"updated_at"`
}

// ExpiredAt reports whether the subscription has lapsed at t.
func (s UserSubscription) ExpiredAt(t time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(t)
}

// ActiveSubscription is a subscription joined with its plan.
type ActiveSubscription struct {
	Subscription UserSubscription `json:"subscription"`
	Plan         SubscriptionPlan `json:"plan"`
}
