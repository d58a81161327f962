package models

import "time"

// SubscriptionPlan defines the model for the 'subscription_plans' table
type SubscriptionPlan struct {
	ID           int64   `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	Description  string  `json:"description" db:"description"`
	Price        float64 `json:"price" db:"price"`
	DurationDays int     `json:"durationDays" db:"duration_days"`
	// MaxSharedLocations caps open travel plans. NULL means unlimited.
	MaxSharedLocations *int      `json:"maxSharedLocations" db:"max_shared_locations"`
	IsPublic           bool      `json:"isPublic" db:"is_public"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}
