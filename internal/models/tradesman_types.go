package models

import "time"

// TradesmanDetails defines the model for the 'tradesman_details' table.
// A row exists only for users with the tradesman role.
type TradesmanDetails struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"userId" db:"user_id"`
	TradeType       string    `json:"tradeType" db:"trade_type"`
	TradeTypeSlug   string    `json:"tradeTypeSlug" db:"trade_type_slug"`
	BusinessName    *string   `json:"businessName,omitempty" db:"business_name"`
	ShortBio        *string   `json:"shortBio,omitempty" db:"short_bio"`
	CurrentLocation *string   `json:"currentLocation,omitempty" db:"current_location"` // "lat,lng"
	IsApproved      bool      `json:"isApproved" db:"is_approved"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// TradesmanCandidate is a tradesman user joined with their details row.
type TradesmanCandidate struct {
	User    User             `json:"user"`
	Details TradesmanDetails `json:"details"`
}

// TradesmanQuery narrows the set of tradesmen returned by the store.
type TradesmanQuery struct {
	TradeTypeSlugs []string
	VerifiedOnly   bool
	// AvailableAt keeps only tradesmen with an open travel plan covering this instant.
	AvailableAt *time.Time
}
