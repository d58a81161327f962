package models

import "time"

// TradeType defines the struct for the 'trade_types' table
type TradeType struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	Category  *string   `json:"category,omitempty" db:"category"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// TradeTypeQuery filters the trade catalogue.
type TradeTypeQuery struct {
	Search   string
	Category string
}
