package models

import "time"

// Review defines the model for the 'reviews' table. Role is the role of the
// author; at most one review exists per (hire, role).
type Review struct {
	ID         int64     `json:"id" db:"id"`
	HireID     int64     `json:"hireId" db:"hire_id"`
	FromUserID int64     `json:"fromUserId" db:"from_user_id"`
	ToUserID   int64     `json:"toUserId" db:"to_user_id"`
	Role       Role      `json:"role" db:"role"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// RatingSummary aggregates the reviews a user has received.
type RatingSummary struct {
	AvgRating   float64 `json:"avgRating"`
	ReviewCount int     `json:"reviewCount"`
}
