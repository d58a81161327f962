package models

import "time"

// HireStatus is the state of a hire engagement.
type HireStatus string

const (
	HirePending             HireStatus = "pending"
	HireAccepted            HireStatus = "accepted"
	HireCompletionRequested HireStatus = "completion_requested"
	HireCompleted           HireStatus = "completed"
	HireRejected            HireStatus = "rejected"
	HireCancelled           HireStatus = "cancelled"
)

// Hire defines the model for the 'hires' table
type Hire struct {
	ID             int64      `json:"id" db:"id"`
	ClientID       int64      `json:"clientId" db:"client_id"`
	TradesmanID    int64      `json:"tradesmanId" db:"tradesman_id"`
	Status         HireStatus `json:"status" db:"status"`
	JobDescription *string    `json:"jobDescription,omitempty" db:"job_description"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}

// Involves reports whether the user is either party to the hire.
func (h Hire) Involves(userID int64) bool {
	return h.ClientID == userID || h.TradesmanID == userID
}

// HireQuery narrows the hires returned by the store. Zero fields are ignored;
// a zero Limit returns every match.
type HireQuery struct {
	ClientID    int64
	TradesmanID int64
	Statuses    []HireStatus
	Limit       int
	Offset      int
}
