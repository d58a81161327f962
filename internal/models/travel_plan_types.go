package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TravelPlanStatus is the visibility state of a travel plan.
type TravelPlanStatus string

const (
	TravelPlanOpen      TravelPlanStatus = "open"
	TravelPlanClosed    TravelPlanStatus = "closed"
	TravelPlanCancelled TravelPlanStatus = "cancelled"
)

// Valid reports whether s is a known plan status.
func (s TravelPlanStatus) Valid() bool {
	switch s {
	case TravelPlanOpen, TravelPlanClosed, TravelPlanCancelled:
		return true
	}
	return false
}

// MaxStops is the most intermediate stops a plan may carry.
const MaxStops = 4

// Stops is an ordered list of intermediate stops. It decodes from either a
// JSON array or a comma separated string, trimming blanks and keeping at
// most MaxStops entries.
type Stops []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Stops) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = NormalizeStops(list)
		return nil
	}
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("stops must be an array or a comma separated string")
	}
	if raw == nil {
		*s = Stops{}
		return nil
	}
	*s = NormalizeStops(strings.Split(*raw, ","))
	return nil
}

// NormalizeStops trims every entry, drops the empty ones and truncates to MaxStops.
func NormalizeStops(in []string) Stops {
	out := Stops{}
	for _, stop := range in {
		stop = strings.TrimSpace(stop)
		if stop == "" {
			continue
		}
		out = append(out, stop)
		if len(out) == MaxStops {
			break
		}
	}
	return out
}

// TravelPlan defines the model for the 'travel_plans' table
type TravelPlan struct {
	ID              int64            `json:"id" db:"id"`
	TradesmanID     int64            `json:"tradesmanId" db:"tradesman_id"`
	CurrentLocation *string          `json:"currentLocation,omitempty" db:"current_location"`
	StartLocation   string           `json:"startLocation" db:"start_location"`
	Destination     string           `json:"destination" db:"destination"`
	PriceRange      *string          `json:"priceRange,omitempty" db:"price_range"`
	AllowStops      bool             `json:"allowStops" db:"allow_stops"`
	Stops           Stops            `json:"stops" db:"stops"` // JSON column
	StartDate       time.Time        `json:"startDate" db:"start_date"`
	EndDate         time.Time        `json:"endDate" db:"end_date"`
	Status          TravelPlanStatus `json:"status" db:"status"`
	CreatedAt       time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time        `json:"updatedAt" db:"updated_at"`
}

// Overlaps reports whether the plan's date range intersects [start, end].
func (p TravelPlan) Overlaps(start, end time.Time) bool {
	return !p.StartDate.After(end) && !p.EndDate.Before(start)
}

// Covers reports whether t falls inside the plan's date range.
func (p TravelPlan) Covers(t time.Time) bool {
	return !t.Before(p.StartDate) && !t.After(p.EndDate)
}
