package travel

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/geo"
	"github.com/01moynul/tradelink-golang/internal/models"
	"github.com/gosimple/slug"
)

// FilterCriteria narrows the tradesman search. Zero values disable a filter.
type FilterCriteria struct {
	TradeTypes     []string
	Point          *geo.Point
	RadiusKm       float64
	MinRating      *float64
	VerifiedOnly   bool
	AvailableToday bool
}

// TradesmanMatch is one tradesman in a filter result.
type TradesmanMatch struct {
	models.PublicProfile
	TradeType       string   `json:"tradeType"`
	BusinessName    *string  `json:"businessName,omitempty"`
	ShortBio        *string  `json:"shortBio,omitempty"`
	CurrentLocation *string  `json:"currentLocation,omitempty"`
	IsApproved      bool     `json:"isApproved"`
	AvgRating       float64  `json:"avgRating"`
	ReviewCount     int      `json:"reviewCount"`
	DistanceKm      *float64 `json:"distanceKm,omitempty"`
}

// ParseTradeTypes splits a comma separated trade list, dropping blanks.
func ParseTradeTypes(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FilterTradesmen applies trade, verification and availability filters in
// the store, then rating and distance in memory. With a point the result is
// ordered nearest first.
func (m *Matcher) FilterTradesmen(ctx context.Context, c FilterCriteria) ([]TradesmanMatch, error) {
	q := models.TradesmanQuery{VerifiedOnly: c.VerifiedOnly}
	for _, t := range c.TradeTypes {
		q.TradeTypeSlugs = append(q.TradeTypeSlugs, slug.Make(t))
	}
	if c.AvailableToday {
		now := m.now()
		q.AvailableAt = &now
	}
	if c.Point != nil {
		if err := c.Point.Validate(); err != nil {
			return nil, badRequest("%v", err)
		}
	}
	if !finite(c.RadiusKm) {
		return nil, badRequest("radius must be a finite number")
	}
	if c.MinRating != nil && (!finite(*c.MinRating) || *c.MinRating < 0 || *c.MinRating > maxRating) {
		return nil, badRequest("rating must be between 0 and %d", maxRating)
	}
	radius := c.RadiusKm
	if radius <= 0 {
		radius = m.defaultRadius
	}

	candidates, err := m.store.ListTradesmen(ctx, q)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(candidates))
	for i, cand := range candidates {
		ids[i] = cand.User.ID
	}
	ratings, err := m.ratings.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := []TradesmanMatch{}
	for _, cand := range candidates {
		rating := ratings[cand.User.ID]
		if c.MinRating != nil && rating.AvgRating < *c.MinRating {
			continue
		}
		match := TradesmanMatch{
			PublicProfile:   cand.User.Public(),
			TradeType:       cand.Details.TradeType,
			BusinessName:    cand.Details.BusinessName,
			ShortBio:        cand.Details.ShortBio,
			CurrentLocation: cand.Details.CurrentLocation,
			IsApproved:      cand.Details.IsApproved,
			AvgRating:       rating.AvgRating,
			ReviewCount:     rating.ReviewCount,
		}
		if c.Point != nil {
			if cand.Details.CurrentLocation == nil {
				continue
			}
			at, err := geo.ParsePoint(*cand.Details.CurrentLocation)
			if err != nil {
				m.logger.WarnContext(ctx, "skipping tradesman with unparsable location",
					"tradesman_id", cand.User.ID, "location", *cand.Details.CurrentLocation)
				continue
			}
			d := geo.DistanceKm(*c.Point, at)
			if d > radius {
				continue
			}
			match.DistanceKm = &d
		}
		out = append(out, match)
	}

	if c.Point != nil {
		sort.SliceStable(out, func(i, j int) bool { return *out[i].DistanceKm < *out[j].DistanceKm })
	}
	return out, nil
}

// Plan phases shown on a profile.
const (
	PhaseActive   = "Active"
	PhaseUpcoming = "Upcoming"
)

// Profile availability. A tradesman is Available while they have an open
// plan that has not ended, whether it has started or not.
const (
	Available   = "Available"
	Unavailable = "Unavailable"
)

// maxRating is the top of the star scale a rating filter can ask for.
const maxRating = 5

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// PlanView is a travel plan with its phase relative to now.
type PlanView struct {
	models.TravelPlan
	Phase string `json:"phase"`
}

// Profile is the public view of a tradesman.
type Profile struct {
	models.PublicProfile
	TradeType       string               `json:"tradeType"`
	BusinessName    *string              `json:"businessName,omitempty"`
	ShortBio        *string              `json:"shortBio,omitempty"`
	CurrentLocation *string              `json:"currentLocation,omitempty"`
	IsApproved      bool                 `json:"isApproved"`
	Rating          models.RatingSummary `json:"rating"`
	Availability    string               `json:"availability"`
	AvailableToday  bool                 `json:"availableToday"`
	TravelPlan      *PlanView            `json:"travelPlan"`
}

// TradesmanProfile returns the tradesman's public profile with their rating
// and the open plan that is active now or starts next.
func (m *Matcher) TradesmanProfile(ctx context.Context, tradesmanID int64) (*Profile, error) {
	if tradesmanID <= 0 {
		return nil, badRequest("invalid tradesman id")
	}
	user, err := m.store.GetUser(ctx, tradesmanID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleTradesman {
		return nil, fmt.Errorf("%w: tradesman not found", apperr.ErrNotFound)
	}
	details, err := m.store.GetTradesmanDetails(ctx, tradesmanID)
	if err != nil {
		return nil, err
	}
	rating, err := m.ratings.Summary(ctx, tradesmanID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	profile := &Profile{
		PublicProfile:   user.Public(),
		TradeType:       details.TradeType,
		BusinessName:    details.BusinessName,
		ShortBio:        details.ShortBio,
		CurrentLocation: details.CurrentLocation,
		IsApproved:      details.IsApproved,
		Rating:          rating,
		Availability:    Unavailable,
	}

	plan, err := m.store.NextOpenTravelPlan(ctx, tradesmanID, now)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		profile.Availability = Available
		view := &PlanView{TravelPlan: *plan, Phase: PhaseUpcoming}
		if plan.Covers(now) {
			view.Phase = PhaseActive
			profile.AvailableToday = true
		}
		profile.TravelPlan = view
	}
	return profile, nil
}
