// Package travel manages tradesmen's travel plans and matches tradesmen to
// clients by trade, rating, verification, availability and distance.
package travel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/geo"
	"github.com/01moynul/tradelink-golang/internal/models"
	"github.com/01moynul/tradelink-golang/internal/pagination"
	"github.com/01moynul/tradelink-golang/internal/quota"
)

// Store is the persistence for travel plans and tradesman lookups.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockUser(ctx context.Context, userID int64) error

	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetTradesmanDetails(ctx context.Context, userID int64) (*models.TradesmanDetails, error)
	SetCurrentLocation(ctx context.Context, userID int64, location string) error
	ListTradesmen(ctx context.Context, q models.TradesmanQuery) ([]models.TradesmanCandidate, error)

	CreateTravelPlan(ctx context.Context, p *models.TravelPlan) error
	GetTravelPlan(ctx context.Context, id int64) (*models.TravelPlan, error)
	UpdateTravelPlan(ctx context.Context, p *models.TravelPlan) error
	DeleteTravelPlan(ctx context.Context, id int64) error
	ListTravelPlansByTradesman(ctx context.Context, tradesmanID int64, limit, offset int) ([]models.TravelPlan, int, error)
	CountOpenTravelPlans(ctx context.Context, tradesmanID, excludeID int64) (int, error)
	FindOverlappingOpenPlan(ctx context.Context, tradesmanID int64, start, end time.Time, excludeID int64) (*models.TravelPlan, error)
	NextOpenTravelPlan(ctx context.Context, tradesmanID int64, now time.Time) (*models.TravelPlan, error)
}

// QuotaSource resolves the subscription that caps a tradesman's open plans.
type QuotaSource interface {
	ActivePlan(ctx context.Context, userID int64) (*models.ActiveSubscription, error)
}

// RatingSource aggregates received reviews.
type RatingSource interface {
	Summary(ctx context.Context, userID int64) (models.RatingSummary, error)
	Summaries(ctx context.Context, userIDs []int64) (map[int64]models.RatingSummary, error)
}

// Matcher owns travel plans and the tradesman search.
type Matcher struct {
	store         Store
	quota         QuotaSource
	ratings       RatingSource
	defaultRadius float64
	logger        *slog.Logger
	now           func() time.Time
}

// NewMatcher creates a Matcher. A non-positive radius given to FilterTradesmen
// falls back to defaultRadiusKm.
func NewMatcher(store Store, quota QuotaSource, ratings RatingSource, defaultRadiusKm float64, logger *slog.Logger) *Matcher {
	return &Matcher{
		store:         store,
		quota:         quota,
		ratings:       ratings,
		defaultRadius: defaultRadiusKm,
		logger:        logger,
		now:           time.Now,
	}
}

// PlanInput carries the writable fields of a travel plan. Nil fields are left
// unchanged on update; create requires the route and the dates.
type PlanInput struct {
	CurrentLocation *string
	StartLocation   *string
	Destination     *string
	PriceRange      *string
	AllowStops      *bool
	Stops           *models.Stops
	StartDate       *time.Time
	EndDate         *time.Time
	Status          *models.TravelPlanStatus
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{apperr.ErrBadRequest}, args...)...)
}

func requireTradesman(actor models.Actor) error {
	if !actor.Is(models.RoleTradesman) {
		return fmt.Errorf("%w: only tradesmen can manage travel plans", apperr.ErrForbidden)
	}
	return nil
}

// normalizeLocation validates a "lat,lng" string and returns its canonical form.
func normalizeLocation(raw string) (string, error) {
	p, err := geo.ParsePoint(raw)
	if err != nil {
		return "", badRequest("currentLocation: %v", err)
	}
	return p.String(), nil
}

func (m *Matcher) apply(p *models.TravelPlan, in PlanInput) error {
	if in.CurrentLocation != nil {
		loc, err := normalizeLocation(*in.CurrentLocation)
		if err != nil {
			return err
		}
		p.CurrentLocation = &loc
	}
	if in.StartLocation != nil {
		p.StartLocation = strings.TrimSpace(*in.StartLocation)
	}
	if in.Destination != nil {
		p.Destination = strings.TrimSpace(*in.Destination)
	}
	if in.PriceRange != nil {
		p.PriceRange = in.PriceRange
	}
	if in.AllowStops != nil {
		p.AllowStops = *in.AllowStops
	}
	if in.Stops != nil {
		p.Stops = models.NormalizeStops(*in.Stops)
	}
	if in.StartDate != nil {
		p.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		p.EndDate = *in.EndDate
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return badRequest("status must be open, closed or cancelled")
		}
		p.Status = *in.Status
	}

	if p.StartLocation == "" || p.Destination == "" {
		return badRequest("startLocation and destination are required")
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return badRequest("startDate and endDate are required")
	}
	if p.EndDate.Before(p.StartDate) {
		return badRequest("endDate must not be before startDate")
	}
	return nil
}

// checkOpen enforces the plan quota and the no-overlap rule for a plan that
// will be open. excludeID is the plan itself on update.
func (m *Matcher) checkOpen(ctx context.Context, p *models.TravelPlan, excludeID int64) error {
	sub, err := m.quota.ActivePlan(ctx, p.TradesmanID)
	if err != nil {
		return err
	}
	if limit, finite := quota.Limit(sub); finite {
		open, err := m.store.CountOpenTravelPlans(ctx, p.TradesmanID, excludeID)
		if err != nil {
			return err
		}
		if open >= limit {
			return fmt.Errorf("%w: limit reached (%d), upgrade your plan", apperr.ErrQuotaExceeded, limit)
		}
	}

	clash, err := m.store.FindOverlappingOpenPlan(ctx, p.TradesmanID, p.StartDate, p.EndDate, excludeID)
	if err != nil {
		return err
	}
	if clash != nil {
		return fmt.Errorf("%w: dates overlap your open plan from %s to %s (id %d)", apperr.ErrConflict,
			clash.StartDate.Format(time.DateOnly), clash.EndDate.Format(time.DateOnly), clash.ID)
	}
	return nil
}

// CreatePlan shares a new open travel plan for the tradesman.
func (m *Matcher) CreatePlan(ctx context.Context, actor models.Actor, in PlanInput) (*models.TravelPlan, error) {
	if err := requireTradesman(actor); err != nil {
		return nil, err
	}
	now := m.now()
	plan := &models.TravelPlan{
		TradesmanID: actor.ID,
		Stops:       models.Stops{},
		Status:      models.TravelPlanOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	in.Status = nil // new plans are always open
	if err := m.apply(plan, in); err != nil {
		return nil, err
	}

	err := m.store.InTx(ctx, func(ctx context.Context) error {
		if err := m.store.LockUser(ctx, actor.ID); err != nil {
			return err
		}
		if err := m.checkOpen(ctx, plan, 0); err != nil {
			return err
		}
		if err := m.store.CreateTravelPlan(ctx, plan); err != nil {
			return err
		}
		if plan.CurrentLocation != nil {
			return m.store.SetCurrentLocation(ctx, actor.ID, *plan.CurrentLocation)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.InfoContext(ctx, "travel plan created", "plan_id", plan.ID, "tradesman_id", actor.ID)
	return plan, nil
}

// ListMine returns one page of the tradesman's plans.
func (m *Matcher) ListMine(ctx context.Context, actor models.Actor, p pagination.Params) (pagination.Page[models.TravelPlan], error) {
	if err := requireTradesman(actor); err != nil {
		return pagination.Page[models.TravelPlan]{}, err
	}
	plans, total, err := m.store.ListTravelPlansByTradesman(ctx, actor.ID, p.Limit, p.Offset())
	if err != nil {
		return pagination.Page[models.TravelPlan]{}, err
	}
	return pagination.New(plans, total, p), nil
}

// ownedPlan loads a plan inside a transaction and checks the actor owns it.
func (m *Matcher) ownedPlan(ctx context.Context, actor models.Actor, planID int64) (*models.TravelPlan, error) {
	plan, err := m.store.GetTravelPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.TradesmanID != actor.ID {
		return nil, fmt.Errorf("%w: travel plan belongs to another tradesman", apperr.ErrForbidden)
	}
	return plan, nil
}

// UpdatePlan edits a plan. A plan that ends up open is re-checked against the
// quota and for overlaps, excluding itself.
func (m *Matcher) UpdatePlan(ctx context.Context, actor models.Actor, planID int64, in PlanInput) (*models.TravelPlan, error) {
	if err := requireTradesman(actor); err != nil {
		return nil, err
	}
	var plan *models.TravelPlan
	err := m.store.InTx(ctx, func(ctx context.Context) error {
		if err := m.store.LockUser(ctx, actor.ID); err != nil {
			return err
		}
		var err error
		if plan, err = m.ownedPlan(ctx, actor, planID); err != nil {
			return err
		}
		if err := m.apply(plan, in); err != nil {
			return err
		}
		plan.UpdatedAt = m.now()
		if plan.Status == models.TravelPlanOpen {
			if err := m.checkOpen(ctx, plan, plan.ID); err != nil {
				return err
			}
		}
		if err := m.store.UpdateTravelPlan(ctx, plan); err != nil {
			return err
		}
		if in.CurrentLocation != nil {
			return m.store.SetCurrentLocation(ctx, actor.ID, *plan.CurrentLocation)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// DeletePlan removes one of the tradesman's plans.
func (m *Matcher) DeletePlan(ctx context.Context, actor models.Actor, planID int64) error {
	if err := requireTradesman(actor); err != nil {
		return err
	}
	return m.store.InTx(ctx, func(ctx context.Context) error {
		if _, err := m.ownedPlan(ctx, actor, planID); err != nil {
			return err
		}
		return m.store.DeleteTravelPlan(ctx, planID)
	})
}
