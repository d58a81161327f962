// Package quota resolves a user's active subscription and the travel plan
// limit it grants.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/models"
)

// Store is the persistence for plans and user subscriptions.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockUser(ctx context.Context, userID int64) error
	GetPlan(ctx context.Context, id int64) (*models.SubscriptionPlan, error)
	ListPublicPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	GetActiveSubscription(ctx context.Context, userID int64) (*models.ActiveSubscription, error)
	CreateSubscription(ctx context.Context, s *models.UserSubscription) error
	UpdateSubscriptionStatus(ctx context.Context, id int64, status models.SubscriptionStatus) error
	ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error)
}

// Guard enforces subscription limits and manages subscriptions.
type Guard struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewGuard creates a Guard backed by store.
func NewGuard(store Store, logger *slog.Logger) *Guard {
	return &Guard{store: store, logger: logger, now: time.Now}
}

// ActivePlan returns the user's unexpired active subscription. A user without
// one gets ErrForbidden.
func (g *Guard) ActivePlan(ctx context.Context, userID int64) (*models.ActiveSubscription, error) {
	sub, err := g.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: no active subscription, please purchase a subscription", apperr.ErrForbidden)
	}
	return sub, nil
}

// Current is ActivePlan for read-only callers: no subscription is ErrNotFound.
func (g *Guard) Current(ctx context.Context, userID int64) (*models.ActiveSubscription, error) {
	sub, err := g.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: no active subscription", apperr.ErrNotFound)
	}
	return sub, nil
}

func (g *Guard) current(ctx context.Context, userID int64) (*models.ActiveSubscription, error) {
	sub, err := g.store.GetActiveSubscription(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sub.Subscription.ExpiredAt(g.now()) {
		return nil, nil
	}
	return sub, nil
}

// Limit returns the open travel plan cap of the subscription. finite is false
// when the plan is unlimited.
func Limit(sub *models.ActiveSubscription) (limit int, finite bool) {
	if sub == nil || sub.Plan.MaxSharedLocations == nil {
		return 0, false
	}
	return *sub.Plan.MaxSharedLocations, true
}

// Plans lists the publicly offered plans.
func (g *Guard) Plans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return g.store.ListPublicPlans(ctx)
}

// Assign starts a new active subscription to planID for the user. A lapsed
// active row is expired first; a live one is a conflict.
func (g *Guard) Assign(ctx context.Context, userID, planID int64) (*models.ActiveSubscription, error) {
	var out *models.ActiveSubscription
	err := g.store.InTx(ctx, func(ctx context.Context) error {
		if err := g.store.LockUser(ctx, userID); err != nil {
			return err
		}
		plan, err := g.store.GetPlan(ctx, planID)
		if err != nil {
			return err
		}

		now := g.now()
		existing, err := g.store.GetActiveSubscription(ctx, userID)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
		case err != nil:
			return err
		case existing.Subscription.ExpiredAt(now):
			if err := g.store.UpdateSubscriptionStatus(ctx, existing.Subscription.ID, models.SubscriptionExpired); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: user already has an active subscription", apperr.ErrConflict)
		}

		sub := models.UserSubscription{
			UserID:    userID,
			PlanID:    plan.ID,
			Status:    models.SubscriptionActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if plan.DurationDays > 0 {
			expires := now.AddDate(0, 0, plan.DurationDays)
			sub.ExpiresAt = &expires
		}
		if err := g.store.CreateSubscription(ctx, &sub); err != nil {
			return err
		}
		out = &models.ActiveSubscription{Subscription: sub, Plan: *plan}
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.logger.InfoContext(ctx, "subscription assigned", "user_id", userID, "plan_id", planID)
	return out, nil
}

// Cancel ends the user's active subscription.
func (g *Guard) Cancel(ctx context.Context, userID int64) error {
	return g.store.InTx(ctx, func(ctx context.Context) error {
		if err := g.store.LockUser(ctx, userID); err != nil {
			return err
		}
		sub, err := g.store.GetActiveSubscription(ctx, userID)
		if err != nil {
			return err
		}
		return g.store.UpdateSubscriptionStatus(ctx, sub.Subscription.ID, models.SubscriptionCancelled)
	})
}

// ExpireLapsed marks every lapsed active subscription as expired.
func (g *Guard) ExpireLapsed(ctx context.Context) (int64, error) {
	n, err := g.store.ExpireSubscriptions(ctx, g.now())
	if err != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}
	if n > 0 {
		g.logger.InfoContext(ctx, "expired lapsed subscriptions", "count", n)
	}
	return n, nil
}

// RunSweeper calls ExpireLapsed every interval until ctx is done.
func (g *Guard) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	g.logger.Info("subscription sweeper started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := g.ExpireLapsed(ctx); err != nil {
				g.logger.ErrorContext(ctx, "subscription sweep failed", "error", err)
			}
		}
	}
}
