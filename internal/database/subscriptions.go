package database

import (
	"context"
	"time"

	"github.com/01moynul/tradelink-golang/internal/models"
)

const planColumns = `p.id, p.name, p.description, p.price, p.duration_days, p.max_shared_locations,
	p.is_public, p.created_at, p.updated_at`

func planDest(p *models.SubscriptionPlan) []any {
	return []any{&p.ID, &p.Name, &p.Description, &p.Price, &p.DurationDays, &p.MaxSharedLocations,
		&p.IsPublic, &p.CreatedAt, &p.UpdatedAt}
}

func (g *Gateway) GetPlan(ctx context.Context, id int64) (*models.SubscriptionPlan, error) {
	var p models.SubscriptionPlan
	err := g.q(ctx).QueryRowContext(ctx, "SELECT "+planColumns+" FROM subscription_plans p WHERE p.id = ?", id).
		Scan(planDest(&p)...)
	if err != nil {
		return nil, mapErr(err, "subscription plan")
	}
	return &p, nil
}

// ListPublicPlans returns the plans offered to tradesmen, cheapest first.
func (g *Gateway) ListPublicPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	rows, err := g.q(ctx).QueryContext(ctx,
		"SELECT "+planColumns+" FROM subscription_plans p WHERE p.is_public = TRUE ORDER BY p.price, p.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []models.SubscriptionPlan{}
	for rows.Next() {
		var p models.SubscriptionPlan
		if err := rows.Scan(planDest(&p)...); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// GetActiveSubscription returns the subscription row in status 'active' with
// its plan. Expiry is not checked here.
func (g *Gateway) GetActiveSubscription(ctx context.Context, userID int64) (*models.ActiveSubscription, error) {
	var a models.ActiveSubscription
	s := &a.Subscription
	dest := append([]any{&s.ID, &s.UserID, &s.PlanID, &s.Status, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt},
		planDest(&a.Plan)...)

	query := `
		SELECT s.id, s.user_id, s.plan_id, s.status, s.expires_at, s.created_at, s.updated_at, ` + planColumns + `
		FROM user_subscriptions s
		JOIN subscription_plans p ON p.id = s.plan_id
		WHERE s.user_id = ? AND s.status = 'active'`
	if err := g.q(ctx).QueryRowContext(ctx, query, userID).Scan(dest...); err != nil {
		return nil, mapErr(err, "active subscription")
	}
	return &a, nil
}

func (g *Gateway) CreateSubscription(ctx context.Context, s *models.UserSubscription) error {
	res, err := g.q(ctx).ExecContext(ctx, `
		INSERT INTO user_subscriptions (user_id, plan_id, status, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.UserID, s.PlanID, s.Status, s.ExpiresAt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return mapErr(err, "active subscription")
	}
	s.ID, err = res.LastInsertId()
	return err
}

func (g *Gateway) UpdateSubscriptionStatus(ctx context.Context, id int64, status models.SubscriptionStatus) error {
	res, err := g.q(ctx).ExecContext(ctx,
		"UPDATE user_subscriptions SET status = ?, updated_at = ? WHERE id = ?", status, time.Now(), id)
	if err != nil {
		return mapErr(err, "subscription")
	}
	return g.requireRow(ctx, res, "SELECT COUNT(*) FROM user_subscriptions WHERE id = ?", id, "subscription")
}

// ExpireSubscriptions moves every lapsed active subscription to 'expired'.
func (g *Gateway) ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	res, err := g.q(ctx).ExecContext(ctx, `
		UPDATE user_subscriptions SET status = 'expired', updated_at = ?
		WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at <= ?`, now, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
