package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/tradelink-golang/internal/models"
)

const userColumns = "u.id, u.role, u.name, u.email, u.mobile, u.profile_image, u.created_at, u.updated_at"

const detailsColumns = `d.id, d.user_id, d.trade_type, d.trade_type_slug, d.business_name, d.short_bio,
	d.current_location, d.is_approved, d.created_at, d.updated_at`

func scanUser(row rowScanner, u *models.User, extra ...any) error {
	dest := []any{&u.ID, &u.Role, &u.Name, &u.Email, &u.Mobile, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt}
	return row.Scan(append(dest, extra...)...)
}

func detailsDest(d *models.TradesmanDetails) []any {
	return []any{&d.ID, &d.UserID, &d.TradeType, &d.TradeTypeSlug, &d.BusinessName, &d.ShortBio,
		&d.CurrentLocation, &d.IsApproved, &d.CreatedAt, &d.UpdatedAt}
}

// GetUser returns the user with the given id.
func (g *Gateway) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	row := g.q(ctx).QueryRowContext(ctx, "SELECT "+userColumns+" FROM users u WHERE u.id = ?", id)
	if err := scanUser(row, &u); err != nil {
		return nil, mapErr(err, "user")
	}
	return &u, nil
}

// ListUsersByIDs returns the users that exist among ids, in id order.
func (g *Gateway) ListUsersByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	query := "SELECT " + userColumns + " FROM users u WHERE u.id IN (" + placeholders(len(ids)) + ") ORDER BY u.id"
	rows, err := g.q(ctx).QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (g *Gateway) GetTradesmanDetails(ctx context.Context, userID int64) (*models.TradesmanDetails, error) {
	var d models.TradesmanDetails
	query := "SELECT " + detailsColumns + " FROM tradesman_details d WHERE d.user_id = ?"
	if err := g.q(ctx).QueryRowContext(ctx, query, userID).Scan(detailsDest(&d)...); err != nil {
		return nil, mapErr(err, "tradesman details")
	}
	return &d, nil
}

// UpsertTradesmanDetails writes the profile fields of a tradesman. The
// approval flag and current location of an existing row are left untouched.
func (g *Gateway) UpsertTradesmanDetails(ctx context.Context, d *models.TradesmanDetails) error {
	query := `
		INSERT INTO tradesman_details
		(user_id, trade_type, trade_type_slug, business_name, short_bio, is_approved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, FALSE, ?, ?)
		ON DUPLICATE KEY UPDATE
			trade_type = VALUES(trade_type),
			trade_type_slug = VALUES(trade_type_slug),
			business_name = VALUES(business_name),
			short_bio = VALUES(short_bio),
			updated_at = VALUES(updated_at)`
	_, err := g.q(ctx).ExecContext(ctx, query,
		d.UserID, d.TradeType, d.TradeTypeSlug, d.BusinessName, d.ShortBio, d.CreatedAt, d.UpdatedAt)
	return mapErr(err, "tradesman details")
}

// SetTradesmanApproval flips the approval flag of a tradesman.
func (g *Gateway) SetTradesmanApproval(ctx context.Context, userID int64, approved bool) error {
	res, err := g.q(ctx).ExecContext(ctx,
		"UPDATE tradesman_details SET is_approved = ?, updated_at = ? WHERE user_id = ?",
		approved, time.Now(), userID)
	if err != nil {
		return err
	}
	return g.requireRow(ctx, res, "SELECT COUNT(*) FROM tradesman_details WHERE user_id = ?", userID, "tradesman")
}

// SetCurrentLocation stores the last reported "lat,lng" of a tradesman.
func (g *Gateway) SetCurrentLocation(ctx context.Context, userID int64, location string) error {
	res, err := g.q(ctx).ExecContext(ctx,
		"UPDATE tradesman_details SET current_location = ?, updated_at = ? WHERE user_id = ?",
		location, time.Now(), userID)
	if err != nil {
		return err
	}
	return g.requireRow(ctx, res, "SELECT COUNT(*) FROM tradesman_details WHERE user_id = ?", userID, "tradesman details")
}

// ListTradesmen returns tradesmen with their details row, narrowed by q.
func (g *Gateway) ListTradesmen(ctx context.Context, q models.TradesmanQuery) ([]models.TradesmanCandidate, error) {
	var (
		where = []string{"u.role = 'tradesman'"}
		args  []any
	)
	if len(q.TradeTypeSlugs) > 0 {
		where = append(where, "d.trade_type_slug IN ("+placeholders(len(q.TradeTypeSlugs))+")")
		for _, s := range q.TradeTypeSlugs {
			args = append(args, s)
		}
	}
	if q.VerifiedOnly {
		where = append(where, "d.is_approved = TRUE")
	}
	if q.AvailableAt != nil {
		where = append(where, `EXISTS (
			SELECT 1 FROM travel_plans tp
			WHERE tp.tradesman_id = u.id AND tp.status = 'open'
			AND tp.start_date <= ? AND tp.end_date >= ?)`)
		args = append(args, *q.AvailableAt, *q.AvailableAt)
	}

	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM users u
		JOIN tradesman_details d ON d.user_id = u.id
		WHERE %s
		ORDER BY u.id`, userColumns, detailsColumns, strings.Join(where, " AND "))

	return g.queryCandidates(ctx, query, args...)
}

// ListPendingTradesmen returns unapproved tradesmen, oldest first, plus the total.
func (g *Gateway) ListPendingTradesmen(ctx context.Context, limit, offset int) ([]models.TradesmanCandidate, int, error) {
	var total int
	err := g.q(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users u JOIN tradesman_details d ON d.user_id = u.id
		WHERE u.role = 'tradesman' AND d.is_approved = FALSE`).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM users u
		JOIN tradesman_details d ON d.user_id = u.id
		WHERE u.role = 'tradesman' AND d.is_approved = FALSE
		ORDER BY d.created_at, u.id
		LIMIT ? OFFSET ?`, userColumns, detailsColumns)
	list, err := g.queryCandidates(ctx, query, limit, offset)
	return list, total, err
}

func (g *Gateway) queryCandidates(ctx context.Context, query string, args ...any) ([]models.TradesmanCandidate, error) {
	rows, err := g.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TradesmanCandidate{}
	for rows.Next() {
		var c models.TradesmanCandidate
		if err := scanUser(rows, &c.User, detailsDest(&c.Details)...); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
