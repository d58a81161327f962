package database

import (
	"context"

	"github.com/01moynul/tradelink-golang/internal/models"
)

const reviewColumns = "id, hire_id, from_user_id, to_user_id, role, rating, comment, created_at"

func scanReview(row rowScanner) (*models.Review, error) {
	var r models.Review
	if err := row.Scan(&r.ID, &r.HireID, &r.FromUserID, &r.ToUserID, &r.Role, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (g *Gateway) queryReviews(ctx context.Context, query string, args ...any) ([]models.Review, error) {
	rows, err := g.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

// CreateReview inserts a review; a second review for the same (hire, role)
// surfaces as ErrConflict.
func (g *Gateway) CreateReview(ctx context.Context, r *models.Review) error {
	res, err := g.q(ctx).ExecContext(ctx, `
		INSERT INTO reviews (hire_id, from_user_id, to_user_id, role, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.HireID, r.FromUserID, r.ToUserID, r.Role, r.Rating, r.Comment, r.CreatedAt)
	if err != nil {
		return mapErr(err, "review")
	}
	r.ID, err = res.LastInsertId()
	return err
}

func (g *Gateway) FindReview(ctx context.Context, hireID int64, role models.Role) (*models.Review, error) {
	r, err := scanReview(g.q(ctx).QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE hire_id = ? AND role = ?", hireID, role))
	return mapFind(r, err, "review")
}

// ListReviewsFor returns the reviews a user received, newest first.
func (g *Gateway) ListReviewsFor(ctx context.Context, toUserID int64) ([]models.Review, error) {
	return g.queryReviews(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE to_user_id = ? ORDER BY created_at DESC, id DESC", toUserID)
}

// ListReviewsByAuthor returns the reviews authorID wrote on the given hires.
func (g *Gateway) ListReviewsByAuthor(ctx context.Context, authorID int64, hireIDs []int64) ([]models.Review, error) {
	if len(hireIDs) == 0 {
		return []models.Review{}, nil
	}
	args := append([]any{authorID}, int64Args(hireIDs)...)
	return g.queryReviews(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE from_user_id = ? AND hire_id IN ("+placeholders(len(hireIDs))+")",
		args...)
}

func (g *Gateway) RatingSummary(ctx context.Context, userID int64) (models.RatingSummary, error) {
	var s models.RatingSummary
	err := g.q(ctx).QueryRowContext(ctx,
		"SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE to_user_id = ?", userID).
		Scan(&s.AvgRating, &s.ReviewCount)
	return s, err
}

// RatingSummaries aggregates received reviews for many users at once. Users
// without reviews are absent from the map.
func (g *Gateway) RatingSummaries(ctx context.Context, userIDs []int64) (map[int64]models.RatingSummary, error) {
	out := make(map[int64]models.RatingSummary, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	rows, err := g.q(ctx).QueryContext(ctx, `
		SELECT to_user_id, AVG(rating), COUNT(*) FROM reviews
		WHERE to_user_id IN (`+placeholders(len(userIDs))+`)
		GROUP BY to_user_id`, int64Args(userIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id int64
			s  models.RatingSummary
		)
		if err := rows.Scan(&id, &s.AvgRating, &s.ReviewCount); err != nil {
			return nil, err
		}
		out[id] = s
	}
	return out, rows.Err()
}
