// Package review records post-job ratings between clients and tradesmen and
// aggregates them.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/models"
)

// Allowed star ratings.
const (
	MinRating = 1
	MaxRating = 5
)

// Store is the persistence for reviews and the hires they belong to.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockHire(ctx context.Context, id int64) (*models.Hire, error)
	ListHires(ctx context.Context, q models.HireQuery) ([]models.Hire, int, error)
	ListUsersByIDs(ctx context.Context, ids []int64) ([]models.User, error)

	CreateReview(ctx context.Context, r *models.Review) error
	FindReview(ctx context.Context, hireID int64, role models.Role) (*models.Review, error)
	ListReviewsFor(ctx context.Context, toUserID int64) ([]models.Review, error)
	ListReviewsByAuthor(ctx context.Context, authorID int64, hireIDs []int64) ([]models.Review, error)
	RatingSummary(ctx context.Context, userID int64) (models.RatingSummary, error)
	RatingSummaries(ctx context.Context, userIDs []int64) (map[int64]models.RatingSummary, error)
}

// Ledger records reviews and answers rating queries.
type Ledger struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewLedger creates a Ledger backed by store.
func NewLedger(store Store, logger *slog.Logger) *Ledger {
	return &Ledger{store: store, logger: logger, now: time.Now}
}

// AddReview records the actor's review of the other party to a completed hire.
func (l *Ledger) AddReview(ctx context.Context, actor models.Actor, hireID int64, rating int, comment *string) (*models.Review, error) {
	if !actor.Is(models.RoleClient) && !actor.Is(models.RoleTradesman) {
		return nil, fmt.Errorf("%w: only clients and tradesmen can leave reviews", apperr.ErrForbidden)
	}
	if hireID <= 0 {
		return nil, fmt.Errorf("%w: hireId is required", apperr.ErrBadRequest)
	}
	if rating < MinRating || rating > MaxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", apperr.ErrBadRequest, MinRating, MaxRating)
	}
	if comment != nil {
		trimmed := strings.TrimSpace(*comment)
		comment = &trimmed
		if trimmed == "" {
			comment = nil
		}
	}

	r := &models.Review{
		HireID:     hireID,
		FromUserID: actor.ID,
		Role:       actor.Role,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  l.now(),
	}
	err := l.store.InTx(ctx, func(ctx context.Context) error {
		h, err := l.store.LockHire(ctx, hireID)
		if err != nil {
			return err
		}
		if h.Status != models.HireCompleted {
			return fmt.Errorf("%w: you can only review completed jobs", apperr.ErrInvalidState)
		}

		switch {
		case actor.Is(models.RoleClient) && h.ClientID == actor.ID:
			r.ToUserID = h.TradesmanID
		case actor.Is(models.RoleTradesman) && h.TradesmanID == actor.ID:
			r.ToUserID = h.ClientID
		default:
			return fmt.Errorf("%w: you are not a party to this job", apperr.ErrForbidden)
		}

		existing, err := l.store.FindReview(ctx, hireID, actor.Role)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: review already submitted", apperr.ErrConflict)
		}
		return l.store.CreateReview(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	l.logger.InfoContext(ctx, "review added", "review_id", r.ID, "hire_id", hireID, "from_user_id", actor.ID)
	return r, nil
}

// Entry is a review with its author's public profile.
type Entry struct {
	models.Review
	FromUser *models.PublicProfile `json:"fromUser"`
}

// Received is everything shown about the reviews a user has received.
type Received struct {
	models.RatingSummary
	Reviews []Entry `json:"reviews"`
}

// ReviewsFor returns the reviews a user received, newest first, with the
// rating summary.
func (l *Ledger) ReviewsFor(ctx context.Context, userID int64) (*Received, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: invalid user id", apperr.ErrBadRequest)
	}
	reviews, err := l.store.ListReviewsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary, err := l.store.RatingSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	authorIDs := make([]int64, len(reviews))
	for i, r := range reviews {
		authorIDs[i] = r.FromUserID
	}
	authors, err := l.store.ListUsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.PublicProfile, len(authors))
	for _, u := range authors {
		byID[u.ID] = u.Public()
	}

	out := &Received{RatingSummary: summary, Reviews: make([]Entry, 0, len(reviews))}
	for _, r := range reviews {
		e := Entry{Review: r}
		if p, ok := byID[r.FromUserID]; ok {
			e.FromUser = &p
		}
		out.Reviews = append(out.Reviews, e)
	}
	return out, nil
}

// Pending lists the actor's completed hires they have not reviewed yet.
func (l *Ledger) Pending(ctx context.Context, actor models.Actor) ([]models.Hire, error) {
	q := models.HireQuery{Statuses: []models.HireStatus{models.HireCompleted}}
	switch actor.Role {
	case models.RoleClient:
		q.ClientID = actor.ID
	case models.RoleTradesman:
		q.TradesmanID = actor.ID
	default:
		return nil, fmt.Errorf("%w: only clients and tradesmen leave reviews", apperr.ErrForbidden)
	}

	hires, _, err := l.store.ListHires(ctx, q)
	if err != nil {
		return nil, err
	}
	written, err := l.AuthoredReviews(ctx, actor.ID, hireIDs(hires))
	if err != nil {
		return nil, err
	}

	pending := []models.Hire{}
	for _, h := range hires {
		if _, done := written[h.ID]; !done {
			pending = append(pending, h)
		}
	}
	return pending, nil
}

// AuthoredReviews returns the reviews authorID wrote, keyed by hire id.
func (l *Ledger) AuthoredReviews(ctx context.Context, authorID int64, hireIDs []int64) (map[int64]models.Review, error) {
	reviews, err := l.store.ListReviewsByAuthor(ctx, authorID, hireIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]models.Review, len(reviews))
	for _, r := range reviews {
		out[r.HireID] = r
	}
	return out, nil
}

// Summary aggregates the reviews a user received. No reviews gives a zero summary.
func (l *Ledger) Summary(ctx context.Context, userID int64) (models.RatingSummary, error) {
	return l.store.RatingSummary(ctx, userID)
}

// Summaries is Summary for many users; users without reviews are absent.
func (l *Ledger) Summaries(ctx context.Context, userIDs []int64) (map[int64]models.RatingSummary, error) {
	return l.store.RatingSummaries(ctx, userIDs)
}

func hireIDs(hires []models.Hire) []int64 {
	ids := make([]int64, len(hires))
	for i, h := range hires {
		ids[i] = h.ID
	}
	return ids
}
