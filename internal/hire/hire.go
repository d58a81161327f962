// Package hire runs the engagement between a client and a tradesman from
// request to completion.
package hire

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/models"
	"github.com/01moynul/tradelink-golang/internal/pagination"
)

// Store is the persistence the hire lifecycle needs.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockUser(ctx context.Context, userID int64) error

	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsersByIDs(ctx context.Context, ids []int64) ([]models.User, error)

	CreateHire(ctx context.Context, h *models.Hire) error
	LockHire(ctx context.Context, id int64) (*models.Hire, error)
	FindPendingHire(ctx context.Context, clientID, tradesmanID int64) (*models.Hire, error)
	UpdateHireStatus(ctx context.Context, id int64, status models.HireStatus, at time.Time) error
	LatestHireBetween(ctx context.Context, a, b int64) (*models.Hire, error)
	ListHires(ctx context.Context, q models.HireQuery) ([]models.Hire, int, error)
}

// ReviewSource finds the reviews an author wrote on a set of hires.
type ReviewSource interface {
	AuthoredReviews(ctx context.Context, authorID int64, hireIDs []int64) (map[int64]models.Review, error)
}

// Manager moves hires through their states for clients and tradesmen.
type Manager struct {
	store   Store
	reviews ReviewSource
	logger  *slog.Logger
	now     func() time.Time
}

// NewManager creates a Manager backed by store.
func NewManager(store Store, reviews ReviewSource, logger *slog.Logger) *Manager {
	return &Manager{store: store, reviews: reviews, logger: logger, now: time.Now}
}

func forbidden(msg string) error {
	return fmt.Errorf("%w: %s", apperr.ErrForbidden, msg)
}

func hireNotFound() error {
	return fmt.Errorf("%w: hire not found", apperr.ErrNotFound)
}

// RequestHire opens a pending hire from the client to the tradesman.
func (m *Manager) RequestHire(ctx context.Context, actor models.Actor, tradesmanID int64, jobDescription *string) (*models.Hire, error) {
	if !actor.Is(models.RoleClient) {
		return nil, forbidden("only clients can send hire requests")
	}
	if tradesmanID <= 0 {
		return nil, fmt.Errorf("%w: tradesmanId is required", apperr.ErrBadRequest)
	}
	if jobDescription != nil {
		trimmed := strings.TrimSpace(*jobDescription)
		if trimmed == "" {
			jobDescription = nil
		} else {
			jobDescription = &trimmed
		}
	}

	now := m.now()
	h := &models.Hire{
		ClientID:       actor.ID,
		TradesmanID:    tradesmanID,
		Status:         models.HirePending,
		JobDescription: jobDescription,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := m.store.InTx(ctx, func(ctx context.Context) error {
		if err := m.store.LockUser(ctx, actor.ID); err != nil {
			return err
		}
		tradesman, err := m.store.GetUser(ctx, tradesmanID)
		if err != nil {
			return err
		}
		if tradesman.Role != models.RoleTradesman {
			return fmt.Errorf("%w: tradesman not found", apperr.ErrNotFound)
		}
		existing, err := m.store.FindPendingHire(ctx, actor.ID, tradesmanID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: you already have a pending request with this tradesman", apperr.ErrConflict)
		}
		return m.store.CreateHire(ctx, h)
	})
	if err != nil {
		return nil, err
	}
	m.logger.InfoContext(ctx, "hire requested", "hire_id", h.ID, "client_id", actor.ID, "tradesman_id", tradesmanID)
	return h, nil
}

// mutate locks the hire and asks to for the target status, which also
// authorises the actor. The transition is then validated and persisted.
func (m *Manager) mutate(ctx context.Context, hireID int64, to func(h *models.Hire) (models.HireStatus, error)) (*models.Hire, error) {
	if hireID <= 0 {
		return nil, fmt.Errorf("%w: hireId is required", apperr.ErrBadRequest)
	}
	var out *models.Hire
	err := m.store.InTx(ctx, func(ctx context.Context) error {
		h, err := m.store.LockHire(ctx, hireID)
		if err != nil {
			return err
		}
		next, err := to(h)
		if err != nil {
			return err
		}
		from := h.Status
		if err := transition(h, next); err != nil {
			return err
		}
		h.UpdatedAt = m.now()
		if err := m.store.UpdateHireStatus(ctx, h.ID, h.Status, h.UpdatedAt); err != nil {
			return err
		}
		m.logger.InfoContext(ctx, "hire status changed", "hire_id", h.ID, "from", from, "to", h.Status)
		out = h
		return nil
	})
	return out, err
}

// Responses a tradesman can give to a pending hire.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// RespondHire lets the hired tradesman accept or reject a pending request.
func (m *Manager) RespondHire(ctx context.Context, actor models.Actor, hireID int64, action string) (*models.Hire, error) {
	if !actor.Is(models.RoleTradesman) {
		return nil, forbidden("only tradesmen can respond to hire requests")
	}
	var next models.HireStatus
	switch action {
	case ActionAccept:
		next = models.HireAccepted
	case ActionReject:
		next = models.HireRejected
	default:
		return nil, fmt.Errorf("%w: action must be accept or reject", apperr.ErrBadRequest)
	}
	return m.mutate(ctx, hireID, func(h *models.Hire) (models.HireStatus, error) {
		if h.TradesmanID != actor.ID {
			return "", hireNotFound()
		}
		if h.Status != models.HirePending {
			return "", fmt.Errorf("%w: hire request is not pending", apperr.ErrInvalidState)
		}
		return next, nil
	})
}

// RequestCompletion lets the tradesman mark an accepted job as done, pending
// the client's confirmation.
func (m *Manager) RequestCompletion(ctx context.Context, actor models.Actor, hireID int64) (*models.Hire, error) {
	if !actor.Is(models.RoleTradesman) {
		return nil, forbidden("only tradesmen can request completion")
	}
	return m.mutate(ctx, hireID, func(h *models.Hire) (models.HireStatus, error) {
		if h.TradesmanID != actor.ID {
			return "", hireNotFound()
		}
		if h.Status != models.HireAccepted {
			return "", fmt.Errorf("%w: only accepted jobs can be marked complete", apperr.ErrInvalidState)
		}
		return models.HireCompletionRequested, nil
	})
}

// ConfirmCompletion lets the client accept the completion request, or deny it
// and put the job back to accepted.
func (m *Manager) ConfirmCompletion(ctx context.Context, actor models.Actor, hireID int64, confirm bool) (*models.Hire, error) {
	if !actor.Is(models.RoleClient) {
		return nil, forbidden("only clients can confirm completion")
	}
	return m.mutate(ctx, hireID, func(h *models.Hire) (models.HireStatus, error) {
		if h.ClientID != actor.ID {
			return "", forbidden("you are not the client for this job")
		}
		if h.Status != models.HireCompletionRequested {
			return "", fmt.Errorf("%w: completion has not been requested for this job", apperr.ErrInvalidState)
		}
		if confirm {
			return models.HireCompleted, nil
		}
		return models.HireAccepted, nil
	})
}

// CancelHire lets either party call off an accepted job.
func (m *Manager) CancelHire(ctx context.Context, actor models.Actor, hireID int64) (*models.Hire, error) {
	return m.mutate(ctx, hireID, func(h *models.Hire) (models.HireStatus, error) {
		if !h.Involves(actor.ID) {
			return "", forbidden("you are not a party to this job")
		}
		return models.HireCancelled, nil
	})
}

// StatusWith returns the most recent hire between the actor and another
// user, or nil when they have never engaged.
func (m *Manager) StatusWith(ctx context.Context, actor models.Actor, otherID int64) (*models.Hire, error) {
	if otherID <= 0 {
		return nil, fmt.Errorf("%w: invalid user id", apperr.ErrBadRequest)
	}
	return m.store.LatestHireBetween(ctx, actor.ID, otherID)
}

// PendingCompletion lists the client's jobs awaiting their confirmation.
func (m *Manager) PendingCompletion(ctx context.Context, actor models.Actor) ([]models.Hire, error) {
	if !actor.Is(models.RoleClient) {
		return nil, forbidden("only clients confirm completion")
	}
	hires, _, err := m.store.ListHires(ctx, models.HireQuery{
		ClientID: actor.ID,
		Statuses: []models.HireStatus{models.HireCompletionRequested},
	})
	return hires, err
}

// Job is a hire as shown in the actor's job list.
type Job struct {
	ID             int64                `json:"id"`
	Status         models.HireStatus    `json:"status"`
	StatusLabel    string               `json:"statusLabel"`
	Subtitle       string               `json:"subtitle"`
	JobDescription *string              `json:"jobDescription,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
	Client         models.PublicProfile `json:"client"`
	Tradesman      models.PublicProfile `json:"tradesman"`
	OtherUser      models.PublicProfile `json:"otherUser"`
	Review         *models.Review       `json:"review"` // the actor's own review, if any
}

// MyJobs lists the actor's hires, newest first, filtered by "all", "active"
// or "completed".
func (m *Manager) MyJobs(ctx context.Context, actor models.Actor, filter string, p pagination.Params) (pagination.Page[Job], error) {
	statuses, err := statusesFor(filter)
	if err != nil {
		return pagination.Page[Job]{}, err
	}
	q := models.HireQuery{Statuses: statuses, Limit: p.Limit, Offset: p.Offset()}
	switch actor.Role {
	case models.RoleClient:
		q.ClientID = actor.ID
	case models.RoleTradesman:
		q.TradesmanID = actor.ID
	default:
		return pagination.Page[Job]{}, forbidden("only clients and tradesmen have jobs")
	}

	hires, total, err := m.store.ListHires(ctx, q)
	if err != nil {
		return pagination.Page[Job]{}, err
	}

	userIDs := make([]int64, 0, len(hires)*2)
	hireIDs := make([]int64, 0, len(hires))
	for _, h := range hires {
		userIDs = append(userIDs, h.ClientID, h.TradesmanID)
		hireIDs = append(hireIDs, h.ID)
	}
	users, err := m.store.ListUsersByIDs(ctx, userIDs)
	if err != nil {
		return pagination.Page[Job]{}, err
	}
	profiles := make(map[int64]models.PublicProfile, len(users))
	for _, u := range users {
		profiles[u.ID] = u.Public()
	}
	reviews, err := m.reviews.AuthoredReviews(ctx, actor.ID, hireIDs)
	if err != nil {
		return pagination.Page[Job]{}, err
	}

	profile := func(id int64) models.PublicProfile {
		if p, ok := profiles[id]; ok {
			return p
		}
		return models.PublicProfile{ID: id}
	}

	jobs := make([]Job, 0, len(hires))
	for _, h := range hires {
		label, subtitle := Label(h.Status)
		job := Job{
			ID:             h.ID,
			Status:         h.Status,
			StatusLabel:    label,
			Subtitle:       subtitle,
			JobDescription: h.JobDescription,
			CreatedAt:      h.CreatedAt,
			UpdatedAt:      h.UpdatedAt,
			Client:         profile(h.ClientID),
			Tradesman:      profile(h.TradesmanID),
		}
		if actor.ID == h.ClientID {
			job.OtherUser = job.Tradesman
		} else {
			job.OtherUser = job.Client
		}
		if r, ok := reviews[h.ID]; ok {
			job.Review = &r
		}
		jobs = append(jobs, job)
	}
	return pagination.New(jobs, total, p), nil
}
