// Package approval lets admins vet tradesmen before they appear as verified.
package approval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/email"
	"github.com/01moynul/tradelink-golang/internal/models"
	"github.com/01moynul/tradelink-golang/internal/pagination"
)

type Store interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetTradesmanDetails(ctx context.Context, userID int64) (*models.TradesmanDetails, error)
	SetTradesmanApproval(ctx context.Context, userID int64, approved bool) error
	ListPendingTradesmen(ctx context.Context, limit, offset int) ([]models.TradesmanCandidate, int, error)
}

type Service struct {
	store    Store
	notifier email.Notifier
	logger   *slog.Logger
}

func NewService(store Store, notifier email.Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, notifier: notifier, logger: logger}
}

// Pending lists tradesmen awaiting approval, oldest first.
func (s *Service) Pending(ctx context.Context, p pagination.Params) (pagination.Page[models.TradesmanCandidate], error) {
	list, total, err := s.store.ListPendingTradesmen(ctx, p.Limit, p.Offset())
	if err != nil {
		return pagination.Page[models.TradesmanCandidate]{}, err
	}
	return pagination.New(list, total, p), nil
}

// Approve marks the tradesman as approved and emails them.
func (s *Service) Approve(ctx context.Context, userID int64, note string) (*models.TradesmanCandidate, error) {
	return s.decide(ctx, userID, true, strings.TrimSpace(note))
}

// Reject withdraws approval and emails the tradesman, with the reason when
// one is given.
func (s *Service) Reject(ctx context.Context, userID int64, reason string) (*models.TradesmanCandidate, error) {
	return s.decide(ctx, userID, false, strings.TrimSpace(reason))
}

func (s *Service) decide(ctx context.Context, userID int64, approved bool, note string) (*models.TradesmanCandidate, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleTradesman {
		return nil, fmt.Errorf("%w: tradesman not found", apperr.ErrNotFound)
	}
	if err := s.store.SetTradesmanApproval(ctx, userID, approved); err != nil {
		return nil, err
	}
	details, err := s.store.GetTradesmanDetails(ctx, userID)
	if err != nil {
		return nil, err
	}

	tmpl := email.TemplateTradesmanRejected
	if approved {
		tmpl = email.TemplateTradesmanApproved
	}
	// Delivery is best effort; the decision stands either way.
	if err := s.notifier.Send(ctx, user.Email, tmpl, email.ApprovalData{Name: user.Name, Note: note}); err != nil {
		s.logger.WarnContext(ctx, "approval email failed", "user_id", userID, "template", string(tmpl), "error", err)
	}
	s.logger.InfoContext(ctx, "tradesman approval decided", "user_id", userID, "approved", approved)
	return &models.TradesmanCandidate{User: *user, Details: *details}, nil
}
