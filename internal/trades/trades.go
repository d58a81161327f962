// Package trades manages the trade-type catalogue and the trade metadata a
// tradesman advertises.
package trades

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/models"
	"github.com/gosimple/slug"
)

type Store interface {
	ListTradeTypes(ctx context.Context, q models.TradeTypeQuery) ([]models.TradeType, error)
	CreateTradeType(ctx context.Context, t *models.TradeType) error
	GetTradeTypeBySlug(ctx context.Context, slug string) (*models.TradeType, error)
	GetTradesmanDetails(ctx context.Context, userID int64) (*models.TradesmanDetails, error)
	UpsertTradesmanDetails(ctx context.Context, d *models.TradesmanDetails) error
}

type Catalogue struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewCatalogue(store Store, logger *slog.Logger) *Catalogue {
	return &Catalogue{store: store, logger: logger, now: time.Now}
}

// List returns active trade types by name, optionally narrowed by a name
// substring and a category.
func (c *Catalogue) List(ctx context.Context, search, category string) ([]models.TradeType, error) {
	return c.store.ListTradeTypes(ctx, models.TradeTypeQuery{
		Search:   strings.TrimSpace(search),
		Category: strings.TrimSpace(category),
	})
}

// Create adds a trade type. The slug is derived from the name.
func (c *Catalogue) Create(ctx context.Context, actor models.Actor, name, category string) (*models.TradeType, error) {
	if !actor.Is(models.RoleAdmin) {
		return nil, fmt.Errorf("%w: admin access required", apperr.ErrForbidden)
	}
	name = strings.TrimSpace(name)
	s := slug.Make(name)
	if s == "" {
		return nil, fmt.Errorf("%w: trade name is required", apperr.ErrBadRequest)
	}

	t := &models.TradeType{Name: name, Slug: s, IsActive: true}
	if category = strings.TrimSpace(category); category != "" {
		t.Category = &category
	}
	if err := c.store.CreateTradeType(ctx, t); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, fmt.Errorf("%w: trade %q already exists", apperr.ErrConflict, name)
		}
		return nil, err
	}
	c.logger.InfoContext(ctx, "trade type created", "trade_type_id", t.ID, "slug", t.Slug)
	return t, nil
}

type DetailsInput struct {
	TradeType    string  `json:"tradeType" binding:"required"`
	BusinessName *string `json:"businessName"`
	ShortBio     *string `json:"shortBio"`
}

// SetTradesmanTrade updates the calling tradesman's trade metadata. The trade
// may be given by name or slug but must exist in the catalogue.
func (c *Catalogue) SetTradesmanTrade(ctx context.Context, actor models.Actor, in DetailsInput) (*models.TradesmanDetails, error) {
	if !actor.Is(models.RoleTradesman) {
		return nil, fmt.Errorf("%w: only tradesmen can set trade details", apperr.ErrForbidden)
	}
	t, err := c.store.GetTradeTypeBySlug(ctx, slug.Make(in.TradeType))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown trade type %q", apperr.ErrBadRequest, in.TradeType)
		}
		return nil, err
	}

	now := c.now()
	d := &models.TradesmanDetails{
		UserID:        actor.ID,
		TradeType:     t.Name,
		TradeTypeSlug: t.Slug,
		BusinessName:  trimmed(in.BusinessName),
		ShortBio:      trimmed(in.ShortBio),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.store.UpsertTradesmanDetails(ctx, d); err != nil {
		return nil, err
	}
	return c.store.GetTradesmanDetails(ctx, actor.ID)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
