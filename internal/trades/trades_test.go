package trades

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/memstore"
	"github.com/01moynul/tradelink-golang/internal/models"
)

var (
	admin     = models.Actor{ID: 1, Role: models.RoleAdmin}
	tradesman = models.Actor{ID: 2, Role: models.RoleTradesman}
)

func newCatalogue(t *testing.T) (*Catalogue, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	store.AddUser(models.User{ID: admin.ID, Role: models.RoleAdmin, Name: "Ada"})
	store.AddUser(models.User{ID: tradesman.ID, Role: models.RoleTradesman, Name: "Tom"})
	c := NewCatalogue(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	return c, store
}

func TestCreateAndList(t *testing.T) {
	c, _ := newCatalogue(t)
	ctx := context.Background()

	got, err := c.Create(ctx, admin, "  Gas Engineer ", "Heating")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Slug != "gas-engineer" || got.Name != "Gas Engineer" || got.Category == nil || *got.Category != "Heating" {
		t.Fatalf("created = %+v", got)
	}
	if _, err := c.Create(ctx, admin, "Electrician", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := c.Create(ctx, admin, "gas engineer", ""); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate err = %v", err)
	}
	if _, err := c.Create(ctx, admin, "  ", ""); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("blank err = %v", err)
	}
	if _, err := c.Create(ctx, tradesman, "Roofer", ""); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("non-admin err = %v", err)
	}

	all, err := c.List(ctx, "", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Electrician" || all[1].Name != "Gas Engineer" {
		t.Fatalf("List() = %+v", all)
	}
	heating, _ := c.List(ctx, "gas", "Heating")
	if len(heating) != 1 {
		t.Fatalf("List(gas, Heating) = %+v", heating)
	}
}

func TestSetTradesmanTrade(t *testing.T) {
	c, _ := newCatalogue(t)
	ctx := context.Background()
	if _, err := c.Create(ctx, admin, "Gas Engineer", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	name := " Tom's Boilers "
	d, err := c.SetTradesmanTrade(ctx, tradesman, DetailsInput{TradeType: "Gas Engineer", BusinessName: &name})
	if err != nil {
		t.Fatalf("SetTradesmanTrade: %v", err)
	}
	if d.TradeTypeSlug != "gas-engineer" || d.TradeType != "Gas Engineer" || d.BusinessName == nil || *d.BusinessName != "Tom's Boilers" {
		t.Fatalf("details = %+v", d)
	}

	if _, err := c.SetTradesmanTrade(ctx, tradesman, DetailsInput{TradeType: "astronaut"}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("unknown trade err = %v", err)
	}
	if _, err := c.SetTradesmanTrade(ctx, admin, DetailsInput{TradeType: "gas-engineer"}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("admin err = %v", err)
	}
}
