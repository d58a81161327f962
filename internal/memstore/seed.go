package memstore

import (
	"context"
	"time"

	"github.com/01moynul/tradelink-golang/internal/models"
	"github.com/gosimple/slug"
)

// Demo holds the accounts created by SeedDemo.
type Demo struct {
	Admin     models.User
	Client    models.User
	Tradesman models.User
}

// SeedDemo fills an empty store with one user per role, the default plans and
// a few trade types so the API is usable without a database.
func (s *Store) SeedDemo(now time.Time) Demo {
	three, ten := 3, 10

	free := s.AddPlan(models.SubscriptionPlan{Name: "Starter", Description: "Share up to 3 routes", DurationDays: 30, MaxSharedLocations: &three, IsPublic: true, CreatedAt: now, UpdatedAt: now})
	s.AddPlan(models.SubscriptionPlan{Name: "Pro", Description: "Share up to 10 routes", Price: 19.99, DurationDays: 30, MaxSharedLocations: &ten, IsPublic: true, CreatedAt: now, UpdatedAt: now})
	s.AddPlan(models.SubscriptionPlan{Name: "Unlimited", Description: "No route limit", Price: 49.99, DurationDays: 30, IsPublic: true, CreatedAt: now, UpdatedAt: now})

	for _, name := range []string{"Electrician", "Plumber", "Carpenter", "Painter"} {
		category := "Construction"
		t := models.TradeType{Name: name, Slug: slug.Make(name), Category: &category, IsActive: true, CreatedAt: now}
		_ = s.CreateTradeType(context.Background(), &t)
	}

	demo := Demo{
		Admin:     s.AddUser(models.User{Role: models.RoleAdmin, Name: "Admin", Email: "admin@tradelink.local", CreatedAt: now, UpdatedAt: now}),
		Client:    s.AddUser(models.User{Role: models.RoleClient, Name: "Demo Client", Email: "client@tradelink.local", CreatedAt: now, UpdatedAt: now}),
		Tradesman: s.AddUser(models.User{Role: models.RoleTradesman, Name: "Demo Tradesman", Email: "tradesman@tradelink.local", CreatedAt: now, UpdatedAt: now}),
	}

	business := "Demo Electrical"
	s.PutTradesmanDetails(models.TradesmanDetails{
		UserID: demo.Tradesman.ID, TradeType: "Electrician", TradeTypeSlug: "electrician",
		BusinessName: &business, IsApproved: true, CreatedAt: now, UpdatedAt: now,
	})

	expires := now.AddDate(0, 0, free.DurationDays)
	_ = s.CreateSubscription(context.Background(), &models.UserSubscription{
		UserID: demo.Tradesman.ID, PlanID: free.ID, Status: models.SubscriptionActive,
		ExpiresAt: &expires, CreatedAt: now, UpdatedAt: now,
	})
	return demo
}
