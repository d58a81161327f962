package travel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/geo"
	"github.com/01moynul/tradelink-golang/internal/memstore"
	"github.com/01moynul/tradelink-golang/internal/models"
	"github.com/01moynul/tradelink-golang/internal/pagination"
	"github.com/01moynul/tradelink-golang/internal/quota"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func day(n int) *time.Time {
	t := testNow.AddDate(0, 0, n)
	return &t
}

func str(s string) *string { return &s }

type storeRatings struct{ s *memstore.Store }

func (r storeRatings) Summary(ctx context.Context, id int64) (models.RatingSummary, error) {
	return r.s.RatingSummary(ctx, id)
}

func (r storeRatings) Summaries(ctx context.Context, ids []int64) (map[int64]models.RatingSummary, error) {
	return r.s.RatingSummaries(ctx, ids)
}

type fixture struct {
	store   *memstore.Store
	matcher *Matcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	m := NewMatcher(store, quota.NewGuard(store, logger), storeRatings{store}, 40, logger)
	m.now = func() time.Time { return testNow }
	return &fixture{store: store, matcher: m}
}

// tradesman adds a tradesman subscribed to a plan capped at limit (nil = unlimited).
func (f *fixture) tradesman(t *testing.T, name string, limit *int) models.Actor {
	t.Helper()
	u := f.store.AddUser(models.User{Role: models.RoleTradesman, Name: name})
	plan := f.store.AddPlan(models.SubscriptionPlan{Name: "plan", MaxSharedLocations: limit})
	err := f.store.CreateSubscription(context.Background(), &models.UserSubscription{UserID: u.ID, PlanID: plan.ID, Status: models.SubscriptionActive})
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	return models.Actor{ID: u.ID, Role: models.RoleTradesman}
}

func route(start, end int) PlanInput {
	return PlanInput{StartLocation: str("Leeds"), Destination: str("York"), StartDate: day(start), EndDate: day(end)}
}

func TestCreatePlanRequiresTradesmanAndSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	client := f.store.AddUser(models.User{Role: models.RoleClient, Name: "Cleo"})
	_, err := f.matcher.CreatePlan(ctx, models.Actor{ID: client.ID, Role: models.RoleClient}, route(1, 2))
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("client CreatePlan err = %v, want ErrForbidden", err)
	}

	u := f.store.AddUser(models.User{Role: models.RoleTradesman, Name: "Nosub"})
	_, err = f.matcher.CreatePlan(ctx, models.Actor{ID: u.ID, Role: models.RoleTradesman}, route(1, 2))
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("unsubscribed CreatePlan err = %v, want ErrForbidden", err)
	}
}

func TestCreatePlanValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.tradesman(t, "Tom", nil)

	cases := map[string]PlanInput{
		"end before start": route(3, 2),
		"missing dates":    {StartLocation: str("Leeds"), Destination: str("York")},
		"missing route":    {StartLocation: str("  "), Destination: str("York"), StartDate: day(1), EndDate: day(2)},
		"bad location": func() PlanInput {
			in := route(1, 2)
			in.CurrentLocation = str("north of leeds")
			return in
		}(),
	}
	for name, in := range cases {
		if _, err := f.matcher.CreatePlan(ctx, actor, in); !errors.Is(err, apperr.ErrBadRequest) {
			t.Errorf("%s: err = %v, want ErrBadRequest", name, err)
		}
	}
}

func TestCreatePlanStoresLocationAndStops(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.tradesman(t, "Tom", nil)

	in := route(1, 1)
	in.CurrentLocation = str("53.8, -1.55")
	stops := models.Stops{" Wakefield ", "", "Selby", "Tadcaster", "Malton", "Pickering"}
	in.Stops = &stops

	plan, err := f.matcher.CreatePlan(ctx, actor, in)
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if plan.Status != models.TravelPlanOpen {
		t.Fatalf("Status = %q", plan.Status)
	}
	if len(plan.Stops) != models.MaxStops || plan.Stops[0] != "Wakefield" {
		t.Fatalf("Stops = %q", plan.Stops)
	}

	details, err := f.store.GetTradesmanDetails(ctx, actor.ID)
	if err != nil {
		t.Fatalf("GetTradesmanDetails: %v", err)
	}
	if details.CurrentLocation == nil || *details.CurrentLocation != "53.8,-1.55" {
		t.Fatalf("CurrentLocation = %v", details.CurrentLocation)
	}
}

func TestPlanQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	two := 2
	actor := f.tradesman(t, "Tom", &two)

	first, err := f.matcher.CreatePlan(ctx, actor, route(1, 2))
	if err != nil {
		t.Fatalf("first plan: %v", err)
	}
	if _, err := f.matcher.CreatePlan(ctx, actor, route(5, 6)); err != nil {
		t.Fatalf("second plan: %v", err)
	}

	_, err = f.matcher.CreatePlan(ctx, actor, route(10, 11))
	if !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("third plan err = %v, want ErrQuotaExceeded", err)
	}
	if apperr.Message(err) != "Limit reached (2), upgrade your plan" {
		t.Fatalf("message = %q", apperr.Message(err))
	}

	closed := models.TravelPlanClosed
	if _, err := f.matcher.UpdatePlan(ctx, actor, first.ID, PlanInput{Status: &closed}); err != nil {
		t.Fatalf("close first plan: %v", err)
	}
	third, err := f.matcher.CreatePlan(ctx, actor, route(10, 11))
	if err != nil {
		t.Fatalf("third plan after closing one: %v", err)
	}

	// Reopening would exceed the cap again.
	open := models.TravelPlanOpen
	_, err = f.matcher.UpdatePlan(ctx, actor, first.ID, PlanInput{Status: &open})
	if !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("reopen err = %v, want ErrQuotaExceeded", err)
	}

	// Editing an open plan does not count against itself.
	if _, err := f.matcher.UpdatePlan(ctx, actor, third.ID, PlanInput{Destination: str("Hull")}); err != nil {
		t.Fatalf("edit open plan: %v", err)
	}
}

func TestPlanOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.tradesman(t, "Tom", nil)

	plan, err := f.matcher.CreatePlan(ctx, actor, route(1, 5))
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if _, err := f.matcher.CreatePlan(ctx, actor, route(4, 8)); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("overlapping plan err = %v, want ErrConflict", err)
	}
	if _, err := f.matcher.CreatePlan(ctx, actor, route(6, 8)); err != nil {
		t.Fatalf("disjoint plan: %v", err)
	}
	// Moving the first plan onto the second is rejected; moving it within its own range is fine.
	if _, err := f.matcher.UpdatePlan(ctx, actor, plan.ID, PlanInput{EndDate: day(7)}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("update into overlap err = %v, want ErrConflict", err)
	}
	if _, err := f.matcher.UpdatePlan(ctx, actor, plan.ID, PlanInput{StartDate: day(2)}); err != nil {
		t.Fatalf("update within own range: %v", err)
	}
}

func TestUpdateAndDeleteOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.tradesman(t, "Tom", nil)
	other := f.tradesman(t, "Tia", nil)

	plan, err := f.matcher.CreatePlan(ctx, owner, route(1, 2))
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	if _, err := f.matcher.UpdatePlan(ctx, other, plan.ID, PlanInput{Destination: str("Hull")}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("foreign update err = %v, want ErrForbidden", err)
	}
	if err := f.matcher.DeletePlan(ctx, other, plan.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("foreign delete err = %v, want ErrForbidden", err)
	}
	if _, err := f.matcher.UpdatePlan(ctx, owner, 9999, PlanInput{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing plan err = %v, want ErrNotFound", err)
	}
	bogus := models.TravelPlanStatus("paused")
	if _, err := f.matcher.UpdatePlan(ctx, owner, plan.ID, PlanInput{Status: &bogus}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("bad status err = %v, want ErrBadRequest", err)
	}

	if err := f.matcher.DeletePlan(ctx, owner, plan.ID); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	page, err := f.matcher.ListMine(ctx, owner, pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if page.Meta.Total != 0 || len(page.Data) != 0 {
		t.Fatalf("ListMine after delete = %+v", page)
	}
}

func TestListMinePaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.tradesman(t, "Tom", nil)
	for i := 0; i < 3; i++ {
		if _, err := f.matcher.CreatePlan(ctx, actor, route(i*3, i*3+1)); err != nil {
			t.Fatalf("CreatePlan %d: %v", i, err)
		}
	}

	page, err := f.matcher.ListMine(ctx, actor, pagination.Params{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if page.Meta.Total != 3 || page.Meta.TotalPages != 2 || len(page.Data) != 2 {
		t.Fatalf("page = %+v", page.Meta)
	}
	if !page.Data[0].StartDate.After(page.Data[1].StartDate) {
		t.Fatal("plans are not newest departure first")
	}
}

func TestFilterTradesmen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	near := f.tradesman(t, "Near", nil) // ~5.6 km, approved, rated 5
	mid := f.tradesman(t, "Mid", nil)   // ~33 km, unapproved, rated 3
	far := f.tradesman(t, "Far", nil)   // ~111 km, plumber
	nowhere := f.tradesman(t, "Nowhere", nil)

	setup := []struct {
		actor    models.Actor
		trade    string
		location string
		approved bool
	}{
		{near, "Electrician", "0,0.05", true},
		{mid, "Electrician", "0,0.3", false},
		{far, "Plumber", "0,1", true},
		{nowhere, "Electrician", "", true},
	}
	for _, s := range setup {
		d := models.TradesmanDetails{UserID: s.actor.ID, TradeType: s.trade, TradeTypeSlug: map[string]string{"Electrician": "electrician", "Plumber": "plumber"}[s.trade], IsApproved: s.approved}
		if s.location != "" {
			d.CurrentLocation = str(s.location)
		}
		f.store.PutTradesmanDetails(d)
	}
	_ = f.store.CreateReview(ctx, &models.Review{HireID: 1, ToUserID: near.ID, Role: models.RoleClient, Rating: 5})
	_ = f.store.CreateReview(ctx, &models.Review{HireID: 2, ToUserID: mid.ID, Role: models.RoleClient, Rating: 3})

	origin := &geo.Point{Lat: 0, Lng: 0}
	names := func(ms []TradesmanMatch) []string {
		var out []string
		for _, m := range ms {
			out = append(out, m.Name)
		}
		return out
	}
	check := func(label string, c FilterCriteria, want ...string) {
		t.Helper()
		got, err := f.matcher.FilterTradesmen(ctx, c)
		if err != nil {
			t.Fatalf("%s: %v", label, err)
		}
		if g := names(got); len(g) != len(want) || (len(g) > 0 && g[0] != want[0]) || (len(g) > 1 && g[1] != want[1]) {
			t.Fatalf("%s: got %v, want %v", label, g, want)
		}
	}

	check("no filters", FilterCriteria{}, "Near", "Mid", "Far", "Nowhere")
	check("trade slug", FilterCriteria{TradeTypes: ParseTradeTypes("electrician, ")}, "Near", "Mid", "Nowhere")
	check("trade name and radius", FilterCriteria{TradeTypes: []string{"Electrician"}, Point: origin}, "Near", "Mid")
	check("tight radius", FilterCriteria{Point: origin, RadiusKm: 10}, "Near")
	check("min rating", FilterCriteria{MinRating: ptrFloat(4)}, "Near")
	check("verified", FilterCriteria{VerifiedOnly: true, TradeTypes: []string{"Electrician"}}, "Near", "Nowhere")

	got, err := f.matcher.FilterTradesmen(ctx, FilterCriteria{Point: origin})
	if err != nil {
		t.Fatalf("FilterTradesmen: %v", err)
	}
	if got[0].DistanceKm == nil || *got[0].DistanceKm > 6 || got[0].AvgRating != 5 || got[0].ReviewCount != 1 {
		t.Fatalf("first match = %+v", got[0])
	}

	if _, err := f.matcher.FilterTradesmen(ctx, FilterCriteria{Point: &geo.Point{Lat: 95}}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("invalid point err = %v, want ErrBadRequest", err)
	}
	for label, c := range map[string]FilterCriteria{
		"NaN radius":   {Point: origin, RadiusKm: math.NaN()},
		"Inf radius":   {Point: origin, RadiusKm: math.Inf(1)},
		"NaN rating":   {MinRating: ptrFloat(math.NaN())},
		"high rating":  {MinRating: ptrFloat(5.5)},
		"minus rating": {MinRating: ptrFloat(-1)},
	} {
		if _, err := f.matcher.FilterTradesmen(ctx, c); !errors.Is(err, apperr.ErrBadRequest) {
			t.Errorf("%s err = %v, want ErrBadRequest", label, err)
		}
	}

	// Only Far is on the road today.
	if _, err := f.matcher.CreatePlan(ctx, far, route(-1, 1)); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if _, err := f.matcher.CreatePlan(ctx, near, route(3, 4)); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	check("available today", FilterCriteria{AvailableToday: true}, "Far")
}

func ptrFloat(f float64) *float64 { return &f }

func TestTradesmanProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.tradesman(t, "Tom", nil)

	profile, err := f.matcher.TradesmanProfile(ctx, actor.ID)
	if err != nil {
		t.Fatalf("TradesmanProfile: %v", err)
	}
	if profile.TravelPlan != nil || profile.AvailableToday || profile.Availability != Unavailable {
		t.Fatalf("profile without plans = %+v", profile)
	}

	if _, err := f.matcher.CreatePlan(ctx, actor, route(2, 3)); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	profile, err = f.matcher.TradesmanProfile(ctx, actor.ID)
	if err != nil {
		t.Fatalf("TradesmanProfile: %v", err)
	}
	if profile.TravelPlan == nil || profile.TravelPlan.Phase != PhaseUpcoming || profile.AvailableToday {
		t.Fatalf("upcoming profile = %+v", profile.TravelPlan)
	}
	if profile.Availability != Available {
		t.Fatalf("upcoming availability = %q, want %q", profile.Availability, Available)
	}

	if _, err := f.matcher.CreatePlan(ctx, actor, route(0, 1)); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	profile, _ = f.matcher.TradesmanProfile(ctx, actor.ID)
	if profile.TravelPlan.Phase != PhaseActive || !profile.AvailableToday || profile.Availability != Available {
		t.Fatalf("active profile = %+v", profile.TravelPlan)
	}

	client := f.store.AddUser(models.User{Role: models.RoleClient, Name: "Cleo"})
	if _, err := f.matcher.TradesmanProfile(ctx, client.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("client profile err = %v, want ErrNotFound", err)
	}
}
