package review

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/memstore"
	"github.com/01moynul/tradelink-golang/internal/models"
)

type fixture struct {
	store     *memstore.Store
	ledger    *Ledger
	client    models.Actor
	tradesman models.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	f := &fixture{store: store, ledger: NewLedger(store, slog.New(slog.NewTextHandler(io.Discard, nil)))}
	f.client = f.actor(models.RoleClient, "Cleo")
	f.tradesman = f.actor(models.RoleTradesman, "Tom")
	return f
}

func (f *fixture) actor(role models.Role, name string) models.Actor {
	u := f.store.AddUser(models.User{Role: role, Name: name})
	return models.Actor{ID: u.ID, Role: role}
}

func (f *fixture) hire(t *testing.T, status models.HireStatus) *models.Hire {
	t.Helper()
	h := &models.Hire{ClientID: f.client.ID, TradesmanID: f.tradesman.ID, Status: status}
	if err := f.store.CreateHire(context.Background(), h); err != nil {
		t.Fatalf("CreateHire: %v", err)
	}
	return h
}

func TestAddReviewValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	done := f.hire(t, models.HireCompleted)
	active := f.hire(t, models.HireAccepted)
	admin := f.actor(models.RoleAdmin, "Ada")
	stranger := f.actor(models.RoleClient, "Stranger")

	cases := []struct {
		name   string
		actor  models.Actor
		hireID int64
		rating int
		want   error
	}{
		{"rating too low", f.client, done.ID, 0, apperr.ErrBadRequest},
		{"rating too high", f.client, done.ID, 6, apperr.ErrBadRequest},
		{"missing hire id", f.client, 0, 5, apperr.ErrBadRequest},
		{"admin", admin, done.ID, 5, apperr.ErrForbidden},
		{"unknown hire", f.client, 9999, 5, apperr.ErrNotFound},
		{"not completed", f.client, active.ID, 5, apperr.ErrInvalidState},
		{"not a party", stranger, done.ID, 5, apperr.ErrForbidden},
	}
	for _, tc := range cases {
		if _, err := f.ledger.AddReview(ctx, tc.actor, tc.hireID, tc.rating, nil); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestAddReviewOncePerRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	done := f.hire(t, models.HireCompleted)

	comment := "  Tidy and on time "
	r, err := f.ledger.AddReview(ctx, f.client, done.ID, 5, &comment)
	if err != nil {
		t.Fatalf("AddReview: %v", err)
	}
	if r.ToUserID != f.tradesman.ID || r.Role != models.RoleClient || *r.Comment != "Tidy and on time" {
		t.Fatalf("review = %+v", r)
	}
	if _, err := f.ledger.AddReview(ctx, f.client, done.ID, 4, nil); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second client review err = %v, want ErrConflict", err)
	}

	// The tradesman reviews the client independently.
	back, err := f.ledger.AddReview(ctx, f.tradesman, done.ID, 3, nil)
	if err != nil {
		t.Fatalf("tradesman AddReview: %v", err)
	}
	if back.ToUserID != f.client.ID || back.Comment != nil {
		t.Fatalf("tradesman review = %+v", back)
	}
}

func TestReviewsForAndSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.ledger.Summary(ctx, f.tradesman.ID)
	if err != nil || empty.ReviewCount != 0 || empty.AvgRating != 0 {
		t.Fatalf("Summary() with no reviews = %+v, %v", empty, err)
	}

	for _, rating := range []int{5, 4} {
		h := f.hire(t, models.HireCompleted)
		if _, err := f.ledger.AddReview(ctx, f.client, h.ID, rating, nil); err != nil {
			t.Fatalf("AddReview: %v", err)
		}
	}

	got, err := f.ledger.ReviewsFor(ctx, f.tradesman.ID)
	if err != nil {
		t.Fatalf("ReviewsFor: %v", err)
	}
	if got.ReviewCount != 2 || got.AvgRating != 4.5 || len(got.Reviews) != 2 {
		t.Fatalf("ReviewsFor() = %+v", got)
	}
	if got.Reviews[0].FromUser == nil || got.Reviews[0].FromUser.Name != "Cleo" {
		t.Fatalf("FromUser = %+v", got.Reviews[0].FromUser)
	}

	sums, err := f.ledger.Summaries(ctx, []int64{f.tradesman.ID, f.client.ID})
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if sums[f.tradesman.ID].ReviewCount != 2 {
		t.Fatalf("tradesman summary = %+v", sums[f.tradesman.ID])
	}
	if _, ok := sums[f.client.ID]; ok {
		t.Fatal("client without reviews should be absent")
	}

	if _, err := f.ledger.ReviewsFor(ctx, 0); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("ReviewsFor(0) err = %v", err)
	}
}

func TestPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reviewed := f.hire(t, models.HireCompleted)
	open := f.hire(t, models.HireCompleted)
	f.hire(t, models.HireAccepted)

	if _, err := f.ledger.AddReview(ctx, f.client, reviewed.ID, 5, nil); err != nil {
		t.Fatalf("AddReview: %v", err)
	}

	pending, err := f.ledger.Pending(ctx, f.client)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != open.ID {
		t.Fatalf("client pending = %+v", pending)
	}

	// The tradesman has reviewed neither completed job.
	theirs, err := f.ledger.Pending(ctx, f.tradesman)
	if err != nil || len(theirs) != 2 {
		t.Fatalf("tradesman pending = %+v, %v", theirs, err)
	}

	admin := f.actor(models.RoleAdmin, "Ada")
	if _, err := f.ledger.Pending(ctx, admin); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("admin Pending err = %v", err)
	}
}
