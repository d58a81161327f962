package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/01moynul/tradelink-golang/internal/approval"
	"github.com/01moynul/tradelink-golang/internal/auth"
	"github.com/01moynul/tradelink-golang/internal/chat"
	"github.com/01moynul/tradelink-golang/internal/email"
	"github.com/01moynul/tradelink-golang/internal/handlers"
	"github.com/01moynul/tradelink-golang/internal/hire"
	"github.com/01moynul/tradelink-golang/internal/memstore"
	"github.com/01moynul/tradelink-golang/internal/models"
	"github.com/01moynul/tradelink-golang/internal/pagination"
	"github.com/01moynul/tradelink-golang/internal/quota"
	"github.com/01moynul/tradelink-golang/internal/review"
	"github.com/01moynul/tradelink-golang/internal/trades"
	"github.com/01moynul/tradelink-golang/internal/travel"
	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    json.RawMessage  `json:"data"`
	Meta    *pagination.Meta `json:"meta"`
}

type api struct {
	t      *testing.T
	router *gin.Engine
	store  *memstore.Store
	demo   memstore.Demo
	tokens map[int64]string
	issuer *auth.Issuer
}

func newAPI(t *testing.T) *api {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	demo := store.SeedDemo(time.Now())

	guard := quota.NewGuard(store, logger)
	ledger := review.NewLedger(store, logger)
	h := &handlers.Handlers{
		Hires:     hire.NewManager(store, ledger, logger),
		Reviews:   ledger,
		Travel:    travel.NewMatcher(store, guard, ledger, 40, logger),
		Chat:      chat.NewAggregator(store, logger),
		Quota:     guard,
		Approvals: approval.NewService(store, &email.LogNotifier{Logger: logger}, logger),
		Trades:    trades.NewCatalogue(store, logger),
		Logger:    logger,
	}
	issuer := auth.NewIssuer("test-secret", time.Hour)
	router := SetupRouter(h, Options{Issuer: issuer, AllowedOrigins: []string{"http://localhost:5173"}, Logger: logger})
	return &api{t: t, router: router, store: store, demo: demo, tokens: map[int64]string{}, issuer: issuer}
}

func (a *api) token(u models.User) string {
	a.t.Helper()
	if tok, ok := a.tokens[u.ID]; ok {
		return tok
	}
	tok, err := a.issuer.Generate(models.Actor{ID: u.ID, Role: u.Role})
	if err != nil {
		a.t.Fatalf("Generate: %v", err)
	}
	a.tokens[u.ID] = tok
	return tok
}

// call performs a request as u (nil for anonymous) and decodes the envelope.
func (a *api) call(u *models.User, method, path string, body any) (int, envelope) {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+a.token(*u))
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		a.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func (a *api) mustCall(u *models.User, method, path string, body any, wantStatus int, out any) envelope {
	a.t.Helper()
	status, env := a.call(u, method, path, body)
	if status != wantStatus {
		a.t.Fatalf("%s %s: status %d (%s), want %d", method, path, status, env.Message, wantStatus)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			a.t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}
	return env
}

func TestPing(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("ping status = %d", w.Code)
	}
}

func TestHireLifecycle(t *testing.T) {
	a := newAPI(t)
	client, tradesman := &a.demo.Client, &a.demo.Tradesman

	var h models.Hire
	a.mustCall(client, http.MethodPost, "/api/hire/request", gin.H{"tradesmanId": tradesman.ID, "jobDescription": "Rewire kitchen"}, http.StatusCreated, &h)
	if h.Status != models.HirePending {
		t.Fatalf("status = %s", h.Status)
	}
	if status, env := a.call(client, http.MethodPost, "/api/hire/request", gin.H{"tradesmanId": tradesman.ID}); status != http.StatusBadRequest || env.Success {
		t.Fatalf("duplicate request: %d %+v", status, env)
	}

	env := a.mustCall(tradesman, http.MethodPost, "/api/hire/respond", gin.H{"hireId": h.ID, "action": "accept"}, http.StatusOK, &h)
	if env.Message != "Hire accepted" {
		t.Fatalf("respond message = %q", env.Message)
	}
	if status, _ := a.call(tradesman, http.MethodPost, "/api/hire/respond", gin.H{"hireId": h.ID, "action": "maybe"}); status != http.StatusBadRequest {
		t.Fatalf("bad action status = %d", status)
	}

	a.mustCall(tradesman, http.MethodPost, "/api/hire/request-complete", gin.H{"hireId": h.ID}, http.StatusOK, &h)
	var pending []models.Hire
	a.mustCall(client, http.MethodGet, "/api/hire/pending-complete", nil, http.StatusOK, &pending)
	if len(pending) != 1 || pending[0].ID != h.ID {
		t.Fatalf("pending-complete = %+v", pending)
	}
	a.mustCall(client, http.MethodPost, "/api/hire/confirm-complete", gin.H{"hireId": h.ID}, http.StatusOK, &h)
	if h.Status != models.HireCompleted {
		t.Fatalf("status after confirm = %s", h.Status)
	}

	var latest models.Hire
	a.mustCall(client, http.MethodGet, fmt.Sprintf("/api/hire/status/%d", tradesman.ID), nil, http.StatusOK, &latest)
	if latest.ID != h.ID {
		t.Fatalf("status/:userId = %+v", latest)
	}

	a.mustCall(client, http.MethodPost, "/api/hire/review", gin.H{"hireId": h.ID, "rating": 4, "comment": "Tidy work"}, http.StatusCreated, nil)
	if status, _ := a.call(client, http.MethodPost, "/api/hire/review", gin.H{"hireId": h.ID, "rating": 5}); status != http.StatusBadRequest {
		t.Fatalf("second review status = %d", status)
	}

	var received review.Received
	a.mustCall(nil, http.MethodGet, fmt.Sprintf("/api/hire/reviews/%d", tradesman.ID), nil, http.StatusOK, &received)
	if received.AvgRating != 4 || received.ReviewCount != 1 {
		t.Fatalf("received = %+v", received)
	}

	var jobs []hire.Job
	env = a.mustCall(tradesman, http.MethodGet, "/api/hire/my?filter=completed", nil, http.StatusOK, &jobs)
	if env.Meta == nil || env.Meta.Total != 1 || jobs[0].StatusLabel != "Completed" || jobs[0].OtherUser.ID != client.ID {
		t.Fatalf("my jobs = %+v meta %+v", jobs, env.Meta)
	}
}

func TestTravelPlansAndFilter(t *testing.T) {
	a := newAPI(t)
	tradesman := &a.demo.Tradesman
	start := time.Now().UTC().Format("2006-01-02")
	end := time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02")

	var plan models.TravelPlan
	a.mustCall(tradesman, http.MethodPost, "/api/locations", gin.H{
		"currentLocation": "51.5074,-0.1278",
		"startLocation":   "London",
		"destination":     "Oxford",
		"allowStops":      true,
		"stops":           "Reading, Didcot",
		"startDate":       start,
		"endDate":         end,
	}, http.StatusCreated, &plan)
	if len(plan.Stops) != 2 || plan.Status != models.TravelPlanOpen {
		t.Fatalf("plan = %+v", plan)
	}

	if status, _ := a.call(tradesman, http.MethodPost, "/api/locations", gin.H{
		"startLocation": "London", "destination": "Bath", "startDate": end, "endDate": end,
	}); status != http.StatusBadRequest {
		t.Fatalf("overlapping plan status = %d", status)
	}
	if status, _ := a.call(&a.demo.Client, http.MethodPost, "/api/locations", gin.H{}); status != http.StatusBadRequest && status != http.StatusForbidden {
		t.Fatalf("client plan status = %d", status)
	}

	var plans []models.TravelPlan
	env := a.mustCall(tradesman, http.MethodGet, "/api/locations/my", nil, http.StatusOK, &plans)
	if env.Meta.Total != 1 || len(plans) != 1 {
		t.Fatalf("my plans = %+v", plans)
	}

	var matches []travel.TradesmanMatch
	env = a.mustCall(nil, http.MethodGet, "/api/users/tradesmen/filter?tradeType=Electrician&lat=51.75&lng=-1.25&radius=100&availability=today", nil, http.StatusOK, &matches)
	if env.Meta.Total != 1 || matches[0].ID != tradesman.ID || matches[0].DistanceKm == nil {
		t.Fatalf("matches = %+v", matches)
	}
	a.mustCall(nil, http.MethodGet, "/api/users/tradesmen/filter?lat=51.75&lng=-1.25&radius=10", nil, http.StatusOK, &matches)
	if len(matches) != 0 {
		t.Fatalf("matches within 10km = %+v", matches)
	}
	if status, _ := a.call(nil, http.MethodGet, "/api/users/tradesmen/filter?lat=51.75", nil); status != http.StatusBadRequest {
		t.Fatalf("lat only status = %d", status)
	}

	var profile travel.Profile
	a.mustCall(nil, http.MethodGet, fmt.Sprintf("/api/users/tradesmen/%d/profile", tradesman.ID), nil, http.StatusOK, &profile)
	if profile.TravelPlan == nil || profile.TravelPlan.ID != plan.ID {
		t.Fatalf("profile = %+v", profile)
	}

	closed := models.TravelPlanClosed
	a.mustCall(tradesman, http.MethodPut, fmt.Sprintf("/api/locations/%d", plan.ID), gin.H{"status": closed}, http.StatusOK, &plan)
	if plan.Status != closed {
		t.Fatalf("status after update = %s", plan.Status)
	}
	a.mustCall(tradesman, http.MethodDelete, fmt.Sprintf("/api/locations/%d", plan.ID), nil, http.StatusOK, nil)
}

func TestChat(t *testing.T) {
	a := newAPI(t)
	client, tradesman := &a.demo.Client, &a.demo.Tradesman

	a.mustCall(client, http.MethodPost, "/api/chat/send", gin.H{"receiverId": tradesman.ID, "message": "Hi there"}, http.StatusCreated, nil)
	if status, _ := a.call(client, http.MethodPost, "/api/chat/send", gin.H{"receiverId": tradesman.ID}); status != http.StatusBadRequest {
		t.Fatalf("empty message status = %d", status)
	}

	var list []chat.Summary
	a.mustCall(tradesman, http.MethodGet, "/api/chat/list", nil, http.StatusOK, &list)
	if len(list) != 1 || list[0].UnreadCount != 1 {
		t.Fatalf("chat list = %+v", list)
	}
	a.mustCall(tradesman, http.MethodPut, "/api/chat/mark-read", gin.H{"conversationWith": client.ID}, http.StatusOK, nil)

	var convo []chat.ConversationMessage
	a.mustCall(tradesman, http.MethodGet, fmt.Sprintf("/api/chat/conversation/%d", client.ID), nil, http.StatusOK, &convo)
	if len(convo) != 1 || convo[0].IsMine {
		t.Fatalf("conversation = %+v", convo)
	}
}

func TestAdminRoutes(t *testing.T) {
	a := newAPI(t)
	admin, client := &a.demo.Admin, &a.demo.Client
	newcomer := a.store.AddUser(models.User{Role: models.RoleTradesman, Name: "New Tradesman", Email: "new@example.com"})

	if status, env := a.call(nil, http.MethodGet, "/api/admin/tradesmen/pending", nil); status != http.StatusUnauthorized || env.Success {
		t.Fatalf("anonymous status = %d", status)
	}
	if status, _ := a.call(client, http.MethodGet, "/api/admin/tradesmen/pending", nil); status != http.StatusForbidden {
		t.Fatalf("client status = %d", status)
	}

	var pending []models.TradesmanCandidate
	env := a.mustCall(admin, http.MethodGet, "/api/admin/tradesmen/pending", nil, http.StatusOK, &pending)
	if env.Meta.Total != 1 || pending[0].User.ID != newcomer.ID {
		t.Fatalf("pending = %+v", pending)
	}
	a.mustCall(admin, http.MethodPost, fmt.Sprintf("/api/admin/tradesmen/%d/approve", newcomer.ID), nil, http.StatusOK, nil)
	a.mustCall(admin, http.MethodGet, "/api/admin/tradesmen/pending", nil, http.StatusOK, &pending)
	if len(pending) != 0 {
		t.Fatalf("pending after approve = %+v", pending)
	}

	var trade models.TradeType
	a.mustCall(admin, http.MethodPost, "/api/admin/trades", gin.H{"name": "Roofer"}, http.StatusCreated, &trade)
	if trade.Slug != "roofer" {
		t.Fatalf("trade = %+v", trade)
	}
	a.mustCall(&newcomer, http.MethodPut, "/api/tradesman/details", gin.H{"tradeType": "roofer"}, http.StatusOK, nil)

	var plans []models.SubscriptionPlan
	a.mustCall(nil, http.MethodGet, "/api/subscriptions/plans", nil, http.StatusOK, &plans)
	a.mustCall(admin, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/subscription", newcomer.ID), gin.H{"planId": plans[1].ID}, http.StatusCreated, nil)
	var sub models.ActiveSubscription
	a.mustCall(&newcomer, http.MethodGet, "/api/subscriptions/me", nil, http.StatusOK, &sub)
	if sub.Plan.ID != plans[1].ID {
		t.Fatalf("subscription = %+v", sub)
	}
	a.mustCall(admin, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d/subscription", newcomer.ID), nil, http.StatusOK, nil)
	if status, _ := a.call(&newcomer, http.MethodGet, "/api/subscriptions/me", nil); status != http.StatusNotFound {
		t.Fatalf("subscription after cancel status = %d", status)
	}
}
