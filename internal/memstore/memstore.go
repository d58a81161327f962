// Package memstore is an in-memory persistence gateway with the same method
// set as the MySQL gateway. It backs the memory storage driver and the
// service tests.
//
// InTx serialises transactions on a single mutex but cannot roll back: writes
// made before an error stay applied.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/models"
)

type txKey struct{}

// Store is safe for concurrent use.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	lastID int64

	users         map[int64]models.User
	details       map[int64]models.TradesmanDetails // by user id
	plans         map[int64]models.SubscriptionPlan
	subscriptions map[int64]models.UserSubscription
	travelPlans   map[int64]models.TravelPlan
	hires         map[int64]models.Hire
	reviews       map[int64]models.Review
	messages      map[int64]models.Message
	tradeTypes    map[int64]models.TradeType
}

func New() *Store {
	return &Store{
		users:         map[int64]models.User{},
		details:       map[int64]models.TradesmanDetails{},
		plans:         map[int64]models.SubscriptionPlan{},
		subscriptions: map[int64]models.UserSubscription{},
		travelPlans:   map[int64]models.TravelPlan{},
		hires:         map[int64]models.Hire{},
		reviews:       map[int64]models.Review{},
		messages:      map[int64]models.Message{},
		tradeTypes:    map[int64]models.TradeType{},
	}
}

func (s *Store) nextID() int64 {
	s.lastID++
	return s.lastID
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s not found", apperr.ErrNotFound, what)
}

func conflict(what string) error {
	return fmt.Errorf("%w: %s already exists", apperr.ErrConflict, what)
}

// sortedKeys returns the ids of m in ascending order.
func sortedKeys[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// InTx runs fn while holding the transaction lock. Nested calls join.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

// LockUser only checks existence; InTx already serialises writers.
func (s *Store) LockUser(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return notFound("user")
	}
	return nil
}

// --- Users ---

// AddUser stores u, assigning an id when zero. Tradesmen get an empty details row.
func (s *Store) AddUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.nextID()
	} else if u.ID > s.lastID {
		s.lastID = u.ID
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
		u.UpdatedAt = u.CreatedAt
	}
	s.users[u.ID] = u
	if u.Role == models.RoleTradesman {
		if _, ok := s.details[u.ID]; !ok {
			s.details[u.ID] = models.TradesmanDetails{ID: s.nextID(), UserID: u.ID, CreatedAt: u.CreatedAt, UpdatedAt: u.CreatedAt}
		}
	}
	return u
}

// PutTradesmanDetails replaces the details row of a tradesman.
func (s *Store) PutTradesmanDetails(d models.TradesmanDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == 0 {
		d.ID = s.nextID()
	}
	s.details[d.UserID] = d
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

func (s *Store) ListUsersByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	seen := map[int64]bool{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetTradesmanDetails(ctx context.Context, userID int64) (*models.TradesmanDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.details[userID]
	if !ok {
		return nil, notFound("tradesman details")
	}
	return &d, nil
}

func (s *Store) UpsertTradesmanDetails(ctx context.Context, d *models.TradesmanDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.details[d.UserID]
	if !ok {
		cur = models.TradesmanDetails{ID: s.nextID(), UserID: d.UserID, CreatedAt: d.CreatedAt}
	}
	cur.TradeType = d.TradeType
	cur.TradeTypeSlug = d.TradeTypeSlug
	cur.BusinessName = d.BusinessName
	cur.ShortBio = d.ShortBio
	cur.UpdatedAt = d.UpdatedAt
	s.details[d.UserID] = cur
	return nil
}

func (s *Store) SetTradesmanApproval(ctx context.Context, userID int64, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.details[userID]
	if !ok {
		return notFound("tradesman")
	}
	d.IsApproved = approved
	d.UpdatedAt = time.Now()
	s.details[userID] = d
	return nil
}

func (s *Store) SetCurrentLocation(ctx context.Context, userID int64, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.details[userID]
	if !ok {
		return notFound("tradesman details")
	}
	d.CurrentLocation = &location
	d.UpdatedAt = time.Now()
	s.details[userID] = d
	return nil
}

func (s *Store) ListTradesmen(ctx context.Context, q models.TradesmanQuery) ([]models.TradesmanCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.TradesmanCandidate{}
	for _, id := range sortedKeys(s.users) {
		u := s.users[id]
		d, ok := s.details[id]
		if u.Role != models.RoleTradesman || !ok {
			continue
		}
		if len(q.TradeTypeSlugs) > 0 && !slices.Contains(q.TradeTypeSlugs, d.TradeTypeSlug) {
			continue
		}
		if q.VerifiedOnly && !d.IsApproved {
			continue
		}
		if q.AvailableAt != nil && !s.availableLocked(id, *q.AvailableAt) {
			continue
		}
		out = append(out, models.TradesmanCandidate{User: u, Details: d})
	}
	return out, nil
}

func (s *Store) availableLocked(tradesmanID int64, at time.Time) bool {
	for _, p := range s.travelPlans {
		if p.TradesmanID == tradesmanID && p.Status == models.TravelPlanOpen && p.Covers(at) {
			return true
		}
	}
	return false
}

func (s *Store) ListPendingTradesmen(ctx context.Context, limit, offset int) ([]models.TradesmanCandidate, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.TradesmanCandidate
	for _, id := range sortedKeys(s.users) {
		u := s.users[id]
		d, ok := s.details[id]
		if u.Role == models.RoleTradesman && ok && !d.IsApproved {
			all = append(all, models.TradesmanCandidate{User: u, Details: d})
		}
	}
	return window(all, limit, offset), len(all), nil
}

// window applies LIMIT/OFFSET; limit 0 returns everything after offset.
func window[T any](items []T, limit, offset int) []T {
	out := []T{}
	if offset >= len(items) {
		return out
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return append(out, items...)
}

// --- Subscriptions ---

// AddPlan stores a subscription plan, assigning an id when zero.
func (s *Store) AddPlan(p models.SubscriptionPlan) models.SubscriptionPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextID()
	}
	s.plans[p.ID] = p
	return p
}

func (s *Store) GetPlan(ctx context.Context, id int64) (*models.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, notFound("subscription plan")
	}
	return &p, nil
}

func (s *Store) ListPublicPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.SubscriptionPlan{}
	for _, id := range sortedKeys(s.plans) {
		if p := s.plans[id]; p.IsPublic {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (s *Store) GetActiveSubscription(ctx context.Context, userID int64) (*models.ActiveSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subscriptions {
		if sub.UserID == userID && sub.Status == models.SubscriptionActive {
			return &models.ActiveSubscription{Subscription: sub, Plan: s.plans[sub.PlanID]}, nil
		}
	}
	return nil, notFound("active subscription")
}

func (s *Store) CreateSubscription(ctx context.Context, sub *models.UserSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.Status == models.SubscriptionActive {
		for _, other := range s.subscriptions {
			if other.UserID == sub.UserID && other.Status == models.SubscriptionActive {
				return conflict("active subscription")
			}
		}
	}
	sub.ID = s.nextID()
	s.subscriptions[sub.ID] = *sub
	return nil
}

func (s *Store) UpdateSubscriptionStatus(ctx context.Context, id int64, status models.SubscriptionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[id]
	if !ok {
		return notFound("subscription")
	}
	sub.Status = status
	sub.UpdatedAt = time.Now()
	s.subscriptions[id] = sub
	return nil
}

func (s *Store) ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sub := range s.subscriptions {
		if sub.Status == models.SubscriptionActive && sub.ExpiredAt(now) {
			sub.Status = models.SubscriptionExpired
			sub.UpdatedAt = now
			s.subscriptions[id] = sub
			n++
		}
	}
	return n, nil
}

// --- Trade types ---

func (s *Store) ListTradeTypes(ctx context.Context, q models.TradeTypeQuery) ([]models.TradeType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.TradeType{}
	search := strings.ToLower(q.Search)
	for _, t := range s.tradeTypes {
		if !t.IsActive {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Name), search) {
			continue
		}
		if q.Category != "" && (t.Category == nil || *t.Category != q.Category) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateTradeType(ctx context.Context, t *models.TradeType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.tradeTypes {
		if other.Slug == t.Slug {
			return conflict("trade type")
		}
	}
	t.ID = s.nextID()
	s.tradeTypes[t.ID] = *t
	return nil
}

func (s *Store) GetTradeTypeBySlug(ctx context.Context, slug string) (*models.TradeType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tradeTypes {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, notFound("trade type")
}
