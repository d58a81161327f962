package memstore

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/01moynul/tradelink-golang/internal/models"
)

// --- Travel plans ---

func clonePlan(p models.TravelPlan) models.TravelPlan {
	p.Stops = append(models.Stops{}, p.Stops...)
	return p
}

func (s *Store) CreateTravelPlan(ctx context.Context, p *models.TravelPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID()
	s.travelPlans[p.ID] = clonePlan(*p)
	return nil
}

func (s *Store) GetTravelPlan(ctx context.Context, id int64) (*models.TravelPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.travelPlans[id]
	if !ok {
		return nil, notFound("travel plan")
	}
	p = clonePlan(p)
	return &p, nil
}

func (s *Store) UpdateTravelPlan(ctx context.Context, p *models.TravelPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.travelPlans[p.ID]; !ok {
		return notFound("travel plan")
	}
	s.travelPlans[p.ID] = clonePlan(*p)
	return nil
}

func (s *Store) DeleteTravelPlan(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.travelPlans[id]; !ok {
		return notFound("travel plan")
	}
	delete(s.travelPlans, id)
	return nil
}

func (s *Store) ListTravelPlansByTradesman(ctx context.Context, tradesmanID int64, limit, offset int) ([]models.TravelPlan, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.TravelPlan
	for _, p := range s.travelPlans {
		if p.TradesmanID == tradesmanID {
			all = append(all, clonePlan(p))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartDate.Equal(all[j].StartDate) {
			return all[i].StartDate.After(all[j].StartDate)
		}
		return all[i].ID > all[j].ID
	})
	return window(all, limit, offset), len(all), nil
}

func (s *Store) CountOpenTravelPlans(ctx context.Context, tradesmanID, excludeID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.travelPlans {
		if p.TradesmanID == tradesmanID && p.Status == models.TravelPlanOpen && p.ID != excludeID {
			n++
		}
	}
	return n, nil
}

func (s *Store) FindOverlappingOpenPlan(ctx context.Context, tradesmanID int64, start, end time.Time, excludeID int64) (*models.TravelPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.TravelPlan
	for _, p := range s.travelPlans {
		if p.TradesmanID != tradesmanID || p.Status != models.TravelPlanOpen || p.ID == excludeID || !p.Overlaps(start, end) {
			continue
		}
		if best == nil || p.StartDate.Before(best.StartDate) {
			c := clonePlan(p)
			best = &c
		}
	}
	return best, nil
}

func (s *Store) NextOpenTravelPlan(ctx context.Context, tradesmanID int64, now time.Time) (*models.TravelPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.TravelPlan
	for _, id := range sortedKeys(s.travelPlans) {
		p := s.travelPlans[id]
		if p.TradesmanID != tradesmanID || p.Status != models.TravelPlanOpen || p.EndDate.Before(now) {
			continue
		}
		if best == nil || p.StartDate.Before(best.StartDate) {
			c := clonePlan(p)
			best = &c
		}
	}
	return best, nil
}

// --- Hires ---

func (s *Store) CreateHire(ctx context.Context, h *models.Hire) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.Status == models.HirePending {
		for _, other := range s.hires {
			if other.Status == models.HirePending && other.ClientID == h.ClientID && other.TradesmanID == h.TradesmanID {
				return conflict("pending hire request")
			}
		}
	}
	h.ID = s.nextID()
	s.hires[h.ID] = *h
	return nil
}

func (s *Store) GetHire(ctx context.Context, id int64) (*models.Hire, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hires[id]
	if !ok {
		return nil, notFound("hire")
	}
	return &h, nil
}

// LockHire is GetHire; InTx already serialises writers.
func (s *Store) LockHire(ctx context.Context, id int64) (*models.Hire, error) {
	return s.GetHire(ctx, id)
}

func (s *Store) FindPendingHire(ctx context.Context, clientID, tradesmanID int64) (*models.Hire, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.hires {
		if h.ClientID == clientID && h.TradesmanID == tradesmanID && h.Status == models.HirePending {
			return &h, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateHireStatus(ctx context.Context, id int64, status models.HireStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hires[id]
	if !ok {
		return notFound("hire")
	}
	if status == models.HirePending && h.Status != models.HirePending {
		for _, other := range s.hires {
			if other.ID != id && other.Status == models.HirePending && other.ClientID == h.ClientID && other.TradesmanID == h.TradesmanID {
				return conflict("pending hire request")
			}
		}
	}
	h.Status = status
	h.UpdatedAt = at
	s.hires[id] = h
	return nil
}

func newestHireFirst(hires []models.Hire) {
	sort.Slice(hires, func(i, j int) bool {
		if !hires[i].CreatedAt.Equal(hires[j].CreatedAt) {
			return hires[i].CreatedAt.After(hires[j].CreatedAt)
		}
		return hires[i].ID > hires[j].ID
	})
}

func (s *Store) LatestHireBetween(ctx context.Context, a, b int64) (*models.Hire, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []models.Hire
	for _, h := range s.hires {
		if (h.ClientID == a && h.TradesmanID == b) || (h.ClientID == b && h.TradesmanID == a) {
			matches = append(matches, h)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	newestHireFirst(matches)
	return &matches[0], nil
}

func (s *Store) ListHires(ctx context.Context, q models.HireQuery) ([]models.Hire, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.Hire
	for _, h := range s.hires {
		if q.ClientID != 0 && h.ClientID != q.ClientID {
			continue
		}
		if q.TradesmanID != 0 && h.TradesmanID != q.TradesmanID {
			continue
		}
		if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, h.Status) {
			continue
		}
		all = append(all, h)
	}
	newestHireFirst(all)
	return window(all, q.Limit, q.Offset), len(all), nil
}

// --- Reviews ---

func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.reviews {
		if other.HireID == r.HireID && other.Role == r.Role {
			return conflict("review")
		}
	}
	r.ID = s.nextID()
	s.reviews[r.ID] = *r
	return nil
}

func (s *Store) FindReview(ctx context.Context, hireID int64, role models.Role) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reviews {
		if r.HireID == hireID && r.Role == role {
			return &r, nil
		}
	}
	return nil, nil
}

func (s *Store) ListReviewsFor(ctx context.Context, toUserID int64) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Review{}
	for _, r := range s.reviews {
		if r.ToUserID == toUserID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) ListReviewsByAuthor(ctx context.Context, authorID int64, hireIDs []int64) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Review{}
	for _, id := range sortedKeys(s.reviews) {
		r := s.reviews[id]
		if r.FromUserID == authorID && slices.Contains(hireIDs, r.HireID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) RatingSummary(ctx context.Context, userID int64) (models.RatingSummary, error) {
	sums, err := s.RatingSummaries(ctx, []int64{userID})
	if err != nil {
		return models.RatingSummary{}, err
	}
	return sums[userID], nil
}

func (s *Store) RatingSummaries(ctx context.Context, userIDs []int64) (map[int64]models.RatingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := map[int64]int{}
	out := map[int64]models.RatingSummary{}
	for _, r := range s.reviews {
		if !slices.Contains(userIDs, r.ToUserID) {
			continue
		}
		sum := out[r.ToUserID]
		sum.ReviewCount++
		totals[r.ToUserID] += r.Rating
		out[r.ToUserID] = sum
	}
	for id, sum := range out {
		sum.AvgRating = float64(totals[id]) / float64(sum.ReviewCount)
		out[id] = sum
	}
	return out, nil
}

// --- Messages ---

func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.nextID()
	s.messages[m.ID] = *m
	return nil
}

func oldestMessageFirst(msgs []models.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].ID < msgs[j].ID
	})
}

func (s *Store) ListConversation(ctx context.Context, a, b int64) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Message{}
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	oldestMessageFirst(out)
	return out, nil
}

func (s *Store) ListMessagesFor(ctx context.Context, userID int64) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Message{}
	for _, m := range s.messages {
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, m)
		}
	}
	oldestMessageFirst(out)
	return out, nil
}

func (s *Store) MarkConversationRead(ctx context.Context, senderID, receiverID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, m := range s.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			s.messages[id] = m
			n++
		}
	}
	return n, nil
}
