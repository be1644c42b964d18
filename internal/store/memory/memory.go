// Package memory implements store.Store with in-process maps. It backs the
// demo mode and the test suites that need a full store without SQLite.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gymdesk/internal/core"
	"gymdesk/internal/store"
)

type Store struct {
	mu            sync.RWMutex
	seq           int64
	gyms          map[string]core.Gym
	members       map[string]core.Member
	plans         map[string]core.Plan
	subscriptions map[string]core.Subscription
	attendance    []core.Attendance
	transactions  []core.Transaction
}

func New() *Store {
	return &Store{
		gyms:          map[string]core.Gym{},
		members:       map[string]core.Member{},
		plans:         map[string]core.Plan{},
		subscriptions: map[string]core.Subscription{},
	}
}

func (s *Store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *Store) CreateGym(_ context.Context, g core.Gym) (core.Gym, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = s.nextID("gym")
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	s.gyms[g.ID] = g
	return g, nil
}

func (s *Store) GetGym(_ context.Context, id string) (core.Gym, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.gyms[id]
	if !ok {
		return core.Gym{}, store.ErrNotFound
	}
	return g, nil
}

func (s *Store) CreateMember(_ context.Context, m core.Member) (core.Member, error) {
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = s.nextID("mem")
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	m.Active = true
	s.members[m.ID] = m
	return m, nil
}

func (s *Store) GetMember(_ context.Context, gymID, id string) (core.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok || m.GymID != gymID {
		return core.Member{}, store.ErrNotFound
	}
	return m, nil
}

func (s *Store) ListMembers(_ context.Context, gymID string) ([]core.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Member
	for _, m := range s.members {
		if m.GymID == gymID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateMember(_ context.Context, m core.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.members[m.ID]
	if !ok || cur.GymID != m.GymID {
		return store.ErrNotFound
	}
	s.members[m.ID] = m
	return nil
}

func (s *Store) DeactivateMember(_ context.Context, gymID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok || m.GymID != gymID {
		return store.ErrNotFound
	}
	m.Active = false
	s.members[id] = m
	return nil
}

func (s *Store) CreatePlan(_ context.Context, p core.Plan) (core.Plan, error) {
	if err := p.Validate(); err != nil {
		return core.Plan{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = s.nextID("plan")
	}
	p.Active = true
	s.plans[p.ID] = p
	return p, nil
}

func (s *Store) GetPlan(_ context.Context, gymID, id string) (core.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	if !ok || p.GymID != gymID {
		return core.Plan{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListPlans(_ context.Context, gymID string) ([]core.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Plan
	for _, p := range s.plans {
		if p.GymID == gymID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateSubscription(_ context.Context, sub core.Subscription) (core.Subscription, error) {
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == "" {
		sub.ID = s.nextID("sub")
	}
	if sub.Status == "" {
		sub.Status = core.SubscriptionActive
	}
	s.subscriptions[sub.ID] = sub
	return sub, nil
}

func (s *Store) ListSubscriptions(_ context.Context, gymID string) ([]core.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Subscription
	for _, sub := range s.subscriptions {
		if sub.GymID == gymID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListDueSubscriptions(_ context.Context, asOf time.Time) ([]core.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Subscription
	for _, sub := range s.subscriptions {
		if sub.Status == core.SubscriptionActive && !sub.EndDate.IsZero() && !sub.EndDate.After(asOf) {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub core.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.subscriptions[sub.ID]
	if !ok || cur.GymID != sub.GymID {
		return store.ErrNotFound
	}
	s.subscriptions[sub.ID] = sub
	return nil
}

func (s *Store) RecordCheckIn(_ context.Context, a core.Attendance) (core.Attendance, error) {
	if err := a.Validate(); err != nil {
		return core.Attendance{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = s.nextID("att")
	}
	s.attendance = append(s.attendance, a)
	return a, nil
}

func (s *Store) ListCheckIns(_ context.Context, gymID string, from, to time.Time) ([]core.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Attendance
	for _, a := range s.attendance {
		if a.GymID != gymID {
			continue
		}
		if a.CheckedInAt.Before(from) || !a.CheckedInAt.Before(to) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) RecordTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = s.nextID("txn")
	}
	s.transactions = append(s.transactions, tx)
	return tx, nil
}

func (s *Store) ListTransactions(_ context.Context, q store.TransactionQuery) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, tx := range s.transactions {
		if tx.GymID != q.GymID {
			continue
		}
		if q.PlanID != "" && tx.PlanID != q.PlanID {
			continue
		}
		if !q.From.IsZero() && tx.OccurredAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !tx.OccurredAt.Before(q.To) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}
