package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gymdesk/internal/core"
	"gymdesk/internal/store"
)

// SyncPublisher enqueues a transaction for export to the external ledger.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id, gymID string) error
}

// MembershipService orchestrates member, plan, subscription and payment
// operations over the injected store. Writes that create transactions also
// publish an outbox message; a publish failure never fails the request
// since the local write already succeeded.
type MembershipService struct {
	store     store.Store
	publisher SyncPublisher
}

func NewMembershipService(st store.Store, publisher SyncPublisher) *MembershipService {
	return &MembershipService{
		store:     st,
		publisher: publisher,
	}
}

// RecordTransaction saves a payment event locally and publishes a sync
// message for the ledger export worker.
func (s *MembershipService) RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	saved, err := s.store.RecordTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}

	if err := s.publishSyncMessage(ctx, saved.ID, saved.GymID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", saved.ID, "error", err)
		// Don't fail the request - the transaction is saved locally.
	}

	return saved, nil
}

func (s *MembershipService) publishSyncMessage(ctx context.Context, id, gymID string) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Sync publisher not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishTransactionSync(ctx, id, gymID)
}

func (s *MembershipService) AddMember(ctx context.Context, m core.Member) (core.Member, error) {
	saved, err := s.store.CreateMember(ctx, m)
	if err != nil {
		return core.Member{}, fmt.Errorf("create member: %w", err)
	}
	return saved, nil
}

func (s *MembershipService) GetMember(ctx context.Context, gymID, id string) (core.Member, error) {
	return s.store.GetMember(ctx, gymID, id)
}

func (s *MembershipService) ListMembers(ctx context.Context, gymID string) ([]core.Member, error) {
	return s.store.ListMembers(ctx, gymID)
}

func (s *MembershipService) UpdateMember(ctx context.Context, m core.Member) error {
	return s.store.UpdateMember(ctx, m)
}

func (s *MembershipService) DeactivateMember(ctx context.Context, gymID, id string) error {
	return s.store.DeactivateMember(ctx, gymID, id)
}

func (s *MembershipService) CreatePlan(ctx context.Context, p core.Plan) (core.Plan, error) {
	saved, err := s.store.CreatePlan(ctx, p)
	if err != nil {
		return core.Plan{}, fmt.Errorf("create plan: %w", err)
	}
	return saved, nil
}

func (s *MembershipService) ListPlans(ctx context.Context, gymID string) ([]core.Plan, error) {
	return s.store.ListPlans(ctx, gymID)
}

// Subscribe enrolls a member in a plan. A zero end date is derived from the
// plan's billing interval.
func (s *MembershipService) Subscribe(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	plan, err := s.store.GetPlan(ctx, sub.GymID, sub.PlanID)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get plan: %w", err)
	}
	if _, err := s.store.GetMember(ctx, sub.GymID, sub.MemberID); err != nil {
		return core.Subscription{}, fmt.Errorf("get member: %w", err)
	}

	if sub.StartDate.IsZero() {
		sub.StartDate = time.Now()
	}
	if sub.EndDate.IsZero() {
		sub.EndDate = plan.Interval.Next(sub.StartDate)
	}
	sub.Status = core.SubscriptionActive

	saved, err := s.store.CreateSubscription(ctx, sub)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription created",
		"id", saved.ID,
		"gym_id", saved.GymID,
		"member_id", saved.MemberID,
		"plan_id", saved.PlanID,
		"end_date", saved.EndDate)
	return saved, nil
}

func (s *MembershipService) ListSubscriptions(ctx context.Context, gymID string) ([]core.Subscription, error) {
	return s.store.ListSubscriptions(ctx, gymID)
}

// CheckIn records a member visit. Inactive members are rejected.
func (s *MembershipService) CheckIn(ctx context.Context, gymID, memberID string, at time.Time) (core.Attendance, error) {
	m, err := s.store.GetMember(ctx, gymID, memberID)
	if err != nil {
		return core.Attendance{}, fmt.Errorf("get member: %w", err)
	}
	if !m.Active {
		return core.Attendance{}, fmt.Errorf("member %s is not active", memberID)
	}
	return s.store.RecordCheckIn(ctx, core.Attendance{
		GymID:       gymID,
		MemberID:    memberID,
		CheckedInAt: at,
	})
}

func (s *MembershipService) ListCheckIns(ctx context.Context, gymID string, from, to time.Time) ([]core.Attendance, error) {
	return s.store.ListCheckIns(ctx, gymID, from, to)
}

// RecentTransactions returns the newest transactions for the dashboard list.
func (s *MembershipService) RecentTransactions(ctx context.Context, gymID string, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListTransactions(ctx, store.TransactionQuery{GymID: gymID, Limit: limit})
}
