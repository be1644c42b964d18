package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymdesk/internal/core"
	"gymdesk/internal/store"
)

func TestMemberLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	m, err := s.CreateMember(ctx, core.Member{GymID: "g1", Name: "Asha"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID == "" || !m.Active {
		t.Fatalf("unexpected member %+v", m)
	}

	got, err := s.GetMember(ctx, "g1", m.ID)
	if err != nil || got.Name != "Asha" {
		t.Fatalf("get: %+v err=%v", got, err)
	}

	// Another gym must not see the record.
	if _, err := s.GetMember(ctx, "g2", m.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := s.DeactivateMember(ctx, "g1", m.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	got, _ = s.GetMember(ctx, "g1", m.ID)
	if got.Active {
		t.Fatalf("expected inactive")
	}
}

func TestTransactionQueryFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	mk := func(gym, plan string, at time.Time) {
		_, err := s.RecordTransaction(ctx, core.Transaction{
			GymID: gym, MemberID: "m1", PlanID: plan,
			Amount: core.Money{Paise: 100}, Type: core.TypeIncome,
			Status: core.StatusReceived, OccurredAt: at,
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	mk("g1", "p1", base)
	mk("g1", "p2", base.Add(time.Hour))
	mk("g1", "p1", base.Add(48*time.Hour))
	mk("g2", "p1", base)

	got, err := s.ListTransactions(ctx, store.TransactionQuery{
		GymID: "g1",
		From:  base,
		To:    base.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d, want 2", len(got))
	}

	got, _ = s.ListTransactions(ctx, store.TransactionQuery{GymID: "g1", PlanID: "p1"})
	if len(got) != 2 {
		t.Fatalf("plan filter: got %d, want 2", len(got))
	}

	got, _ = s.ListTransactions(ctx, store.TransactionQuery{GymID: "g1", Limit: 1})
	if len(got) != 1 {
		t.Fatalf("limit: got %d, want 1", len(got))
	}
	// Newest first.
	if !got[0].OccurredAt.Equal(base.Add(48 * time.Hour)) {
		t.Fatalf("ordering: got %v", got[0].OccurredAt)
	}
}

func TestListDueSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	due, _ := s.CreateSubscription(ctx, core.Subscription{
		GymID: "g1", MemberID: "m1", PlanID: "p1",
		StartDate: now.AddDate(0, -1, 0), EndDate: now.AddDate(0, 0, -1),
	})
	_, _ = s.CreateSubscription(ctx, core.Subscription{
		GymID: "g1", MemberID: "m2", PlanID: "p1",
		StartDate: now.AddDate(0, -1, 0), EndDate: now.AddDate(0, 0, 10),
	})
	cancelled, _ := s.CreateSubscription(ctx, core.Subscription{
		GymID: "g1", MemberID: "m3", PlanID: "p1",
		StartDate: now.AddDate(0, -1, 0), EndDate: now.AddDate(0, 0, -5),
	})
	cancelled.Status = core.SubscriptionCancelled
	if err := s.UpdateSubscription(ctx, cancelled); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.ListDueSubscriptions(ctx, now)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(got) != 1 || got[0].ID != due.ID {
		t.Fatalf("got %+v, want only %s", got, due.ID)
	}
}

func TestRecordTransactionValidates(t *testing.T) {
	s := New()
	_, err := s.RecordTransaction(context.Background(), core.Transaction{GymID: "g1"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
}
