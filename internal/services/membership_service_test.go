package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymdesk/internal/core"
	"gymdesk/internal/store"
	"gymdesk/internal/store/memory"
)

type capturingPublisher struct {
	published []string
	err       error
}

func (p *capturingPublisher) PublishTransactionSync(_ context.Context, id, _ string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, id)
	return nil
}

func newTestService(t *testing.T) (*MembershipService, *memory.Store, *capturingPublisher) {
	t.Helper()
	st := memory.New()
	pub := &capturingPublisher{}
	return NewMembershipService(st, pub), st, pub
}

func seedMemberAndPlan(t *testing.T, svc *MembershipService) (core.Member, core.Plan) {
	t.Helper()
	ctx := context.Background()
	m, err := svc.AddMember(ctx, core.Member{GymID: "g1", Name: "Ravi"})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	p, err := svc.CreatePlan(ctx, core.Plan{
		GymID: "g1", Name: "Gold", Price: core.Money{Paise: 99900}, Interval: core.IntervalMonthly,
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return m, p
}

func TestRecordTransactionPublishesSync(t *testing.T) {
	svc, _, pub := newTestService(t)
	m, p := seedMemberAndPlan(t, svc)

	tx, err := svc.RecordTransaction(context.Background(), core.Transaction{
		GymID: "g1", MemberID: m.ID, PlanID: p.ID,
		Amount: core.Money{Paise: 99900}, Type: core.TypeIncome,
		Status: core.StatusReceived, OccurredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if tx.ID == "" {
		t.Fatal("expected generated id")
	}
	if len(pub.published) != 1 || pub.published[0] != tx.ID {
		t.Fatalf("expected one publish for %s, got %v", tx.ID, pub.published)
	}
}

func TestRecordTransactionSurvivesPublishFailure(t *testing.T) {
	svc, st, pub := newTestService(t)
	m, p := seedMemberAndPlan(t, svc)
	pub.err = errors.New("broker down")

	tx, err := svc.RecordTransaction(context.Background(), core.Transaction{
		GymID: "g1", MemberID: m.ID, PlanID: p.ID,
		Amount: core.Money{Paise: 500}, Type: core.TypeIncome,
		Status: core.StatusReceived, OccurredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("record should succeed despite publish failure: %v", err)
	}

	got, err := st.ListTransactions(context.Background(), store.TransactionQuery{GymID: "g1"})
	if err != nil || len(got) != 1 || got[0].ID != tx.ID {
		t.Fatalf("transaction not persisted: %v err=%v", got, err)
	}
}

func TestSubscribeDerivesEndDate(t *testing.T) {
	svc, _, _ := newTestService(t)
	m, p := seedMemberAndPlan(t, svc)

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	sub, err := svc.Subscribe(context.Background(), core.Subscription{
		GymID: "g1", MemberID: m.ID, PlanID: p.ID, StartDate: start,
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if want := start.AddDate(0, 1, 0); !sub.EndDate.Equal(want) {
		t.Fatalf("end date = %v, want %v", sub.EndDate, want)
	}
	if sub.Status != core.SubscriptionActive {
		t.Fatalf("status = %q", sub.Status)
	}
}

func TestSubscribeUnknownPlan(t *testing.T) {
	svc, _, _ := newTestService(t)
	m, _ := seedMemberAndPlan(t, svc)

	_, err := svc.Subscribe(context.Background(), core.Subscription{
		GymID: "g1", MemberID: m.ID, PlanID: "nope",
		StartDate: time.Now(),
	})
	if err == nil {
		t.Fatal("expected error for unknown plan")
	}
}

func TestCheckInRejectsInactiveMember(t *testing.T) {
	svc, _, _ := newTestService(t)
	m, _ := seedMemberAndPlan(t, svc)
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, "g1", m.ID, time.Now()); err != nil {
		t.Fatalf("check-in for active member: %v", err)
	}

	if err := svc.DeactivateMember(ctx, "g1", m.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.CheckIn(ctx, "g1", m.ID, time.Now()); err == nil {
		t.Fatal("expected check-in rejection for inactive member")
	}
}
