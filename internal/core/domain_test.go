package core

import (
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	base := Transaction{
		GymID:      "gym1",
		MemberID:   "m1",
		PlanID:     "p1",
		Amount:     Money{Paise: 49900},
		Type:       TypeIncome,
		Status:     StatusReceived,
		OccurredAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
	}{
		{"missing gym", func(tx *Transaction) { tx.GymID = "" }},
		{"missing member", func(tx *Transaction) { tx.MemberID = "" }},
		{"negative amount", func(tx *Transaction) { tx.Amount.Paise = -1 }},
		{"bad type", func(tx *Transaction) { tx.Type = "refund" }},
		{"bad status", func(tx *Transaction) { tx.Status = "lost" }},
		{"zero timestamp", func(tx *Transaction) { tx.OccurredAt = time.Time{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := base
			tc.mutate(&tx)
			if err := tx.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestCountsAsIncome(t *testing.T) {
	cases := []struct {
		typ    TransactionType
		status TransactionStatus
		want   bool
	}{
		{TypeIncome, StatusReceived, true},
		{TypeIncome, StatusPending, false},
		{TypeOther, StatusReceived, false},
		{TypeOther, StatusPending, false},
	}
	for i, tc := range cases {
		tx := Transaction{Type: tc.typ, Status: tc.status}
		if got := tx.CountsAsIncome(); got != tc.want {
			t.Fatalf("case %d: got %v, want %v", i, got, tc.want)
		}
	}
}

func TestPlanValidate(t *testing.T) {
	good := Plan{GymID: "gym1", Name: "Gold", Price: Money{Paise: 99900}, Interval: IntervalMonthly}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Plan{
		{GymID: "", Name: "Gold", Price: Money{Paise: 1}, Interval: IntervalMonthly},
		{GymID: "g", Name: "", Price: Money{Paise: 1}, Interval: IntervalMonthly},
		{GymID: "g", Name: "Gold", Price: Money{Paise: 0}, Interval: IntervalMonthly},
		{GymID: "g", Name: "Gold", Price: Money{Paise: 1}, Interval: "fortnightly"},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBillingIntervalNext(t *testing.T) {
	from := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		interval BillingInterval
		want     time.Time
	}{
		{IntervalWeekly, time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC)},
		{IntervalMonthly, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)}, // AddDate normalization
		{IntervalQuarterly, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)},
		{IntervalYearly, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(string(tc.interval), func(t *testing.T) {
			if got := tc.interval.Next(from); !got.Equal(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSubscriptionValidate(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	good := Subscription{GymID: "g", MemberID: "m", PlanID: "p", StartDate: start, EndDate: start.AddDate(0, 1, 0)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.EndDate = start.AddDate(0, 0, -1)
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for inverted range")
	}
}
