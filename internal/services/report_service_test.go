package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"gymdesk/internal/core"
	"gymdesk/internal/report"
	"gymdesk/internal/store"
)

// flakyReader fails the first failures calls, then delegates to fixed data.
type flakyReader struct {
	failures int32
	calls    int32
	txs      []core.Transaction
}

func (r *flakyReader) ListTransactions(_ context.Context, q store.TransactionQuery) ([]core.Transaction, error) {
	n := atomic.AddInt32(&r.calls, 1)
	if n <= atomic.LoadInt32(&r.failures) {
		return nil, errors.New("transient query failure")
	}
	var out []core.Transaction
	for _, tx := range r.txs {
		if !q.From.IsZero() && tx.OccurredAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !tx.OccurredAt.Before(q.To) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func incomeTx(paise int64, at time.Time) core.Transaction {
	return core.Transaction{
		ID: "t1", GymID: "g1", MemberID: "m1", PlanID: "p1",
		Amount: core.Money{Paise: paise}, Type: core.TypeIncome,
		Status: core.StatusReceived, OccurredAt: at,
	}
}

func TestIncomeSummaryFetchesBothWindows(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	reader := &flakyReader{txs: []core.Transaction{
		incomeTx(10000, now.Add(-time.Hour)),   // current window, last bucket
		incomeTx(4000, now.AddDate(0, 0, -10)), // previous window
	}}
	svc := NewReportService(reader, time.Second)

	summary, res, err := svc.IncomeSummary(context.Background(), "g1", report.TimelineLast7Days, report.AllPlans, now)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !res.HasPrevious {
		t.Fatal("expected comparison window")
	}
	if summary.Income.Paise != 10000 {
		t.Fatalf("income = %d, want 10000", summary.Income.Paise)
	}
	if summary.PreviousIncome.Paise != 4000 {
		t.Fatalf("previous income = %d, want 4000", summary.PreviousIncome.Paise)
	}
	if summary.Trend != report.TrendUp {
		t.Fatalf("trend = %q, want up", summary.Trend)
	}
}

func TestIncomeSummaryRetriesOnce(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	reader := &flakyReader{
		failures: 1, // first call fails, retry succeeds
		txs:      []core.Transaction{incomeTx(5000, now.Add(-time.Hour))},
	}
	svc := NewReportService(reader, time.Second)

	summary, _, err := svc.IncomeSummary(context.Background(), "g1", report.TimelineToday, report.AllPlans, now)
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if summary.Income.Paise != 5000 {
		t.Fatalf("income = %d, want 5000", summary.Income.Paise)
	}
}

func TestIncomeSummaryFailsAfterSecondError(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	reader := &flakyReader{failures: 10}
	svc := NewReportService(reader, time.Second)

	_, _, err := svc.IncomeSummary(context.Background(), "g1", report.TimelineToday, report.AllPlans, now)
	if err == nil {
		t.Fatal("expected error after exhausted retry")
	}
}

func TestIncomeSummaryAllTimeSkipsPreviousFetch(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	reader := &flakyReader{txs: []core.Transaction{incomeTx(5000, now.AddDate(0, 0, -2))}}
	svc := NewReportService(reader, time.Second)

	summary, res, err := svc.IncomeSummary(context.Background(), "g1", report.TimelineAllTime, report.AllPlans, now)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if res.HasPrevious || summary.HasComparison {
		t.Fatal("allTime must not have a comparison")
	}
	if got := atomic.LoadInt32(&reader.calls); got != 1 {
		t.Fatalf("expected a single window fetch, got %d", got)
	}
}
