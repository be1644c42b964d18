package report

import (
	"testing"
	"time"

	"gymdesk/internal/core"
)

func tx(planID string, paise int64, typ core.TransactionType, status core.TransactionStatus, at time.Time) core.Transaction {
	return core.Transaction{
		ID:         "t-" + at.Format("20060102150405"),
		GymID:      "gym1",
		MemberID:   "m1",
		PlanID:     planID,
		Amount:     core.Money{Paise: paise},
		Type:       typ,
		Status:     status,
		OccurredAt: at,
	}
}

func income(planID string, paise int64, at time.Time) core.Transaction {
	return tx(planID, paise, core.TypeIncome, core.StatusReceived, at)
}

func pending(planID string, paise int64, at time.Time) core.Transaction {
	return tx(planID, paise, core.TypeIncome, core.StatusPending, at)
}

// Earnings buckets must re-sum to the headline income figure.
func TestEarningsResumToIncome(t *testing.T) {
	res := TimelineLast7Days.Resolve(testNow)
	cur := []core.Transaction{
		income("p1", 10000, testNow.Add(-time.Hour)),
		income("p2", 25050, testNow.AddDate(0, 0, -3)),
		income("p1", 499, testNow.AddDate(0, 0, -6)),
		pending("p1", 70000, testNow.Add(-2*time.Hour)),
	}
	s := Summarize(cur, nil, res, AllPlans)

	if want := int64(35549); s.Income.Paise != want {
		t.Fatalf("income = %d, want %d", s.Income.Paise, want)
	}
	var sum int64
	for _, p := range s.Earnings {
		sum += p.Amount.Paise
	}
	if sum != s.Income.Paise {
		t.Fatalf("bucket sum %d != income %d", sum, s.Income.Paise)
	}
	if s.PendingBalance.Paise != 70000 {
		t.Fatalf("pending = %d, want 70000", s.PendingBalance.Paise)
	}
}

// Records exactly on the window edges: start is in, end is out.
func TestWindowEdgeRecords(t *testing.T) {
	res := TimelineYesterday.Resolve(testNow)
	cur := []core.Transaction{
		income("p1", 100, res.Current.Start),
		income("p1", 200, res.Current.End), // belongs to today
	}
	s := Summarize(cur, nil, res, AllPlans)
	if s.Income.Paise != 100 {
		t.Fatalf("income = %d, want 100", s.Income.Paise)
	}
}

// A 7-day window yields exactly the days intersecting it, zero-filled.
func TestZeroFilledDailySeries(t *testing.T) {
	res := TimelineLast7Days.Resolve(testNow)
	cur := []core.Transaction{
		income("p1", 5000, testNow.AddDate(0, 0, -2)),
	}
	s := Summarize(cur, nil, res, AllPlans)

	// Window starts mid-day on Mar 8 and ends mid-day on Mar 15, so the
	// truncated daily buckets run Mar 8 .. Mar 15 inclusive.
	if len(s.Earnings) != 8 {
		t.Fatalf("got %d buckets, want 8", len(s.Earnings))
	}
	first := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
	for i, p := range s.Earnings {
		want := first.AddDate(0, 0, i)
		if !p.Bucket.Equal(want) {
			t.Fatalf("bucket %d = %v, want %v", i, p.Bucket, want)
		}
	}
	var nonZero int
	for _, p := range s.Earnings {
		if p.Amount.Paise != 0 {
			nonZero++
		}
	}
	if nonZero != 1 {
		t.Fatalf("got %d non-zero buckets, want 1", nonZero)
	}
}

func TestHourlySeriesForToday(t *testing.T) {
	res := TimelineToday.Resolve(testNow)
	cur := []core.Transaction{
		income("p1", 1000, testNow.Add(-time.Minute)),
	}
	s := Summarize(cur, nil, res, AllPlans)
	// Midnight through the 14:00 bucket inclusive.
	if len(s.Earnings) != 15 {
		t.Fatalf("got %d buckets, want 15", len(s.Earnings))
	}
	last := s.Earnings[len(s.Earnings)-1]
	if last.Bucket.Hour() != 14 || last.Amount.Paise != 1000 {
		t.Fatalf("last bucket = %v/%d", last.Bucket, last.Amount.Paise)
	}
}

// Percent change tracks current vs previous income; the badge direction is
// the shape of the current series and may disagree with the change sign.
func TestPercentChangeGuards(t *testing.T) {
	res := TimelineLast7Days.Resolve(testNow)
	prevAt := testNow.AddDate(0, 0, -10)
	curAt := testNow.Add(-time.Hour) // lands in the last bucket

	cases := []struct {
		name       string
		cur, prev  []core.Transaction
		wantTrend  Trend
		wantChange float64
	}{
		{
			"both zero",
			nil, nil,
			TrendFlat, 0,
		},
		{
			"previous zero current positive",
			[]core.Transaction{income("p1", 5000, curAt)}, nil,
			TrendUp, 100,
		},
		{
			"current zero previous positive",
			nil, []core.Transaction{income("p1", 5000, prevAt)},
			TrendFlat, -100,
		},
		{
			"halved",
			[]core.Transaction{income("p1", 5000, curAt)},
			[]core.Transaction{income("p1", 10000, prevAt)},
			TrendUp, -50,
		},
		{
			"doubled",
			[]core.Transaction{income("p1", 10000, curAt)},
			[]core.Transaction{income("p1", 5000, prevAt)},
			TrendUp, 100,
		},
		{
			"equal",
			[]core.Transaction{income("p1", 5000, curAt)},
			[]core.Transaction{income("p1", 5000, prevAt)},
			TrendUp, 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Summarize(tc.cur, tc.prev, res, AllPlans)
			if s.Trend != tc.wantTrend {
				t.Fatalf("trend = %q, want %q", s.Trend, tc.wantTrend)
			}
			if s.PercentChange != tc.wantChange {
				t.Fatalf("change = %v, want %v", s.PercentChange, tc.wantChange)
			}
			if !s.HasComparison {
				t.Fatalf("expected comparison enabled")
			}
		})
	}
}

// The badge follows the first-to-last slope of the earnings series even when
// the previous period's income points the other way.
func TestTrendFollowsSeriesShape(t *testing.T) {
	res := TimelineLast7Days.Resolve(testNow)
	firstAt := testNow.AddDate(0, 0, -7).Add(time.Hour) // first bucket
	midAt := testNow.AddDate(0, 0, -4)
	lastAt := testNow.Add(-time.Hour) // last bucket

	t.Run("rising series beats larger previous income", func(t *testing.T) {
		cur := []core.Transaction{
			income("p1", 5000, firstAt),
			income("p1", 3000, midAt),
			income("p1", 8000, lastAt),
		}
		prev := []core.Transaction{income("p1", 100000, testNow.AddDate(0, 0, -10))}

		s := Summarize(cur, prev, res, AllPlans)
		if s.Trend != TrendUp {
			t.Fatalf("trend = %q, want %q", s.Trend, TrendUp)
		}
		if s.PercentChange != -84 {
			t.Fatalf("change = %v, want -84", s.PercentChange)
		}
	})

	t.Run("falling series beats zero previous income", func(t *testing.T) {
		cur := []core.Transaction{
			income("p1", 8000, firstAt),
			income("p1", 3000, lastAt),
		}

		s := Summarize(cur, nil, res, AllPlans)
		if s.Trend != TrendDown {
			t.Fatalf("trend = %q, want %q", s.Trend, TrendDown)
		}
		if s.PercentChange != 100 {
			t.Fatalf("change = %v, want 100", s.PercentChange)
		}
	})
}

func TestAllTimeSuppressesComparison(t *testing.T) {
	res := TimelineAllTime.Resolve(testNow)
	cur := []core.Transaction{
		income("p1", 5000, testNow.AddDate(0, 0, -2)),
		income("p1", 8000, testNow.AddDate(0, 0, -1)),
	}
	s := Summarize(cur, nil, res, AllPlans)
	if s.HasComparison {
		t.Fatalf("allTime must suppress comparison")
	}
	if s.PercentChange != 0 {
		t.Fatalf("change = %v, want 0", s.PercentChange)
	}
	if s.PreviousIncome.Paise != 0 {
		t.Fatalf("previous income = %d, want 0", s.PreviousIncome.Paise)
	}
	// Series is clamped to the earliest transaction, not the epoch.
	if len(s.Earnings) == 0 {
		t.Fatalf("expected a series")
	}
	wantFirst := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)
	if !s.Earnings[0].Bucket.Equal(wantFirst) {
		t.Fatalf("first bucket = %v, want %v", s.Earnings[0].Bucket, wantFirst)
	}
	if len(s.Earnings) != 3 {
		t.Fatalf("got %d buckets, want 3", len(s.Earnings))
	}
}

func TestAllTimeEmptyInput(t *testing.T) {
	res := TimelineAllTime.Resolve(testNow)
	s := Summarize(nil, nil, res, AllPlans)
	if len(s.Earnings) != 0 {
		t.Fatalf("expected empty series, got %d buckets", len(s.Earnings))
	}
	if s.Trend != TrendFlat || s.PercentChange != 0 {
		t.Fatalf("trend = %q change = %v", s.Trend, s.PercentChange)
	}
}

func TestDonutSplit(t *testing.T) {
	cases := []struct {
		income, pending int64
		wantIncome      float64
		wantPending     float64
	}{
		{7500, 2500, 0.75, 0.25},
		{0, 0, 0, 0},
		{1000, 0, 1, 0},
		{0, 1000, 0, 1},
	}
	for _, tc := range cases {
		d := DonutSplit(core.Money{Paise: tc.income}, core.Money{Paise: tc.pending})
		if d.Income != tc.wantIncome || d.Pending != tc.wantPending {
			t.Fatalf("%d/%d: got %v/%v, want %v/%v",
				tc.income, tc.pending, d.Income, d.Pending, tc.wantIncome, tc.wantPending)
		}
	}
}

func TestPlanFilterScopesEverything(t *testing.T) {
	res := TimelineLast7Days.Resolve(testNow)
	at := testNow.AddDate(0, 0, -1)
	cur := []core.Transaction{
		income("p1", 1000, at),
		income("p2", 2000, at),
		pending("p2", 3000, at),
	}
	prev := []core.Transaction{
		income("p1", 500, testNow.AddDate(0, 0, -8)),
		income("p2", 900, testNow.AddDate(0, 0, -8)),
	}

	s := Summarize(cur, prev, res, PlanFilter("p2"))
	if s.Income.Paise != 2000 {
		t.Fatalf("income = %d, want 2000", s.Income.Paise)
	}
	if s.PendingBalance.Paise != 3000 {
		t.Fatalf("pending = %d, want 3000", s.PendingBalance.Paise)
	}
	if s.PreviousIncome.Paise != 900 {
		t.Fatalf("previous = %d, want 900", s.PreviousIncome.Paise)
	}
	var sum int64
	for _, p := range s.Earnings {
		sum += p.Amount.Paise
	}
	if sum != 2000 {
		t.Fatalf("bucket sum = %d, want 2000", sum)
	}
}

// Recording a payment on day one then querying on day two must move the
// amount from today's report into yesterday's.
func TestDayRollover(t *testing.T) {
	day1 := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	paid := income("p1", 49900, day1)

	s1 := Summarize([]core.Transaction{paid}, nil, TimelineToday.Resolve(day1), AllPlans)
	if s1.Income.Paise != 49900 {
		t.Fatalf("day1 today income = %d, want 49900", s1.Income.Paise)
	}

	s2today := Summarize([]core.Transaction{paid}, nil, TimelineToday.Resolve(day2), AllPlans)
	if s2today.Income.Paise != 0 {
		t.Fatalf("day2 today income = %d, want 0", s2today.Income.Paise)
	}

	s2yday := Summarize([]core.Transaction{paid}, nil, TimelineYesterday.Resolve(day2), AllPlans)
	if s2yday.Income.Paise != 49900 {
		t.Fatalf("day2 yesterday income = %d, want 49900", s2yday.Income.Paise)
	}
}

// Records outside the window passed in by a sloppy caller must not count.
func TestRefilterDropsOutOfWindowRecords(t *testing.T) {
	res := TimelineToday.Resolve(testNow)
	cur := []core.Transaction{
		income("p1", 1000, testNow.Add(-time.Hour)),
		income("p1", 9999, testNow.AddDate(0, 0, -5)), // outside
	}
	s := Summarize(cur, nil, res, AllPlans)
	if s.Income.Paise != 1000 {
		t.Fatalf("income = %d, want 1000", s.Income.Paise)
	}
}
