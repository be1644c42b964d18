package report

import (
	"sort"
	"time"

	"gymdesk/internal/core"
)

// Trend is the direction of period-over-period income change.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// EarningsPoint is one bucket of the zero-filled earnings series.
type EarningsPoint struct {
	Bucket time.Time
	Amount core.Money
}

// DonutFractions are the income/pending shares of the collection donut.
// Both are in [0,1] and sum to 1 unless the total is zero, in which case
// both are 0.
type DonutFractions struct {
	Income  float64
	Pending float64
}

// IncomeSummary is the complete result of one reporting query.
//
// PercentChange is meaningful only when HasComparison is true; callers must
// render a neutral badge otherwise. The field is never NaN or Inf: when the
// previous period is zero and the current is not, the change is pinned to
// +100 or -100.
type IncomeSummary struct {
	Income          core.Money
	PreviousIncome  core.Money
	PendingBalance  core.Money
	Earnings        []EarningsPoint
	Trend           Trend
	PercentChange   float64
	HasComparison   bool
	Donut           DonutFractions
	TransactionsNum int
}

// Summarize reduces the transactions of the current and previous windows
// into an IncomeSummary. Inputs may be unordered and may contain records
// outside the resolved windows; the engine re-filters against the window
// bounds so upstream query sloppiness cannot skew totals.
func Summarize(current, previous []core.Transaction, res Resolution, filter PlanFilter) IncomeSummary {
	cur := filterWindow(current, res.Current, filter)

	var income, pending core.Money
	for _, tx := range cur {
		switch {
		case tx.CountsAsIncome():
			income = income.Add(tx.Amount)
		case tx.Status == core.StatusPending:
			pending = pending.Add(tx.Amount)
		}
	}

	var prevIncome core.Money
	if res.HasPrevious {
		for _, tx := range filterWindow(previous, res.Previous, filter) {
			if tx.CountsAsIncome() {
				prevIncome = prevIncome.Add(tx.Amount)
			}
		}
	}

	summary := IncomeSummary{
		Income:          income,
		PreviousIncome:  prevIncome,
		PendingBalance:  pending,
		Earnings:        earningsSeries(cur, res),
		Donut:           DonutSplit(income, pending),
		HasComparison:   res.HasPrevious,
		TransactionsNum: len(cur),
	}
	summary.Trend, summary.PercentChange = trendOf(summary.Earnings, income, prevIncome, res.HasPrevious)
	return summary
}

// DonutSplit returns the income and pending fractions of their combined
// total. A zero total yields zero fractions, never a division by zero.
func DonutSplit(income, pending core.Money) DonutFractions {
	total := income.Paise + pending.Paise
	if total <= 0 {
		return DonutFractions{}
	}
	return DonutFractions{
		Income:  float64(income.Paise) / float64(total),
		Pending: float64(pending.Paise) / float64(total),
	}
}

// filterWindow keeps only income-relevant transactions inside the window
// that pass the plan filter, sorted by timestamp.
func filterWindow(txs []core.Transaction, w Window, filter PlanFilter) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !w.Contains(tx.OccurredAt) {
			continue
		}
		if !filter.Matches(tx.PlanID) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out
}

// earningsSeries builds the zero-filled bucket series for the current
// window. Every bucket whose interval intersects [Start, End) is present,
// including empty ones. For allTime the window start is the zero time, so
// the series is clamped to start at the earliest received transaction; with
// no income at all the series is empty.
func earningsSeries(cur []core.Transaction, res Resolution) []EarningsPoint {
	start, end := res.Current.Start, res.Current.End
	if res.Timeline == TimelineAllTime {
		earliest := time.Time{}
		for _, tx := range cur {
			if tx.CountsAsIncome() && (earliest.IsZero() || tx.OccurredAt.Before(earliest)) {
				earliest = tx.OccurredAt
			}
		}
		if earliest.IsZero() {
			return nil
		}
		start = earliest
	}
	if !end.After(start) {
		return nil
	}

	step := res.Granularity
	totals := make(map[time.Time]core.Money)
	for _, tx := range cur {
		if !tx.CountsAsIncome() {
			continue
		}
		b := truncateBucket(tx.OccurredAt, step)
		totals[b] = totals[b].Add(tx.Amount)
	}

	var series []EarningsPoint
	for b := truncateBucket(start, step); b.Before(end); b = nextBucket(b, step) {
		series = append(series, EarningsPoint{Bucket: b, Amount: totals[b]})
	}
	return series
}

func truncateBucket(ts time.Time, g Granularity) time.Time {
	if g == GranularityHourly {
		return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), 0, 0, 0, ts.Location())
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
}

func nextBucket(b time.Time, g Granularity) time.Time {
	if g == GranularityHourly {
		return b.Add(time.Hour)
	}
	return b.AddDate(0, 0, 1)
}

// trendOf derives the badge direction and percent change.
//
// Direction is the shape of the earnings series: the sign of the last bucket
// minus the first, with fewer than two buckets reading as flat. Percent
// change compares current against previous income and guards every
// degenerate denominator so the result is always finite: equal totals give
// 0, and a zero previous period pins the change to +100 or -100. Without a
// comparison period (allTime) the percent is always 0.
func trendOf(series []EarningsPoint, income, prev core.Money, hasComparison bool) (Trend, float64) {
	trend := TrendFlat
	if len(series) >= 2 {
		first, last := series[0].Amount.Paise, series[len(series)-1].Amount.Paise
		switch {
		case last > first:
			trend = TrendUp
		case last < first:
			trend = TrendDown
		}
	}

	if !hasComparison {
		return trend, 0
	}

	switch {
	case income.Paise == prev.Paise:
		return trend, 0
	case prev.Paise == 0:
		if income.Paise > 0 {
			return trend, 100
		}
		return trend, -100
	}

	return trend, float64(income.Paise-prev.Paise) / float64(prev.Paise) * 100
}
