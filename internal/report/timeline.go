// Package report computes income statistics from transaction records.
//
// The package is split in two halves: timeline.go resolves a user-selected
// reporting window into concrete date intervals, and summary.go reduces the
// transactions inside those intervals into an IncomeSummary. Both halves are
// pure functions of their inputs; "now" is always passed in explicitly so
// results are deterministic and testable with literal fixtures.
package report

import (
	"fmt"
	"time"
)

// Timeline selects the reporting date window.
type Timeline string

const (
	TimelineToday     Timeline = "today"
	TimelineYesterday Timeline = "yesterday"
	TimelineThisMonth Timeline = "thisMonth"
	TimelineLastMonth Timeline = "lastMonth"
	TimelineLast7Days Timeline = "last7Days"
	TimelineLast30Days Timeline = "last30Days"
	TimelineAllTime   Timeline = "allTime"
)

// Granularity is the bucket size of the earnings series.
type Granularity string

const (
	GranularityHourly Granularity = "hourly"
	GranularityDaily  Granularity = "daily"
)

// ParseTimeline validates a timeline keyword from user input.
func ParseTimeline(s string) (Timeline, error) {
	switch Timeline(s) {
	case TimelineToday, TimelineYesterday, TimelineThisMonth, TimelineLastMonth,
		TimelineLast7Days, TimelineLast30Days, TimelineAllTime:
		return Timeline(s), nil
	case "":
		return TimelineLast30Days, nil
	}
	return "", fmt.Errorf("unknown timeline %q", s)
}

// Valid reports whether t is a member of the closed timeline enumeration.
func (t Timeline) Valid() bool {
	_, err := ParseTimeline(string(t))
	return err == nil && t != ""
}

// Granularity returns the earnings bucket size for the timeline: hourly for
// single-day windows, daily otherwise.
func (t Timeline) Granularity() Granularity {
	switch t {
	case TimelineToday, TimelineYesterday:
		return GranularityHourly
	}
	return GranularityDaily
}

// Window is a half-open [Start, End) interval. A record timestamped exactly
// at Start is inside the window; one timestamped exactly at End is not.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls inside the half-open interval.
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && ts.Before(w.End)
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Resolution is the fully resolved reporting range: the active window, the
// equal-duration window immediately preceding it, and the bucket size the
// earnings series should use. HasPrevious is false when the previous window
// is undefined (allTime), in which case period-over-period comparison must
// be suppressed rather than computed.
type Resolution struct {
	Timeline    Timeline
	Current     Window
	Previous    Window
	HasPrevious bool
	Granularity Granularity
}

// Resolve maps the timeline to concrete intervals anchored at now.
// The previous window always has the same duration as the current one and
// ends where the current one starts, except for allTime where no previous
// window exists.
func (t Timeline) Resolve(now time.Time) Resolution {
	res := Resolution{
		Timeline:    t,
		HasPrevious: true,
		Granularity: t.Granularity(),
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch t {
	case TimelineToday:
		res.Current = Window{Start: midnight, End: now}
	case TimelineYesterday:
		res.Current = Window{Start: midnight.AddDate(0, 0, -1), End: midnight}
	case TimelineThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		res.Current = Window{Start: first, End: now}
	case TimelineLastMonth:
		firstThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		res.Current = Window{Start: firstThis.AddDate(0, -1, 0), End: firstThis}
	case TimelineLast7Days:
		res.Current = Window{Start: now.AddDate(0, 0, -7), End: now}
	case TimelineLast30Days:
		res.Current = Window{Start: now.AddDate(0, 0, -30), End: now}
	case TimelineAllTime:
		res.Current = Window{Start: time.Time{}, End: now}
		res.HasPrevious = false
		return res
	default:
		// Unknown keywords fall back to last30Days; callers are expected
		// to have validated through ParseTimeline already.
		return TimelineLast30Days.Resolve(now)
	}

	span := res.Current.Duration()
	res.Previous = Window{Start: res.Current.Start.Add(-span), End: res.Current.Start}
	return res
}

// PlanFilter scopes a report to one membership plan, or to all plans via the
// AllPlans sentinel.
type PlanFilter string

// AllPlans matches every plan.
const AllPlans PlanFilter = "all"

// Matches reports whether a transaction recorded against planID passes the
// filter.
func (f PlanFilter) Matches(planID string) bool {
	return f == AllPlans || f == "" || string(f) == planID
}

// IsAll reports whether the filter is the match-everything sentinel.
func (f PlanFilter) IsAll() bool {
	return f == AllPlans || f == ""
}
