package report

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

func TestParseTimeline(t *testing.T) {
	cases := []struct {
		in   string
		want Timeline
		ok   bool
	}{
		{"today", TimelineToday, true},
		{"yesterday", TimelineYesterday, true},
		{"thisMonth", TimelineThisMonth, true},
		{"lastMonth", TimelineLastMonth, true},
		{"last7Days", TimelineLast7Days, true},
		{"last30Days", TimelineLast30Days, true},
		{"allTime", TimelineAllTime, true},
		{"", TimelineLast30Days, true}, // default
		{"lastYear", "", false},
		{"TODAY", "", false},
	}
	for _, tc := range cases {
		got, err := ParseTimeline(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q: got %q err=%v, want %q", tc.in, got, err, tc.want)
			}
		} else if err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestResolveWindows(t *testing.T) {
	cases := []struct {
		timeline  Timeline
		wantStart time.Time
		wantEnd   time.Time
	}{
		{TimelineToday,
			time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), testNow},
		{TimelineYesterday,
			time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{TimelineThisMonth,
			time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), testNow},
		{TimelineLastMonth,
			time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{TimelineLast7Days,
			time.Date(2025, 3, 8, 14, 30, 0, 0, time.UTC), testNow},
		{TimelineLast30Days,
			time.Date(2025, 2, 13, 14, 30, 0, 0, time.UTC), testNow},
	}
	for _, tc := range cases {
		t.Run(string(tc.timeline), func(t *testing.T) {
			res := tc.timeline.Resolve(testNow)
			if !res.Current.Start.Equal(tc.wantStart) || !res.Current.End.Equal(tc.wantEnd) {
				t.Fatalf("current = [%v, %v), want [%v, %v)",
					res.Current.Start, res.Current.End, tc.wantStart, tc.wantEnd)
			}
			if !res.HasPrevious {
				t.Fatalf("expected a previous window")
			}
			// Previous window abuts the current one with equal span.
			if !res.Previous.End.Equal(res.Current.Start) {
				t.Fatalf("previous end %v != current start %v", res.Previous.End, res.Current.Start)
			}
			if res.Previous.Duration() != res.Current.Duration() {
				t.Fatalf("span mismatch: previous %v, current %v",
					res.Previous.Duration(), res.Current.Duration())
			}
		})
	}
}

func TestResolveAllTime(t *testing.T) {
	res := TimelineAllTime.Resolve(testNow)
	if res.HasPrevious {
		t.Fatalf("allTime must have no previous window")
	}
	if !res.Current.Start.IsZero() {
		t.Fatalf("allTime start = %v, want zero time", res.Current.Start)
	}
	if !res.Current.End.Equal(testNow) {
		t.Fatalf("allTime end = %v, want %v", res.Current.End, testNow)
	}
}

func TestGranularity(t *testing.T) {
	if g := TimelineToday.Granularity(); g != GranularityHourly {
		t.Fatalf("today: got %q", g)
	}
	if g := TimelineYesterday.Granularity(); g != GranularityHourly {
		t.Fatalf("yesterday: got %q", g)
	}
	for _, tl := range []Timeline{TimelineThisMonth, TimelineLastMonth, TimelineLast7Days, TimelineLast30Days, TimelineAllTime} {
		if g := tl.Granularity(); g != GranularityDaily {
			t.Fatalf("%s: got %q", tl, g)
		}
	}
}

func TestWindowBoundaries(t *testing.T) {
	w := Window{
		Start: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	if !w.Contains(w.Start) {
		t.Fatalf("start instant must be inside")
	}
	if w.Contains(w.End) {
		t.Fatalf("end instant must be outside")
	}
	if w.Contains(w.Start.Add(-time.Nanosecond)) {
		t.Fatalf("instant before start must be outside")
	}
	if !w.Contains(w.End.Add(-time.Nanosecond)) {
		t.Fatalf("instant just before end must be inside")
	}
}

func TestPlanFilterMatches(t *testing.T) {
	cases := []struct {
		filter PlanFilter
		planID string
		want   bool
	}{
		{AllPlans, "p1", true},
		{"", "p1", true},
		{"p1", "p1", true},
		{"p1", "p2", false},
		{"p1", "", false},
	}
	for _, tc := range cases {
		if got := tc.filter.Matches(tc.planID); got != tc.want {
			t.Fatalf("filter %q vs %q: got %v, want %v", tc.filter, tc.planID, got, tc.want)
		}
	}
}
