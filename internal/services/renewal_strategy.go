// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for subscription renewal
// dueness checking. Each billing interval has its own strategy that
// encapsulates the logic for deciding whether a renewal should run.

package services

import (
	"fmt"
	"time"

	"gymdesk/internal/core"
)

// RenewalChecker is the strategy interface for deciding whether a
// subscription renewal is due.
type RenewalChecker interface {
	// IsDue returns true if the subscription should be renewed given its
	// last renewal time and the current time. startDate anchors the target
	// day-of-month for calendar-based intervals.
	IsDue(lastRenewal, now time.Time, startDate time.Time) bool
}

// WeeklyChecker implements RenewalChecker for weekly billing.
type WeeklyChecker struct{}

// IsDue returns true if 7 or more days have passed since the last renewal.
func (WeeklyChecker) IsDue(lastRenewal, now time.Time, _ time.Time) bool {
	if lastRenewal.IsZero() {
		return true
	}
	daysSince := now.Sub(lastRenewal).Hours() / 24
	return daysSince >= 7
}

// MonthlyChecker implements RenewalChecker for monthly billing.
type MonthlyChecker struct{}

// IsDue returns true in a new month once the target day is reached. The
// target day clamps to the last day of short months.
func (MonthlyChecker) IsDue(lastRenewal, now time.Time, startDate time.Time) bool {
	if lastRenewal.IsZero() {
		return true
	}

	// Already renewed this month?
	if lastRenewal.Year() == now.Year() && lastRenewal.Month() == now.Month() {
		return false
	}

	targetDay := startDate.Day()
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		targetDay = lastDayOfMonth
	}

	return now.Day() >= targetDay
}

// QuarterlyChecker implements RenewalChecker for quarterly billing.
type QuarterlyChecker struct{}

// IsDue returns true once a full quarter has elapsed since the last renewal.
func (QuarterlyChecker) IsDue(lastRenewal, now time.Time, _ time.Time) bool {
	if lastRenewal.IsZero() {
		return true
	}
	return !now.Before(lastRenewal.AddDate(0, 3, 0))
}

// YearlyChecker implements RenewalChecker for yearly billing.
type YearlyChecker struct{}

// IsDue returns true in a new year once the target month and day are
// reached.
func (YearlyChecker) IsDue(lastRenewal, now time.Time, startDate time.Time) bool {
	if lastRenewal.IsZero() {
		return true
	}

	// Already renewed this year?
	if lastRenewal.Year() == now.Year() {
		return false
	}

	targetMonth := startDate.Month()
	targetDay := startDate.Day()

	if now.Month() < targetMonth {
		return false
	}

	if now.Month() == targetMonth {
		lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
		if targetDay > lastDayOfMonth {
			targetDay = lastDayOfMonth
		}
		return now.Day() >= targetDay
	}

	// Past the target month.
	return true
}

// renewalStrategies maps billing intervals to their checkers.
var renewalStrategies = map[core.BillingInterval]RenewalChecker{
	core.IntervalWeekly:    WeeklyChecker{},
	core.IntervalMonthly:   MonthlyChecker{},
	core.IntervalQuarterly: QuarterlyChecker{},
	core.IntervalYearly:    YearlyChecker{},
}

// GetRenewalChecker returns the checker for a billing interval, or an error
// for an unsupported one.
func GetRenewalChecker(interval core.BillingInterval) (RenewalChecker, error) {
	checker, ok := renewalStrategies[interval]
	if !ok {
		return nil, fmt.Errorf("unknown billing interval: %s", interval)
	}
	return checker, nil
}

// RegisterRenewalChecker registers a custom checker for a new interval.
func RegisterRenewalChecker(interval core.BillingInterval, checker RenewalChecker) {
	renewalStrategies[interval] = checker
}
