package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"gymdesk/internal/core"
	"gymdesk/internal/report"
	"gymdesk/internal/store"
)

const defaultFetchTimeout = 5 * time.Second

// ReportService produces income summaries. The current and previous windows
// are fetched concurrently; each fetch runs under a bounded timeout and is
// retried once before the report fails.
type ReportService struct {
	reader       store.TransactionReader
	fetchTimeout time.Duration
}

func NewReportService(reader store.TransactionReader, fetchTimeout time.Duration) *ReportService {
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	return &ReportService{
		reader:       reader,
		fetchTimeout: fetchTimeout,
	}
}

// IncomeSummary resolves the timeline against now, loads both windows and
// reduces them into a summary.
func (s *ReportService) IncomeSummary(ctx context.Context, gymID string, timeline report.Timeline, filter report.PlanFilter, now time.Time) (report.IncomeSummary, report.Resolution, error) {
	res := timeline.Resolve(now)

	var current, previous []core.Transaction
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txs, err := s.fetchWindow(gctx, gymID, res.Current, filter)
		if err != nil {
			return fmt.Errorf("fetch current window: %w", err)
		}
		current = txs
		return nil
	})

	if res.HasPrevious {
		g.Go(func() error {
			txs, err := s.fetchWindow(gctx, gymID, res.Previous, filter)
			if err != nil {
				return fmt.Errorf("fetch previous window: %w", err)
			}
			previous = txs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report.IncomeSummary{}, res, err
	}

	return report.Summarize(current, previous, res, filter), res, nil
}

// fetchWindow queries one window. A failed query is retried exactly once;
// the second failure is returned.
func (s *ReportService) fetchWindow(ctx context.Context, gymID string, w report.Window, filter report.PlanFilter) ([]core.Transaction, error) {
	q := store.TransactionQuery{
		GymID: gymID,
		From:  w.Start,
		To:    w.End,
	}
	if !filter.IsAll() {
		q.PlanID = string(filter)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		txs, err := s.reader.ListTransactions(fctx, q)
		cancel()
		if err == nil {
			return txs, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt == 0 {
			slog.WarnContext(ctx, "Transaction fetch failed, retrying once",
				"gym_id", gymID,
				"error", err)
		}
	}
	return nil, lastErr
}
