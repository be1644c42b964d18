package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gymdesk/internal/core"
	"gymdesk/internal/store"
)

// RenewalProcessor turns due subscriptions into pending renewal charges and
// rolls their billing window forward.
type RenewalProcessor struct {
	store      store.Store
	membership *MembershipService
}

func NewRenewalProcessor(st store.Store, membership *MembershipService) *RenewalProcessor {
	return &RenewalProcessor{
		store:      st,
		membership: membership,
	}
}

// ProcessDueRenewals processes all active subscriptions whose billing window
// has elapsed as of now. For each one it records a pending transaction for
// the plan price and extends the subscription by one billing interval.
// Subscriptions of deactivated members are expired instead of billed.
func (p *RenewalProcessor) ProcessDueRenewals(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.membership == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	due, err := p.store.ListDueSubscriptions(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list due subscriptions: %w", err)
	}

	slog.InfoContext(ctx, "Processing subscription renewals",
		"total_due", len(due),
		"processing_date", now.Format("2006-01-02"))

	processedCount := 0

	for _, sub := range due {
		plan, err := p.store.GetPlan(ctx, sub.GymID, sub.PlanID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get plan for renewal",
				"subscription_id", sub.ID,
				"plan_id", sub.PlanID,
				"error", err)
			continue
		}

		checker, err := GetRenewalChecker(plan.Interval)
		if err != nil {
			slog.ErrorContext(ctx, "No renewal strategy for plan interval",
				"subscription_id", sub.ID,
				"interval", plan.Interval,
				"error", err)
			continue
		}

		if !checker.IsDue(sub.LastRenewalAt, now, sub.StartDate) {
			continue
		}

		member, err := p.store.GetMember(ctx, sub.GymID, sub.MemberID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get member for renewal",
				"subscription_id", sub.ID,
				"member_id", sub.MemberID,
				"error", err)
			continue
		}
		if !member.Active {
			p.expire(ctx, sub)
			continue
		}

		tx := core.Transaction{
			GymID:      sub.GymID,
			MemberID:   sub.MemberID,
			PlanID:     sub.PlanID,
			Amount:     plan.Price,
			Type:       core.TypeIncome,
			Status:     core.StatusPending,
			OccurredAt: now,
			PayerName:  member.Name,
			AvatarURL:  member.AvatarURL,
		}
		if _, err := p.membership.RecordTransaction(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to record renewal charge",
				"subscription_id", sub.ID,
				"member_id", sub.MemberID,
				"error", err)
			continue
		}

		sub.EndDate = plan.Interval.Next(sub.EndDate)
		sub.LastRenewalAt = now
		if err := p.store.UpdateSubscription(ctx, sub); err != nil {
			slog.ErrorContext(ctx, "Failed to roll subscription forward",
				"subscription_id", sub.ID,
				"error", err)
			// Continue anyway - the charge was recorded.
		}

		processedCount++
		slog.InfoContext(ctx, "Renewal charge created",
			"subscription_id", sub.ID,
			"member_id", sub.MemberID,
			"amount_paise", plan.Price.Paise,
			"interval", plan.Interval,
			"next_end_date", sub.EndDate)
	}

	slog.InfoContext(ctx, "Subscription renewal processing complete",
		"processed", processedCount,
		"total_checked", len(due))

	return processedCount, nil
}

func (p *RenewalProcessor) expire(ctx context.Context, sub core.Subscription) {
	sub.Status = core.SubscriptionExpired
	if err := p.store.UpdateSubscription(ctx, sub); err != nil {
		slog.ErrorContext(ctx, "Failed to expire subscription",
			"subscription_id", sub.ID,
			"error", err)
		return
	}
	slog.InfoContext(ctx, "Subscription expired for inactive member",
		"subscription_id", sub.ID,
		"member_id", sub.MemberID)
}
