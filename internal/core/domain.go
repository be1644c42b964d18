package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// Transaction types.
	TypeIncome TransactionType = "income"
	TypeOther  TransactionType = "other"

	// Transaction statuses. Status and type are independent axes: a
	// transaction can be pending regardless of its type.
	StatusReceived TransactionStatus = "received"
	StatusPaid     TransactionStatus = "paid"
	StatusPending  TransactionStatus = "pending"

	// Plan billing intervals.
	IntervalWeekly    BillingInterval = "weekly"
	IntervalMonthly   BillingInterval = "monthly"
	IntervalQuarterly BillingInterval = "quarterly"
	IntervalYearly    BillingInterval = "yearly"

	// Subscription statuses.
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type (
	TransactionType    string
	TransactionStatus  string
	BillingInterval    string
	SubscriptionStatus string

	// Money is a currency amount in paise (hundredths of a rupee).
	Money struct {
		Paise int64
	}

	Gym struct {
		ID        string
		Name      string
		CreatedAt time.Time
	}

	Member struct {
		ID        string
		GymID     string
		Name      string
		Phone     string
		Email     string
		AvatarURL string
		JoinedAt  time.Time
		Active    bool
	}

	Plan struct {
		ID       string
		GymID    string
		Name     string
		Price    Money
		Interval BillingInterval
		Active   bool
	}

	Subscription struct {
		ID        string
		GymID     string
		MemberID  string
		PlanID    string
		StartDate time.Time
		EndDate   time.Time
		Status    SubscriptionStatus
		// LastRenewalAt is zero until the renewal worker first processes
		// the subscription.
		LastRenewalAt time.Time
	}

	Attendance struct {
		ID          string
		GymID       string
		MemberID    string
		CheckedInAt time.Time
	}

	// Transaction is a single payment event. Records are created when a
	// payment is recorded and are never mutated by the reporting layer.
	Transaction struct {
		ID         string
		GymID      string
		MemberID   string
		PlanID     string
		Amount     Money
		Type       TransactionType
		Status     TransactionStatus
		OccurredAt time.Time
		PayerName  string
		AvatarURL  string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidStatus    = errors.New("invalid transaction status")
	ErrInvalidInterval  = errors.New("invalid billing interval")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyGymID       = errors.New("empty gym id")
	ErrEmptyMemberID    = errors.New("empty member id")
	ErrEmptyPlanID      = errors.New("empty plan id")
	ErrZeroTimestamp    = errors.New("zero timestamp")
	ErrInvalidDateRange = errors.New("end date must not precede start date")
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeOther:
		return true
	}
	return false
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusReceived, StatusPaid, StatusPending:
		return true
	}
	return false
}

func (b BillingInterval) Valid() bool {
	switch b {
	case IntervalWeekly, IntervalMonthly, IntervalQuarterly, IntervalYearly:
		return true
	}
	return false
}

// Next returns the end of one billing interval anchored at from.
// Month arithmetic follows time.AddDate semantics.
func (b BillingInterval) Next(from time.Time) time.Time {
	switch b {
	case IntervalWeekly:
		return from.AddDate(0, 0, 7)
	case IntervalMonthly:
		return from.AddDate(0, 1, 0)
	case IntervalQuarterly:
		return from.AddDate(0, 3, 0)
	case IntervalYearly:
		return from.AddDate(1, 0, 0)
	default:
		return from
	}
}

func (m Money) Validate() error {
	if m.Paise < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.GymID) == "" {
		return ErrEmptyGymID
	}
	if len(strings.TrimSpace(m.Name)) == 0 {
		return ErrEmptyName
	}
	if len(m.Name) > 120 {
		return errors.New("name too long (max 120 characters)")
	}
	return nil
}

func (p Plan) Validate() error {
	if strings.TrimSpace(p.GymID) == "" {
		return ErrEmptyGymID
	}
	if len(strings.TrimSpace(p.Name)) == 0 {
		return ErrEmptyName
	}
	if p.Price.Paise <= 0 {
		return ErrInvalidAmount
	}
	if !p.Interval.Valid() {
		return ErrInvalidInterval
	}
	return nil
}

func (s Subscription) Validate() error {
	if strings.TrimSpace(s.GymID) == "" {
		return ErrEmptyGymID
	}
	if strings.TrimSpace(s.MemberID) == "" {
		return ErrEmptyMemberID
	}
	if strings.TrimSpace(s.PlanID) == "" {
		return ErrEmptyPlanID
	}
	if s.StartDate.IsZero() {
		return ErrZeroTimestamp
	}
	if !s.EndDate.IsZero() && s.EndDate.Before(s.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

func (a Attendance) Validate() error {
	if strings.TrimSpace(a.GymID) == "" {
		return ErrEmptyGymID
	}
	if strings.TrimSpace(a.MemberID) == "" {
		return ErrEmptyMemberID
	}
	if a.CheckedInAt.IsZero() {
		return ErrZeroTimestamp
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.GymID) == "" {
		return ErrEmptyGymID
	}
	if strings.TrimSpace(t.MemberID) == "" {
		return ErrEmptyMemberID
	}
	if t.Amount.Paise < 0 {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if t.OccurredAt.IsZero() {
		return ErrZeroTimestamp
	}
	return nil
}

// CountsAsIncome reports whether the transaction contributes to summary
// income: type income and status received.
func (t Transaction) CountsAsIncome() bool {
	return t.Type == TypeIncome && t.Status == StatusReceived
}
