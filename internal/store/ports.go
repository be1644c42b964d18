package store

import (
	"context"
	"errors"
	"time"

	"gymdesk/internal/core"
)

// ErrNotFound is returned when a lookup targets a record that does not
// exist or belongs to another gym.
var ErrNotFound = errors.New("record not found")

// TransactionQuery scopes a transaction listing. From/To form a half-open
// [From, To) interval; a zero From means "from the beginning". An empty
// PlanID matches every plan.
type TransactionQuery struct {
	GymID  string
	PlanID string
	From   time.Time
	To     time.Time
	Limit  int
}

// Ports for the persistence layer. Handlers and services depend on these
// interfaces, never on a concrete repository.
type (
	TransactionRecorder interface {
		RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	}

	TransactionReader interface {
		ListTransactions(ctx context.Context, q TransactionQuery) ([]core.Transaction, error)
	}

	MemberStore interface {
		CreateMember(ctx context.Context, m core.Member) (core.Member, error)
		GetMember(ctx context.Context, gymID, id string) (core.Member, error)
		ListMembers(ctx context.Context, gymID string) ([]core.Member, error)
		UpdateMember(ctx context.Context, m core.Member) error
		DeactivateMember(ctx context.Context, gymID, id string) error
	}

	PlanStore interface {
		CreatePlan(ctx context.Context, p core.Plan) (core.Plan, error)
		GetPlan(ctx context.Context, gymID, id string) (core.Plan, error)
		ListPlans(ctx context.Context, gymID string) ([]core.Plan, error)
	}

	SubscriptionStore interface {
		CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error)
		ListSubscriptions(ctx context.Context, gymID string) ([]core.Subscription, error)
		ListDueSubscriptions(ctx context.Context, asOf time.Time) ([]core.Subscription, error)
		UpdateSubscription(ctx context.Context, s core.Subscription) error
	}

	AttendanceStore interface {
		RecordCheckIn(ctx context.Context, a core.Attendance) (core.Attendance, error)
		ListCheckIns(ctx context.Context, gymID string, from, to time.Time) ([]core.Attendance, error)
	}

	GymStore interface {
		CreateGym(ctx context.Context, g core.Gym) (core.Gym, error)
		GetGym(ctx context.Context, id string) (core.Gym, error)
	}
)

// Store is the full persistence surface a backend must provide.
type Store interface {
	TransactionRecorder
	TransactionReader
	MemberStore
	PlanStore
	SubscriptionStore
	AttendanceStore
	GymStore
}
