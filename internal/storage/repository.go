package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gymdesk/internal/core"
	"gymdesk/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements store.Store on a single SQLite file. It also
// carries the sync-queue columns the outbox worker drains.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for health checks.
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func newID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("t%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// --- gyms ---

func (r *SQLiteRepository) CreateGym(ctx context.Context, g core.Gym) (core.Gym, error) {
	if g.ID == "" {
		g.ID = newID()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO gyms (id, name, created_at) VALUES (?, ?, ?)`,
		g.ID, g.Name, g.CreatedAt)
	if err != nil {
		return core.Gym{}, fmt.Errorf("create gym: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) GetGym(ctx context.Context, id string) (core.Gym, error) {
	var g core.Gym
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM gyms WHERE id = ?`, id).
		Scan(&g.ID, &g.Name, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Gym{}, store.ErrNotFound
	}
	if err != nil {
		return core.Gym{}, fmt.Errorf("get gym: %w", err)
	}
	return g, nil
}

// --- members ---

func (r *SQLiteRepository) CreateMember(ctx context.Context, m core.Member) (core.Member, error) {
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	if m.ID == "" {
		m.ID = newID()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	m.Active = true
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (id, gym_id, name, phone, email, avatar_url, joined_at, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
		m.ID, m.GymID, m.Name, m.Phone, m.Email, m.AvatarURL, m.JoinedAt)
	if err != nil {
		return core.Member{}, fmt.Errorf("create member: %w", err)
	}

	slog.InfoContext(ctx, "Member created",
		"id", m.ID,
		"gym_id", m.GymID,
		"name", m.Name)
	return m, nil
}

func (r *SQLiteRepository) GetMember(ctx context.Context, gymID, id string) (core.Member, error) {
	var m core.Member
	err := r.db.QueryRowContext(ctx,
		`SELECT id, gym_id, name, phone, email, avatar_url, joined_at, active
		 FROM members WHERE id = ? AND gym_id = ?`, id, gymID).
		Scan(&m.ID, &m.GymID, &m.Name, &m.Phone, &m.Email, &m.AvatarURL, &m.JoinedAt, &m.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Member{}, store.ErrNotFound
	}
	if err != nil {
		return core.Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context, gymID string) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, gym_id, name, phone, email, avatar_url, joined_at, active
		 FROM members WHERE gym_id = ? ORDER BY name`, gymID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []core.Member
	for rows.Next() {
		var m core.Member
		if err := rows.Scan(&m.ID, &m.GymID, &m.Name, &m.Phone, &m.Email, &m.AvatarURL, &m.JoinedAt, &m.Active); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateMember(ctx context.Context, m core.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET name = ?, phone = ?, email = ?, avatar_url = ?, active = ?
		 WHERE id = ? AND gym_id = ?`,
		m.Name, m.Phone, m.Email, m.AvatarURL, m.Active, m.ID, m.GymID)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeactivateMember(ctx context.Context, gymID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET active = 0 WHERE id = ? AND gym_id = ?`, id, gymID)
	if err != nil {
		return fmt.Errorf("deactivate member: %w", err)
	}
	return requireRow(res)
}

// --- plans ---

func (r *SQLiteRepository) CreatePlan(ctx context.Context, p core.Plan) (core.Plan, error) {
	if err := p.Validate(); err != nil {
		return core.Plan{}, err
	}
	if p.ID == "" {
		p.ID = newID()
	}
	p.Active = true
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO plans (id, gym_id, name, price_paise, billing_interval, active)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		p.ID, p.GymID, p.Name, p.Price.Paise, string(p.Interval))
	if err != nil {
		return core.Plan{}, fmt.Errorf("create plan: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) GetPlan(ctx context.Context, gymID, id string) (core.Plan, error) {
	var p core.Plan
	var interval string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, gym_id, name, price_paise, billing_interval, active
		 FROM plans WHERE id = ? AND gym_id = ?`, id, gymID).
		Scan(&p.ID, &p.GymID, &p.Name, &p.Price.Paise, &interval, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Plan{}, store.ErrNotFound
	}
	if err != nil {
		return core.Plan{}, fmt.Errorf("get plan: %w", err)
	}
	p.Interval = core.BillingInterval(interval)
	return p, nil
}

func (r *SQLiteRepository) ListPlans(ctx context.Context, gymID string) ([]core.Plan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, gym_id, name, price_paise, billing_interval, active
		 FROM plans WHERE gym_id = ? ORDER BY name`, gymID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []core.Plan
	for rows.Next() {
		var p core.Plan
		var interval string
		if err := rows.Scan(&p.ID, &p.GymID, &p.Name, &p.Price.Paise, &interval, &p.Active); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		p.Interval = core.BillingInterval(interval)
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- subscriptions ---

func (r *SQLiteRepository) CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	if err := s.Validate(); err != nil {
		return core.Subscription{}, err
	}
	if s.ID == "" {
		s.ID = newID()
	}
	if s.Status == "" {
		s.Status = core.SubscriptionActive
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, gym_id, member_id, plan_id, start_date, end_date, status, last_renewal_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.GymID, s.MemberID, s.PlanID, s.StartDate, s.EndDate, string(s.Status), nullTime(s.LastRenewalAt))
	if err != nil {
		return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) ListSubscriptions(ctx context.Context, gymID string) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, gym_id, member_id, plan_id, start_date, end_date, status, last_renewal_at
		 FROM subscriptions WHERE gym_id = ? ORDER BY start_date DESC`, gymID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (r *SQLiteRepository) ListDueSubscriptions(ctx context.Context, asOf time.Time) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, gym_id, member_id, plan_id, start_date, end_date, status, last_renewal_at
		 FROM subscriptions WHERE status = ? AND end_date <= ? ORDER BY end_date`,
		string(core.SubscriptionActive), asOf)
	if err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (r *SQLiteRepository) UpdateSubscription(ctx context.Context, s core.Subscription) error {
	if err := s.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET plan_id = ?, start_date = ?, end_date = ?, status = ?, last_renewal_at = ?
		 WHERE id = ? AND gym_id = ?`,
		s.PlanID, s.StartDate, s.EndDate, string(s.Status), nullTime(s.LastRenewalAt), s.ID, s.GymID)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return requireRow(res)
}

func scanSubscriptions(rows *sql.Rows) ([]core.Subscription, error) {
	var out []core.Subscription
	for rows.Next() {
		var s core.Subscription
		var status string
		var lastRenewal sql.NullTime
		if err := rows.Scan(&s.ID, &s.GymID, &s.MemberID, &s.PlanID, &s.StartDate, &s.EndDate, &status, &lastRenewal); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		s.Status = core.SubscriptionStatus(status)
		if lastRenewal.Valid {
			s.LastRenewalAt = lastRenewal.Time
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// --- attendance ---

func (r *SQLiteRepository) RecordCheckIn(ctx context.Context, a core.Attendance) (core.Attendance, error) {
	if err := a.Validate(); err != nil {
		return core.Attendance{}, err
	}
	if a.ID == "" {
		a.ID = newID()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attendance (id, gym_id, member_id, checked_in_at) VALUES (?, ?, ?, ?)`,
		a.ID, a.GymID, a.MemberID, a.CheckedInAt)
	if err != nil {
		return core.Attendance{}, fmt.Errorf("record check-in: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListCheckIns(ctx context.Context, gymID string, from, to time.Time) ([]core.Attendance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, gym_id, member_id, checked_in_at
		 FROM attendance WHERE gym_id = ? AND checked_in_at >= ? AND checked_in_at < ?
		 ORDER BY checked_in_at DESC`, gymID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	var out []core.Attendance
	for rows.Next() {
		var a core.Attendance
		if err := rows.Scan(&a.ID, &a.GymID, &a.MemberID, &a.CheckedInAt); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- transactions ---

func (r *SQLiteRepository) RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = newID()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions
		 (id, gym_id, member_id, plan_id, amount_paise, type, status, occurred_at, payer_name, avatar_url, created_at, sync_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending')`,
		tx.ID, tx.GymID, tx.MemberID, tx.PlanID, tx.Amount.Paise,
		string(tx.Type), string(tx.Status), tx.OccurredAt, tx.PayerName, tx.AvatarURL,
		time.Now().UTC())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", tx.ID,
		"gym_id", tx.GymID,
		"amount_paise", tx.Amount.Paise,
		"type", tx.Type,
		"status", tx.Status)
	return tx, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, q store.TransactionQuery) ([]core.Transaction, error) {
	query := `SELECT id, gym_id, member_id, plan_id, amount_paise, type, status, occurred_at, payer_name, avatar_url
	          FROM transactions WHERE gym_id = ?`
	args := []any{q.GymID}
	if q.PlanID != "" {
		query += ` AND plan_id = ?`
		args = append(args, q.PlanID)
	}
	if !q.From.IsZero() {
		query += ` AND occurred_at >= ?`
		args = append(args, q.From)
	}
	if !q.To.IsZero() {
		query += ` AND occurred_at < ?`
		args = append(args, q.To)
	}
	query += ` ORDER BY occurred_at DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var tx core.Transaction
		var typ, status string
		if err := rows.Scan(&tx.ID, &tx.GymID, &tx.MemberID, &tx.PlanID, &tx.Amount.Paise,
			&typ, &status, &tx.OccurredAt, &tx.PayerName, &tx.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = core.TransactionType(typ)
		tx.Status = core.TransactionStatus(status)
		out = append(out, tx)
	}
	return out, rows.Err()
}

// PendingSyncTransaction is the minimal record the outbox worker enqueues.
type PendingSyncTransaction struct {
	ID        string
	GymID     string
	CreatedAt time.Time
}

// GetPendingSyncTransactions returns transactions not yet exported to the
// ledger, oldest first.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, gym_id, created_at FROM transactions
		 WHERE sync_status = 'pending' ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncTransaction
	for rows.Next() {
		var p PendingSyncTransaction
		if err := rows.Scan(&p.ID, &p.GymID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync transaction: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetTransaction retrieves a single transaction by ID regardless of gym.
// Used by the sync worker which processes the global outbox.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var tx core.Transaction
	var typ, status string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, gym_id, member_id, plan_id, amount_paise, type, status, occurred_at, payer_name, avatar_url
		 FROM transactions WHERE id = ?`, id).
		Scan(&tx.ID, &tx.GymID, &tx.MemberID, &tx.PlanID, &tx.Amount.Paise,
			&typ, &status, &tx.OccurredAt, &tx.PayerName, &tx.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	tx.Type = core.TransactionType(typ)
	tx.Status = core.TransactionStatus(status)
	return tx, nil
}

// MarkSynced marks a transaction as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced', synced_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}

	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError records a failed export attempt.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'error', sync_attempts = sync_attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}

	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
