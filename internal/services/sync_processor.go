package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gymdesk/internal/ledger"
	"gymdesk/internal/storage"
)

// SyncProcessorConfig holds configuration for the poll-based outbox drain.
type SyncProcessorConfig struct {
	// PollInterval is how often to check for pending transactions.
	PollInterval time.Duration

	// BatchSize is the max number of transactions per poll cycle.
	BatchSize int
}

// DefaultSyncProcessorConfig returns sensible defaults.
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 10 * time.Second,
		BatchSize:    10,
	}
}

// SyncProcessor drains the transaction outbox straight from SQLite into the
// ledger. It is the fallback path when no AMQP broker is configured, and a
// safety net for messages lost while the broker was down.
type SyncProcessor struct {
	storage *storage.SQLiteRepository
	ledger  ledger.TransactionAppender
	config  SyncProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(st *storage.SQLiteRepository, appender ledger.TransactionAppender, config SyncProcessorConfig) *SyncProcessor {
	return &SyncProcessor{
		storage: st,
		ledger:  appender,
		config:  config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning reports whether the processor loop is active.
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on startup.
	p.processBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.processBatch(ctx)
		}
	}
}

func (p *SyncProcessor) processBatch(ctx context.Context) {
	pending, err := p.storage.GetPendingSyncTransactions(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load pending sync transactions", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	slog.DebugContext(ctx, "Processing sync batch", "count", len(pending))

	for _, item := range pending {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		tx, err := p.storage.GetTransaction(ctx, item.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load transaction for export",
				"id", item.ID, "error", err)
			if err := p.storage.MarkSyncError(ctx, item.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", item.ID, "error", err)
			}
			continue
		}

		ref, err := p.ledger.Append(ctx, tx)
		if err != nil {
			slog.WarnContext(ctx, "Ledger export failed",
				"id", item.ID, "error", err)
			if err := p.storage.MarkSyncError(ctx, item.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", item.ID, "error", err)
			}
			continue
		}

		if err := p.storage.MarkSynced(ctx, item.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark transaction synced",
				"id", item.ID, "error", err)
			// The export itself succeeded; leave the row for a re-export
			// rather than failing the batch.
			continue
		}

		slog.InfoContext(ctx, "Transaction exported to ledger",
			"id", item.ID,
			"ledger_ref", ref)
	}
}
