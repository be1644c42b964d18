package ledger

import (
	"context"

	"gymdesk/internal/core"
)

// Ports for outbound ledger adapters.
type (
	// TransactionAppender writes one transaction to an external ledger and
	// returns an adapter-specific row reference.
	TransactionAppender interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}
)
