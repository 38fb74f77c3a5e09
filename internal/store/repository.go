package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/iuliansafta/solana-indexer/internal/domain/model"
)

// AddressRepository provides access to tracked addresses. Rows are owned by
// the upstream service that registers addresses; the indexer only reads them
// and stamps inspected_on.
type AddressRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Address, error)
	// GetUninspected returns addresses never ingested (inspected_on IS NULL),
	// used for the startup sweep.
	GetUninspected(ctx context.Context, chain model.Chain) ([]model.Address, error)
	MarkInspected(ctx context.Context, id uuid.UUID, at time.Time) error
}

// BalanceRepository persists balance snapshots.
type BalanceRepository interface {
	// Upsert inserts a balance record, keyed on
	// (address_id, transaction_hash). Returns false when the row already
	// existed; re-delivery of a notification is then a no-op.
	Upsert(ctx context.Context, b *model.Balance) (inserted bool, err error)
	CountByAddress(ctx context.Context, addressID uuid.UUID) (int64, error)
}
