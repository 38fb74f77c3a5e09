package model

import (
	"time"

	"github.com/google/uuid"
)

// Balance is one balance snapshot for an (address, transaction) pair.
// Pre/post balances come straight from the ledger's reported balance arrays,
// never recomputed by summing deltas. At most one row exists per
// (address_id, transaction_hash); re-ingestion is a no-op.
type Balance struct {
	ID           int64        `db:"id"`
	AddressID    uuid.UUID    `db:"address_id"`
	TxHash       string       `db:"transaction_hash"`
	PreBalance   uint64       `db:"pre_balance"`
	PostBalance  uint64       `db:"post_balance"`
	Fee          uint64       `db:"fee"`
	TransferType TransferType `db:"transfer_type"`
	BlockTime    time.Time    `db:"block_time"`
	CreatedAt    time.Time    `db:"created_at"`
}
