package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/iuliansafta/solana-indexer/internal/domain/model"
)

type BalanceRepo struct {
	db *DB
}

func NewBalanceRepo(db *DB) *BalanceRepo {
	return &BalanceRepo{db: db}
}

// Upsert inserts one balance snapshot. The conflict target is the
// (address_id, transaction_hash) unique key; DO NOTHING makes re-ingestion of
// an already recorded transaction a no-op in a single atomic statement.
func (r *BalanceRepo) Upsert(ctx context.Context, b *model.Balance) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	// Balances are lamports (uint64); they go through ::numeric since
	// bigint is signed and cannot hold the full range.
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO balances (address_id, pre_balance, post_balance, fee, transaction_hash, transfer_type, block_time)
		VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5, $6, $7)
		ON CONFLICT (address_id, transaction_hash) DO NOTHING
	`, b.AddressID, strconv.FormatUint(b.PreBalance, 10), strconv.FormatUint(b.PostBalance, 10),
		strconv.FormatUint(b.Fee, 10), b.TxHash, b.TransferType, b.BlockTime)
	if err != nil {
		return false, fmt.Errorf("upsert balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert balance rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *BalanceRepo) CountByAddress(ctx context.Context, addressID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM balances WHERE address_id = $1
	`, addressID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count balances: %w", err)
	}
	return count, nil
}
