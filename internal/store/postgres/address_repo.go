package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iuliansafta/solana-indexer/internal/domain/model"
)

type AddressRepo struct {
	db *DB
}

func NewAddressRepo(db *DB) *AddressRepo {
	return &AddressRepo{db: db}
}

func (r *AddressRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var a model.Address
	err := r.db.QueryRowContext(ctx, `
		SELECT id, chain, address, inspected_on, created_at
		FROM addresses
		WHERE id = $1
	`, id).Scan(&a.ID, &a.Chain, &a.Address, &a.InspectedOn, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find address: %w", err)
	}
	return &a, nil
}

// GetUninspected returns addresses that were registered but never ingested,
// oldest first. The startup sweep drains this backlog before the dispatcher
// starts consuming live notifications.
func (r *AddressRepo) GetUninspected(ctx context.Context, chain model.Chain) ([]model.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chain, address, inspected_on, created_at
		FROM addresses
		WHERE chain = $1 AND inspected_on IS NULL
		ORDER BY created_at
	`, chain)
	if err != nil {
		return nil, fmt.Errorf("query uninspected addresses: %w", err)
	}
	defer rows.Close()

	var addresses []model.Address
	for rows.Next() {
		var a model.Address
		if err := rows.Scan(&a.ID, &a.Chain, &a.Address, &a.InspectedOn, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (r *AddressRepo) MarkInspected(ctx context.Context, id uuid.UUID, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		UPDATE addresses SET inspected_on = $2 WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("mark address inspected: %w", err)
	}
	return nil
}
