//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iuliansafta/solana-indexer/internal/domain/model"
	"github.com/iuliansafta/solana-indexer/internal/store/postgres"
)

func insertAddress(t *testing.T, db *postgres.DB, chain model.Chain, address string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := db.QueryRowContext(context.Background(), `
		INSERT INTO addresses (chain, address) VALUES ($1, $2) RETURNING id
	`, chain, address).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestAddressRepo_FindByID(t *testing.T) {
	db := testDB(t)
	repo := postgres.NewAddressRepo(db)
	ctx := context.Background()

	id := insertAddress(t, db, model.ChainSolana, "find-"+uuid.NewString()[:8])

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, model.ChainSolana, got.Chain)
	assert.Nil(t, got.InspectedOn)

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAddressRepo_UninspectedLifecycle(t *testing.T) {
	db := testDB(t)
	repo := postgres.NewAddressRepo(db)
	ctx := context.Background()

	addr := "lifecycle-" + uuid.NewString()[:8]
	id := insertAddress(t, db, model.ChainSolana, addr)

	pending, err := repo.GetUninspected(ctx, model.ChainSolana)
	require.NoError(t, err)
	found := false
	for _, a := range pending {
		if a.ID == id {
			found = true
		}
	}
	assert.True(t, found, "freshly inserted address should be pending")

	require.NoError(t, repo.MarkInspected(ctx, id, time.Now()))

	pending, err = repo.GetUninspected(ctx, model.ChainSolana)
	require.NoError(t, err)
	for _, a := range pending {
		assert.NotEqual(t, id, a.ID, "inspected address should not be pending")
	}

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.InspectedOn)
}

func TestBalanceRepo_UpsertIdempotent(t *testing.T) {
	db := testDB(t)
	repo := postgres.NewBalanceRepo(db)
	ctx := context.Background()

	id := insertAddress(t, db, model.ChainSolana, "upsert-"+uuid.NewString()[:8])

	balance := &model.Balance{
		AddressID:    id,
		TxHash:       "tx-" + uuid.NewString()[:8],
		PreBalance:   100,
		PostBalance:  80,
		Fee:          5000,
		TransferType: model.TransferDebit,
		BlockTime:    time.Unix(1700000000, 0).UTC(),
	}

	inserted, err := repo.Upsert(ctx, balance)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same (address, transaction) key conflicts and is dropped.
	inserted, err = repo.Upsert(ctx, balance)
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := repo.CountByAddress(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestBalanceRepo_FullUint64Range(t *testing.T) {
	db := testDB(t)
	repo := postgres.NewBalanceRepo(db)
	ctx := context.Background()

	id := insertAddress(t, db, model.ChainSolana, "range-"+uuid.NewString()[:8])

	inserted, err := repo.Upsert(ctx, &model.Balance{
		AddressID:    id,
		TxHash:       "tx-" + uuid.NewString()[:8],
		PreBalance:   ^uint64(0),
		PostBalance:  ^uint64(0) - 5000,
		Fee:          5000,
		TransferType: model.TransferDebit,
		BlockTime:    time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestAddressTrigger_Installed(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	insertAddress(t, db, model.ChainSolana, "notify-"+uuid.NewString()[:8])

	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_trigger WHERE tgname = 'addresses_notify'
		)
	`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists)
}
