package indexer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iuliansafta/solana-indexer/internal/alert"
	"github.com/iuliansafta/solana-indexer/internal/chain"
	chainmocks "github.com/iuliansafta/solana-indexer/internal/chain/mocks"
	"github.com/iuliansafta/solana-indexer/internal/domain/model"
	"github.com/iuliansafta/solana-indexer/internal/retry"
	storemocks "github.com/iuliansafta/solana-indexer/internal/store/mocks"
)

type recordingAlerter struct {
	alerts []alert.Alert
}

func (r *recordingAlerter) Send(_ context.Context, a alert.Alert) error {
	r.alerts = append(r.alerts, a)
	return nil
}

type ingestFixture struct {
	adapter   *chainmocks.MockLedgerAdapter
	addresses *storemocks.MockAddressRepository
	balances  *storemocks.MockBalanceRepository
	alerter   *recordingAlerter
	ingester  *Ingester
	addr      model.Address
}

func newIngestFixture(t *testing.T, ctrl *gomock.Controller) *ingestFixture {
	t.Helper()

	f := &ingestFixture{
		adapter:   chainmocks.NewMockLedgerAdapter(ctrl),
		addresses: storemocks.NewMockAddressRepository(ctrl),
		balances:  storemocks.NewMockBalanceRepository(ctrl),
		alerter:   &recordingAlerter{},
		addr: model.Address{
			ID:      uuid.New(),
			Chain:   model.ChainSolana,
			Address: "AddrA",
		},
	}
	f.adapter.EXPECT().Chain().Return("solana").AnyTimes()

	registry := chain.NewRegistry()
	registry.Register(model.ChainSolana, f.adapter)

	f.ingester = NewIngester(registry, f.addresses, f.balances, f.alerter, Config{
		MaxSignatures: 100,
		Retry:         retry.Config{MaxAttempts: 1},
	}, testLogger())
	return f
}

func (f *ingestFixture) expectListing(sigs ...string) {
	f.adapter.EXPECT().
		ListSignatures(gomock.Any(), f.addr.Address, gomock.Any()).
		Return(sigPage(sigs...), nil)
}

func TestIngestWritesBalancesAndMarksInspected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newIngestFixture(t, ctrl)
	f.expectListing("s1", "s2")

	for _, sig := range []string{"s1", "s2"} {
		detail := transferDetail()
		detail.Signature = sig
		f.adapter.EXPECT().GetTransaction(gomock.Any(), sig).Return(detail, nil)
	}

	var upserted []*model.Balance
	f.balances.EXPECT().
		Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, b *model.Balance) (bool, error) {
			upserted = append(upserted, b)
			return true, nil
		}).
		Times(2)
	f.addresses.EXPECT().MarkInspected(gomock.Any(), f.addr.ID, gomock.Any()).Return(nil)

	written, err := f.ingester.Ingest(context.Background(), f.addr)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	require.Len(t, upserted, 2)
	assert.Equal(t, f.addr.ID, upserted[0].AddressID)
	assert.Equal(t, "s1", upserted[0].TxHash)
	assert.Equal(t, uint64(100), upserted[0].PreBalance)
	assert.Equal(t, uint64(80), upserted[0].PostBalance)
	assert.Equal(t, model.TransferDebit, upserted[0].TransferType)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), upserted[0].BlockTime)
	assert.Empty(t, f.alerter.alerts)
}

func TestIngestSkipsFailedTransactions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newIngestFixture(t, ctrl)
	f.expectListing("s1", "s2", "s3", "s4", "s5")

	for i := 1; i <= 5; i++ {
		sig := fmt.Sprintf("s%d", i)
		if i == 3 {
			f.adapter.EXPECT().GetTransaction(gomock.Any(), sig).Return(nil, errors.New("rpc timeout"))
			continue
		}
		detail := transferDetail()
		detail.Signature = sig
		f.adapter.EXPECT().GetTransaction(gomock.Any(), sig).Return(detail, nil)
	}

	f.balances.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(true, nil).Times(4)
	f.addresses.EXPECT().MarkInspected(gomock.Any(), f.addr.ID, gomock.Any()).Return(nil)

	written, err := f.ingester.Ingest(context.Background(), f.addr)
	require.NoError(t, err)
	assert.Equal(t, 4, written)
}

func TestIngestIdempotentReplay(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newIngestFixture(t, ctrl)
	f.expectListing("s1", "s2")

	for _, sig := range []string{"s1", "s2"} {
		detail := transferDetail()
		detail.Signature = sig
		f.adapter.EXPECT().GetTransaction(gomock.Any(), sig).Return(detail, nil)
	}

	// Conflicting rows already exist from an earlier run.
	f.balances.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(false, nil).Times(2)
	f.addresses.EXPECT().MarkInspected(gomock.Any(), f.addr.ID, gomock.Any()).Return(nil)

	written, err := f.ingester.Ingest(context.Background(), f.addr)
	require.NoError(t, err)
	assert.Equal(t, 0, written)
}

func TestIngestPersistenceFailureAbortsRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newIngestFixture(t, ctrl)
	f.expectListing("s1", "s2")

	detail := transferDetail()
	f.adapter.EXPECT().GetTransaction(gomock.Any(), "s1").Return(detail, nil)

	dbErr := errors.New("connection reset")
	f.balances.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(false, dbErr)

	written, err := f.ingester.Ingest(context.Background(), f.addr)
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, 0, written)
}

func TestIngestListingFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newIngestFixture(t, ctrl)
	listErr := errors.New("rpc unavailable")
	f.adapter.EXPECT().
		ListSignatures(gomock.Any(), f.addr.Address, gomock.Any()).
		Return(nil, listErr)

	written, err := f.ingester.Ingest(context.Background(), f.addr)
	require.Error(t, err)
	assert.ErrorIs(t, err, listErr)
	assert.Equal(t, 0, written)
}

func TestIngestUnsupportedChain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newIngestFixture(t, ctrl)
	f.addr.Chain = model.ChainEth

	_, err := f.ingester.Ingest(context.Background(), f.addr)
	assert.ErrorIs(t, err, ErrUnsupportedChain)
}

func TestIngestNonParticipantRecordedWithAlert(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newIngestFixture(t, ctrl)
	f.addr.Address = "AddrC"
	f.expectListing("s1")

	// AddrC is absent from the account table.
	f.adapter.EXPECT().GetTransaction(gomock.Any(), "s1").Return(transferDetail(), nil)

	var upserted *model.Balance
	f.balances.EXPECT().
		Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, b *model.Balance) (bool, error) {
			upserted = b
			return true, nil
		})
	f.addresses.EXPECT().MarkInspected(gomock.Any(), f.addr.ID, gomock.Any()).Return(nil)

	written, err := f.ingester.Ingest(context.Background(), f.addr)
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	require.NotNil(t, upserted)
	assert.Equal(t, model.TransferUnknown, upserted.TransferType)
	assert.Zero(t, upserted.PreBalance)
	assert.Zero(t, upserted.PostBalance)

	require.Len(t, f.alerter.alerts, 1)
	assert.Equal(t, alert.AlertTypeDataQuality, f.alerter.alerts[0].Type)
	assert.Equal(t, "solana", f.alerter.alerts[0].Chain)
}

func TestIngestMarkInspectedFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newIngestFixture(t, ctrl)
	f.expectListing("s1")
	f.adapter.EXPECT().GetTransaction(gomock.Any(), "s1").Return(transferDetail(), nil)
	f.balances.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(true, nil)

	markErr := errors.New("connection reset")
	f.addresses.EXPECT().MarkInspected(gomock.Any(), f.addr.ID, gomock.Any()).Return(markErr)

	written, err := f.ingester.Ingest(context.Background(), f.addr)
	require.Error(t, err)
	assert.ErrorIs(t, err, markErr)
	assert.Equal(t, 1, written)
}
