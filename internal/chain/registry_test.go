package chain_test

import (
	"testing"

	"github.com/iuliansafta/solana-indexer/internal/chain"
	"github.com/iuliansafta/solana-indexer/internal/chain/mocks"
	"github.com/iuliansafta/solana-indexer/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRegistry_LookupRegistered(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockLedgerAdapter(ctrl)

	r := chain.NewRegistry()
	r.Register(model.ChainSolana, adapter)

	got, ok := r.Lookup(model.ChainSolana)
	require.True(t, ok)
	assert.Same(t, adapter, got)
	assert.Equal(t, []model.Chain{model.ChainSolana}, r.Chains())
}

func TestRegistry_LookupUnregistered(t *testing.T) {
	r := chain.NewRegistry()

	got, ok := r.Lookup(model.ChainEgld)
	assert.False(t, ok)
	assert.Nil(t, got)
}
