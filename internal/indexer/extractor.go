package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iuliansafta/solana-indexer/internal/chain"
	"github.com/iuliansafta/solana-indexer/internal/domain/model"
)

// Extraction failures for a single transaction. These abort that
// transaction's record, never the whole address run.
var (
	ErrMissingMeta       = errors.New("transaction meta missing")
	ErrMissingBlockTime  = errors.New("transaction block time missing")
	ErrMalformedBalances = errors.New("balance arrays shorter than account index")
)

// BalanceEffect is the computed effect of one transaction on one address.
type BalanceEffect struct {
	Signature    string
	PreBalance   uint64
	PostBalance  uint64
	Fee          uint64
	TransferType model.TransferType
	BlockTime    time.Time
	// Participant is false when the address was not found in the
	// transaction's account table. The effect then carries zero balances
	// and TransferUnknown; callers record it distinctly so operators can
	// spot listing/detail drift.
	Participant bool
}

// Extract fetches full transaction detail and derives the balance delta for
// address. Balances are read from the ledger-reported pre/post arrays at the
// index where address appears in the account table, never recomputed from
// deltas.
func Extract(ctx context.Context, adapter chain.LedgerAdapter, signature, address string) (*BalanceEffect, error) {
	detail, err := adapter.GetTransaction(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("fetch transaction %s: %w", signature, err)
	}

	if !detail.HasMeta {
		return nil, fmt.Errorf("transaction %s: %w", signature, ErrMissingMeta)
	}
	if detail.BlockTime == nil {
		return nil, fmt.Errorf("transaction %s: %w", signature, ErrMissingBlockTime)
	}
	blockTime := time.Unix(*detail.BlockTime, 0).UTC()

	idx := -1
	for i, key := range detail.AccountKeys {
		if key == address {
			idx = i
			break
		}
	}
	if idx < 0 {
		// Stale listing results or address formatting differences can put
		// a signature in the history whose account table lacks the
		// address. Keep moving with a sentinel effect.
		return &BalanceEffect{
			Signature:    signature,
			TransferType: model.TransferUnknown,
			BlockTime:    blockTime,
			Fee:          detail.Fee,
		}, nil
	}

	if idx >= len(detail.PreBalances) || idx >= len(detail.PostBalances) {
		return nil, fmt.Errorf("transaction %s account %d: %w", signature, idx, ErrMalformedBalances)
	}

	pre := detail.PreBalances[idx]
	post := detail.PostBalances[idx]

	// Zero delta counts as debit: the address appears in the account table,
	// so at minimum it signed as a fee payer.
	transferType := model.TransferDebit
	if post > pre {
		transferType = model.TransferCredit
	}

	return &BalanceEffect{
		Signature:    signature,
		PreBalance:   pre,
		PostBalance:  post,
		Fee:          detail.Fee,
		TransferType: transferType,
		BlockTime:    blockTime,
		Participant:  true,
	}, nil
}
