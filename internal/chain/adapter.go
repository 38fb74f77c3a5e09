package chain

import (
	"context"
	"errors"
)

// ErrTransactionNotFound is returned when the ledger has no record of the
// requested signature (null RPC result).
var ErrTransactionNotFound = errors.New("transaction not found")

// LedgerAdapter abstracts a chain's history endpoint so the ingestion core
// operates chain-agnostically. One implementation exists per supported chain;
// unsupported chains simply have no entry in the Registry.
type LedgerAdapter interface {
	// Chain returns the chain identifier (e.g., "solana").
	Chain() string

	// ListSignatures returns one page of transaction references for an
	// address, newest-first, honoring the cursor and limit in opts.
	ListSignatures(ctx context.Context, address string, opts ListSignaturesOpts) ([]SignatureInfo, error)

	// GetTransaction fetches full transaction detail for a signature.
	// Returns ErrTransactionNotFound if the ledger has no such transaction.
	GetTransaction(ctx context.Context, signature string) (*TransactionDetail, error)
}

// ListSignaturesOpts controls cursor-based signature paging.
type ListSignaturesOpts struct {
	// Before starts the page strictly before this signature
	// (reverse-chronological paging). Empty means "from the newest".
	Before string
	// Limit caps the page size. Zero lets the endpoint apply its default.
	Limit int
	// Commitment is the consistency level requested from the endpoint.
	Commitment string
}

// SignatureInfo is a transaction reference as reported by the listing call.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
}

// TransactionDetail is the normalized detail the balance extractor needs:
// the fee, the ordered pre/post balance arrays, and the participant account
// list in the transaction's account-table order.
type TransactionDetail struct {
	Signature    string
	Slot         int64
	BlockTime    *int64
	Fee          uint64
	PreBalances  []uint64
	PostBalances []uint64
	AccountKeys  []string
	// HasMeta reports whether the ledger returned transaction metadata at
	// all. When false, the balance arrays and fee are meaningless.
	HasMeta bool
}
