package solana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iuliansafta/solana-indexer/internal/cache"
	"github.com/iuliansafta/solana-indexer/internal/chain"
	"github.com/iuliansafta/solana-indexer/internal/chain/ratelimit"
	"github.com/iuliansafta/solana-indexer/internal/chain/solana/rpc"
	"github.com/iuliansafta/solana-indexer/internal/circuitbreaker"
	"github.com/iuliansafta/solana-indexer/internal/metrics"
)

const chainName = "solana"

// MaxPageSize is the largest page getSignaturesForAddress will return.
const MaxPageSize = 1000

// Options tunes the adapter's client-side protections.
type Options struct {
	RPS         float64       // rate limit, requests per second (default 10)
	Burst       int           // rate limit burst (default 5)
	TxCacheSize int           // transaction detail cache capacity (default 4096)
	TxCacheTTL  time.Duration // cache entry lifetime (default 10m)
}

func (o *Options) applyDefaults() {
	if o.RPS <= 0 {
		o.RPS = 10
	}
	if o.Burst <= 0 {
		o.Burst = 5
	}
	if o.TxCacheSize <= 0 {
		o.TxCacheSize = 4096
	}
	if o.TxCacheTTL <= 0 {
		o.TxCacheTTL = 10 * time.Minute
	}
}

// Adapter implements chain.LedgerAdapter against a Solana JSON-RPC endpoint.
// Every call is paced by a token-bucket limiter and guarded by a circuit
// breaker; transaction detail is cached since on-chain transactions are
// immutable.
type Adapter struct {
	client  rpc.RPCClient
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.Breaker
	txCache *cache.LRU[string, *chain.TransactionDetail]
	logger  *slog.Logger
}

var _ chain.LedgerAdapter = (*Adapter)(nil)

func NewAdapter(rpcURL string, opts Options, logger *slog.Logger) *Adapter {
	opts.applyDefaults()
	logger = logger.With("chain", chainName)
	return &Adapter{
		client:  rpc.NewClient(rpcURL, logger),
		limiter: ratelimit.NewLimiter(opts.RPS, opts.Burst, chainName),
		breaker: circuitbreaker.New(circuitbreaker.Config{
			OnStateChange: func(from, to circuitbreaker.State) {
				logger.Warn("rpc circuit state changed", "from", from.String(), "to", to.String())
			},
		}),
		txCache: cache.NewLRU[string, *chain.TransactionDetail](opts.TxCacheSize, opts.TxCacheTTL),
		logger:  logger,
	}
}

func (a *Adapter) Chain() string {
	return chainName
}

// ListSignatures returns one newest-first page of transaction references.
func (a *Adapter) ListSignatures(ctx context.Context, address string, opts chain.ListSignaturesOpts) ([]chain.SignatureInfo, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var sigs []rpc.SignatureInfo
	err := a.breaker.Do(func() error {
		var callErr error
		sigs, callErr = a.client.GetSignaturesForAddress(ctx, address, &rpc.GetSignaturesOpts{
			Limit:      opts.Limit,
			Before:     opts.Before,
			Commitment: opts.Commitment,
		})
		return callErr
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		metrics.RPCCircuitOpen.WithLabelValues(chainName).Inc()
		return nil, err
	}
	ratelimit.RecordRPCCall(chainName, "getSignaturesForAddress", err)
	if err != nil {
		return nil, fmt.Errorf("list signatures for %s: %w", address, err)
	}

	result := make([]chain.SignatureInfo, len(sigs))
	for i, sig := range sigs {
		result[i] = chain.SignatureInfo{
			Signature: sig.Signature,
			Slot:      sig.Slot,
			BlockTime: sig.BlockTime,
		}
	}
	return result, nil
}

// GetTransaction fetches full transaction detail, serving immutable results
// from the LRU cache when possible.
func (a *Adapter) GetTransaction(ctx context.Context, signature string) (*chain.TransactionDetail, error) {
	if detail, ok := a.txCache.Get(signature); ok {
		metrics.TxCacheHits.WithLabelValues(chainName).Inc()
		return detail, nil
	}
	metrics.TxCacheMisses.WithLabelValues(chainName).Inc()

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp *rpc.TransactionResponse
	err := a.breaker.Do(func() error {
		var callErr error
		resp, callErr = a.client.GetTransaction(ctx, signature)
		return callErr
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		metrics.RPCCircuitOpen.WithLabelValues(chainName).Inc()
		return nil, err
	}
	ratelimit.RecordRPCCall(chainName, "getTransaction", err)
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", signature, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("get transaction %s: %w", signature, chain.ErrTransactionNotFound)
	}

	detail := toDetail(signature, resp)
	a.txCache.Put(signature, detail)
	return detail, nil
}

func toDetail(signature string, resp *rpc.TransactionResponse) *chain.TransactionDetail {
	detail := &chain.TransactionDetail{
		Signature: signature,
		Slot:      resp.Slot,
		BlockTime: resp.BlockTime,
	}
	if resp.Transaction != nil {
		detail.AccountKeys = make([]string, len(resp.Transaction.Message.AccountKeys))
		for i, key := range resp.Transaction.Message.AccountKeys {
			detail.AccountKeys[i] = key.Pubkey
		}
	}
	if resp.Meta != nil {
		detail.HasMeta = true
		detail.Fee = resp.Meta.Fee
		detail.PreBalances = resp.Meta.PreBalances
		detail.PostBalances = resp.Meta.PostBalances
	}
	return detail
}
