package chain

import "github.com/iuliansafta/solana-indexer/internal/domain/model"

// Registry maps chain identifiers to their ledger adapters. Chains without a
// registered adapter are unsupported; lookups for them return ok=false and the
// caller logs and skips the event.
type Registry struct {
	adapters map[model.Chain]LedgerAdapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[model.Chain]LedgerAdapter)}
}

func (r *Registry) Register(chain model.Chain, adapter LedgerAdapter) {
	r.adapters[chain] = adapter
}

func (r *Registry) Lookup(chain model.Chain) (LedgerAdapter, bool) {
	adapter, ok := r.adapters[chain]
	return adapter, ok
}

// Chains returns the registered chain identifiers.
func (r *Registry) Chains() []model.Chain {
	chains := make([]model.Chain, 0, len(r.adapters))
	for c := range r.adapters {
		chains = append(chains, c)
	}
	return chains
}
