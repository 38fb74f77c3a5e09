package indexer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iuliansafta/solana-indexer/internal/chain"
	"github.com/iuliansafta/solana-indexer/internal/metrics"
)

// defaultMaxPageSize mirrors the endpoint cap on getSignaturesForAddress.
const defaultMaxPageSize = 1000

// Paginator walks an address's signature listing across pages, newest-first,
// until maxCount references are collected or the endpoint reports exhaustion
// with an empty or short page. Pages are stitched on a "before" cursor set to
// the oldest signature seen so far; since cursors may overlap by one entry,
// results are deduplicated by signature.
type Paginator struct {
	maxPageSize int
	commitment  string
	logger      *slog.Logger
}

func NewPaginator(logger *slog.Logger) *Paginator {
	return &Paginator{
		maxPageSize: defaultMaxPageSize,
		commitment:  "confirmed",
		logger:      logger,
	}
}

// Paginate returns up to maxCount deduplicated references in
// reverse-chronological order.
func (p *Paginator) Paginate(ctx context.Context, adapter chain.LedgerAdapter, address string, maxCount int) ([]chain.SignatureInfo, error) {
	if maxCount <= 0 {
		return nil, nil
	}

	var (
		out    []chain.SignatureInfo
		before string
		seen   = make(map[string]struct{})
	)

	for len(out) < maxCount {
		limit := maxCount - len(out)
		if limit > p.maxPageSize {
			limit = p.maxPageSize
		}

		page, err := adapter.ListSignatures(ctx, address, chain.ListSignaturesOpts{
			Before:     before,
			Limit:      limit,
			Commitment: p.commitment,
		})
		if err != nil {
			return nil, fmt.Errorf("paginate signatures for %s: %w", address, err)
		}
		metrics.PaginatorPagesFetched.WithLabelValues(adapter.Chain()).Inc()

		if len(page) == 0 {
			break
		}

		for _, sig := range page {
			if _, dup := seen[sig.Signature]; dup {
				continue
			}
			seen[sig.Signature] = struct{}{}
			out = append(out, sig)
			if len(out) == maxCount {
				break
			}
		}

		// A short page means the history is exhausted.
		if len(page) < limit {
			break
		}

		before = page[len(page)-1].Signature
	}

	p.logger.Debug("paginated signatures",
		"address", address,
		"count", len(out),
		"max_count", maxCount,
	)
	return out, nil
}
