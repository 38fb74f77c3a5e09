package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/iuliansafta/solana-indexer/internal/alert"
	"github.com/iuliansafta/solana-indexer/internal/chain"
	"github.com/iuliansafta/solana-indexer/internal/domain/model"
	"github.com/iuliansafta/solana-indexer/internal/metrics"
	"github.com/iuliansafta/solana-indexer/internal/retry"
	"github.com/iuliansafta/solana-indexer/internal/store"
)

// ErrUnsupportedChain is returned when no adapter is registered for an
// address's chain.
var ErrUnsupportedChain = errors.New("unsupported chain")

// Config tunes the ingester.
type Config struct {
	// MaxSignatures bounds the backfill per trigger (default 1000).
	MaxSignatures int
	// RunTimeout bounds one address's ingestion; zero disables the bound.
	RunTimeout time.Duration
	// Retry applies to the signature-listing calls.
	Retry retry.Config
}

func (c *Config) applyDefaults() {
	if c.MaxSignatures <= 0 {
		c.MaxSignatures = 1000
	}
}

// Ingester walks an address's transaction history and records one balance
// snapshot per transaction. Per-transaction failures are logged and skipped;
// only connectivity failures on the listing call and persistence failures
// abort a run.
type Ingester struct {
	registry  *chain.Registry
	paginator *Paginator
	addresses store.AddressRepository
	balances  store.BalanceRepository
	alerter   alert.Alerter
	cfg       Config
	logger    *slog.Logger
	tracer    trace.Tracer
	nowFn     func() time.Time
}

func NewIngester(
	registry *chain.Registry,
	addresses store.AddressRepository,
	balances store.BalanceRepository,
	alerter alert.Alerter,
	cfg Config,
	logger *slog.Logger,
) *Ingester {
	cfg.applyDefaults()
	return &Ingester{
		registry:  registry,
		paginator: NewPaginator(logger),
		addresses: addresses,
		balances:  balances,
		alerter:   alerter,
		cfg:       cfg,
		logger:    logger.With("component", "ingester"),
		tracer:    otel.Tracer("ingester"),
		nowFn:     time.Now,
	}
}

// Ingest processes one address end to end and returns the number of balance
// records inserted. Re-ingesting an already processed address inserts
// nothing thanks to the upsert key.
func (ing *Ingester) Ingest(ctx context.Context, addr model.Address) (int, error) {
	adapter, ok := ing.registry.Lookup(addr.Chain)
	if !ok {
		return 0, fmt.Errorf("chain %q: %w", addr.Chain, ErrUnsupportedChain)
	}

	if ing.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ing.cfg.RunTimeout)
		defer cancel()
	}

	ctx, span := ing.tracer.Start(ctx, "ingest_address", trace.WithAttributes(
		attribute.String("chain", addr.Chain.String()),
		attribute.String("address", addr.Address),
	))
	defer span.End()

	start := ing.nowFn()
	chainLabel := adapter.Chain()
	logger := ing.logger.With("chain", chainLabel, "address", addr.Address, "address_id", addr.ID)

	var sigs []chain.SignatureInfo
	err := retry.Do(ctx, ing.cfg.Retry, func(ctx context.Context) error {
		var pageErr error
		sigs, pageErr = ing.paginator.Paginate(ctx, adapter, addr.Address, ing.cfg.MaxSignatures)
		return pageErr
	})
	if err != nil {
		metrics.IngestRunsTotal.WithLabelValues(chainLabel, "list_failed").Inc()
		return 0, fmt.Errorf("list history for %s: %w", addr.Address, err)
	}

	written := 0
	skipped := 0
	nonParticipant := 0
	for _, sig := range sigs {
		effect, err := Extract(ctx, adapter, sig.Signature, addr.Address)
		if err != nil {
			if ctx.Err() != nil {
				metrics.IngestRunsTotal.WithLabelValues(chainLabel, "canceled").Inc()
				return written, ctx.Err()
			}
			skipped++
			metrics.IngestTxSkipped.WithLabelValues(chainLabel, skipReason(err)).Inc()
			logger.Error("skipping transaction after extraction failure",
				"signature", sig.Signature,
				"error", err,
			)
			continue
		}

		if !effect.Participant {
			nonParticipant++
			metrics.IngestNonParticipant.WithLabelValues(chainLabel).Inc()
			logger.Warn("address absent from transaction account table",
				"signature", sig.Signature,
			)
		}

		inserted, err := ing.balances.Upsert(ctx, &model.Balance{
			AddressID:    addr.ID,
			TxHash:       effect.Signature,
			PreBalance:   effect.PreBalance,
			PostBalance:  effect.PostBalance,
			Fee:          effect.Fee,
			TransferType: effect.TransferType,
			BlockTime:    effect.BlockTime,
		})
		if err != nil {
			metrics.IngestRunsTotal.WithLabelValues(chainLabel, "persist_failed").Inc()
			return written, fmt.Errorf("persist balance for %s tx %s: %w", addr.Address, sig.Signature, err)
		}
		if inserted {
			written++
			metrics.IngestBalancesWritten.WithLabelValues(chainLabel).Inc()
		}
	}

	if nonParticipant > 0 && ing.alerter != nil {
		// Best effort; alert failures never fail the run.
		_ = ing.alerter.Send(ctx, alert.Alert{
			Type:    alert.AlertTypeDataQuality,
			Chain:   chainLabel,
			Title:   "non-participant extractions",
			Message: "signature listing returned transactions whose account table lacks the address",
			Fields: map[string]string{
				"address": addr.Address,
				"count":   fmt.Sprintf("%d", nonParticipant),
			},
		})
	}

	if err := ing.addresses.MarkInspected(ctx, addr.ID, ing.nowFn()); err != nil {
		metrics.IngestRunsTotal.WithLabelValues(chainLabel, "mark_failed").Inc()
		return written, fmt.Errorf("mark %s inspected: %w", addr.Address, err)
	}

	metrics.IngestRunsTotal.WithLabelValues(chainLabel, "ok").Inc()
	metrics.IngestDuration.WithLabelValues(chainLabel).Observe(time.Since(start).Seconds())
	logger.Info("address ingested",
		"signatures", len(sigs),
		"written", written,
		"skipped", skipped,
		"non_participant", nonParticipant,
		"elapsed", time.Since(start).String(),
	)
	return written, nil
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingMeta):
		return "missing_meta"
	case errors.Is(err, ErrMissingBlockTime):
		return "missing_block_time"
	case errors.Is(err, ErrMalformedBalances):
		return "malformed_balances"
	case errors.Is(err, chain.ErrTransactionNotFound):
		return "not_found"
	default:
		return "fetch_error"
	}
}
