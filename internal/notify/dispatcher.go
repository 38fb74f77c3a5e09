package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/iuliansafta/solana-indexer/internal/domain/model"
	"github.com/iuliansafta/solana-indexer/internal/indexer"
	"github.com/iuliansafta/solana-indexer/internal/metrics"
)

// Ingestor runs one address's ingestion. Satisfied by *indexer.Ingester.
type Ingestor interface {
	Ingest(ctx context.Context, addr model.Address) (int, error)
}

// Dispatcher consumes a Source and runs ingestion for each event, strictly
// one at a time so a burst of triggers cannot fan out concurrent history
// walks against the RPC endpoint. A bad event never stops the loop: it is
// logged, counted and dropped.
type Dispatcher struct {
	source   Source
	ingestor Ingestor
	logger   *slog.Logger
}

func NewDispatcher(source Source, ingestor Ingestor, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		source:   source,
		ingestor: ingestor,
		logger:   logger.With("component", "dispatcher"),
	}
}

// Run blocks until ctx is canceled or the source closes its channel.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-d.source.Notifications():
			if !ok {
				d.logger.Info("notification source closed")
				return nil
			}
			d.handle(ctx, payload)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, payload []byte) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		metrics.DispatcherEventsTotal.WithLabelValues("malformed").Inc()
		d.logger.Error("dropping malformed notification",
			"error", err,
			"payload", string(payload),
		)
		return
	}
	if event.Record.Address == "" || event.Record.ID == uuid.Nil {
		metrics.DispatcherEventsTotal.WithLabelValues("malformed").Inc()
		d.logger.Error("dropping notification with incomplete record",
			"payload", string(payload),
		)
		return
	}

	chain, ok := model.ParseChain(event.Record.ChainName)
	if !ok {
		metrics.DispatcherEventsTotal.WithLabelValues("unknown_chain").Inc()
		d.logger.Warn("skipping event for unknown chain",
			"chain_name", event.Record.ChainName,
			"address", event.Record.Address,
		)
		return
	}

	addr := model.Address{
		ID:      event.Record.ID,
		Chain:   chain,
		Address: event.Record.Address,
	}

	written, err := d.ingestor.Ingest(ctx, addr)
	switch {
	case errors.Is(err, indexer.ErrUnsupportedChain):
		metrics.DispatcherEventsTotal.WithLabelValues("unsupported_chain").Inc()
		d.logger.Warn("skipping event, no adapter registered",
			"chain", chain,
			"address", addr.Address,
		)
	case err != nil:
		metrics.DispatcherEventsTotal.WithLabelValues("ingest_failed").Inc()
		d.logger.Error("ingestion failed",
			"chain", chain,
			"address", addr.Address,
			"error", err,
		)
	default:
		metrics.DispatcherEventsTotal.WithLabelValues("ok").Inc()
		d.logger.Info("event processed",
			"operation", event.Operation,
			"chain", chain,
			"address", addr.Address,
			"written", written,
		)
	}
}
