// Package worker drains the event outbox to the configured publisher.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	outbox "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events/store/postgres"
)

// Publisher is the delivery side of the drain loop.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Outbox is the fetch/ack side of the drain loop.
type Outbox interface {
	FetchUnpublished(ctx context.Context, limit int) ([]outbox.Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Worker polls the outbox and pushes entries to the publisher in sequence
// order. Delivery is at-least-once; consumers deduplicate on event ID.
type Worker struct {
	outbox    Outbox
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func New(outbox Outbox, publisher Publisher, logger *slog.Logger) *Worker {
	return &Worker{
		outbox:    outbox,
		publisher: publisher,
		logger:    logger,
		interval:  time.Second,
		batchSize: 100,
	}
}

// Run drains until the context is cancelled. Publish failures are retried
// on the next tick; order is preserved because a failed entry blocks the
// batch.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drainOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

func (w *Worker) drainOnce(ctx context.Context) error {
	entries, err := w.outbox.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		return err
	}

	published := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		if err := w.publisher.Publish(ctx, entry.Kind, entry.Payload); err != nil {
			// Stop at the first failure so the stream stays ordered.
			if markErr := w.outbox.MarkPublished(ctx, published); markErr != nil {
				return markErr
			}
			return err
		}
		published = append(published, entry.ID)
	}
	return w.outbox.MarkPublished(ctx, published)
}
