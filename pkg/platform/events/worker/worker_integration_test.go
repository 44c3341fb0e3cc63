//go:build integration

package worker

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events"
	outbox "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events/store/postgres"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events/publisher"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/testutil/containers"
)

// The full pipeline: events land in the outbox, the worker drains them to
// Kafka, and consumers see them in append order.
func TestOutboxDrainPipeline(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	pg.Apply(t, outbox.Schema)
	rp := containers.NewRedpandaContainer(t)

	ctx := context.Background()
	const topic = "ledger.events.pipeline"

	store := outbox.New(pg.DB)
	pub, err := publisher.NewKafka(ctx, rp.Brokers, topic)
	require.NoError(t, err)
	defer pub.Close()

	from := domain.MustParseAddress("0x0000000000000000000000000000000000000001")
	kinds := []events.Kind{events.KindIssued, events.KindTransfer, events.KindRedeemed}
	for _, kind := range kinds {
		require.NoError(t, store.Append(ctx, events.Event{
			ID:     uuid.New(),
			Kind:   kind,
			From:   from,
			Amount: domain.MustParseAmount("42"),
		}))
	}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- New(store, pub, logger).Run(runCtx)
	}()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	deadline, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var records []*kgo.Record
	for len(records) < len(kinds) {
		fetches := consumer.PollFetches(deadline)
		require.NoError(t, fetches.Err())
		records = append(records, fetches.Records()...)
	}
	for i, kind := range kinds {
		require.Equal(t, string(kind), string(records[i].Key))
	}

	// The worker acknowledges after the batch; wait for the outbox to empty.
	require.Eventually(t, func() bool {
		remaining, err := store.FetchUnpublished(ctx, 10)
		return err == nil && len(remaining) == 0
	}, 10*time.Second, 100*time.Millisecond)

	stop()
	<-done
}
