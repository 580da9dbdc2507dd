package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"nexus/contexts/finance-core/treasury-ledger/ports"
)

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event ports.EventEnvelope) error
}

// OutboxRelay publishes persisted treasury outbox records to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox rows, marking each row
// published only after broker publish succeeds. It stops on the first failure
// so the retry loop can reprocess remaining rows safely.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("treasury outbox list failed",
			"event", "treasury_outbox_list_failed",
			"module", "finance-core/treasury-ledger",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("treasury outbox decode failed",
				"event", "treasury_outbox_decode_failed",
				"module", "finance-core/treasury-ledger",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("treasury outbox publish failed",
				"event", "treasury_outbox_publish_failed",
				"module", "finance-core/treasury-ledger",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("treasury outbox mark published failed",
				"event", "treasury_outbox_mark_published_failed",
				"module", "finance-core/treasury-ledger",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("treasury outbox relay published batch",
		"event", "treasury_outbox_relay_published",
		"module", "finance-core/treasury-ledger",
		"layer", "worker",
		"published", len(pending),
	)
	return nil
}
