package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "assembleia/contexts/governance/assembly-voting/application"
	"assembleia/contexts/governance/assembly-voting/ports"
)

// OutboxRelay forwards assembly events recorded by the use cases to the bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce drains up to BatchSize rows in append order. A row is marked only
// after the bus accepted it, and the first failure ends the cycle so later
// rows of the same agenda item are never delivered ahead of it.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	batch := r.BatchSize
	if batch <= 0 {
		batch = 100
	}

	rows, err := r.Outbox.ListPendingOutbox(ctx, batch)
	if err != nil {
		logger.Error("assembly outbox read failed",
			"event", "assembly_outbox_read_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := application.Now(r.Clock)
	relayed := 0
	for _, row := range rows {
		stage, err := r.forward(ctx, row, now)
		if err != nil {
			logger.Error("assembly outbox row not relayed",
				"event", "assembly_outbox_relay_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"stage", stage,
				"outbox_id", row.OutboxID,
				"row_event_type", row.EventType,
				"relayed_before_failure", relayed,
				"error", err.Error(),
			)
			return err
		}
		relayed++
	}

	if relayed > 0 {
		logger.Info("assembly outbox batch relayed",
			"event", "assembly_outbox_relayed",
			"module", application.ModuleName,
			"layer", "worker",
			"relayed", relayed,
		)
	}
	return nil
}

// forward publishes one row and reports which step failed, if any.
func (r OutboxRelay) forward(ctx context.Context, row ports.OutboxMessage, now time.Time) (string, error) {
	var envelope ports.EventEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		return "decode", err
	}
	topic := envelope.EventType
	if topic == "" {
		topic = row.EventType
	}
	if err := r.Publisher.Publish(ctx, topic, envelope); err != nil {
		return "publish", err
	}
	if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
		return "mark", err
	}
	return "", nil
}
