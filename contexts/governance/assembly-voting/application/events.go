package application

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"assembleia/contexts/governance/assembly-voting/ports"
)

const sourceService = "assembly-voting"

// EventSink appends domain events to the outbox. A nil Outbox makes it a
// no-op so read-only and test wiring can omit it.
type EventSink struct {
	Outbox ports.OutboxWriter
	IDGen  ports.IDGenerator
}

// Append writes one event partitioned by agenda item so consumers observe
// per-agenda ordering.
func (s EventSink) Append(
	ctx context.Context,
	eventType string,
	agendaID int64,
	occurredAt time.Time,
	data map[string]any,
) error {
	if s.Outbox == nil || s.IDGen == nil {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "agenda_id",
		PartitionKey:     strconv.FormatInt(agendaID, 10),
		Data:             payload,
	})
}
