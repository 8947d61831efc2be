package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the versioned event envelope written to the outbox and
// published on the event bus. Fields are append-only.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

const (
	EventSessionOpened    = "assembly.session.opened"
	EventSessionFinalized = "assembly.session.finalized"
	EventVoteRecorded     = "assembly.vote.recorded"
	EventVoteChanged      = "assembly.vote.changed"
)
