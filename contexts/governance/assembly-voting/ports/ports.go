package ports

import (
	"context"
	"time"

	"assembleia/contexts/governance/assembly-voting/domain/entities"
	contractsv1 "assembleia/contracts/events/v1"
)

type MemberRepository interface {
	CreateMember(ctx context.Context, member entities.Member) (entities.Member, error)
	GetMember(ctx context.Context, memberID int64) (entities.Member, error)
	FindMemberByNationalID(ctx context.Context, nationalID string) (entities.Member, bool, error)
	FindMemberByEmail(ctx context.Context, email string) (entities.Member, bool, error)
	UpdateMember(ctx context.Context, member entities.Member) error
	DeleteMember(ctx context.Context, memberID int64) error
	ListMembers(ctx context.Context, page entities.PageRequest) (entities.Page[entities.Member], error)
	// MemberHasReferences reports whether the member authored agenda items or
	// cast votes.
	MemberHasReferences(ctx context.Context, memberID int64) (bool, error)
}

type AgendaRepository interface {
	CreateAgenda(ctx context.Context, agenda entities.AgendaItem) (entities.AgendaItem, error)
	GetAgenda(ctx context.Context, agendaID int64) (entities.AgendaItem, error)
	UpdateAgenda(ctx context.Context, agenda entities.AgendaItem) error
	// DeleteAgendaCascade removes the agenda item with its session and votes
	// in one transaction.
	DeleteAgendaCascade(ctx context.Context, agendaID int64) error
	ListAgendas(ctx context.Context, page entities.PageRequest) (entities.Page[entities.AgendaItem], error)
}

type VoteRepository interface {
	// CreateVote persists a new vote. A second vote for the same
	// (member, agenda) pair fails with domain ErrAlreadyVoted.
	CreateVote(ctx context.Context, vote entities.Vote) (entities.Vote, error)
	GetVote(ctx context.Context, voteID int64) (entities.Vote, error)
	UpdateVoteChoice(ctx context.Context, voteID int64, choice entities.VoteChoice, updatedAt time.Time) error
	ExistsVote(ctx context.Context, memberID int64, agendaID int64) (bool, error)
	CountVotesByChoice(ctx context.Context, agendaID int64, choice entities.VoteChoice) (int64, error)
}

type SessionRepository interface {
	// CreateSession persists a new session. When agenda is non-nil its status
	// is written in the same transaction. A second session for the same
	// agenda fails with domain ErrSessionExists.
	CreateSession(ctx context.Context, session entities.VotingSession, agenda *entities.AgendaItem) (entities.VotingSession, error)
	GetSession(ctx context.Context, sessionID int64) (entities.VotingSession, error)
	FindSessionByAgenda(ctx context.Context, agendaID int64) (entities.VotingSession, bool, error)
	ExistsSessionByAgenda(ctx context.Context, agendaID int64) (bool, error)
	// SaveSessionState writes the session and its agenda item atomically.
	SaveSessionState(ctx context.Context, session entities.VotingSession, agenda entities.AgendaItem) error
	UpdateSessionWindow(ctx context.Context, session entities.VotingSession) error
	ListSessions(ctx context.Context, page entities.PageRequest) (entities.Page[entities.VotingSession], error)
	// ListLaggingSessions returns non-finalized sessions whose stored status
	// no longer matches now.
	ListLaggingSessions(ctx context.Context, now time.Time, limit int) ([]entities.VotingSession, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// MetricsRecorder receives domain counters. A nil recorder disables them.
type MetricsRecorder interface {
	VoteRecorded(choice entities.VoteChoice)
	VoteChanged(choice entities.VoteChoice)
	SessionOpened()
	SessionFinalized(outcome entities.AgendaStatus)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
