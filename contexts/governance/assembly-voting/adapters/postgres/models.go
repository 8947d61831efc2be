package postgresadapter

import (
	"time"

	"assembleia/contexts/governance/assembly-voting/domain/entities"
)

type memberModel struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name       string    `gorm:"column:name;not null"`
	NationalID string    `gorm:"column:national_id;size:11;not null;uniqueIndex:uq_members_national_id"`
	Email      string    `gorm:"column:email;not null;uniqueIndex:uq_members_email"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (memberModel) TableName() string {
	return "members"
}

func (m memberModel) toEntity() entities.Member {
	return entities.Member{
		MemberID:   m.ID,
		Name:       m.Name,
		NationalID: m.NationalID,
		Email:      m.Email,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

func memberModelFromEntity(member entities.Member) memberModel {
	return memberModel{
		ID:         member.MemberID,
		Name:       member.Name,
		NationalID: member.NationalID,
		Email:      member.Email,
		CreatedAt:  member.CreatedAt.UTC(),
		UpdatedAt:  member.UpdatedAt.UTC(),
	}
}

type agendaModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description"`
	CreatorID   int64     `gorm:"column:creator_id;not null;index:idx_agenda_items_creator"`
	Status      string    `gorm:"column:status;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (agendaModel) TableName() string {
	return "agenda_items"
}

func (m agendaModel) toEntity() entities.AgendaItem {
	return entities.AgendaItem{
		AgendaID:    m.ID,
		Title:       m.Title,
		Description: m.Description,
		CreatorID:   m.CreatorID,
		Status:      entities.AgendaStatus(m.Status),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func agendaModelFromEntity(agenda entities.AgendaItem) agendaModel {
	return agendaModel{
		ID:          agenda.AgendaID,
		Title:       agenda.Title,
		Description: agenda.Description,
		CreatorID:   agenda.CreatorID,
		Status:      string(agenda.Status),
		CreatedAt:   agenda.CreatedAt.UTC(),
		UpdatedAt:   agenda.UpdatedAt.UTC(),
	}
}

type sessionModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	AgendaID  int64     `gorm:"column:agenda_id;not null;uniqueIndex:uq_voting_sessions_agenda"`
	OpensAt   time.Time `gorm:"column:opens_at;not null"`
	ClosesAt  time.Time `gorm:"column:closes_at;not null;index:idx_voting_sessions_closes_at"`
	Status    string    `gorm:"column:status;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (sessionModel) TableName() string {
	return "voting_sessions"
}

func (m sessionModel) toEntity() entities.VotingSession {
	return entities.VotingSession{
		SessionID: m.ID,
		AgendaID:  m.AgendaID,
		OpensAt:   m.OpensAt.UTC(),
		ClosesAt:  m.ClosesAt.UTC(),
		Status:    entities.SessionStatus(m.Status),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func sessionModelFromEntity(session entities.VotingSession) sessionModel {
	return sessionModel{
		ID:        session.SessionID,
		AgendaID:  session.AgendaID,
		OpensAt:   session.OpensAt.UTC(),
		ClosesAt:  session.ClosesAt.UTC(),
		Status:    string(session.Status),
		CreatedAt: session.CreatedAt.UTC(),
		UpdatedAt: session.UpdatedAt.UTC(),
	}
}

type voteModel struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	MemberID   int64     `gorm:"column:member_id;not null;uniqueIndex:uq_votes_member_agenda,priority:1"`
	AgendaID   int64     `gorm:"column:agenda_id;not null;uniqueIndex:uq_votes_member_agenda,priority:2;index:idx_votes_agenda_choice,priority:1"`
	Choice     string    `gorm:"column:choice;not null;index:idx_votes_agenda_choice,priority:2"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:     m.ID,
		MemberID:   m.MemberID,
		AgendaID:   m.AgendaID,
		Choice:     entities.VoteChoice(m.Choice),
		RecordedAt: m.RecordedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index:idx_assembly_outbox_status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "assembly_outbox"
}

func toEntities[M any, E any](rows []M, convert func(M) E) []E {
	items := make([]E, 0, len(rows))
	for _, row := range rows {
		items = append(items, convert(row))
	}
	return items
}
