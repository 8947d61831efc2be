package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"assembleia/contexts/governance/assembly-voting/domain/entities"
	domainerrors "assembleia/contexts/governance/assembly-voting/domain/errors"
	"assembleia/contexts/governance/assembly-voting/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

var terminalAgendaStatuses = []string{
	string(entities.AgendaStatusApproved),
	string(entities.AgendaStatusRejected),
	string(entities.AgendaStatusTied),
}

// Repository implements the assembly ports on gorm. It runs against
// Postgres in production and SQLite locally; both enforce the unique indexes
// declared on the models.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AutoMigrate creates or updates the tables and indexes owned by this
// context.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&memberModel{},
		&agendaModel{},
		&sessionModel{},
		&voteModel{},
		&outboxModel{},
	); err != nil {
		return fmt.Errorf("migrate assembly tables: %w", err)
	}
	return nil
}

func (r *Repository) CreateMember(ctx context.Context, member entities.Member) (entities.Member, error) {
	row := memberModelFromEntity(member)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			if violatesConstraint(err, "email") {
				return entities.Member{}, domainerrors.ErrEmailTaken
			}
			return entities.Member{}, domainerrors.ErrNationalIDTaken
		}
		return entities.Member{}, r.logError("assembly_repo_create_member_failed", err,
			"national_id_suffix", suffix(member.NationalID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetMember(ctx context.Context, memberID int64) (entities.Member, error) {
	var row memberModel
	err := r.db.WithContext(ctx).
		Where("id = ?", memberID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Member{}, domainerrors.ErrMemberNotFound
		}
		return entities.Member{}, r.logError("assembly_repo_get_member_failed", err, "member_id", memberID)
	}
	return row.toEntity(), nil
}

func (r *Repository) FindMemberByNationalID(ctx context.Context, nationalID string) (entities.Member, bool, error) {
	return r.findMember(ctx, "national_id = ?", strings.TrimSpace(nationalID))
}

func (r *Repository) FindMemberByEmail(ctx context.Context, email string) (entities.Member, bool, error) {
	return r.findMember(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *Repository) findMember(ctx context.Context, condition string, value string) (entities.Member, bool, error) {
	var row memberModel
	err := r.db.WithContext(ctx).
		Where(condition, value).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Member{}, false, nil
		}
		return entities.Member{}, false, r.logError("assembly_repo_find_member_failed", err, "condition", condition)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpdateMember(ctx context.Context, member entities.Member) error {
	result := r.db.WithContext(ctx).
		Model(&memberModel{}).
		Where("id = ?", member.MemberID).
		Updates(map[string]any{
			"name":        member.Name,
			"national_id": member.NationalID,
			"email":       member.Email,
			"updated_at":  member.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			if violatesConstraint(result.Error, "email") {
				return domainerrors.ErrEmailTaken
			}
			return domainerrors.ErrNationalIDTaken
		}
		return r.logError("assembly_repo_update_member_failed", result.Error, "member_id", member.MemberID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrMemberNotFound
	}
	return nil
}

func (r *Repository) DeleteMember(ctx context.Context, memberID int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", memberID).
		Delete(&memberModel{})
	if result.Error != nil {
		return r.logError("assembly_repo_delete_member_failed", result.Error, "member_id", memberID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrMemberNotFound
	}
	return nil
}

func (r *Repository) ListMembers(ctx context.Context, page entities.PageRequest) (entities.Page[entities.Member], error) {
	var rows []memberModel
	total, err := r.listPage(ctx, &memberModel{}, page, &rows)
	if err != nil {
		return entities.Page[entities.Member]{}, r.logError("assembly_repo_list_members_failed", err)
	}
	return entities.Page[entities.Member]{
		Items:      toEntities(rows, memberModel.toEntity),
		Page:       page.Page,
		Size:       page.Size,
		TotalItems: total,
	}, nil
}

func (r *Repository) MemberHasReferences(ctx context.Context, memberID int64) (bool, error) {
	var agendas int64
	if err := r.db.WithContext(ctx).
		Model(&agendaModel{}).
		Where("creator_id = ?", memberID).
		Count(&agendas).Error; err != nil {
		return false, r.logError("assembly_repo_member_agenda_refs_failed", err, "member_id", memberID)
	}
	if agendas > 0 {
		return true, nil
	}
	var votes int64
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("member_id = ?", memberID).
		Count(&votes).Error; err != nil {
		return false, r.logError("assembly_repo_member_vote_refs_failed", err, "member_id", memberID)
	}
	return votes > 0, nil
}

func (r *Repository) CreateAgenda(ctx context.Context, agenda entities.AgendaItem) (entities.AgendaItem, error) {
	row := agendaModelFromEntity(agenda)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return entities.AgendaItem{}, r.logError("assembly_repo_create_agenda_failed", err,
			"creator_id", agenda.CreatorID,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetAgenda(ctx context.Context, agendaID int64) (entities.AgendaItem, error) {
	var row agendaModel
	err := r.db.WithContext(ctx).
		Where("id = ?", agendaID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AgendaItem{}, domainerrors.ErrAgendaNotFound
		}
		return entities.AgendaItem{}, r.logError("assembly_repo_get_agenda_failed", err, "agenda_id", agendaID)
	}
	return row.toEntity(), nil
}

// UpdateAgenda rewrites title and description. The status guard keeps an
// edit from racing a session that just opened.
func (r *Repository) UpdateAgenda(ctx context.Context, agenda entities.AgendaItem) error {
	result := r.db.WithContext(ctx).
		Model(&agendaModel{}).
		Where("id = ?", agenda.AgendaID).
		Where("status = ?", string(entities.AgendaStatusCreated)).
		Updates(map[string]any{
			"title":       agenda.Title,
			"description": agenda.Description,
			"updated_at":  agenda.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("assembly_repo_update_agenda_failed", result.Error, "agenda_id", agenda.AgendaID)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetAgenda(ctx, agenda.AgendaID); err != nil {
			return err
		}
		return domainerrors.ErrAgendaNotEditable
	}
	return nil
}

func (r *Repository) DeleteAgendaCascade(ctx context.Context, agendaID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row agendaModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", agendaID).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrAgendaNotFound
			}
			return r.logError("assembly_repo_delete_agenda_lock_failed", err, "agenda_id", agendaID)
		}
		if row.Status == string(entities.AgendaStatusVoting) {
			return domainerrors.ErrAgendaVotingUnderway
		}
		if err := tx.Where("agenda_id = ?", agendaID).Delete(&voteModel{}).Error; err != nil {
			return r.logError("assembly_repo_delete_agenda_votes_failed", err, "agenda_id", agendaID)
		}
		if err := tx.Where("agenda_id = ?", agendaID).Delete(&sessionModel{}).Error; err != nil {
			return r.logError("assembly_repo_delete_agenda_session_failed", err, "agenda_id", agendaID)
		}
		if err := tx.Where("id = ?", agendaID).Delete(&agendaModel{}).Error; err != nil {
			return r.logError("assembly_repo_delete_agenda_failed", err, "agenda_id", agendaID)
		}
		return nil
	})
}

func (r *Repository) ListAgendas(ctx context.Context, page entities.PageRequest) (entities.Page[entities.AgendaItem], error) {
	var rows []agendaModel
	total, err := r.listPage(ctx, &agendaModel{}, page, &rows)
	if err != nil {
		return entities.Page[entities.AgendaItem]{}, r.logError("assembly_repo_list_agendas_failed", err)
	}
	return entities.Page[entities.AgendaItem]{
		Items:      toEntities(rows, agendaModel.toEntity),
		Page:       page.Page,
		Size:       page.Size,
		TotalItems: total,
	}, nil
}

func (r *Repository) CreateVote(ctx context.Context, vote entities.Vote) (entities.Vote, error) {
	row := voteModel{
		MemberID:   vote.MemberID,
		AgendaID:   vote.AgendaID,
		Choice:     string(vote.Choice),
		RecordedAt: vote.RecordedAt.UTC(),
		UpdatedAt:  vote.UpdatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return entities.Vote{}, domainerrors.ErrAlreadyVoted
		}
		return entities.Vote{}, r.logError("assembly_repo_create_vote_failed", err,
			"member_id", vote.MemberID,
			"agenda_id", vote.AgendaID,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetVote(ctx context.Context, voteID int64) (entities.Vote, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("id = ?", voteID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, domainerrors.ErrVoteNotFound
		}
		return entities.Vote{}, r.logError("assembly_repo_get_vote_failed", err, "vote_id", voteID)
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateVoteChoice(ctx context.Context, voteID int64, choice entities.VoteChoice, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("id = ?", voteID).
		Updates(map[string]any{
			"choice":     string(choice),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("assembly_repo_update_vote_failed", result.Error, "vote_id", voteID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVoteNotFound
	}
	return nil
}

func (r *Repository) ExistsVote(ctx context.Context, memberID int64, agendaID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("member_id = ? AND agenda_id = ?", memberID, agendaID).
		Count(&count).Error; err != nil {
		return false, r.logError("assembly_repo_exists_vote_failed", err,
			"member_id", memberID,
			"agenda_id", agendaID,
		)
	}
	return count > 0, nil
}

func (r *Repository) CountVotesByChoice(ctx context.Context, agendaID int64, choice entities.VoteChoice) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("agenda_id = ? AND choice = ?", agendaID, string(choice)).
		Count(&count).Error; err != nil {
		return 0, r.logError("assembly_repo_count_votes_failed", err,
			"agenda_id", agendaID,
			"choice", string(choice),
		)
	}
	return count, nil
}

func (r *Repository) CreateSession(
	ctx context.Context,
	session entities.VotingSession,
	agenda *entities.AgendaItem,
) (entities.VotingSession, error) {
	row := sessionModelFromEntity(session)
	row.ID = 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrSessionExists
			}
			return r.logError("assembly_repo_create_session_failed", err, "agenda_id", session.AgendaID)
		}
		if agenda == nil {
			return nil
		}
		if err := tx.Model(&agendaModel{}).
			Where("id = ?", agenda.AgendaID).
			Updates(map[string]any{
				"status":     string(agenda.Status),
				"updated_at": agenda.UpdatedAt.UTC(),
			}).Error; err != nil {
			return r.logError("assembly_repo_create_session_agenda_update_failed", err, "agenda_id", agenda.AgendaID)
		}
		return nil
	})
	if err != nil {
		return entities.VotingSession{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetSession(ctx context.Context, sessionID int64) (entities.VotingSession, error) {
	var row sessionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", sessionID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VotingSession{}, domainerrors.ErrSessionNotFound
		}
		return entities.VotingSession{}, r.logError("assembly_repo_get_session_failed", err, "session_id", sessionID)
	}
	return row.toEntity(), nil
}

func (r *Repository) FindSessionByAgenda(ctx context.Context, agendaID int64) (entities.VotingSession, bool, error) {
	var row sessionModel
	err := r.db.WithContext(ctx).
		Where("agenda_id = ?", agendaID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VotingSession{}, false, nil
		}
		return entities.VotingSession{}, false, r.logError("assembly_repo_find_session_failed", err, "agenda_id", agendaID)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ExistsSessionByAgenda(ctx context.Context, agendaID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("agenda_id = ?", agendaID).
		Count(&count).Error; err != nil {
		return false, r.logError("assembly_repo_exists_session_failed", err,
			"agenda_id", agendaID,
		)
	}
	return count > 0, nil
}

// SaveSessionState writes both statuses in one transaction. Finalized
// sessions and terminal agenda outcomes are never overwritten, so a slower
// concurrent reconciliation cannot move either backwards.
func (r *Repository) SaveSessionState(ctx context.Context, session entities.VotingSession, agenda entities.AgendaItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current sessionModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", session.SessionID).
			First(&current).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrSessionNotFound
			}
			return r.logError("assembly_repo_lock_session_failed", err, "session_id", session.SessionID)
		}

		if current.Status != string(entities.SessionStatusFinalized) {
			if err := tx.Model(&sessionModel{}).
				Where("id = ?", session.SessionID).
				Updates(map[string]any{
					"status":     string(session.Status),
					"updated_at": session.UpdatedAt.UTC(),
				}).Error; err != nil {
				return r.logError("assembly_repo_save_session_status_failed", err, "session_id", session.SessionID)
			}
		}

		if err := tx.Model(&agendaModel{}).
			Where("id = ?", agenda.AgendaID).
			Where("status NOT IN ?", terminalAgendaStatuses).
			Updates(map[string]any{
				"status":     string(agenda.Status),
				"updated_at": agenda.UpdatedAt.UTC(),
			}).Error; err != nil {
			return r.logError("assembly_repo_save_agenda_status_failed", err, "agenda_id", agenda.AgendaID)
		}
		return nil
	})
}

func (r *Repository) UpdateSessionWindow(ctx context.Context, session entities.VotingSession) error {
	result := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("id = ?", session.SessionID).
		Where("status <> ?", string(entities.SessionStatusFinalized)).
		Updates(map[string]any{
			"closes_at":  session.ClosesAt.UTC(),
			"updated_at": session.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("assembly_repo_update_session_window_failed", result.Error, "session_id", session.SessionID)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetSession(ctx, session.SessionID); err != nil {
			return err
		}
		return domainerrors.ErrSessionFinalized
	}
	return nil
}

func (r *Repository) ListSessions(ctx context.Context, page entities.PageRequest) (entities.Page[entities.VotingSession], error) {
	var rows []sessionModel
	total, err := r.listPage(ctx, &sessionModel{}, page, &rows)
	if err != nil {
		return entities.Page[entities.VotingSession]{}, r.logError("assembly_repo_list_sessions_failed", err)
	}
	return entities.Page[entities.VotingSession]{
		Items:      toEntities(rows, sessionModel.toEntity),
		Page:       page.Page,
		Size:       page.Size,
		TotalItems: total,
	}, nil
}

func (r *Repository) ListLaggingSessions(ctx context.Context, now time.Time, limit int) ([]entities.VotingSession, error) {
	if limit <= 0 {
		limit = 100
	}
	now = now.UTC()
	var rows []sessionModel
	err := r.db.WithContext(ctx).
		Where("status <> ?", string(entities.SessionStatusFinalized)).
		Where(
			r.db.Where("closes_at < ?", now).
				Or("status = ? AND opens_at <= ?", string(entities.SessionStatusClosedPending), now),
		).
		Order("closes_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("assembly_repo_list_lagging_sessions_failed", err)
	}
	return toEntities(rows, sessionModel.toEntity), nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			var existing outboxModel
			if lookupErr := r.db.WithContext(ctx).Where("outbox_id = ?", row.OutboxID).First(&existing).Error; lookupErr == nil &&
				bytes.Equal(existing.Payload, payload) {
				return nil
			}
			return domainerrors.ErrConflict
		}
		return r.logError("assembly_repo_append_outbox_failed", err,
			"outbox_id", row.OutboxID,
			"event_type", row.EventType,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Order("outbox_id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("assembly_repo_list_pending_outbox_failed", err)
	}
	return toEntities(rows, func(row outboxModel) ports.OutboxMessage {
		return ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt.UTC(),
		}
	}), nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	published := publishedAt.UTC()
	if err := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &published,
		}).Error; err != nil {
		return r.logError("assembly_repo_mark_outbox_published_failed", err, "outbox_id", outboxID)
	}
	return nil
}

// Ping reports whether the database answers. Used by readiness probes.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// listPage counts and fetches one page of model. page.SortField is always a
// whitelisted column name.
func (r *Repository) listPage(ctx context.Context, model any, page entities.PageRequest, dest any) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(model).Count(&total).Error; err != nil {
		return 0, err
	}
	desc := page.Direction == entities.SortDescending
	err := r.db.WithContext(ctx).
		Model(model).
		Order(clause.OrderByColumn{Column: clause.Column{Name: page.SortField}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc}).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(dest).
		Error
	return total, err
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/assembly-voting",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("assembly repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func violatesConstraint(err error, column string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.Contains(pgErr.ConstraintName, column)
	}
	return strings.Contains(err.Error(), "."+column)
}

func suffix(value string) string {
	if len(value) <= 3 {
		return value
	}
	return value[len(value)-3:]
}

var (
	_ ports.MemberRepository  = (*Repository)(nil)
	_ ports.AgendaRepository  = (*Repository)(nil)
	_ ports.VoteRepository    = (*Repository)(nil)
	_ ports.SessionRepository = (*Repository)(nil)
	_ ports.OutboxWriter      = (*Repository)(nil)
	_ ports.OutboxRepository  = (*Repository)(nil)
)
