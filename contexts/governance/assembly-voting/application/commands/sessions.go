package commands

import (
	"context"
	"log/slog"
	"time"

	application "assembleia/contexts/governance/assembly-voting/application"
	"assembleia/contexts/governance/assembly-voting/domain/entities"
	domainerrors "assembleia/contexts/governance/assembly-voting/domain/errors"
	"assembleia/contexts/governance/assembly-voting/domain/services"
	"assembleia/contexts/governance/assembly-voting/ports"
	contractsv1 "assembleia/contracts/events/v1"
)

// CreateSessionCommand opens a session immediately for DurationMinutes
// (default one minute) or schedules it for [StartAt, EndAt].
type CreateSessionCommand struct {
	AgendaID        int64
	DurationMinutes *int
	StartAt         *time.Time
	EndAt           *time.Time
}

type ExtendPeriodCommand struct {
	SessionID         int64
	EndAt             *time.Time
	AdditionalMinutes *int
}

type SessionUseCase struct {
	Sessions   ports.SessionRepository
	Agendas    ports.AgendaRepository
	Reconciler application.SessionReconciler
	Events     application.EventSink
	Metrics    ports.MetricsRecorder
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (uc SessionUseCase) CreateSession(ctx context.Context, cmd CreateSessionCommand) (application.SessionView, error) {
	logger := application.ResolveLogger(uc.Logger)
	if cmd.AgendaID <= 0 {
		return application.SessionView{}, domainerrors.ErrInvalidSessionInput
	}
	agenda, err := uc.Agendas.GetAgenda(ctx, cmd.AgendaID)
	if err != nil {
		return application.SessionView{}, err
	}
	exists, err := uc.Sessions.ExistsSessionByAgenda(ctx, cmd.AgendaID)
	if err != nil {
		return application.SessionView{}, err
	}
	if exists {
		return application.SessionView{}, domainerrors.ErrSessionExists
	}

	now := application.Now(uc.Clock)
	schedule := services.Schedule{
		DurationMinutes: cmd.DurationMinutes,
		StartAt:         cmd.StartAt,
		EndAt:           cmd.EndAt,
	}
	opensAt, closesAt, err := services.PlanWindow(schedule, now)
	if err != nil {
		logger.Warn("session schedule rejected",
			"event", "assembly_session_schedule_rejected",
			"module", application.ModuleName,
			"layer", "application",
			"agenda_id", cmd.AgendaID,
			"error", err.Error(),
		)
		return application.SessionView{}, err
	}

	session := entities.VotingSession{
		AgendaID:  agenda.AgendaID,
		OpensAt:   opensAt,
		ClosesAt:  closesAt,
		Status:    entities.SessionStatusClosedPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	var agendaUpdate *entities.AgendaItem
	if !schedule.IsExplicit() {
		session.Status = entities.SessionStatusOpen
		agenda.Status = entities.AgendaStatusVoting
		agenda.UpdatedAt = now
		agendaUpdate = &agenda
	}

	created, err := uc.Sessions.CreateSession(ctx, session, agendaUpdate)
	if err != nil {
		return application.SessionView{}, err
	}
	logger.Info("voting session created",
		"event", "assembly_session_created",
		"module", application.ModuleName,
		"layer", "application",
		"session_id", created.SessionID,
		"agenda_id", created.AgendaID,
		"status", string(created.Status),
		"opens_at", created.OpensAt.Format(time.RFC3339),
		"closes_at", created.ClosesAt.Format(time.RFC3339),
	)

	if created.Status == entities.SessionStatusOpen {
		if uc.Metrics != nil {
			uc.Metrics.SessionOpened()
		}
		if err := uc.Events.Append(ctx, contractsv1.EventSessionOpened, created.AgendaID, now, map[string]any{
			"session_id": created.SessionID,
			"agenda_id":  created.AgendaID,
			"opens_at":   created.OpensAt.Format(time.RFC3339),
			"closes_at":  created.ClosesAt.Format(time.RFC3339),
		}); err != nil {
			return application.SessionView{}, err
		}
	}
	return application.NewSessionView(created, agenda, now), nil
}

// ExtendPeriod moves the closing instant forward. Finalized sessions are
// immutable.
func (uc SessionUseCase) ExtendPeriod(ctx context.Context, cmd ExtendPeriodCommand) (application.SessionView, error) {
	logger := application.ResolveLogger(uc.Logger)
	session, err := uc.Sessions.GetSession(ctx, cmd.SessionID)
	if err != nil {
		return application.SessionView{}, err
	}
	now := application.Now(uc.Clock)
	session, agenda, err := uc.Reconciler.ReconcileSession(ctx, session, now)
	if err != nil {
		return application.SessionView{}, err
	}
	if session.Status == entities.SessionStatusFinalized {
		return application.SessionView{}, domainerrors.ErrSessionFinalized
	}

	closesAt, changed, err := services.ExtendWindow(session, services.Extension{
		EndAt:             cmd.EndAt,
		AdditionalMinutes: cmd.AdditionalMinutes,
	}, now)
	if err != nil {
		return application.SessionView{}, err
	}
	if changed {
		previous := session.ClosesAt
		session.ClosesAt = closesAt
		session.UpdatedAt = now
		if err := uc.Sessions.UpdateSessionWindow(ctx, session); err != nil {
			return application.SessionView{}, err
		}
		logger.Info("voting session period extended",
			"event", "assembly_session_extended",
			"module", application.ModuleName,
			"layer", "application",
			"session_id", session.SessionID,
			"previous_closes_at", previous.Format(time.RFC3339),
			"closes_at", session.ClosesAt.Format(time.RFC3339),
		)
	}
	return application.NewSessionView(session, agenda, now), nil
}
