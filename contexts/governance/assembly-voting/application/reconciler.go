package application

import (
	"context"
	"log/slog"
	"time"

	"assembleia/contexts/governance/assembly-voting/domain/entities"
	"assembleia/contexts/governance/assembly-voting/domain/services"
	"assembleia/contexts/governance/assembly-voting/ports"
	contractsv1 "assembleia/contracts/events/v1"
)

// SessionReconciler brings a session and its agenda item to the state
// required at a given instant. Every read and write path that observes a
// session goes through it, and so does the background closer.
type SessionReconciler struct {
	Sessions ports.SessionRepository
	Agendas  ports.AgendaRepository
	Votes    ports.VoteRepository
	Events   EventSink
	Metrics  ports.MetricsRecorder
	Logger   *slog.Logger
}

// Reconcile evaluates the state machine and persists session and agenda
// together when either status changed. Nothing is written otherwise.
func (r SessionReconciler) Reconcile(
	ctx context.Context,
	session entities.VotingSession,
	agenda entities.AgendaItem,
	now time.Time,
) (entities.VotingSession, entities.AgendaItem, error) {
	if agenda.Status.IsTerminal() {
		// A terminal outcome is only stored together with FINALIZADA, so a
		// session that still reads otherwise is a stale snapshot.
		session.Status = entities.SessionStatusFinalized
		return session, agenda, nil
	}

	state := services.EvaluateSession(session, agenda.Status, now)
	if state.NeedsOutcome {
		tally, err := LoadTally(ctx, r.Votes, agenda.AgendaID)
		if err != nil {
			return session, agenda, err
		}
		state = state.ApplyOutcome(tally)
	}
	if state.Session == session.Status && state.Agenda == agenda.Status {
		return session, agenda, nil
	}

	logger := ResolveLogger(r.Logger)
	previousSession := session.Status
	previousAgenda := agenda.Status

	session.Status = state.Session
	session.UpdatedAt = now
	agenda.Status = state.Agenda
	agenda.UpdatedAt = now
	if err := r.Sessions.SaveSessionState(ctx, session, agenda); err != nil {
		logger.Error("session state save failed",
			"event", "assembly_session_state_save_failed",
			"module", ModuleName,
			"layer", "application",
			"session_id", session.SessionID,
			"agenda_id", agenda.AgendaID,
			"error", err.Error(),
		)
		return session, agenda, err
	}

	logger.Info("session state transitioned",
		"event", "assembly_session_transitioned",
		"module", ModuleName,
		"layer", "application",
		"session_id", session.SessionID,
		"agenda_id", agenda.AgendaID,
		"from_session_status", string(previousSession),
		"to_session_status", string(session.Status),
		"from_agenda_status", string(previousAgenda),
		"to_agenda_status", string(agenda.Status),
	)

	if session.Status == entities.SessionStatusOpen && previousSession != entities.SessionStatusOpen {
		if r.Metrics != nil {
			r.Metrics.SessionOpened()
		}
		if err := r.Events.Append(ctx, contractsv1.EventSessionOpened, agenda.AgendaID, now, map[string]any{
			"session_id": session.SessionID,
			"agenda_id":  agenda.AgendaID,
			"opens_at":   session.OpensAt.Format(time.RFC3339),
			"closes_at":  session.ClosesAt.Format(time.RFC3339),
		}); err != nil {
			return session, agenda, err
		}
	}

	if agenda.Status.IsTerminal() && !previousAgenda.IsTerminal() {
		tally, err := LoadTally(ctx, r.Votes, agenda.AgendaID)
		if err != nil {
			return session, agenda, err
		}
		if r.Metrics != nil {
			r.Metrics.SessionFinalized(agenda.Status)
		}
		if err := r.Events.Append(ctx, contractsv1.EventSessionFinalized, agenda.AgendaID, now, map[string]any{
			"session_id": session.SessionID,
			"agenda_id":  agenda.AgendaID,
			"outcome":    string(agenda.Status),
			"yes_votes":  tally.Yes,
			"no_votes":   tally.No,
			"total":      tally.Total(),
			"closes_at":  session.ClosesAt.Format(time.RFC3339),
		}); err != nil {
			return session, agenda, err
		}
	}
	return session, agenda, nil
}

// ReconcileSession loads the session's agenda item and reconciles both.
func (r SessionReconciler) ReconcileSession(
	ctx context.Context,
	session entities.VotingSession,
	now time.Time,
) (entities.VotingSession, entities.AgendaItem, error) {
	agenda, err := r.Agendas.GetAgenda(ctx, session.AgendaID)
	if err != nil {
		return session, entities.AgendaItem{}, err
	}
	return r.Reconcile(ctx, session, agenda, now)
}

// ReconcileAgenda derives the agenda status from its session, if any.
func (r SessionReconciler) ReconcileAgenda(
	ctx context.Context,
	agenda entities.AgendaItem,
	now time.Time,
) (entities.AgendaItem, error) {
	session, found, err := r.Sessions.FindSessionByAgenda(ctx, agenda.AgendaID)
	if err != nil {
		return agenda, err
	}
	if !found {
		return agenda, nil
	}
	_, agenda, err = r.Reconcile(ctx, session, agenda, now)
	return agenda, err
}

// LoadTally counts the YES and NO votes of one agenda item.
func LoadTally(ctx context.Context, votes ports.VoteRepository, agendaID int64) (entities.Tally, error) {
	yes, err := votes.CountVotesByChoice(ctx, agendaID, entities.VoteChoiceYes)
	if err != nil {
		return entities.Tally{}, err
	}
	no, err := votes.CountVotesByChoice(ctx, agendaID, entities.VoteChoiceNo)
	if err != nil {
		return entities.Tally{}, err
	}
	return entities.Tally{AgendaID: agendaID, Yes: yes, No: no}, nil
}
