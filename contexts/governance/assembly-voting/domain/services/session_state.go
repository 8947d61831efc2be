package services

import (
	"time"

	"assembleia/contexts/governance/assembly-voting/domain/entities"
)

// SessionState is the status a session and its agenda item must hold at a
// given instant.
type SessionState struct {
	Session      entities.SessionStatus
	Agenda       entities.AgendaStatus
	NeedsOutcome bool
}

// EvaluateSession runs the session state machine at now. FINALIZED is
// terminal. When the window has elapsed and the agenda has no outcome yet,
// NeedsOutcome is set and Agenda is left unchanged; the caller resolves it
// with ApplyOutcome once the tally is loaded.
func EvaluateSession(session entities.VotingSession, agenda entities.AgendaStatus, now time.Time) SessionState {
	switch {
	case session.Status == entities.SessionStatusFinalized, now.After(session.ClosesAt):
		return SessionState{
			Session:      entities.SessionStatusFinalized,
			Agenda:       agenda,
			NeedsOutcome: !agenda.IsTerminal(),
		}
	case !now.Before(session.OpensAt):
		return SessionState{
			Session: entities.SessionStatusOpen,
			Agenda:  entities.AgendaStatusVoting,
		}
	default:
		return SessionState{
			Session: entities.SessionStatusClosedPending,
			Agenda:  agenda,
		}
	}
}

// ApplyOutcome closes a pending outcome with the tally comparison.
func (s SessionState) ApplyOutcome(tally entities.Tally) SessionState {
	if !s.NeedsOutcome {
		return s
	}
	s.Agenda = tally.Outcome()
	s.NeedsOutcome = false
	return s
}
