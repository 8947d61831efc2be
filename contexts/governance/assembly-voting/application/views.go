package application

import (
	"time"

	"assembleia/contexts/governance/assembly-voting/domain/entities"
)

// SessionView is a session after reconciliation, as exposed to callers.
type SessionView struct {
	Session       entities.VotingSession
	AgendaTitle   string
	OpenForVoting bool
}

// VoteDetails is a vote enriched with the member name and agenda title.
type VoteDetails struct {
	Vote        entities.Vote
	MemberName  string
	AgendaTitle string
}

// Result is the tally of one agenda item with its title.
type Result struct {
	Tally       entities.Tally
	AgendaTitle string
}

func NewSessionView(session entities.VotingSession, agenda entities.AgendaItem, now time.Time) SessionView {
	return SessionView{
		Session:       session,
		AgendaTitle:   agenda.Title,
		OpenForVoting: session.Status == entities.SessionStatusOpen && session.IsOpenAt(now),
	}
}
