package entities

import "time"

type SessionStatus string

const (
	SessionStatusClosedPending SessionStatus = "FECHADA"
	SessionStatusOpen          SessionStatus = "ABERTA"
	SessionStatusFinalized     SessionStatus = "FINALIZADA"
)

// DefaultSessionDuration applies when an immediate session omits its duration.
const DefaultSessionDuration = time.Minute

// MaxWindowMinutes bounds DurationMinutes and AdditionalMinutes (ten years).
// Larger values would overflow time.Duration.
const MaxWindowMinutes = 10 * 365 * 24 * 60

type VotingSession struct {
	SessionID int64
	AgendaID  int64
	OpensAt   time.Time
	ClosesAt  time.Time
	Status    SessionStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOpenAt reports whether votes may be recorded at now. Both window
// boundaries are inclusive.
func (s VotingSession) IsOpenAt(now time.Time) bool {
	return !now.Before(s.OpensAt) && !now.After(s.ClosesAt)
}
