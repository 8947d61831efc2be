package entities

import (
	"strings"
	"time"
)

type VoteChoice string

const (
	VoteChoiceYes VoteChoice = "SIM"
	VoteChoiceNo  VoteChoice = "NAO"
)

// ParseVoteChoice accepts the wire values SIM/NAO and their English
// aliases YES/NO, case-insensitively.
func ParseVoteChoice(raw string) (VoteChoice, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SIM", "YES":
		return VoteChoiceYes, true
	case "NAO", "NÃO", "NO":
		return VoteChoiceNo, true
	default:
		return "", false
	}
}

type Vote struct {
	VoteID     int64
	MemberID   int64
	AgendaID   int64
	Choice     VoteChoice
	RecordedAt time.Time
	UpdatedAt  time.Time
}

// Tally is the vote count of one agenda item.
type Tally struct {
	AgendaID int64
	Yes      int64
	No       int64
}

func (t Tally) Total() int64 {
	return t.Yes + t.No
}

// Outcome maps the tally to the terminal agenda status.
func (t Tally) Outcome() AgendaStatus {
	switch {
	case t.Yes > t.No:
		return AgendaStatusApproved
	case t.No > t.Yes:
		return AgendaStatusRejected
	default:
		return AgendaStatusTied
	}
}
