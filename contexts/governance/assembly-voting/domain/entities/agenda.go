package entities

import "time"

type AgendaStatus string

const (
	AgendaStatusCreated  AgendaStatus = "CRIADA"
	AgendaStatusVoting   AgendaStatus = "EM_VOTACAO"
	AgendaStatusApproved AgendaStatus = "APROVADA"
	AgendaStatusRejected AgendaStatus = "RECUSADA"
	AgendaStatusTied     AgendaStatus = "EMPATADA"
)

// IsTerminal reports whether the agenda already carries a voting outcome.
func (s AgendaStatus) IsTerminal() bool {
	return s == AgendaStatusApproved || s == AgendaStatusRejected || s == AgendaStatusTied
}

func (s AgendaStatus) IsValid() bool {
	switch s {
	case AgendaStatusCreated, AgendaStatusVoting, AgendaStatusApproved, AgendaStatusRejected, AgendaStatusTied:
		return true
	default:
		return false
	}
}

type AgendaItem struct {
	AgendaID    int64
	Title       string
	Description string
	CreatorID   int64
	Status      AgendaStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a AgendaItem) IsEditable() bool {
	return a.Status == AgendaStatusCreated
}
