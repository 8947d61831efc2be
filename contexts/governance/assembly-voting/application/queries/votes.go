package queries

import (
	"context"

	application "assembleia/contexts/governance/assembly-voting/application"
	"assembleia/contexts/governance/assembly-voting/ports"
)

type VoteQueries struct {
	Votes   ports.VoteRepository
	Members ports.MemberRepository
	Agendas ports.AgendaRepository
}

func (q VoteQueries) GetVote(ctx context.Context, voteID int64) (application.VoteDetails, error) {
	vote, err := q.Votes.GetVote(ctx, voteID)
	if err != nil {
		return application.VoteDetails{}, err
	}
	member, err := q.Members.GetMember(ctx, vote.MemberID)
	if err != nil {
		return application.VoteDetails{}, err
	}
	agenda, err := q.Agendas.GetAgenda(ctx, vote.AgendaID)
	if err != nil {
		return application.VoteDetails{}, err
	}
	return application.VoteDetails{
		Vote:        vote,
		MemberName:  member.Name,
		AgendaTitle: agenda.Title,
	}, nil
}

// GetResult reads the current tally. It does not trigger a session
// transition.
func (q VoteQueries) GetResult(ctx context.Context, agendaID int64) (application.Result, error) {
	agenda, err := q.Agendas.GetAgenda(ctx, agendaID)
	if err != nil {
		return application.Result{}, err
	}
	tally, err := application.LoadTally(ctx, q.Votes, agendaID)
	if err != nil {
		return application.Result{}, err
	}
	return application.Result{Tally: tally, AgendaTitle: agenda.Title}, nil
}
