package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "assembleia/contexts/governance/assembly-voting/application"
	"assembleia/contexts/governance/assembly-voting/domain/entities"
	domainerrors "assembleia/contexts/governance/assembly-voting/domain/errors"
	"assembleia/contexts/governance/assembly-voting/ports"
	contractsv1 "assembleia/contracts/events/v1"
)

type CastVoteCommand struct {
	MemberID int64
	AgendaID int64
	Choice   string
}

type ChangeVoteCommand struct {
	VoteID int64
	Choice string
}

// VoteUseCase admits votes against the reconciled session state. The
// (member, agenda) uniqueness is checked up front and enforced again by the
// vote repository, so concurrent duplicates resolve to ErrAlreadyVoted.
type VoteUseCase struct {
	Votes      ports.VoteRepository
	Members    ports.MemberRepository
	Agendas    ports.AgendaRepository
	Sessions   ports.SessionRepository
	Reconciler application.SessionReconciler
	Events     application.EventSink
	Metrics    ports.MetricsRecorder
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (application.VoteDetails, error) {
	logger := application.ResolveLogger(uc.Logger)
	if cmd.MemberID <= 0 || cmd.AgendaID <= 0 {
		return application.VoteDetails{}, domainerrors.ErrInvalidVoteRequest
	}
	choice, ok := entities.ParseVoteChoice(cmd.Choice)
	if !ok {
		return application.VoteDetails{}, domainerrors.ErrInvalidVoteChoice
	}

	member, err := uc.Members.GetMember(ctx, cmd.MemberID)
	if err != nil {
		return application.VoteDetails{}, err
	}
	agenda, err := uc.Agendas.GetAgenda(ctx, cmd.AgendaID)
	if err != nil {
		return application.VoteDetails{}, err
	}
	session, found, err := uc.Sessions.FindSessionByAgenda(ctx, cmd.AgendaID)
	if err != nil {
		return application.VoteDetails{}, err
	}
	if !found {
		return application.VoteDetails{}, domainerrors.ErrNoSession
	}

	now := application.Now(uc.Clock)
	session, agenda, err = uc.Reconciler.Reconcile(ctx, session, agenda, now)
	if err != nil {
		return application.VoteDetails{}, err
	}
	if session.Status != entities.SessionStatusOpen {
		logger.Warn("vote rejected, session not open",
			"event", "assembly_vote_rejected_session_not_open",
			"module", application.ModuleName,
			"layer", "application",
			"member_id", cmd.MemberID,
			"agenda_id", cmd.AgendaID,
			"session_status", string(session.Status),
		)
		return application.VoteDetails{}, domainerrors.ErrSessionNotOpen
	}

	exists, err := uc.Votes.ExistsVote(ctx, cmd.MemberID, cmd.AgendaID)
	if err != nil {
		return application.VoteDetails{}, err
	}
	if exists {
		return application.VoteDetails{}, domainerrors.ErrAlreadyVoted
	}

	vote, err := uc.Votes.CreateVote(ctx, entities.Vote{
		MemberID:   cmd.MemberID,
		AgendaID:   cmd.AgendaID,
		Choice:     choice,
		RecordedAt: now,
		UpdatedAt:  now,
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyVoted) {
			logger.Warn("concurrent duplicate vote rejected",
				"event", "assembly_vote_duplicate_rejected",
				"module", application.ModuleName,
				"layer", "application",
				"member_id", cmd.MemberID,
				"agenda_id", cmd.AgendaID,
			)
		}
		return application.VoteDetails{}, err
	}
	logger.Info("vote recorded",
		"event", "assembly_vote_recorded",
		"module", application.ModuleName,
		"layer", "application",
		"vote_id", vote.VoteID,
		"member_id", vote.MemberID,
		"agenda_id", vote.AgendaID,
	)

	if uc.Metrics != nil {
		uc.Metrics.VoteRecorded(vote.Choice)
	}
	if err := uc.appendVoteEvent(ctx, contractsv1.EventVoteRecorded, vote, now); err != nil {
		return application.VoteDetails{}, err
	}
	return application.VoteDetails{
		Vote:        vote,
		MemberName:  member.Name,
		AgendaTitle: agenda.Title,
	}, nil
}

// ChangeVote overwrites the choice of an existing vote while its session is
// open.
func (uc VoteUseCase) ChangeVote(ctx context.Context, cmd ChangeVoteCommand) (application.VoteDetails, error) {
	logger := application.ResolveLogger(uc.Logger)
	choice, ok := entities.ParseVoteChoice(cmd.Choice)
	if !ok {
		return application.VoteDetails{}, domainerrors.ErrInvalidVoteChoice
	}
	vote, err := uc.Votes.GetVote(ctx, cmd.VoteID)
	if err != nil {
		return application.VoteDetails{}, err
	}
	session, found, err := uc.Sessions.FindSessionByAgenda(ctx, vote.AgendaID)
	if err != nil {
		return application.VoteDetails{}, err
	}
	if !found {
		return application.VoteDetails{}, domainerrors.ErrSessionNotFound
	}

	now := application.Now(uc.Clock)
	session, agenda, err := uc.Reconciler.ReconcileSession(ctx, session, now)
	if err != nil {
		return application.VoteDetails{}, err
	}
	if session.Status != entities.SessionStatusOpen {
		return application.VoteDetails{}, domainerrors.ErrSessionClosed
	}

	if err := uc.Votes.UpdateVoteChoice(ctx, vote.VoteID, choice, now); err != nil {
		return application.VoteDetails{}, err
	}
	previous := vote.Choice
	vote.Choice = choice
	vote.UpdatedAt = now
	logger.Info("vote changed",
		"event", "assembly_vote_changed",
		"module", application.ModuleName,
		"layer", "application",
		"vote_id", vote.VoteID,
		"agenda_id", vote.AgendaID,
		"from_choice", string(previous),
		"to_choice", string(choice),
	)

	if uc.Metrics != nil {
		uc.Metrics.VoteChanged(choice)
	}
	if err := uc.appendVoteEvent(ctx, contractsv1.EventVoteChanged, vote, now); err != nil {
		return application.VoteDetails{}, err
	}

	member, err := uc.Members.GetMember(ctx, vote.MemberID)
	if err != nil {
		return application.VoteDetails{}, err
	}
	return application.VoteDetails{
		Vote:        vote,
		MemberName:  member.Name,
		AgendaTitle: agenda.Title,
	}, nil
}

func (uc VoteUseCase) appendVoteEvent(ctx context.Context, eventType string, vote entities.Vote, occurredAt time.Time) error {
	return uc.Events.Append(ctx, eventType, vote.AgendaID, occurredAt, map[string]any{
		"vote_id":     vote.VoteID,
		"member_id":   vote.MemberID,
		"agenda_id":   vote.AgendaID,
		"choice":      string(vote.Choice),
		"recorded_at": vote.RecordedAt.Format(time.RFC3339),
	})
}
