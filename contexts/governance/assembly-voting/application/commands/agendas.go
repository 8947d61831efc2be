package commands

import (
	"context"
	"log/slog"
	"strings"

	application "assembleia/contexts/governance/assembly-voting/application"
	"assembleia/contexts/governance/assembly-voting/domain/entities"
	domainerrors "assembleia/contexts/governance/assembly-voting/domain/errors"
	"assembleia/contexts/governance/assembly-voting/ports"
)

type CreateAgendaCommand struct {
	Title       string
	Description string
	CreatorID   int64
}

type UpdateAgendaCommand struct {
	AgendaID    int64
	Title       string
	Description string
}

type AgendaUseCase struct {
	Agendas    ports.AgendaRepository
	Members    ports.MemberRepository
	Reconciler application.SessionReconciler
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (uc AgendaUseCase) CreateAgenda(ctx context.Context, cmd CreateAgendaCommand) (entities.AgendaItem, error) {
	logger := application.ResolveLogger(uc.Logger)
	title := strings.TrimSpace(cmd.Title)
	if title == "" || cmd.CreatorID <= 0 {
		return entities.AgendaItem{}, domainerrors.ErrInvalidAgendaInput
	}
	if _, err := uc.Members.GetMember(ctx, cmd.CreatorID); err != nil {
		return entities.AgendaItem{}, err
	}

	now := application.Now(uc.Clock)
	created, err := uc.Agendas.CreateAgenda(ctx, entities.AgendaItem{
		Title:       title,
		Description: strings.TrimSpace(cmd.Description),
		CreatorID:   cmd.CreatorID,
		Status:      entities.AgendaStatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return entities.AgendaItem{}, err
	}
	logger.Info("agenda item created",
		"event", "assembly_agenda_created",
		"module", application.ModuleName,
		"layer", "application",
		"agenda_id", created.AgendaID,
		"creator_id", created.CreatorID,
	)
	return created, nil
}

// UpdateAgenda edits title and description while the item is still CRIADA.
func (uc AgendaUseCase) UpdateAgenda(ctx context.Context, cmd UpdateAgendaCommand) (entities.AgendaItem, error) {
	agenda, err := uc.Agendas.GetAgenda(ctx, cmd.AgendaID)
	if err != nil {
		return entities.AgendaItem{}, err
	}
	now := application.Now(uc.Clock)
	agenda, err = uc.Reconciler.ReconcileAgenda(ctx, agenda, now)
	if err != nil {
		return entities.AgendaItem{}, err
	}
	if !agenda.IsEditable() {
		return entities.AgendaItem{}, domainerrors.ErrAgendaNotEditable
	}
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return entities.AgendaItem{}, domainerrors.ErrInvalidAgendaInput
	}

	agenda.Title = title
	agenda.Description = strings.TrimSpace(cmd.Description)
	agenda.UpdatedAt = now
	if err := uc.Agendas.UpdateAgenda(ctx, agenda); err != nil {
		return entities.AgendaItem{}, err
	}
	return agenda, nil
}

// DeleteAgenda removes the item with its session and votes. Items under
// vote cannot be removed.
func (uc AgendaUseCase) DeleteAgenda(ctx context.Context, agendaID int64) error {
	logger := application.ResolveLogger(uc.Logger)
	agenda, err := uc.Agendas.GetAgenda(ctx, agendaID)
	if err != nil {
		return err
	}
	agenda, err = uc.Reconciler.ReconcileAgenda(ctx, agenda, application.Now(uc.Clock))
	if err != nil {
		return err
	}
	if agenda.Status == entities.AgendaStatusVoting {
		logger.Warn("agenda delete blocked while voting",
			"event", "assembly_agenda_delete_blocked",
			"module", application.ModuleName,
			"layer", "application",
			"agenda_id", agendaID,
		)
		return domainerrors.ErrAgendaVotingUnderway
	}
	if err := uc.Agendas.DeleteAgendaCascade(ctx, agendaID); err != nil {
		return err
	}
	logger.Info("agenda item deleted",
		"event", "assembly_agenda_deleted",
		"module", application.ModuleName,
		"layer", "application",
		"agenda_id", agendaID,
	)
	return nil
}
