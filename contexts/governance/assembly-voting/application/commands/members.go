package commands

import (
	"context"
	"log/slog"

	application "assembleia/contexts/governance/assembly-voting/application"
	"assembleia/contexts/governance/assembly-voting/domain/entities"
	domainerrors "assembleia/contexts/governance/assembly-voting/domain/errors"
	"assembleia/contexts/governance/assembly-voting/domain/services"
	"assembleia/contexts/governance/assembly-voting/ports"
)

type RegisterMemberCommand struct {
	Name       string
	NationalID string
	Email      string
}

type UpdateMemberCommand struct {
	MemberID   int64
	Name       string
	NationalID string
	Email      string
}

// MemberUseCase owns the member directory writes. National id and email are
// unique across members.
type MemberUseCase struct {
	Members ports.MemberRepository
	Clock   ports.Clock
	Logger  *slog.Logger
}

func (uc MemberUseCase) RegisterMember(ctx context.Context, cmd RegisterMemberCommand) (entities.Member, error) {
	logger := application.ResolveLogger(uc.Logger)
	member, err := services.NormalizeMember(cmd.Name, cmd.NationalID, cmd.Email)
	if err != nil {
		logger.Warn("member registration validation failed",
			"event", "assembly_member_register_validation_failed",
			"module", application.ModuleName,
			"layer", "application",
		)
		return entities.Member{}, err
	}
	if err := uc.ensureUnique(ctx, member, 0); err != nil {
		return entities.Member{}, err
	}

	now := application.Now(uc.Clock)
	member.CreatedAt = now
	member.UpdatedAt = now
	created, err := uc.Members.CreateMember(ctx, member)
	if err != nil {
		return entities.Member{}, err
	}
	logger.Info("member registered",
		"event", "assembly_member_registered",
		"module", application.ModuleName,
		"layer", "application",
		"member_id", created.MemberID,
	)
	return created, nil
}

func (uc MemberUseCase) UpdateMember(ctx context.Context, cmd UpdateMemberCommand) (entities.Member, error) {
	logger := application.ResolveLogger(uc.Logger)
	existing, err := uc.Members.GetMember(ctx, cmd.MemberID)
	if err != nil {
		return entities.Member{}, err
	}
	member, err := services.NormalizeMember(cmd.Name, cmd.NationalID, cmd.Email)
	if err != nil {
		return entities.Member{}, err
	}
	if err := uc.ensureUnique(ctx, member, existing.MemberID); err != nil {
		return entities.Member{}, err
	}

	existing.Name = member.Name
	existing.NationalID = member.NationalID
	existing.Email = member.Email
	existing.UpdatedAt = application.Now(uc.Clock)
	if err := uc.Members.UpdateMember(ctx, existing); err != nil {
		return entities.Member{}, err
	}
	logger.Info("member updated",
		"event", "assembly_member_updated",
		"module", application.ModuleName,
		"layer", "application",
		"member_id", existing.MemberID,
	)
	return existing, nil
}

// DeleteMember refuses to remove members that authored agenda items or cast
// votes.
func (uc MemberUseCase) DeleteMember(ctx context.Context, memberID int64) error {
	logger := application.ResolveLogger(uc.Logger)
	if _, err := uc.Members.GetMember(ctx, memberID); err != nil {
		return err
	}
	referenced, err := uc.Members.MemberHasReferences(ctx, memberID)
	if err != nil {
		return err
	}
	if referenced {
		logger.Warn("member delete blocked by references",
			"event", "assembly_member_delete_blocked",
			"module", application.ModuleName,
			"layer", "application",
			"member_id", memberID,
		)
		return domainerrors.ErrMemberReferenced
	}
	if err := uc.Members.DeleteMember(ctx, memberID); err != nil {
		return err
	}
	logger.Info("member deleted",
		"event", "assembly_member_deleted",
		"module", application.ModuleName,
		"layer", "application",
		"member_id", memberID,
	)
	return nil
}

func (uc MemberUseCase) ensureUnique(ctx context.Context, member entities.Member, selfID int64) error {
	byNationalID, found, err := uc.Members.FindMemberByNationalID(ctx, member.NationalID)
	if err != nil {
		return err
	}
	if found && byNationalID.MemberID != selfID {
		return domainerrors.ErrNationalIDTaken
	}
	byEmail, found, err := uc.Members.FindMemberByEmail(ctx, member.Email)
	if err != nil {
		return err
	}
	if found && byEmail.MemberID != selfID {
		return domainerrors.ErrEmailTaken
	}
	return nil
}
