package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "assembleia/contexts/governance/assembly-voting/application"
	"assembleia/contexts/governance/assembly-voting/application/commands"
	"assembleia/contexts/governance/assembly-voting/application/queries"
	"assembleia/contexts/governance/assembly-voting/domain/entities"
	domainerrors "assembleia/contexts/governance/assembly-voting/domain/errors"
	httptransport "assembleia/contexts/governance/assembly-voting/transport/http"
)

// Handler maps transport DTOs onto use cases. HTTP concerns (routing,
// status codes) live in the platform server.
type Handler struct {
	Members      commands.MemberUseCase
	MemberReads  queries.MemberQueries
	Agendas      commands.AgendaUseCase
	AgendaReads  queries.AgendaQueries
	Sessions     commands.SessionUseCase
	SessionReads queries.SessionQueries
	Votes        commands.VoteUseCase
	VoteReads    queries.VoteQueries
	Logger       *slog.Logger
}

func (h Handler) RegisterMemberHandler(ctx context.Context, req httptransport.MemberRequest) (httptransport.MemberResponse, error) {
	member, err := h.Members.RegisterMember(ctx, commands.RegisterMemberCommand{
		Name:       req.Name,
		NationalID: req.NationalID,
		Email:      req.Email,
	})
	if err != nil {
		return httptransport.MemberResponse{}, err
	}
	return mapMember(member), nil
}

func (h Handler) GetMemberHandler(ctx context.Context, memberID int64) (httptransport.MemberResponse, error) {
	member, err := h.MemberReads.GetMember(ctx, memberID)
	if err != nil {
		return httptransport.MemberResponse{}, err
	}
	return mapMember(member), nil
}

func (h Handler) ListMembersHandler(ctx context.Context, query queries.ListQuery) (httptransport.PageResponse[httptransport.MemberResponse], error) {
	page, err := h.MemberReads.ListMembers(ctx, query)
	if err != nil {
		return httptransport.PageResponse[httptransport.MemberResponse]{}, err
	}
	return mapPage(page, mapMember), nil
}

func (h Handler) UpdateMemberHandler(ctx context.Context, memberID int64, req httptransport.MemberRequest) (httptransport.MemberResponse, error) {
	member, err := h.Members.UpdateMember(ctx, commands.UpdateMemberCommand{
		MemberID:   memberID,
		Name:       req.Name,
		NationalID: req.NationalID,
		Email:      req.Email,
	})
	if err != nil {
		return httptransport.MemberResponse{}, err
	}
	return mapMember(member), nil
}

func (h Handler) DeleteMemberHandler(ctx context.Context, memberID int64) error {
	return h.Members.DeleteMember(ctx, memberID)
}

func (h Handler) CreateAgendaHandler(ctx context.Context, req httptransport.CreateAgendaRequest) (httptransport.AgendaResponse, error) {
	agenda, err := h.Agendas.CreateAgenda(ctx, commands.CreateAgendaCommand{
		Title:       req.Title,
		Description: req.Description,
		CreatorID:   req.CreatorID,
	})
	if err != nil {
		return httptransport.AgendaResponse{}, err
	}
	return mapAgenda(agenda), nil
}

func (h Handler) GetAgendaHandler(ctx context.Context, agendaID int64) (httptransport.AgendaResponse, error) {
	agenda, err := h.AgendaReads.GetAgenda(ctx, agendaID)
	if err != nil {
		return httptransport.AgendaResponse{}, err
	}
	return mapAgenda(agenda), nil
}

func (h Handler) ListAgendasHandler(ctx context.Context, query queries.ListQuery) (httptransport.PageResponse[httptransport.AgendaResponse], error) {
	page, err := h.AgendaReads.ListAgendas(ctx, query)
	if err != nil {
		return httptransport.PageResponse[httptransport.AgendaResponse]{}, err
	}
	return mapPage(page, mapAgenda), nil
}

func (h Handler) UpdateAgendaHandler(ctx context.Context, agendaID int64, req httptransport.UpdateAgendaRequest) (httptransport.AgendaResponse, error) {
	agenda, err := h.Agendas.UpdateAgenda(ctx, commands.UpdateAgendaCommand{
		AgendaID:    agendaID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return httptransport.AgendaResponse{}, err
	}
	return mapAgenda(agenda), nil
}

func (h Handler) DeleteAgendaHandler(ctx context.Context, agendaID int64) error {
	return h.Agendas.DeleteAgenda(ctx, agendaID)
}

func (h Handler) AgendaResultHandler(ctx context.Context, agendaID int64) (httptransport.ResultResponse, error) {
	result, err := h.VoteReads.GetResult(ctx, agendaID)
	if err != nil {
		return httptransport.ResultResponse{}, err
	}
	return httptransport.ResultResponse{
		AgendaID:    result.Tally.AgendaID,
		AgendaTitle: result.AgendaTitle,
		YesVotes:    result.Tally.Yes,
		NoVotes:     result.Tally.No,
		TotalVotes:  result.Tally.Total(),
	}, nil
}

func (h Handler) CreateSessionHandler(ctx context.Context, req httptransport.CreateSessionRequest) (httptransport.SessionResponse, error) {
	startAt, err := parseOptionalTime(req.StartAt)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	endAt, err := parseOptionalTime(req.EndAt)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	view, err := h.Sessions.CreateSession(ctx, commands.CreateSessionCommand{
		AgendaID:        req.AgendaID,
		DurationMinutes: req.DurationMinutes,
		StartAt:         startAt,
		EndAt:           endAt,
	})
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return mapSession(view), nil
}

func (h Handler) GetSessionHandler(ctx context.Context, sessionID int64) (httptransport.SessionResponse, error) {
	view, err := h.SessionReads.GetSession(ctx, sessionID)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return mapSession(view), nil
}

func (h Handler) ListSessionsHandler(ctx context.Context, query queries.ListQuery) (httptransport.PageResponse[httptransport.SessionResponse], error) {
	page, err := h.SessionReads.ListSessions(ctx, query)
	if err != nil {
		return httptransport.PageResponse[httptransport.SessionResponse]{}, err
	}
	return mapPage(page, mapSession), nil
}

func (h Handler) ExtendPeriodHandler(ctx context.Context, sessionID int64, req httptransport.ExtendPeriodRequest) (httptransport.SessionResponse, error) {
	endAt, err := parseOptionalTime(req.EndAt)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	view, err := h.Sessions.ExtendPeriod(ctx, commands.ExtendPeriodCommand{
		SessionID:         sessionID,
		EndAt:             endAt,
		AdditionalMinutes: req.AdditionalMinutes,
	})
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return mapSession(view), nil
}

func (h Handler) CastVoteHandler(ctx context.Context, req httptransport.CastVoteRequest) (httptransport.VoteResponse, error) {
	details, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		MemberID: req.MemberID,
		AgendaID: req.AgendaID,
		Choice:   req.Choice,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(details), nil
}

func (h Handler) GetVoteHandler(ctx context.Context, voteID int64) (httptransport.VoteResponse, error) {
	details, err := h.VoteReads.GetVote(ctx, voteID)
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(details), nil
}

func (h Handler) ChangeVoteHandler(ctx context.Context, voteID int64, req httptransport.ChangeVoteRequest) (httptransport.VoteResponse, error) {
	details, err := h.Votes.ChangeVote(ctx, commands.ChangeVoteCommand{
		VoteID: voteID,
		Choice: req.Choice,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(details), nil
}

func parseOptionalTime(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*raw))
	if err != nil {
		return nil, domainerrors.ErrInvalidTimestamp
	}
	parsed = parsed.UTC()
	return &parsed, nil
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339)
}

func mapMember(member entities.Member) httptransport.MemberResponse {
	return httptransport.MemberResponse{
		MemberID:   member.MemberID,
		Name:       member.Name,
		NationalID: member.NationalID,
		Email:      member.Email,
		CreatedAt:  formatTime(member.CreatedAt),
		UpdatedAt:  formatTime(member.UpdatedAt),
	}
}

func mapAgenda(agenda entities.AgendaItem) httptransport.AgendaResponse {
	return httptransport.AgendaResponse{
		AgendaID:    agenda.AgendaID,
		Title:       agenda.Title,
		Description: agenda.Description,
		CreatorID:   agenda.CreatorID,
		Status:      string(agenda.Status),
		CreatedAt:   formatTime(agenda.CreatedAt),
	}
}

func mapSession(view application.SessionView) httptransport.SessionResponse {
	return httptransport.SessionResponse{
		SessionID:     view.Session.SessionID,
		AgendaID:      view.Session.AgendaID,
		AgendaTitle:   view.AgendaTitle,
		OpensAt:       formatTime(view.Session.OpensAt),
		ClosesAt:      formatTime(view.Session.ClosesAt),
		Status:        string(view.Session.Status),
		OpenForVoting: view.OpenForVoting,
	}
}

func mapVote(details application.VoteDetails) httptransport.VoteResponse {
	return httptransport.VoteResponse{
		VoteID:      details.Vote.VoteID,
		MemberID:    details.Vote.MemberID,
		MemberName:  details.MemberName,
		AgendaID:    details.Vote.AgendaID,
		AgendaTitle: details.AgendaTitle,
		Choice:      string(details.Vote.Choice),
		RecordedAt:  formatTime(details.Vote.RecordedAt),
	}
}

func mapPage[E any, D any](page entities.Page[E], convert func(E) D) httptransport.PageResponse[D] {
	items := make([]D, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, convert(item))
	}
	return httptransport.PageResponse[D]{
		Items:      items,
		Page:       page.Page,
		Size:       page.Size,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages(),
	}
}
