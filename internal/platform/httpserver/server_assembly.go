package httpserver

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"assembleia/contexts/governance/assembly-voting/application/queries"
	domainerrors "assembleia/contexts/governance/assembly-voting/domain/errors"
	assemblyhttp "assembleia/contexts/governance/assembly-voting/transport/http"
)

func (s *Server) handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var req assemblyhttp.MemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.assembly.Handler.RegisterMemberHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	query, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	resp, err := s.assembly.Handler.ListMembersHandler(r.Context(), query)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := parseID(w, r, "member_id")
	if !ok {
		return
	}
	resp, err := s.assembly.Handler.GetMemberHandler(r.Context(), memberID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := parseID(w, r, "member_id")
	if !ok {
		return
	}
	var req assemblyhttp.MemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.assembly.Handler.UpdateMemberHandler(r.Context(), memberID, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := parseID(w, r, "member_id")
	if !ok {
		return
	}
	if err := s.assembly.Handler.DeleteMemberHandler(r.Context(), memberID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateAgenda(w http.ResponseWriter, r *http.Request) {
	var req assemblyhttp.CreateAgendaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.assembly.Handler.CreateAgendaHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListAgendas(w http.ResponseWriter, r *http.Request) {
	query, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	resp, err := s.assembly.Handler.ListAgendasHandler(r.Context(), query)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAgenda(w http.ResponseWriter, r *http.Request) {
	agendaID, ok := parseID(w, r, "agenda_id")
	if !ok {
		return
	}
	resp, err := s.assembly.Handler.GetAgendaHandler(r.Context(), agendaID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateAgenda(w http.ResponseWriter, r *http.Request) {
	agendaID, ok := parseID(w, r, "agenda_id")
	if !ok {
		return
	}
	var req assemblyhttp.UpdateAgendaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.assembly.Handler.UpdateAgendaHandler(r.Context(), agendaID, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteAgenda(w http.ResponseWriter, r *http.Request) {
	agendaID, ok := parseID(w, r, "agenda_id")
	if !ok {
		return
	}
	if err := s.assembly.Handler.DeleteAgendaHandler(r.Context(), agendaID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAgendaResult(w http.ResponseWriter, r *http.Request) {
	agendaID, ok := parseID(w, r, "agenda_id")
	if !ok {
		return
	}
	resp, err := s.assembly.Handler.AgendaResultHandler(r.Context(), agendaID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req assemblyhttp.CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.assembly.Handler.CreateSessionHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	query, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	resp, err := s.assembly.Handler.ListSessionsHandler(r.Context(), query)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseID(w, r, "session_id")
	if !ok {
		return
	}
	resp, err := s.assembly.Handler.GetSessionHandler(r.Context(), sessionID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExtendPeriod(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseID(w, r, "session_id")
	if !ok {
		return
	}
	var req assemblyhttp.ExtendPeriodRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.assembly.Handler.ExtendPeriodHandler(r.Context(), sessionID, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req assemblyhttp.CastVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.assembly.Handler.CastVoteHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetVote(w http.ResponseWriter, r *http.Request) {
	voteID, ok := parseID(w, r, "vote_id")
	if !ok {
		return
	}
	resp, err := s.assembly.Handler.GetVoteHandler(r.Context(), voteID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChangeVote(w http.ResponseWriter, r *http.Request) {
	voteID, ok := parseID(w, r, "vote_id")
	if !ok {
		return
	}
	var req assemblyhttp.ChangeVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.assembly.Handler.ChangeVoteHandler(r.Context(), voteID, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrAlreadyVoted):
		writeError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, domainerrors.ErrSessionFinalized):
		writeError(w, http.StatusConflict, "session_finalized", err.Error())
	case errors.Is(err, domainerrors.ErrSessionNotOpen),
		errors.Is(err, domainerrors.ErrSessionClosed):
		writeError(w, http.StatusUnprocessableEntity, "session_not_open", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domainerrors.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, domainerrors.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domainerrors.ErrBusinessRule):
		writeError(w, http.StatusUnprocessableEntity, "business_rule_violation", err.Error())
	default:
		s.logger.Error("unhandled request error",
			"event", "http_internal_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, assemblyhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func parseListQuery(w http.ResponseWriter, r *http.Request) (queries.ListQuery, bool) {
	values := r.URL.Query() // gorm-postgres-enforcer: allow-raw-sql parses HTTP query parameters only
	query := queries.ListQuery{Sort: strings.TrimSpace(values.Get("sort"))}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_page", "page must be an integer")
			return queries.ListQuery{}, false
		}
		query.Page = page
	}
	if raw := strings.TrimSpace(values.Get("size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_size", "size must be an integer")
			return queries.ListQuery{}, false
		}
		query.Size = size
	}
	return query, true
}

// resolveClientIP keys clients by the first X-Forwarded-For hop, falling back
// to the connection's host.
func resolveClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr)); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
