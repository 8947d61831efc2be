package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	assemblyvoting "assembleia/contexts/governance/assembly-voting"
)

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database unreachable") }

func newTestServer() *Server {
	server, _ := newTestServerWithClock(nil)
	return server
}

func newTestServerWithClock(limiter *RateLimiter) (*Server, *stubClock) {
	clock := &stubClock{now: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)}
	module, _ := assemblyvoting.NewInMemoryModule(clock, nil, nil)
	return New(Options{
		Assembly:    module,
		RateLimiter: limiter,
	}), clock
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json response: %v body=%s", err, rr.Body.String())
	}
	return payload
}

func seedMemberAndAgenda(t *testing.T, handler http.Handler) (memberID float64, agendaID float64) {
	t.Helper()
	rr := doJSON(t, handler, http.MethodPost, "/api/v1/members", map[string]any{
		"name":        "Ana Souza",
		"national_id": "123.456.789-01",
		"email":       "ana@example.com",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 on member, got %d body=%s", rr.Code, rr.Body.String())
	}
	memberID = decodeBody(t, rr)["member_id"].(float64)

	rr = doJSON(t, handler, http.MethodPost, "/api/v1/agendas", map[string]any{
		"title":      "Approve annual budget",
		"creator_id": memberID,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 on agenda, got %d body=%s", rr.Code, rr.Body.String())
	}
	agendaID = decodeBody(t, rr)["agenda_id"].(float64)
	return memberID, agendaID
}

func TestHealthzReturnsOK(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || rr.Body.String() != "ok\n" {
		t.Fatalf("expected 200 ok, got %d body=%q", rr.Code, rr.Body.String())
	}
}

func TestReadyzReportsUnavailableDependency(t *testing.T) {
	module, _ := assemblyvoting.NewInMemoryModule(nil, nil, nil)
	server := New(Options{
		Assembly:  module,
		Readiness: failingPinger{},
	})
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVotingFlowOverHTTP(t *testing.T) {
	server, clock := newTestServerWithClock(nil)
	handler := server.Handler()
	memberID, agendaID := seedMemberAndAgenda(t, handler)

	rr := doJSON(t, handler, http.MethodPost, "/api/v1/sessions", map[string]any{"agenda_id": agendaID})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 on session, got %d body=%s", rr.Code, rr.Body.String())
	}
	session := decodeBody(t, rr)
	if session["status"] != "ABERTA" || session["open_for_voting"] != true {
		t.Fatalf("expected open session, got %#v", session)
	}

	rr = doJSON(t, handler, http.MethodPost, "/api/v1/votes", map[string]any{
		"member_id": memberID,
		"agenda_id": agendaID,
		"choice":    "SIM",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 on vote, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, handler, http.MethodPost, "/api/v1/votes", map[string]any{
		"member_id": memberID,
		"agenda_id": agendaID,
		"choice":    "NAO",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate vote, got %d body=%s", rr.Code, rr.Body.String())
	}
	if code := decodeBody(t, rr)["code"]; code != "already_voted" {
		t.Fatalf("expected already_voted code, got %#v", code)
	}

	clock.Advance(2 * time.Minute)
	rr = doJSON(t, handler, http.MethodGet, "/api/v1/agendas/"+formatID(agendaID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on agenda, got %d body=%s", rr.Code, rr.Body.String())
	}
	if status := decodeBody(t, rr)["status"]; status != "APROVADA" {
		t.Fatalf("expected APROVADA after close, got %#v", status)
	}

	rr = doJSON(t, handler, http.MethodGet, "/api/v1/agendas/"+formatID(agendaID)+"/result", nil)
	result := decodeBody(t, rr)
	if result["yes_votes"] != float64(1) || result["no_votes"] != float64(0) || result["total_votes"] != float64(1) {
		t.Fatalf("unexpected tally %#v", result)
	}
}

func TestCastVoteWithoutSessionIsBusinessRuleViolation(t *testing.T) {
	server := newTestServer()
	handler := server.Handler()
	memberID, agendaID := seedMemberAndAgenda(t, handler)

	rr := doJSON(t, handler, http.MethodPost, "/api/v1/votes", map[string]any{
		"member_id": memberID,
		"agenda_id": agendaID,
		"choice":    "SIM",
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRejectsMalformedRequests(t *testing.T) {
	server := newTestServer()

	rr := doJSON(t, server.mux, http.MethodGet, "/api/v1/members/abc", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/members", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", rec.Code)
	}

	rr = doJSON(t, server.mux, http.MethodGet, "/api/v1/agendas?sort=creator_id", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported sort, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server.mux, http.MethodGet, "/api/v1/votes/99", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown vote, got %d", rr.Code)
	}
}

func TestWriteRoutesAreRateLimited(t *testing.T) {
	server, _ := newTestServerWithClock(NewRateLimiter(0.001, 1))
	handler := server.Handler()

	body := map[string]any{"name": "Ana", "national_id": "12345678901", "email": "ana@example.com"}
	first := doJSON(t, handler, http.MethodPost, "/api/v1/members", body)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected first write to pass, got %d body=%s", first.Code, first.Body.String())
	}
	second := doJSON(t, handler, http.MethodPost, "/api/v1/members", body)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d body=%s", second.Code, second.Body.String())
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	read := doJSON(t, handler, http.MethodGet, "/api/v1/members", nil)
	if read.Code != http.StatusOK {
		t.Fatalf("expected reads to bypass the limiter, got %d", read.Code)
	}
}

func TestMetricsExposeRoutePatterns(t *testing.T) {
	server := newTestServer()
	handler := server.Handler()

	doJSON(t, handler, http.MethodGet, "/api/v1/members/42", nil)

	rr := doJSON(t, handler, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `route="GET /api/v1/members/{member_id}"`) {
		t.Fatalf("expected route pattern label, got %s", rr.Body.String())
	}
}

func TestResolveClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	if got := resolveClientIP(req); got != "10.0.0.7" {
		t.Fatalf("expected remote host, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := resolveClientIP(req); got != "203.0.113.9" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}
}

func TestRateLimiterCleanupDropsIdleKeys(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	limiter.idleTTL = -time.Second
	limiter.Allow("a")
	limiter.Allow("b")
	limiter.Cleanup()
	if limiter.size() != 0 {
		t.Fatalf("expected idle keys to be removed, got %d", limiter.size())
	}
}

func formatID(id float64) string {
	return strconv.FormatInt(int64(id), 10)
}
