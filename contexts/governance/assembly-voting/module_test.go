package assemblyvoting_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	assemblyvoting "assembleia/contexts/governance/assembly-voting"
	"assembleia/contexts/governance/assembly-voting/application/queries"
	domainerrors "assembleia/contexts/governance/assembly-voting/domain/errors"
	httptransport "assembleia/contexts/governance/assembly-voting/transport/http"

	"golang.org/x/sync/errgroup"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func intPtr(v int) *int { return &v }

func stringPtr(v string) *string { return &v }

func registerMember(t *testing.T, module assemblyvoting.Module, n int) httptransport.MemberResponse {
	t.Helper()
	member, err := module.Handler.RegisterMemberHandler(context.Background(), httptransport.MemberRequest{
		Name:       fmt.Sprintf("Member %02d", n),
		NationalID: fmt.Sprintf("%011d", 10000000000+n),
		Email:      fmt.Sprintf("member%02d@example.com", n),
	})
	if err != nil {
		t.Fatalf("register member %d failed: %v", n, err)
	}
	return member
}

func createAgenda(t *testing.T, module assemblyvoting.Module, creatorID int64) httptransport.AgendaResponse {
	t.Helper()
	agenda, err := module.Handler.CreateAgendaHandler(context.Background(), httptransport.CreateAgendaRequest{
		Title:       "Budget 2027",
		Description: "Annual budget approval",
		CreatorID:   creatorID,
	})
	if err != nil {
		t.Fatalf("create agenda failed: %v", err)
	}
	return agenda
}

func TestImmediateSessionOpensForRequestedDuration(t *testing.T) {
	clock := newManualClock()
	module, _ := assemblyvoting.NewInMemoryModule(clock, nil, nil)
	ctx := context.Background()
	creator := registerMember(t, module, 1)
	agenda := createAgenda(t, module, creator.MemberID)

	session, err := module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{
		AgendaID:        agenda.AgendaID,
		DurationMinutes: intPtr(5),
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if session.Status != "ABERTA" || !session.OpenForVoting {
		t.Fatalf("expected open session, got %+v", session)
	}
	if session.OpensAt != "2026-03-10T14:00:00Z" || session.ClosesAt != "2026-03-10T14:05:00Z" {
		t.Fatalf("unexpected window %s - %s", session.OpensAt, session.ClosesAt)
	}

	reloaded, err := module.Handler.GetAgendaHandler(ctx, agenda.AgendaID)
	if err != nil {
		t.Fatalf("get agenda failed: %v", err)
	}
	if reloaded.Status != "EM_VOTACAO" {
		t.Fatalf("expected agenda under vote, got %s", reloaded.Status)
	}

	_, err = module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{AgendaID: agenda.AgendaID})
	if !errors.Is(err, domainerrors.ErrSessionExists) || !errors.Is(err, domainerrors.ErrAlreadyExists) {
		t.Fatalf("expected duplicate session rejection, got %v", err)
	}
}

func TestScheduledSessionFollowsTheClock(t *testing.T) {
	clock := newManualClock()
	module, _ := assemblyvoting.NewInMemoryModule(clock, nil, nil)
	ctx := context.Background()
	creator := registerMember(t, module, 1)
	agenda := createAgenda(t, module, creator.MemberID)

	session, err := module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{
		AgendaID: agenda.AgendaID,
		StartAt:  stringPtr("2026-03-10T14:05:00Z"),
		EndAt:    stringPtr("2026-03-10T14:10:00Z"),
	})
	if err != nil {
		t.Fatalf("schedule session failed: %v", err)
	}
	if session.Status != "FECHADA" || session.OpenForVoting {
		t.Fatalf("expected pending session, got %+v", session)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{
		MemberID: creator.MemberID,
		AgendaID: agenda.AgendaID,
		Choice:   "SIM",
	}); !errors.Is(err, domainerrors.ErrSessionNotOpen) {
		t.Fatalf("expected session-not-open before start, got %v", err)
	}

	clock.Advance(6 * time.Minute)
	session, err = module.Handler.GetSessionHandler(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if session.Status != "ABERTA" || !session.OpenForVoting {
		t.Fatalf("expected session open at +6m, got %+v", session)
	}
	reloaded, _ := module.Handler.GetAgendaHandler(ctx, agenda.AgendaID)
	if reloaded.Status != "EM_VOTACAO" {
		t.Fatalf("expected agenda under vote at +6m, got %s", reloaded.Status)
	}

	clock.Advance(5 * time.Minute)
	session, err = module.Handler.GetSessionHandler(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if session.Status != "FINALIZADA" || session.OpenForVoting {
		t.Fatalf("expected finalized session at +11m, got %+v", session)
	}
	reloaded, _ = module.Handler.GetAgendaHandler(ctx, agenda.AgendaID)
	if reloaded.Status != "EMPATADA" {
		t.Fatalf("expected tied outcome with no votes, got %s", reloaded.Status)
	}
}

func TestRejectsInvalidSchedules(t *testing.T) {
	module, _ := assemblyvoting.NewInMemoryModule(newManualClock(), nil, nil)
	ctx := context.Background()
	creator := registerMember(t, module, 1)
	agenda := createAgenda(t, module, creator.MemberID)

	cases := []httptransport.CreateSessionRequest{
		{AgendaID: agenda.AgendaID, StartAt: stringPtr("2026-03-10T14:05:00Z")},
		{AgendaID: agenda.AgendaID, StartAt: stringPtr("2026-03-10T14:00:00Z"), EndAt: stringPtr("2026-03-10T14:10:00Z")},
		{AgendaID: agenda.AgendaID, StartAt: stringPtr("2026-03-10T14:05:00Z"), EndAt: stringPtr("2026-03-10T14:05:00Z")},
	}
	for i, req := range cases {
		if _, err := module.Handler.CreateSessionHandler(ctx, req); !errors.Is(err, domainerrors.ErrBusinessRule) {
			t.Fatalf("case %d: expected business rule violation, got %v", i, err)
		}
	}

	_, err := module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{
		AgendaID:        agenda.AgendaID,
		DurationMinutes: intPtr(0),
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid duration, got %v", err)
	}
	_, err = module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{
		AgendaID: agenda.AgendaID,
		StartAt:  stringPtr("tomorrow"),
		EndAt:    stringPtr("2026-03-10T14:10:00Z"),
	})
	if !errors.Is(err, domainerrors.ErrInvalidTimestamp) {
		t.Fatalf("expected invalid timestamp, got %v", err)
	}
	_, err = module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{AgendaID: 999})
	if !errors.Is(err, domainerrors.ErrAgendaNotFound) {
		t.Fatalf("expected missing agenda, got %v", err)
	}
}

func TestCastVoteWithoutSessionIsBusinessRule(t *testing.T) {
	module, _ := assemblyvoting.NewInMemoryModule(newManualClock(), nil, nil)
	creator := registerMember(t, module, 1)
	agenda := createAgenda(t, module, creator.MemberID)

	_, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
		MemberID: creator.MemberID,
		AgendaID: agenda.AgendaID,
		Choice:   "SIM",
	})
	if !errors.Is(err, domainerrors.ErrNoSession) || !errors.Is(err, domainerrors.ErrBusinessRule) {
		t.Fatalf("expected no-session business rule, got %v", err)
	}
}

func TestCastVoteValidatesInput(t *testing.T) {
	module, _ := assemblyvoting.NewInMemoryModule(newManualClock(), nil, nil)
	ctx := context.Background()
	creator := registerMember(t, module, 1)
	agenda := createAgenda(t, module, creator.MemberID)
	if _, err := module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{AgendaID: agenda.AgendaID}); err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	_, err := module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{MemberID: creator.MemberID, AgendaID: agenda.AgendaID, Choice: "MAYBE"})
	if !errors.Is(err, domainerrors.ErrInvalidVoteChoice) {
		t.Fatalf("expected invalid choice, got %v", err)
	}
	_, err = module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{MemberID: 42, AgendaID: agenda.AgendaID, Choice: "SIM"})
	if !errors.Is(err, domainerrors.ErrMemberNotFound) {
		t.Fatalf("expected unknown member, got %v", err)
	}

	vote, err := module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{MemberID: creator.MemberID, AgendaID: agenda.AgendaID, Choice: "yes"})
	if err != nil {
		t.Fatalf("alias choice rejected: %v", err)
	}
	if vote.Choice != "SIM" || vote.MemberName != creator.Name || vote.AgendaTitle != agenda.Title {
		t.Fatalf("unexpected vote %+v", vote)
	}

	_, err = module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{MemberID: creator.MemberID, AgendaID: agenda.AgendaID, Choice: "NAO"})
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) || !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected already-voted conflict, got %v", err)
	}
}

func TestTiedOutcomeAndTally(t *testing.T) {
	clock := newManualClock()
	module, _ := assemblyvoting.NewInMemoryModule(clock, nil, nil)
	ctx := context.Background()
	creator := registerMember(t, module, 1)
	agenda := createAgenda(t, module, creator.MemberID)
	session, err := module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{
		AgendaID:        agenda.AgendaID,
		DurationMinutes: intPtr(10),
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	choices := []string{"SIM", "NAO", "SIM", "NAO"}
	for i, choice := range choices {
		voter := registerMember(t, module, i+2)
		if _, err := module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{
			MemberID: voter.MemberID,
			AgendaID: agenda.AgendaID,
			Choice:   choice,
		}); err != nil {
			t.Fatalf("vote %d failed: %v", i, err)
		}
	}

	result, err := module.Handler.AgendaResultHandler(ctx, agenda.AgendaID)
	if err != nil {
		t.Fatalf("result failed: %v", err)
	}
	if result.YesVotes != 2 || result.NoVotes != 2 || result.TotalVotes != result.YesVotes+result.NoVotes {
		t.Fatalf("unexpected tally %+v", result)
	}

	clock.Advance(11 * time.Minute)
	finalized, err := module.Handler.GetSessionHandler(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if finalized.Status != "FINALIZADA" {
		t.Fatalf("expected finalized, got %s", finalized.Status)
	}
	reloaded, _ := module.Handler.GetAgendaHandler(ctx, agenda.AgendaID)
	if reloaded.Status != "EMPATADA" {
		t.Fatalf("expected tie, got %s", reloaded.Status)
	}
}

func TestReadsAfterFinalizationAreIdempotent(t *testing.T) {
	clock := newManualClock()
	module, store := assemblyvoting.NewInMemoryModule(clock, nil, nil)
	ctx := context.Background()
	creator := registerMember(t, module, 1)
	agenda := createAgenda(t, module, creator.MemberID)
	session, err := module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{AgendaID: agenda.AgendaID})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{
		MemberID: creator.MemberID,
		AgendaID: agenda.AgendaID,
		Choice:   "NAO",
	}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	clock.Advance(2 * time.Minute)
	first, err := module.Handler.GetSessionHandler(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	events := store.PendingOutboxCount()

	clock.Advance(time.Hour)
	second, err := module.Handler.GetSessionHandler(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	if first != second {
		t.Fatalf("repeated read changed the session: %+v vs %+v", first, second)
	}
	if got := store.PendingOutboxCount(); got != events {
		t.Fatalf("repeated read appended events: %d -> %d", events, got)
	}
	reloaded, _ := module.Handler.GetAgendaHandler(ctx, agenda.AgendaID)
	if reloaded.Status != "RECUSADA" {
		t.Fatalf("expected rejected outcome, got %s", reloaded.Status)
	}
}

func TestConcurrentVotesFromOneMemberRecordOnce(t *testing.T) {
	module, _ := assemblyvoting.NewInMemoryModule(newManualClock(), nil, nil)
	ctx := context.Background()
	creator := registerMember(t, module, 1)
	agenda := createAgenda(t, module, creator.MemberID)
	if _, err := module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{AgendaID: agenda.AgendaID}); err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	var accepted, duplicates atomic.Int32
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			_, err := module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{
				MemberID: creator.MemberID,
				AgendaID: agenda.AgendaID,
				Choice:   "SIM",
			})
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, domainerrors.ErrAlreadyVoted):
				duplicates.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected vote error: %v", err)
	}
	if accepted.Load() != 1 || duplicates.Load() != 15 {
		t.Fatalf("expected exactly one accepted vote, got %d accepted and %d duplicates", accepted.Load(), duplicates.Load())
	}

	result, _ := module.Handler.AgendaResultHandler(ctx, agenda.AgendaID)
	if result.TotalVotes != 1 {
		t.Fatalf("expected one stored vote, got %d", result.TotalVotes)
	}
}

func TestChangeVoteOnlyWhileOpen(t *testing.T) {
	clock := newManualClock()
	module, _ := assemblyvoting.NewInMemoryModule(clock, nil, nil)
	ctx := context.Background()
	creator := registerMember(t, module, 1)
	agenda := createAgenda(t, module, creator.MemberID)
	if _, err := module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{
		AgendaID:        agenda.AgendaID,
		DurationMinutes: intPtr(3),
	}); err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	vote, err := module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{
		MemberID: creator.MemberID,
		AgendaID: agenda.AgendaID,
		Choice:   "SIM",
	})
	if err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	clock.Advance(time.Minute)
	changed, err := module.Handler.ChangeVoteHandler(ctx, vote.VoteID, httptransport.ChangeVoteRequest{Choice: "NAO"})
	if err != nil {
		t.Fatalf("change vote failed: %v", err)
	}
	if changed.Choice != "NAO" || changed.RecordedAt != vote.RecordedAt {
		t.Fatalf("unexpected changed vote %+v", changed)
	}
	result, _ := module.Handler.AgendaResultHandler(ctx, agenda.AgendaID)
	if result.YesVotes != 0 || result.NoVotes != 1 {
		t.Fatalf("tally did not follow the change: %+v", result)
	}

	clock.Advance(5 * time.Minute)
	_, err = module.Handler.ChangeVoteHandler(ctx, vote.VoteID, httptransport.ChangeVoteRequest{Choice: "SIM"})
	if !errors.Is(err, domainerrors.ErrSessionClosed) {
		t.Fatalf("expected closed session, got %v", err)
	}
	if _, err := module.Handler.ChangeVoteHandler(ctx, 999, httptransport.ChangeVoteRequest{Choice: "SIM"}); !errors.Is(err, domainerrors.ErrVoteNotFound) {
		t.Fatalf("expected missing vote, got %v", err)
	}
}

func TestExtendPeriod(t *testing.T) {
	clock := newManualClock()
	module, _ := assemblyvoting.NewInMemoryModule(clock, nil, nil)
	ctx := context.Background()
	creator := registerMember(t, module, 1)
	agenda := createAgenda(t, module, creator.MemberID)
	session, err := module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{AgendaID: agenda.AgendaID})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	extended, err := module.Handler.ExtendPeriodHandler(ctx, session.SessionID, httptransport.ExtendPeriodRequest{AdditionalMinutes: intPtr(4)})
	if err != nil {
		t.Fatalf("extend failed: %v", err)
	}
	if extended.ClosesAt != "2026-03-10T14:05:00Z" {
		t.Fatalf("expected close at 14:05, got %s", extended.ClosesAt)
	}

	unchanged, err := module.Handler.ExtendPeriodHandler(ctx, session.SessionID, httptransport.ExtendPeriodRequest{})
	if err != nil || unchanged.ClosesAt != extended.ClosesAt {
		t.Fatalf("empty extension must be a no-op: %+v, %v", unchanged, err)
	}

	clock.Advance(6 * time.Minute)
	_, err = module.Handler.ExtendPeriodHandler(ctx, session.SessionID, httptransport.ExtendPeriodRequest{AdditionalMinutes: intPtr(10)})
	if !errors.Is(err, domainerrors.ErrSessionFinalized) || !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected finalized conflict, got %v", err)
	}
}

func TestAgendaEditAndDeleteRules(t *testing.T) {
	clock := newManualClock()
	module, _ := assemblyvoting.NewInMemoryModule(clock, nil, nil)
	ctx := context.Background()
	creator := registerMember(t, module, 1)
	agenda := createAgenda(t, module, creator.MemberID)

	updated, err := module.Handler.UpdateAgendaHandler(ctx, agenda.AgendaID, httptransport.UpdateAgendaRequest{
		Title:       "Budget 2027 (revised)",
		Description: "Second draft",
	})
	if err != nil {
		t.Fatalf("update agenda failed: %v", err)
	}
	if updated.Title != "Budget 2027 (revised)" {
		t.Fatalf("unexpected title %q", updated.Title)
	}

	if _, err := module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{AgendaID: agenda.AgendaID}); err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	_, err = module.Handler.UpdateAgendaHandler(ctx, agenda.AgendaID, httptransport.UpdateAgendaRequest{Title: "Too late"})
	if !errors.Is(err, domainerrors.ErrAgendaNotEditable) {
		t.Fatalf("expected not editable, got %v", err)
	}
	if err := module.Handler.DeleteAgendaHandler(ctx, agenda.AgendaID); !errors.Is(err, domainerrors.ErrAgendaVotingUnderway) {
		t.Fatalf("expected delete blocked while voting, got %v", err)
	}

	clock.Advance(2 * time.Minute)
	if err := module.Handler.DeleteAgendaHandler(ctx, agenda.AgendaID); err != nil {
		t.Fatalf("delete after finalization failed: %v", err)
	}
	if _, err := module.Handler.GetAgendaHandler(ctx, agenda.AgendaID); !errors.Is(err, domainerrors.ErrAgendaNotFound) {
		t.Fatalf("expected agenda gone, got %v", err)
	}
	sessions, err := module.Handler.ListSessionsHandler(ctx, queries.ListQuery{})
	if err != nil {
		t.Fatalf("list sessions failed: %v", err)
	}
	if sessions.TotalItems != 0 {
		t.Fatalf("expected session removed with its agenda, got %d", sessions.TotalItems)
	}
}

func TestMemberLifecycle(t *testing.T) {
	module, _ := assemblyvoting.NewInMemoryModule(newManualClock(), nil, nil)
	ctx := context.Background()
	author := registerMember(t, module, 1)
	bystander := registerMember(t, module, 2)
	createAgenda(t, module, author.MemberID)

	_, err := module.Handler.RegisterMemberHandler(ctx, httptransport.MemberRequest{
		Name:       "Clone",
		NationalID: author.NationalID,
		Email:      "clone@example.com",
	})
	if !errors.Is(err, domainerrors.ErrNationalIDTaken) {
		t.Fatalf("expected duplicate national id, got %v", err)
	}
	_, err = module.Handler.UpdateMemberHandler(ctx, bystander.MemberID, httptransport.MemberRequest{
		Name:       bystander.Name,
		NationalID: bystander.NationalID,
		Email:      author.Email,
	})
	if !errors.Is(err, domainerrors.ErrEmailTaken) {
		t.Fatalf("expected duplicate email, got %v", err)
	}
	renamed, err := module.Handler.UpdateMemberHandler(ctx, bystander.MemberID, httptransport.MemberRequest{
		Name:       "Renamed",
		NationalID: bystander.NationalID,
		Email:      bystander.Email,
	})
	if err != nil || renamed.Name != "Renamed" {
		t.Fatalf("self update failed: %+v, %v", renamed, err)
	}

	if err := module.Handler.DeleteMemberHandler(ctx, author.MemberID); !errors.Is(err, domainerrors.ErrMemberReferenced) {
		t.Fatalf("expected referenced member, got %v", err)
	}
	if err := module.Handler.DeleteMemberHandler(ctx, bystander.MemberID); err != nil {
		t.Fatalf("delete unreferenced member failed: %v", err)
	}

	page, err := module.Handler.ListMembersHandler(ctx, queries.ListQuery{})
	if err != nil {
		t.Fatalf("list members failed: %v", err)
	}
	if page.TotalItems != 1 || len(page.Items) != 1 || page.Items[0].MemberID != author.MemberID {
		t.Fatalf("unexpected member page %+v", page)
	}
}

func TestSessionCloserFinalizesUnreadSessions(t *testing.T) {
	clock := newManualClock()
	module, store := assemblyvoting.NewInMemoryModule(clock, nil, nil)
	ctx := context.Background()
	creator := registerMember(t, module, 1)
	agenda := createAgenda(t, module, creator.MemberID)
	if _, err := module.Handler.CreateSessionHandler(ctx, httptransport.CreateSessionRequest{AgendaID: agenda.AgendaID}); err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{
		MemberID: creator.MemberID,
		AgendaID: agenda.AgendaID,
		Choice:   "SIM",
	}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	clock.Advance(2 * time.Minute)
	if err := module.Closer.RunOnce(ctx); err != nil {
		t.Fatalf("closer failed: %v", err)
	}
	stored, err := store.GetAgenda(ctx, agenda.AgendaID)
	if err != nil {
		t.Fatalf("load agenda failed: %v", err)
	}
	if stored.Status != "APROVADA" {
		t.Fatalf("expected closer to approve agenda, got %s", stored.Status)
	}

	lagging, err := store.ListLaggingSessions(ctx, clock.Now(), 10)
	if err != nil {
		t.Fatalf("list lagging failed: %v", err)
	}
	if len(lagging) != 0 {
		t.Fatalf("expected no lagging sessions after a cycle, got %d", len(lagging))
	}
}
