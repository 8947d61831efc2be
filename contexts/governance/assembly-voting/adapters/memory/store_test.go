package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"assembleia/contexts/governance/assembly-voting/domain/entities"
	domainerrors "assembleia/contexts/governance/assembly-voting/domain/errors"
	"assembleia/contexts/governance/assembly-voting/ports"
)

var t0 = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func seedAgenda(t *testing.T, store *Store) (entities.Member, entities.AgendaItem) {
	t.Helper()
	ctx := context.Background()
	member, err := store.CreateMember(ctx, entities.Member{Name: "Ana", NationalID: "12345678901", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("create member failed: %v", err)
	}
	agenda, err := store.CreateAgenda(ctx, entities.AgendaItem{
		Title:     "Budget",
		CreatorID: member.MemberID,
		Status:    entities.AgendaStatusCreated,
	})
	if err != nil {
		t.Fatalf("create agenda failed: %v", err)
	}
	return member, agenda
}

func TestMemberUniqueness(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	seedAgenda(t, store)

	_, err := store.CreateMember(ctx, entities.Member{Name: "Bia", NationalID: "12345678901", Email: "bia@example.com"})
	if !errors.Is(err, domainerrors.ErrNationalIDTaken) {
		t.Fatalf("expected national id conflict, got %v", err)
	}
	_, err = store.CreateMember(ctx, entities.Member{Name: "Bia", NationalID: "98765432100", Email: "ana@example.com"})
	if !errors.Is(err, domainerrors.ErrEmailTaken) {
		t.Fatalf("expected email conflict, got %v", err)
	}
	if _, found, _ := store.FindMemberByEmail(ctx, "ANA@example.com"); !found {
		t.Fatalf("email lookup must ignore case")
	}
}

func TestCreateVoteRejectsDuplicatePair(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	member, agenda := seedAgenda(t, store)

	vote := entities.Vote{MemberID: member.MemberID, AgendaID: agenda.AgendaID, Choice: entities.VoteChoiceYes, RecordedAt: t0}
	if _, err := store.CreateVote(ctx, vote); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	if _, err := store.CreateVote(ctx, vote); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}
	exists, _ := store.ExistsVote(ctx, member.MemberID, agenda.AgendaID)
	if !exists {
		t.Fatalf("expected vote to exist")
	}
	referenced, _ := store.MemberHasReferences(ctx, member.MemberID)
	if !referenced {
		t.Fatalf("voter must be referenced")
	}
}

func TestSaveSessionStateKeepsTerminalStates(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_, agenda := seedAgenda(t, store)

	session, err := store.CreateSession(ctx, entities.VotingSession{
		AgendaID: agenda.AgendaID,
		OpensAt:  t0,
		ClosesAt: t0.Add(time.Minute),
		Status:   entities.SessionStatusOpen,
	}, nil)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if exists, _ := store.ExistsSessionByAgenda(ctx, agenda.AgendaID); !exists {
		t.Fatalf("expected session to exist for agenda")
	}
	if _, err := store.CreateSession(ctx, session, nil); !errors.Is(err, domainerrors.ErrSessionExists) {
		t.Fatalf("expected duplicate session, got %v", err)
	}

	session.Status = entities.SessionStatusFinalized
	agenda.Status = entities.AgendaStatusApproved
	if err := store.SaveSessionState(ctx, session, agenda); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	session.Status = entities.SessionStatusOpen
	agenda.Status = entities.AgendaStatusRejected
	if err := store.SaveSessionState(ctx, session, agenda); err != nil {
		t.Fatalf("late save failed: %v", err)
	}
	storedSession, _ := store.GetSession(ctx, session.SessionID)
	storedAgenda, _ := store.GetAgenda(ctx, agenda.AgendaID)
	if storedSession.Status != entities.SessionStatusFinalized || storedAgenda.Status != entities.AgendaStatusApproved {
		t.Fatalf("terminal states overwritten: %s / %s", storedSession.Status, storedAgenda.Status)
	}

	session.ClosesAt = t0.Add(time.Hour)
	if err := store.UpdateSessionWindow(ctx, session); !errors.Is(err, domainerrors.ErrSessionFinalized) {
		t.Fatalf("expected finalized session to reject window changes, got %v", err)
	}
	if storedSession, _ = store.GetSession(ctx, session.SessionID); !storedSession.ClosesAt.Equal(t0.Add(time.Minute)) {
		t.Fatalf("finalized window moved to %s", storedSession.ClosesAt)
	}
}

func TestDeleteAgendaCascade(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	member, agenda := seedAgenda(t, store)

	session, _ := store.CreateSession(ctx, entities.VotingSession{AgendaID: agenda.AgendaID, OpensAt: t0, ClosesAt: t0.Add(time.Minute)}, nil)
	vote, _ := store.CreateVote(ctx, entities.Vote{MemberID: member.MemberID, AgendaID: agenda.AgendaID, Choice: entities.VoteChoiceNo})

	if err := store.DeleteAgendaCascade(ctx, agenda.AgendaID); err != nil {
		t.Fatalf("cascade delete failed: %v", err)
	}
	if _, err := store.GetSession(ctx, session.SessionID); !errors.Is(err, domainerrors.ErrSessionNotFound) {
		t.Fatalf("expected session removed, got %v", err)
	}
	if _, err := store.GetVote(ctx, vote.VoteID); !errors.Is(err, domainerrors.ErrVoteNotFound) {
		t.Fatalf("expected vote removed, got %v", err)
	}
	if referenced, _ := store.MemberHasReferences(ctx, member.MemberID); referenced {
		t.Fatalf("member still referenced after cascade")
	}
	if err := store.DeleteAgendaCascade(ctx, agenda.AgendaID); !errors.Is(err, domainerrors.ErrAgendaNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestListMembersPagesAndSorts(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	names := []string{"Carla", "Ana", "Bruno"}
	for i, name := range names {
		if _, err := store.CreateMember(ctx, entities.Member{
			Name:       name,
			NationalID: "1000000000" + string(rune('0'+i)),
			Email:      name + "@example.com",
		}); err != nil {
			t.Fatalf("create %s failed: %v", name, err)
		}
	}

	page, err := store.ListMembers(ctx, entities.PageRequest{Page: 0, Size: 2, SortField: "name", Direction: entities.SortAscending})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.TotalItems != 3 || page.TotalPages() != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Items[0].Name != "Ana" || page.Items[1].Name != "Bruno" {
		t.Fatalf("unexpected order %s, %s", page.Items[0].Name, page.Items[1].Name)
	}

	last, _ := store.ListMembers(ctx, entities.PageRequest{Page: 0, Size: 1, SortField: "name", Direction: entities.SortDescending})
	if last.Items[0].Name != "Carla" {
		t.Fatalf("expected Carla first descending, got %s", last.Items[0].Name)
	}
	beyond, _ := store.ListMembers(ctx, entities.PageRequest{Page: 5, Size: 10, SortField: "name"})
	if len(beyond.Items) != 0 || beyond.TotalItems != 3 {
		t.Fatalf("unexpected page past the end %+v", beyond)
	}
}

func TestListLaggingSessions(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	member, _ := seedAgenda(t, store)

	windows := []struct {
		opens, closes time.Duration
		status        entities.SessionStatus
	}{
		{-10 * time.Minute, -time.Minute, entities.SessionStatusOpen},
		{-time.Minute, time.Hour, entities.SessionStatusClosedPending},
		{-time.Minute, time.Hour, entities.SessionStatusOpen},
		{time.Minute, time.Hour, entities.SessionStatusClosedPending},
		{-time.Hour, -time.Minute, entities.SessionStatusFinalized},
	}
	for _, w := range windows {
		agenda, _ := store.CreateAgenda(ctx, entities.AgendaItem{Title: "item", CreatorID: member.MemberID, Status: entities.AgendaStatusCreated})
		if _, err := store.CreateSession(ctx, entities.VotingSession{
			AgendaID: agenda.AgendaID,
			OpensAt:  t0.Add(w.opens),
			ClosesAt: t0.Add(w.closes),
			Status:   w.status,
		}, nil); err != nil {
			t.Fatalf("create session failed: %v", err)
		}
	}

	lagging, err := store.ListLaggingSessions(ctx, t0, 10)
	if err != nil {
		t.Fatalf("list lagging failed: %v", err)
	}
	if len(lagging) != 2 {
		t.Fatalf("expected the expired and the due pending session, got %d", len(lagging))
	}
	if !lagging[0].ClosesAt.Before(lagging[1].ClosesAt) {
		t.Fatalf("expected lagging sessions ordered by close time")
	}
	limited, _ := store.ListLaggingSessions(ctx, t0, 1)
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestOutboxAppendIsIdempotentPerEventID(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	envelope := ports.EventEnvelope{
		EventID:      "evt-1",
		EventType:    "assembly.session.finalized",
		OccurredAt:   t0,
		PartitionKey: "1",
		Data:         []byte(`{"agenda_id":1}`),
	}
	if err := store.AppendOutbox(ctx, envelope); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := store.AppendOutbox(ctx, envelope); err != nil {
		t.Fatalf("replayed append failed: %v", err)
	}
	if store.PendingOutboxCount() != 1 {
		t.Fatalf("expected one pending row, got %d", store.PendingOutboxCount())
	}

	altered := envelope
	altered.Data = []byte(`{"agenda_id":2}`)
	if err := store.AppendOutbox(ctx, altered); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict for a different payload, got %v", err)
	}

	pending, _ := store.ListPendingOutbox(ctx, 10)
	if len(pending) != 1 || pending[0].OutboxID != "evt-1" {
		t.Fatalf("unexpected pending rows %+v", pending)
	}
	if err := store.MarkOutboxPublished(ctx, "evt-1", t0); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	if store.PendingOutboxCount() != 0 {
		t.Fatalf("expected no pending rows after publish")
	}
}
