package memory

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"

	"assembleia/contexts/governance/assembly-voting/domain/entities"
	domainerrors "assembleia/contexts/governance/assembly-voting/domain/errors"
	"assembleia/contexts/governance/assembly-voting/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type voteKey struct {
	memberID int64
	agendaID int64
}

// Store is an in-process implementation of every repository port. A single
// mutex serializes writers, which gives multi-record writes the same
// atomicity the SQL adapter gets from transactions.
type Store struct {
	mu sync.RWMutex

	members  map[int64]entities.Member
	agendas  map[int64]entities.AgendaItem
	sessions map[int64]entities.VotingSession
	votes    map[int64]entities.Vote
	outbox   map[string]outboxRecord

	voteIndex    map[voteKey]int64
	sessionIndex map[int64]int64

	nextMemberID  int64
	nextAgendaID  int64
	nextSessionID int64
	nextVoteID    int64
}

func NewStore() *Store {
	return &Store{
		members:      make(map[int64]entities.Member),
		agendas:      make(map[int64]entities.AgendaItem),
		sessions:     make(map[int64]entities.VotingSession),
		votes:        make(map[int64]entities.Vote),
		outbox:       make(map[string]outboxRecord),
		voteIndex:    make(map[voteKey]int64),
		sessionIndex: make(map[int64]int64),
	}
}

func (s *Store) CreateMember(_ context.Context, member entities.Member) (entities.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.members {
		if existing.NationalID == member.NationalID {
			return entities.Member{}, domainerrors.ErrNationalIDTaken
		}
		if existing.Email == member.Email {
			return entities.Member{}, domainerrors.ErrEmailTaken
		}
	}
	s.nextMemberID++
	member.MemberID = s.nextMemberID
	s.members[member.MemberID] = member
	return member, nil
}

func (s *Store) GetMember(_ context.Context, memberID int64) (entities.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, ok := s.members[memberID]
	if !ok {
		return entities.Member{}, domainerrors.ErrMemberNotFound
	}
	return member, nil
}

func (s *Store) FindMemberByNationalID(_ context.Context, nationalID string) (entities.Member, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, member := range s.members {
		if member.NationalID == nationalID {
			return member, true, nil
		}
	}
	return entities.Member{}, false, nil
}

func (s *Store) FindMemberByEmail(_ context.Context, email string) (entities.Member, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, member := range s.members {
		if strings.EqualFold(member.Email, email) {
			return member, true, nil
		}
	}
	return entities.Member{}, false, nil
}

func (s *Store) UpdateMember(_ context.Context, member entities.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[member.MemberID]; !ok {
		return domainerrors.ErrMemberNotFound
	}
	for id, existing := range s.members {
		if id == member.MemberID {
			continue
		}
		if existing.NationalID == member.NationalID {
			return domainerrors.ErrNationalIDTaken
		}
		if existing.Email == member.Email {
			return domainerrors.ErrEmailTaken
		}
	}
	s.members[member.MemberID] = member
	return nil
}

func (s *Store) DeleteMember(_ context.Context, memberID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[memberID]; !ok {
		return domainerrors.ErrMemberNotFound
	}
	delete(s.members, memberID)
	return nil
}

func (s *Store) ListMembers(_ context.Context, page entities.PageRequest) (entities.Page[entities.Member], error) {
	s.mu.RLock()
	items := make([]entities.Member, 0, len(s.members))
	for _, member := range s.members {
		items = append(items, member)
	}
	s.mu.RUnlock()

	slices.SortFunc(items, func(a, b entities.Member) int {
		var c int
		switch page.SortField {
		case "name":
			c = cmp.Compare(a.Name, b.Name)
		case "national_id":
			c = cmp.Compare(a.NationalID, b.NationalID)
		case "email":
			c = cmp.Compare(a.Email, b.Email)
		case "created_at":
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		return tieBreak(c, a.MemberID, b.MemberID, page.Direction)
	})
	return paginate(items, page), nil
}

func (s *Store) MemberHasReferences(_ context.Context, memberID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, agenda := range s.agendas {
		if agenda.CreatorID == memberID {
			return true, nil
		}
	}
	for key := range s.voteIndex {
		if key.memberID == memberID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateAgenda(_ context.Context, agenda entities.AgendaItem) (entities.AgendaItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[agenda.CreatorID]; !ok {
		return entities.AgendaItem{}, domainerrors.ErrMemberNotFound
	}
	s.nextAgendaID++
	agenda.AgendaID = s.nextAgendaID
	s.agendas[agenda.AgendaID] = agenda
	return agenda, nil
}

func (s *Store) GetAgenda(_ context.Context, agendaID int64) (entities.AgendaItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agenda, ok := s.agendas[agendaID]
	if !ok {
		return entities.AgendaItem{}, domainerrors.ErrAgendaNotFound
	}
	return agenda, nil
}

func (s *Store) UpdateAgenda(_ context.Context, agenda entities.AgendaItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agendas[agenda.AgendaID]; !ok {
		return domainerrors.ErrAgendaNotFound
	}
	s.agendas[agenda.AgendaID] = agenda
	return nil
}

func (s *Store) DeleteAgendaCascade(_ context.Context, agendaID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agendas[agendaID]; !ok {
		return domainerrors.ErrAgendaNotFound
	}
	for key, voteID := range s.voteIndex {
		if key.agendaID == agendaID {
			delete(s.votes, voteID)
			delete(s.voteIndex, key)
		}
	}
	if sessionID, ok := s.sessionIndex[agendaID]; ok {
		delete(s.sessions, sessionID)
		delete(s.sessionIndex, agendaID)
	}
	delete(s.agendas, agendaID)
	return nil
}

func (s *Store) ListAgendas(_ context.Context, page entities.PageRequest) (entities.Page[entities.AgendaItem], error) {
	s.mu.RLock()
	items := make([]entities.AgendaItem, 0, len(s.agendas))
	for _, agenda := range s.agendas {
		items = append(items, agenda)
	}
	s.mu.RUnlock()

	slices.SortFunc(items, func(a, b entities.AgendaItem) int {
		var c int
		switch page.SortField {
		case "title":
			c = cmp.Compare(a.Title, b.Title)
		case "created_at":
			c = a.CreatedAt.Compare(b.CreatedAt)
		case "status":
			c = cmp.Compare(a.Status, b.Status)
		}
		return tieBreak(c, a.AgendaID, b.AgendaID, page.Direction)
	})
	return paginate(items, page), nil
}

func (s *Store) CreateVote(_ context.Context, vote entities.Vote) (entities.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey{memberID: vote.MemberID, agendaID: vote.AgendaID}
	if _, ok := s.voteIndex[key]; ok {
		return entities.Vote{}, domainerrors.ErrAlreadyVoted
	}
	s.nextVoteID++
	vote.VoteID = s.nextVoteID
	s.votes[vote.VoteID] = vote
	s.voteIndex[key] = vote.VoteID
	return vote, nil
}

func (s *Store) GetVote(_ context.Context, voteID int64) (entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vote, ok := s.votes[voteID]
	if !ok {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	return vote, nil
}

func (s *Store) UpdateVoteChoice(_ context.Context, voteID int64, choice entities.VoteChoice, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vote, ok := s.votes[voteID]
	if !ok {
		return domainerrors.ErrVoteNotFound
	}
	vote.Choice = choice
	vote.UpdatedAt = updatedAt.UTC()
	s.votes[voteID] = vote
	return nil
}

func (s *Store) ExistsVote(_ context.Context, memberID int64, agendaID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.voteIndex[voteKey{memberID: memberID, agendaID: agendaID}]
	return ok, nil
}

func (s *Store) CountVotesByChoice(_ context.Context, agendaID int64, choice entities.VoteChoice) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, vote := range s.votes {
		if vote.AgendaID == agendaID && vote.Choice == choice {
			count++
		}
	}
	return count, nil
}

func (s *Store) CreateSession(
	_ context.Context,
	session entities.VotingSession,
	agenda *entities.AgendaItem,
) (entities.VotingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agendas[session.AgendaID]; !ok {
		return entities.VotingSession{}, domainerrors.ErrAgendaNotFound
	}
	if _, ok := s.sessionIndex[session.AgendaID]; ok {
		return entities.VotingSession{}, domainerrors.ErrSessionExists
	}
	s.nextSessionID++
	session.SessionID = s.nextSessionID
	s.sessions[session.SessionID] = session
	s.sessionIndex[session.AgendaID] = session.SessionID
	if agenda != nil {
		s.agendas[agenda.AgendaID] = *agenda
	}
	return session, nil
}

func (s *Store) GetSession(_ context.Context, sessionID int64) (entities.VotingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return entities.VotingSession{}, domainerrors.ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) FindSessionByAgenda(_ context.Context, agendaID int64) (entities.VotingSession, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionID, ok := s.sessionIndex[agendaID]
	if !ok {
		return entities.VotingSession{}, false, nil
	}
	return s.sessions[sessionID], true, nil
}

func (s *Store) ExistsSessionByAgenda(_ context.Context, agendaID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessionIndex[agendaID]
	return ok, nil
}

func (s *Store) SaveSessionState(_ context.Context, session entities.VotingSession, agenda entities.AgendaItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	storedSession, ok := s.sessions[session.SessionID]
	if !ok {
		return domainerrors.ErrSessionNotFound
	}
	current, ok := s.agendas[agenda.AgendaID]
	if !ok {
		return domainerrors.ErrAgendaNotFound
	}
	if storedSession.Status != entities.SessionStatusFinalized {
		storedSession.Status = session.Status
		storedSession.UpdatedAt = session.UpdatedAt
		s.sessions[session.SessionID] = storedSession
	}
	if !current.Status.IsTerminal() {
		current.Status = agenda.Status
		current.UpdatedAt = agenda.UpdatedAt
		s.agendas[agenda.AgendaID] = current
	}
	return nil
}

func (s *Store) UpdateSessionWindow(_ context.Context, session entities.VotingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[session.SessionID]
	if !ok {
		return domainerrors.ErrSessionNotFound
	}
	if current.Status == entities.SessionStatusFinalized {
		return domainerrors.ErrSessionFinalized
	}
	current.ClosesAt = session.ClosesAt
	current.UpdatedAt = session.UpdatedAt
	s.sessions[session.SessionID] = current
	return nil
}

func (s *Store) ListSessions(_ context.Context, page entities.PageRequest) (entities.Page[entities.VotingSession], error) {
	s.mu.RLock()
	items := make([]entities.VotingSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		items = append(items, session)
	}
	s.mu.RUnlock()

	slices.SortFunc(items, func(a, b entities.VotingSession) int {
		var c int
		switch page.SortField {
		case "opens_at":
			c = a.OpensAt.Compare(b.OpensAt)
		case "closes_at":
			c = a.ClosesAt.Compare(b.ClosesAt)
		case "status":
			c = cmp.Compare(a.Status, b.Status)
		}
		return tieBreak(c, a.SessionID, b.SessionID, page.Direction)
	})
	return paginate(items, page), nil
}

func (s *Store) ListLaggingSessions(_ context.Context, now time.Time, limit int) ([]entities.VotingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.VotingSession, 0)
	for _, session := range s.sessions {
		if session.Status == entities.SessionStatusFinalized {
			continue
		}
		due := session.ClosesAt.Before(now) ||
			(session.Status == entities.SessionStatusClosedPending && !session.OpensAt.After(now))
		if due {
			items = append(items, session)
		}
	}
	slices.SortFunc(items, func(a, b entities.VotingSession) int {
		return a.ClosesAt.Compare(b.ClosesAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	slices.SortFunc(items, func(a, b ports.OutboxMessage) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.OutboxID, b.OutboxID)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[outboxID]
	if !ok {
		return nil
	}
	row.published = true
	s.outbox[outboxID] = row
	return nil
}

// PendingOutboxCount is a test helper.
func (s *Store) PendingOutboxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, row := range s.outbox {
		if !row.published {
			count++
		}
	}
	return count
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func tieBreak(c int, leftID int64, rightID int64, direction entities.SortDirection) int {
	if c == 0 {
		c = cmp.Compare(leftID, rightID)
	}
	if direction == entities.SortDescending {
		return -c
	}
	return c
}

func paginate[T any](items []T, page entities.PageRequest) entities.Page[T] {
	total := int64(len(items))
	start := page.Offset()
	if start > len(items) {
		start = len(items)
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	return entities.Page[T]{
		Items:      append([]T(nil), items[start:end]...),
		Page:       page.Page,
		Size:       page.Size,
		TotalItems: total,
	}
}

var (
	_ ports.MemberRepository  = (*Store)(nil)
	_ ports.AgendaRepository  = (*Store)(nil)
	_ ports.VoteRepository    = (*Store)(nil)
	_ ports.SessionRepository = (*Store)(nil)
	_ ports.OutboxWriter      = (*Store)(nil)
	_ ports.OutboxRepository  = (*Store)(nil)
	_ ports.Clock             = (*Store)(nil)
	_ ports.IDGenerator       = (*Store)(nil)
)
