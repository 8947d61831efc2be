package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PageResponse[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

type MemberRequest struct {
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	Email      string `json:"email"`
}

type MemberResponse struct {
	MemberID   int64  `json:"member_id"`
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	Email      string `json:"email"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type CreateAgendaRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatorID   int64  `json:"creator_id"`
}

type UpdateAgendaRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type AgendaResponse struct {
	AgendaID    int64  `json:"agenda_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatorID   int64  `json:"creator_id"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// CreateSessionRequest opens a session now for duration_minutes (default 1)
// or schedules it when start_at/end_at (RFC 3339) are given.
type CreateSessionRequest struct {
	AgendaID        int64   `json:"agenda_id"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	StartAt         *string `json:"start_at,omitempty"`
	EndAt           *string `json:"end_at,omitempty"`
}

type ExtendPeriodRequest struct {
	EndAt             *string `json:"end_at,omitempty"`
	AdditionalMinutes *int    `json:"additional_minutes,omitempty"`
}

type SessionResponse struct {
	SessionID     int64  `json:"session_id"`
	AgendaID      int64  `json:"agenda_id"`
	AgendaTitle   string `json:"agenda_title"`
	OpensAt       string `json:"opens_at"`
	ClosesAt      string `json:"closes_at"`
	Status        string `json:"status"`
	OpenForVoting bool   `json:"open_for_voting"`
}

type CastVoteRequest struct {
	MemberID int64  `json:"member_id"`
	AgendaID int64  `json:"agenda_id"`
	Choice   string `json:"choice"`
}

type ChangeVoteRequest struct {
	Choice string `json:"choice"`
}

type VoteResponse struct {
	VoteID      int64  `json:"vote_id"`
	MemberID    int64  `json:"member_id"`
	MemberName  string `json:"member_name"`
	AgendaID    int64  `json:"agenda_id"`
	AgendaTitle string `json:"agenda_title"`
	Choice      string `json:"choice"`
	RecordedAt  string `json:"recorded_at"`
}

type ResultResponse struct {
	AgendaID    int64  `json:"agenda_id"`
	AgendaTitle string `json:"agenda_title"`
	YesVotes    int64  `json:"yes_votes"`
	NoVotes     int64  `json:"no_votes"`
	TotalVotes  int64  `json:"total_votes"`
}
