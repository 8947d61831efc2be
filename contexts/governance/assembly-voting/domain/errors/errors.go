package errors

import (
	"errors"
	"fmt"
)

// Kinds. Transport maps these to status codes; every concrete error below
// wraps exactly one of them.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrBusinessRule  = errors.New("business rule violation")
	ErrConflict      = errors.New("conflict")
	ErrInvalidInput  = errors.New("invalid input")
)

var (
	ErrMemberNotFound  = fmt.Errorf("member %w", ErrNotFound)
	ErrAgendaNotFound  = fmt.Errorf("agenda item %w", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("voting session %w", ErrNotFound)
	ErrVoteNotFound    = fmt.Errorf("vote %w", ErrNotFound)

	ErrNationalIDTaken = fmt.Errorf("a member with this national id %w", ErrAlreadyExists)
	ErrEmailTaken      = fmt.Errorf("a member with this email %w", ErrAlreadyExists)
	ErrSessionExists   = fmt.Errorf("a voting session for this agenda item %w", ErrAlreadyExists)

	ErrInvalidMemberInput  = fmt.Errorf("%w: member name, 11-digit national id and a valid email are required", ErrInvalidInput)
	ErrInvalidAgendaInput  = fmt.Errorf("%w: agenda title and creator are required", ErrInvalidInput)
	ErrInvalidVoteChoice   = fmt.Errorf("%w: vote choice must be SIM or NAO", ErrInvalidInput)
	ErrInvalidDuration     = fmt.Errorf("%w: session duration must be between one minute and ten years", ErrInvalidInput)
	ErrInvalidExtension    = fmt.Errorf("%w: additional minutes must be greater than zero and at most ten years", ErrInvalidInput)
	ErrInvalidSort         = fmt.Errorf("%w: unsupported sort field", ErrInvalidInput)
	ErrInvalidPageRequest  = fmt.Errorf("%w: page must be >= 0 and size between 1 and 100", ErrInvalidInput)
	ErrInvalidVoteRequest  = fmt.Errorf("%w: member, agenda item and vote choice are required", ErrInvalidInput)
	ErrInvalidSessionInput = fmt.Errorf("%w: agenda item is required", ErrInvalidInput)
	ErrInvalidTimestamp    = fmt.Errorf("%w: timestamps must be RFC 3339", ErrInvalidInput)

	ErrScheduleIncomplete  = fmt.Errorf("%w: start and end dates must be supplied together", ErrBusinessRule)
	ErrScheduleTooSoon     = fmt.Errorf("%w: session start must be at least one minute after now", ErrBusinessRule)
	ErrSchedulePeriodShort = fmt.Errorf("%w: session end must be after its start (minimum one-minute period)", ErrBusinessRule)
	ErrEndInPast           = fmt.Errorf("%w: new end date cannot be in the past", ErrBusinessRule)
	ErrEndBeforeOpening    = fmt.Errorf("%w: new end date cannot precede the session opening", ErrBusinessRule)
	ErrNoSession           = fmt.Errorf("%w: no voting session exists for this agenda item", ErrBusinessRule)
	ErrSessionNotOpen      = fmt.Errorf("%w: voting session is not open", ErrBusinessRule)
	ErrSessionClosed       = fmt.Errorf("%w: voting session is closed, the vote can no longer change", ErrBusinessRule)
	ErrAgendaNotEditable   = fmt.Errorf("%w: only agenda items in CRIADA status can be edited", ErrBusinessRule)
	ErrMemberReferenced    = fmt.Errorf("%w: member authored agenda items or cast votes", ErrBusinessRule)

	ErrAlreadyVoted         = fmt.Errorf("%w: member already voted on this agenda item", ErrConflict)
	ErrSessionFinalized     = fmt.Errorf("%w: voting session is finalized", ErrConflict)
	ErrAgendaVotingUnderway = fmt.Errorf("%w: agenda item is being voted", ErrConflict)
)
