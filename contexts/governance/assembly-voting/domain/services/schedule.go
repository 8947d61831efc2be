package services

import (
	"time"

	"assembleia/contexts/governance/assembly-voting/domain/entities"
	domainerrors "assembleia/contexts/governance/assembly-voting/domain/errors"
)

// Schedule is the creation request for a session window. StartAt/EndAt take
// precedence over DurationMinutes when either is set.
type Schedule struct {
	DurationMinutes *int
	StartAt         *time.Time
	EndAt           *time.Time
}

func (s Schedule) IsExplicit() bool {
	return s.StartAt != nil || s.EndAt != nil
}

// PlanWindow validates a schedule against now and returns the session window.
// Times are truncated to whole seconds before comparison.
func PlanWindow(schedule Schedule, now time.Time) (time.Time, time.Time, error) {
	now = now.UTC().Truncate(time.Second)
	if schedule.IsExplicit() {
		if schedule.StartAt == nil || schedule.EndAt == nil {
			return time.Time{}, time.Time{}, domainerrors.ErrScheduleIncomplete
		}
		start := schedule.StartAt.UTC().Truncate(time.Second)
		end := schedule.EndAt.UTC().Truncate(time.Second)
		if !start.After(now) {
			return time.Time{}, time.Time{}, domainerrors.ErrScheduleTooSoon
		}
		if !end.After(start) {
			return time.Time{}, time.Time{}, domainerrors.ErrSchedulePeriodShort
		}
		return start, end, nil
	}

	duration := entities.DefaultSessionDuration
	if schedule.DurationMinutes != nil {
		if *schedule.DurationMinutes < 1 || *schedule.DurationMinutes > entities.MaxWindowMinutes {
			return time.Time{}, time.Time{}, domainerrors.ErrInvalidDuration
		}
		duration = time.Duration(*schedule.DurationMinutes) * time.Minute
	}
	closes := now.Add(duration)
	if !closes.After(now) {
		return time.Time{}, time.Time{}, domainerrors.ErrInvalidDuration
	}
	return now, closes, nil
}

// Extension moves a session's closing instant forward. EndAt wins over
// AdditionalMinutes.
type Extension struct {
	EndAt             *time.Time
	AdditionalMinutes *int
}

// ExtendWindow returns the new closing instant, and false when the request
// carries neither field.
func ExtendWindow(session entities.VotingSession, ext Extension, now time.Time) (time.Time, bool, error) {
	now = now.UTC().Truncate(time.Second)
	if ext.EndAt != nil {
		end := ext.EndAt.UTC().Truncate(time.Second)
		if end.Before(now) {
			return time.Time{}, false, domainerrors.ErrEndInPast
		}
		if end.Before(session.OpensAt) {
			return time.Time{}, false, domainerrors.ErrEndBeforeOpening
		}
		return end, true, nil
	}
	if ext.AdditionalMinutes != nil {
		if *ext.AdditionalMinutes <= 0 || *ext.AdditionalMinutes > entities.MaxWindowMinutes {
			return time.Time{}, false, domainerrors.ErrInvalidExtension
		}
		end := session.ClosesAt.Add(time.Duration(*ext.AdditionalMinutes) * time.Minute)
		if !end.After(session.ClosesAt) {
			return time.Time{}, false, domainerrors.ErrInvalidExtension
		}
		return end, true, nil
	}
	return session.ClosesAt, false, nil
}
