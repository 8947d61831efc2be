package services

import (
	"slices"
	"strings"

	"assembleia/contexts/governance/assembly-voting/domain/entities"
	domainerrors "assembleia/contexts/governance/assembly-voting/domain/errors"
)

var (
	MemberSortFields  = []string{"id", "name", "national_id", "email", "created_at"}
	AgendaSortFields  = []string{"id", "title", "created_at", "status"}
	SessionSortFields = []string{"id", "opens_at", "closes_at", "status"}
)

// ResolvePageRequest validates raw paging input. sort is "field" or
// "field,asc|desc"; an empty sort falls back to defaultField ascending and a
// zero size to DefaultPageSize.
func ResolvePageRequest(page int, size int, sort string, allowed []string, defaultField string) (entities.PageRequest, error) {
	if size == 0 {
		size = entities.DefaultPageSize
	}
	if page < 0 || size < 1 || size > entities.MaxPageSize {
		return entities.PageRequest{}, domainerrors.ErrInvalidPageRequest
	}

	field := defaultField
	direction := entities.SortAscending
	if raw := strings.TrimSpace(sort); raw != "" {
		parts := strings.SplitN(raw, ",", 2)
		field = strings.ToLower(strings.TrimSpace(parts[0]))
		if len(parts) == 2 {
			switch strings.ToLower(strings.TrimSpace(parts[1])) {
			case "asc", "":
				direction = entities.SortAscending
			case "desc":
				direction = entities.SortDescending
			default:
				return entities.PageRequest{}, domainerrors.ErrInvalidSort
			}
		}
	}
	if !slices.Contains(allowed, field) {
		return entities.PageRequest{}, domainerrors.ErrInvalidSort
	}
	return entities.PageRequest{
		Page:      page,
		Size:      size,
		SortField: field,
		Direction: direction,
	}, nil
}

