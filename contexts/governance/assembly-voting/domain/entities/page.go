package entities

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// PageRequest is a zero-based page selection with an already validated
// sort column.
type PageRequest struct {
	Page      int
	Size      int
	SortField string
	Direction SortDirection
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

type Page[T any] struct {
	Items      []T
	Page       int
	Size       int
	TotalItems int64
}

func (p Page[T]) TotalPages() int {
	if p.Size <= 0 || p.TotalItems == 0 {
		return 0
	}
	return int((p.TotalItems + int64(p.Size) - 1) / int64(p.Size))
}
