package queries

import (
	"context"

	"assembleia/contexts/governance/assembly-voting/domain/entities"
	"assembleia/contexts/governance/assembly-voting/domain/services"
	"assembleia/contexts/governance/assembly-voting/ports"
)

// ListQuery is raw paging input as received from transport.
type ListQuery struct {
	Page int
	Size int
	Sort string
}

type MemberQueries struct {
	Members ports.MemberRepository
}

func (q MemberQueries) GetMember(ctx context.Context, memberID int64) (entities.Member, error) {
	return q.Members.GetMember(ctx, memberID)
}

// ListMembers pages members, sorted by name unless asked otherwise.
func (q MemberQueries) ListMembers(ctx context.Context, query ListQuery) (entities.Page[entities.Member], error) {
	page, err := services.ResolvePageRequest(query.Page, query.Size, query.Sort, services.MemberSortFields, "name")
	if err != nil {
		return entities.Page[entities.Member]{}, err
	}
	return q.Members.ListMembers(ctx, page)
}
