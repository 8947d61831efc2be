package queries

import (
	"context"

	application "assembleia/contexts/governance/assembly-voting/application"
	"assembleia/contexts/governance/assembly-voting/domain/entities"
	"assembleia/contexts/governance/assembly-voting/domain/services"
	"assembleia/contexts/governance/assembly-voting/ports"
)

// AgendaQueries return agenda items with their status derived at read time.
type AgendaQueries struct {
	Agendas    ports.AgendaRepository
	Reconciler application.SessionReconciler
	Clock      ports.Clock
}

func (q AgendaQueries) GetAgenda(ctx context.Context, agendaID int64) (entities.AgendaItem, error) {
	agenda, err := q.Agendas.GetAgenda(ctx, agendaID)
	if err != nil {
		return entities.AgendaItem{}, err
	}
	return q.Reconciler.ReconcileAgenda(ctx, agenda, application.Now(q.Clock))
}

func (q AgendaQueries) ListAgendas(ctx context.Context, query ListQuery) (entities.Page[entities.AgendaItem], error) {
	page, err := services.ResolvePageRequest(query.Page, query.Size, query.Sort, services.AgendaSortFields, "title")
	if err != nil {
		return entities.Page[entities.AgendaItem]{}, err
	}
	result, err := q.Agendas.ListAgendas(ctx, page)
	if err != nil {
		return entities.Page[entities.AgendaItem]{}, err
	}
	now := application.Now(q.Clock)
	for i, agenda := range result.Items {
		reconciled, err := q.Reconciler.ReconcileAgenda(ctx, agenda, now)
		if err != nil {
			return entities.Page[entities.AgendaItem]{}, err
		}
		result.Items[i] = reconciled
	}
	return result, nil
}
