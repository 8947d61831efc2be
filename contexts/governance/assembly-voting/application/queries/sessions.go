package queries

import (
	"context"

	application "assembleia/contexts/governance/assembly-voting/application"
	"assembleia/contexts/governance/assembly-voting/domain/entities"
	"assembleia/contexts/governance/assembly-voting/domain/services"
	"assembleia/contexts/governance/assembly-voting/ports"
)

type SessionQueries struct {
	Sessions   ports.SessionRepository
	Reconciler application.SessionReconciler
	Clock      ports.Clock
}

// GetSession recomputes the session state before returning it.
func (q SessionQueries) GetSession(ctx context.Context, sessionID int64) (application.SessionView, error) {
	session, err := q.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return application.SessionView{}, err
	}
	now := application.Now(q.Clock)
	session, agenda, err := q.Reconciler.ReconcileSession(ctx, session, now)
	if err != nil {
		return application.SessionView{}, err
	}
	return application.NewSessionView(session, agenda, now), nil
}

func (q SessionQueries) ListSessions(ctx context.Context, query ListQuery) (entities.Page[application.SessionView], error) {
	page, err := services.ResolvePageRequest(query.Page, query.Size, query.Sort, services.SessionSortFields, "opens_at")
	if err != nil {
		return entities.Page[application.SessionView]{}, err
	}
	result, err := q.Sessions.ListSessions(ctx, page)
	if err != nil {
		return entities.Page[application.SessionView]{}, err
	}
	now := application.Now(q.Clock)
	views := make([]application.SessionView, 0, len(result.Items))
	for _, session := range result.Items {
		session, agenda, err := q.Reconciler.ReconcileSession(ctx, session, now)
		if err != nil {
			return entities.Page[application.SessionView]{}, err
		}
		views = append(views, application.NewSessionView(session, agenda, now))
	}
	return entities.Page[application.SessionView]{
		Items:      views,
		Page:       result.Page,
		Size:       result.Size,
		TotalItems: result.TotalItems,
	}, nil
}
