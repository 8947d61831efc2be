package workers

import (
	"context"
	"log/slog"

	application "assembleia/contexts/governance/assembly-voting/application"
	"assembleia/contexts/governance/assembly-voting/ports"
)

// SessionCloser applies due transitions to sessions nobody has read since
// their window moved. It runs the same reconciliation as the read paths, so
// racing a request is harmless.
type SessionCloser struct {
	Sessions   ports.SessionRepository
	Reconciler application.SessionReconciler
	Clock      ports.Clock
	BatchSize  int
	Logger     *slog.Logger
}

func (c SessionCloser) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	limit := c.BatchSize
	if limit <= 0 {
		limit = 100
	}
	now := application.Now(c.Clock)

	lagging, err := c.Sessions.ListLaggingSessions(ctx, now, limit)
	if err != nil {
		logger.Error("lagging session list failed",
			"event", "assembly_session_closer_list_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(lagging) == 0 {
		logger.Debug("session closer found nothing to do",
			"event", "assembly_session_closer_noop",
			"module", application.ModuleName,
			"layer", "worker",
		)
		return nil
	}

	for _, session := range lagging {
		if _, _, err := c.Reconciler.ReconcileSession(ctx, session, now); err != nil {
			logger.Error("session reconciliation failed",
				"event", "assembly_session_closer_reconcile_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"session_id", session.SessionID,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("session closer cycle completed",
		"event", "assembly_session_closer_completed",
		"module", application.ModuleName,
		"layer", "worker",
		"reconciled_count", len(lagging),
	)
	return nil
}
