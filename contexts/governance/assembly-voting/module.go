package assemblyvoting

import (
	"log/slog"

	httpadapter "assembleia/contexts/governance/assembly-voting/adapters/http"
	"assembleia/contexts/governance/assembly-voting/adapters/memory"
	application "assembleia/contexts/governance/assembly-voting/application"
	"assembleia/contexts/governance/assembly-voting/application/commands"
	"assembleia/contexts/governance/assembly-voting/application/queries"
	"assembleia/contexts/governance/assembly-voting/application/workers"
	"assembleia/contexts/governance/assembly-voting/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Closer  workers.SessionCloser
}

type Dependencies struct {
	Members  ports.MemberRepository
	Agendas  ports.AgendaRepository
	Sessions ports.SessionRepository
	Votes    ports.VoteRepository
	Outbox   ports.OutboxWriter
	Metrics  ports.MetricsRecorder
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger

	CloserBatchSize int
}

func NewModule(deps Dependencies) Module {
	events := application.EventSink{
		Outbox: deps.Outbox,
		IDGen:  deps.IDGen,
	}
	reconciler := application.SessionReconciler{
		Sessions: deps.Sessions,
		Agendas:  deps.Agendas,
		Votes:    deps.Votes,
		Events:   events,
		Metrics:  deps.Metrics,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Members: commands.MemberUseCase{
				Members: deps.Members,
				Clock:   deps.Clock,
				Logger:  deps.Logger,
			},
			MemberReads: queries.MemberQueries{
				Members: deps.Members,
			},
			Agendas: commands.AgendaUseCase{
				Agendas:    deps.Agendas,
				Members:    deps.Members,
				Reconciler: reconciler,
				Clock:      deps.Clock,
				Logger:     deps.Logger,
			},
			AgendaReads: queries.AgendaQueries{
				Agendas:    deps.Agendas,
				Reconciler: reconciler,
				Clock:      deps.Clock,
			},
			Sessions: commands.SessionUseCase{
				Sessions:   deps.Sessions,
				Agendas:    deps.Agendas,
				Reconciler: reconciler,
				Events:     events,
				Metrics:    deps.Metrics,
				Clock:      deps.Clock,
				Logger:     deps.Logger,
			},
			SessionReads: queries.SessionQueries{
				Sessions:   deps.Sessions,
				Reconciler: reconciler,
				Clock:      deps.Clock,
			},
			Votes: commands.VoteUseCase{
				Votes:      deps.Votes,
				Members:    deps.Members,
				Agendas:    deps.Agendas,
				Sessions:   deps.Sessions,
				Reconciler: reconciler,
				Events:     events,
				Metrics:    deps.Metrics,
				Clock:      deps.Clock,
				Logger:     deps.Logger,
			},
			VoteReads: queries.VoteQueries{
				Votes:   deps.Votes,
				Members: deps.Members,
				Agendas: deps.Agendas,
			},
			Logger: deps.Logger,
		},
		Closer: workers.SessionCloser{
			Sessions:   deps.Sessions,
			Reconciler: reconciler,
			Clock:      deps.Clock,
			BatchSize:  deps.CloserBatchSize,
			Logger:     deps.Logger,
		},
	}
}

// NewInMemoryModule wires every port to one memory store and returns the
// store alongside the module. The clock may be nil, in which case the
// store's wall clock is used.
func NewInMemoryModule(clock ports.Clock, metrics ports.MetricsRecorder, logger *slog.Logger) (Module, *memory.Store) {
	store := memory.NewStore()
	if clock == nil {
		clock = store
	}
	module := NewModule(Dependencies{
		Members:  store,
		Agendas:  store,
		Sessions: store,
		Votes:    store,
		Outbox:   store,
		Metrics:  metrics,
		Clock:    clock,
		IDGen:    store,
		Logger:   logger,
	})
	return module, store
}
