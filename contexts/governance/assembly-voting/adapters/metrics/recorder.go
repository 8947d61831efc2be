package metrics

import (
	"sync"

	"assembleia/contexts/governance/assembly-voting/domain/entities"
	"assembleia/contexts/governance/assembly-voting/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes assembly domain counters to Prometheus. Counters are nil
// until Register is called; a nil or unregistered Recorder drops samples.
type Recorder struct {
	votesRecorded     *prometheus.CounterVec
	votesChanged      *prometheus.CounterVec
	sessionsOpened    prometheus.Counter
	sessionsFinalized *prometheus.CounterVec

	registerOnce sync.Once
}

func NewRecorder(registry prometheus.Registerer) *Recorder {
	recorder := &Recorder{}
	recorder.Register(registry)
	return recorder
}

// Register registers the counters with registry. Only the first call has an
// effect.
func (r *Recorder) Register(registry prometheus.Registerer) {
	if registry == nil {
		return
	}
	r.registerOnce.Do(func() {
		factory := promauto.With(registry)
		r.votesRecorded = factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assembleia",
			Name:      "votes_recorded_total",
			Help:      "Votes recorded, by choice.",
		}, []string{"choice"})
		r.votesChanged = factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assembleia",
			Name:      "votes_changed_total",
			Help:      "Vote choices overwritten while a session was open, by new choice.",
		}, []string{"choice"})
		r.sessionsOpened = factory.NewCounter(prometheus.CounterOpts{
			Namespace: "assembleia",
			Name:      "sessions_opened_total",
			Help:      "Voting sessions that entered the open state.",
		})
		r.sessionsFinalized = factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assembleia",
			Name:      "sessions_finalized_total",
			Help:      "Voting sessions finalized, by agenda outcome.",
		}, []string{"outcome"})
	})
}

func (r *Recorder) VoteRecorded(choice entities.VoteChoice) {
	if r == nil || r.votesRecorded == nil {
		return
	}
	r.votesRecorded.WithLabelValues(string(choice)).Inc()
}

func (r *Recorder) VoteChanged(choice entities.VoteChoice) {
	if r == nil || r.votesChanged == nil {
		return
	}
	r.votesChanged.WithLabelValues(string(choice)).Inc()
}

func (r *Recorder) SessionOpened() {
	if r == nil || r.sessionsOpened == nil {
		return
	}
	r.sessionsOpened.Inc()
}

func (r *Recorder) SessionFinalized(outcome entities.AgendaStatus) {
	if r == nil || r.sessionsFinalized == nil {
		return
	}
	r.sessionsFinalized.WithLabelValues(string(outcome)).Inc()
}

var _ ports.MetricsRecorder = (*Recorder)(nil)
