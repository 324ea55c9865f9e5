package admission

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/EgorLis/kosbot/internal/roster"
)

// Metrics — счётчики попыток и исходов. nil-safe: без метрик методы ничего не делают.
type Metrics struct {
	attempts *prometheus.CounterVec
	outcomes *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kosbot",
			Subsystem: "admission",
			Name:      "attempts_total",
			Help:      "Admission attempts, including retries.",
		}, []string{"roster"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kosbot",
			Subsystem: "admission",
			Name:      "outcomes_total",
			Help:      "Admission results by final state.",
		}, []string{"roster", "state"}),
	}
	for _, c := range []prometheus.Collector{m.attempts, m.outcomes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) attempt(k roster.Kind) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(k.String()).Inc()
}

func (m *Metrics) outcome(k roster.Kind, s State) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(k.String(), s.String()).Inc()
}
