package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the dispatch counters. Registration is explicit so tests can
// construct throwaway instances without colliding in the default registry.
type Metrics struct {
	Dispatched prometheus.Counter
	Delivered  prometheus.Counter
	Failed     prometheus.Counter
	DeadTokens prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_dispatch_total",
			Help: "Total dispatch calls received.",
		}),
		Delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_delivered_total",
			Help: "Total deliveries the gateway confirmed.",
		}),
		Failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_failed_total",
			Help: "Total delivery attempts that did not succeed.",
		}),
		DeadTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_dead_tokens_total",
			Help: "Total device tokens invalidated after a terminal gateway rejection.",
		}),
	}
}

// Register adds the counters to the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(m.Dispatched, m.Delivered, m.Failed, m.DeadTokens)
}

func (m *Metrics) IncDispatched() { m.Dispatched.Inc() }
func (m *Metrics) IncDelivered()  { m.Delivered.Inc() }
func (m *Metrics) IncFailed()     { m.Failed.Inc() }
func (m *Metrics) IncDeadTokens() { m.DeadTokens.Inc() }
