package fcgi

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments the acceptor and connection session with Prometheus
// counters/gauges, generalizing the ambient observability caddy builds
// around every listener it owns. A Server with a nil Metrics records
// nothing.
type Metrics struct {
	connectionsAccepted prometheus.Counter
	connectionsActive   prometheus.Gauge
	requestsHandled     *prometheus.CounterVec
	handlerPanics       prometheus.Counter
}

// NewMetrics constructs a Metrics instance and registers its collectors
// with reg. Passing prometheus.DefaultRegisterer wires it into the
// process-wide default registry used by promhttp.Handler().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fcgi",
			Name:      "connections_accepted_total",
			Help:      "Total FastCGI connections accepted by the server.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fcgi",
			Name:      "connections_active",
			Help:      "FastCGI connections currently being served.",
		}),
		requestsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fcgi",
			Name:      "requests_handled_total",
			Help:      "Total Responder requests handled, by outcome.",
		}, []string{"outcome"}),
		handlerPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fcgi",
			Name:      "handler_panics_total",
			Help:      "Total handler invocations that panicked.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.connectionsAccepted, m.connectionsActive, m.requestsHandled, m.handlerPanics)
	}
	return m
}

func (m *Metrics) connectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
	m.connectionsActive.Inc()
}

func (m *Metrics) connectionClosed() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

func (m *Metrics) requestHandled(outcome string) {
	if m == nil {
		return
	}
	m.requestsHandled.WithLabelValues(outcome).Inc()
}

func (m *Metrics) handlerPanicked() {
	if m == nil {
		return
	}
	m.handlerPanics.Inc()
}
