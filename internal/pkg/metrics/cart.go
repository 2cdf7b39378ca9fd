package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics counts cart mutations and snapshot persistence results.
// A nil *CartMetrics is a valid no-op recorder.
type CartMetrics struct {
	mutations *prometheus.CounterVec
	persist   *prometheus.CounterVec
	sessions  prometheus.GaugeFunc
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// liveSessions may be nil.
func NewCartMetrics(reg prometheus.Registerer, liveSessions func() int) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart operations by kind and outcome.",
	}, []string{"op", "result"})
	persist := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persistence_total",
		Help: "Cart snapshot loads and saves by outcome.",
	}, []string{"op", "result"})
	reg.MustRegister(mutations, persist)

	m := &CartMetrics{mutations: mutations, persist: persist}
	if liveSessions != nil {
		m.sessions = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "cart_live_sessions",
			Help: "Carts currently held in memory.",
		}, func() float64 { return float64(liveSessions()) })
		reg.MustRegister(m.sessions)
	}
	return m
}

// ObserveMutation counts one cart operation
func (m *CartMetrics) ObserveMutation(op string, err error) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(op), outcome(err)).Inc()
}

// ObservePersist counts one snapshot load or save
func (m *CartMetrics) ObservePersist(op string, err error) {
	if m == nil || m.persist == nil {
		return
	}
	m.persist.WithLabelValues(normalizeLabel(op), outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}
