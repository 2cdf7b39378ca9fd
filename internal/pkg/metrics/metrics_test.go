package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCartMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg, func() int { return 3 })

	m.ObserveMutation("add", nil)
	m.ObserveMutation("add", nil)
	m.ObserveMutation("add", errors.New("not found"))
	m.ObservePersist("save", errors.New("timeout"))
	m.ObservePersist("", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues("add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("add", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persist.WithLabelValues("save", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persist.WithLabelValues("unknown", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessions))
}

func TestCartMetrics_NilSafe(t *testing.T) {
	var m *CartMetrics
	assert.NotPanics(t, func() {
		m.ObserveMutation("add", nil)
		m.ObservePersist("save", nil)
	})

	unregistered := NewCartMetrics(nil, nil)
	assert.NotPanics(t, func() { unregistered.ObserveMutation("add", nil) })
}

func TestHTTPMetrics_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHTTPMetrics(reg)

	h.ObserveRequest("GET", "/api/v1/cart", 200, 15*time.Millisecond)
	h.ObserveRequest("GET", "", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.requests.WithLabelValues("GET", "/api/v1/cart", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.requests.WithLabelValues("GET", "unknown", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(h.duration))

	var nilMetrics *HTTPMetrics
	assert.NotPanics(t, func() { nilMetrics.ObserveRequest("GET", "/", 200, 0) })
}
