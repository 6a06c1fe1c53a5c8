package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Webhook("orders/create", "processed")
	m.Webhook("orders/create", "processed")
	m.SyncRecords("product", "ok", 3)
	m.SyncRecords("product", "ok", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.WebhooksTotal.WithLabelValues("orders/create", "processed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SyncRecordsTotal.WithLabelValues("product", "ok")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Webhook("x", "y")
		m.SyncTenant("ok")
		m.Upstream("products", "ok")
		m.Event("cart_abandoned", "ok")
	})
}
