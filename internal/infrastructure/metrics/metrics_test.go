package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("shopify", "created", 20*time.Millisecond)
	m.ObserveRequest("shopify", "created", 30*time.Millisecond)
	m.ObserveRequest("woocommerce", "auth_failed", time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("shopify", "created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("woocommerce", "auth_failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
}

func TestMetrics_ObserveNotification(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveNotification("sent")
	m.ObserveNotification("failed")
	m.ObserveNotification("failed")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("sent")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("failed")))
}

func TestMetrics_Registered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveRequest("shopify", "updated", time.Millisecond)
	m.ObserveNotification("sent")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"order_ingest_requests_total",
		"order_ingest_duration_seconds",
		"order_ingest_notifications_total",
	}, names)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("shopify", "created", time.Millisecond)
		m.ObserveNotification("sent")
	})
}
