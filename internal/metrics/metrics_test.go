package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeIsIdempotent(t *testing.T) {
	first := Initialize()
	second := Initialize()
	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.Same(t, first, Get())
}

func TestRecordNotification(t *testing.T) {
	m := Initialize()
	before := testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("like_post", "delivered"))
	RecordNotification("like_post", "delivered")
	after := testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("like_post", "delivered"))
	assert.Equal(t, before+1, after)
}

func TestWebSocketGauge(t *testing.T) {
	m := Initialize()
	before := testutil.ToFloat64(m.WebSocketConnections)
	AddWebSocketConnections(2)
	AddWebSocketConnections(-1)
	assert.Equal(t, before+1, testutil.ToFloat64(m.WebSocketConnections))
}

func TestCollectorsUseNamespace(t *testing.T) {
	m := Initialize()
	RecordDoctorDecision("approved")

	count, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "carecircle_doctors_approval_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.DoctorDecisions.WithLabelValues("approved")), 1.0)
}
