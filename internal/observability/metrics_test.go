package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_CustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.ModerationDecisions.WithLabelValues("local", "unsafe").Inc()
	m.ModerationDecisions.WithLabelValues("local", "unsafe").Inc()
	m.FeedSize.Set(7)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[fam.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[fam.GetName()] += metric.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, 2.0, values["test_moderation_decisions_total"])
	assert.Equal(t, 7.0, values["test_feed_size"])
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics("dup", reg)

	assert.Panics(t, func() {
		NewMetrics("dup", reg)
	})
}
