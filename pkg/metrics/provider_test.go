/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"strings"
	"testing"

	"github.com/hyperledger/fabric-lib-go/common/metrics"
	"github.com/hyperledger/fabric-lib-go/common/metrics/disabled"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/fabric-ca-enroll/pkg/core/mocks"
)

var testCounter = metrics.CounterOpts{
	Namespace:  "enroll",
	Name:       "test_total",
	Help:       "test counter",
	LabelNames: []string{"outcome"},
}

func TestPrometheusCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.NewCounter(testCounter).With("outcome", "success").Add(2)
	// a second registration shares the collector
	p.NewCounter(testCounter).With("outcome", "success").Add(1)

	expected := `
# HELP enroll_test_total test counter
# TYPE enroll_test_total counter
enroll_test_total{outcome="success"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "enroll_test_total"))
}

func TestPrometheusGaugeAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	g := p.NewGauge(metrics.GaugeOpts{Namespace: "enroll", Name: "in_flight", Help: "in flight", LabelNames: []string{"workflow"}})
	g.With("workflow", "user").Add(2)
	g.With("workflow", "user").Add(-1)
	g.With("workflow", "admin").Set(5)

	h := p.NewHistogram(metrics.HistogramOpts{Namespace: "enroll", Name: "duration", Help: "duration",
		LabelNames: []string{"workflow"}, Buckets: []float64{0.1, 1}})
	h.With("workflow", "user").Observe(0.5)

	count, err := testutil.GatherAndCount(reg, "enroll_in_flight", "enroll_duration")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider("", nil)
	require.NoError(t, err)
	assert.IsType(t, &disabled.Provider{}, p)

	p, err = NewProvider(PrometheusProvider, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.IsType(t, &Prometheus{}, p)

	_, err = NewProvider("statsd", nil)
	assert.Error(t, err)
}

func TestConfigFromBackend(t *testing.T) {
	cfg := ConfigFromBackend(&mocks.MockConfigBackend{KeyValueMap: map[string]interface{}{
		"metrics.provider": "Prometheus",
	}})
	assert.Equal(t, PrometheusProvider, cfg.Provider)
}
