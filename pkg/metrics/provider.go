/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metrics provides the metrics providers used by the enrollment
// components: a Prometheus provider built on go-kit and a disabled provider.
package metrics

import (
	kitmetrics "github.com/go-kit/kit/metrics/prometheus"
	"github.com/hyperledger/fabric-lib-go/common/metrics"
	"github.com/hyperledger/fabric-lib-go/common/metrics/disabled"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/logging"
)

var logger = logging.NewLogger("enroll/operations")

// Provider names
const (
	PrometheusProvider = "prometheus"
	DisabledProvider   = "disabled"
)

// Prometheus registers go-kit backed collectors with a Prometheus registerer
type Prometheus struct {
	registerer prometheus.Registerer
}

// NewPrometheus returns a provider registering collectors with reg, or
// with the default registry when reg is nil
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Prometheus{registerer: reg}
}

// NewProvider returns the provider with the given name. An empty name
// disables metrics.
func NewProvider(name string, reg prometheus.Registerer) (metrics.Provider, error) {
	switch name {
	case PrometheusProvider:
		return NewPrometheus(reg), nil
	case DisabledProvider, "":
		return &disabled.Provider{}, nil
	default:
		return nil, errors.Errorf("unsupported metrics provider [%s]", name)
	}
}

// NewCounter creates or reuses a counter vector
func (p *Prometheus) NewCounter(o metrics.CounterOpts) metrics.Counter {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: o.Namespace,
		Subsystem: o.Subsystem,
		Name:      o.Name,
		Help:      o.Help,
	}, o.LabelNames)
	cv = register(p.registerer, cv)
	return &Counter{Counter: kitmetrics.NewCounter(cv)}
}

// NewGauge creates or reuses a gauge vector
func (p *Prometheus) NewGauge(o metrics.GaugeOpts) metrics.Gauge {
	gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: o.Namespace,
		Subsystem: o.Subsystem,
		Name:      o.Name,
		Help:      o.Help,
	}, o.LabelNames)
	gv = register(p.registerer, gv)
	return &Gauge{Gauge: kitmetrics.NewGauge(gv)}
}

// NewHistogram creates or reuses a histogram vector
func (p *Prometheus) NewHistogram(o metrics.HistogramOpts) metrics.Histogram {
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: o.Namespace,
		Subsystem: o.Subsystem,
		Name:      o.Name,
		Help:      o.Help,
		Buckets:   o.Buckets,
	}, o.LabelNames)
	hv = register(p.registerer, hv)
	return &Histogram{Histogram: kitmetrics.NewHistogram(hv)}
}

// register returns the collector already registered under the same
// descriptor, so that several components can share a metric
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			logger.Debugf("Reusing registered collector: %s", err)
			return existing
		}
	}
	panic(err)
}

// Counter adapts a go-kit counter to the fabric metrics interface
type Counter struct{ *kitmetrics.Counter }

// With returns a counter with the label values applied
func (c *Counter) With(labelValues ...string) metrics.Counter {
	return &Counter{Counter: c.Counter.With(labelValues...).(*kitmetrics.Counter)}
}

// Gauge adapts a go-kit gauge to the fabric metrics interface
type Gauge struct{ *kitmetrics.Gauge }

// With returns a gauge with the label values applied
func (g *Gauge) With(labelValues ...string) metrics.Gauge {
	return &Gauge{Gauge: g.Gauge.With(labelValues...).(*kitmetrics.Gauge)}
}

// Histogram adapts a go-kit histogram to the fabric metrics interface
type Histogram struct{ *kitmetrics.Histogram }

// With returns a histogram with the label values applied
func (h *Histogram) With(labelValues ...string) metrics.Histogram {
	return &Histogram{Histogram: h.Histogram.With(labelValues...).(*kitmetrics.Histogram)}
}
