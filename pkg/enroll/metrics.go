/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package enroll

import "github.com/hyperledger/fabric-lib-go/common/metrics"

var (
	enrollmentsCompleted = metrics.CounterOpts{
		Namespace:    "enroll",
		Name:         "operations_total",
		Help:         "The number of enrollment operations by workflow and outcome.",
		LabelNames:   []string{"workflow", "outcome"},
		StatsdFormat: "%{#fqname}.%{workflow}.%{outcome}",
	}
	enrollmentDuration = metrics.HistogramOpts{
		Namespace:    "enroll",
		Name:         "operation_duration_seconds",
		Help:         "The time to complete an enrollment operation.",
		LabelNames:   []string{"workflow"},
		StatsdFormat: "%{#fqname}.%{workflow}",
	}
	enrollmentsInFlight = metrics.GaugeOpts{
		Namespace:    "enroll",
		Name:         "operations_in_flight",
		Help:         "The number of enrollment operations in progress.",
		LabelNames:   []string{"workflow"},
		StatsdFormat: "%{#fqname}.%{workflow}",
	}
)

// Metrics contains the metrics of the enrollment workflows
type Metrics struct {
	Completed metrics.Counter
	Duration  metrics.Histogram
	InFlight  metrics.Gauge
}

// NewMetrics builds a new instance of Metrics
func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		Completed: p.NewCounter(enrollmentsCompleted),
		Duration:  p.NewHistogram(enrollmentDuration),
		InFlight:  p.NewGauge(enrollmentsInFlight),
	}
}
