/*
metrics.go - Prometheus instrumentation for the payroll service

PURPOSE:
  Counters and latency histograms for the operations payroll administrators
  care about: computations, exports, attestation transitions, and the volume
  of compliance findings. Exposed on GET /metrics.

REGISTRATION:
  initMetrics registers against the default registry exactly once, so tests
  that build multiple routers in one process don't panic on duplicate
  registration.
*/
package api

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "payroll_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	computeTotal   *prometheus.CounterVec
	computeLatency *prometheus.HistogramVec

	exportTotal *prometheus.CounterVec

	attestTotal *prometheus.CounterVec

	warningsTotal *prometheus.CounterVec
)

func initMetrics() {
	registerOnce.Do(func() {
		computeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "compute_total",
				Help: "Total payroll computations by result",
			},
			[]string{"result"},
		)
		computeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "compute_latency_seconds",
				Help:    "Payroll computation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total run exports by format and result",
			},
			[]string{"format", "result"},
		)

		attestTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "attest_transitions_total",
				Help: "Total attestation transitions by target status and result",
			},
			[]string{"status", "result"},
		)

		warningsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "compliance_warnings_total",
				Help: "Total compliance findings emitted by rule",
			},
			[]string{"rule"},
		)

		prometheus.MustRegister(
			computeTotal,
			computeLatency,
			exportTotal,
			attestTotal,
			warningsTotal,
		)
	})
}

func observeCompute(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if computeTotal != nil {
		computeTotal.WithLabelValues(result).Inc()
	}
	if computeLatency != nil {
		computeLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

func incExport(format, result string) {
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}

func incAttest(status, result string) {
	if attestTotal != nil {
		attestTotal.WithLabelValues(status, result).Inc()
	}
}

func incWarning(rule string) {
	if warningsTotal != nil {
		warningsTotal.WithLabelValues(rule).Inc()
	}
}
