// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring module scanning, registration, and execution.
package observability

import "github.com/prometheus/client_golang/prometheus"

// CallBuckets defines histogram buckets suited for module call latencies,
// ranging from 1ms to 30s.
var CallBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}

var (
	// ScansTotal counts completed route table scans.
	ScansTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "modgate_scans_total",
			Help: "Completed route scans",
		},
	)

	// ScanDuration records scan duration in seconds.
	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "modgate_scan_duration_seconds",
			Help:    "Scan duration",
			Buckets: CallBuckets,
		},
	)

	// ModulesScannedTotal counts modules produced across all scans.
	ModulesScannedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "modgate_modules_scanned_total",
			Help: "Modules produced by scans",
		},
	)

	// ScanWarningsTotal counts warnings attached to scanned modules.
	ScanWarningsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "modgate_scan_warnings_total",
			Help: "Scan warnings",
		},
	)

	// RegistrationsTotal counts registry registrations by outcome.
	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modgate_registrations_total",
			Help: "Module registrations",
		},
		[]string{"status"},
	)

	// RegisteredModules tracks the number of modules currently registered.
	RegisteredModules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "modgate_registered_modules",
			Help: "Currently registered modules",
		},
	)

	// ModuleCallsTotal counts module invocations by module id and outcome.
	ModuleCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modgate_module_calls_total",
			Help: "Module calls",
		},
		[]string{"module_id", "status"},
	)

	// ModuleCallDuration records module call duration in seconds by module id.
	ModuleCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modgate_module_call_duration_seconds",
			Help:    "Module call duration",
			Buckets: CallBuckets,
		},
		[]string{"module_id"},
	)

	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modgate_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modgate_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: CallBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(
		ScansTotal,
		ScanDuration,
		ModulesScannedTotal,
		ScanWarningsTotal,
		RegistrationsTotal,
		RegisteredModules,
		ModuleCallsTotal,
		ModuleCallDuration,
		RequestsTotal,
		RequestDuration,
	)
}
