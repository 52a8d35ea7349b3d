package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PatchRequestsCreated prometheus.Counter
	TransitionsApplied   *prometheus.CounterVec
	TransitionsDenied    *prometheus.CounterVec
	AuditEventsEmitted   prometheus.Counter
	ExportsBuilt         *prometheus.CounterVec
	ExportDuration       prometheus.Histogram
	ProxyRequests        *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		PatchRequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "patchdesk_patch_requests_created_total",
			Help: "Total number of patch requests created",
		}),
		TransitionsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "patchdesk_status_transitions_total",
			Help: "Status transitions applied, labelled by target status",
		}, []string{"to_status"}),
		TransitionsDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "patchdesk_status_transitions_denied_total",
			Help: "Status transitions rejected, labelled by denial reason",
		}, []string{"reason"}),
		AuditEventsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "patchdesk_audit_events_emitted_total",
			Help: "Audit events appended to the timeline",
		}),
		ExportsBuilt: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "patchdesk_exports_built_total",
			Help: "Workbook exports built, labelled by mode (clean/full)",
		}, []string{"mode"}),
		ExportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "patchdesk_export_build_duration_seconds",
			Help:    "Latency of workbook export builds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		ProxyRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "patchdesk_proxy_requests_total",
			Help: "Document proxy requests, labelled by outcome status class",
		}, []string{"outcome"}),
	}
}
