package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Import row outcomes used as the "result" label.
const (
	RowCreated = "created"
	RowUpdated = "updated"
	RowSkipped = "skipped"
)

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	TemplatesUsedTotal     *prometheus.CounterVec
	PersonalizeErrorsTotal *prometheus.CounterVec
	ImportRowsTotal        *prometheus.CounterVec
	ImportDuration         prometheus.Histogram
	UsageEventsTotal       *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		TemplatesUsedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "templa_templates_used_total",
				Help: "Total number of successful template personalizations",
			},
			[]string{"visibility"},
		),
		PersonalizeErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "templa_personalize_errors_total",
				Help: "Personalization requests that failed",
			},
			[]string{"reason"},
		),
		ImportRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "templa_catalog_import_rows_total",
				Help: "Catalog import rows by outcome",
			},
			[]string{"result"},
		),
		ImportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "templa_catalog_import_duration_seconds",
				Help:    "Duration of catalog import batches",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		UsageEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "templa_usage_events_total",
				Help: "Template usage events by stage and outcome",
			},
			[]string{"stage", "status"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.TemplatesUsedTotal,
		m.PersonalizeErrorsTotal,
		m.ImportRowsTotal,
		m.ImportDuration,
		m.UsageEventsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordTemplateUsed(public bool) {
	if m == nil {
		return
	}
	visibility := "private"
	if public {
		visibility = "public"
	}
	m.TemplatesUsedTotal.WithLabelValues(visibility).Inc()
}

func (m *Metrics) RecordPersonalizeError(reason string) {
	if m == nil {
		return
	}
	m.PersonalizeErrorsTotal.WithLabelValues(reason).Inc()
}

// RecordImport adds the outcome of one import batch.
func (m *Metrics) RecordImport(created, updated, skipped int, seconds float64) {
	if m == nil {
		return
	}
	m.ImportRowsTotal.WithLabelValues(RowCreated).Add(float64(created))
	m.ImportRowsTotal.WithLabelValues(RowUpdated).Add(float64(updated))
	m.ImportRowsTotal.WithLabelValues(RowSkipped).Add(float64(skipped))
	m.ImportDuration.Observe(seconds)
}

// RecordUsageEvent counts publish/consume outcomes of usage events.
func (m *Metrics) RecordUsageEvent(stage string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.UsageEventsTotal.WithLabelValues(stage, status).Inc()
}
