// Package metrics provides Prometheus metrics instrumentation for the monitor.
//
// Metrics exposed (all labelled with the plant):
//   - plantwater_source_read_seconds: Histogram of observation read latency
//   - plantwater_soil_moisture_ratio: Gauge of the latest soil moisture
//   - plantwater_vpd_kpa: Gauge of the latest vapour pressure deficit
//   - plantwater_drying_slope_per_hour: Gauge of the latest drying slope
//   - plantwater_eta_hours: Gauge of the ETA to dry (-1 rising, +Inf never, NaN unknown)
//   - plantwater_history_records: Gauge of stored records in the current epoch
//   - plantwater_health_score: Gauge of the latest 0-100 health score
//   - plantwater_status: Gauge set to 1 for the current status, 0 otherwise
//   - plantwater_watering_events_total: Counter of detected waterings
//   - plantwater_errors_total: Counter of errors by component and reason
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/HatiCode/plantwater/pkg/history"
	"github.com/HatiCode/plantwater/pkg/status"
)

var allStatuses = []status.Status{
	status.Unknown,
	status.Calibrating,
	status.TooWet,
	status.OK,
	status.Stable,
	status.VeryDry,
	status.Thirsty,
}

type Metrics struct {
	SourceReadSeconds prometheus.Histogram
	SoilMoisture      prometheus.Gauge
	VPD               prometheus.Gauge
	SlopePerHour      prometheus.Gauge
	ETAHours          prometheus.Gauge
	HistoryRecords    prometheus.Gauge
	HealthScore       prometheus.Gauge
	Status            *prometheus.GaugeVec
	WateringEvents    prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
}

// New registers the metrics for plant on the default registry.
func New(plant string) *Metrics {
	return NewWithRegistry(plant, prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics for plant on reg.
func NewWithRegistry(plant string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"plant": plant}

	return &Metrics{
		SourceReadSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:        "plantwater_source_read_seconds",
			Help:        "Time spent reading an observation from the source",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}),
		SoilMoisture: f.NewGauge(prometheus.GaugeOpts{
			Name:        "plantwater_soil_moisture_ratio",
			Help:        "Latest soil moisture fraction",
			ConstLabels: labels,
		}),
		VPD: f.NewGauge(prometheus.GaugeOpts{
			Name:        "plantwater_vpd_kpa",
			Help:        "Latest vapour pressure deficit in kPa",
			ConstLabels: labels,
		}),
		SlopePerHour: f.NewGauge(prometheus.GaugeOpts{
			Name:        "plantwater_drying_slope_per_hour",
			Help:        "Latest soil moisture change per hour",
			ConstLabels: labels,
		}),
		ETAHours: f.NewGauge(prometheus.GaugeOpts{
			Name:        "plantwater_eta_hours",
			Help:        "Estimated hours until the soil reaches the dry threshold",
			ConstLabels: labels,
		}),
		HistoryRecords: f.NewGauge(prometheus.GaugeOpts{
			Name:        "plantwater_history_records",
			Help:        "Records stored in the current history epoch",
			ConstLabels: labels,
		}),
		HealthScore: f.NewGauge(prometheus.GaugeOpts{
			Name:        "plantwater_health_score",
			Help:        "Latest plant health score from 0 to 100",
			ConstLabels: labels,
		}),
		Status: f.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "plantwater_status",
			Help:        "Current plant status (1 for the active status)",
			ConstLabels: labels,
		}, []string{"status"}),
		WateringEvents: f.NewCounter(prometheus.CounterOpts{
			Name:        "plantwater_watering_events_total",
			Help:        "Total number of detected watering events",
			ConstLabels: labels,
		}),
		ErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "plantwater_errors_total",
			Help:        "Total number of errors by component and reason",
			ConstLabels: labels,
		}, []string{"component", "reason"}),
	}
}

func (m *Metrics) RecordRead(seconds float64) {
	m.SourceReadSeconds.Observe(seconds)
}

// RecordTick publishes the outcome of one tick.
func (m *Metrics) RecordTick(obs history.Observation, d history.Derived, s status.Status, records int) {
	m.SoilMoisture.Set(obs.SoilMoisture)
	m.VPD.Set(d.VPD.Float())
	m.SlopePerHour.Set(d.SlopePerHour)
	m.ETAHours.Set(d.ETA.Float())
	m.HistoryRecords.Set(float64(records))
	m.SetStatus(s)
}

// SetStatus sets s to 1 and every other status to 0.
func (m *Metrics) SetStatus(s status.Status) {
	for _, candidate := range allStatuses {
		v := 0.0
		if candidate == s {
			v = 1
		}
		m.Status.WithLabelValues(string(candidate)).Set(v)
	}
}

func (m *Metrics) SetHealth(score int) {
	m.HealthScore.Set(float64(score))
}

func (m *Metrics) RecordWatering() {
	m.WateringEvents.Inc()
}

func (m *Metrics) RecordError(component, reason string) {
	m.ErrorsTotal.WithLabelValues(component, reason).Inc()
}
