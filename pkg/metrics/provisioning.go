package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvisioningMetrics records checkout batch outcomes and per-unit results.
type ProvisioningMetrics struct {
	batches      *prometheus.CounterVec
	units        *prometheus.CounterVec
	unitDuration prometheus.Histogram
}

// NewProvisioningMetrics registers the provisioning metrics on the provided registerer.
func NewProvisioningMetrics(reg prometheus.Registerer) *ProvisioningMetrics {
	if reg == nil {
		return &ProvisioningMetrics{}
	}
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_batches_total",
		Help: "Checkout batches by final status.",
	}, []string{"status"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_units_total",
		Help: "Rental unit requests by result and failure reason.",
	}, []string{"result", "reason"})
	unitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rental_unit_duration_seconds",
		Help:    "Time spent creating a single rental unit.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(batches, units, unitDuration)
	return &ProvisioningMetrics{
		batches:      batches,
		units:        units,
		unitDuration: unitDuration,
	}
}

// IncBatch counts a finished batch under its status.
func (p *ProvisioningMetrics) IncBatch(status string) {
	if p == nil || p.batches == nil {
		return
	}
	p.batches.WithLabelValues(labelValue(status)).Inc()
}

// IncUnitSuccess counts a created rental unit.
func (p *ProvisioningMetrics) IncUnitSuccess() {
	if p == nil || p.units == nil {
		return
	}
	p.units.WithLabelValues("success", "none").Inc()
}

// IncUnitFailure counts a failed rental unit under its reason.
func (p *ProvisioningMetrics) IncUnitFailure(reason string) {
	if p == nil || p.units == nil {
		return
	}
	p.units.WithLabelValues("failure", labelValue(reason)).Inc()
}

// ObserveUnit records how long a unit call took.
func (p *ProvisioningMetrics) ObserveUnit(duration time.Duration) {
	if p == nil || p.unitDuration == nil {
		return
	}
	p.unitDuration.Observe(duration.Seconds())
}

// RentalMetrics exposes point-in-time rental gauges set by the overdue sweep.
type RentalMetrics struct {
	overdue prometheus.Gauge
	active  prometheus.Gauge
}

// NewRentalMetrics registers the rental gauges on the provided registerer.
func NewRentalMetrics(reg prometheus.Registerer) *RentalMetrics {
	if reg == nil {
		return &RentalMetrics{}
	}
	overdue := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rentals_overdue",
		Help: "Active rentals past their expected return date.",
	})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rentals_active",
		Help: "Rentals with persisted status ACTIVE.",
	})
	reg.MustRegister(overdue, active)
	return &RentalMetrics{overdue: overdue, active: active}
}

// SetCounts publishes the latest active and overdue counts.
func (r *RentalMetrics) SetCounts(active, overdue int) {
	if r == nil || r.overdue == nil {
		return
	}
	r.active.Set(float64(active))
	r.overdue.Set(float64(overdue))
}
