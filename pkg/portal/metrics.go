package portal

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded by the controller counters.
const (
	OutcomeApplied = "applied"
	OutcomeStale   = "stale"
	OutcomeFailed  = "failed"
	OutcomeOK      = "ok"
)

// Metrics bundles the controller's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	StationLoads    *prometheus.CounterVec
	StationLoadTime prometheus.Histogram
	Citations       *prometheus.CounterVec
	Navigations     *prometheus.CounterVec
}

// NewMetrics registers the controller metrics against reg, defaulting to the
// global registry when nil. Registering twice against the same registry
// returns the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	loads, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stationform_station_loads_total",
		Help: "Station list loads, labeled by outcome.",
	}, []string{"outcome"}), "stationform_station_loads_total")
	if err != nil {
		return nil, err
	}

	loadTime, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "stationform_station_load_duration_seconds",
		Help:    "Latency of station list requests in seconds.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}), "stationform_station_load_duration_seconds")
	if err != nil {
		return nil, err
	}

	citations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stationform_citations_total",
		Help: "Citation requests, labeled by outcome.",
	}, []string{"outcome"}), "stationform_citations_total")
	if err != nil {
		return nil, err
	}

	navigations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stationform_navigations_total",
		Help: "Download navigations, labeled by outcome.",
	}, []string{"outcome"}), "stationform_navigations_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		StationLoads:    loads,
		StationLoadTime: loadTime,
		Citations:       citations,
		Navigations:     navigations,
	}, nil
}

func (m *Metrics) stationLoad(outcome string) {
	if m == nil || m.StationLoads == nil {
		return
	}
	m.StationLoads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) stationLoadDuration(d time.Duration) {
	if m == nil || m.StationLoadTime == nil {
		return
	}
	m.StationLoadTime.Observe(d.Seconds())
}

func (m *Metrics) citation(outcome string) {
	if m == nil || m.Citations == nil {
		return
	}
	m.Citations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) navigation(err error) {
	if m == nil || m.Navigations == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeFailed
	}
	m.Navigations.WithLabelValues(outcome).Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("portal: collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("portal: collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
