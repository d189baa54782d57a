package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records simulation runs in Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	periods     *prometheus.CounterVec
	dataQuality *prometheus.CounterVec
	clipped     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewPromSink registers simulation metrics on the provided Prometheus registerer.
// If reg is nil, the default registerer is used. If the collectors are already
// registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bess_simulation_runs_total",
		Help: "Total number of policy runs",
	}, []string{"policy", "status"})
	periods := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bess_simulation_periods_total",
		Help: "Total number of settlement periods simulated",
	}, []string{"policy"})
	dataQuality := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bess_data_quality_warnings_total",
		Help: "Periods held because of missing or invalid inputs",
	}, []string{"policy"})
	clipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bess_clipped_periods_total",
		Help: "Periods whose requested dispatch was clipped to asset limits",
	}, []string{"policy"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bess_simulation_run_seconds",
		Help:    "Wall time of one policy run",
		Buckets: prometheus.DefBuckets,
	}, []string{"policy"})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if periods, err = register(reg, periods); err != nil {
		return nil, err
	}
	if dataQuality, err = register(reg, dataQuality); err != nil {
		return nil, err
	}
	if clipped, err = register(reg, clipped); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}

	return &PromSink{
		runs:        runs,
		periods:     periods,
		dataQuality: dataQuality,
		clipped:     clipped,
		duration:    duration,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun counts a successful run and its periods.
func (s *PromSink) RecordRun(r RunRecord) {
	s.runs.WithLabelValues(r.Policy, "ok").Inc()
	s.periods.WithLabelValues(r.Policy).Add(float64(r.Periods))
	s.dataQuality.WithLabelValues(r.Policy).Add(float64(r.DataQualityWarnings))
	s.clipped.WithLabelValues(r.Policy).Add(float64(r.ClippedPeriods))
	s.duration.WithLabelValues(r.Policy).Observe(r.Duration.Seconds())
}

// RecordFailure counts a run that returned an error.
func (s *PromSink) RecordFailure(policy string) {
	s.runs.WithLabelValues(policy, "error").Inc()
}
