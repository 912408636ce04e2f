// Package metrics is the Prometheus-backed telemetry sink (spec C9),
// replacing the hand-rolled in-memory MetricsCollector the rest of the
// corpus uses: every counter/histogram/gauge below is exported on /metrics
// via promhttp, ready for real scraping instead of JSON snapshotting.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sink is the metrics surface the rest of the system records against.
// Every method writes straight to a Prometheus collector; Sink keeps no
// state of its own and has no read or summary methods.
type Sink struct {
	errorsTotal   *prometheus.CounterVec
	timeoutsTotal *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	testsTotal    *prometheus.CounterVec

	inconsistenciesRatio     *prometheus.GaugeVec
	evolutionIndex           *prometheus.GaugeVec
	timeToModificationSecond *prometheus.GaugeVec
}

// NewSink builds a Sink and registers its collectors with reg.
func NewSink(reg prometheus.Registerer) *Sink {
	s := &Sink{
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deciflow",
			Name:      "errors_total",
			Help:      "Total number of evaluation errors, by error code.",
		}, []string{"code"}),
		timeoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deciflow",
			Name:      "symbolic_timeouts_total",
			Help:      "Total number of symbolic runs aborted by a solver timeout.",
		}, []string{"flow_id"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "deciflow",
			Name:      "symbolic_run_duration_seconds",
			Help:      "Wall-clock duration of a completed symbolic run.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow_id"}),
		testsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deciflow",
			Name:      "tests_total",
			Help:      "Total number of concrete test evaluations run against a flow.",
		}, []string{"flow_id"}),
		inconsistenciesRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "deciflow",
			Name:      "inconsistencies_ratio",
			Help:      "Fraction of a flow's CONDITIONAL nodes that were pruned, reduced, or left uncovered in its last symbolic run.",
		}, []string{"flow_id"}),
		evolutionIndex: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "deciflow",
			Name:      "evolution_index",
			Help:      "Clipped, weight-normalized delta of a flow's symbolic shape across its last two runs.",
		}, []string{"flow_id"}),
		timeToModificationSecond: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "deciflow",
			Name:      "time_to_modification_seconds",
			Help:      "Seconds since a flow's symbolic shape last changed between runs.",
		}, []string{"flow_id"}),
	}

	reg.MustRegister(
		s.errorsTotal,
		s.timeoutsTotal,
		s.runDuration,
		s.testsTotal,
		s.inconsistenciesRatio,
		s.evolutionIndex,
		s.timeToModificationSecond,
	)
	return s
}

func (s *Sink) RecordError(code string) {
	s.errorsTotal.WithLabelValues(code).Inc()
}

func (s *Sink) RecordSymbolicTimeout(flowID string) {
	s.timeoutsTotal.WithLabelValues(flowID).Inc()
}

func (s *Sink) ObserveRunDuration(flowID string, d time.Duration) {
	s.runDuration.WithLabelValues(flowID).Observe(d.Seconds())
}

func (s *Sink) RecordTest(flowID string) {
	s.testsTotal.WithLabelValues(flowID).Inc()
}

func (s *Sink) SetInconsistenciesRatio(flowID string, ratio float64) {
	s.inconsistenciesRatio.WithLabelValues(flowID).Set(ratio)
}

func (s *Sink) SetEvolutionIndex(flowID string, index float64) {
	s.evolutionIndex.WithLabelValues(flowID).Set(index)
}

func (s *Sink) SetTimeToModification(flowID string, d time.Duration) {
	s.timeToModificationSecond.WithLabelValues(flowID).Set(d.Seconds())
}
