package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g *prometheus.GaugeVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, g.WithLabelValues(labels...).Write(m))
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.WithLabelValues(labels...).Write(m))
	return m.GetCounter().GetValue()
}

func TestSink_RecordsErrorsAndTimeoutsAndTests(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewSink(reg)

	s.RecordError("invalid_flow")
	s.RecordError("invalid_flow")
	assert.Equal(t, 2.0, counterValue(t, s.errorsTotal, "invalid_flow"))

	s.RecordSymbolicTimeout("flow-1")
	assert.Equal(t, 1.0, counterValue(t, s.timeoutsTotal, "flow-1"))

	s.RecordTest("flow-1")
	assert.Equal(t, 1.0, counterValue(t, s.testsTotal, "flow-1"))
}

func TestSink_SetsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewSink(reg)

	s.SetInconsistenciesRatio("flow-1", 0.25)
	assert.Equal(t, 0.25, gaugeValue(t, s.inconsistenciesRatio, "flow-1"))

	s.SetEvolutionIndex("flow-1", 0.8)
	assert.Equal(t, 0.8, gaugeValue(t, s.evolutionIndex, "flow-1"))

	s.SetTimeToModification("flow-1", 2*time.Minute)
	assert.Equal(t, 120.0, gaugeValue(t, s.timeToModificationSecond, "flow-1"))
}

func TestNewSink_RegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewSink(reg)

	// Vec collectors only export series that have been written to, so
	// touch each one before gathering.
	s.RecordError("invalid_flow")
	s.RecordSymbolicTimeout("flow-1")
	s.ObserveRunDuration("flow-1", time.Second)
	s.RecordTest("flow-1")
	s.SetInconsistenciesRatio("flow-1", 0)
	s.SetEvolutionIndex("flow-1", 0)
	s.SetTimeToModification("flow-1", 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 7)
}
