// Package telemetry computes the evolution index and related signals from
// successive symbolic runs of a flow, per spec §4.6 and the supplemented
// time-to-modification / inconsistencies-ratio features.
package telemetry

import (
	"math"
	"time"

	"github.com/deciflow/deciflow/internal/domain"
)

// weights assigns each raw metric's contribution to the evolution index.
// Negative weights penalize a metric's increase; coverage is the only
// metric whose increase is rewarded.
var weights = map[string]float64{
	"pruned":     -1.0,
	"uncovered":  -0.7,
	"reductions": -0.3,
	"coverage":   1.5,
}

func sumAbsWeights() float64 {
	var s float64
	for _, w := range weights {
		s += math.Abs(w)
	}
	return s
}

// clip constrains v to [-1, 1].
func clip(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// delta is the per-metric clipped change, scaled by 5 (the metric's
// assumed typical dynamic range) so a single run rarely saturates to ±1.
func delta(curr, prev float64) float64 {
	return clip((curr - prev) / 5)
}

// Summary is the sliding-window telemetry state of one flow, computed
// after each run and not persisted itself: the two most recent
// SymbolicExecution summaries, from which the evolution index and
// inconsistencies ratio are derived.
type Summary struct {
	FlowID          string
	Window          []domain.SymbolicExecution // oldest first, at most 2
	EvolutionIndex  float64
	Inconsistencies float64
	LastTimestamp   time.Time
}

// windowSize is the number of trailing SymbolicExecution summaries kept
// per flow: just enough to compute one delta.
const windowSize = 2

// Push appends exec to the window (evicting the oldest entry beyond
// windowSize) and recomputes the derived signals.
func Push(prevWindow []domain.SymbolicExecution, exec domain.SymbolicExecution) Summary {
	window := append(append([]domain.SymbolicExecution{}, prevWindow...), exec)
	if len(window) > windowSize {
		window = window[len(window)-windowSize:]
	}

	s := Summary{
		FlowID:        exec.FlowID,
		Window:        window,
		LastTimestamp: exec.Timestamp,
	}
	s.EvolutionIndex = evolutionIndex(window)
	return s
}

// evolutionIndex computes the clipped, weight-normalized sum of per-metric
// deltas between the two most recent summaries in window. With fewer than
// two summaries there is no prior run to diff against, so the index is 0.
func evolutionIndex(window []domain.SymbolicExecution) float64 {
	if len(window) < 2 {
		return 0
	}
	prev, curr := window[len(window)-2], window[len(window)-1]

	dPruned := delta(float64(curr.Pruned), float64(prev.Pruned))
	dUncovered := delta(float64(curr.Uncovered), float64(prev.Uncovered))
	dReductions := delta(float64(curr.Reductions), float64(prev.Reductions))
	dCoverage := delta(curr.Coverage, prev.Coverage)

	sum := weights["pruned"]*dPruned +
		weights["uncovered"]*dUncovered +
		weights["reductions"]*dReductions +
		weights["coverage"]*dCoverage

	return clip(sum / sumAbsWeights())
}

// InconsistenciesRatio is the supplemented signal: the fraction of a
// flow's CONDITIONAL nodes that show up in at least one problematic
// outcome of report — pruned, reduced, or left uncovered. A flow with no
// conditionals has nothing to be inconsistent about, so the ratio is 0.
func InconsistenciesRatio(report domain.SymbolicReport, flow domain.Flow) float64 {
	conditionals := 0
	for _, n := range flow.Nodes {
		if n.Type == domain.NodeTypeConditional {
			conditionals++
		}
	}
	if conditionals == 0 {
		return 0
	}

	flagged := make(map[string]struct{})
	for _, p := range report.Pruned {
		flagged[p.NodeID] = struct{}{}
	}
	for _, r := range report.Reductions {
		flagged[r.NodeID] = struct{}{}
	}
	for _, u := range report.Uncovered {
		flagged[u.NodeID] = struct{}{}
	}

	return float64(len(flagged)) / float64(conditionals)
}

// TimeToModification is the supplemented signal tracking how long a flow
// has gone without a symbolic run changing its shape: the duration since
// the last summary whose Pruned/Reductions/Uncovered/Coverage differed
// from the one before it. Callers persist lastChangeAt themselves; this
// just turns it into a duration relative to now.
func TimeToModification(lastChangeAt, now time.Time) time.Duration {
	if lastChangeAt.IsZero() {
		return 0
	}
	return now.Sub(lastChangeAt)
}

// Changed reports whether b differs from a in any of the raw counters the
// evolution index is derived from.
func Changed(a, b domain.SymbolicExecution) bool {
	return a.Pruned != b.Pruned || a.Reductions != b.Reductions ||
		a.Uncovered != b.Uncovered || a.Coverage != b.Coverage
}
