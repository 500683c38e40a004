package processors

import (
	"snowboardAnalyze/core"
)

// DetectEdgeTransitions scans an edge-angle series for threshold crossings and
// emits one event per crossing frame, in chronological order. A heelside →
// toeside transition fires at frame i when angle[i-1] < -threshold and
// angle[i] >= -threshold; toeside → heelside is the mirror rule.
//
// There is deliberately no hysteresis band and no minimum dwell time: a series
// oscillating around ±threshold emits a transition every frame. That matches
// the behavior riders' existing sessions were scored with, so it stays until
// a domain decision says otherwise (see the pinning test in transitions_test).
func (e *SignalExtractor) DetectEdgeTransitions(edgeAngle []float64) []core.EdgeTransition {
	transitions := make([]core.EdgeTransition, 0)
	threshold := e.config.EdgeThresholdDeg

	for i := 1; i < len(edgeAngle); i++ {
		prev := edgeAngle[i-1]
		curr := edgeAngle[i]

		if prev < -threshold && curr >= -threshold {
			transitions = append(transitions, core.EdgeTransition{
				Frame:      i,
				FromEdge:   core.EdgeHeelside,
				ToEdge:     core.EdgeToeside,
				Smoothness: e.TransitionSmoothness(edgeAngle, i),
			})
		} else if prev > threshold && curr <= threshold {
			transitions = append(transitions, core.EdgeTransition{
				Frame:      i,
				FromEdge:   core.EdgeToeside,
				ToEdge:     core.EdgeHeelside,
				Smoothness: e.TransitionSmoothness(edgeAngle, i),
			})
		}
	}

	return transitions
}

// TransitionSmoothness scores how gradual the series is around a transition
// frame: the variance of the window ±SmoothnessWindow frames (clamped to the
// series bounds) subtracted from 100 and floored at 0. The score is in
// [0,100]; exactly 100 only happens at zero local variance, i.e. a perfectly
// flat window.
func (e *SignalExtractor) TransitionSmoothness(series []float64, frame int) float64 {
	if len(series) == 0 {
		return 0
	}

	start := frame - e.config.SmoothnessWindow
	if start < 0 {
		start = 0
	}
	end := frame + e.config.SmoothnessWindow + 1
	if end > len(series) {
		end = len(series)
	}
	if start >= end {
		return 0
	}

	score := 100 - variance(series[start:end])
	if score < 0 {
		return 0
	}
	return score
}
