package processors

import (
	"math"

	"snowboardAnalyze/core"
)

// Lookback/lookahead bounds for the phases surrounding the air segment, in
// frames. Trick mechanics before takeoff are short; these caps keep a noisy
// series from swallowing the whole run into one phase.
const (
	maxTakeoffFrames = 15
	maxLandingFrames = 20
	maxSnapFrames    = 12
	maxWindUpFrames  = 45
)

// ClassifyPhases segments a signal set into the six trick phases:
// Setup Carve → Wind Up → Snap → Takeoff → Air → Landing. The segmentation is
// anchored on the air segment (ankle/hip ratio above the airborne threshold)
// and grows the surrounding phases outward from it. Returns an empty slice
// when no airborne segment exists — without air there is no trick to segment,
// and callers fall back to showing raw signals.
func (e *SignalExtractor) ClassifyPhases(signals *core.PhaseDetectionSignals) []core.PhaseSegment {
	n := len(signals.AnkleToHipRatio)
	if n == 0 {
		return []core.PhaseSegment{}
	}

	airStart, airEnd := e.longestAirborneRun(signals.AnkleToHipRatio)
	if airStart < 0 {
		return []core.PhaseSegment{}
	}

	// Takeoff: the rising-hip frames immediately before leaving the snow.
	// Positive hip velocity means moving up (Y-down convention).
	takeoffStart := airStart
	for i := airStart - 1; i >= 0 && airStart-i <= maxTakeoffFrames; i-- {
		if signals.HipVelocity[i] <= 0 {
			break
		}
		takeoffStart = i
	}

	// Snap: the burst of chest rotation that loads the trick, located at the
	// peak rotation speed in the window before takeoff.
	snapPeak := -1
	var peakVel float64
	for i := takeoffStart - 1; i >= 0 && takeoffStart-i <= maxSnapFrames; i-- {
		v := math.Abs(signals.ChestRotationVelocity[i])
		if v > peakVel {
			peakVel = v
			snapPeak = i
		}
	}
	snapStart := takeoffStart
	if snapPeak >= 0 {
		snapStart = snapPeak
	}

	// Wind up: counter-rotation before the snap. Runs backwards for as long as
	// the chest keeps rotating against the snap direction.
	windUpStart := snapStart
	if snapPeak >= 0 {
		snapSign := sign(signals.ChestRotationVelocity[snapPeak])
		for i := snapStart - 1; i >= 0 && snapStart-i <= maxWindUpFrames; i-- {
			if sign(signals.ChestRotationVelocity[i]) != -snapSign {
				break
			}
			windUpStart = i
		}
	}

	// Setup carve: from the last edge transition before the wind up (or the
	// start of the timeline) up to the wind up.
	setupStart := 0
	for _, tr := range signals.EdgeTransitions {
		if tr.Frame < windUpStart {
			setupStart = tr.Frame
		}
	}

	// Landing: absorb frames after touchdown until the hips stop decelerating.
	landingEnd := airEnd
	for i := airEnd + 1; i < n && i-airEnd <= maxLandingFrames; i++ {
		landingEnd = i
		if math.Abs(signals.HipVelocity[i]) < 1e-6 {
			break
		}
	}

	segments := make([]core.PhaseSegment, 0, 6)
	appendSegment := func(phase core.TrickPhase, start, end int) {
		if start > end || start < 0 || end >= n {
			return
		}
		segments = append(segments, core.PhaseSegment{Phase: phase, StartFrame: start, EndFrame: end})
	}

	appendSegment(core.PhaseSetupCarve, setupStart, windUpStart-1)
	appendSegment(core.PhaseWindUp, windUpStart, snapStart-1)
	appendSegment(core.PhaseSnap, snapStart, takeoffStart-1)
	appendSegment(core.PhaseTakeoff, takeoffStart, airStart-1)
	appendSegment(core.PhaseAir, airStart, airEnd)
	if landingEnd > airEnd {
		appendSegment(core.PhaseLanding, airEnd+1, landingEnd)
	}

	return segments
}

// longestAirborneRun finds the longest consecutive run of frames whose
// ankle/hip ratio exceeds the airborne threshold. Returns (-1, -1) when no
// frame qualifies.
func (e *SignalExtractor) longestAirborneRun(ratio []float64) (int, int) {
	bestStart, bestEnd := -1, -1
	runStart := -1
	for i := 0; i <= len(ratio); i++ {
		if i < len(ratio) && ratio[i] > e.config.AirborneRatio {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			if bestStart < 0 || (i-1)-runStart > bestEnd-bestStart {
				bestStart, bestEnd = runStart, i-1
			}
			runStart = -1
		}
	}
	return bestStart, bestEnd
}

func sign(x float64) int {
	if x > 0 {
		return 1
	}
	if x < 0 {
		return -1
	}
	return 0
}
