package processors

import (
	"snowboardAnalyze/core"
)

// Velocity is the first finite difference of a per-frame series, in units of
// "per frame". The sign is inverted on purpose: velocity[i] = series[i-1] -
// series[i], so a shrinking Y (rider moving up in image space) reads as
// positive velocity. Downstream consumers depend on "positive = rising"; do
// not flip this to the conventional curr-prev form. velocity[0] = 0.
func Velocity(series []float64) []float64 {
	out := make([]float64, len(series))
	for i := 1; i < len(series); i++ {
		out[i] = series[i-1] - series[i]
	}
	return out
}

// Acceleration is the velocity of the velocity series, same convention,
// acceleration[0] = 0.
func Acceleration(series []float64) []float64 {
	return Velocity(Velocity(series))
}

// FormVariance measures overall skeleton motion between consecutive frames:
// for each frame i>0 the mean 3D displacement across joints present in both
// frame i and frame i-1, matched by name. 0 at frame 0 and whenever no joints
// match.
func FormVariance(timeline []core.PoseFrame) []float64 {
	out := make([]float64, len(timeline))
	for i := 1; i < len(timeline); i++ {
		prev := make(map[string]core.Vector3, len(timeline[i-1].Joints))
		for _, j := range timeline[i-1].Joints {
			if _, ok := prev[j.Name]; !ok {
				prev[j.Name] = core.Vector3{X: j.X, Y: j.Y, Z: j.Z}
			}
		}

		var total float64
		matched := 0
		for _, j := range timeline[i].Joints {
			p, ok := prev[j.Name]
			if !ok {
				continue
			}
			d := core.Vector3{X: j.X - p.X, Y: j.Y - p.Y, Z: j.Z - p.Z}
			total += d.Length()
			matched++
		}
		if matched > 0 {
			out[i] = total / float64(matched)
		}
	}
	return out
}

func mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

// variance is the population variance (mean squared deviation).
func variance(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	m := mean(series)
	sum := 0.0
	for _, v := range series {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(series))
}
