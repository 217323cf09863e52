package particle

import "math"

// Converge returns where an instance starting at p ends up after k frames of
// pursuing a fixed target t.
func Converge(p, t Vec3, k int) Vec3 {
	return t.Sub(t.Sub(p).Scale(Remaining(k)))
}

// Remaining returns the fraction of the initial distance left after k frames.
func Remaining(k int) float64 {
	return math.Pow(1-SmoothingFactor, float64(k))
}

// FramesToWithin returns the number of frames needed before the remaining fraction
// drops to frac or below. frac must be in (0, 1).
func FramesToWithin(frac float64) int {
	if frac <= 0 || frac >= 1 {
		return 0
	}
	return int(math.Ceil(math.Log(frac) / math.Log(1-SmoothingFactor)))
}
