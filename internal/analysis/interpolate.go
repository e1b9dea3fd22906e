package analysis

import (
	"psychofit/domain/psychometric"
	"psychofit/domain/trial"
)

// DefaultTarget is the 70.7% correct level a 2-down-1-up staircase
// converges to.
const DefaultTarget = 0.707

// InterpolateThreshold estimates the stimulus intensity at which performance
// crosses target by linear interpolation between the bracketing levels. It
// is model-free and tolerates non-monotonic level data, which staircase runs
// with few trials per level routinely produce.
//
// When every level already performs at or above target the threshold sits
// below the sampled range and is extrapolated to min - 0.1*min; when every
// level is below target it is extrapolated to max + 0.1*max. Fewer than
// three levels yields the undetermined sentinel.
func InterpolateThreshold(levels []trial.PerformanceLevel, target float64) psychometric.Threshold {
	if len(levels) < MinLevelsForInterpolation {
		return psychometric.UndeterminedThreshold()
	}

	anyBelow, anyAbove := false, false
	for _, lv := range levels {
		if lv.ProportionCorrect < target {
			anyBelow = true
		} else {
			anyAbove = true
		}
	}

	minX := levels[0].Intensity
	maxX := levels[len(levels)-1].Intensity
	switch {
	case !anyBelow:
		return psychometric.Threshold(minX - minX*0.1)
	case !anyAbove:
		return psychometric.Threshold(maxX + maxX*0.1)
	}

	// First level at or above target, in ascending intensity order. With
	// non-monotonic data this can be the very first level even though
	// some higher intensity dips below target.
	transition := 0
	for i, lv := range levels {
		if lv.ProportionCorrect >= target {
			transition = i
			break
		}
	}
	if transition == 0 {
		return psychometric.Threshold(levels[0].Intensity)
	}

	x1, y1 := levels[transition-1].Intensity, levels[transition-1].ProportionCorrect
	x2, y2 := levels[transition].Intensity, levels[transition].ProportionCorrect
	if y2 == y1 {
		// Flat segment, interpolation undefined
		return psychometric.Threshold((x1 + x2) / 2)
	}
	return psychometric.Threshold(x1 + (target-y1)*(x2-x1)/(y2-y1))
}
