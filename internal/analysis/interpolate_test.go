package analysis

import (
	"math"
	"testing"

	"psychofit/domain/trial"
)

func levels(points ...[3]float64) []trial.PerformanceLevel {
	lvs := make([]trial.PerformanceLevel, len(points))
	for i, p := range points {
		lvs[i] = trial.PerformanceLevel{
			Intensity:         p[0],
			ProportionCorrect: p[1],
			TrialCount:        int(p[2]),
		}
	}
	return lvs
}

func TestInterpolateThreshold_ClosedForm(t *testing.T) {
	// Literal staircase-shaped scenario. The first level at or above the
	// 0.707 target is (500, 0.75); its predecessor is (450, 0.6). The test
	// asserts the interpolation formula's exact output, not a rounded
	// "nice" number.
	lvs := levels(
		[3]float64{400, 0.5, 10},
		[3]float64{450, 0.6, 10},
		[3]float64{500, 0.75, 10},
		[3]float64{550, 0.9, 10},
		[3]float64{600, 0.95, 10},
	)

	got := InterpolateThreshold(lvs, 0.707).Value()
	want := 450 + (0.707-0.6)*(500-450)/(0.75-0.6)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("threshold = %v, want formula value %v", got, want)
	}
	if got < 450 || got > 500 {
		t.Errorf("threshold %v should lie within the bracketing intensities [450, 500]", got)
	}
}

func TestInterpolateThreshold_BracketingProperty(t *testing.T) {
	cases := []struct {
		name   string
		lvs    []trial.PerformanceLevel
		lo, hi float64
	}{
		{
			name: "monotonic",
			lvs: levels(
				[3]float64{100, 0.52, 8},
				[3]float64{200, 0.68, 8},
				[3]float64{300, 0.81, 8},
			),
			lo: 200, hi: 300,
		},
		{
			name: "steep",
			lvs: levels(
				[3]float64{10, 0.5, 4},
				[3]float64{20, 0.55, 4},
				[3]float64{30, 0.99, 4},
			),
			lo: 20, hi: 30,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := InterpolateThreshold(tc.lvs, 0.707).Value()
			if got < tc.lo || got > tc.hi {
				t.Errorf("threshold %v outside bracketing interval [%v, %v]", got, tc.lo, tc.hi)
			}
		})
	}
}

func TestInterpolateThreshold_AllAboveTarget(t *testing.T) {
	lvs := levels(
		[3]float64{400, 0.8, 5},
		[3]float64{500, 0.9, 5},
		[3]float64{600, 0.95, 5},
	)
	got := InterpolateThreshold(lvs, 0.707).Value()
	if got >= 400 {
		t.Errorf("all levels above target: threshold %v should be strictly below min intensity 400", got)
	}
	want := 400 - 400*0.1
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("threshold = %v, want extrapolated %v", got, want)
	}
}

func TestInterpolateThreshold_AllBelowTarget(t *testing.T) {
	lvs := levels(
		[3]float64{400, 0.5, 5},
		[3]float64{500, 0.6, 5},
		[3]float64{600, 0.65, 5},
	)
	got := InterpolateThreshold(lvs, 0.707).Value()
	if got <= 600 {
		t.Errorf("all levels below target: threshold %v should be strictly above max intensity 600", got)
	}
	want := 600 + 600*0.1
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("threshold = %v, want extrapolated %v", got, want)
	}
}

func TestInterpolateThreshold_NonMonotonicFirstLevelAtTarget(t *testing.T) {
	// Staircase data can dip back below target at higher intensities. When
	// the very first level already meets target, its intensity is the
	// estimate.
	lvs := levels(
		[3]float64{400, 0.75, 5},
		[3]float64{500, 0.65, 5},
		[3]float64{600, 0.9, 5},
	)
	got := InterpolateThreshold(lvs, 0.707).Value()
	if got != 400 {
		t.Errorf("threshold = %v, want first level intensity 400", got)
	}
}

func TestInterpolateThreshold_ExactTargetLevel(t *testing.T) {
	// A level sitting exactly on target is the upper bracket; the
	// interpolation lands on it exactly.
	lvs := levels(
		[3]float64{400, 0.5, 5},
		[3]float64{500, 0.707, 5},
		[3]float64{600, 0.9, 5},
	)
	got := InterpolateThreshold(lvs, 0.707).Value()
	if math.Abs(got-500) > 1e-9 {
		t.Errorf("threshold = %v, want 500", got)
	}
}

func TestInterpolateThreshold_TooFewLevels(t *testing.T) {
	lvs := levels(
		[3]float64{400, 0.5, 5},
		[3]float64{600, 0.9, 5},
	)
	got := InterpolateThreshold(lvs, 0.707)
	if !got.Undetermined() {
		t.Errorf("two levels should yield an undetermined threshold, got %v", got.Value())
	}
}
