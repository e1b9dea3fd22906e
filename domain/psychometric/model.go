// Package psychometric defines the parametric performance-curve models and
// the result records produced by fitting them.
package psychometric

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"psychofit/domain/core"
	"psychofit/domain/trial"
)

// Model selects a psychometric curve family. It is a closed set: every
// switch over Model in this package handles all members, so adding a model
// is a localized extension here rather than a string comparison elsewhere.
type Model string

const (
	// ModelLogistic is the four-parameter logistic
	// f(x; a, b, c, d) = a + (d-a) / (1 + exp(-b*(x-c)))
	// with a = lower asymptote, b = slope, c = inflection, d = upper asymptote.
	ModelLogistic Model = "logistic"

	// ModelCumulativeNormal is the normal CDF f(x; mu, sigma).
	ModelCumulativeNormal Model = "cumulative_normal"
)

// ParseModel validates a model selector from external input
func ParseModel(s string) (Model, error) {
	switch Model(s) {
	case ModelLogistic, ModelCumulativeNormal:
		return Model(s), nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnknownModel, s)
	}
}

func (m Model) String() string { return string(m) }

// NumParams returns the model's parameter count
func (m Model) NumParams() int {
	switch m {
	case ModelLogistic:
		return 4
	default:
		return 2
	}
}

// Evaluate computes the model prediction at stimulus intensity x.
// Returns NaN for parameter vectors outside the model's domain
// (wrong length, non-positive sigma).
func (m Model) Evaluate(params []float64, x float64) float64 {
	if len(params) != m.NumParams() {
		return math.NaN()
	}
	switch m {
	case ModelLogistic:
		a, b, c, d := params[0], params[1], params[2], params[3]
		return a + (d-a)/(1+math.Exp(-b*(x-c)))
	case ModelCumulativeNormal:
		mu, sigma := params[0], params[1]
		if sigma <= 0 {
			return math.NaN()
		}
		return distuv.Normal{Mu: mu, Sigma: sigma}.CDF(x)
	default:
		return math.NaN()
	}
}

// Support describes the data range the model is fitted over, used for
// parameter bounds and threshold validity gating.
type Support struct {
	MinX float64 // lowest aggregated intensity
	MaxX float64 // highest aggregated intensity
	MinY float64 // lowest observed proportion correct
	MaxY float64 // highest observed proportion correct
}

// Range returns the intensity span of the support
func (s Support) Range() float64 { return s.MaxX - s.MinX }

// Bounds returns per-parameter box bounds for the fit, or (nil, nil) for
// models fitted without explicit bounds.
func (m Model) Bounds(s Support) (lower, upper []float64) {
	switch m {
	case ModelLogistic:
		// a stays near chance for a 2AFC task; b and c are tied to the
		// stimulus support so the optimizer cannot wander off the data.
		lower = []float64{0.4, 0.001, s.MinX, s.MinY}
		upper = []float64{0.6, 100 / s.Range(), s.MaxX, 1.0}
		return lower, upper
	default:
		return nil, nil
	}
}

// InitialGuess returns the heuristic starting parameters for the fit.
func (m Model) InitialGuess(levels []trial.PerformanceLevel, s Support) []float64 {
	switch m {
	case ModelLogistic:
		// Threshold guess: first level performing at or above 70%,
		// else the midpoint of the stimulus range.
		c0 := s.MinX + s.Range()*0.5
		for _, lv := range levels {
			if lv.ProportionCorrect >= 0.7 {
				c0 = lv.Intensity
				break
			}
		}
		b0 := 4.0 / s.Range()
		return []float64{s.MinY, b0, c0, s.MaxY}
	case ModelCumulativeNormal:
		xs := make([]float64, len(levels))
		for i, lv := range levels {
			xs[i] = lv.Intensity
		}
		mu0, _ := stats.Median(xs)
		sigma0, _ := stats.StandardDeviation(xs)
		return []float64{mu0, sigma0}
	default:
		return nil
	}
}

// InvertThreshold derives the stimulus intensity at which the fitted curve
// crosses target. Returns NaN when the threshold is not determinable.
//
// The logistic path gates twice: the target must sit strictly between the
// asymptotes with a positive slope, and the derived threshold must fall
// inside the fitted support. The cumulative-normal path applies no support
// gate; the asymmetry matches long-observed analysis behavior and is kept
// deliberately.
func (m Model) InvertThreshold(params []float64, target float64, s Support) float64 {
	if len(params) != m.NumParams() {
		return math.NaN()
	}
	switch m {
	case ModelLogistic:
		a, b, c, d := params[0], params[1], params[2], params[3]
		if !(a < target && target < d && b > 0) {
			return math.NaN()
		}
		thr := c - math.Log((d-a)/(target-a)-1)/b
		if thr < s.MinX || thr > s.MaxX {
			return math.NaN()
		}
		return thr
	case ModelCumulativeNormal:
		mu, sigma := params[0], params[1]
		if sigma <= 0 {
			return math.NaN()
		}
		return distuv.Normal{Mu: mu, Sigma: sigma}.Quantile(target)
	default:
		return math.NaN()
	}
}
