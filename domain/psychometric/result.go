package psychometric

import (
	"bytes"
	"math"
	"strconv"

	"psychofit/domain/core"
	"psychofit/domain/trial"
)

// Threshold is a stimulus-intensity threshold estimate. NaN is the sentinel
// for "not determinable from this data"; it marshals to JSON null so result
// records survive serialization.
type Threshold float64

// Undetermined reports whether the threshold carries the NaN sentinel
func (t Threshold) Undetermined() bool {
	return math.IsNaN(float64(t))
}

// Value returns the plain float64, NaN when undetermined
func (t Threshold) Value() float64 { return float64(t) }

// UndeterminedThreshold returns the sentinel value
func UndeterminedThreshold() Threshold {
	return Threshold(math.NaN())
}

func (t Threshold) MarshalJSON() ([]byte, error) {
	if t.Undetermined() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(t), 'g', -1, 64)), nil
}

func (t *Threshold) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = UndeterminedThreshold()
		return nil
	}
	v, err := strconv.ParseFloat(string(bytes.TrimSpace(data)), 64)
	if err != nil {
		return err
	}
	*t = Threshold(v)
	return nil
}

// FitResult is the outcome of one successful curve fit. A successful fit may
// still carry an undetermined threshold: the curve converged but never
// crosses the target inside its support.
type FitResult struct {
	Model      Model                    `json:"model"`
	Params     []float64                `json:"params"`
	Covariance [][]float64              `json:"covariance,omitempty"`
	RSquared   float64                  `json:"r_squared"`
	Threshold  Threshold                `json:"threshold"`
	Levels     []trial.PerformanceLevel `json:"levels"`
}

// CurvePoint is one sampled point of the fitted curve, for external plotting.
type CurvePoint struct {
	Intensity float64 `json:"intensity"`
	Predicted float64 `json:"predicted"`
}

// SampleCurve evaluates the fitted model at n evenly spaced intensities
// across the fitted support.
func (f *FitResult) SampleCurve(n int) []CurvePoint {
	if f == nil || len(f.Levels) == 0 || n < 2 {
		return nil
	}
	minX := f.Levels[0].Intensity
	maxX := f.Levels[len(f.Levels)-1].Intensity
	step := (maxX - minX) / float64(n-1)
	points := make([]CurvePoint, n)
	for i := range points {
		x := minX + step*float64(i)
		points[i] = CurvePoint{Intensity: x, Predicted: f.Model.Evaluate(f.Params, x)}
	}
	return points
}

// AnalysisResult is the complete per-dataset outcome: descriptive statistics
// over the merged trial set, the model-free interpolated threshold, and the
// parametric fit when it succeeded (nil Fit means the fit failed or had too
// few levels; the rest of the record is still valid).
type AnalysisResult struct {
	RunID           core.RunID               `json:"run_id"`
	Dataset         core.DatasetName         `json:"dataset"`
	Model           Model                    `json:"model"`
	Target          float64                  `json:"target"`
	NTrials         int                      `json:"n_trials"`
	OverallAccuracy float64                  `json:"overall_accuracy"`
	StimulusMin     float64                  `json:"stimulus_min"`
	StimulusMax     float64                  `json:"stimulus_max"`
	SimpleThreshold Threshold                `json:"simple_threshold"`
	Fit             *FitResult               `json:"fit,omitempty"`
	Levels          []trial.PerformanceLevel `json:"levels"`
	Sessions        []trial.SessionInfo      `json:"sessions"`
	CreatedAt       core.Timestamp           `json:"created_at"`
}

// FittedThreshold returns the parametric threshold, undetermined when the
// fit is absent.
func (r *AnalysisResult) FittedThreshold() Threshold {
	if r.Fit == nil {
		return UndeterminedThreshold()
	}
	return r.Fit.Threshold
}

// BestThreshold prefers the fitted threshold and falls back to the
// interpolated one, mirroring how staircase analyses are read in practice.
func (r *AnalysisResult) BestThreshold() Threshold {
	if ft := r.FittedThreshold(); !ft.Undetermined() {
		return ft
	}
	return r.SimpleThreshold
}
