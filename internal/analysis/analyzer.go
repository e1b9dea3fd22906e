package analysis

import (
	"github.com/montanaflynn/stats"

	"psychofit/domain/core"
	"psychofit/domain/psychometric"
	"psychofit/domain/trial"
	"psychofit/internal"
)

// Analyzer runs the full per-dataset pipeline: merge trials, aggregate
// levels, interpolate a model-free threshold, and attempt the parametric
// fit. Fit failures and sparse levels degrade the result instead of failing
// it; one dataset's outcome never depends on another's.
type Analyzer struct {
	model             psychometric.Model
	target            float64
	minTrialsPerLevel int
	logger            *internal.Logger
}

// NewAnalyzer creates an analyzer for the given model and target proportion.
// Zero target defaults to the 70.7% staircase convention.
func NewAnalyzer(model psychometric.Model, target float64) *Analyzer {
	if target <= 0 || target >= 1 {
		target = DefaultTarget
	}
	return &Analyzer{
		model:             model,
		target:            target,
		minTrialsPerLevel: DefaultMinTrialsPerLevel,
		logger:            internal.DefaultLogger,
	}
}

// Target returns the performance level thresholds are estimated at
func (a *Analyzer) Target() float64 { return a.target }

// Model returns the configured curve model
func (a *Analyzer) Model() psychometric.Model { return a.model }

// AnalyzeDataset produces one AnalysisResult for all trials of a dataset,
// already merged across its sessions. Descriptive statistics (overall
// accuracy, stimulus range) cover the full merged trial set, independent of
// which levels survive aggregation. Only an entirely empty dataset is an
// error; everything else yields a result, possibly with an absent fit.
func (a *Analyzer) AnalyzeDataset(ds trial.Dataset) (*psychometric.AnalysisResult, error) {
	trials := ds.AllTrials()
	if len(trials) == 0 {
		return nil, core.NewInsufficientDataError(0, 1, "trials")
	}

	intensities := make([]float64, len(trials))
	correct := 0
	for i, t := range trials {
		intensities[i] = t.StimulusIntensity
		if t.Correct {
			correct++
		}
	}
	minX, _ := stats.Min(intensities)
	maxX, _ := stats.Max(intensities)

	result := &psychometric.AnalysisResult{
		RunID:           core.NewRunID(),
		Dataset:         ds.Name,
		Model:           a.model,
		Target:          a.target,
		NTrials:         len(trials),
		OverallAccuracy: float64(correct) / float64(len(trials)),
		StimulusMin:     minX,
		StimulusMax:     maxX,
		SimpleThreshold: psychometric.UndeterminedThreshold(),
		Sessions:        ds.SessionInfos(),
		CreatedAt:       core.Now(),
	}

	levels, err := AggregateLevels(trials, a.minTrialsPerLevel, 0)
	if err != nil {
		return nil, err
	}
	result.Levels = levels

	result.SimpleThreshold = InterpolateThreshold(levels, a.target)
	if result.SimpleThreshold.Undetermined() {
		a.logger.Warn("dataset %s: only %d usable levels, interpolated threshold undetermined",
			ds.Name, len(levels))
	}

	fit, err := FitCurve(levels, a.model, a.target)
	switch {
	case err == nil:
		result.Fit = fit
	case core.IsRecoverable(err):
		// Interpolated threshold and descriptive stats still stand.
		a.logger.Warn("dataset %s: %v, keeping interpolated estimate only", ds.Name, err)
	default:
		return nil, err
	}

	return result, nil
}
