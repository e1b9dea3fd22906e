// Package analysis implements the psychometric threshold engine: per-level
// aggregation of raw 2AFC trials, a model-free interpolated threshold, and a
// weighted bounded nonlinear fit of a parametric performance curve.
package analysis

import (
	"sort"

	"psychofit/domain/core"
	"psychofit/domain/trial"
)

const (
	// DefaultMinTrialsPerLevel drops stimulus levels visited too rarely to
	// give a usable proportion correct.
	DefaultMinTrialsPerLevel = 2

	// MinLevelsForInterpolation is the distinct-level floor for the
	// model-free threshold estimate.
	MinLevelsForInterpolation = 3

	// MinLevelsForFit is the distinct-level floor for the parametric fit.
	MinLevelsForFit = 4
)

// AggregateLevels collapses trials into per-intensity performance levels,
// grouping by exact intensity equality, discarding levels with fewer than
// minTrialsPerLevel trials, and sorting ascending by intensity. It returns
// ErrInsufficientData when fewer than minLevels distinct levels survive;
// pass minLevels 0 to skip the check. Pure function of its input.
func AggregateLevels(trials []trial.Trial, minTrialsPerLevel, minLevels int) ([]trial.PerformanceLevel, error) {
	if minTrialsPerLevel < 1 {
		minTrialsPerLevel = DefaultMinTrialsPerLevel
	}

	type tally struct {
		total   int
		correct int
	}
	byIntensity := make(map[float64]*tally)
	for _, t := range trials {
		counts, ok := byIntensity[t.StimulusIntensity]
		if !ok {
			counts = &tally{}
			byIntensity[t.StimulusIntensity] = counts
		}
		counts.total++
		if t.Correct {
			counts.correct++
		}
	}

	levels := make([]trial.PerformanceLevel, 0, len(byIntensity))
	for intensity, counts := range byIntensity {
		if counts.total < minTrialsPerLevel {
			continue
		}
		levels = append(levels, trial.PerformanceLevel{
			Intensity:         intensity,
			ProportionCorrect: float64(counts.correct) / float64(counts.total),
			TrialCount:        counts.total,
		})
	}
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Intensity < levels[j].Intensity
	})

	if len(levels) < minLevels {
		return levels, core.NewInsufficientDataError(len(levels), minLevels, "stimulus levels")
	}
	return levels, nil
}
