// Package report builds the human-facing threshold summary from finished
// analysis results. It reads AnalysisResult fields only; no intermediate
// aggregation state crosses this boundary.
package report

import (
	"math"

	"github.com/montanaflynn/stats"

	"psychofit/domain/psychometric"
)

// Row is one dataset's line in the threshold summary table
type Row struct {
	Dataset         string                 `json:"dataset"`
	SimpleThreshold psychometric.Threshold `json:"simple_threshold"`
	FittedThreshold psychometric.Threshold `json:"fitted_threshold"`
	RSquared        *float64               `json:"r_squared,omitempty"`
	NTrials         int                    `json:"n_trials"`
}

// EstimatorStats summarizes one threshold estimator across datasets
type EstimatorStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// Ratio compares a dataset's simple threshold against the first dataset's
type Ratio struct {
	Dataset  string  `json:"dataset"`
	Baseline string  `json:"baseline"`
	Value    float64 `json:"value"`
}

// Summary is the cross-dataset threshold comparison at one target level
type Summary struct {
	Target      float64         `json:"target"`
	Rows        []Row           `json:"rows"`
	SimpleStats *EstimatorStats `json:"simple_stats,omitempty"`
	FittedStats *EstimatorStats `json:"fitted_stats,omitempty"`
	Ratios      []Ratio         `json:"ratios,omitempty"`
}

// BuildSummary assembles the threshold comparison across datasets. Estimator
// statistics and ratios only appear once two or more datasets contribute a
// determined value; ratios use the simple estimates, with the first dataset
// carrying one as the baseline.
func BuildSummary(results []*psychometric.AnalysisResult) Summary {
	summary := Summary{}

	var simple, fitted []float64
	var simpleNames []string
	for _, r := range results {
		if r == nil {
			continue
		}
		summary.Target = r.Target

		row := Row{
			Dataset:         r.Dataset.String(),
			SimpleThreshold: r.SimpleThreshold,
			FittedThreshold: r.FittedThreshold(),
			NTrials:         r.NTrials,
		}
		if r.Fit != nil {
			rsq := r.Fit.RSquared
			row.RSquared = &rsq
		}
		summary.Rows = append(summary.Rows, row)

		if !r.SimpleThreshold.Undetermined() {
			simple = append(simple, r.SimpleThreshold.Value())
			simpleNames = append(simpleNames, r.Dataset.String())
		}
		if ft := r.FittedThreshold(); !ft.Undetermined() {
			fitted = append(fitted, ft.Value())
		}
	}

	summary.SimpleStats = estimatorStats(simple)
	summary.FittedStats = estimatorStats(fitted)

	if len(simple) > 1 && simple[0] != 0 {
		for i := 1; i < len(simple); i++ {
			summary.Ratios = append(summary.Ratios, Ratio{
				Dataset:  simpleNames[i],
				Baseline: simpleNames[0],
				Value:    simple[i] / simple[0],
			})
		}
	}
	return summary
}

func estimatorStats(values []float64) *EstimatorStats {
	if len(values) < 2 {
		return nil
	}
	mean, _ := stats.Mean(values)
	sd, _ := stats.StandardDeviation(values)
	lo, _ := stats.Min(values)
	hi, _ := stats.Max(values)
	if math.IsNaN(mean) {
		return nil
	}
	return &EstimatorStats{Mean: mean, StdDev: sd, Min: lo, Max: hi, Count: len(values)}
}
