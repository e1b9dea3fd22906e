package report

import (
	"math"
	"strings"
	"testing"

	"psychofit/domain/core"
	"psychofit/domain/psychometric"
)

func resultWith(dataset string, simple, fitted float64, rsq float64, n int) *psychometric.AnalysisResult {
	r := &psychometric.AnalysisResult{
		Dataset:         core.DatasetName(dataset),
		Target:          0.707,
		NTrials:         n,
		SimpleThreshold: psychometric.Threshold(simple),
	}
	if !math.IsNaN(fitted) {
		r.Fit = &psychometric.FitResult{
			Model:     psychometric.ModelLogistic,
			Params:    []float64{0.5, 0.05, 500, 0.98},
			RSquared:  rsq,
			Threshold: psychometric.Threshold(fitted),
		}
	}
	return r
}

func TestBuildSummary(t *testing.T) {
	results := []*psychometric.AnalysisResult{
		resultWith("bricks004", 480, 490, 0.97, 300),
		resultWith("bricks101", 600, 610, 0.91, 280),
		resultWith("rock062", 540, math.NaN(), 0, 260),
	}

	summary := BuildSummary(results)

	if len(summary.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(summary.Rows))
	}
	if summary.Target != 0.707 {
		t.Errorf("target = %v, want 0.707", summary.Target)
	}

	if summary.SimpleStats == nil {
		t.Fatal("simple stats should be present with 3 determined estimates")
	}
	if summary.SimpleStats.Min != 480 || summary.SimpleStats.Max != 600 {
		t.Errorf("simple range = [%v, %v], want [480, 600]",
			summary.SimpleStats.Min, summary.SimpleStats.Max)
	}
	wantMean := (480.0 + 600.0 + 540.0) / 3
	if math.Abs(summary.SimpleStats.Mean-wantMean) > 1e-9 {
		t.Errorf("simple mean = %v, want %v", summary.SimpleStats.Mean, wantMean)
	}

	if summary.FittedStats == nil || summary.FittedStats.Count != 2 {
		t.Fatalf("fitted stats should cover the 2 determined fits, got %+v", summary.FittedStats)
	}

	if len(summary.Ratios) != 2 {
		t.Fatalf("expected 2 ratios against the baseline, got %d", len(summary.Ratios))
	}
	if summary.Ratios[0].Baseline != "bricks004" {
		t.Errorf("baseline = %s, want bricks004", summary.Ratios[0].Baseline)
	}
	if math.Abs(summary.Ratios[0].Value-600.0/480.0) > 1e-9 {
		t.Errorf("ratio = %v, want %v", summary.Ratios[0].Value, 600.0/480.0)
	}
}

func TestBuildSummary_SingleDataset(t *testing.T) {
	summary := BuildSummary([]*psychometric.AnalysisResult{
		resultWith("bricks004", 480, 490, 0.97, 300),
	})
	if summary.SimpleStats != nil || summary.FittedStats != nil || summary.Ratios != nil {
		t.Error("one dataset should produce no comparison statistics")
	}
}

func TestRenderMarkdown(t *testing.T) {
	results := []*psychometric.AnalysisResult{
		resultWith("bricks004", 480.4, 490.6, 0.973, 300),
		resultWith("rock062", 540, math.NaN(), 0, 260),
	}
	md := RenderMarkdown(BuildSummary(results), results)

	for _, want := range []string{
		"# 2AFC Threshold Summary (70.7% correct)",
		"| bricks004 | 480.4 | 490.6 | 0.973 | 300 |",
		"| rock062 | 540.0 | N/A | N/A | 260 |",
		"## BRICKS004",
		"a=0.500, b=0.0500, c=500.0, d=0.980",
		"Fit: failed, interpolated estimate only",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("rendered markdown missing %q\n---\n%s", want, md)
		}
	}
}
