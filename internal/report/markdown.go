package report

import (
	"fmt"
	"strings"

	"psychofit/domain/psychometric"
)

// RenderMarkdown writes the threshold summary and per-dataset sections as a
// markdown document. The ui layer renders this to HTML; the CLI prints it
// as-is.
func RenderMarkdown(summary Summary, results []*psychometric.AnalysisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# 2AFC Threshold Summary (%.1f%% correct)\n\n", summary.Target*100)

	b.WriteString("| Dataset | Simple Est. | Fitted Est. | R² | N Trials |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, row := range summary.Rows {
		rsq := "N/A"
		if row.RSquared != nil {
			rsq = fmt.Sprintf("%.3f", *row.RSquared)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d |\n",
			row.Dataset,
			formatThreshold(row.SimpleThreshold),
			formatThreshold(row.FittedThreshold),
			rsq, row.NTrials)
	}
	b.WriteString("\n")

	if summary.SimpleStats != nil {
		s := summary.SimpleStats
		fmt.Fprintf(&b, "Simple estimates: range %.1f - %.1f, mean %.1f ± %.1f (n=%d)\n\n",
			s.Min, s.Max, s.Mean, s.StdDev, s.Count)
	}
	if summary.FittedStats != nil {
		s := summary.FittedStats
		fmt.Fprintf(&b, "Fitted estimates: range %.1f - %.1f, mean %.1f ± %.1f (n=%d)\n\n",
			s.Min, s.Max, s.Mean, s.StdDev, s.Count)
	}
	if len(summary.Ratios) > 0 {
		b.WriteString("## Relative threshold ratios (simple estimates)\n\n")
		for _, ratio := range summary.Ratios {
			fmt.Fprintf(&b, "- %s vs %s: %.2fx\n", ratio.Dataset, ratio.Baseline, ratio.Value)
		}
		b.WriteString("\n")
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		renderDataset(&b, r)
	}
	return b.String()
}

func renderDataset(b *strings.Builder, r *psychometric.AnalysisResult) {
	fmt.Fprintf(b, "## %s\n\n", strings.ToUpper(r.Dataset.String()))
	fmt.Fprintf(b, "- Total trials: %d\n", r.NTrials)
	fmt.Fprintf(b, "- Overall accuracy: %.3f\n", r.OverallAccuracy)
	fmt.Fprintf(b, "- Stimulus range: %.1f to %.1f\n", r.StimulusMin, r.StimulusMax)
	fmt.Fprintf(b, "- Simple threshold estimate: %s\n", formatThreshold(r.SimpleThreshold))

	if r.Fit != nil {
		fmt.Fprintf(b, "- Fit (%s): R² = %.3f, params = %s\n",
			r.Fit.Model, r.Fit.RSquared, formatParams(r.Fit.Model, r.Fit.Params))
		if r.Fit.Threshold.Undetermined() {
			b.WriteString("- Fitted threshold: could not determine (curve may not reach target within range)\n")
		} else {
			fmt.Fprintf(b, "- Fitted threshold: %.1f\n", r.Fit.Threshold.Value())
		}
	} else {
		b.WriteString("- Fit: failed, interpolated estimate only\n")
	}

	if len(r.Sessions) > 0 {
		fmt.Fprintf(b, "\n%d sessions:\n\n", len(r.Sessions))
		for _, s := range r.Sessions {
			fmt.Fprintf(b, "- %s (%s): %d trials, accuracy %.3f\n",
				s.Filename, s.RecordedAt, s.Trials, s.Accuracy)
		}
	}
	b.WriteString("\n")
}

func formatThreshold(t psychometric.Threshold) string {
	if t.Undetermined() {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", t.Value())
}

func formatParams(model psychometric.Model, params []float64) string {
	switch model {
	case psychometric.ModelLogistic:
		if len(params) == 4 {
			return fmt.Sprintf("a=%.3f, b=%.4f, c=%.1f, d=%.3f",
				params[0], params[1], params[2], params[3])
		}
	case psychometric.ModelCumulativeNormal:
		if len(params) == 2 {
			return fmt.Sprintf("mu=%.1f, sigma=%.1f", params[0], params[1])
		}
	}
	return fmt.Sprintf("%v", params)
}
