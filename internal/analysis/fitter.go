package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"psychofit/domain/core"
	"psychofit/domain/psychometric"
	"psychofit/domain/trial"
)

// MaxFuncEvaluations caps the optimizer's objective-evaluation budget.
// Exceeding it surfaces as ErrFitFailed, never as a hang.
const MaxFuncEvaluations = 5000

// FitCurve fits the selected psychometric model to the aggregated levels by
// weighted nonlinear least squares and derives the threshold at target from
// the fitted parameters.
//
// Levels are weighted by sqrt(trial count); for the logistic model the
// weight is additionally scaled by (1 - 0.5*|p - 0.5|) so near-ceiling and
// near-floor levels, which say little about the slope, count less. Logistic
// parameters are box-bounded (see psychometric.Model.Bounds); the
// cumulative-normal fit is unbounded apart from sigma > 0.
//
// Fewer than four qualifying levels returns ErrInsufficientData without
// touching the optimizer. Non-convergence returns ErrFitFailed. A returned
// FitResult may still carry an undetermined threshold when the fitted curve
// never crosses target inside the data support.
func FitCurve(levels []trial.PerformanceLevel, model psychometric.Model, target float64) (*psychometric.FitResult, error) {
	if len(levels) < MinLevelsForFit {
		return nil, core.NewInsufficientDataError(len(levels), MinLevelsForFit, "stimulus levels")
	}
	if _, err := psychometric.ParseModel(model.String()); err != nil {
		return nil, err
	}

	xs := make([]float64, len(levels))
	ys := make([]float64, len(levels))
	ws := make([]float64, len(levels))
	for i, lv := range levels {
		xs[i] = lv.Intensity
		ys[i] = lv.ProportionCorrect
		ws[i] = math.Sqrt(float64(lv.TrialCount))
		if model == psychometric.ModelLogistic {
			ws[i] *= 1 - math.Abs(lv.ProportionCorrect-0.5)*0.5
		}
	}

	support := levelSupport(levels)
	if support.Range() <= 0 {
		return nil, core.NewFitError("degenerate stimulus range", nil)
	}

	lower, upper := model.Bounds(support)
	guess := model.InitialGuess(levels, support)
	params, err := minimizeWeightedSSE(model, xs, ys, ws, guess, lower, upper)
	if err != nil {
		return nil, err
	}

	preds := make([]float64, len(xs))
	for i, x := range xs {
		preds[i] = model.Evaluate(params, x)
	}

	result := &psychometric.FitResult{
		Model:      model,
		Params:     params,
		Covariance: covarianceEstimate(model, params, xs, ys, ws, preds),
		RSquared:   rSquared(ys, preds),
		Threshold:  psychometric.Threshold(model.InvertThreshold(params, target, support)),
		Levels:     levels,
	}
	return result, nil
}

func levelSupport(levels []trial.PerformanceLevel) psychometric.Support {
	s := psychometric.Support{
		MinX: levels[0].Intensity,
		MaxX: levels[len(levels)-1].Intensity,
		MinY: levels[0].ProportionCorrect,
		MaxY: levels[0].ProportionCorrect,
	}
	for _, lv := range levels[1:] {
		s.MinY = math.Min(s.MinY, lv.ProportionCorrect)
		s.MaxY = math.Max(s.MaxY, lv.ProportionCorrect)
	}
	return s
}

// minimizeWeightedSSE minimizes sum_i (w_i*(y_i - f(x_i; p)))^2 over p with
// Nelder-Mead. Box bounds are enforced by optimizing in a sine-transformed
// space where every unconstrained point maps inside the box, the same trick
// MINUIT and lmfit use, so the simplex itself never needs clipping.
func minimizeWeightedSSE(model psychometric.Model, xs, ys, ws, guess, lower, upper []float64) ([]float64, error) {
	bounded := lower != nil

	objective := func(p []float64) float64 {
		sse := 0.0
		for i, x := range xs {
			pred := model.Evaluate(p, x)
			if math.IsNaN(pred) {
				return math.Inf(1)
			}
			r := ws[i] * (ys[i] - pred)
			sse += r * r
		}
		return sse
	}

	x0 := make([]float64, len(guess))
	if bounded {
		for i := range guess {
			x0[i] = toUnbounded(clamp(guess[i], lower[i], upper[i]), lower[i], upper[i])
		}
	} else {
		copy(x0, guess)
	}

	problem := optimize.Problem{
		Func: func(z []float64) float64 {
			if !bounded {
				return objective(z)
			}
			p := make([]float64, len(z))
			for i := range z {
				p[i] = fromUnbounded(z[i], lower[i], upper[i])
			}
			return objective(p)
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: MaxFuncEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Iterations: 100,
		},
	}

	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, core.NewFitError("optimizer error", err)
	}
	if res.Status == optimize.FunctionEvaluationLimit {
		return nil, core.NewFitError(fmt.Sprintf("no convergence within %d evaluations", MaxFuncEvaluations), nil)
	}
	if res.Status != optimize.FunctionConvergence {
		return nil, core.NewFitError(fmt.Sprintf("optimizer stopped early: %v", res.Status), nil)
	}

	params := make([]float64, len(res.X))
	if bounded {
		for i := range res.X {
			params[i] = fromUnbounded(res.X[i], lower[i], upper[i])
		}
	} else {
		copy(params, res.X)
	}
	for _, p := range params {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, core.NewFitError("non-finite fitted parameter", nil)
		}
	}
	return params, nil
}

// fromUnbounded maps an unconstrained optimizer coordinate into [lo, hi].
func fromUnbounded(z, lo, hi float64) float64 {
	return lo + (hi-lo)*(math.Sin(z)+1)/2
}

// toUnbounded is the inverse of fromUnbounded for in-box values.
func toUnbounded(p, lo, hi float64) float64 {
	return math.Asin(2*(p-lo)/(hi-lo) - 1)
}

func clamp(v, lo, hi float64) float64 {
	// Keep strictly inside so the asin stays finite
	span := hi - lo
	return math.Min(math.Max(v, lo+1e-9*span), hi-1e-9*span)
}

// rSquared computes 1 - SSres/SStot, defined as 0 for the degenerate case of
// all-equal observations.
func rSquared(ys, preds []float64) float64 {
	mean := 0.0
	for _, y := range ys {
		mean += y
	}
	mean /= float64(len(ys))

	ssRes, ssTot := 0.0, 0.0
	for i, y := range ys {
		ssRes += (y - preds[i]) * (y - preds[i])
		ssTot += (y - mean) * (y - mean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// covarianceEstimate approximates the parameter covariance from a central
// finite-difference Jacobian at the optimum, scaled by the reduced
// chi-square. Returns nil when the normal matrix is singular or there are no
// residual degrees of freedom.
func covarianceEstimate(model psychometric.Model, params, xs, ys, ws, preds []float64) [][]float64 {
	n, p := len(xs), len(params)
	dof := n - p
	if dof <= 0 {
		return nil
	}

	jac := mat.NewDense(n, p, nil)
	for j := 0; j < p; j++ {
		h := 1e-6 * math.Max(math.Abs(params[j]), 1e-6)
		plus := append([]float64(nil), params...)
		minus := append([]float64(nil), params...)
		plus[j] += h
		minus[j] -= h
		for i, x := range xs {
			d := (model.Evaluate(plus, x) - model.Evaluate(minus, x)) / (2 * h)
			jac.Set(i, j, ws[i]*d)
		}
	}

	var normal mat.Dense
	normal.Mul(jac.T(), jac)
	var inv mat.Dense
	if err := inv.Inverse(&normal); err != nil {
		return nil
	}

	chi2 := 0.0
	for i := range xs {
		r := ws[i] * (ys[i] - preds[i])
		chi2 += r * r
	}
	scale := chi2 / float64(dof)

	cov := make([][]float64, p)
	for i := 0; i < p; i++ {
		cov[i] = make([]float64, p)
		for j := 0; j < p; j++ {
			cov[i][j] = inv.At(i, j) * scale
		}
	}
	return cov
}
