package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"psychofit/domain/core"
	"psychofit/domain/psychometric"
	"psychofit/domain/trial"
)

type stubRepo struct {
	results map[core.RunID]*psychometric.AnalysisResult
}

func (s *stubRepo) Save(ctx context.Context, result *psychometric.AnalysisResult) error {
	return nil
}

func (s *stubRepo) GetByRunID(ctx context.Context, id core.RunID) (*psychometric.AnalysisResult, error) {
	r, ok := s.results[id]
	if !ok {
		return nil, core.ErrResultNotFound
	}
	return r, nil
}

func (s *stubRepo) ListByDataset(ctx context.Context, name core.DatasetName, limit int) ([]*psychometric.AnalysisResult, error) {
	return s.ListLatest(ctx, limit)
}

func (s *stubRepo) ListLatest(ctx context.Context, limit int) ([]*psychometric.AnalysisResult, error) {
	out := make([]*psychometric.AnalysisResult, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, r)
	}
	return out, nil
}

func stubResult(runID core.RunID) *psychometric.AnalysisResult {
	lvs := []trial.PerformanceLevel{
		{Intensity: 450, ProportionCorrect: 0.6, TrialCount: 10},
		{Intensity: 500, ProportionCorrect: 0.75, TrialCount: 10},
		{Intensity: 550, ProportionCorrect: 0.9, TrialCount: 10},
		{Intensity: 600, ProportionCorrect: 0.95, TrialCount: 10},
	}
	return &psychometric.AnalysisResult{
		RunID:           runID,
		Dataset:         "bricks004",
		Model:           psychometric.ModelLogistic,
		Target:          0.707,
		NTrials:         40,
		OverallAccuracy: 0.8,
		StimulusMin:     450,
		StimulusMax:     600,
		SimpleThreshold: psychometric.Threshold(487.5),
		Fit: &psychometric.FitResult{
			Model:     psychometric.ModelLogistic,
			Params:    []float64{0.5, 0.05, 500, 0.98},
			RSquared:  0.98,
			Threshold: psychometric.Threshold(494.5),
			Levels:    lvs,
		},
		Levels:    lvs,
		CreatedAt: core.Now(),
	}
}

func newTestApp() (*App, core.RunID) {
	runID := core.NewRunID()
	repo := &stubRepo{results: map[core.RunID]*psychometric.AnalysisResult{
		runID: stubResult(runID),
	}}
	return NewApp(repo), runID
}

func TestHandleReport(t *testing.T) {
	app, _ := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<html>") {
		t.Error("report should be wrapped in HTML")
	}
	if !strings.Contains(body, "BRICKS004") {
		t.Error("report should include the dataset section")
	}
}

func TestHandleGetResult(t *testing.T) {
	app, runID := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/api/results/"+runID.String(), nil)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result psychometric.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.RunID != runID || result.NTrials != 40 {
		t.Errorf("unexpected result payload: %+v", result)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/results/nope", nil)
	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown run: status = %d, want 404", rec.Code)
	}
}

func TestHandleGetCurve(t *testing.T) {
	app, runID := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/api/results/"+runID.String()+"/curve", nil)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var points []psychometric.CurvePoint
	if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(points) != 100 {
		t.Errorf("expected 100 curve samples, got %d", len(points))
	}
}
