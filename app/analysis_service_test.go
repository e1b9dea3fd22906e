package app

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"psychofit/domain/core"
	"psychofit/domain/psychometric"
	"psychofit/domain/trial"
	"psychofit/internal/analysis"
)

type fakeProvider struct {
	datasets map[core.DatasetName]trial.Dataset
}

func (f *fakeProvider) ListDatasets(ctx context.Context) ([]core.DatasetName, error) {
	names := make([]core.DatasetName, 0, len(f.datasets))
	for name := range f.datasets {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeProvider) LoadDataset(ctx context.Context, name core.DatasetName, recentN int) (trial.Dataset, error) {
	ds, ok := f.datasets[name]
	if !ok {
		return trial.Dataset{}, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, name)
	}
	return ds, nil
}

type fakeRepo struct {
	mu    sync.Mutex
	saved []*psychometric.AnalysisResult
}

func (f *fakeRepo) Save(ctx context.Context, result *psychometric.AnalysisResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, result)
	return nil
}

func (f *fakeRepo) GetByRunID(ctx context.Context, id core.RunID) (*psychometric.AnalysisResult, error) {
	return nil, core.ErrResultNotFound
}

func (f *fakeRepo) ListByDataset(ctx context.Context, name core.DatasetName, limit int) ([]*psychometric.AnalysisResult, error) {
	return nil, nil
}

func (f *fakeRepo) ListLatest(ctx context.Context, limit int) ([]*psychometric.AnalysisResult, error) {
	return nil, nil
}

func syntheticDataset(name core.DatasetName) trial.Dataset {
	var trials []trial.Trial
	for _, x := range []float64{400, 425, 450, 475, 500, 525, 550, 575, 600} {
		p := 0.5 + 0.48/(1+math.Exp(-0.05*(x-500)))
		correct := int(math.Round(p * 30))
		for i := 0; i < 30; i++ {
			trials = append(trials, trial.Trial{StimulusIntensity: x, Correct: i < correct})
		}
	}
	return trial.Dataset{
		Name: name,
		Sessions: []trial.Session{
			{Info: trial.SessionInfo{Filename: "synthetic.csv", Trials: len(trials)}, Trials: trials},
		},
	}
}

func TestAnalyzeNamed_PreservesOrderAndIsolatesFailures(t *testing.T) {
	provider := &fakeProvider{datasets: map[core.DatasetName]trial.Dataset{
		"bricks004": syntheticDataset("bricks004"),
		"rock062":   syntheticDataset("rock062"),
	}}
	repo := &fakeRepo{}
	analyzer := analysis.NewAnalyzer(psychometric.ModelLogistic, analysis.DefaultTarget)
	service := NewAnalysisService(provider, analyzer, repo, 2)

	names := []core.DatasetName{"bricks004", "missing", "rock062"}
	outcomes, err := service.AnalyzeNamed(context.Background(), names, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}

	for i, name := range names {
		if outcomes[i].Dataset != name {
			t.Errorf("outcome %d is for %s, want %s", i, outcomes[i].Dataset, name)
		}
	}

	if outcomes[0].Err != nil || outcomes[0].Result == nil {
		t.Errorf("bricks004 should succeed, got err=%v", outcomes[0].Err)
	}
	if outcomes[1].Err == nil || outcomes[1].Result != nil {
		t.Error("the missing dataset should fail without blocking the others")
	}
	if outcomes[2].Err != nil || outcomes[2].Result == nil {
		t.Errorf("rock062 should succeed, got err=%v", outcomes[2].Err)
	}

	// Only successful results are persisted
	repo.mu.Lock()
	saved := len(repo.saved)
	repo.mu.Unlock()
	if saved != 2 {
		t.Errorf("expected 2 saved results, got %d", saved)
	}

	results := Results(outcomes)
	if len(results) != 2 {
		t.Errorf("Results should keep the 2 successes, got %d", len(results))
	}
}

func TestAnalyzeAll_NilRepository(t *testing.T) {
	provider := &fakeProvider{datasets: map[core.DatasetName]trial.Dataset{
		"bricks004": syntheticDataset("bricks004"),
	}}
	analyzer := analysis.NewAnalyzer(psychometric.ModelLogistic, analysis.DefaultTarget)
	service := NewAnalysisService(provider, analyzer, nil, 1)

	outcomes, err := service.AnalyzeAll(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Result == nil {
		t.Fatalf("expected one successful outcome, got %+v", outcomes)
	}
}
