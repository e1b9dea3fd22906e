// Package app wires the analysis core to its collaborators: it loads
// datasets through a TrialProvider, runs each through the analyzer, and
// hands the results to storage and reporting.
package app

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"psychofit/domain/core"
	"psychofit/domain/psychometric"
	"psychofit/internal"
	"psychofit/internal/analysis"
	"psychofit/ports"
)

// AnalysisService runs the multi-dataset threshold analysis. Datasets are
// independent, so they run concurrently under a weighted semaphore; one
// dataset failing to load or fit never blocks another.
type AnalysisService struct {
	provider ports.TrialProvider
	analyzer *analysis.Analyzer
	results  ports.ResultRepository // optional, nil disables persistence
	sem      *semaphore.Weighted
	logger   *internal.Logger
}

// NewAnalysisService creates the orchestration service. maxConcurrent caps
// simultaneous dataset analyses; results may be nil when persistence is off.
func NewAnalysisService(provider ports.TrialProvider, analyzer *analysis.Analyzer, results ports.ResultRepository, maxConcurrent int64) *AnalysisService {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &AnalysisService{
		provider: provider,
		analyzer: analyzer,
		results:  results,
		sem:      semaphore.NewWeighted(maxConcurrent),
		logger:   internal.DefaultLogger,
	}
}

// DatasetOutcome pairs a dataset with its result or its failure
type DatasetOutcome struct {
	Dataset core.DatasetName
	Result  *psychometric.AnalysisResult
	Err     error
}

// AnalyzeAll analyzes every dataset the provider knows about, in name order.
// recentN > 0 restricts each dataset to its newest recentN sessions. The
// returned outcomes preserve provider order; per-dataset failures are
// carried in the outcome, not returned as the call's error.
func (s *AnalysisService) AnalyzeAll(ctx context.Context, recentN int) ([]DatasetOutcome, error) {
	names, err := s.provider.ListDatasets(ctx)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeNamed(ctx, names, recentN)
}

// AnalyzeNamed analyzes the given datasets concurrently
func (s *AnalysisService) AnalyzeNamed(ctx context.Context, names []core.DatasetName, recentN int) ([]DatasetOutcome, error) {
	outcomes := make([]DatasetOutcome, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(i int, name core.DatasetName) {
			defer wg.Done()
			defer s.sem.Release(1)
			outcomes[i] = s.analyzeOne(ctx, name, recentN)
		}(i, name)
	}
	wg.Wait()

	if s.results != nil {
		for _, outcome := range outcomes {
			if outcome.Result == nil {
				continue
			}
			if err := s.results.Save(ctx, outcome.Result); err != nil {
				s.logger.Error("saving result for %s: %v", outcome.Dataset, err)
			}
		}
	}
	return outcomes, nil
}

func (s *AnalysisService) analyzeOne(ctx context.Context, name core.DatasetName, recentN int) DatasetOutcome {
	outcome := DatasetOutcome{Dataset: name}

	ds, err := s.provider.LoadDataset(ctx, name, recentN)
	if err != nil {
		s.logger.Error("loading dataset %s: %v", name, err)
		outcome.Err = err
		return outcome
	}

	result, err := s.analyzer.AnalyzeDataset(ds)
	if err != nil {
		s.logger.Error("analyzing dataset %s: %v", name, err)
		outcome.Err = err
		return outcome
	}

	s.logger.Info("dataset %s: %d trials, accuracy %.3f, simple threshold %v",
		name, result.NTrials, result.OverallAccuracy, result.SimpleThreshold)
	outcome.Result = result
	return outcome
}

// Results extracts the successful results from outcomes, preserving order
func Results(outcomes []DatasetOutcome) []*psychometric.AnalysisResult {
	results := make([]*psychometric.AnalysisResult, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Result != nil {
			results = append(results, o.Result)
		}
	}
	return results
}
