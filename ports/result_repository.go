package ports

import (
	"context"

	"psychofit/domain/core"
	"psychofit/domain/psychometric"
)

// ResultRepository persists analysis results for later reporting. The core
// never touches storage; only app-level orchestration does.
type ResultRepository interface {
	Save(ctx context.Context, result *psychometric.AnalysisResult) error
	GetByRunID(ctx context.Context, id core.RunID) (*psychometric.AnalysisResult, error)
	ListByDataset(ctx context.Context, name core.DatasetName, limit int) ([]*psychometric.AnalysisResult, error)
	ListLatest(ctx context.Context, limit int) ([]*psychometric.AnalysisResult, error)
}
