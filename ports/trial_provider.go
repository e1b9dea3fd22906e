// Package ports defines the interfaces between the analysis core and its
// collaborators: trial loading on the way in, result storage and reporting
// on the way out.
package ports

import (
	"context"

	"psychofit/domain/core"
	"psychofit/domain/trial"
)

// TrialProvider yields the merged trial material for named datasets. The
// core consumes the returned datasets read-only.
type TrialProvider interface {
	// ListDatasets returns the dataset names the provider can load
	ListDatasets(ctx context.Context) ([]core.DatasetName, error)

	// LoadDataset loads all sessions for one dataset. recentN > 0 keeps
	// only the newest recentN sessions by recording timestamp.
	LoadDataset(ctx context.Context, name core.DatasetName, recentN int) (trial.Dataset, error)
}
