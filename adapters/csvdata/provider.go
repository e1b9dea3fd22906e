// Package csvdata loads 2AFC session files from disk. Each dataset is a
// directory of CSV files named like 2AFC_P_20251020_003915.csv, one file per
// recorded session. All lookups take the dataset root explicitly; nothing
// here touches the process working directory.
package csvdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"psychofit/domain/core"
	"psychofit/domain/trial"
	"psychofit/internal"
	"psychofit/ports"
)

const sessionFilePrefix = "2AFC_P_"

// Provider implements ports.TrialProvider over a directory-per-dataset
// layout rooted at Root.
type Provider struct {
	root string
	// datasets maps a logical dataset name to its directory under root,
	// e.g. bricks004 -> Bricks004_results.
	datasets map[core.DatasetName]string
	logger   *internal.Logger
}

var _ ports.TrialProvider = (*Provider)(nil)

// NewProvider creates a provider for the given root and dataset registry
func NewProvider(root string, datasets map[core.DatasetName]string) *Provider {
	return &Provider{
		root:     root,
		datasets: datasets,
		logger:   internal.DefaultLogger,
	}
}

// ListDatasets returns the registered dataset names whose directories exist
func (p *Provider) ListDatasets(ctx context.Context) ([]core.DatasetName, error) {
	names := make([]core.DatasetName, 0, len(p.datasets))
	for name, dir := range p.datasets {
		if _, err := os.Stat(filepath.Join(p.root, dir)); err != nil {
			p.logger.Warn("dataset %s: directory %s not found, skipping", name, dir)
			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names, nil
}

// LoadDataset loads every parsable session file for the dataset, newest
// first by the timestamp embedded in the filename. recentN > 0 keeps only
// the newest recentN sessions. Files that fail to parse are logged and
// skipped; only a dataset with no usable files at all is an error.
func (p *Provider) LoadDataset(ctx context.Context, name core.DatasetName, recentN int) (trial.Dataset, error) {
	dir, ok := p.datasets[name]
	if !ok {
		return trial.Dataset{}, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, name)
	}
	dir = filepath.Join(p.root, dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return trial.Dataset{}, fmt.Errorf("reading dataset directory %s: %w", dir, err)
	}

	type candidate struct {
		path       string
		filename   string
		recordedAt core.Timestamp
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), sessionFilePrefix) || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		ts, err := ParseSessionTimestamp(e.Name())
		if err != nil {
			p.logger.Warn("dataset %s: %v, skipping %s", name, err, e.Name())
			continue
		}
		candidates = append(candidates, candidate{
			path:       filepath.Join(dir, e.Name()),
			filename:   e.Name(),
			recordedAt: ts,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].recordedAt.After(candidates[j].recordedAt)
	})
	if recentN > 0 && len(candidates) > recentN {
		candidates = candidates[:recentN]
	}

	ds := trial.Dataset{Name: name}
	for _, c := range candidates {
		select {
		case <-ctx.Done():
			return trial.Dataset{}, ctx.Err()
		default:
		}
		trials, err := readSessionFile(c.path)
		if err != nil {
			p.logger.Warn("dataset %s: %v, skipping %s", name, err, c.filename)
			continue
		}
		if len(trials) == 0 {
			continue
		}
		correct := 0
		for _, t := range trials {
			if t.Correct {
				correct++
			}
		}
		ds.Sessions = append(ds.Sessions, trial.Session{
			Info: trial.SessionInfo{
				Filename:   c.filename,
				RecordedAt: c.recordedAt,
				Trials:     len(trials),
				Accuracy:   float64(correct) / float64(len(trials)),
			},
			Trials: trials,
		})
	}
	if len(ds.Sessions) == 0 {
		return trial.Dataset{}, fmt.Errorf("%w: dataset %s in %s", core.ErrNoSessionFiles, name, dir)
	}
	p.logger.Info("loaded %d sessions from %s", len(ds.Sessions), name)
	return ds, nil
}

// readSessionFile parses one session CSV into validated trials. Footer rows
// (the JND_px summary line) and anything else without a numeric trial index
// are dropped at this boundary so the core only ever sees typed records.
func readSessionFile(path string) ([]trial.Trial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseSession(f)
}

// ParseSession reads trials from session CSV content. The header must carry
// trial, cmpPx and correct columns; extra columns are ignored.
func ParseSession(r io.Reader) ([]trial.Trial, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	trialCol, cmpCol, correctCol := -1, -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "trial":
			trialCol = i
		case "cmpPx":
			cmpCol = i
		case "correct":
			correctCol = i
		}
	}
	if trialCol < 0 || cmpCol < 0 || correctCol < 0 {
		return nil, fmt.Errorf("%w: missing trial/cmpPx/correct columns", core.ErrInvalidTrial)
	}

	var trials []trial.Trial
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		maxCol := trialCol
		if cmpCol > maxCol {
			maxCol = cmpCol
		}
		if correctCol > maxCol {
			maxCol = correctCol
		}
		if len(record) <= maxCol {
			continue
		}
		// Rows without a numeric trial index are footers, not trials
		if _, err := strconv.ParseFloat(strings.TrimSpace(record[trialCol]), 64); err != nil {
			continue
		}
		intensity, err := strconv.ParseFloat(strings.TrimSpace(record[cmpCol]), 64)
		if err != nil {
			continue
		}
		correct, err := parseBoolish(record[correctCol])
		if err != nil {
			continue
		}
		trials = append(trials, trial.Trial{StimulusIntensity: intensity, Correct: correct})
	}
	return trials, nil
}

// parseBoolish accepts the spellings session recorders actually emit
func parseBoolish(s string) (bool, error) {
	return strconv.ParseBool(strings.ToLower(strings.TrimSpace(s)))
}
