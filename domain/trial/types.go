// Package trial defines the immutable 2AFC trial records and the
// per-intensity performance aggregates derived from them.
package trial

import (
	"psychofit/domain/core"
)

// Trial is a single two-alternative-forced-choice presentation: the stimulus
// intensity shown and whether the response was correct. Trials are produced
// by the loading boundary and never mutated by analysis code.
type Trial struct {
	StimulusIntensity float64 `json:"stimulus_intensity"`
	Correct           bool    `json:"correct"`
}

// PerformanceLevel is the per-intensity aggregate of a trial set: one entry
// per distinct stimulus intensity, with the observed proportion correct and
// the number of trials contributing to it.
type PerformanceLevel struct {
	Intensity         float64 `json:"intensity"`
	ProportionCorrect float64 `json:"proportion_correct"`
	TrialCount        int     `json:"trial_count"`
}

// SessionInfo carries descriptive per-session metadata for reporting. It
// never feeds the fit itself.
type SessionInfo struct {
	Filename   string         `json:"filename"`
	RecordedAt core.Timestamp `json:"recorded_at"`
	Trials     int            `json:"trials"`
	Accuracy   float64        `json:"accuracy"`
}

// Session is one recorded experimental session: its metadata plus the trials
// it contributed.
type Session struct {
	Info   SessionInfo `json:"info"`
	Trials []Trial     `json:"trials"`
}

// Dataset groups the sessions collected under one experimental condition.
type Dataset struct {
	Name     core.DatasetName `json:"name"`
	Sessions []Session        `json:"sessions"`
}

// AllTrials merges every session's trials into one slice, in session order.
func (d Dataset) AllTrials() []Trial {
	n := 0
	for _, s := range d.Sessions {
		n += len(s.Trials)
	}
	merged := make([]Trial, 0, n)
	for _, s := range d.Sessions {
		merged = append(merged, s.Trials...)
	}
	return merged
}

// SessionInfos returns the per-session metadata in session order.
func (d Dataset) SessionInfos() []SessionInfo {
	infos := make([]SessionInfo, len(d.Sessions))
	for i, s := range d.Sessions {
		infos[i] = s.Info
	}
	return infos
}
