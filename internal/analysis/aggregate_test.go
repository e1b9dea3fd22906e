package analysis

import (
	"testing"

	"psychofit/domain/core"
	"psychofit/domain/trial"
)

func trialsAt(intensity float64, correct, incorrect int) []trial.Trial {
	var ts []trial.Trial
	for i := 0; i < correct; i++ {
		ts = append(ts, trial.Trial{StimulusIntensity: intensity, Correct: true})
	}
	for i := 0; i < incorrect; i++ {
		ts = append(ts, trial.Trial{StimulusIntensity: intensity, Correct: false})
	}
	return ts
}

func TestAggregateLevels_GroupsAndOrders(t *testing.T) {
	var trials []trial.Trial
	trials = append(trials, trialsAt(550, 9, 1)...)
	trials = append(trials, trialsAt(450, 3, 2)...)
	trials = append(trials, trialsAt(500, 6, 2)...)

	levels, err := AggregateLevels(trials, 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(levels))
	}

	wantIntensity := []float64{450, 500, 550}
	wantProp := []float64{0.6, 0.75, 0.9}
	wantCount := []int{5, 8, 10}
	for i, lv := range levels {
		if lv.Intensity != wantIntensity[i] {
			t.Errorf("level %d: intensity %v, want %v", i, lv.Intensity, wantIntensity[i])
		}
		if lv.ProportionCorrect != wantProp[i] {
			t.Errorf("level %d: proportion %v, want %v", i, lv.ProportionCorrect, wantProp[i])
		}
		if lv.TrialCount != wantCount[i] {
			t.Errorf("level %d: count %d, want %d", i, lv.TrialCount, wantCount[i])
		}
	}
}

func TestAggregateLevels_NoDuplicateIntensities(t *testing.T) {
	var trials []trial.Trial
	for _, x := range []float64{400, 400, 450, 450, 450, 500, 500, 400} {
		trials = append(trials, trial.Trial{StimulusIntensity: x, Correct: true})
	}

	levels, err := AggregateLevels(trials, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[float64]bool)
	for _, lv := range levels {
		if seen[lv.Intensity] {
			t.Errorf("duplicate intensity %v emitted", lv.Intensity)
		}
		seen[lv.Intensity] = true
		if lv.TrialCount < 2 {
			t.Errorf("level at %v has %d trials, below minimum", lv.Intensity, lv.TrialCount)
		}
	}
}

func TestAggregateLevels_DropsSparseLevels(t *testing.T) {
	var trials []trial.Trial
	trials = append(trials, trialsAt(400, 2, 2)...)
	trials = append(trials, trial.Trial{StimulusIntensity: 425, Correct: true}) // single visit
	trials = append(trials, trialsAt(450, 3, 1)...)

	levels, err := AggregateLevels(trials, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, lv := range levels {
		if lv.Intensity == 425 {
			t.Error("level with a single trial should have been dropped")
		}
	}
	if len(levels) != 2 {
		t.Errorf("expected 2 surviving levels, got %d", len(levels))
	}
}

func TestAggregateLevels_InsufficientLevels(t *testing.T) {
	trials := append(trialsAt(400, 2, 2), trialsAt(500, 3, 1)...)

	levels, err := AggregateLevels(trials, 2, MinLevelsForFit)
	if !core.IsInsufficientDataError(err) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	// Surviving levels still come back so the caller can fall back to them
	if len(levels) != 2 {
		t.Errorf("expected the 2 surviving levels alongside the error, got %d", len(levels))
	}
}
