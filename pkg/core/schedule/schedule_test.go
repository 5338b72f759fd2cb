package schedule

import "testing"

func TestEstimateFrequencyQuarterly(t *testing.T) {
	months := []int{1, 4, 7, 10}
	got := EstimateFrequency(months)
	if got != 3 {
		t.Errorf("expected quarterly frequency 3, got %v", got)
	}
}

func TestEstimateFrequencyAnnual(t *testing.T) {
	months := []int{6}
	got := EstimateFrequency(months)
	if got != 12 {
		t.Errorf("expected annual frequency 12 for single record, got %v", got)
	}
}

func TestEstimateFrequencyEmptyHistory(t *testing.T) {
	if got := EstimateFrequency(nil); got != 0 {
		t.Errorf("expected 0 for empty history, got %v", got)
	}
}

func TestEstimateFrequencyFallsBackOnMultimodal(t *testing.T) {
	// March then December: one interval of 9 (normalized 12) and a
	// closing interval of 3 (normalized 3) tie, so the fallback counts 2
	// trailing-12-month payouts and returns normalize(12/2) = 6.
	months := []int{3, 12}
	got := EstimateFrequency(months)
	if got != 6 {
		t.Errorf("expected fallback frequency 6, got %v", got)
	}
}

func TestEstimateExtendsScheduleToTarget(t *testing.T) {
	observed := []int{1, 4}
	got := Estimate(observed, 3)
	if len(got) != 4 {
		t.Fatalf("expected schedule of 4 months for quarterly interval, got %v", got)
	}
	want := map[int]bool{1: true, 4: true, 7: true, 10: true}
	for _, m := range got {
		if !want[m] {
			t.Errorf("unexpected month %d in schedule %v", m, got)
		}
	}
}

func TestEstimateSkipsAlreadyPresentMonths(t *testing.T) {
	observed := []int{1, 7}
	got := Estimate(observed, 6)
	if len(got) != 2 {
		t.Fatalf("expected schedule of 2 months for semiannual interval, got %v", got)
	}
}
