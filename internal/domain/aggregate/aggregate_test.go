package aggregate

import (
	"math"
	"testing"

	"github.com/okian/osupp/internal/domain/model"
)

func TestCompute_Empty(t *testing.T) {
	got := Compute(nil)
	if got.Value != 0 || got.Accuracy != 0 {
		t.Fatalf("Compute(nil) = %+v, want zero value", got)
	}
}

func TestCompute_SingleRecord(t *testing.T) {
	got := Compute([]model.ScorePPRecord{{Value: 100, Accuracy: 0.95}})
	if got.Value != 100 {
		t.Fatalf("Value = %v, want 100", got.Value)
	}
	if math.Abs(float64(got.Accuracy-0.95)) > 1e-6 {
		t.Fatalf("Accuracy = %v, want 0.95", got.Accuracy)
	}
}

func TestCompute_WeightedByRankDescending(t *testing.T) {
	records := []model.ScorePPRecord{
		{Value: 100, Accuracy: 1.0},
		{Value: 200, Accuracy: 1.0},
		{Value: 50, Accuracy: 1.0},
	}
	got := Compute(records)

	want := float32(200*1.0 + 100*0.95 + 50*0.95*0.95)
	if math.Abs(float64(got.Value-want)) > 1e-2 {
		t.Fatalf("Value = %v, want %v (order must be value-descending regardless of input order)", got.Value, want)
	}
}

// Adding a strictly higher-value record can only raise the aggregate, never
// lower it (spec.md §8 monotonicity property).
func TestCompute_MonotonicUnderAddition(t *testing.T) {
	base := []model.ScorePPRecord{
		{Value: 300, Accuracy: 0.98},
		{Value: 150, Accuracy: 0.9},
	}
	before := Compute(base)

	withExtra := append(append([]model.ScorePPRecord{}, base...), model.ScorePPRecord{Value: 400, Accuracy: 0.99})
	after := Compute(withExtra)

	if after.Value <= before.Value {
		t.Fatalf("aggregate did not increase after adding a higher-value record: before=%v after=%v", before.Value, after.Value)
	}
}

func TestCompute_AccuracyStaysInRange(t *testing.T) {
	records := []model.ScorePPRecord{
		{Value: 500, Accuracy: 1.0},
		{Value: 10, Accuracy: 0.0},
		{Value: 250, Accuracy: 0.6},
	}
	got := Compute(records)
	if got.Accuracy < 0 || got.Accuracy > 1 {
		t.Fatalf("Accuracy = %v, out of [0,1]", got.Accuracy)
	}
}

func TestCompute_InputOrderIrrelevant(t *testing.T) {
	a := []model.ScorePPRecord{{Value: 10}, {Value: 30}, {Value: 20}}
	b := []model.ScorePPRecord{{Value: 30}, {Value: 20}, {Value: 10}}

	gotA := Compute(a)
	gotB := Compute(b)
	if gotA.Value != gotB.Value {
		t.Fatalf("Compute is sensitive to input order: %v vs %v", gotA.Value, gotB.Value)
	}
}

// Compute must not mutate its input slice (the caller's records may be
// reused for ComputePPRecord bookkeeping afterward).
func TestCompute_DoesNotMutateInput(t *testing.T) {
	records := []model.ScorePPRecord{{Value: 10}, {Value: 30}, {Value: 20}}
	cp := append([]model.ScorePPRecord{}, records...)

	Compute(records)

	for i := range records {
		if records[i] != cp[i] {
			t.Fatalf("input slice was mutated at index %d: got %+v, want %+v", i, records[i], cp[i])
		}
	}
}
