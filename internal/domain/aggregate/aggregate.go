// Package aggregate combines a user's per-score pp records into a single
// aggregate pp/accuracy pair (spec.md §4.2, component C2).
package aggregate

import (
	"sort"

	"github.com/okian/osupp/internal/domain/model"
)

// decayBase is the per-rank weight falloff applied to both pp and accuracy.
const decayBase = 0.95

// Compute folds a slice of per-score pp records into a user's aggregate
// rating. Records are sorted by value descending (highest-pp score first)
// and weighted by decayBase^i. Empty input returns the zero PPRecord.
//
//	user.pp       = Σ value_i * 0.95^i
//	user.accuracy = Σ (accuracy_i * 0.95^i) / Σ 0.95^i
func Compute(records []model.ScorePPRecord) model.PPRecord {
	if len(records) == 0 {
		return model.PPRecord{}
	}

	sorted := make([]model.ScorePPRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})

	var ppSum, accNumerator, weightSum float64
	weight := 1.0
	for _, r := range sorted {
		ppSum += float64(r.Value) * weight
		accNumerator += float64(r.Accuracy) * weight
		weightSum += weight
		weight *= decayBase
	}

	accuracy := 0.0
	if weightSum > 0 {
		accuracy = accNumerator / weightSum
	}

	return model.PPRecord{
		Value:    float32(ppSum),
		Accuracy: float32(accuracy),
	}
}
