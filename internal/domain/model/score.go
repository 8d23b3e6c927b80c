package model

// Counts holds the raw hit-judgement tallies read straight off a score row.
// Field names follow the schema columns they come from.
type Counts struct {
	N300  int32
	N100  int32
	N50   int32
	NMiss int32
	NGeki int32
	NKatu int32
}

// Score is the common capability set every per-mode score implements. Once
// constructed a Score is immutable: all derived values are computed eagerly
// by the mode-specific factory (internal/domain/scoring) and never change.
type Score interface {
	ScoreID() int64
	UserID() int64
	BeatmapID() int32
	Mods() Mods

	// TotalValue is the score's pp.
	TotalValue() float32
	Accuracy() float32
	TotalHits() int32
	TotalSuccessfulHits() int32
}

// ScorePPRecord is what the user aggregator folds in per score: just enough
// to weight and sum.
type ScorePPRecord struct {
	Value    float32
	Accuracy float32
}
