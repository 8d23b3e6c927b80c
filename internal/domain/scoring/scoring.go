// Package scoring implements the per-mode pp formulas (spec.md §4.1,
// component C1): pure functions from (score counts, mods, beatmap
// attributes) to a score's pp, accuracy and hit totals.
//
// Each mode is a distinct type satisfying model.Score. Construction does all
// the arithmetic eagerly; afterward the value is immutable.
package scoring

import "github.com/okian/osupp/internal/domain/model"

// Input is everything a mode's score constructor needs, gathered from one
// row of osu_scores<suffix>_high plus the beatmap it was set on.
type Input struct {
	ScoreID   int64
	UserID    int64
	BeatmapID int32
	Score     int32
	MaxCombo  int32
	Counts    model.Counts
	Mods      model.Mods
	Beatmap   *model.Beatmap
	Attribs   *model.AttributeTable
}

// New constructs the correct concrete Score for mode, mirroring the
// reference's CProcessor::NewScore switch.
func New(mode model.Mode, in Input) (model.Score, error) {
	switch mode {
	case model.ModeStandard:
		return newStandardScore(in), nil
	case model.ModeTaiko:
		return newTaikoScore(in), nil
	case model.ModeCatchTheBeat:
		return newCatchScore(in), nil
	case model.ModeMania:
		return newManiaScore(in), nil
	default:
		return nil, &UnknownModeError{Mode: mode}
	}
}

// UnknownModeError is returned by New for a Mode value outside the four
// known modes; spec.md §7 classifies this as a programmer error, fatal for
// the pipeline invocation that triggered it.
type UnknownModeError struct {
	Mode model.Mode
}

func (e *UnknownModeError) Error() string {
	return "scoring: unknown game mode requested"
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
