package scoring

import (
	"math"

	"github.com/okian/osupp/internal/domain/model"
)

// catchScore models Catch the Beat pp: a strain-driven difficulty term
// scaled by a high-exponent accuracy term, the same overall shape as Taiko's
// formula (spec.md §4.1: "other modes' formulas are analogous"). No
// reference source for this mode exists in the pack; see DESIGN.md, Open
// Question 2.
type catchScore struct {
	in Input

	accuracy   float32
	totalValue float32
}

// In CTB, countKatu counts "tiny droplet" misses; fruits/droplets caught are
// N300/N100/N50, and NMiss is a fully missed fruit.
func newCatchScore(in Input) *catchScore {
	s := &catchScore{in: in}
	s.accuracy = s.computeAccuracy()

	if in.Mods.Disqualifies() {
		s.totalValue = 0
		return s
	}

	s.computeTotalValue()
	return s
}

func (s *catchScore) ScoreID() int64      { return s.in.ScoreID }
func (s *catchScore) UserID() int64       { return s.in.UserID }
func (s *catchScore) BeatmapID() int32    { return s.in.BeatmapID }
func (s *catchScore) Mods() model.Mods    { return s.in.Mods }
func (s *catchScore) TotalValue() float32 { return s.totalValue }
func (s *catchScore) Accuracy() float32   { return s.accuracy }

func (s *catchScore) TotalHits() int32 {
	c := s.in.Counts
	return c.N300 + c.N100 + c.N50 + c.NMiss + c.NKatu
}

func (s *catchScore) TotalSuccessfulHits() int32 {
	c := s.in.Counts
	return c.N300 + c.N100 + c.N50
}

func (s *catchScore) computeAccuracy() float32 {
	total := s.TotalHits()
	if total == 0 {
		return 0
	}
	return clamp01(float32(s.TotalSuccessfulHits()) / float32(total))
}

func (s *catchScore) computeTotalValue() {
	strain, _ := s.in.Beatmap.Attribute(s.in.Attribs, s.in.Mods, model.AttrStrain)

	value := float32(math.Pow(float64(5*float32(math.Max(1, float64(strain/0.0049)))-4), 2.0)) / 100000.0

	lengthBonus := 1 + 0.1*float32(math.Min(1, float64(s.TotalHits())/3000.0))
	value *= lengthBonus

	value *= float32(math.Pow(0.97, float64(s.in.Counts.NMiss)))
	value *= float32(math.Pow(float64(s.accuracy), 5.5))

	mods := s.in.Mods
	if mods.Any(model.ModHidden) {
		value *= 1.05 + 0.075*lengthBonus
	}
	if mods.Any(model.ModFlashlight) {
		value *= 1.35 * lengthBonus
	}

	multiplier := float32(1.0)
	if mods.Any(model.ModNoFail) {
		multiplier *= 0.90
	}
	if mods.Any(model.ModEasy) {
		multiplier *= 0.50
	}

	s.totalValue = value * multiplier
}
