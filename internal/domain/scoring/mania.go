package scoring

import (
	"math"

	"github.com/okian/osupp/internal/domain/model"
)

// maniaScore models osu!mania pp: strain scaled by a judgement-weighted
// accuracy (perfect 320 down to meh 50), with no hit-window term; the
// score-points column is not used. Same "analogous, strain-driven" shape as
// the other non-Taiko modes; see DESIGN.md, Open Question 2.
type maniaScore struct {
	in Input

	accuracy   float32
	totalValue float32
}

func newManiaScore(in Input) *maniaScore {
	s := &maniaScore{in: in}
	s.accuracy = s.computeAccuracy()

	if in.Mods.Disqualifies() {
		s.totalValue = 0
		return s
	}

	s.computeTotalValue()
	return s
}

func (s *maniaScore) ScoreID() int64      { return s.in.ScoreID }
func (s *maniaScore) UserID() int64       { return s.in.UserID }
func (s *maniaScore) BeatmapID() int32    { return s.in.BeatmapID }
func (s *maniaScore) Mods() model.Mods    { return s.in.Mods }
func (s *maniaScore) TotalValue() float32 { return s.totalValue }
func (s *maniaScore) Accuracy() float32   { return s.accuracy }

// Mania has six judgements: perfect (NGeki, 320), great (N300), good (NKatu,
// 200), ok (N100), meh (N50), miss (NMiss).
func (s *maniaScore) TotalHits() int32 {
	c := s.in.Counts
	return c.NGeki + c.N300 + c.NKatu + c.N100 + c.N50 + c.NMiss
}

func (s *maniaScore) TotalSuccessfulHits() int32 {
	c := s.in.Counts
	return c.NGeki + c.N300 + c.NKatu + c.N100 + c.N50
}

func (s *maniaScore) computeAccuracy() float32 {
	total := s.TotalHits()
	if total == 0 {
		return 0
	}
	c := s.in.Counts
	points := c.NGeki*320 + c.N300*300 + c.NKatu*200 + c.N100*100 + c.N50*50
	return clamp01(float32(points) / float32(total*320))
}

func (s *maniaScore) computeTotalValue() {
	strain, _ := s.in.Beatmap.Attribute(s.in.Attribs, s.in.Mods, model.AttrStrain)

	diffValue := float32(math.Pow(float64(5*float32(math.Max(1, float64(strain/0.2)))-4), 2.2)) / 135.0

	lengthBonus := 1 + 0.1*float32(math.Min(1, float64(s.TotalHits())/1500.0))
	diffValue *= lengthBonus

	diffValue *= float32(math.Pow(float64(s.accuracy), 16))

	mods := s.in.Mods
	multiplier := float32(0.8)
	if mods.Any(model.ModNoFail) {
		multiplier *= 0.90
	}
	if mods.Any(model.ModEasy) {
		multiplier *= 0.50
	}
	if mods.Any(model.ModHidden) || mods.Any(model.ModFlashlight) {
		multiplier *= 1.05
	}

	s.totalValue = diffValue * multiplier
}
