package scoring

import (
	"math"

	"github.com/okian/osupp/internal/domain/model"
)

// taikoScore ports TaikoScore.cpp arithmetic-for-arithmetic (see
// _examples/original_source/src/performance/taiko/TaikoScore.cpp). All
// intermediate arithmetic is float32, matching the reference's f32.
type taikoScore struct {
	in Input

	accuracy        float32
	difficultyValue float32
	accuracyValue   float32
	totalValue      float32
}

func newTaikoScore(in Input) *taikoScore {
	s := &taikoScore{in: in}
	s.accuracy = s.computeAccuracy()

	if in.Mods.Disqualifies() {
		s.totalValue = 0
		return s
	}

	s.computeDifficultyValue()
	s.computeAccuracyValue()
	s.computeTotalValue()
	return s
}

func (s *taikoScore) ScoreID() int64      { return s.in.ScoreID }
func (s *taikoScore) UserID() int64       { return s.in.UserID }
func (s *taikoScore) BeatmapID() int32    { return s.in.BeatmapID }
func (s *taikoScore) Mods() model.Mods    { return s.in.Mods }
func (s *taikoScore) TotalValue() float32 { return s.totalValue }
func (s *taikoScore) Accuracy() float32   { return s.accuracy }

func (s *taikoScore) TotalHits() int32 {
	c := s.in.Counts
	return c.N50 + c.N100 + c.N300 + c.NMiss
}

func (s *taikoScore) TotalSuccessfulHits() int32 {
	c := s.in.Counts
	return c.N50 + c.N100 + c.N300
}

func (s *taikoScore) computeAccuracy() float32 {
	total := s.TotalHits()
	if total == 0 {
		return 0
	}
	c := s.in.Counts
	return clamp01(float32(c.N100*150+c.N300*300) / float32(total*300))
}

func (s *taikoScore) computeDifficultyValue() {
	strain, _ := s.in.Beatmap.Attribute(s.in.Attribs, s.in.Mods, model.AttrStrain)

	d := float32(math.Pow(float64(5.0*float32(math.Max(1, float64(strain/0.115)))-4.0), 2.25)) / 1150.0

	lengthBonus := float32(1) + 0.1*float32(math.Min(1, float64(s.TotalHits())/1500.0))
	d *= lengthBonus

	d *= float32(math.Pow(0.986, float64(s.in.Counts.NMiss)))

	mods := s.in.Mods
	if mods.Any(model.ModEasy) {
		d *= 0.980
	}
	if mods.Any(model.ModHidden) {
		d *= 1.025
	}
	if mods.Any(model.ModFlashlight) {
		d *= 1.05 * lengthBonus
	}

	d *= float32(math.Pow(float64(s.accuracy), 1.5))

	s.difficultyValue = d
}

func (s *taikoScore) computeAccuracyValue() {
	hitWindow300, _ := s.in.Beatmap.Attribute(s.in.Attribs, s.in.Mods, model.AttrHitWindow300)
	if hitWindow300 <= 0 {
		s.accuracyValue = 0
		return
	}

	accValue := float32(math.Pow(float64(140.0/hitWindow300), 1.1)) * float32(math.Pow(float64(s.accuracy), 12)) * 27.0

	lengthBonus := float32(math.Min(1.15, math.Pow(float64(s.TotalHits())/1500.0, 0.3)))
	accValue *= lengthBonus

	if s.in.Mods.Has(model.ModHidden | model.ModFlashlight) {
		accValue *= 1.10 * lengthBonus
	}

	s.accuracyValue = accValue
}

func (s *taikoScore) computeTotalValue() {
	mult := float32(1.12)
	if s.in.Mods.Any(model.ModHidden) {
		mult *= 1.075
	}
	if s.in.Mods.Any(model.ModEasy) {
		mult *= 0.975
	}

	s.totalValue = float32(math.Pow(
		math.Pow(float64(s.difficultyValue), 1.1)+math.Pow(float64(s.accuracyValue), 1.1),
		1.0/1.1,
	)) * mult
}
