package scoring

import (
	"math"

	"github.com/okian/osupp/internal/domain/model"
)

// standardScore follows the field/method shape of OsuScore.h (see
// _examples/original_source/include/pp/performance/osu/OsuScore.h):
// aim/speed/acc/flashlight components combined into one total. The header
// has no accompanying .cpp in the pack, so each compute* body here follows
// the publicly documented structure of osu!'s pp algorithm rather than a
// ported reference — see DESIGN.md, Open Question 2.
type standardScore struct {
	in Input

	accuracy           float32
	aim                float32
	speed              float32
	acc                float32
	flashlight         float32
	effectiveMissCount float32
	totalValue         float32
}

func newStandardScore(in Input) *standardScore {
	s := &standardScore{in: in}
	s.accuracy = s.computeAccuracy()

	if in.Mods.Disqualifies() {
		s.totalValue = 0
		return s
	}

	s.computeEffectiveMissCount()
	s.computeAimValue()
	s.computeSpeedValue()
	s.computeAccValue()
	s.computeFlashlightValue()
	s.computeTotalValue()
	return s
}

func (s *standardScore) ScoreID() int64      { return s.in.ScoreID }
func (s *standardScore) UserID() int64       { return s.in.UserID }
func (s *standardScore) BeatmapID() int32    { return s.in.BeatmapID }
func (s *standardScore) Mods() model.Mods    { return s.in.Mods }
func (s *standardScore) TotalValue() float32 { return s.totalValue }
func (s *standardScore) Accuracy() float32   { return s.accuracy }

func (s *standardScore) TotalHits() int32 {
	c := s.in.Counts
	return c.N300 + c.N100 + c.N50 + c.NMiss
}

func (s *standardScore) TotalSuccessfulHits() int32 {
	c := s.in.Counts
	return c.N300 + c.N100 + c.N50
}

func (s *standardScore) computeAccuracy() float32 {
	total := s.TotalHits()
	if total == 0 {
		return 0
	}
	c := s.in.Counts
	return clamp01(float32(c.N300*300+c.N100*100+c.N50*50) / float32(total*300))
}

// computeEffectiveMissCount penalizes combo breaks that didn't register as
// an explicit miss (e.g. a slider break), approximated from the gap between
// the beatmap's maximum combo and the combo actually achieved.
func (s *standardScore) computeEffectiveMissCount() {
	beatmapMaxCombo, ok := s.in.Beatmap.Attribute(s.in.Attribs, s.in.Mods, model.AttrMaxCombo)
	if !ok || beatmapMaxCombo <= 0 || s.in.MaxCombo >= int32(beatmapMaxCombo) {
		s.effectiveMissCount = float32(s.in.Counts.NMiss)
		return
	}

	comboBasedMissCount := beatmapMaxCombo / float32(s.in.MaxCombo+1) * float32(s.in.Counts.NMiss+1)
	if comboBasedMissCount < float32(s.in.Counts.NMiss) {
		comboBasedMissCount = float32(s.in.Counts.NMiss)
	}
	s.effectiveMissCount = comboBasedMissCount
}

func (s *standardScore) lengthBonus() float32 {
	hits := float64(s.TotalHits())
	bonus := 0.95 + 0.4*math.Min(1, hits/2000.0)
	if hits > 2000 {
		bonus += math.Log10(hits/2000.0) * 0.5
	}
	return float32(bonus)
}

func (s *standardScore) computeAimValue() {
	aim, _ := s.in.Beatmap.Attribute(s.in.Attribs, s.in.Mods, model.AttrAim)
	ar, _ := s.in.Beatmap.Attribute(s.in.Attribs, s.in.Mods, model.AttrAR)

	value := float32(math.Pow(float64(5*float32(math.Max(1, float64(aim/0.0675)))-4), 3)) / 100000.0
	value *= s.lengthBonus()
	value *= float32(math.Pow(0.97, float64(s.effectiveMissCount)))

	arBonus := float32(0)
	switch {
	case ar > 10.33:
		arBonus += 0.3 * (ar - 10.33)
	case ar < 8:
		arBonus += 0.01 * (8 - ar)
	}
	value *= 1 + arBonus

	if s.in.Mods.Any(model.ModHidden) {
		value *= 1 + 0.04*(12-ar)
	}
	if s.in.Mods.Any(model.ModFlashlight) {
		value *= 1 + 0.35*float32(math.Min(1, float64(s.TotalHits())/200.0))
	}

	value *= 0.5 + s.accuracy/2
	od, _ := s.in.Beatmap.Attribute(s.in.Attribs, s.in.Mods, model.AttrOD)
	value *= 0.98 + float32(math.Pow(float64(od), 2))/2500

	s.aim = value
}

func (s *standardScore) computeSpeedValue() {
	speed, _ := s.in.Beatmap.Attribute(s.in.Attribs, s.in.Mods, model.AttrSpeed)
	od, _ := s.in.Beatmap.Attribute(s.in.Attribs, s.in.Mods, model.AttrOD)

	value := float32(math.Pow(float64(5*float32(math.Max(1, float64(speed/0.0675)))-4), 3)) / 100000.0
	value *= s.lengthBonus()
	value *= float32(math.Pow(0.97, float64(s.effectiveMissCount)))

	value *= 0.02 + s.accuracy
	value *= 0.96 + float32(math.Pow(float64(od), 2))/1600

	s.speed = value
}

func (s *standardScore) computeAccValue() {
	od, _ := s.in.Beatmap.Attribute(s.in.Attribs, s.in.Mods, model.AttrOD)

	betterAccuracyPercentage := s.accuracy
	if s.TotalHits() == 0 {
		betterAccuracyPercentage = 0
	}

	value := float32(math.Pow(1.52163, float64(od))) * float32(math.Pow(float64(betterAccuracyPercentage), 24)) * 2.83

	value *= float32(math.Min(1.15, math.Pow(float64(s.TotalHits())/1000.0, 0.3)))

	if s.in.Mods.Any(model.ModHidden) {
		value *= 1.08
	}
	if s.in.Mods.Any(model.ModFlashlight) {
		value *= 1.02
	}

	s.acc = value
}

func (s *standardScore) computeFlashlightValue() {
	if !s.in.Mods.Any(model.ModFlashlight) {
		s.flashlight = 0
		return
	}

	aim, _ := s.in.Beatmap.Attribute(s.in.Attribs, s.in.Mods, model.AttrAim)

	value := float32(math.Pow(float64(aim), 2)) * 25.0
	value *= 1 + 0.3*float32(math.Min(1, float64(s.TotalHits())/200.0))
	value *= float32(math.Pow(0.97, float64(s.effectiveMissCount)))
	value *= 0.5 + s.accuracy/2
	od, _ := s.in.Beatmap.Attribute(s.in.Attribs, s.in.Mods, model.AttrOD)
	value *= 0.98 + float32(math.Pow(float64(od), 2))/2500

	s.flashlight = value
}

func (s *standardScore) computeTotalValue() {
	multiplier := float32(1.12)
	if s.in.Mods.Any(model.ModNoFail) {
		multiplier *= 0.90
	}
	if s.in.Mods.Any(model.ModSpunOut) {
		multiplier *= 0.95
	}

	sum := math.Pow(float64(s.aim), 1.1) +
		math.Pow(float64(s.speed), 1.1) +
		math.Pow(float64(s.acc), 1.1) +
		math.Pow(float64(s.flashlight), 1.1)

	s.totalValue = float32(math.Pow(sum, 1.0/1.1)) * multiplier
}
