package scoring

import (
	"math"
	"testing"

	"github.com/okian/osupp/internal/domain/model"
)

func taikoBeatmap() *model.Beatmap {
	b := model.NewBeatmap(1, 1, model.StatusRanked, 1, 0)
	table := model.NewAttributeTable()
	table.Add(1, model.AttrStrain)
	table.Add(2, model.AttrHitWindow300)
	b.SetAttribute(model.ModNone, 1, 3.0)
	b.SetAttribute(model.ModNone, 2, 35)
	return b
}

func taikoAttribs() *model.AttributeTable {
	table := model.NewAttributeTable()
	table.Add(1, model.AttrStrain)
	table.Add(2, model.AttrHitWindow300)
	return table
}

// S1: clean Taiko map, no mods.
func TestTaikoScore_S1_CleanMap(t *testing.T) {
	in := Input{
		ScoreID: 1, UserID: 1, BeatmapID: 1,
		Counts:  model.Counts{N300: 1400, N100: 90, N50: 0, NMiss: 10},
		Mods:    model.ModNone,
		Beatmap: taikoBeatmap(),
		Attribs: taikoAttribs(),
	}
	score, err := New(model.ModeTaiko, in)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got, want := score.TotalHits(), int32(1500); got != want {
		t.Fatalf("TotalHits = %d, want %d", got, want)
	}

	wantAcc := float32((90.0*150.0 + 1400.0*300.0) / (1500.0 * 300.0))
	if got := score.Accuracy(); math.Abs(float64(got-wantAcc)) > 1e-4 {
		t.Fatalf("Accuracy = %v, want %v", got, wantAcc)
	}

	if score.TotalValue() <= 0 {
		t.Fatalf("TotalValue = %v, want > 0", score.TotalValue())
	}
}

// S2: same counts as S1, Relax set — disqualified, total_value must be 0.
func TestTaikoScore_S2_RelaxDisqualifies(t *testing.T) {
	in := Input{
		ScoreID: 1, UserID: 1, BeatmapID: 1,
		Counts:  model.Counts{N300: 1400, N100: 90, N50: 0, NMiss: 10},
		Mods:    model.ModRelax,
		Beatmap: taikoBeatmap(),
		Attribs: taikoAttribs(),
	}
	score, err := New(model.ModeTaiko, in)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if score.TotalValue() != 0 {
		t.Fatalf("TotalValue = %v, want 0", score.TotalValue())
	}
	// Accuracy is unaffected by disqualification; only pp is zeroed.
	if score.Accuracy() <= 0 {
		t.Fatalf("Accuracy = %v, want > 0", score.Accuracy())
	}
}

func TestNew_UnknownMode(t *testing.T) {
	_, err := New(model.Mode(99), Input{})
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if _, ok := err.(*UnknownModeError); !ok {
		t.Fatalf("expected *UnknownModeError, got %T", err)
	}
}

// every mode must disqualify on Autoplay and Relax2 as well as Relax,
// producing a total value of exactly 0.
func TestAllModes_DisqualifyingMods(t *testing.T) {
	b := taikoBeatmap()
	attribs := taikoAttribs()
	b.SetAttribute(model.ModNone, mustID(attribs, model.AttrAim), 3.0)
	b.SetAttribute(model.ModNone, mustID(attribs, model.AttrSpeed), 3.0)
	b.SetAttribute(model.ModNone, mustID(attribs, model.AttrAR), 9.0)
	b.SetAttribute(model.ModNone, mustID(attribs, model.AttrOD), 9.0)
	b.SetAttribute(model.ModNone, mustID(attribs, model.AttrMaxCombo), 1500.0)

	modes := []model.Mode{model.ModeStandard, model.ModeTaiko, model.ModeCatchTheBeat, model.ModeMania}
	disqualifiers := []model.Mods{model.ModRelax, model.ModRelax2, model.ModAutoplay}

	for _, mode := range modes {
		for _, mod := range disqualifiers {
			in := Input{
				ScoreID: 1, UserID: 1, BeatmapID: 1, MaxCombo: 1000,
				Counts:  model.Counts{N300: 1000, NGeki: 1000, N100: 10, NKatu: 10, N50: 5, NMiss: 2},
				Mods:    mod,
				Beatmap: b,
				Attribs: attribs,
			}
			score, err := New(mode, in)
			if err != nil {
				t.Fatalf("mode %v: New: %v", mode, err)
			}
			if score.TotalValue() != 0 {
				t.Errorf("mode %v, mod %v: TotalValue = %v, want 0", mode, mod, score.TotalValue())
			}
		}
	}
}

func TestAllModes_AccuracyInRange(t *testing.T) {
	b := taikoBeatmap()
	attribs := taikoAttribs()
	b.SetAttribute(model.ModNone, mustID(attribs, model.AttrAim), 3.0)
	b.SetAttribute(model.ModNone, mustID(attribs, model.AttrSpeed), 3.0)
	b.SetAttribute(model.ModNone, mustID(attribs, model.AttrAR), 9.0)
	b.SetAttribute(model.ModNone, mustID(attribs, model.AttrOD), 9.0)
	b.SetAttribute(model.ModNone, mustID(attribs, model.AttrMaxCombo), 1500.0)

	modes := []model.Mode{model.ModeStandard, model.ModeTaiko, model.ModeCatchTheBeat, model.ModeMania}
	for _, mode := range modes {
		in := Input{
			ScoreID: 1, UserID: 1, BeatmapID: 1, MaxCombo: 1000,
			Counts:  model.Counts{N300: 500, NGeki: 500, N100: 50, NKatu: 50, N50: 25, NMiss: 5},
			Mods:    model.ModNone,
			Beatmap: b,
			Attribs: attribs,
		}
		score, err := New(mode, in)
		if err != nil {
			t.Fatalf("mode %v: New: %v", mode, err)
		}
		if acc := score.Accuracy(); acc < 0 || acc > 1 {
			t.Errorf("mode %v: Accuracy = %v, out of [0,1]", mode, acc)
		}
	}
}

// Same input fed twice must produce bit-identical output (spec.md §8-6,
// determinism/idempotence).
func TestAllModes_Deterministic(t *testing.T) {
	b := taikoBeatmap()
	attribs := taikoAttribs()
	b.SetAttribute(model.ModNone, mustID(attribs, model.AttrAim), 3.0)
	b.SetAttribute(model.ModNone, mustID(attribs, model.AttrSpeed), 3.0)
	b.SetAttribute(model.ModNone, mustID(attribs, model.AttrAR), 9.0)
	b.SetAttribute(model.ModNone, mustID(attribs, model.AttrOD), 9.0)
	b.SetAttribute(model.ModNone, mustID(attribs, model.AttrMaxCombo), 1500.0)

	in := Input{
		ScoreID: 1, UserID: 1, BeatmapID: 1, MaxCombo: 1000,
		Counts:  model.Counts{N300: 500, NGeki: 500, N100: 50, NKatu: 50, N50: 25, NMiss: 5},
		Mods:    model.ModHidden,
		Beatmap: b,
		Attribs: attribs,
	}

	for _, mode := range []model.Mode{model.ModeStandard, model.ModeTaiko, model.ModeCatchTheBeat, model.ModeMania} {
		a, err := New(mode, in)
		if err != nil {
			t.Fatalf("mode %v: New: %v", mode, err)
		}
		b2, err := New(mode, in)
		if err != nil {
			t.Fatalf("mode %v: New: %v", mode, err)
		}
		if a.TotalValue() != b2.TotalValue() || a.Accuracy() != b2.Accuracy() {
			t.Errorf("mode %v: non-deterministic output", mode)
		}
	}
}

func mustID(table *model.AttributeTable, name string) int {
	id, ok := table.ID(name)
	if !ok {
		id = table.Len() + 1
		table.Add(id, name)
	}
	return id
}
