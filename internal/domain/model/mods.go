// Package model holds the value types shared by the scoring pipeline: mods,
// beatmaps, difficulty attributes, scores and users.
package model

// Mods is a bitmask of gameplay modifiers. Unknown bits are preserved but
// never interpreted.
type Mods uint32

// Mod bit values, matching the game's own wire format.
const (
	ModNone        Mods = 0
	ModNoFail      Mods = 1 << 0
	ModEasy        Mods = 1 << 1
	ModTouchDevice Mods = 1 << 2
	ModHidden      Mods = 1 << 3
	ModHardRock    Mods = 1 << 4
	ModSuddenDeath Mods = 1 << 5
	ModDoubleTime  Mods = 1 << 6
	ModRelax       Mods = 1 << 7
	ModHalfTime    Mods = 1 << 8
	ModNightcore   Mods = 1 << 9
	ModFlashlight  Mods = 1 << 10
	ModAutoplay    Mods = 1 << 11
	ModSpunOut     Mods = 1 << 12
	ModRelax2      Mods = 1 << 13 // autopilot
	ModPerfect     Mods = 1 << 14
)

// disqualifyingMods zero a score's pp outright: none of these represent a
// player's own skill at the game.
const disqualifyingMods = ModRelax | ModRelax2 | ModAutoplay

// diffAdjustingMods are the only mods that change precomputed difficulty
// attributes. A score's full mod combination is masked down to these bits
// before it is used as a key into a beatmap's per-mods attribute table — see
// Beatmap.Attribute and DESIGN.md.
const diffAdjustingMods = ModHardRock | ModDoubleTime | ModHalfTime | ModEasy

// Has reports whether m contains every bit in other.
func (m Mods) Has(other Mods) bool {
	return m&other == other
}

// Any reports whether m contains at least one bit of other.
func (m Mods) Any(other Mods) bool {
	return m&other != 0
}

// Disqualifies reports whether m zeroes a score's pp regardless of mode.
func (m Mods) Disqualifies() bool {
	return m.Any(disqualifyingMods)
}

// DifficultyKey returns the subset of m that selects a row in a beatmap's
// precomputed difficulty-attribute table.
func (m Mods) DifficultyKey() Mods {
	return m & diffAdjustingMods
}
