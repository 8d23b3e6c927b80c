package model

import "fmt"

// RankedStatus mirrors osu_beatmaps.approved.
type RankedStatus int32

// Ranked status values, per spec.md §3.
const (
	StatusGraveyard RankedStatus = -2
	StatusWIP       RankedStatus = -1
	StatusPending   RankedStatus = 0
	StatusRanked    RankedStatus = 1
	StatusApproved  RankedStatus = 2
	StatusQualified RankedStatus = 3
	StatusLoved     RankedStatus = 4
)

// Well-known difficulty attribute names. The attrib_id <-> name mapping
// itself is only known at runtime (loaded from osu_difficulty_attribs), so
// score models never hardcode an id, only one of these names.
const (
	AttrStrain        = "Strain"
	AttrHitWindow300  = "HitWindow300"
	AttrAim           = "Aim"
	AttrSpeed         = "Speed"
	AttrAR            = "AR"
	AttrOD            = "OD"
	AttrMaxCombo      = "MaxCombo"
)

// AttributeTable interns difficulty attribute names to the small integer ids
// used in osu_beatmap_difficulty_attribs. Built once at startup and treated
// as read-only afterward, so it needs no locking (spec.md §4.3's concurrency
// discipline only applies to the beatmap cache itself).
type AttributeTable struct {
	idToName map[int]string
	nameToID map[string]int
}

// NewAttributeTable builds an empty table.
func NewAttributeTable() *AttributeTable {
	return &AttributeTable{
		idToName: make(map[int]string),
		nameToID: make(map[string]int),
	}
}

// Add interns a single (id, name) pair.
func (t *AttributeTable) Add(id int, name string) {
	t.idToName[id] = name
	t.nameToID[name] = id
}

// ID looks up the interned id for a symbolic attribute name.
func (t *AttributeTable) ID(name string) (int, bool) {
	id, ok := t.nameToID[name]
	return id, ok
}

// Len returns the number of interned entries.
func (t *AttributeTable) Len() int {
	return len(t.nameToID)
}

// attributeRow is one (mods, attrib_id) -> value cell.
type attributeRow map[int]float32

// Beatmap is immutable after it is built: the cache replaces entries
// wholesale on refresh instead of mutating them in place (see
// repository.BeatmapCache), so a Beatmap obtained from the cache never
// changes underneath a caller.
type Beatmap struct {
	ID             int32
	SetID          int32
	RankedStatus   RankedStatus
	ScoreVersion   int32
	HitCircleCount int32

	// attribs maps a difficulty-adjusting mod combination to its attribute
	// values. Keys are always pre-masked to Mods.DifficultyKey().
	attribs map[Mods]attributeRow
}

// NewBeatmap constructs an empty beatmap shell; attributes are filled in by
// the cache's row builder (repository.buildFreshBeatmaps) before the beatmap
// is published into the cache.
func NewBeatmap(id, setID int32, status RankedStatus, scoreVersion, hitCircles int32) *Beatmap {
	return &Beatmap{
		ID:             id,
		SetID:          setID,
		RankedStatus:   status,
		ScoreVersion:   scoreVersion,
		HitCircleCount: hitCircles,
		attribs:        make(map[Mods]attributeRow),
	}
}

// SetAttribute records a precomputed difficulty attribute under
// mods.DifficultyKey(), so combinations that differ only in
// non-difficulty bits share one row. Only called while building a Beatmap,
// before it is published.
func (b *Beatmap) SetAttribute(mods Mods, attribID int, value float32) {
	key := mods.DifficultyKey()
	row, ok := b.attribs[key]
	if !ok {
		row = make(attributeRow)
		b.attribs[key] = row
	}
	row[attribID] = value
}

// Attribute looks up a named difficulty attribute for the given mods. It
// masks mods down to the difficulty-adjusting bits and falls back to the
// unmodded row when the exact masked combination was never precomputed (see
// DESIGN.md, Open Question 1).
func (b *Beatmap) Attribute(table *AttributeTable, mods Mods, name string) (float32, bool) {
	id, ok := table.ID(name)
	if !ok {
		return 0, false
	}

	key := mods.DifficultyKey()
	if row, ok := b.attribs[key]; ok {
		if v, ok := row[id]; ok {
			return v, true
		}
	}
	if key != ModNone {
		if row, ok := b.attribs[ModNone]; ok {
			if v, ok := row[id]; ok {
				return v, true
			}
		}
	}
	return 0, false
}

// String satisfies fmt.Stringer for log fields.
func (b *Beatmap) String() string {
	return fmt.Sprintf("beatmap(%d)", b.ID)
}

// Blacklist is the set of beatmap ids excluded from pp calculations.
// Populated once at startup and read-only afterward.
type Blacklist map[int32]struct{}

// Contains reports whether id is blacklisted.
func (bl Blacklist) Contains(id int32) bool {
	_, ok := bl[id]
	return ok
}
