package model

// PPRecord is a user's aggregate rating: the weighted pp sum and the
// weighted mean accuracy over their score list. See
// internal/domain/aggregate for how it's computed.
type PPRecord struct {
	Value    float32
	Accuracy float32
}

// User accumulates one player's per-score pp records over the course of a
// single pipeline run and exposes the aggregate once every score has been
// folded in. A User only lives for the duration of one ProcessUser call.
type User struct {
	ID      int64
	records []ScorePPRecord
	pp      PPRecord
}

// NewUser starts an empty accumulator for the given user id.
func NewUser(id int64) *User {
	return &User{ID: id}
}

// AddScorePPRecord folds one score's pp/accuracy into the accumulator. The
// aggregate isn't recomputed until ComputePPRecord is called.
func (u *User) AddScorePPRecord(r ScorePPRecord) {
	u.records = append(u.records, r)
}

// ComputePPRecord recomputes and stores the aggregate pp record from every
// score added so far.
func (u *User) ComputePPRecord(aggregate func([]ScorePPRecord) PPRecord) {
	u.pp = aggregate(u.records)
}

// PPRecord returns the last computed aggregate.
func (u *User) PPRecord() PPRecord {
	return u.pp
}

// Records exposes the accumulated per-score pp records, e.g. for tests.
func (u *User) Records() []ScorePPRecord {
	return u.records
}
