package app

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/osupp/internal/adapters/batch"
	"github.com/okian/osupp/internal/db"
	"github.com/okian/osupp/internal/domain/aggregate"
	"github.com/okian/osupp/internal/domain/model"
	"github.com/okian/osupp/internal/domain/scoring"
	"github.com/okian/osupp/pkg/logger"
)

// ppUpdateTolerance is the |stored - computed| pp delta a score row's change
// must exceed to be rewritten (spec.md §4.5 step 2).
const ppUpdateTolerance = 0.001

// userUpdateTolerance guards the final per-user UPDATE so a recomputed
// value that rounds to the same stored value produces no write.
const userUpdateTolerance = 0.01

// notableEventRatingThreshold and notableEventMinimumDifference gate
// osu_user_performance_change inserts (spec.md §4.5 step 5).
const (
	notableEventRatingThreshold   = 1.0 / 21.5
	notableEventMinimumDifference = 5.0
)

// pendingScoreUpdate is one score row whose pp changed enough to need a
// database write.
type pendingScoreUpdate struct {
	scoreID   int64
	beatmapID int32
	value     float32
}

// needsScoreUpdate reports whether a freshly computed pp value differs from
// the stored one by more than ppUpdateTolerance, or the row has never had pp
// computed at all.
func needsScoreUpdate(stored *float32, computed float32) bool {
	return stored == nil || math.Abs(float64(*stored)-float64(computed)) > ppUpdateTolerance
}

// exceedsNotableEventShare reports whether a single score's pp value is
// large enough, relative to the user's new aggregate, to warrant checking
// for a notable event at all (spec.md §4.5 step 5, first gate).
func exceedsNotableEventShare(scoreValue, aggregateValue float64) bool {
	return scoreValue > aggregateValue*notableEventRatingThreshold
}

// qualifiesAsNotableEvent reports whether an aggregate pp increase is large
// enough to record (spec.md §4.5 step 5, second gate).
func qualifiesAsNotableEvent(ratingChange float64) bool {
	return ratingChange >= notableEventMinimumDifference
}

// ProcessUser implements the per-user pipeline of spec.md §4.5 (component
// C5), mirroring ProcessSingleUser. selectedScoreID is 0 for a full
// reprocess (update every score that differs), or a specific score_id when
// only that score triggered this run (the score poller's case).
//
// queryConn is the read connection scores and the notable-event lookup run
// against (the reference's thread-local slave connection: the shared
// replica outside a reprocess, one per worker during a full reprocess).
// writeConn is the connection notable-event inserts fire against; it should
// be the same connection newUsersBatch/newScoresBatch were built with.
func (d *Dependencies) ProcessUser(ctx context.Context, selectedScoreID int64, queryConn, writeConn *db.Conn, newUsersBatch, newScoresBatch *batch.Batcher, userID int64) (*model.User, error) {
	rows, err := queryConn.Query(ctx, fmt.Sprintf(
		"SELECT `score_id`,`user_id`,`beatmap_id`,`score`,`maxcombo`,`count300`,`count100`,`count50`,"+
			"`countmiss`,`countgeki`,`countkatu`,`enabled_mods`,`pp` "+
			"FROM `osu_scores%s_high` WHERE `user_id`=%d", d.Mode.Suffix(), userID,
	))
	if err != nil {
		return nil, fmt.Errorf("app: query scores for user %d: %w", userID, err)
	}
	defer rows.Close()

	user := model.NewUser(userID)
	var updates []pendingScoreUpdate

	for rows.Next() {
		var (
			scoreID                                                      int64
			rowUserID                                                    int64
			beatmapID                                                    int32
			scorePoints, maxCombo                                        int32
			n300, n100, n50, nMiss, nGeki, nKatu                         int32
			mods                                                         uint32
			storedPP                                                     *float32
		)
		if err := rows.Scan(&scoreID, &rowUserID, &beatmapID, &scorePoints, &maxCombo,
			&n300, &n100, &n50, &nMiss, &nGeki, &nKatu, &mods, &storedPP); err != nil {
			return nil, fmt.Errorf("app: scan score row: %w", err)
		}

		if d.Blacklist.Contains(beatmapID) {
			continue
		}

		beatmap, ok := d.Cache.Get(beatmapID)
		if !ok {
			beatmap, ok = d.Cache.GetOrLoad(ctx, beatmapID)
			if !ok {
				d.Metrics.DifficultyNotFound(d.Mode.Tag())
				continue
			}
		}

		if int32(beatmap.RankedStatus) < d.Config.MinRankedStatus || int32(beatmap.RankedStatus) > d.Config.MaxRankedStatus {
			continue
		}

		score, err := scoring.New(d.Mode, scoring.Input{
			ScoreID:   scoreID,
			UserID:    rowUserID,
			BeatmapID: beatmapID,
			Score:     scorePoints,
			MaxCombo:  maxCombo,
			Counts: model.Counts{
				N300: n300, N100: n100, N50: n50, NMiss: nMiss, NGeki: nGeki, NKatu: nKatu,
			},
			Mods:    model.Mods(mods),
			Beatmap: beatmap,
			Attribs: d.Attribs,
		})
		if err != nil {
			return nil, fmt.Errorf("app: construct score %d: %w", scoreID, err)
		}

		user.AddScorePPRecord(model.ScorePPRecord{Value: score.TotalValue(), Accuracy: score.Accuracy()})

		// A null stored pp always needs writing, regardless of which score
		// triggered this run; otherwise only the triggering row (or every
		// row, during a full reprocess) is a candidate (spec.md §4.5 step 2).
		if storedPP == nil || selectedScoreID == 0 || selectedScoreID == scoreID {
			if needsScoreUpdate(storedPP, score.TotalValue()) {
				updates = append(updates, pendingScoreUpdate{scoreID: scoreID, beatmapID: beatmapID, value: score.TotalValue()})
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("app: iterate score rows: %w", err)
	}

	if len(updates) > 0 {
		newScoresBatch.Mu.Lock()
		for _, u := range updates {
			stmt := fmt.Sprintf(
				"UPDATE `osu_scores%s_high` SET `pp`=%s WHERE `score_id`=%d",
				d.Mode.Suffix(), formatFloat(u.value), u.scoreID,
			)
			if err := newScoresBatch.Append(ctx, stmt); err != nil {
				newScoresBatch.Mu.Unlock()
				return nil, fmt.Errorf("app: append score update: %w", err)
			}
		}
		newScoresBatch.Mu.Unlock()
		d.Metrics.ScoresUpdated(d.Mode.Tag(), len(updates))
	}

	user.ComputePPRecord(aggregate.Compute)
	ppRecord := user.PPRecord()

	if selectedScoreID > 0 && len(updates) > 0 {
		if exceedsNotableEventShare(float64(updates[0].value), float64(ppRecord.Value)) {
			if err := d.emitNotableEvent(ctx, queryConn, writeConn, userID, updates[0].beatmapID, ppRecord); err != nil {
				d.Log.Warn(ctx, "notable event emission failed", logger.Int64("user_id", userID), logger.Error(err))
			}
		}
	}

	if err := d.commitUserUpdate(ctx, newUsersBatch, userID, ppRecord); err != nil {
		return nil, err
	}

	d.Metrics.UsersProcessed(d.Mode.Tag())
	return user, nil
}

// emitNotableEvent inserts an osu_user_performance_change row when the
// user's aggregate pp rose by at least notableEventMinimumDifference since
// the last stored value (spec.md §4.5 step 5).
func (d *Dependencies) emitNotableEvent(ctx context.Context, queryConn, writeConn *db.Conn, userID int64, beatmapID int32, ppRecord model.PPRecord) error {
	rows, err := queryConn.Query(ctx, fmt.Sprintf(
		"SELECT `%s` FROM `osu_user_stats%s` WHERE `user_id`=%d",
		d.Config.UserPPColumnName, d.Mode.Suffix(), userID,
	))
	if err != nil {
		return fmt.Errorf("app: query previous pp: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var previous *float32
		if err := rows.Scan(&previous); err != nil {
			return fmt.Errorf("app: scan previous pp: %w", err)
		}
		if previous == nil {
			continue
		}

		ratingChange := float64(ppRecord.Value) - float64(*previous)
		if !qualifiesAsNotableEvent(ratingChange) {
			continue
		}

		d.Metrics.NotableEvents(d.Mode.Tag())
		d.Log.Info(ctx, "notable event", logger.Int64("user_id", userID), logger.Float64("rating_change", ratingChange))

		stmt := fmt.Sprintf(
			"INSERT INTO osu_user_performance_change(user_id, mode, beatmap_id, performance_change, rank) "+
				"VALUES(%d,%d,%d,%s,null)",
			userID, int(d.Mode), beatmapID, formatFloat(float32(ratingChange)),
		)
		writeConn.NonQueryBackground(ctx, stmt, func(err error) {
			d.Log.Error(ctx, "notable event insert failed", logger.Error(err))
		})
	}
	return rows.Err()
}

// commitUserUpdate writes the user's recomputed pp/accuracy, zeroing pp for
// inactive players (spec.md §4.5 step 6, §9's guessed-behavior flag).
func (d *Dependencies) commitUserUpdate(ctx context.Context, newUsersBatch *batch.Batcher, userID int64, ppRecord model.PPRecord) error {
	stmt := fmt.Sprintf(
		"UPDATE `osu_user_stats%s` SET `%s`= CASE "+
			"WHEN CURDATE() > DATE_ADD(`last_played`, INTERVAL 3 MONTH) THEN 0 "+
			"ELSE %s "+
			"END,`accuracy_new`=%s "+
			"WHERE `user_id`=%d AND ABS(`%s` - %s) > %v",
		d.Mode.Suffix(), d.Config.UserPPColumnName, formatFloat(ppRecord.Value),
		formatFloat(ppRecord.Accuracy), userID, d.Config.UserPPColumnName, formatFloat(ppRecord.Value), userUpdateTolerance,
	)
	return newUsersBatch.AppendAndCommit(ctx, stmt)
}

func formatFloat(v float32) string {
	return fmt.Sprintf("%g", v)
}
