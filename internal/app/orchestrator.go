package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/osupp/internal/adapters/batch"
	"github.com/okian/osupp/internal/adapters/mq/worker"
	"github.com/okian/osupp/internal/adapters/repository"
	"github.com/okian/osupp/internal/config"
	"github.com/okian/osupp/internal/db"
	"github.com/okian/osupp/internal/domain/model"
	"github.com/okian/osupp/pkg/logger"
)

// lastScoreIDUpdateStep is how many scores the poller processes between
// persisting its checkpoint, matching Processor.cpp's s_lastScoreIdUpdateStep.
const lastScoreIDUpdateStep = 100

// userIDStep is the id-range width scanned per batch by the full-reprocess
// driver, matching Processor.cpp's userIdStep.
const userIDStep = int64(10000)

// backpressurePollInterval is how often ProcessAllUsers re-checks whether
// the worker pool has drained before advancing its checkpoint.
const backpressurePollInterval = 10 * time.Millisecond

// MonitorNewScores runs the score poller and the beatmap poller
// concurrently until ctx is canceled, mirroring CProcessor::MonitorNewScores's
// two background threads (spec.md §4.6.1).
func (d *Dependencies) MonitorNewScores(ctx context.Context) error {
	checkpoint, err := d.Counters.Retrieve(ctx, model.LastScoreIDKey(d.Mode))
	if err != nil {
		return fmt.Errorf("app: retrieve score checkpoint: %w", err)
	}
	currentScoreID := checkpoint
	if currentScoreID == repository.NoCheckpoint {
		currentScoreID = 0
	}

	lastApprovedDate, err := d.maxApprovedDate(ctx)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		errs <- d.pollScores(ctx, &currentScoreID)
	}()
	go func() {
		defer wg.Done()
		errs <- d.pollBeatmapSets(ctx, &lastApprovedDate)
	}()

	wg.Wait()
	close(errs)
	for pollErr := range errs {
		if pollErr != nil && !errors.Is(pollErr, context.Canceled) {
			return pollErr
		}
	}
	return nil
}

func (d *Dependencies) maxApprovedDate(ctx context.Context) (string, error) {
	rows, err := d.Replica.Query(ctx, "SELECT MAX(`approved_date`) FROM `osu_beatmapsets` WHERE 1")
	if err != nil {
		return "", fmt.Errorf("app: query max approved date: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return "", fmt.Errorf("app: scan max approved date: %w", err)
		}
		return date, nil
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("app: iterate max approved date: %w", err)
	}
	return "", fmt.Errorf("app: no beatmapsets found")
}

// pollScores repeatedly queries for scores newer than currentScoreID,
// processing any whose pp column is still null. It only sleeps once a poll
// comes back empty, otherwise it keeps going immediately (Processor.cpp's
// "only reset the poll timer when we find nothing" comment).
func (d *Dependencies) pollScores(ctx context.Context, currentScoreID *int64) error {
	newUsers := batch.New(d.Master, 0, batch.WithLogger(d.Log))
	newScores := batch.New(d.Master, 0, batch.WithLogger(d.Log))
	processedSinceStore := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		found, err := d.pollScoresOnce(ctx, currentScoreID, newUsers, newScores, &processedSinceStore)
		if err != nil {
			return err
		}

		if found == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.Config.ScorePollInterval):
			}
		}
	}
}

func (d *Dependencies) pollScoresOnce(ctx context.Context, currentScoreID *int64, newUsers, newScores *batch.Batcher, processedSinceStore *int) (int, error) {
	rows, err := d.Replica.Query(ctx, fmt.Sprintf(
		"SELECT `score_id`,`user_id`,`pp` FROM `osu_scores%s_high` WHERE `score_id` > %d ORDER BY `score_id` ASC",
		d.Mode.Suffix(), *currentScoreID,
	))
	if err != nil {
		return 0, fmt.Errorf("app: poll new scores: %w", err)
	}
	defer rows.Close()

	found := 0
	for rows.Next() {
		var scoreID, userID int64
		var pp *float32
		if err := rows.Scan(&scoreID, &userID, &pp); err != nil {
			return found, fmt.Errorf("app: scan new score row: %w", err)
		}
		found++

		if scoreID > *currentScoreID {
			*currentScoreID = scoreID
		}
		if pp != nil {
			continue
		}

		d.Log.Info(ctx, "new score", logger.Int64("score_id", scoreID), logger.Int64("user_id", userID))

		if _, err := d.ProcessUser(ctx, scoreID, d.Replica, d.Master, newUsers, newScores, userID); err != nil {
			d.Log.Error(ctx, "process new score failed", logger.Int64("score_id", scoreID), logger.Error(err))
			continue
		}

		*processedSinceStore++
		if *processedSinceStore >= lastScoreIDUpdateStep {
			scoreIDToStore := *currentScoreID
			d.Counters.Store(ctx, model.LastScoreIDKey(d.Mode), scoreIDToStore, func(err error) {
				d.Log.Error(ctx, "store score checkpoint failed", logger.Error(err))
			})
			*processedSinceStore = 0
		}

		d.Metrics.ScoresProcessedNew(d.Mode.Tag())
		d.Metrics.PendingQueries(d.Mode.Tag(), "main", d.Master.NumPendingQueries())
	}
	if err := rows.Err(); err != nil {
		return found, fmt.Errorf("app: iterate new score rows: %w", err)
	}

	d.Metrics.Backlog(d.Mode.Tag(), found)
	return found, nil
}

// pollBeatmapSets repeatedly checks for beatmapsets newly approved since
// lastApprovedDate and forces a difficulty reload for each.
func (d *Dependencies) pollBeatmapSets(ctx context.Context, lastApprovedDate *string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		found, err := d.pollBeatmapSetsOnce(ctx, lastApprovedDate)
		if err != nil {
			return err
		}

		if found == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.Config.DifficultyPollInterval):
			}
		}
	}
}

func (d *Dependencies) pollBeatmapSetsOnce(ctx context.Context, lastApprovedDate *string) (int, error) {
	rows, err := d.Replica.Query(ctx, fmt.Sprintf(
		"SELECT `beatmap_id`,`approved_date` "+
			"FROM `osu_beatmapsets` JOIN `osu_beatmaps` ON `osu_beatmapsets`.`beatmapset_id` = `osu_beatmaps`.`beatmapset_id` "+
			"WHERE `approved_date` > '%s' ORDER BY `approved_date` ASC", *lastApprovedDate,
	))
	if err != nil {
		return 0, fmt.Errorf("app: poll new beatmap sets: %w", err)
	}
	defer rows.Close()

	found := 0
	for rows.Next() {
		var beatmapID int32
		var approvedDate string
		if err := rows.Scan(&beatmapID, &approvedDate); err != nil {
			return found, fmt.Errorf("app: scan new beatmapset row: %w", err)
		}
		found++
		*lastApprovedDate = approvedDate

		if _, err := d.Cache.Load(ctx, beatmapID, 0); err != nil {
			d.Log.Warn(ctx, "forced difficulty reload failed", logger.Int("beatmap_id", int(beatmapID)), logger.Error(err))
			continue
		}
		d.Metrics.DifficultyForcedRefresh(d.Mode.Tag())
	}
	if err := rows.Err(); err != nil {
		return found, fmt.Errorf("app: iterate new beatmapset rows: %w", err)
	}
	return found, nil
}

// ProcessAllUsers drives the full-reprocess fan-out of spec.md §4.6.2:
// every user id between the checkpoint and the current maximum is dispatched
// to a fixed worker pool, advancing and persisting the checkpoint once the
// pool has fully drained each range (mirroring CProcessor::ProcessAllUsers).
func (d *Dependencies) ProcessAllUsers(ctx context.Context, reprocess bool, numWorkers int) error {
	begin, err := d.startingUserID(ctx, reprocess)
	if err != nil {
		return err
	}
	if begin == repository.NoCheckpoint {
		d.Log.Info(ctx, "nothing to reprocess")
		return nil
	}

	maxUserID, err := d.maxUserID(ctx)
	if err != nil {
		return err
	}

	pool, err := worker.NewPool(
		masterConnConfig(d.Config), replicaConnConfig(d.Config),
		numWorkers, d.Config.BatchThreshold, d.Mode.Tag(),
		d.processJob,
	)
	if err != nil {
		return fmt.Errorf("app: start worker pool: %w", err)
	}
	pool.Start(ctx)
	defer pool.Stop()

	for begin <= maxUserID {
		end := begin + userIDStep
		d.Log.Info(ctx, "updating users", logger.Int64("begin", begin), logger.Int64("end", end))

		if err := d.dispatchUserRange(ctx, pool, begin, end); err != nil {
			return err
		}
		begin = end

		if err := d.awaitDrain(ctx, pool); err != nil {
			return err
		}

		d.Counters.Store(ctx, model.LastUserIDKey(d.Mode), begin, func(err error) {
			d.Log.Error(ctx, "store user checkpoint failed", logger.Error(err))
		})
	}
	return nil
}

// processJob adapts ProcessUser to worker.ProcessFunc for a full reprocess:
// selectedScoreID is always 0 since every score is recomputed.
func (d *Dependencies) processJob(ctx context.Context, queryConn, writeConn *db.Conn, newUsers, newScores *batch.Batcher, userID int64) error {
	_, err := d.ProcessUser(ctx, 0, queryConn, writeConn, newUsers, newScores, userID)
	return err
}

func (d *Dependencies) startingUserID(ctx context.Context, reprocess bool) (int64, error) {
	if reprocess {
		if err := d.Counters.StoreSync(ctx, model.LastUserIDKey(d.Mode), 0); err != nil {
			return 0, fmt.Errorf("app: reset user checkpoint: %w", err)
		}
		return 0, nil
	}
	begin, err := d.Counters.Retrieve(ctx, model.LastUserIDKey(d.Mode))
	if err != nil {
		return 0, fmt.Errorf("app: retrieve user checkpoint: %w", err)
	}
	return begin, nil
}

func (d *Dependencies) maxUserID(ctx context.Context) (int64, error) {
	rows, err := d.Replica.Query(ctx, fmt.Sprintf("SELECT MAX(`user_id`) FROM `osu_user_stats%s` WHERE 1", d.Mode.Suffix()))
	if err != nil {
		return 0, fmt.Errorf("app: query max user id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var maxID int64
		if err := rows.Scan(&maxID); err != nil {
			return 0, fmt.Errorf("app: scan max user id: %w", err)
		}
		return maxID, nil
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("app: iterate max user id: %w", err)
	}
	return 0, fmt.Errorf("app: no maximum user id found")
}

func (d *Dependencies) dispatchUserRange(ctx context.Context, pool *worker.Pool, begin, end int64) error {
	rows, err := d.Replica.Query(ctx, fmt.Sprintf(
		"SELECT `user_id` FROM `osu_user_stats%s` WHERE `user_id` BETWEEN %d AND %d",
		d.Mode.Suffix(), begin, end,
	))
	if err != nil {
		return fmt.Errorf("app: query user id range: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return fmt.Errorf("app: scan user id: %w", err)
		}
		pool.Dispatch(worker.Job{UserID: userID})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("app: iterate user id range: %w", err)
	}
	return nil
}

// awaitDrain blocks until pool has no queued, active, or pending-query work
// left, mirroring ProcessAllUsers's do/while on GetNumTasksInSystem and
// NumPendingQueries.
func (d *Dependencies) awaitDrain(ctx context.Context, pool *worker.Pool) error {
	for {
		d.Metrics.PendingQueries(d.Mode.Tag(), "background", pool.PendingQueries())
		if pool.Idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backpressurePollInterval):
		}
	}
}

func masterConnConfig(cfg *config.Config) db.Config {
	return db.Config{Host: cfg.Master.Host, Port: cfg.Master.Port, User: cfg.Master.User, Password: cfg.Master.Password, Database: cfg.Master.Database}
}

func replicaConnConfig(cfg *config.Config) db.Config {
	return db.Config{Host: cfg.Replica.Host, Port: cfg.Replica.Port, User: cfg.Replica.User, Password: cfg.Replica.Password, Database: cfg.Replica.Database}
}
