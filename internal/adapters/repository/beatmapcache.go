package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/osupp/internal/db"
	"github.com/okian/osupp/internal/domain/model"
	"github.com/okian/osupp/pkg/logger"
)

// preloadStep matches CProcessor::QueryBeatmapDifficulty's static step: the
// id range scanned per query during startup preload and per-beatmapset poll.
const preloadStep = int32(10000)

// BeatmapCache is the beatmap_id -> Beatmap mapping of spec.md §4.3
// (component C3): an RWMutex-guarded map, populated lazily on miss and in
// bulk at startup. Beatmap values are never mutated in place; a refresh
// replaces the map entry wholesale so a reader never observes a torn entry.
type BeatmapCache struct {
	mu       sync.RWMutex
	beatmaps map[int32]*model.Beatmap

	replica *db.Conn
	attribs *model.AttributeTable
	mode    model.Mode
	log     logger.Logger
}

// NewBeatmapCache constructs an empty cache. attribs must already be
// populated (see LoadAttributeTable) before any Load call.
func NewBeatmapCache(replica *db.Conn, attribs *model.AttributeTable, mode model.Mode, opts ...CacheOption) *BeatmapCache {
	c := &BeatmapCache{
		beatmaps: make(map[int32]*model.Beatmap),
		replica:  replica,
		attribs:  attribs,
		mode:     mode,
		log:      logger.Named("beatmap_cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached beatmap for id, if present. The returned value must
// not be mutated; it is shared across readers.
func (c *BeatmapCache) Get(id int32) (*model.Beatmap, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.beatmaps[id]
	return b, ok
}

// Attributes returns the attribute intern table this cache resolves names
// against.
func (c *BeatmapCache) Attributes() *model.AttributeTable {
	return c.attribs
}

// Len reports how many beatmaps are currently cached.
func (c *BeatmapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.beatmaps)
}

// GetOrLoad implements the cache-miss discipline of spec.md §4.3 and §9's
// "RW lock re-entry" note: callers hold no lock on entry. We take a read
// lock, check membership, and only drop to Load (which takes the write
// lock) on a miss — re-checking after Load returns, since another worker
// may have populated the id while we queried the replica.
func (c *BeatmapCache) GetOrLoad(ctx context.Context, id int32) (*model.Beatmap, bool) {
	c.mu.RLock()
	b, ok := c.beatmaps[id]
	c.mu.RUnlock()
	if ok {
		return b, true
	}

	if _, err := c.Load(ctx, id, 0); err != nil {
		c.log.Warn(ctx, "beatmap load failed", logger.Int("beatmap_id", int(id)), logger.Error(err))
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok = c.beatmaps[id]
	return b, ok
}

// Load queries the replica for beatmaps in [startID, endID) and inserts (or
// refreshes) their cache entries. endID == 0 means "exactly startID",
// mirroring CProcessor::QueryBeatmapDifficulty's single-id overload.
// Returns true if any row was found.
func (c *BeatmapCache) Load(ctx context.Context, startID, endID int32) (bool, error) {
	query := fmt.Sprintf(
		"SELECT `osu_beatmaps`.`beatmap_id`,`countNormal`,`mods`,`attrib_id`,`value`,`approved`,`score_version` "+
			"FROM `osu_beatmaps` "+
			"JOIN `osu_beatmap_difficulty_attribs` ON `osu_beatmaps`.`beatmap_id` = `osu_beatmap_difficulty_attribs`.`beatmap_id` "+
			"WHERE `osu_beatmap_difficulty_attribs`.`mode`=%d AND `approved` >= 1", int(c.mode),
	)
	if endID == 0 {
		query += fmt.Sprintf(" AND `osu_beatmaps`.`beatmap_id`=%d", startID)
	} else {
		query += fmt.Sprintf(" AND `osu_beatmaps`.`beatmap_id`>=%d AND `osu_beatmaps`.`beatmap_id`<%d", startID, endID)
	}

	rows, err := c.replica.Query(ctx, query)
	if err != nil {
		return false, fmt.Errorf("repository: load beatmap difficulty: %w", err)
	}
	defer rows.Close()

	var scanned []beatmapDifficultyRow
	for rows.Next() {
		var row beatmapDifficultyRow
		if err := rows.Scan(&row.id, &row.hitCircles, &row.mods, &row.attribID, &row.value, &row.approved, &row.scoreVersion); err != nil {
			return len(scanned) > 0, fmt.Errorf("repository: scan beatmap difficulty row: %w", err)
		}
		scanned = append(scanned, row)
	}
	if err := rows.Err(); err != nil {
		return len(scanned) > 0, fmt.Errorf("repository: iterate beatmap difficulty rows: %w", err)
	}

	c.publish(buildFreshBeatmaps(scanned))
	return len(scanned) > 0, nil
}

// beatmapDifficultyRow is one scanned row of the beatmap difficulty query:
// one (mods, attrib_id) cell for one beatmap.
type beatmapDifficultyRow struct {
	id           int32
	hitCircles   *int32
	mods         uint32
	attribID     int32
	value        float32
	approved     int32
	scoreVersion int32
}

// buildFreshBeatmaps groups scanned rows by beatmap id into newly
// constructed *model.Beatmap values. It never touches the cache's shared
// map or any previously published *model.Beatmap, so the caller can publish
// the result as a wholesale replacement without racing a reader holding an
// old pointer.
func buildFreshBeatmaps(rows []beatmapDifficultyRow) map[int32]*model.Beatmap {
	fresh := make(map[int32]*model.Beatmap)
	for _, row := range rows {
		b, ok := fresh[row.id]
		if !ok {
			var hitCircleCount int32
			if row.hitCircles != nil {
				hitCircleCount = *row.hitCircles
			}
			b = model.NewBeatmap(row.id, 0, model.RankedStatus(row.approved), row.scoreVersion, hitCircleCount)
			fresh[row.id] = b
		}
		b.SetAttribute(model.Mods(row.mods), int(row.attribID), row.value)
	}
	return fresh
}

// publish installs each fresh beatmap as the new map entry for its id under
// the write lock, replacing any existing entry wholesale rather than
// mutating it (see the Beatmap doc comment).
func (c *BeatmapCache) publish(fresh map[int32]*model.Beatmap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, b := range fresh {
		c.beatmaps[id] = b
	}
}

// PreloadAll populates the cache with ranked-or-better beatmaps at startup,
// scanning in steps of 10000 ids (spec.md §4.3). It stops at the first id
// range that returns no rows, so beatmaps with ids past such a gap are not
// preloaded; GetOrLoad still fetches them on a miss.
func (c *BeatmapCache) PreloadAll(ctx context.Context) error {
	begin := int32(0)
	for {
		found, err := c.Load(ctx, begin, begin+preloadStep)
		if err != nil {
			return err
		}
		begin += preloadStep
		if !found {
			break
		}
	}
	c.log.Info(ctx, "loaded beatmap difficulties", logger.Int("count", c.Len()))
	return nil
}
