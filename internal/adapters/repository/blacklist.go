package repository

import (
	"context"
	"fmt"

	"github.com/okian/osupp/internal/db"
	"github.com/okian/osupp/internal/domain/model"
	"github.com/okian/osupp/pkg/logger"
)

// LoadBlacklist reads the per-mode beatmap performance blacklist
// (osu_beatmap_performance_blacklist, spec.md §6.3) once at startup.
func LoadBlacklist(ctx context.Context, replica *db.Conn, mode model.Mode) (model.Blacklist, error) {
	rows, err := replica.Query(ctx, fmt.Sprintf(
		"SELECT `beatmap_id` FROM `osu_beatmap_performance_blacklist` WHERE `mode`=%d", int(mode),
	))
	if err != nil {
		return nil, fmt.Errorf("repository: load blacklist: %w", err)
	}
	defer rows.Close()

	bl := make(model.Blacklist)
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repository: scan blacklist row: %w", err)
		}
		bl[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate blacklist rows: %w", err)
	}

	logger.Named("repository").Info(ctx, "loaded beatmap blacklist", logger.Int("count", len(bl)))
	return bl, nil
}
