package repository

import (
	"context"
	"fmt"

	"github.com/okian/osupp/internal/db"
	"github.com/okian/osupp/internal/domain/model"
	"github.com/okian/osupp/pkg/logger"
)

// LoadAttributeTable builds the attrib_id <-> name intern table from
// osu_difficulty_attribs once at startup (spec.md §4 "Difficulty attribute
// intern table"). Read-only after this call returns.
func LoadAttributeTable(ctx context.Context, replica *db.Conn) (*model.AttributeTable, error) {
	rows, err := replica.Query(ctx, "SELECT `attrib_id`,`name` FROM `osu_difficulty_attribs` WHERE 1 ORDER BY `attrib_id` DESC")
	if err != nil {
		return nil, fmt.Errorf("repository: load attribute table: %w", err)
	}
	defer rows.Close()

	table := model.NewAttributeTable()
	for rows.Next() {
		var (
			id   int
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("repository: scan attribute row: %w", err)
		}
		table.Add(id, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate attribute rows: %w", err)
	}

	logger.Named("repository").Info(ctx, "loaded difficulty attributes", logger.Int("count", table.Len()))
	return table, nil
}
