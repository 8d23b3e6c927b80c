// Package app wires the per-user pipeline (C5) and the orchestrator (C6)
// together, following spec.md §9's "single owner struct" design note: every
// piece of process-wide state lives in one Dependencies value passed
// explicitly, never a package-level singleton.
package app

import (
	"context"

	"github.com/okian/osupp/internal/adapters/repository"
	"github.com/okian/osupp/internal/config"
	"github.com/okian/osupp/internal/db"
	"github.com/okian/osupp/internal/domain/model"
	"github.com/okian/osupp/pkg/logger"
	"github.com/okian/osupp/pkg/metrics"
)

// Dependencies bundles every shared resource a single mode's process needs:
// configuration, both connection factories, the beatmap cache, the
// blacklist, the attribute intern table, the checkpoint store, and the
// metrics recorder.
type Dependencies struct {
	Config  *config.Config
	Mode    model.Mode
	Master  *db.Conn
	Replica *db.Conn

	Cache     *repository.BeatmapCache
	Blacklist model.Blacklist
	Attribs   *model.AttributeTable
	Counters  *repository.Counters

	Metrics *metrics.Manager
	Log     logger.Logger
}

// Bootstrap opens both MySQL connections and loads the startup-time
// read-only state (blacklist, attribute table, beatmap cache), mirroring
// CProcessor's constructor (_pDB, _pDBSlave, QueryBeatmapBlacklist,
// QueryBeatmapDifficultyAttributes, QueryBeatmapDifficulty).
func Bootstrap(ctx context.Context, cfg *config.Config, mode model.Mode) (*Dependencies, error) {
	log := logger.Named("app")

	master, err := db.Open(masterConnConfig(cfg), "master")
	if err != nil {
		return nil, err
	}

	replica, err := db.Open(replicaConnConfig(cfg), "replica")
	if err != nil {
		return nil, err
	}

	blacklist, err := repository.LoadBlacklist(ctx, replica, mode)
	if err != nil {
		return nil, err
	}

	attribs, err := repository.LoadAttributeTable(ctx, replica)
	if err != nil {
		return nil, err
	}

	cache := repository.NewBeatmapCache(replica, attribs, mode)
	if err := cache.PreloadAll(ctx); err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Config:    cfg,
		Mode:      mode,
		Master:    master,
		Replica:   replica,
		Cache:     cache,
		Blacklist: blacklist,
		Attribs:   attribs,
		Counters:  repository.NewCounters(master),
		Metrics:   metrics.Global(),
		Log:       log,
	}

	deps.Metrics.Startups(mode.Tag())
	return deps, nil
}

// Close releases both database connections.
func (d *Dependencies) Close() error {
	if err := d.Master.Close(); err != nil {
		return err
	}
	return d.Replica.Close()
}
