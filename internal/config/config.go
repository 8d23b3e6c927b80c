// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields exported so koanf struct tags can bind them directly.
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import "time"

// MySQLEndpoint names one MySQL connection target: either the replica
// ("slave" in the reference) or the master.
type MySQLEndpoint struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
}

// Config contains process configuration (spec.md §6.2).
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Mode selects which of the four game modes this process instance
	// scores. One process targets exactly one mode (spec.md §6.1).
	Mode string `koanf:"mode"`

	// Master is the read-write MySQL endpoint (score/user/counter writes).
	Master MySQLEndpoint `koanf:"master"`
	// Replica is the read-only MySQL endpoint used for polling queries.
	Replica MySQLEndpoint `koanf:"replica"`

	// ScorePollInterval is how often the score poller checks for new rows
	// once idle (spec.md §4.6).
	ScorePollInterval time.Duration `koanf:"score_poll_interval"`
	// DifficultyPollInterval is how often the beatmap poller checks for
	// newly ranked beatmapsets once idle.
	DifficultyPollInterval time.Duration `koanf:"difficulty_poll_interval"`

	// UserPPColumnName is the mode-specific column on osu_user_stats<suffix>
	// that carries the user's aggregate pp (operator-set naming convention,
	// e.g. "rank_score").
	UserPPColumnName string `koanf:"user_pp_column_name"`

	// MinRankedStatus and MaxRankedStatus bound which beatmap ranked
	// statuses are eligible for pp (spec.md §4.5 step 2).
	MinRankedStatus int32 `koanf:"min_ranked_status"`
	MaxRankedStatus int32 `koanf:"max_ranked_status"`

	// WorkerCount is the number of worker-pool threads used by
	// process_all_users when --threads is not given (spec.md §4.6.2).
	WorkerCount int `koanf:"worker_count"`

	// BatchThreshold is the statement count at which an update batcher
	// auto-flushes (spec.md §4.4).
	BatchThreshold int `koanf:"batch_threshold"`

	// MetricsAddr configures the Prometheus exposition listen address.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config populated with defaults matching the reference
// implementation's built-in constants (ranked status window, batch size).
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Mode:                   "standard",
		Master:                 MySQLEndpoint{Host: "127.0.0.1", Port: 3306, Database: "osu"},
		Replica:                MySQLEndpoint{Host: "127.0.0.1", Port: 3306, Database: "osu"},
		ScorePollInterval:      5 * time.Second,
		DifficultyPollInterval: 5 * time.Minute,
		UserPPColumnName:       "rank_score",
		MinRankedStatus:        1, // Ranked
		MaxRankedStatus:        2, // Approved
		WorkerCount:            4,
		BatchThreshold:         10000,
		MetricsAddr:            ":9080",
	}
}
