package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if OSUPP_CONFIG is set
//  3. env (prefix OSUPP_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("OSUPP_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Join(ErrLoadConfig, err)
		}
	}

	// Environment variables: OSUPP_MASTER_HOST, OSUPP_WORKER_COUNT, ...
	// Only the master_/replica_ prefix becomes a nesting dot; the rest of the
	// name keeps its underscores so it matches the koanf tags.
	envProvider := env.Provider("OSUPP_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "osupp_")
		for _, section := range []string{"master", "replica"} {
			if strings.HasPrefix(s, section+"_") {
				return section + "." + strings.TrimPrefix(s, section+"_")
			}
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.Join(ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Join(ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Mode == "" {
		return errors.New("mode must not be empty")
	}
	if c.UserPPColumnName == "" {
		return errors.New("user_pp_column_name must not be empty")
	}
	if c.WorkerCount <= 0 {
		return errors.New("worker_count must be positive")
	}
	if c.Master.Database == "" || c.Replica.Database == "" {
		return errors.New("master and replica database must be set")
	}
	return nil
}
