package config

import (
	"fmt"
	"strings"

	"github.com/twiced-technology-gmbh/taskboard/internal/store"
)

// migrate upgrades a config from its current version to CurrentVersion.
// Each migration function transforms the config one version forward.
// Returns nil if no migration is needed (already at current version).
// Returns an error if the config version is newer than what this binary supports.
func migrate(cfg *Config) error {
	if cfg.Version == CurrentVersion {
		return nil
	}
	if cfg.Version > CurrentVersion {
		return fmt.Errorf(
			"%w: config version %d is newer than supported version %d (upgrade taskboard)",
			ErrInvalid, cfg.Version, CurrentVersion,
		)
	}
	if cfg.Version < 1 {
		return fmt.Errorf("%w: config version %d is invalid", ErrInvalid, cfg.Version)
	}

	for cfg.Version < CurrentVersion {
		fn, ok := migrations[cfg.Version]
		if !ok {
			return fmt.Errorf("%w: no migration path from version %d", ErrInvalid, cfg.Version)
		}
		if err := fn(cfg); err != nil {
			return fmt.Errorf("migrating config from v%d: %w", cfg.Version, err)
		}
	}

	return nil
}

// migrations maps each version to the function that migrates it to the next version.
// The migration function must increment cfg.Version after a successful migration.
var migrations = map[int]func(*Config) error{
	1: migrateV1ToV2,
}

// migrateV1ToV2 moves the flat dsn into the store section, infers the
// driver from it, and fills the sections v1 did not have.
func migrateV1ToV2(cfg *Config) error { //nolint:unparam // signature must match migrations map type
	if cfg.Store.DSN == "" {
		cfg.Store.DSN = cfg.DSN
	}
	cfg.DSN = ""
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = inferDriver(cfg.Store.DSN)
	}
	if cfg.Store.DSN == "" {
		cfg.Store.DSN = DefaultSQLiteFile
	}
	if cfg.Store.Timeout == "" {
		cfg.Store.Timeout = DefaultTimeout
	}

	defaults := store.DefaultTables()
	if cfg.Tables.Tasks == "" {
		cfg.Tables.Tasks = defaults.Tasks
	}
	if cfg.Tables.Users == "" {
		cfg.Tables.Users = defaults.Users
	}
	if cfg.Tables.Tags == "" {
		cfg.Tables.Tags = defaults.Tags
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Defaults.Priority == "" {
		cfg.Defaults.Priority = DefaultPriority
	}
	cfg.Version = 2
	return nil
}

func inferDriver(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") {
		return DriverPostgres
	}
	return DriverSQLite
}
