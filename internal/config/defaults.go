// Package config handles taskboard configuration.
package config

import "github.com/twiced-technology-gmbh/taskboard/internal/task"

const (
	// DefaultDir is the default board directory name.
	DefaultDir = ".taskboard"
	// ConfigFileName is the name of the config file within the board directory.
	ConfigFileName = "config.yml"
	// CurrentVersion is the current config schema version.
	CurrentVersion = 2

	// DriverPostgres selects the PostgreSQL backend.
	DriverPostgres = "postgres"
	// DriverSQLite selects the local SQLite backend.
	DriverSQLite = "sqlite"

	// DefaultDriver keeps a fresh board usable without a database server.
	DefaultDriver = DriverSQLite
	// DefaultSQLiteFile is the database file created next to config.yml.
	DefaultSQLiteFile = "taskboard.db"
	// DefaultTimeout bounds each command's store round-trips.
	DefaultTimeout = "10s"
	// DefaultCacheTTL is how long assignee profiles stay cached.
	DefaultCacheTTL = "5m"
	// DefaultLogLevel keeps the CLI quiet unless something is wrong.
	DefaultLogLevel = "warn"
	// DefaultLogFormat is logrus' text formatter.
	DefaultLogFormat = "text"
	// DefaultRefreshInterval is how often the TUI and board --watch refetch.
	DefaultRefreshInterval = "30s"
	// DefaultTitleLines is the default number of title lines in TUI cards.
	DefaultTitleLines = 2
	// DefaultPriority is preselected for new tasks.
	DefaultPriority = task.Medium
)

// Environment overrides.
const (
	EnvDSN      = "TASKBOARD_DSN"
	EnvDriver   = "TASKBOARD_DRIVER"
	EnvRedisURL = "TASKBOARD_REDIS_URL"
	EnvDebug    = "TASKBOARD_DEBUG"
)

var validLogLevels = []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "panic"}
