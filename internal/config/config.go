package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/store"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

const fileMode = 0o600

// Sentinel errors.
var (
	ErrNotFound = errors.New("no taskboard config found (run 'taskboard init' to create one)")
	ErrInvalid  = errors.New("invalid config")
)

// Config represents the taskboard configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Board    BoardConfig    `yaml:"board"`
	Store    StoreConfig    `yaml:"store"`
	Tables   store.Tables   `yaml:"tables"`
	Cache    CacheConfig    `yaml:"cache,omitempty"`
	Log      LogConfig      `yaml:"log"`
	Defaults DefaultsConfig `yaml:"defaults"`
	TUI      TUIConfig      `yaml:"tui,omitempty"`

	// DSN is the v1 location of the connection string, moved to store.dsn.
	DSN string `yaml:"dsn,omitempty"`

	// dir is the absolute path to the board directory (not serialized).
	dir string `yaml:"-"`
	// file keeps the values ApplyEnv replaced so Save writes them back.
	file *fileValues
}

type fileValues struct {
	driver, dsn, redisURL, logLevel string
}

// BoardConfig holds board metadata.
type BoardConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// StoreConfig selects and addresses the database.
type StoreConfig struct {
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn"`
	Timeout string `yaml:"timeout,omitempty"`
}

// CacheConfig enables the Redis profile cache when RedisURL is set.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url,omitempty"`
	TTL      string `yaml:"ttl,omitempty"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// DefaultsConfig holds default values for new tasks.
type DefaultsConfig struct {
	Priority task.Priority `yaml:"priority"`
}

// TUIConfig holds TUI-specific display settings.
type TUIConfig struct {
	RefreshInterval string `yaml:"refresh_interval,omitempty"`
	TitleLines      int    `yaml:"title_lines,omitempty"`
}

// Dir returns the absolute path to the board directory.
func (c *Config) Dir() string {
	return c.dir
}

// ConfigPath returns the absolute path to the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.dir, ConfigFileName)
}

// SetDir sets the board directory path on the config.
func (c *Config) SetDir(dir string) {
	c.dir = dir
}

// NewDefault creates a Config with default values.
func NewDefault(name string) *Config {
	return &Config{
		Version: CurrentVersion,
		Board:   BoardConfig{Name: name},
		Store: StoreConfig{
			Driver:  DefaultDriver,
			DSN:     DefaultSQLiteFile,
			Timeout: DefaultTimeout,
		},
		Tables:   store.DefaultTables(),
		Cache:    CacheConfig{TTL: DefaultCacheTTL},
		Log:      LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Defaults: DefaultsConfig{Priority: DefaultPriority},
		TUI:      TUIConfig{RefreshInterval: DefaultRefreshInterval, TitleLines: DefaultTitleLines},
	}
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalid, c.Version, CurrentVersion)
	}
	if c.Board.Name == "" {
		return fmt.Errorf("%w: board.name is required", ErrInvalid)
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if c.Tables.Tasks == "" || c.Tables.Users == "" || c.Tables.Tags == "" {
		return fmt.Errorf("%w: tables.tasks, tables.users and tables.tags are required", ErrInvalid)
	}
	if _, err := task.ParsePriority(string(c.Defaults.Priority)); err != nil {
		return fmt.Errorf("%w: defaults.priority %q is not a priority", ErrInvalid, c.Defaults.Priority)
	}
	if err := c.validateLog(); err != nil {
		return err
	}
	if err := validateDuration("cache.ttl", c.Cache.TTL); err != nil {
		return err
	}
	if err := validateDuration("tui.refresh_interval", c.TUI.RefreshInterval); err != nil {
		return err
	}
	const maxTitleLines = 3
	if c.TUI.TitleLines < 0 || c.TUI.TitleLines > maxTitleLines {
		return fmt.Errorf("%w: tui.title_lines must be between 1 and %d", ErrInvalid, maxTitleLines)
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%w: store.driver must be %q or %q, got %q",
			ErrInvalid, DriverPostgres, DriverSQLite, c.Store.Driver)
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("%w: store.dsn is required", ErrInvalid)
	}
	return validateDuration("store.timeout", c.Store.Timeout)
}

func (c *Config) validateLog() error {
	if c.Log.Level != "" && !contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("%w: log.level %q must be one of %s",
			ErrInvalid, c.Log.Level, strings.Join(validLogLevels, ", "))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

func validateDuration(key, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: invalid %s %q: %w", ErrInvalid, key, value, err)
	}
	if d < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalid, key)
	}
	return nil
}

// StoreDSN returns the connection string. Relative SQLite paths resolve
// against the board directory.
func (c *Config) StoreDSN() string {
	dsn := c.Store.DSN
	if c.Store.Driver != DriverSQLite || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	if !filepath.IsAbs(dsn) && c.dir != "" {
		return filepath.Join(c.dir, dsn)
	}
	return dsn
}

// Timeout returns store.timeout, or DefaultTimeout when unset.
func (c *Config) Timeout() time.Duration {
	return durationOr(c.Store.Timeout, DefaultTimeout)
}

// CacheTTL returns cache.ttl, or DefaultCacheTTL when unset.
func (c *Config) CacheTTL() time.Duration {
	return durationOr(c.Cache.TTL, DefaultCacheTTL)
}

// RefreshInterval returns tui.refresh_interval, or DefaultRefreshInterval when unset.
func (c *Config) RefreshInterval() time.Duration {
	return durationOr(c.TUI.RefreshInterval, DefaultRefreshInterval)
}

// TitleLines returns the configured number of title lines for TUI cards.
func (c *Config) TitleLines() int {
	if c.TUI.TitleLines == 0 {
		return DefaultTitleLines
	}
	return c.TUI.TitleLines
}

func durationOr(value, fallback string) time.Duration {
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

// ApplyEnv overrides store and cache settings from the environment.
// Overrides are never written back by Save.
func (c *Config) ApplyEnv() {
	if c.file == nil {
		c.file = &fileValues{
			driver:   c.Store.Driver,
			dsn:      c.Store.DSN,
			redisURL: c.Cache.RedisURL,
			logLevel: c.Log.Level,
		}
	}
	if v := os.Getenv(EnvDriver); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Cache.RedisURL = v
	}
	if os.Getenv(EnvDebug) == "1" {
		c.Log.Level = "debug"
	}
}

// Init creates a new board directory with default settings.
func Init(dir, name string) (*Config, error) {
	const dirMode = 0o750

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg := NewDefault(name)
	cfg.SetDir(absDir)

	if err := os.MkdirAll(absDir, dirMode); err != nil {
		return nil, fmt.Errorf("creating board directory: %w", err)
	}

	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to its config file.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c.fileView())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(c.ConfigPath(), data, fileMode)
}

// fileView returns c with environment overrides replaced by the values
// read from disk. A field changed since the override is kept.
func (c *Config) fileView() *Config {
	if c.file == nil {
		return c
	}
	out := *c
	restore := func(cur *string, env, orig string) {
		if v := os.Getenv(env); v != "" && *cur == v {
			*cur = orig
		}
	}
	restore(&out.Store.Driver, EnvDriver, c.file.driver)
	restore(&out.Store.DSN, EnvDSN, c.file.dsn)
	restore(&out.Cache.RedisURL, EnvRedisURL, c.file.redisURL)
	if os.Getenv(EnvDebug) == "1" && out.Log.Level == "debug" {
		out.Log.Level = c.file.logLevel
	}
	return &out
}

// Load reads, migrates and validates a config from the given board directory.
// Environment overrides are applied before validation.
func Load(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	path := filepath.Join(absDir, ConfigFileName)
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted source
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.dir = absDir

	// Migrate old config versions forward before validating.
	oldVersion := cfg.Version
	if err := migrate(&cfg); err != nil {
		return nil, err
	}

	// Persist migrated config so future loads skip re-migration.
	if cfg.Version != oldVersion {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("saving migrated config: %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// FindDir walks upward from startDir looking for a board directory
// containing config.yml, then falls back to the user config directory.
func FindDir(startDir string) (string, error) {
	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	dir := absStart
	for {
		candidate := filepath.Join(dir, DefaultDir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Join(dir, DefaultDir), nil
		}

		// Also check if we're inside the board directory itself.
		candidate = filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if global, err := UserDir(); err == nil {
		if _, err := os.Stat(filepath.Join(global, ConfigFileName)); err == nil {
			return global, nil
		}
	}

	return "", clierr.New(clierr.ConfigNotFound,
		"no taskboard config found (run 'taskboard init' to create one)")
}

// UserDir returns the per-user board directory, ~/.config/taskboard on Linux.
func UserDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "taskboard"), nil
}

func contains(slice []string, item string) bool {
	return IndexOf(slice, item) >= 0
}

// IndexOf returns the index of item in slice, or -1 if not found.
func IndexOf(slice []string, item string) int {
	for i, s := range slice {
		if s == item {
			return i
		}
	}
	return -1
}
