package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/config"
	"github.com/twiced-technology-gmbh/taskboard/internal/output"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify board configuration",
	Long: `View the full configuration, get a specific key, or set a writable value.
Connection strings are shown with their passwords redacted.`,
	RunE: runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configAccessor describes how to get and set a config key.
type configAccessor struct {
	get      func(*config.Config) any
	set      func(*config.Config, string) error
	writable bool
}

func configAccessors() map[string]configAccessor {
	accessors := baseConfigAccessors()
	addStoreConfigAccessors(accessors)
	return accessors
}

func stringAccessor(field func(*config.Config) *string) configAccessor {
	return configAccessor{
		get:      func(c *config.Config) any { return *field(c) },
		set:      func(c *config.Config, v string) error { *field(c) = v; return nil },
		writable: true,
	}
}

// durationAccessor parses the value up front so the error names the key.
func durationAccessor(key string, field func(*config.Config) *string) configAccessor {
	return configAccessor{
		get: func(c *config.Config) any { return *field(c) },
		set: func(c *config.Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return clierr.Newf(clierr.InvalidInput, "invalid %s %q: %v", key, v, err)
			}
			*field(c) = v
			return nil
		},
		writable: true,
	}
}

func baseConfigAccessors() map[string]configAccessor {
	return map[string]configAccessor{
		"version": {
			get: func(c *config.Config) any { return c.Version },
		},
		"board.name":        stringAccessor(func(c *config.Config) *string { return &c.Board.Name }),
		"board.description": stringAccessor(func(c *config.Config) *string { return &c.Board.Description }),
		"defaults.priority": {
			get: func(c *config.Config) any { return c.Defaults.Priority },
			set: func(c *config.Config, v string) error {
				p, err := task.ParsePriority(v)
				if err != nil {
					return err
				}
				c.Defaults.Priority = p
				return nil
			},
			writable: true,
		},
		"log.level":  stringAccessor(func(c *config.Config) *string { return &c.Log.Level }),
		"log.format": stringAccessor(func(c *config.Config) *string { return &c.Log.Format }),
		"log.file":   stringAccessor(func(c *config.Config) *string { return &c.Log.File }),
		"tui.refresh_interval": durationAccessor("tui.refresh_interval",
			func(c *config.Config) *string { return &c.TUI.RefreshInterval }),
		"tui.title_lines": {
			get: func(c *config.Config) any { return c.TitleLines() },
			set: func(c *config.Config, v string) error {
				n, err := strconv.Atoi(v)
				if err != nil {
					return clierr.Newf(clierr.InvalidInput,
						"invalid tui.title_lines %q: must be an integer", v)
				}
				c.TUI.TitleLines = n
				return nil // validation handles range check
			},
			writable: true,
		},
	}
}

func addStoreConfigAccessors(accessors map[string]configAccessor) {
	accessors["store.driver"] = configAccessor{
		get: func(c *config.Config) any { return c.Store.Driver },
		set: func(c *config.Config, v string) error {
			if v != config.DriverPostgres && v != config.DriverSQLite {
				return clierr.Newf(clierr.InvalidInput, "invalid store.driver %q; allowed: %s, %s",
					v, config.DriverPostgres, config.DriverSQLite)
			}
			c.Store.Driver = v
			return nil
		},
		writable: true,
	}
	accessors["store.dsn"] = configAccessor{
		get:      func(c *config.Config) any { return redact(c.Store.DSN) },
		set:      func(c *config.Config, v string) error { c.Store.DSN = v; return nil },
		writable: true,
	}
	accessors["store.timeout"] = durationAccessor("store.timeout",
		func(c *config.Config) *string { return &c.Store.Timeout })
	accessors["tables.tasks"] = stringAccessor(func(c *config.Config) *string { return &c.Tables.Tasks })
	accessors["tables.users"] = stringAccessor(func(c *config.Config) *string { return &c.Tables.Users })
	accessors["tables.tags"] = stringAccessor(func(c *config.Config) *string { return &c.Tables.Tags })
	accessors["cache.redis_url"] = configAccessor{
		get:      func(c *config.Config) any { return redact(c.Cache.RedisURL) },
		set:      func(c *config.Config, v string) error { c.Cache.RedisURL = v; return nil },
		writable: true,
	}
	accessors["cache.ttl"] = durationAccessor("cache.ttl",
		func(c *config.Config) *string { return &c.Cache.TTL })
}

// allConfigKeys returns config keys in display order.
func allConfigKeys() []string {
	return []string{
		"version",
		"board.name",
		"board.description",
		"store.driver",
		"store.dsn",
		"store.timeout",
		"tables.tasks",
		"tables.users",
		"tables.tags",
		"cache.redis_url",
		"cache.ttl",
		"log.level",
		"log.format",
		"log.file",
		"defaults.priority",
		"tui.refresh_interval",
		"tui.title_lines",
	}
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	accessors := configAccessors()

	if outputFormat() == output.FormatJSON {
		m := make(map[string]any, len(accessors))
		for _, key := range allConfigKeys() {
			m[key] = accessors[key].get(cfg)
		}
		return output.JSON(os.Stdout, m)
	}

	for _, key := range allConfigKeys() {
		val := accessors[key].get(cfg)
		fmt.Fprintf(os.Stdout, "%-22s %v\n", key, formatConfigValue(val))
	}
	return nil
}

func runConfigGet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key := args[0]
	acc, ok := configAccessors()[key]
	if !ok {
		return unknownConfigKey(key)
	}

	val := acc.get(cfg)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, val)
	}

	fmt.Fprintln(os.Stdout, formatConfigValue(val))
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	acc, ok := configAccessors()[key]
	if !ok {
		return unknownConfigKey(key)
	}
	if !acc.writable {
		return clierr.Newf(clierr.InvalidInput, "config key %q is read-only", key)
	}

	if err := acc.set(cfg, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return clierr.Wrap(clierr.InvalidInput, err, "invalid value for "+key)
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"key": key, "value": acc.get(cfg)})
	}

	output.Messagef(os.Stdout, "Set %s = %v", key, formatConfigValue(acc.get(cfg)))
	return nil
}

func unknownConfigKey(key string) error {
	return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key).
		WithDetails(map[string]any{"key": key, "allowed": allConfigKeys()})
}

// redact hides the password of URL-style connection strings.
func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}

func formatConfigValue(val any) string {
	switch v := val.(type) {
	case []string:
		return strings.Join(v, ", ")
	case string:
		if v == "" {
			return "--"
		}
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
