package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/config"
	"github.com/twiced-technology-gmbh/taskboard/internal/output"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new task board",
	Long: `Creates a board directory with config.yml and creates the task, user and
tag tables in the configured database if they do not exist yet.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("name", "", "board name (defaults to current directory name)")
	initCmd.Flags().String("driver", config.DefaultDriver, "store driver (postgres or sqlite)")
	initCmd.Flags().String("dsn", "", "connection string, or SQLite file relative to the board directory")
	initCmd.Flags().String("redis-url", "", "Redis URL for the assignee profile cache")
	initCmd.Flags().Bool("skip-schema", false, "do not create tables (for an existing hosted schema)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	dir := flagDir
	if dir == "" {
		dir = config.DefaultDir
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	if _, err := os.Stat(filepath.Join(absDir, config.ConfigFileName)); err == nil {
		return clierr.Newf(clierr.InvalidInput, "board already initialized in %s", absDir).
			WithDetails(map[string]any{"dir": absDir})
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		name = filepath.Base(cwd)
	}

	cfg := config.NewDefault(name)
	cfg.SetDir(absDir)

	cfg.Store.Driver, _ = cmd.Flags().GetString("driver")
	if dsn, _ := cmd.Flags().GetString("dsn"); dsn != "" {
		cfg.Store.DSN = dsn
	} else if cfg.Store.Driver != config.DriverSQLite {
		return clierr.Newf(clierr.InvalidInput, "--dsn is required for the %s driver", cfg.Store.Driver)
	}
	cfg.Cache.RedisURL, _ = cmd.Flags().GetString("redis-url")

	if err := cfg.Validate(); err != nil {
		return clierr.Wrap(clierr.InvalidInput, err, "invalid settings")
	}

	const dirMode = 0o750
	if err := os.MkdirAll(absDir, dirMode); err != nil {
		return fmt.Errorf("creating board directory: %w", err)
	}

	if skip, _ := cmd.Flags().GetBool("skip-schema"); !skip {
		if err := createSchema(cfg); err != nil {
			return err
		}
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	format := outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{
			"status": "initialized",
			"dir":    absDir,
			"name":   name,
			"config": cfg.ConfigPath(),
			"driver": cfg.Store.Driver,
		})
	}

	output.Messagef(os.Stdout, "Initialized board %q in %s", name, absDir)
	output.Messagef(os.Stdout, "  Config:  %s", cfg.ConfigPath())
	output.Messagef(os.Stdout, "  Store:   %s", cfg.Store.Driver)
	output.Messagef(os.Stdout, "  Hint:    Sign in with: taskboard login USER_ID")
	return nil
}

func createSchema(cfg *config.Config) error {
	ctx, cancel := commandContext(cfg)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.client.EnsureSchema(ctx, cfg.Tables); err != nil {
		return clierr.Wrap(clierr.InternalError, err, "creating tables")
	}
	return nil
}
