// Package cmd implements the taskboard CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/config"
	"github.com/twiced-technology-gmbh/taskboard/internal/output"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	flagJSON    bool
	flagTable   bool
	flagCompact bool
	flagDir     string
	flagNoColor bool
)

var rootCmd = &cobra.Command{
	Use:   "taskboard",
	Short: "Shared task board for small teams",
	Long: `taskboard tracks a team's tasks across Todo, InProgress and Done.
Run taskboard with no arguments to open the interactive board, or use the
subcommands to list, create, edit, move and delete tasks from scripts.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runTUI,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagNoColor || os.Getenv("NO_COLOR") != "" {
			output.DisableColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagTable, "table", false, "output as table")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "compact", false, "compact one-line-per-record output")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "oneline", false, "alias for --compact")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "path to board directory")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable color output")
}

// Execute runs the root command.
func Execute() {
	_, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}

	var silent *clierr.SilentError
	if errors.As(err, &silent) {
		os.Exit(silent.Code)
	}

	jsonMode := outputFormat() == output.FormatJSON
	code := 1
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		code = cliErr.ExitCode()
	} else if jsonMode {
		code = 2 //nolint:mnd // uncoded errors are internal in JSON mode
	}

	if jsonMode {
		output.JSONError(os.Stdout, err)
	} else {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(code)
}

// resolveDir returns the board directory: --dir, the nearest .taskboard
// above the working directory, or the per-user directory.
func resolveDir() (string, error) {
	if flagDir != "" {
		return flagDir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	dir, err := config.FindDir(cwd)
	if err == nil {
		return dir, nil
	}

	return config.UserDir()
}

// loadConfig finds and loads the board config. The per-user directory is
// created with defaults on first use; any other missing board is an error.
func loadConfig() (*config.Config, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(dir)
	if err == nil {
		return cfg, nil
	}

	if !errors.Is(err, config.ErrNotFound) {
		return nil, clierr.Wrap(clierr.InvalidInput, err, "loading config")
	}
	userDir, userErr := config.UserDir()
	if userErr != nil || dir != userDir {
		return nil, clierr.New(clierr.ConfigNotFound, err.Error()).
			WithDetails(map[string]any{"dir": dir})
	}

	if _, err := config.Init(userDir, "taskboard"); err != nil {
		return nil, err
	}
	return config.Load(userDir)
}

// outputFormat returns the detected output format from flags/env.
func outputFormat() output.Format {
	return output.Detect(flagJSON, flagTable, flagCompact)
}

// logActivity appends an entry to the activity log. Errors are discarded
// because logging should never fail a command.
func logActivity(cfg *config.Config, action, taskID, userID, detail string) {
	board.LogMutation(cfg.Dir(), action, taskID, userID, detail)
}

// runBatch executes fn for each ID and collects results. Returns a SilentError
// with exit code 1 if any operation failed (after outputting results).
func runBatch(ids []string, fn func(string) error) error {
	results := make([]output.BatchResult, 0, len(ids))
	anyFailed := false
	for _, id := range ids {
		r := output.NewBatchResult(id, fn(id))
		anyFailed = anyFailed || !r.OK
		results = append(results, r)
	}

	if outputFormat() == output.FormatJSON {
		if err := output.JSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		var succeeded int
		for _, r := range results {
			if r.OK {
				succeeded++
			} else {
				fmt.Fprintf(os.Stderr, "Error: task %s: %s\n", r.ID, r.Error)
			}
		}
		output.Messagef(os.Stdout, "Completed %d/%d operations", succeeded, len(ids))
	}

	if anyFailed {
		return &clierr.SilentError{Code: 1}
	}
	return nil
}
