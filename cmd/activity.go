package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/output"
)

const defaultActivityLimit = 20

var activityCmd = &cobra.Command{
	Use:     "activity",
	Aliases: []string{"log"},
	Short:   "Show recent changes made from this machine",
	Long: `Shows the local activity log: task creates, edits, moves and deletes,
sign-ins and profile changes made by taskboard on this machine, oldest first.`,
	Args: cobra.NoArgs,
	RunE: runActivity,
}

func init() {
	activityCmd.Flags().IntP("limit", "n", defaultActivityLimit, "number of entries (0 for all)")
	activityCmd.Flags().String("task", "", "show only entries for this task id prefix")
	rootCmd.AddCommand(activityCmd)
}

func runActivity(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	taskPrefix, _ := cmd.Flags().GetString("task")

	readLimit := limit
	if taskPrefix != "" {
		readLimit = 0
	}
	entries, err := board.ReadLog(cfg.Dir(), readLimit)
	if err != nil {
		return err
	}
	if taskPrefix != "" {
		entries = filterEntries(entries, taskPrefix, limit)
	}

	format := outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, entries)
	}
	if format == output.FormatCompact {
		for _, e := range entries {
			output.Messagef(os.Stdout, "%s %s %s %s", e.Timestamp.Format("2006-01-02T15:04"), e.Action, e.TaskID, e.Detail)
		}
		return nil
	}
	output.ActivityTable(os.Stdout, entries)
	return nil
}

// filterEntries keeps entries whose task id starts with prefix, then the
// last limit of them.
func filterEntries(entries []board.LogEntry, prefix string, limit int) []board.LogEntry {
	out := make([]board.LogEntry, 0, len(entries))
	for _, e := range entries {
		if len(e.TaskID) >= len(prefix) && e.TaskID[:len(prefix)] == prefix {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
