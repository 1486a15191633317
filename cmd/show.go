package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskboard/internal/output"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
	"github.com/twiced-technology-gmbh/taskboard/internal/taskdata"
)

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show task details",
	Long: `Displays full details of a single task. The description is rendered as
markdown. ID may be any unique prefix of the task id.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(_ *cobra.Command, args []string) error {
	return runWithBoard(func(_ context.Context, _ *app, _ *session.Session, snap taskdata.Snapshot) error {
		t, err := task.FindByPrefix(snap.Tasks, args[0])
		if err != nil {
			return err
		}

		format := outputFormat()
		if format == output.FormatJSON {
			return output.JSON(os.Stdout, t)
		}
		if format == output.FormatCompact {
			output.TaskDetailCompact(os.Stdout, t, now())
			return nil
		}

		output.TaskDetail(os.Stdout, t, now())
		return nil
	})
}
