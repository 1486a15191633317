package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/output"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/taskdata"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"summary", "stats"},
	Short:   "Show board summary",
	Long: `Displays task counts per status, high-priority and overdue counts, the
number of tasks assigned to you, and the overall completion rate.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

// dashboardResult is the JSON shape of the dashboard.
type dashboardResult struct {
	Board   string `json:"board"`
	Message string `json:"message"`
	board.Dashboard
}

func runDashboard(_ *cobra.Command, _ []string) error {
	return runWithBoard(func(_ context.Context, a *app, s *session.Session, snap taskdata.Snapshot) error {
		d := board.Summary(snap.Tasks, s.UserID, now())

		format := outputFormat()
		if format == output.FormatJSON {
			return output.JSON(os.Stdout, dashboardResult{
				Board:     a.cfg.Board.Name,
				Message:   d.Encouragement(),
				Dashboard: d,
			})
		}
		if format == output.FormatCompact {
			output.DashboardCompact(os.Stdout, a.cfg.Board.Name, d)
			return nil
		}

		output.DashboardTable(os.Stdout, a.cfg.Board.Name, d)
		return nil
	})
}
