package cmd

import (
	"context"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/output"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
	"github.com/twiced-technology-gmbh/taskboard/internal/taskdata"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `Lists tasks with optional filtering, sorting, and output format control.
Without --sort, overdue tasks come first, then higher priorities.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().String("status", "", "filter by status")
	listCmd.Flags().String("priority", "", "filter by priority")
	listCmd.Flags().String("assignee", "", "filter by assignee user id (\"me\" for yourself)")
	listCmd.Flags().Bool("mine", false, "show only tasks assigned to you")
	listCmd.Flags().String("tag", "", "filter by tag")
	listCmd.Flags().Bool("overdue", false, "show only overdue tasks")
	listCmd.Flags().StringP("search", "s", "", "search tasks by title, description, or tags (case-insensitive)")
	listCmd.Flags().String("sort", "", "sort field ("+strings.Join(board.ValidSortFields(), ", ")+")")
	listCmd.Flags().BoolP("reverse", "r", false, "reverse sort order")
	listCmd.Flags().IntP("limit", "n", 0, "limit number of results")
	listCmd.Flags().String("group-by", "", "group results by field ("+strings.Join(board.ValidGroupByFields(), ", ")+")")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	sortBy, _ := cmd.Flags().GetString("sort")
	reverse, _ := cmd.Flags().GetBool("reverse")
	limit, _ := cmd.Flags().GetInt("limit")
	overdue, _ := cmd.Flags().GetBool("overdue")
	groupBy, _ := cmd.Flags().GetString("group-by")

	if sortBy != "" && !slices.Contains(board.ValidSortFields(), sortBy) {
		return clierr.Newf(clierr.InvalidInput, "invalid --sort field %q; valid: %s",
			sortBy, strings.Join(board.ValidSortFields(), ", "))
	}
	if groupBy != "" && !slices.Contains(board.ValidGroupByFields(), groupBy) {
		return clierr.Newf(clierr.InvalidGroupBy, "invalid --group-by field %q; valid: %s",
			groupBy, strings.Join(board.ValidGroupByFields(), ", "))
	}

	return runWithBoard(func(_ context.Context, _ *app, s *session.Session, snap taskdata.Snapshot) error {
		criteria, err := listCriteria(cmd, s)
		if err != nil {
			return err
		}

		at := now()
		tasks := board.Filter(snap.Tasks, criteria)
		if overdue {
			tasks = slices.DeleteFunc(slices.Clone(tasks), func(t *task.Task) bool {
				return !board.IsOverdue(t, at)
			})
		}
		tasks = board.SortBy(tasks, sortBy, reverse, at)
		if limit > 0 && len(tasks) > limit {
			tasks = tasks[:limit]
		}

		if groupBy != "" {
			return outputGroupedList(tasks, groupBy)
		}
		return outputTaskList(tasks)
	})
}

// listCriteria builds the filter from flags. Status and priority are parsed
// so "in-progress" and "high" work.
func listCriteria(cmd *cobra.Command, s *session.Session) (board.Criteria, error) {
	var c board.Criteria
	if v, _ := cmd.Flags().GetString("status"); v != "" {
		st, err := task.ParseStatus(v)
		if err != nil {
			return c, err
		}
		c.Status = st
	}
	if v, _ := cmd.Flags().GetString("priority"); v != "" {
		p, err := task.ParsePriority(v)
		if err != nil {
			return c, err
		}
		c.Priority = p
	}
	c.Tag, _ = cmd.Flags().GetString("tag")
	c.Search, _ = cmd.Flags().GetString("search")

	c.AssignedTo, _ = cmd.Flags().GetString("assignee")
	if mine, _ := cmd.Flags().GetBool("mine"); mine || strings.EqualFold(c.AssignedTo, "me") {
		c.AssignedTo = s.UserID
	}
	return c, nil
}

func outputGroupedList(tasks []*task.Task, groupBy string) error {
	grouped, err := board.GroupBy(tasks, groupBy)
	if err != nil {
		return err
	}
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, grouped)
	}
	output.GroupedTable(os.Stdout, grouped)
	return nil
}

func outputTaskList(tasks []*task.Task) error {
	format := outputFormat()
	if format == output.FormatJSON {
		if tasks == nil {
			tasks = []*task.Task{}
		}
		return output.JSON(os.Stdout, tasks)
	}
	if format == output.FormatCompact {
		output.TaskCompact(os.Stdout, tasks, now())
		return nil
	}

	output.TaskTable(os.Stdout, tasks, now())
	return nil
}
