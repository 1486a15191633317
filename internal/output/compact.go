package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/date"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

// TaskCompact renders a list of tasks in one-line-per-record compact format.
func TaskCompact(w io.Writer, tasks []*task.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	for _, t := range tasks {
		fmt.Fprintln(w, formatTaskLine(t, now))
	}
}

// TaskDetailCompact renders a single task with detail in compact format.
func TaskDetailCompact(w io.Writer, t *task.Task, now time.Time) {
	fmt.Fprintln(w, formatTaskLine(t, now))
	fmt.Fprintln(w, "  id:"+t.ID+" created:"+t.CreatedAt.UTC().Format(date.Format))

	if t.Description != "" {
		for _, line := range strings.Split(t.Description, "\n") {
			fmt.Fprintln(w, "  "+line)
		}
	}
}

// BoardCompact renders the status columns as one line per task under a
// column heading.
func BoardCompact(w io.Writer, cols board.Columns, now time.Time) {
	for _, col := range cols.All() {
		fmt.Fprintf(w, "%s (%d)\n", col.Status, len(col.Tasks))
		for _, t := range col.Tasks {
			fmt.Fprintln(w, "  "+formatTaskLine(t, now))
		}
	}
	if len(cols.Skipped) > 0 {
		fmt.Fprintf(w, "skipped: %d\n", len(cols.Skipped))
	}
}

// DashboardCompact renders the dashboard summary in compact format.
func DashboardCompact(w io.Writer, name string, d board.Dashboard) {
	if name == "" {
		name = "board"
	}
	fmt.Fprintf(w, "%s (%d tasks, %d%% done)\n", name, d.Total, d.CompletionRate)
	fmt.Fprintf(w, "  %s=%d %s=%d %s=%d\n",
		task.Todo, d.Todo, task.InProgress, d.InProgress, task.Done, d.Done)

	var annotations []string
	if d.HighPriority > 0 {
		annotations = append(annotations, strconv.Itoa(d.HighPriority)+" high")
	}
	if d.Overdue > 0 {
		annotations = append(annotations, strconv.Itoa(d.Overdue)+" overdue")
	}
	if d.AssignedToMe > 0 {
		annotations = append(annotations, strconv.Itoa(d.AssignedToMe)+" mine")
	}
	if len(annotations) > 0 {
		fmt.Fprintln(w, "  "+strings.Join(annotations, ", "))
	}
}

// formatTaskLine builds the one-line representation of a task.
func formatTaskLine(t *task.Task, now time.Time) string {
	line := task.ShortID(t.ID) + " [" + string(t.Status) + "/" + string(t.Priority) + "] " + t.Title

	if name := t.AssigneeName(); name != "" {
		line += " @" + name
	}
	if len(t.Tags) > 0 {
		line += " (" + strings.Join(t.Tags, ", ") + ")"
	}
	if d := date.String(t.Deadline); d != "" {
		line += " due:" + d
		if board.IsOverdue(t, now) {
			line += "!"
		}
	}

	return line
}
