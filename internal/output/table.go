package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/date"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boldStyle   = lipgloss.NewStyle().Bold(true)

	// Status colors aligned with TUI column-header palette.
	statusStyles = map[string]lipgloss.Style{
		string(task.Todo):       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		string(task.InProgress): lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		string(task.Done):       lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}

	// Priority colors matching TUI priority palette.
	priorityStyles = map[string]lipgloss.Style{
		string(task.High):   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		string(task.Medium): lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		string(task.Low):    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}

	tagStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	assigneeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("44")).Bold(true)
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))

	colorProfile = termenv.EnvColorProfile()
)

// DisableColor strips all styling from table output.
func DisableColor() {
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	boldStyle = lipgloss.NewStyle()
	statusStyles = map[string]lipgloss.Style{}
	priorityStyles = map[string]lipgloss.Style{}
	tagStyle = lipgloss.NewStyle()
	assigneeStyle = lipgloss.NewStyle()
	overdueStyle = lipgloss.NewStyle()
	warnStyle = lipgloss.NewStyle()
	colorProfile = termenv.Ascii
	lipgloss.SetColorProfile(termenv.Ascii)
}

// TaskTable renders a list of tasks as a formatted table.
func TaskTable(w io.Writer, tasks []*task.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	const pad = 2
	idW, statusW, prioW, titleW, assigneeW, tagsW := 4, 8, 10, 5, 10, 6
	for _, t := range tasks {
		idW = max(idW, len(task.ShortID(t.ID))+pad)
		statusW = max(statusW, len(t.Status)+pad)
		prioW = max(prioW, len(t.Priority)+pad)
		titleW = max(titleW, min(len(t.Title)+pad, 50))                 //nolint:mnd // max title column width
		assigneeW = max(assigneeW, min(len(t.AssigneeName())+pad, 24))  //nolint:mnd // max assignee column width
		tagsW = max(tagsW, min(len(strings.Join(t.Tags, ","))+pad, 30)) //nolint:mnd // max tags column width
	}

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %-*s %s",
		idW, "ID", statusW, "STATUS", prioW, "PRIORITY",
		titleW, "TITLE", assigneeW, "ASSIGNEE", tagsW, "TAGS", "DEADLINE")
	fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(header, " ")))

	for _, t := range tasks {
		row := fmt.Sprintf("%-*s %s %s %s %s %s %s",
			idW, task.ShortID(t.ID),
			padRight(styledValue(string(t.Status), statusStyles), statusW),
			padRight(styledValue(string(t.Priority), priorityStyles), prioW),
			padRight(truncate(t.Title, 48), titleW), //nolint:mnd // max title width
			padRight(assigneeDisplay(t), assigneeW),
			padRight(tagsDisplay(t.Tags, ","), tagsW),
			deadlineDisplay(t, now))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// TaskDetail renders a single task with full detail. The description is
// rendered as markdown.
func TaskDetail(w io.Writer, t *task.Task, now time.Time) {
	titleLine := fmt.Sprintf("Task %s: %s", task.ShortID(t.ID), t.Title)
	fmt.Fprintln(w, boldStyle.Render(titleLine))
	fmt.Fprintln(w, strings.Repeat("─", lipgloss.Width(titleLine)))

	printField(w, "ID", t.ID)
	printField(w, "Status", styledValue(string(t.Status), statusStyles))
	printField(w, "Priority", styledValue(string(t.Priority), priorityStyles))
	printField(w, "Assignee", assigneeDisplay(t))
	printField(w, "Tags", tagsDisplay(t.Tags, ", "))
	printField(w, "Deadline", deadlineDisplay(t, now))
	printField(w, "Created", t.CreatedAt.UTC().Format("2006-01-02 15:04"))
	if !t.CreatedAt.IsZero() {
		printField(w, "Age", FormatDuration(now.Sub(t.CreatedAt)))
	}

	if strings.TrimSpace(t.Description) != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, Markdown(t.Description, markdownWidth))
	}
}

// BoardTable renders the three status columns one after another.
func BoardTable(w io.Writer, cols board.Columns, now time.Time) {
	for i, col := range cols.All() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := fmt.Sprintf("%s (%d)", col.Status, len(col.Tasks))
		if st, ok := statusStyles[string(col.Status)]; ok {
			title = st.Bold(true).Render(title)
		}
		fmt.Fprintln(w, title)
		fmt.Fprintln(w, dimStyle.Render(strings.Repeat("─", lipgloss.Width(title))))
		if len(col.Tasks) == 0 {
			fmt.Fprintln(w, dimStyle.Render("  (empty)"))
			continue
		}
		for _, t := range col.Tasks {
			line := "  " + task.ShortID(t.ID) + " " +
				padRight(styledValue(string(t.Priority), priorityStyles), 8) + //nolint:mnd // priority width
				truncate(t.Title, 60) //nolint:mnd // max title width
			if name := t.AssigneeName(); name != "" {
				line += " " + assigneeStyle.Render("@"+name)
			}
			if d := date.String(t.Deadline); d != "" {
				line += " " + deadlineDisplay(t, now)
			}
			fmt.Fprintln(w, line)
		}
	}
	if len(cols.Skipped) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d task(s) with unknown status not shown", len(cols.Skipped))))
	}
}

// DashboardTable renders the dashboard summary.
func DashboardTable(w io.Writer, name string, d board.Dashboard) {
	if name != "" {
		fmt.Fprintln(w, boldStyle.Render(name))
	}
	fmt.Fprintf(w, "Total: %d tasks\n\n", d.Total)

	header := fmt.Sprintf("%-16s %6s", "STATUS", "COUNT")
	fmt.Fprintln(w, headerStyle.Render(header))
	const statusColW = 16
	for _, sc := range []struct {
		status task.Status
		count  int
	}{{task.Todo, d.Todo}, {task.InProgress, d.InProgress}, {task.Done, d.Done}} {
		fmt.Fprintf(w, "%s %6d\n", padRight(styledValue(string(sc.status), statusStyles), statusColW), sc.count)
	}

	fmt.Fprintln(w)
	printField(w, "High", strconv.Itoa(d.HighPriority))
	overdue := strconv.Itoa(d.Overdue)
	if d.Overdue > 0 {
		overdue = overdueStyle.Render(overdue)
	}
	printField(w, "Overdue", overdue)
	printField(w, "Mine", strconv.Itoa(d.AssignedToMe))
	printField(w, "Complete", progressBar(d.CompletionRate)+" "+strconv.Itoa(d.CompletionRate)+"%")
	fmt.Fprintln(w)
	fmt.Fprintln(w, dimStyle.Render(d.Encouragement()))
}

// GroupedTable renders a grouped board view with per-group status breakdowns.
func GroupedTable(w io.Writer, gs board.GroupedSummary) {
	if len(gs.Groups) == 0 {
		fmt.Fprintln(os.Stderr, "No groups found.")
		return
	}

	for i, g := range gs.Groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := fmt.Sprintf("%s (%d tasks)", g.Key, g.Total)
		fmt.Fprintln(w, boldStyle.Render(title))

		for _, ss := range g.Statuses {
			if ss.Count == 0 {
				continue
			}
			const groupStatusW = 16
			fmt.Fprintf(w, "  %s %d\n",
				padRight(styledValue(string(ss.Status), statusStyles), groupStatusW), ss.Count)
		}
	}
}

// UsersTable renders the user directory. The signed-in user is marked.
func UsersTable(w io.Writer, users []task.User, currentID string) {
	if len(users) == 0 {
		fmt.Fprintln(os.Stderr, "No users found.")
		return
	}
	idW := 4
	for _, u := range users {
		idW = max(idW, len(u.ID)+2) //nolint:mnd // padding
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s %s", idW, "ID", "NAME")))
	for _, u := range users {
		name := stringOrDash(u.Name)
		if u.ID == currentID {
			name += " " + assigneeStyle.Render("(you)")
		}
		fmt.Fprintf(w, "%-*s %s\n", idW, u.ID, name)
	}
}

// TagsTable renders the tag catalog with how many loaded tasks use each tag.
func TagsTable(w io.Writer, tags []string, usage map[string]int) {
	if len(tags) == 0 {
		fmt.Fprintln(os.Stderr, "No tags found.")
		return
	}
	tagW := 5
	for _, tg := range tags {
		tagW = max(tagW, len(tg)+2) //nolint:mnd // padding
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s %s", tagW, "TAG", "TASKS")))
	for _, tg := range tags {
		fmt.Fprintf(w, "%s %d\n", padRight(tagStyle.Render(tg), tagW), usage[tg])
	}
}

// ActivityTable renders activity log entries, oldest first.
func ActivityTable(w io.Writer, entries []board.LogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No activity recorded.")
		return
	}
	for _, e := range entries {
		line := dimStyle.Render(e.Timestamp.UTC().Format("2006-01-02 15:04")) + " " +
			padRight(boldStyle.Render(e.Action), 8) //nolint:mnd // action width
		if e.TaskID != "" {
			line += " " + task.ShortID(e.TaskID)
		}
		if e.Detail != "" {
			line += " " + e.Detail
		}
		if e.UserID != "" {
			line += " " + assigneeStyle.Render("@"+e.UserID)
		}
		fmt.Fprintln(w, line)
	}
}

// Warnings prints non-fatal load errors so partially loaded output is not
// mistaken for complete output.
func Warnings(w io.Writer, errs []error) {
	for _, err := range errs {
		fmt.Fprintln(w, warnStyle.Render("warning: "+err.Error()))
	}
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}

// FormatDuration renders a duration as human-readable "Xd Yh" or "Xh Ym".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	const hoursPerDay = 24
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if days > 0 {
		return strconv.Itoa(days) + "d " + strconv.Itoa(hours) + "h"
	}
	minutes := int(d.Minutes()) % 60 //nolint:mnd // 60 minutes per hour
	return strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func stringOrDash(s string) string {
	if s == "" {
		return dimStyle.Render("--")
	}
	return s
}

func assigneeDisplay(t *task.Task) string {
	name := t.AssigneeName()
	if name == "" {
		return dimStyle.Render("--")
	}
	return assigneeStyle.Render(name)
}

func tagsDisplay(tags []string, sep string) string {
	if len(tags) == 0 {
		return dimStyle.Render("--")
	}
	return tagStyle.Render(strings.Join(tags, sep))
}

func deadlineDisplay(t *task.Task, now time.Time) string {
	d := date.String(t.Deadline)
	if d == "" {
		return dimStyle.Render("--")
	}
	if board.IsOverdue(t, now) {
		return overdueStyle.Render(d + " (overdue)")
	}
	return d
}

func progressBar(percent int) string {
	const width = 20
	filled := percent * width / 100 //nolint:mnd // percent
	filled = max(0, min(width, filled))
	return statusStyles[string(task.Done)].Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled))
}

// styledValue renders s using a matching style from the map, or returns s unchanged.
func styledValue(s string, styles map[string]lipgloss.Style) string {
	if st, ok := styles[s]; ok {
		return st.Render(s)
	}
	return s
}
