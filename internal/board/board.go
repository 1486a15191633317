package board

import (
	"math"
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

// Column is one status bucket of the board.
type Column struct {
	Status task.Status  `json:"status"`
	Tasks  []*task.Task `json:"tasks"`
}

// Columns is the board partitioned by status, in board order.
type Columns struct {
	Todo       Column `json:"todo"`
	InProgress Column `json:"in_progress"`
	Done       Column `json:"done"`
	// Skipped holds tasks whose status is none of the three.
	Skipped []*task.Task `json:"skipped,omitempty"`
}

// All returns the three columns in board order.
func (c Columns) All() []Column {
	return []Column{c.Todo, c.InProgress, c.Done}
}

// GroupByStatus partitions tasks into the three status columns, each
// ordered by Sort.
func GroupByStatus(tasks []*task.Task, now time.Time) Columns {
	cols := Columns{
		Todo:       Column{Status: task.Todo, Tasks: []*task.Task{}},
		InProgress: Column{Status: task.InProgress, Tasks: []*task.Task{}},
		Done:       Column{Status: task.Done, Tasks: []*task.Task{}},
	}
	for _, t := range tasks {
		switch t.Status {
		case task.Todo:
			cols.Todo.Tasks = append(cols.Todo.Tasks, t)
		case task.InProgress:
			cols.InProgress.Tasks = append(cols.InProgress.Tasks, t)
		case task.Done:
			cols.Done.Tasks = append(cols.Done.Tasks, t)
		default:
			cols.Skipped = append(cols.Skipped, t)
		}
	}
	cols.Todo.Tasks = Sort(cols.Todo.Tasks, now)
	cols.InProgress.Tasks = Sort(cols.InProgress.Tasks, now)
	cols.Done.Tasks = Sort(cols.Done.Tasks, now)
	return cols
}

// Dashboard holds the summary counts shown on the dashboard.
type Dashboard struct {
	Total          int `json:"total"`
	Todo           int `json:"todo"`
	InProgress     int `json:"in_progress"`
	Done           int `json:"done"`
	HighPriority   int `json:"high_priority"`
	Overdue        int `json:"overdue"`
	AssignedToMe   int `json:"assigned_to_me"`
	CompletionRate int `json:"completion_rate"`
}

// Summary computes dashboard counts. userID selects "assigned to me".
func Summary(tasks []*task.Task, userID string, now time.Time) Dashboard {
	d := Dashboard{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case task.Todo:
			d.Todo++
		case task.InProgress:
			d.InProgress++
		case task.Done:
			d.Done++
		}
		if t.Priority == task.High {
			d.HighPriority++
		}
		if IsOverdue(t, now) {
			d.Overdue++
		}
		if userID != "" && t.AssignedTo == userID {
			d.AssignedToMe++
		}
	}
	if d.Total > 0 {
		d.CompletionRate = int(math.Round(float64(d.Done) / float64(d.Total) * 100)) //nolint:mnd // percent
	}
	return d
}

// Encouragement returns the progress message for the completion rate.
func (d Dashboard) Encouragement() string {
	const low, high = 30, 70
	switch {
	case d.CompletionRate < low:
		return "Just getting started. Keep going!"
	case d.CompletionRate < high:
		return "Making good progress!"
	default:
		return "Almost there. Great work!"
	}
}

// ParseIDs splits a comma-separated ID string into deduplicated IDs.
func ParseIDs(arg string) ([]string, error) {
	parts := strings.Split(arg, ",")
	seen := make(map[string]bool, len(parts))
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.ContainsAny(p, " \t") {
			return nil, task.ValidateTaskID(p)
		}
		if !seen[p] {
			ids = append(ids, p)
			seen[p] = true
		}
	}
	if len(ids) == 0 {
		return nil, clierr.New(clierr.InvalidTaskID, "no valid task IDs provided")
	}
	return ids, nil
}

// CountByStatus returns the number of tasks in each status.
func CountByStatus(tasks []*task.Task) map[task.Status]int {
	counts := make(map[task.Status]int)
	for _, t := range tasks {
		counts[t.Status]++
	}
	return counts
}
