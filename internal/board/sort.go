package board

import (
	"sort"
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

// Sort fields accepted by SortBy.
const (
	SortDefault  = ""
	SortCreated  = "created"
	SortDeadline = "deadline"
	SortPriority = "priority"
	SortStatus   = "status"
	SortTitle    = "title"
)

// IsOverdue reports whether t has a deadline strictly before now and is not Done.
func IsOverdue(t *task.Task, now time.Time) bool {
	if t.Deadline == nil || t.Deadline.IsZero() || t.Status == task.Done {
		return false
	}
	return t.Deadline.Before(now)
}

// Sort returns a copy of tasks ordered overdue first, then by priority
// rank descending. Ties keep their input order. The input is not modified.
func Sort(tasks []*task.Task, now time.Time) []*task.Task {
	out := append([]*task.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := IsOverdue(out[i], now), IsOverdue(out[j], now)
		if oi != oj {
			return oi
		}
		return out[i].Priority.Rank() > out[j].Priority.Rank()
	})
	return out
}

// SortBy returns a copy of tasks ordered by field. The empty field means
// the board order of Sort.
func SortBy(tasks []*task.Task, field string, reverse bool, now time.Time) []*task.Task {
	if field == SortDefault {
		out := Sort(tasks, now)
		if reverse {
			reverseInPlace(out)
		}
		return out
	}
	out := append([]*task.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		if reverse {
			return compareTasks(out[j], out[i], field)
		}
		return compareTasks(out[i], out[j], field)
	})
	return out
}

// ValidSortFields returns the list of valid --sort field names.
func ValidSortFields() []string {
	return []string{SortCreated, SortDeadline, SortPriority, SortStatus, SortTitle}
}

func compareTasks(a, b *task.Task, field string) bool {
	switch field {
	case SortCreated:
		return a.CreatedAt.Before(b.CreatedAt)
	case SortDeadline:
		return compareDeadline(a, b)
	case SortPriority:
		return a.Priority.Rank() > b.Priority.Rank()
	case SortStatus:
		return task.StatusIndex(a.Status) < task.StatusIndex(b.Status)
	case SortTitle:
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	default:
		return false
	}
}

func compareDeadline(a, b *task.Task) bool {
	if a.Deadline == nil && b.Deadline == nil {
		return false
	}
	if a.Deadline == nil {
		return false // nil sorts last
	}
	if b.Deadline == nil {
		return true
	}
	return a.Deadline.Before(*b.Deadline)
}

func reverseInPlace(tasks []*task.Task) {
	for i, j := 0, len(tasks)-1; i < j; i, j = i+1, j-1 {
		tasks[i], tasks[j] = tasks[j], tasks[i]
	}
}
