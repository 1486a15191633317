// Package board derives the board view from a task collection: overdue
// detection, ordering, status columns, filtering and summary counts.
// Everything here is pure; the current time is passed in.
package board

import (
	"sort"
	"strings"

	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

// Criteria selects tasks. Empty fields are unset; set fields combine with AND.
type Criteria struct {
	Tag        string
	Status     task.Status
	Priority   task.Priority
	AssignedTo string
	// Search is a case-insensitive substring match across title, description and tags.
	Search string
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// Filter returns the tasks matching every set criterion. With no criteria
// set it returns tasks itself.
func Filter(tasks []*task.Task, c Criteria) []*task.Task {
	if c.IsZero() {
		return tasks
	}
	result := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if matches(t, c) {
			result = append(result, t)
		}
	}
	return result
}

func matches(t *task.Task, c Criteria) bool {
	if c.Tag != "" && !t.HasTag(c.Tag) {
		return false
	}
	if c.Status != "" && t.Status != c.Status {
		return false
	}
	if c.Priority != "" && t.Priority != c.Priority {
		return false
	}
	if c.AssignedTo != "" && t.AssignedTo != c.AssignedTo {
		return false
	}
	if c.Search != "" && !matchesSearch(t, c.Search) {
		return false
	}
	return true
}

// matchesSearch performs case-insensitive substring matching across title, description, and tags.
func matchesSearch(t *task.Task, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// UsedTags returns the distinct tags present on tasks, sorted.
func UsedTags(tasks []*task.Task) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range tasks {
		for _, tg := range t.Tags {
			if !seen[tg] {
				seen[tg] = true
				out = append(out, tg)
			}
		}
	}
	sort.Strings(out)
	return out
}
