package task

import (
	"strings"

	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
)

// FindByPrefix resolves a full id or a unique id prefix among tasks.
// An exact match always wins over prefix matches.
func FindByPrefix(tasks []*Task, prefix string) (*Task, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, ValidateTaskID(prefix)
	}

	var matches []*Task
	for _, t := range tasks {
		if t.ID == prefix {
			return t, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return nil, clierr.Newf(clierr.TaskNotFound, "task not found: %s", prefix).
			WithDetails(map[string]any{"id": prefix})
	case 1:
		return matches[0], nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return nil, clierr.Newf(clierr.AmbiguousTaskID, "task ID prefix %q matches %d tasks", prefix, len(matches)).
		WithDetails(map[string]any{"id": prefix, "matches": ids})
}
