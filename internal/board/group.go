package board

import (
	"sort"

	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

const (
	fieldAssignee = "assignee"
	fieldTag      = "tag"
	fieldPriority = "priority"
	fieldStatus   = "status"
)

// StatusCount is the number of tasks in one status.
type StatusCount struct {
	Status task.Status `json:"status"`
	Count  int         `json:"count"`
}

// GroupedSummary holds tasks grouped by a field.
type GroupedSummary struct {
	Field  string         `json:"field"`
	Groups []GroupSummary `json:"groups"`
}

// GroupSummary is one group within a grouped view.
type GroupSummary struct {
	Key      string        `json:"key"`
	Statuses []StatusCount `json:"statuses"`
	Total    int           `json:"total"`
}

// GroupBy groups tasks by the specified field and returns summaries per group.
// A task with several tags counts once under each tag.
func GroupBy(tasks []*task.Task, field string) (GroupedSummary, error) {
	if !validGroupBy(field) {
		return GroupedSummary{}, clierr.Newf(clierr.InvalidGroupBy, "invalid --group-by field %q", field).
			WithDetails(map[string]any{"field": field, "allowed": ValidGroupByFields()})
	}

	groups := make(map[string][]*task.Task)
	for _, t := range tasks {
		for _, key := range extractGroupKeys(t, field) {
			groups[key] = append(groups[key], t)
		}
	}

	keys := sortGroupKeys(groups, field)
	result := GroupedSummary{
		Field:  field,
		Groups: make([]GroupSummary, 0, len(keys)),
	}
	for _, key := range keys {
		groupTasks := groups[key]
		result.Groups = append(result.Groups, GroupSummary{
			Key:      key,
			Statuses: groupStatusCounts(groupTasks),
			Total:    len(groupTasks),
		})
	}
	return result, nil
}

func extractGroupKeys(t *task.Task, field string) []string {
	switch field {
	case fieldAssignee:
		if t.AssignedTo == "" {
			return []string{"(unassigned)"}
		}
		return []string{t.AssigneeName()}
	case fieldTag:
		if len(t.Tags) == 0 {
			return []string{"(untagged)"}
		}
		return t.Tags
	case fieldPriority:
		return []string{string(t.Priority)}
	case fieldStatus:
		return []string{string(t.Status)}
	default:
		return []string{"(all)"}
	}
}

func sortGroupKeys(groups map[string][]*task.Task, field string) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	switch field {
	case fieldStatus:
		sort.SliceStable(keys, func(i, j int) bool {
			return task.StatusIndex(task.Status(keys[i])) < task.StatusIndex(task.Status(keys[j]))
		})
	case fieldPriority:
		sort.SliceStable(keys, func(i, j int) bool {
			return task.Priority(keys[i]).Rank() > task.Priority(keys[j]).Rank()
		})
	}
	return keys
}

func groupStatusCounts(tasks []*task.Task) []StatusCount {
	counts := CountByStatus(tasks)
	out := make([]StatusCount, 0, len(task.Statuses))
	for _, s := range task.Statuses {
		out = append(out, StatusCount{Status: s, Count: counts[s]})
	}
	return out
}

// ValidGroupByFields returns the list of valid --group-by field names.
func ValidGroupByFields() []string {
	return []string{fieldAssignee, fieldTag, fieldPriority, fieldStatus}
}

func validGroupBy(field string) bool {
	for _, f := range ValidGroupByFields() {
		if f == field {
			return true
		}
	}
	return false
}
