package task

import (
	"strings"

	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
)

// ParseStatus resolves s to a Status. Matching is case-insensitive and
// accepts "in-progress", "in_progress" and "in progress".
func ParseStatus(s string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "", "_", "", " ", "").Replace(norm)
	for _, st := range Statuses {
		if strings.ToLower(string(st)) == norm {
			return st, nil
		}
	}
	return "", clierr.Newf(clierr.InvalidStatus, "invalid status %q", s).
		WithDetails(map[string]any{
			"status":  s,
			"allowed": Statuses,
		})
}

// ParsePriority resolves s to a Priority, case-insensitively.
func ParsePriority(s string) (Priority, error) {
	norm := strings.TrimSpace(s)
	for _, p := range Priorities {
		if strings.EqualFold(string(p), norm) {
			return p, nil
		}
	}
	return "", clierr.Newf(clierr.InvalidPriority, "invalid priority %q", s).
		WithDetails(map[string]any{
			"priority": s,
			"allowed":  Priorities,
		})
}

// ValidateTitle rejects blank titles.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return clierr.New(clierr.InvalidInput, "title must not be empty").
			WithDetails(map[string]any{"field": "title"})
	}
	return nil
}

// ValidateDate returns a CLIError for invalid date input.
func ValidateDate(field, input string, err error) *clierr.Error {
	return clierr.Newf(clierr.InvalidDate, "invalid %s date: %v", field, err).
		WithDetails(map[string]any{
			"field": field,
			"input": input,
		})
}

// ValidateTaskID returns a CLIError for invalid task ID input.
func ValidateTaskID(input string) *clierr.Error {
	return clierr.Newf(clierr.InvalidTaskID, "invalid task ID %q", input).
		WithDetails(map[string]any{"input": input})
}

// ValidateBoundaryError returns a CLIError for moves past the first or last status.
func ValidateBoundaryError(id string, status Status, direction string) *clierr.Error {
	return clierr.Newf(clierr.BoundaryError,
		"task %s is already at the %s status (%s)", ShortID(id), direction, status).
		WithDetails(map[string]any{
			"id":        id,
			"status":    status,
			"direction": direction,
		})
}

// NormalizeTags trims, drops empties and removes duplicates, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tg := range tags {
		tg = strings.TrimSpace(tg)
		if tg == "" || seen[tg] {
			continue
		}
		seen[tg] = true
		out = append(out, tg)
	}
	return out
}
