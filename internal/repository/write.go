package repository

import (
	"context"
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/store"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

// CreateTask inserts a task in the Todo column and returns the stored rows.
// The assignee falls back to the creating user. Not idempotent: a repeated
// call creates a second task.
func (r *Repository) CreateTask(ctx context.Context, in task.CreateInput) ([]*task.Task, error) {
	assignee := in.AssignedTo
	if assignee == "" {
		assignee = in.UserID
	}
	priority := in.Priority
	if priority == "" {
		priority = task.Medium
	}

	row := store.Row{
		colTitle:       in.Title,
		colDescription: in.Description,
		colPriority:    string(priority),
		colStatus:      string(task.Todo),
		colCreatedAt:   r.now().UTC(),
		colAssignedTo:  nullable(assignee),
		colDeadline:    deadlineValue(in.Deadline),
		colTags:        task.NormalizeTags(in.Tags),
	}

	rows, err := r.client.From(r.tables.Tasks).Insert(ctx, row)
	if err != nil {
		return nil, clierr.Wrap(clierr.TaskCreateFailed, err, "creating task")
	}
	out := make([]*task.Task, len(rows))
	for i, rw := range rows {
		out[i] = decodeTask(rw)
	}
	return out, nil
}

// UpdateTask replaces the editable fields of task id. Status and createdAt
// are left untouched; an absent deadline clears it.
func (r *Repository) UpdateTask(ctx context.Context, id string, in task.UpdateInput) error {
	values := store.Row{
		colTitle:       in.Title,
		colDescription: in.Description,
		colPriority:    string(in.Priority),
		colDeadline:    deadlineValue(in.Deadline),
		colAssignedTo:  nullable(in.AssignedTo),
		colTags:        task.NormalizeTags(in.Tags),
	}
	n, err := r.client.From(r.tables.Tasks).Eq(colID, id).Update(ctx, values)
	if err != nil {
		return clierr.Wrap(clierr.TaskUpdateFailed, err, "updating task").
			WithDetails(map[string]any{"id": id})
	}
	return affected(n, id)
}

// UpdateTaskStatus moves task id to status.
func (r *Repository) UpdateTaskStatus(ctx context.Context, id string, status task.Status) error {
	n, err := r.client.From(r.tables.Tasks).Eq(colID, id).Update(ctx, store.Row{colStatus: string(status)})
	if err != nil {
		return clierr.Wrap(clierr.StatusUpdateFailed, err, "updating task status").
			WithDetails(map[string]any{"id": id, "status": status})
	}
	return affected(n, id)
}

// DeleteTask removes task id.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	n, err := r.client.From(r.tables.Tasks).Eq(colID, id).Delete(ctx)
	if err != nil {
		return clierr.Wrap(clierr.TaskDeleteFailed, err, "deleting task").
			WithDetails(map[string]any{"id": id})
	}
	return affected(n, id)
}

// UpdateUserProfile renames user userID and drops their cached profile.
func (r *Repository) UpdateUserProfile(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return clierr.New(clierr.InvalidInput, "name must not be empty").
			WithDetails(map[string]any{"field": "name"})
	}
	n, err := r.client.From(r.tables.Users).Eq(colID, userID).Update(ctx, store.Row{colName: name})
	if err != nil {
		return clierr.Wrap(clierr.ProfileUpdateFailed, err, "updating profile").
			WithDetails(map[string]any{"id": userID})
	}
	if n == 0 {
		return clierr.Newf(clierr.UserNotFound, "user not found: %s", userID).
			WithDetails(map[string]any{"id": userID})
	}
	if r.cache != nil {
		if err := r.cache.Invalidate(ctx, userID); err != nil {
			r.log.WithError(err).WithField("user", userID).Warn("profile cache invalidation failed")
		}
	}
	return nil
}

func affected(n int64, id string) error {
	if n == 0 {
		return clierr.Newf(clierr.TaskNotFound, "task not found: %s", id).
			WithDetails(map[string]any{"id": id})
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deadlineValue(d *time.Time) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.UTC()
}
