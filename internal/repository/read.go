package repository

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/date"
	"github.com/twiced-technology-gmbh/taskboard/internal/store"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

// GetTasks returns every task with dates parsed and the assignee resolved.
// Assignees are looked up in one batch; a failed or missing lookup leaves
// AssignedToUser nil and is logged, never returned.
func (r *Repository) GetTasks(ctx context.Context) ([]*task.Task, error) {
	rows, err := r.client.From(r.tables.Tasks).Rows(ctx)
	if err != nil {
		return nil, clierr.Wrap(clierr.TaskFetchFailed, err, "fetching tasks")
	}

	tasks := make([]*task.Task, len(rows))
	for i, row := range rows {
		tasks[i] = decodeTask(row)
	}
	r.enrich(ctx, tasks)
	return tasks, nil
}

// GetUsers returns every user.
func (r *Repository) GetUsers(ctx context.Context) ([]task.User, error) {
	rows, err := r.client.From(r.tables.Users).Select(colID, colName, colImage).Rows(ctx)
	if err != nil {
		return nil, clierr.Wrap(clierr.UserFetchFailed, err, "fetching users")
	}
	users := make([]task.User, len(rows))
	for i, row := range rows {
		users[i] = decodeUser(row)
	}
	return users, nil
}

// GetUser returns the user with id.
func (r *Repository) GetUser(ctx context.Context, id string) (*task.User, error) {
	row, err := r.client.From(r.tables.Users).Select(colID, colName, colImage).Eq(colID, id).Single(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, clierr.Newf(clierr.UserNotFound, "user not found: %s", id).
			WithDetails(map[string]any{"id": id})
	}
	if err != nil {
		return nil, clierr.Wrap(clierr.UserFetchFailed, err, "fetching user")
	}
	u := decodeUser(row)
	return &u, nil
}

// GetTags returns the tag catalog. It is independent of the tags used on tasks.
func (r *Repository) GetTags(ctx context.Context) ([]string, error) {
	rows, err := r.client.From(r.tables.Tags).Select(colName).Rows(ctx)
	if err != nil {
		return nil, clierr.Wrap(clierr.TagFetchFailed, err, "fetching tags")
	}
	tags := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := row.String(colName); name != "" {
			tags = append(tags, name)
		}
	}
	return tags, nil
}

func (r *Repository) enrich(ctx context.Context, tasks []*task.Task) {
	var ids []string
	seen := map[string]bool{}
	for _, t := range tasks {
		if t.AssignedTo != "" && !seen[t.AssignedTo] {
			seen[t.AssignedTo] = true
			ids = append(ids, t.AssignedTo)
		}
	}
	if len(ids) == 0 {
		return
	}

	// A failed lookup still returns the profiles the cache had.
	users, err := r.lookupUsers(ctx, ids)
	if err != nil {
		r.log.WithError(err).WithFields(log.Fields{
			"assignees": len(ids),
			"cached":    len(users),
		}).Warn("assignee lookup failed; uncached assignees left unresolved")
	}

	for _, t := range tasks {
		if t.AssignedTo == "" {
			continue
		}
		u, ok := users[t.AssignedTo]
		if !ok {
			if err != nil {
				continue
			}
			r.log.WithFields(log.Fields{
				"task":     t.ID,
				"assignee": t.AssignedTo,
			}).Warn("assignee not found")
			continue
		}
		t.AssignedToUser = &u
	}
}

// lookupUsers resolves ids through the cache first, then one batched select.
// When the select fails the cache hits are returned along with the error.
func (r *Repository) lookupUsers(ctx context.Context, ids []string) (map[string]task.User, error) {
	found := map[string]task.User{}
	missing := ids
	if r.cache != nil {
		cached, miss, err := r.cache.GetMany(ctx, ids)
		if err != nil {
			r.log.WithError(err).Debug("profile cache unavailable")
		} else {
			found = cached
			missing = miss
		}
	}
	if len(missing) == 0 {
		return found, nil
	}

	args := make([]any, len(missing))
	for i, id := range missing {
		args[i] = id
	}
	rows, err := r.client.From(r.tables.Users).Select(colID, colName, colImage).In(colID, args...).Rows(ctx)
	if err != nil {
		return found, err
	}

	fetched := make([]task.User, 0, len(rows))
	for _, row := range rows {
		u := decodeUser(row)
		found[u.ID] = u
		fetched = append(fetched, u)
	}
	if r.cache != nil {
		if err := r.cache.SetMany(ctx, fetched); err != nil {
			r.log.WithError(err).Debug("profile cache write failed")
		}
	}
	return found, nil
}

func decodeTask(row store.Row) *task.Task {
	t := &task.Task{
		ID:          row.String(colID),
		Title:       row.String(colTitle),
		Description: row.String(colDescription),
		Priority:    task.Priority(row.String(colPriority)),
		Status:      task.Status(row.String(colStatus)),
		AssignedTo:  row.String(colAssignedTo),
		Tags:        row.Strings(colTags),
	}
	if d, ok := date.ParseStored(row[colDeadline]); ok {
		t.Deadline = &d
	}
	if c, ok := date.ParseStored(row[colCreatedAt]); ok {
		t.CreatedAt = c
	}
	return t
}

func decodeUser(row store.Row) task.User {
	return task.User{
		ID:    row.String(colID),
		Name:  row.String(colName),
		Image: row.String(colImage),
	}
}
