package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/config"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/store"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
	"github.com/twiced-technology-gmbh/taskboard/internal/taskdata"
)

// newTestApp builds an app over an in-memory SQLite store with one user.
func newTestApp(t *testing.T) *app {
	t.Helper()
	t.Setenv(config.EnvDSN, "")
	t.Setenv(config.EnvDriver, "")
	t.Setenv(config.EnvRedisURL, "")

	cfg := config.NewDefault("test")
	cfg.SetDir(t.TempDir())
	cfg.Store.DSN = ":memory:"
	cfg.Log.Level = "error"

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	require.NoError(t, a.client.EnsureSchema(ctx, cfg.Tables))
	_, err = a.client.From(cfg.Tables.Users).Insert(ctx, store.Row{"id": "u1", "name": "Ada"})
	require.NoError(t, err)
	return a
}

func TestAppLoadBoardAndMutate(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	s := &session.Session{UserID: "u1", UserName: "Ada"}

	snap, err := a.loadBoard(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, taskdata.Ready, snap.State)
	assert.Empty(t, snap.Tasks)
	require.Len(t, snap.Users, 1)

	var created []*task.Task
	snap, err = a.mutate(ctx, func(ctx context.Context) error {
		var err error
		created, err = a.repo.CreateTask(ctx, task.CreateInput{Title: "Ship it", Priority: task.High, UserID: "u1"})
		return err
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "u1", snap.Tasks[0].AssignedTo)
	require.NotNil(t, snap.Tasks[0].AssignedToUser)
	assert.Equal(t, "Ada", snap.Tasks[0].AssignedToUser.Name)

	id := created[0].ID
	snap, err = a.mutate(ctx, func(ctx context.Context) error {
		return a.repo.UpdateTaskStatus(ctx, id, task.InProgress)
	})
	require.NoError(t, err)
	assert.Equal(t, task.InProgress, snap.Tasks[0].Status)

	snap, err = a.mutate(ctx, func(ctx context.Context) error {
		return a.repo.DeleteTask(ctx, id)
	})
	require.NoError(t, err)
	assert.Empty(t, snap.Tasks)
}

func TestAppMutateFailureIsReturned(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	_, err := a.loadBoard(ctx, &session.Session{UserID: "u1"})
	require.NoError(t, err)

	_, err = a.mutate(ctx, func(ctx context.Context) error {
		return a.repo.UpdateTaskStatus(ctx, "missing", task.Done)
	})
	assert.Equal(t, clierr.TaskNotFound, clierr.CodeOf(err))
}

func TestDeleteAfterSlowConfirmation(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	s := &session.Session{UserID: "u1", UserName: "Ada"}

	_, err := a.loadBoard(ctx, s)
	require.NoError(t, err)
	snap, err := a.mutate(ctx, func(ctx context.Context) error {
		_, err := a.repo.CreateTask(ctx, task.CreateInput{Title: "Old", UserID: "u1"})
		return err
	})
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 1)

	// The command's store deadline runs out while the prompt is open.
	expired, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
	defer cancel()
	orig := confirmDelete
	confirmDelete = func(context.Context, string) (bool, error) { return true, nil }
	t.Cleanup(func() { confirmDelete = orig })

	require.NoError(t, deleteSingleTask(expired, a, s, snap, snap.Tasks[0].ID, false))
	assert.Empty(t, a.loader.Snapshot().Tasks)
}

func TestEditReportsTaskAsReadBack(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	_, err := a.client.From(a.cfg.Tables.Users).Insert(ctx, store.Row{"id": "u2", "name": "Grace"})
	require.NoError(t, err)

	s := &session.Session{UserID: "u1", UserName: "Ada"}
	_, err = a.loadBoard(ctx, s)
	require.NoError(t, err)
	snap, err := a.mutate(ctx, func(ctx context.Context) error {
		_, err := a.repo.CreateTask(ctx, task.CreateInput{Title: "Review", UserID: "u1"})
		return err
	})
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 1)

	c := &cobra.Command{}
	addEditFlags(c.Flags())
	require.NoError(t, c.Flags().Parse([]string{"--assignee", "u2", "--status", "done"}))

	got, err := executeEdit(ctx, a, s, snap, snap.Tasks[0].ID, c)
	require.NoError(t, err)
	assert.Equal(t, "u2", got.AssignedTo)
	assert.Equal(t, task.Done, got.Status)
	require.NotNil(t, got.AssignedToUser, "assignee is resolved by the refetch")
	assert.Equal(t, "Grace", got.AssignedToUser.Name)
}

func TestMoveReportsTaskAsReadBack(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	s := &session.Session{UserID: "u1", UserName: "Ada"}

	_, err := a.loadBoard(ctx, s)
	require.NoError(t, err)
	snap, err := a.mutate(ctx, func(ctx context.Context) error {
		_, err := a.repo.CreateTask(ctx, task.CreateInput{Title: "Ship", UserID: "u1"})
		return err
	})
	require.NoError(t, err)

	got, old, err := executeMove(ctx, a, s, snap, snap.Tasks[0].ID, moveFlags(t, "--next"), []string{"id"})
	require.NoError(t, err)
	assert.Equal(t, task.Todo, old)
	assert.Equal(t, task.InProgress, got.Status)
	assert.Equal(t, a.loader.Snapshot().Tasks[0], got)
}

func TestRefetchedFallsBack(t *testing.T) {
	local := &task.Task{ID: "a", Title: "local"}
	fresh := &task.Task{ID: "a", Title: "fresh"}

	assert.Same(t, fresh, refetched(taskdata.Snapshot{Tasks: []*task.Task{{ID: "b"}, fresh}}, "a", local))
	assert.Same(t, local, refetched(taskdata.Snapshot{}, "a", local))
}

func TestRequireSession(t *testing.T) {
	cfg := config.NewDefault("test")
	cfg.SetDir(t.TempDir())

	_, err := requireSession(cfg)
	assert.Equal(t, clierr.NotSignedIn, clierr.CodeOf(err))

	require.NoError(t, session.Save(cfg.Dir(), &session.Session{UserID: "u1"}))
	s, err := requireSession(cfg)
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)
}

func moveFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{}
	c.Flags().Bool("next", false, "")
	c.Flags().Bool("prev", false, "")
	require.NoError(t, c.Flags().Parse(args))
	return c
}

func TestResolveTargetStatus(t *testing.T) {
	todo := &task.Task{ID: "aaaaaaaa-1", Status: task.Todo}
	done := &task.Task{ID: "bbbbbbbb-2", Status: task.Done}

	got, err := resolveTargetStatus(moveFlags(t), []string{"id", "in-progress"}, todo)
	require.NoError(t, err)
	assert.Equal(t, task.InProgress, got)

	got, err = resolveTargetStatus(moveFlags(t, "--next"), []string{"id"}, todo)
	require.NoError(t, err)
	assert.Equal(t, task.InProgress, got)

	_, err = resolveTargetStatus(moveFlags(t, "--prev"), []string{"id"}, todo)
	assert.Equal(t, clierr.BoundaryError, clierr.CodeOf(err))

	_, err = resolveTargetStatus(moveFlags(t, "--next"), []string{"id"}, done)
	assert.Equal(t, clierr.BoundaryError, clierr.CodeOf(err))

	_, err = resolveTargetStatus(moveFlags(t), []string{"id", "archived"}, todo)
	assert.Equal(t, clierr.InvalidStatus, clierr.CodeOf(err))

	_, err = resolveTargetStatus(moveFlags(t), []string{"id"}, todo)
	assert.Equal(t, clierr.InvalidInput, clierr.CodeOf(err))
}

func TestResolveAssignee(t *testing.T) {
	snap := taskdata.Snapshot{Users: []task.User{{ID: "u1", Name: "Ada"}}}

	id, err := resolveAssignee("me", "u9", snap)
	require.NoError(t, err)
	assert.Equal(t, "u9", id)

	id, err = resolveAssignee("u1", "u9", snap)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	_, err = resolveAssignee("ghost", "u9", snap)
	assert.Equal(t, clierr.UserNotFound, clierr.CodeOf(err))

	// Without a user list the id is taken as given.
	snap.Errors = []*taskdata.LoadError{{Collection: taskdata.Users, Err: assert.AnError}}
	id, err = resolveAssignee("ghost", "u9", snap)
	require.NoError(t, err)
	assert.Equal(t, "ghost", id)
}

func TestMergeTags(t *testing.T) {
	usage := map[string]int{"ui": 2, "zeta": 1, "alpha": 1}
	got := mergeTags([]string{"ui", "backend", "ui"}, usage)
	assert.Equal(t, []string{"ui", "backend", "alpha", "zeta"}, got)
}

func TestFilterEntries(t *testing.T) {
	entries := []board.LogEntry{
		{Action: "create", TaskID: "abc1"},
		{Action: "login"},
		{Action: "move", TaskID: "abc1"},
		{Action: "move", TaskID: "def2"},
		{Action: "delete", TaskID: "abc1"},
	}
	got := filterEntries(entries, "abc", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "move", got[0].Action)
	assert.Equal(t, "delete", got[1].Action)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "postgres://app:xxxxx@db:5432/tasks", redact("postgres://app:secret@db:5432/tasks"))
	assert.Equal(t, "taskboard.db", redact("taskboard.db"))
	assert.Equal(t, "redis://localhost:6379/0", redact("redis://localhost:6379/0"))
}

func TestAppendDescription(t *testing.T) {
	orig := now
	now = func() time.Time { return time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = orig })

	assert.Equal(t, "note", appendDescription("", "note", false))
	assert.Equal(t, "first\n\nsecond", appendDescription("first\n", "second", false))
	assert.Equal(t, "first\n\n[2026-03-04 Wed 09:30]\nsecond", appendDescription("first", "second", true))
}

func TestConfigAccessorsCoverDisplayKeys(t *testing.T) {
	acc := configAccessors()
	for _, key := range allConfigKeys() {
		_, ok := acc[key]
		assert.True(t, ok, key)
	}
	assert.Len(t, acc, len(allConfigKeys()))

	cfg := config.NewDefault("test")
	require.NoError(t, acc["defaults.priority"].set(cfg, "high"))
	assert.Equal(t, task.High, cfg.Defaults.Priority)
	assert.Error(t, acc["store.timeout"].set(cfg, "soon"))
	assert.Error(t, acc["store.driver"].set(cfg, "mysql"))
}
