package board

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func yesterday() *time.Time { return at(-24 * time.Hour) }

func ids(tasks []*task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestIsOverdue(t *testing.T) {
	tests := []struct {
		name string
		task *task.Task
		want bool
	}{
		{"past deadline todo", &task.Task{Status: task.Todo, Deadline: yesterday()}, true},
		{"past deadline in progress", &task.Task{Status: task.InProgress, Deadline: at(-time.Second)}, true},
		{"past deadline done", &task.Task{Status: task.Done, Deadline: yesterday()}, false},
		{"future deadline", &task.Task{Status: task.Todo, Deadline: at(time.Hour)}, false},
		{"deadline equals now", &task.Task{Status: task.Todo, Deadline: at(0)}, false},
		{"no deadline", &task.Task{Status: task.Todo}, false},
		{"zero deadline", &task.Task{Status: task.Todo, Deadline: &time.Time{}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOverdue(tt.task, now))
		})
	}
}

func TestDoneIsNeverOverdue(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		d := at(time.Duration(r.Int63n(int64(48*time.Hour))) - 24*time.Hour)
		tk := &task.Task{Status: task.Done, Deadline: d}
		assert.False(t, IsOverdue(tk, now))
		tk.Status = task.Todo
		assert.Equal(t, d.Before(now), IsOverdue(tk, now))
	}
}

func TestSortScenario(t *testing.T) {
	t1 := &task.Task{ID: "1", Status: task.Todo, Priority: task.High, Deadline: yesterday()}
	t2 := &task.Task{ID: "2", Status: task.Done, Priority: task.High, Deadline: yesterday()}
	t3 := &task.Task{ID: "3", Status: task.Todo, Priority: task.Low}

	assert.Equal(t, []string{"1", "3"}, ids(Sort([]*task.Task{t3, t1}, now)))
	assert.False(t, IsOverdue(t2, now))
}

func TestSortOverdueBeatsPriority(t *testing.T) {
	overdueLow := &task.Task{ID: "a", Status: task.Todo, Priority: task.Low, Deadline: yesterday()}
	high := &task.Task{ID: "b", Status: task.Todo, Priority: task.High}
	medium := &task.Task{ID: "c", Status: task.Todo, Priority: task.Medium}
	low := &task.Task{ID: "d", Status: task.Todo, Priority: task.Low}

	got := Sort([]*task.Task{low, medium, high, overdueLow}, now)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(got))
}

func TestSortIsStableAndPure(t *testing.T) {
	in := []*task.Task{
		{ID: "1", Status: task.Todo, Priority: task.Medium},
		{ID: "2", Status: task.Todo, Priority: task.High},
		{ID: "3", Status: task.Todo, Priority: task.Medium},
		{ID: "4", Status: task.Todo, Priority: task.High},
	}
	before := ids(in)

	once := Sort(in, now)
	assert.Equal(t, []string{"2", "4", "1", "3"}, ids(once))
	assert.Equal(t, before, ids(in), "input order unchanged")
	assert.Equal(t, ids(once), ids(Sort(once, now)), "idempotent")
}

func randomTasks(r *rand.Rand, n int) []*task.Task {
	out := make([]*task.Task, n)
	for i := range out {
		tk := &task.Task{
			ID:       fmt.Sprintf("t%d", i),
			Status:   task.Statuses[r.Intn(len(task.Statuses))],
			Priority: task.Priorities[r.Intn(len(task.Priorities))],
		}
		if r.Intn(2) == 0 {
			tk.Deadline = at(time.Duration(r.Intn(96)-48) * time.Hour)
		}
		if r.Intn(2) == 0 {
			tk.Tags = []string{[]string{"bug", "ui", "api"}[r.Intn(3)]}
		}
		tk.AssignedTo = []string{"", "u1", "u2"}[r.Intn(3)]
		out[i] = tk
	}
	return out
}

func TestGroupByStatusPartitions(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		tasks := randomTasks(r, r.Intn(40))
		cols := GroupByStatus(tasks, now)

		var all []string
		for _, col := range cols.All() {
			for _, tk := range col.Tasks {
				assert.Equal(t, col.Status, tk.Status)
			}
			assert.Equal(t, ids(Sort(col.Tasks, now)), ids(col.Tasks), "column is sorted")
			all = append(all, ids(col.Tasks)...)
		}
		assert.Len(t, all, len(tasks))
		assert.ElementsMatch(t, ids(tasks), all)
		assert.Empty(t, cols.Skipped)
	}
}

func TestGroupByStatusEmptyAndUnknown(t *testing.T) {
	cols := GroupByStatus(nil, now)
	for _, col := range cols.All() {
		assert.NotNil(t, col.Tasks)
		assert.Empty(t, col.Tasks)
	}

	cols = GroupByStatus([]*task.Task{{ID: "x", Status: "Archived"}}, now)
	assert.Equal(t, []string{"x"}, ids(cols.Skipped))
}

func TestFilterConjunction(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	tasks := randomTasks(r, 60)

	c := Criteria{Tag: "bug", Status: task.Todo, Priority: task.High, AssignedTo: "u1"}
	got := Filter(tasks, c)
	for _, tk := range tasks {
		want := tk.HasTag("bug") && tk.Status == task.Todo && tk.Priority == task.High && tk.AssignedTo == "u1"
		assert.Equal(t, want, contains(got, tk), tk.ID)
	}
}

func TestFilterIdentity(t *testing.T) {
	tasks := randomTasks(rand.New(rand.NewSource(5)), 10)
	got := Filter(tasks, Criteria{})
	require.Len(t, got, len(tasks))
	assert.Same(t, &tasks[0], &got[0], "same backing slice")
}

func TestFilterSearch(t *testing.T) {
	tasks := []*task.Task{
		{ID: "1", Title: "Fix login"},
		{ID: "2", Description: "LOGIN page is slow"},
		{ID: "3", Tags: []string{"login-flow"}},
		{ID: "4", Title: "Other"},
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids(Filter(tasks, Criteria{Search: "login"})))
}

func contains(tasks []*task.Task, t *task.Task) bool {
	for _, x := range tasks {
		if x == t {
			return true
		}
	}
	return false
}

func TestSummary(t *testing.T) {
	tasks := []*task.Task{
		{ID: "1", Status: task.Todo, Priority: task.High, Deadline: yesterday(), AssignedTo: "me"},
		{ID: "2", Status: task.InProgress, Priority: task.Medium, AssignedTo: "me"},
		{ID: "3", Status: task.Done, Priority: task.High, Deadline: yesterday()},
		{ID: "4", Status: task.Done, Priority: task.Low, AssignedTo: "other"},
	}
	d := Summary(tasks, "me", now)
	assert.Equal(t, Dashboard{
		Total: 4, Todo: 1, InProgress: 1, Done: 2,
		HighPriority: 2, Overdue: 1, AssignedToMe: 2, CompletionRate: 50,
	}, d)
	assert.Equal(t, "Making good progress!", d.Encouragement())

	empty := Summary(nil, "me", now)
	assert.Zero(t, empty.CompletionRate)
	assert.Contains(t, empty.Encouragement(), "getting started")

	assert.Equal(t, 67, Summary(tasks[1:], "", now).CompletionRate)
	assert.Contains(t, Dashboard{CompletionRate: 70}.Encouragement(), "Almost there")
}

func TestSortBy(t *testing.T) {
	tasks := []*task.Task{
		{ID: "1", Title: "b", CreatedAt: now.Add(2 * time.Hour), Deadline: at(3 * time.Hour), Status: task.Done},
		{ID: "2", Title: "A", CreatedAt: now, Status: task.Todo},
		{ID: "3", Title: "c", CreatedAt: now.Add(time.Hour), Deadline: at(time.Hour), Status: task.InProgress},
	}
	assert.Equal(t, []string{"2", "3", "1"}, ids(SortBy(tasks, SortCreated, false, now)))
	assert.Equal(t, []string{"3", "1", "2"}, ids(SortBy(tasks, SortDeadline, false, now)))
	assert.Equal(t, []string{"2", "1", "3"}, ids(SortBy(tasks, SortTitle, false, now)))
	assert.Equal(t, []string{"1", "3", "2"}, ids(SortBy(tasks, SortStatus, true, now)))
}

func TestGroupBy(t *testing.T) {
	tasks := []*task.Task{
		{ID: "1", Status: task.Todo, Priority: task.Low, Tags: []string{"bug", "ui"}},
		{ID: "2", Status: task.Done, Priority: task.High, Tags: []string{"bug"},
			AssignedTo: "u1", AssignedToUser: &task.User{ID: "u1", Name: "Ada"}},
		{ID: "3", Status: task.Todo, Priority: task.High},
	}

	g, err := GroupBy(tasks, "tag")
	require.NoError(t, err)
	require.Len(t, g.Groups, 3)
	assert.Equal(t, "(untagged)", g.Groups[0].Key)
	assert.Equal(t, "bug", g.Groups[1].Key)
	assert.Equal(t, 2, g.Groups[1].Total)
	assert.Equal(t, []StatusCount{{task.Todo, 1}, {task.InProgress, 0}, {task.Done, 1}}, g.Groups[1].Statuses)

	g, err = GroupBy(tasks, "priority")
	require.NoError(t, err)
	assert.Equal(t, "High", g.Groups[0].Key)

	g, err = GroupBy(tasks, "assignee")
	require.NoError(t, err)
	assert.Equal(t, []string{"(unassigned)", "Ada"}, []string{g.Groups[0].Key, g.Groups[1].Key})

	_, err = GroupBy(tasks, "color")
	assert.Equal(t, clierr.InvalidGroupBy, clierr.CodeOf(err))
}

func TestParseIDs(t *testing.T) {
	got, err := ParseIDs("abc, def,abc,,")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "def"}, got)

	_, err = ParseIDs(" , ")
	assert.Equal(t, clierr.InvalidTaskID, clierr.CodeOf(err))
}

func TestUsedTags(t *testing.T) {
	tasks := []*task.Task{{Tags: []string{"ui", "bug"}}, {Tags: []string{"bug"}}, {}}
	assert.Equal(t, []string{"bug", "ui"}, UsedTags(tasks))
}
