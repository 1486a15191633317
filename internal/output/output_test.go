package output

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	DisableColor()
	os.Exit(m.Run())
}

func sampleTasks() []*task.Task {
	past := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return []*task.Task{
		{
			ID: "0123456789abcdef", Title: "Fix login", Priority: task.High, Status: task.Todo,
			Deadline: &past, AssignedTo: "u1", AssignedToUser: &task.User{ID: "u1", Name: "Ann"},
			Tags: []string{"bug", "auth"}, CreatedAt: past,
		},
		{ID: "fedcba9876543210", Title: "Write docs", Priority: task.Low, Status: task.Done, Tags: []string{}},
	}
}

func TestDetect(t *testing.T) {
	t.Setenv(EnvOutput, "")
	assert.Equal(t, FormatJSON, Detect(true, true, true))
	assert.Equal(t, FormatCompact, Detect(false, true, true))
	assert.Equal(t, FormatTable, Detect(false, true, false))
	assert.Equal(t, FormatTable, Detect(false, false, false))

	t.Setenv(EnvOutput, "json")
	assert.Equal(t, FormatJSON, Detect(false, false, false))
	t.Setenv(EnvOutput, "oneline")
	assert.Equal(t, FormatCompact, Detect(false, false, false))
	t.Setenv(EnvOutput, "yaml")
	assert.Equal(t, FormatTable, Detect(false, false, false))
}

func TestTaskTable(t *testing.T) {
	var buf bytes.Buffer
	TaskTable(&buf, sampleTasks(), now)
	out := buf.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "DEADLINE")
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "Ann")
	assert.Contains(t, out, "bug,auth")
	assert.Contains(t, out, "2026-05-01 (overdue)")
}

func TestTaskDetail(t *testing.T) {
	tk := sampleTasks()[0]
	tk.Description = "Steps:\n\n- open page\n- click login"
	var buf bytes.Buffer
	TaskDetail(&buf, tk, now)
	out := buf.String()

	assert.Contains(t, out, "Task 01234567: Fix login")
	assert.Contains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "High")
	assert.Contains(t, out, "open")
}

func TestBoardTable(t *testing.T) {
	cols := board.GroupByStatus(sampleTasks(), now)
	var buf bytes.Buffer
	BoardTable(&buf, cols, now)
	out := buf.String()

	assert.Contains(t, out, "Todo (1)")
	assert.Contains(t, out, "InProgress (0)")
	assert.Contains(t, out, "(empty)")
	assert.Contains(t, out, "Done (1)")
	assert.Contains(t, out, "@Ann")
}

func TestDashboardOutputs(t *testing.T) {
	d := board.Summary(sampleTasks(), "u1", now)

	var buf bytes.Buffer
	DashboardTable(&buf, "Team", d)
	assert.Contains(t, buf.String(), "Total: 2 tasks")
	assert.Contains(t, buf.String(), "50%")
	assert.Contains(t, buf.String(), "Making good progress!")

	buf.Reset()
	DashboardCompact(&buf, "Team", d)
	assert.Contains(t, buf.String(), "Team (2 tasks, 50% done)")
	assert.Contains(t, buf.String(), "1 high, 1 overdue, 1 mine")
}

func TestTaskCompact(t *testing.T) {
	var buf bytes.Buffer
	TaskCompact(&buf, sampleTasks(), now)
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, "01234567 [Todo/High] Fix login @Ann (bug, auth) due:2026-05-01!", string(lines[0]))
	assert.Equal(t, "fedcba98 [Done/Low] Write docs", string(lines[1]))
}

func TestUsersAndTags(t *testing.T) {
	var buf bytes.Buffer
	UsersTable(&buf, []task.User{{ID: "u1", Name: "Ann"}, {ID: "u2"}}, "u1")
	assert.Contains(t, buf.String(), "Ann (you)")
	assert.Contains(t, buf.String(), "--")

	buf.Reset()
	TagsTable(&buf, []string{"bug", "ui"}, map[string]int{"bug": 3})
	assert.Contains(t, buf.String(), "bug")
	assert.Contains(t, buf.String(), "3")
}

func TestJSONError(t *testing.T) {
	var buf bytes.Buffer
	JSONError(&buf, clierr.New(clierr.TaskNotFound, "task not found").WithDetails(map[string]any{"id": "x"}))
	assert.JSONEq(t, `{"error":"task not found","code":"TASK_NOT_FOUND","details":{"id":"x"}}`, buf.String())

	buf.Reset()
	JSONError(&buf, errors.New("boom"))
	assert.JSONEq(t, `{"error":"boom","code":"INTERNAL_ERROR"}`, buf.String())
}

func TestNewBatchResult(t *testing.T) {
	assert.Equal(t, BatchResult{ID: "a", OK: true}, NewBatchResult("a", nil))
	assert.Equal(t, BatchResult{ID: "b", Error: "gone", Code: clierr.TaskNotFound},
		NewBatchResult("b", fmt.Errorf("deleting: %w", clierr.New(clierr.TaskNotFound, "gone"))))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "2d 3h", FormatDuration(51*time.Hour))
	assert.Equal(t, "1h 30m", FormatDuration(90*time.Minute))
}

func TestMarkdownFallsBackToText(t *testing.T) {
	out := Markdown("plain words", 40)
	assert.Contains(t, out, "plain")
}
