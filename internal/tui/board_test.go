package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/taskboard/internal/board"
	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
	"github.com/twiced-technology-gmbh/taskboard/internal/taskdata"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

// fakeStore backs both the loader and the board's mutations.
type fakeStore struct {
	mu       sync.Mutex
	tasks    map[string]*task.Task
	order    []string
	tagErr   error
	mutErr   error
	fetches  int
	statuses []task.Status
}

func newFakeStore(tasks ...*task.Task) *fakeStore {
	s := &fakeStore{tasks: map[string]*task.Task{}}
	for _, t := range tasks {
		s.tasks[t.ID] = t
		s.order = append(s.order, t.ID)
	}
	return s
}

func (s *fakeStore) GetTasks(context.Context) ([]*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	out := make([]*task.Task, 0, len(s.order))
	for _, id := range s.order {
		if t, ok := s.tasks[id]; ok {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeStore) GetUsers(context.Context) ([]task.User, error) {
	return []task.User{{ID: "u1", Name: "Ann"}}, nil
}

func (s *fakeStore) GetTags(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tagErr != nil {
		return nil, s.tagErr
	}
	return []string{"bug", "ui"}, nil
}

func (s *fakeStore) UpdateTaskStatus(_ context.Context, id string, status task.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mutErr != nil {
		return s.mutErr
	}
	s.statuses = append(s.statuses, status)
	s.tasks[id].Status = status
	return nil
}

func (s *fakeStore) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mutErr != nil {
		return s.mutErr
	}
	delete(s.tasks, id)
	return nil
}

func (s *fakeStore) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func sampleTasks() []*task.Task {
	yesterday := testNow.AddDate(0, 0, -1)
	return []*task.Task{
		{ID: "aaaaaaaa-1", Title: "Fix login", Priority: task.High, Status: task.Todo, Deadline: &yesterday, AssignedTo: "u1", AssignedToUser: &task.User{ID: "u1", Name: "Ann"}, Tags: []string{"bug"}},
		{ID: "bbbbbbbb-2", Title: "Polish buttons", Priority: task.Low, Status: task.Todo, Tags: []string{"ui"}},
		{ID: "cccccccc-3", Title: "Ship release", Priority: task.Medium, Status: task.InProgress, Tags: []string{}},
	}
}

func newTestBoard(t *testing.T, store *fakeStore, sess *session.Session) *Board {
	t.Helper()
	loader := taskdata.New(store)
	b := NewBoard(loader, store, Options{Dir: t.TempDir(), BoardName: "Team", Session: sess})
	b.SetNow(func() time.Time { return testNow })
	b.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	run(t, b, b.Init())
	return b
}

// run executes cmd and feeds resulting messages back into the board until
// no command is left.
func run(t *testing.T, b *Board, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil && i < 10; i++ {
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				run(t, b, c)
			}
			return
		}
		_, cmd = b.Update(msg)
	}
}

func press(t *testing.T, b *Board, keys string) {
	t.Helper()
	for _, r := range keys {
		_, cmd := b.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		run(t, b, cmd)
	}
}

var alice = &session.Session{UserID: "u1", UserName: "Ann"}

func TestBoardSignedOut(t *testing.T) {
	store := newFakeStore(sampleTasks()...)
	b := newTestBoard(t, store, nil)

	assert.Contains(t, b.View(), "Not signed in")
	assert.Zero(t, store.fetchCount())
}

func TestBoardLoadsOnSession(t *testing.T) {
	store := newFakeStore(sampleTasks()...)
	b := newTestBoard(t, store, alice)

	view := b.View()
	assert.Contains(t, view, "Todo (2)")
	assert.Contains(t, view, "InProgress (1)")
	assert.Contains(t, view, "Done (0)")
	assert.Contains(t, view, "Fix login")
	assert.Contains(t, view, "@Ann")
	assert.Equal(t, 1, store.fetchCount())
}

func TestBoardSessionArrivesLater(t *testing.T) {
	store := newFakeStore(sampleTasks()...)
	b := newTestBoard(t, store, nil)

	_, cmd := b.Update(SessionMsg{Session: alice})
	run(t, b, cmd)
	assert.Contains(t, b.View(), "Fix login")

	_, cmd = b.Update(SessionMsg{Session: nil})
	run(t, b, cmd)
	assert.Contains(t, b.View(), "Not signed in")
}

func TestBoardOverdueSortsFirst(t *testing.T) {
	store := newFakeStore(sampleTasks()...)
	b := newTestBoard(t, store, alice)

	require.NotNil(t, b.selectedTask())
	assert.Equal(t, "aaaaaaaa-1", b.selectedTask().ID)
}

func TestMoveNextRefetches(t *testing.T) {
	store := newFakeStore(sampleTasks()...)
	b := newTestBoard(t, store, alice)

	press(t, b, "]")

	assert.Equal(t, []task.Status{task.InProgress}, store.statuses)
	assert.Equal(t, 2, store.fetchCount())
	assert.Contains(t, b.View(), "InProgress (2)")
	// Selection follows the moved task.
	assert.Equal(t, "aaaaaaaa-1", b.selectedTask().ID)
	assert.Equal(t, 1, b.activeCol)

	entries, err := board.ReadLog(b.opts.Dir, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "move", entries[0].Action)
	assert.Equal(t, "u1", entries[0].UserID)
}

func TestMovePrevAtFirstColumnIsBoundary(t *testing.T) {
	store := newFakeStore(sampleTasks()...)
	b := newTestBoard(t, store, alice)

	press(t, b, "[")

	require.Error(t, b.err)
	assert.Equal(t, clierr.BoundaryError, clierr.CodeOf(b.err))
	assert.Empty(t, store.statuses)
	assert.Equal(t, 1, store.fetchCount())
}

func TestMutationFailureShowsErrorWithoutRefetch(t *testing.T) {
	store := newFakeStore(sampleTasks()...)
	store.mutErr = errors.New("store down")
	b := newTestBoard(t, store, alice)

	press(t, b, "]")

	require.Error(t, b.err)
	assert.Contains(t, b.View(), "store down")
	assert.Equal(t, 1, store.fetchCount())
}

func TestDeleteConfirmFlow(t *testing.T) {
	store := newFakeStore(sampleTasks()...)
	b := newTestBoard(t, store, alice)

	press(t, b, "d")
	assert.Equal(t, viewConfirmDelete, b.view)
	assert.Contains(t, b.View(), "Delete task?")

	press(t, b, "n")
	assert.Equal(t, viewBoard, b.view)
	assert.Len(t, store.tasks, 3)

	press(t, b, "dy")
	assert.Equal(t, viewBoard, b.view)
	assert.Len(t, store.tasks, 2)
	assert.Contains(t, b.View(), "Todo (1)")
	assert.NotContains(t, b.View(), "Fix login")
}

func TestFilterCycling(t *testing.T) {
	store := newFakeStore(sampleTasks()...)
	b := newTestBoard(t, store, alice)

	press(t, b, "p")
	assert.Equal(t, task.High, b.criteria.Priority)
	assert.Len(t, b.tasks, 1)
	assert.Contains(t, b.View(), "filter: priority=High")

	press(t, b, "c")
	assert.Len(t, b.tasks, 3)

	press(t, b, "t")
	assert.Equal(t, "bug", b.criteria.Tag)
	assert.Len(t, b.tasks, 1)

	press(t, b, "c")
	press(t, b, "m")
	assert.Equal(t, "u1", b.criteria.AssignedTo)
	assert.Len(t, b.tasks, 1)
	press(t, b, "m")
	assert.Empty(t, b.criteria.AssignedTo)
}

func TestPartialLoadShowsError(t *testing.T) {
	store := newFakeStore(sampleTasks()...)
	store.tagErr = errors.New("no tags")
	b := newTestBoard(t, store, alice)

	view := b.View()
	assert.Contains(t, view, "TagError: no tags")
	assert.Contains(t, view, "Fix login")
}

func TestRefreshKeyRefetches(t *testing.T) {
	store := newFakeStore(sampleTasks()...)
	b := newTestBoard(t, store, alice)

	press(t, b, "r")
	assert.Equal(t, 2, store.fetchCount())

	_, cmd := b.Update(ReloadMsg{})
	run(t, b, cmd)
	assert.Equal(t, 3, store.fetchCount())
}

func TestDetailView(t *testing.T) {
	tasks := sampleTasks()
	tasks[0].Description = "Users cannot sign in."
	store := newFakeStore(tasks...)
	b := newTestBoard(t, store, alice)

	_, _ = b.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, viewDetail, b.view)
	view := b.View()
	assert.Contains(t, view, "aaaaaaaa-1")
	assert.Contains(t, view, "overdue")
	assert.Contains(t, view, "cannot")

	_, _ = b.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, viewBoard, b.view)
}

func TestWrapTitle(t *testing.T) {
	assert.Equal(t, []string{"short"}, wrapTitle("short", 10, 2))
	assert.Equal(t, []string{"one two", "three four"}, wrapTitle("one two three four", 10, 2))
	assert.Equal(t, []string{"one two", "three f..."}, wrapTitle("one two three four five", 10, 2))
	assert.Equal(t, []string{"one two..."}, wrapTitle("one two three four", 10, 1))
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "<1m", humanDuration(10*time.Second))
	assert.Equal(t, "5m", humanDuration(5*time.Minute))
	assert.Equal(t, "3h", humanDuration(3*time.Hour))
	assert.Equal(t, "2d", humanDuration(48*time.Hour))
	assert.Equal(t, "2w", humanDuration(15*24*time.Hour))
	assert.Equal(t, "1d", humanDuration(-24*time.Hour))
}

func TestCycleHelpers(t *testing.T) {
	assert.Equal(t, task.High, cyclePriority(""))
	assert.Equal(t, task.Low, cyclePriority(task.Medium))
	assert.Equal(t, task.Priority(""), cyclePriority(task.Low))

	assert.Equal(t, "a", cycleString("", []string{"a", "b"}))
	assert.Equal(t, "b", cycleString("a", []string{"a", "b"}))
	assert.Equal(t, "", cycleString("b", []string{"a", "b"}))
	assert.Equal(t, "", cycleString("", nil))
}
