package taskdata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

type fakeFetcher struct {
	mu       sync.Mutex
	tasks    []*task.Task
	users    []task.User
	tags     []string
	taskErr  error
	userErr  error
	tagErr   error
	calls    atomic.Int32
	hook     func(call int32) // runs inside GetTasks before returning
	tasksFor func(call int32) []*task.Task
}

func (f *fakeFetcher) GetTasks(ctx context.Context) ([]*task.Task, error) {
	call := f.calls.Add(1)
	if f.hook != nil {
		f.hook(call)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.taskErr != nil {
		return nil, f.taskErr
	}
	if f.tasksFor != nil {
		return f.tasksFor(call), nil
	}
	return f.tasks, nil
}

func (f *fakeFetcher) GetUsers(ctx context.Context) ([]task.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users, f.userErr
}

func (f *fakeFetcher) GetTags(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tags, f.tagErr
}

func sampleFetcher() *fakeFetcher {
	return &fakeFetcher{
		tasks: []*task.Task{{ID: "t1", Title: "one", Status: task.Todo}},
		users: []task.User{{ID: "u1", Name: "Ann"}},
		tags:  []string{"bug", "ui"},
	}
}

var alice = &session.Session{UserID: "u1", UserName: "Ann"}

func TestLoaderStartsIdle(t *testing.T) {
	f := sampleFetcher()
	l := New(f)

	snap := l.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Empty(t, snap.Tasks)
	assert.NotNil(t, snap.Tasks)
	assert.Zero(t, f.calls.Load())
}

func TestRefetchWithoutSessionIsNoop(t *testing.T) {
	f := sampleFetcher()
	l := New(f)

	snap := l.Refetch(context.Background())
	assert.Equal(t, Idle, snap.State)
	assert.Zero(t, f.calls.Load())
}

func TestSetSessionLoadsEverything(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	l := New(sampleFetcher(), WithClock(func() time.Time { return now }))

	snap := l.SetSession(context.Background(), alice)
	assert.Equal(t, Ready, snap.State)
	assert.False(t, snap.Loading)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "t1", snap.Tasks[0].ID)
	assert.Equal(t, []string{"bug", "ui"}, snap.Tags)
	assert.Empty(t, snap.Errors)
	assert.Equal(t, now, snap.FetchedAt)
	assert.Equal(t, "u1", snap.Session.UserID)

	u, ok := snap.UserByID("u1")
	assert.True(t, ok)
	assert.Equal(t, "Ann", u.Name)
}

func TestSetSessionSameUserDoesNotRefetch(t *testing.T) {
	f := sampleFetcher()
	l := New(f)

	l.SetSession(context.Background(), alice)
	l.SetSession(context.Background(), &session.Session{UserID: "u1"})
	assert.Equal(t, int32(1), f.calls.Load())

	l.SetSession(context.Background(), &session.Session{UserID: "u2"})
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestClearingSessionResetsToIdle(t *testing.T) {
	l := New(sampleFetcher())
	l.SetSession(context.Background(), alice)

	snap := l.SetSession(context.Background(), nil)
	assert.Equal(t, Idle, snap.State)
	assert.Nil(t, snap.Session)
	assert.Empty(t, snap.Tasks)
	assert.Empty(t, snap.Users)
}

func TestPartialFailureIsolatesCollections(t *testing.T) {
	f := sampleFetcher()
	f.userErr = errors.New("users down")
	logger, hook := logtest.NewNullLogger()
	l := New(f, WithLogger(logger))

	snap := l.SetSession(context.Background(), alice)
	assert.Equal(t, Partial, snap.State)
	assert.Len(t, snap.Tasks, 1)
	assert.Len(t, snap.Tags, 2)
	assert.Empty(t, snap.Users)

	require.Len(t, snap.Errors, 1)
	loadErr := snap.Err(Users)
	require.NotNil(t, loadErr)
	assert.Equal(t, "UserError: users down", loadErr.Error())
	assert.Nil(t, snap.Err(Tasks))

	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, "User", hook.LastEntry().Data["collection"])
}

func TestAllCollectionsFail(t *testing.T) {
	f := sampleFetcher()
	f.taskErr = errors.New("a")
	f.userErr = errors.New("b")
	f.tagErr = errors.New("c")
	l := New(f)

	snap := l.SetSession(context.Background(), alice)
	assert.Equal(t, Partial, snap.State)
	require.Len(t, snap.Errors, 3)
	assert.Equal(t, "TaskError: a", snap.Errors[0].Error())
	assert.Equal(t, "UserError: b", snap.Errors[1].Error())
	assert.Equal(t, "TagError: c", snap.Errors[2].Error())
}

func TestRecoveryClearsErrors(t *testing.T) {
	f := sampleFetcher()
	f.tagErr = errors.New("tags down")
	l := New(f)
	l.SetSession(context.Background(), alice)

	f.mu.Lock()
	f.tagErr = nil
	f.mu.Unlock()

	snap := l.Refetch(context.Background())
	assert.Equal(t, Ready, snap.State)
	assert.Empty(t, snap.Errors)
	assert.Len(t, snap.Tags, 2)
}

func TestStaleRefetchIsDropped(t *testing.T) {
	f := sampleFetcher()
	started := make(chan struct{})
	release := make(chan struct{})
	f.hook = func(call int32) {
		if call == 2 {
			close(started)
			<-release
		}
	}
	f.tasksFor = func(call int32) []*task.Task {
		return []*task.Task{{ID: map[int32]string{1: "initial", 2: "stale", 3: "fresh"}[call]}}
	}
	l := New(f)
	l.SetSession(context.Background(), alice)

	var slow Snapshot
	done := make(chan struct{})
	go func() {
		slow = l.Refetch(context.Background())
		close(done)
	}()
	<-started

	fresh := l.Refetch(context.Background())
	require.Len(t, fresh.Tasks, 1)
	assert.Equal(t, "fresh", fresh.Tasks[0].ID)

	close(release)
	<-done

	assert.Equal(t, fresh.Generation, slow.Generation)
	final := l.Snapshot()
	require.Len(t, final.Tasks, 1)
	assert.Equal(t, "fresh", final.Tasks[0].ID)
	assert.Equal(t, Ready, final.State)
}

func TestSignOutDropsInflightRefetch(t *testing.T) {
	f := sampleFetcher()
	started := make(chan struct{})
	release := make(chan struct{})
	f.hook = func(call int32) {
		if call == 2 {
			close(started)
			<-release
		}
	}
	l := New(f)
	l.SetSession(context.Background(), alice)

	done := make(chan struct{})
	go func() {
		l.Refetch(context.Background())
		close(done)
	}()
	<-started
	l.SetSession(context.Background(), nil)
	close(release)
	<-done

	snap := l.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Empty(t, snap.Tasks)
}

func TestCanceledRefetchKeepsPreviousData(t *testing.T) {
	f := sampleFetcher()
	l := New(f)
	l.SetSession(context.Background(), alice)

	ctx, cancel := context.WithCancel(context.Background())
	f.hook = func(call int32) { cancel() }
	f.tasksFor = func(int32) []*task.Task { return nil }

	snap := l.Refetch(ctx)
	assert.Equal(t, Ready, snap.State)
	assert.False(t, snap.Loading)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "t1", snap.Tasks[0].ID)
}

func TestSubscribeSeesLoadingThenReady(t *testing.T) {
	l := New(sampleFetcher())
	var states []State
	unsubscribe := l.Subscribe(func(s Snapshot) { states = append(states, s.State) })

	l.SetSession(context.Background(), alice)
	assert.Equal(t, []State{Loading, Ready}, states)

	unsubscribe()
	l.Refetch(context.Background())
	assert.Len(t, states, 2)
}

func TestMutateRefetchesOnSuccessOnly(t *testing.T) {
	f := sampleFetcher()
	l := New(f)
	l.SetSession(context.Background(), alice)

	_, err := l.Mutate(context.Background(), func(context.Context) error { return errors.New("nope") })
	require.Error(t, err)
	assert.Equal(t, int32(1), f.calls.Load())

	_, err = l.Mutate(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestSnapshotIsACopy(t *testing.T) {
	l := New(sampleFetcher())
	l.SetSession(context.Background(), alice)

	snap := l.Snapshot()
	snap.Tags[0] = "changed"
	assert.Equal(t, "bug", l.Snapshot().Tags[0])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "partial", Partial.String())
	assert.Equal(t, "unknown", State(42).String())
}
