// Package taskdata loads the board's tasks, users and tags once a session
// is present and reloads them on demand. The three collections are fetched
// concurrently and fail independently. Only the most recently issued
// refetch may update the data; slower, older results are dropped.
package taskdata

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/twiced-technology-gmbh/taskboard/internal/logging"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

// Fetcher reads the three collections. The repository implements it.
type Fetcher interface {
	GetTasks(ctx context.Context) ([]*task.Task, error)
	GetUsers(ctx context.Context) ([]task.User, error)
	GetTags(ctx context.Context) ([]string, error)
}

// Loader holds the latest applied data and coordinates refetches.
// It is safe for concurrent use.
type Loader struct {
	fetcher Fetcher
	log     log.FieldLogger
	now     func() time.Time

	issued atomic.Uint64

	mu        sync.Mutex
	snap      Snapshot
	settled   State
	subs      map[int]func(Snapshot)
	nextSubID int
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger for load failures and dropped results.
func WithLogger(l log.FieldLogger) Option {
	return func(ld *Loader) { ld.log = l }
}

// WithClock overrides the time source for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(ld *Loader) { ld.now = now }
}

// New creates an idle Loader.
func New(f Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetcher: f,
		log:     logging.Discard(),
		now:     time.Now,
		subs:    map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.snap = emptySnapshot(Idle)
	l.settled = Idle
	return l
}

// Snapshot returns a copy of the current state.
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap.clone()
}

// Subscribe registers fn to receive every state change. The returned
// function unregisters it.
func (l *Loader) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	l.mu.Lock()
	id := l.nextSubID
	l.nextSubID++
	l.subs[id] = fn
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

// SetSession records the signed-in user. Going from no session (or a
// different user) to a session triggers a fetch. A nil session returns the
// loader to Idle, clears the data and drops any fetch in flight.
func (l *Loader) SetSession(ctx context.Context, s *session.Session) Snapshot {
	l.mu.Lock()
	prev := l.snap.Session
	if s == nil {
		gen := l.issued.Add(1)
		l.snap = emptySnapshot(Idle)
		l.snap.Generation = gen
		l.settled = Idle
		snap := l.publishLocked()
		return snap
	}
	l.snap.Session = s
	if prev != nil && prev.UserID == s.UserID {
		snap := l.snap.clone()
		l.mu.Unlock()
		return snap
	}
	l.mu.Unlock()
	return l.Refetch(ctx)
}

// Refetch reloads all three collections and returns the resulting state.
// Without a session it does nothing. If a newer refetch was issued while
// this one ran, or ctx was canceled, the result is dropped and the current
// state is returned.
func (l *Loader) Refetch(ctx context.Context) Snapshot {
	l.mu.Lock()
	if l.snap.Session == nil {
		snap := l.snap.clone()
		l.mu.Unlock()
		return snap
	}
	gen := l.issued.Add(1)
	l.snap.Loading = true
	l.snap.State = Loading
	l.publishLocked()

	res := l.fetch(ctx)

	l.mu.Lock()
	if gen != l.issued.Load() {
		l.log.WithFields(log.Fields{"generation": gen, "latest": l.issued.Load()}).
			Debug("dropping stale refetch result")
		snap := l.snap.clone()
		l.mu.Unlock()
		return snap
	}
	if ctx.Err() != nil {
		l.snap.Loading = false
		l.snap.State = l.settled
		return l.publishLocked()
	}

	l.apply(gen, res)
	return l.publishLocked()
}

// Mutate runs fn and, when it succeeds, refetches. Local data is never
// patched; the board always shows what the store returned.
func (l *Loader) Mutate(ctx context.Context, fn func(context.Context) error) (Snapshot, error) {
	if err := fn(ctx); err != nil {
		return l.Snapshot(), err
	}
	return l.Refetch(ctx), nil
}

type result struct {
	tasks []*task.Task
	users []task.User
	tags  []string
	errs  map[Collection]error
}

func (l *Loader) fetch(ctx context.Context) result {
	var (
		res result
		mu  sync.Mutex
		g   errgroup.Group
	)
	res.errs = map[Collection]error{}
	record := func(c Collection, err error) {
		if err == nil {
			return
		}
		mu.Lock()
		res.errs[c] = err
		mu.Unlock()
	}

	// Each fetch records its own failure and returns nil so the others
	// always run to completion.
	g.Go(func() error {
		tasks, err := l.fetcher.GetTasks(ctx)
		res.tasks = tasks
		record(Tasks, err)
		return nil
	})
	g.Go(func() error {
		users, err := l.fetcher.GetUsers(ctx)
		res.users = users
		record(Users, err)
		return nil
	})
	g.Go(func() error {
		tags, err := l.fetcher.GetTags(ctx)
		res.tags = tags
		record(Tags, err)
		return nil
	})
	_ = g.Wait()
	return res
}

func (l *Loader) apply(gen uint64, res result) {
	s := &l.snap
	s.Generation = gen
	s.Loading = false
	s.FetchedAt = l.now()
	s.Errors = nil

	s.Tasks = res.tasks
	s.Users = res.users
	s.Tags = res.tags
	for _, c := range []Collection{Tasks, Users, Tags} {
		err, failed := res.errs[c]
		if !failed {
			continue
		}
		l.log.WithError(err).WithField("collection", string(c)).Warn("load failed")
		s.Errors = append(s.Errors, &LoadError{Collection: c, Err: err})
		switch c {
		case Tasks:
			s.Tasks = nil
		case Users:
			s.Users = nil
		case Tags:
			s.Tags = nil
		}
	}
	if s.Tasks == nil {
		s.Tasks = []*task.Task{}
	}
	if s.Users == nil {
		s.Users = []task.User{}
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}

	s.State = Ready
	if len(s.Errors) > 0 {
		s.State = Partial
	}
	l.settled = s.State
}

// publishLocked copies the snapshot, releases the lock and notifies
// subscribers outside it.
func (l *Loader) publishLocked() Snapshot {
	snap := l.snap.clone()
	subs := make([]func(Snapshot), 0, len(l.subs))
	for _, fn := range l.subs {
		subs = append(subs, fn)
	}
	l.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
	return snap
}
