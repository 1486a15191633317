package taskdata

import (
	"time"

	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

// State is the loader's lifecycle state.
type State int

// States.
const (
	Idle    State = iota // no session
	Loading              // a refetch is in flight
	Ready                // last refetch fully succeeded
	Partial              // last refetch succeeded for some collections
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Partial:
		return "partial"
	}
	return "unknown"
}

// Collection names one of the three loaded collections.
type Collection string

// Collections.
const (
	Tasks Collection = "Task"
	Users Collection = "User"
	Tags  Collection = "Tag"
)

// LoadError reports that one collection failed to load while the others
// may have succeeded.
type LoadError struct {
	Collection Collection
	Err        error
}

func (e *LoadError) Error() string {
	return string(e.Collection) + "Error: " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Snapshot is a point-in-time copy of the loader's state.
type Snapshot struct {
	State      State
	Session    *session.Session
	Tasks      []*task.Task
	Users      []task.User
	Tags       []string
	Loading    bool
	Errors     []*LoadError
	Generation uint64
	FetchedAt  time.Time
}

// Err returns the load error for c, or nil.
func (s Snapshot) Err(c Collection) *LoadError {
	for _, e := range s.Errors {
		if e.Collection == c {
			return e
		}
	}
	return nil
}

// UserByID returns the loaded user with id.
func (s Snapshot) UserByID(id string) (task.User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return task.User{}, false
}

func (s Snapshot) clone() Snapshot {
	c := s
	c.Tasks = append([]*task.Task{}, s.Tasks...)
	c.Users = append([]task.User{}, s.Users...)
	c.Tags = append([]string{}, s.Tags...)
	c.Errors = append([]*LoadError(nil), s.Errors...)
	return c
}

func emptySnapshot(state State) Snapshot {
	return Snapshot{
		State: state,
		Tasks: []*task.Task{},
		Users: []task.User{},
		Tags:  []string{},
	}
}
