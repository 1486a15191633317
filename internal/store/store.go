// Package store is a small table-scoped client over a relational backend.
//
// Callers build queries with From(table) and chain equality and
// set-membership filters before executing them:
//
//	rows, err := client.From("tasks").Select("id", "title").Eq("status", "Todo").Rows(ctx)
//
// Every backend failure is returned as *Error.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors. They are always wrapped in *Error.
var (
	ErrNotFound     = errors.New("no rows")
	ErrMultipleRows = errors.New("more than one row")
	ErrUnfiltered   = errors.New("refusing to modify a table without filters")
)

// Error is a failure reported by the store.
type Error struct {
	Op    string
	Table string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Tables names the three tables the task tracker uses.
type Tables struct {
	Tasks string `yaml:"tasks" json:"tasks"`
	Users string `yaml:"users" json:"users"`
	Tags  string `yaml:"tags" json:"tags"`
}

// DefaultTables mirrors the hosted schema.
func DefaultTables() Tables {
	return Tables{Tasks: "tasks", Users: "User", Tags: "tags"}
}

// FilterOp is a filter comparison.
type FilterOp int

// Filter operations.
const (
	OpEq FilterOp = iota
	OpIn
)

// Filter restricts a query to rows whose column matches.
type Filter struct {
	Column string
	Op     FilterOp
	Values []any
}

// Query is the backend-neutral description of a statement.
type Query struct {
	Table   string
	Columns []string
	Filters []Filter
}

// Empty reports whether a set filter with no values makes the query match nothing.
func (q Query) Empty() bool {
	for _, f := range q.Filters {
		if f.Op == OpIn && len(f.Values) == 0 {
			return true
		}
	}
	return false
}

// Backend executes queries against a concrete database.
type Backend interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, rows []Row) ([]Row, error)
	Update(ctx context.Context, q Query, values Row) (int64, error)
	Delete(ctx context.Context, q Query) (int64, error)
	EnsureSchema(ctx context.Context, tables Tables) error
	Close() error
}

// Client is the entry point for table operations. It is safe for concurrent use.
type Client struct {
	backend Backend
}

// New creates a Client over backend.
func New(backend Backend) *Client {
	return &Client{backend: backend}
}

// From starts a query on table.
func (c *Client) From(table string) Builder {
	return Builder{backend: c.backend, q: Query{Table: table}}
}

// EnsureSchema creates the tables if they do not exist.
func (c *Client) EnsureSchema(ctx context.Context, tables Tables) error {
	if err := c.backend.EnsureSchema(ctx, tables); err != nil {
		return &Error{Op: "schema", Table: tables.Tasks, Err: err}
	}
	return nil
}

// Close releases the backend's connections.
func (c *Client) Close() error {
	return c.backend.Close()
}
