// Package storetest provides an in-memory store backend for tests.
package storetest

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/taskboard/internal/store"
)

// Backend keeps tables in memory. Failures can be injected per table and
// operation, and every executed query is recorded.
type Backend struct {
	mu      sync.Mutex
	tables  map[string][]store.Row
	fail    map[string]error
	queries []store.Query
}

// New returns an empty Backend.
func New() *Backend {
	return &Backend{
		tables: make(map[string][]store.Row),
		fail:   make(map[string]error),
	}
}

// Seed appends rows to table without recording a query.
func (b *Backend) Seed(table string, rows ...store.Row) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range rows {
		b.tables[table] = append(b.tables[table], clone(r))
	}
}

// Fail makes op ("select", "insert", "update", "delete") on table return err.
func (b *Backend) Fail(table, op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[table+"/"+op] = err
}

// Table returns a copy of every row in table.
func (b *Backend) Table(table string) []store.Row {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]store.Row, len(b.tables[table]))
	for i, r := range b.tables[table] {
		out[i] = clone(r)
	}
	return out
}

// Queries returns the select queries executed so far.
func (b *Backend) Queries() []store.Query {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]store.Query(nil), b.queries...)
}

// SelectCount returns how many selects ran against table.
func (b *Backend) SelectCount(table string) int {
	n := 0
	for _, q := range b.Queries() {
		if q.Table == table {
			n++
		}
	}
	return n
}

func (b *Backend) Select(_ context.Context, q store.Query) ([]store.Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries = append(b.queries, q)
	if err := b.fail[q.Table+"/select"]; err != nil {
		return nil, err
	}
	var out []store.Row
	for _, r := range b.tables[q.Table] {
		if !matches(r, q.Filters) {
			continue
		}
		out = append(out, project(r, q.Columns))
	}
	return out, nil
}

func (b *Backend) Insert(_ context.Context, table string, rows []store.Row) ([]store.Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fail[table+"/insert"]; err != nil {
		return nil, err
	}
	out := make([]store.Row, 0, len(rows))
	for _, r := range rows {
		stored := clone(r)
		if _, ok := stored["id"]; !ok {
			stored["id"] = uuid.NewString()
		}
		b.tables[table] = append(b.tables[table], stored)
		out = append(out, clone(stored))
	}
	return out, nil
}

func (b *Backend) Update(_ context.Context, q store.Query, values store.Row) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fail[q.Table+"/update"]; err != nil {
		return 0, err
	}
	var n int64
	for _, r := range b.tables[q.Table] {
		if !matches(r, q.Filters) {
			continue
		}
		for k, v := range values {
			r[k] = v
		}
		n++
	}
	return n, nil
}

func (b *Backend) Delete(_ context.Context, q store.Query) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fail[q.Table+"/delete"]; err != nil {
		return 0, err
	}
	kept := b.tables[q.Table][:0]
	var n int64
	for _, r := range b.tables[q.Table] {
		if matches(r, q.Filters) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	b.tables[q.Table] = kept
	return n, nil
}

func (b *Backend) EnsureSchema(context.Context, store.Tables) error { return nil }

func (b *Backend) Close() error { return nil }

func matches(r store.Row, filters []store.Filter) bool {
	for _, f := range filters {
		found := false
		for _, v := range f.Values {
			if equal(r[f.Column], v) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	return a != nil && b != nil && fmt.Sprint(a) == fmt.Sprint(b)
}

func project(r store.Row, columns []string) store.Row {
	if len(columns) == 0 {
		return clone(r)
	}
	out := make(store.Row, len(columns))
	for _, c := range columns {
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out
}

func clone(r store.Row) store.Row {
	out := make(store.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
