package store

import "context"

// Builder accumulates a query. Each method returns a new Builder, so a
// partially built query can be reused.
type Builder struct {
	backend Backend
	q       Query
}

// Select restricts the returned columns. No columns means all of them.
func (b Builder) Select(columns ...string) Builder {
	b.q.Columns = append(append([]string(nil), b.q.Columns...), columns...)
	return b
}

// Eq adds a column = value filter.
func (b Builder) Eq(column string, value any) Builder {
	return b.with(Filter{Column: column, Op: OpEq, Values: []any{value}})
}

// In adds a column IN (values) filter. An empty set matches nothing.
func (b Builder) In(column string, values ...any) Builder {
	return b.with(Filter{Column: column, Op: OpIn, Values: append([]any{}, values...)})
}

func (b Builder) with(f Filter) Builder {
	b.q.Filters = append(append([]Filter(nil), b.q.Filters...), f)
	return b
}

// Query returns the accumulated query description.
func (b Builder) Query() Query { return b.q }

// Rows runs the query and returns every matching row.
func (b Builder) Rows(ctx context.Context) ([]Row, error) {
	if b.q.Empty() {
		return []Row{}, nil
	}
	rows, err := b.backend.Select(ctx, b.q)
	if err != nil {
		return nil, b.fail("select", err)
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

// Single runs the query and expects exactly one row.
func (b Builder) Single(ctx context.Context) (Row, error) {
	rows, err := b.Rows(ctx)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, b.fail("select", ErrNotFound)
	case 1:
		return rows[0], nil
	}
	return nil, b.fail("select", ErrMultipleRows)
}

// Insert writes rows and returns them as stored, including generated columns.
func (b Builder) Insert(ctx context.Context, rows ...Row) ([]Row, error) {
	if len(rows) == 0 {
		return []Row{}, nil
	}
	out, err := b.backend.Insert(ctx, b.q.Table, rows)
	if err != nil {
		return nil, b.fail("insert", err)
	}
	return out, nil
}

// Update overwrites the given columns on every matching row.
func (b Builder) Update(ctx context.Context, values Row) (int64, error) {
	if len(b.q.Filters) == 0 {
		return 0, b.fail("update", ErrUnfiltered)
	}
	if b.q.Empty() {
		return 0, nil
	}
	n, err := b.backend.Update(ctx, b.q, values)
	if err != nil {
		return 0, b.fail("update", err)
	}
	return n, nil
}

// Delete removes every matching row.
func (b Builder) Delete(ctx context.Context) (int64, error) {
	if len(b.q.Filters) == 0 {
		return 0, b.fail("delete", ErrUnfiltered)
	}
	if b.q.Empty() {
		return 0, nil
	}
	n, err := b.backend.Delete(ctx, b.q)
	if err != nil {
		return 0, b.fail("delete", err)
	}
	return n, nil
}

func (b Builder) fail(op string, err error) error {
	return &Error{Op: op, Table: b.q.Table, Err: err}
}
