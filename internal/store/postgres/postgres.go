// Package postgres implements the store backend on PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/twiced-technology-gmbh/taskboard/internal/store"
)

// Backend runs store queries on a pgx connection pool.
type Backend struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(pool), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Backend {
	return &Backend{pool: pool}
}

func (b *Backend) Select(ctx context.Context, q store.Query) ([]store.Row, error) {
	sql, args := buildSelect(q)
	rows, err := b.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]store.Row, len(maps))
	for i, m := range maps {
		out[i] = store.Row(m)
	}
	return out, nil
}

func (b *Backend) Insert(ctx context.Context, table string, rows []store.Row) ([]store.Row, error) {
	sql, args := buildInsert(table, rows)
	res, err := b.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(res, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]store.Row, len(maps))
	for i, m := range maps {
		out[i] = store.Row(m)
	}
	return out, nil
}

func (b *Backend) Update(ctx context.Context, q store.Query, values store.Row) (int64, error) {
	sql, args := buildUpdate(q, values)
	tag, err := b.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (b *Backend) Delete(ctx context.Context, q store.Query) (int64, error) {
	sql, args := buildDelete(q)
	tag, err := b.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// EnsureSchema creates the task, user and tag tables if they don't exist.
func (b *Backend) EnsureSchema(ctx context.Context, tables store.Tables) error {
	for _, stmt := range schema(tables) {
		if _, err := b.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}

func schema(t store.Tables) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + ident(t.Users) + ` (
			id    TEXT PRIMARY KEY,
			name  TEXT NOT NULL DEFAULT '',
			image TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ` + ident(t.Tags) + ` (
			name TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS ` + ident(t.Tasks) + ` (
			id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			priority     TEXT NOT NULL DEFAULT 'Medium',
			status       TEXT NOT NULL DEFAULT 'Todo',
			deadline     TIMESTAMPTZ,
			"assignedTo" TEXT,
			tags         TEXT[] NOT NULL DEFAULT '{}',
			"createdAt"  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS ` + ident(t.Tasks+"_status_idx") + ` ON ` + ident(t.Tasks) + `(status)`,
	}
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func buildSelect(q store.Query) (string, []any) {
	cols := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			quoted[i] = ident(c)
		}
		cols = strings.Join(quoted, ", ")
	}
	where, args := buildWhere(q.Filters, nil)
	return "SELECT " + cols + " FROM " + ident(q.Table) + where, args
}

// buildInsert writes one multi-row statement. Columns are the sorted union
// of every row's keys; a row lacking a column gets DEFAULT.
func buildInsert(table string, rows []store.Row) (string, []any) {
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = ident(c)
	}

	var args []any
	tuples := make([]string, len(rows))
	for i, r := range rows {
		vals := make([]string, len(cols))
		for j, c := range cols {
			v, ok := r[c]
			if !ok {
				vals[j] = "DEFAULT"
				continue
			}
			args = append(args, v)
			vals[j] = fmt.Sprintf("$%d", len(args))
		}
		tuples[i] = "(" + strings.Join(vals, ", ") + ")"
	}

	sql := "INSERT INTO " + ident(table)
	if len(cols) == 0 {
		return sql + " DEFAULT VALUES RETURNING *", nil
	}
	sql += " (" + strings.Join(quoted, ", ") + ") VALUES " + strings.Join(tuples, ", ") + " RETURNING *"
	return sql, args
}

func buildUpdate(q store.Query, values store.Row) (string, []any) {
	cols := make([]string, 0, len(values))
	for k := range values {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	args := make([]any, 0, len(values))
	sets := make([]string, len(cols))
	for i, c := range cols {
		args = append(args, values[c])
		sets[i] = fmt.Sprintf("%s = $%d", ident(c), len(args))
	}
	where, args := buildWhere(q.Filters, args)
	return "UPDATE " + ident(q.Table) + " SET " + strings.Join(sets, ", ") + where, args
}

func buildDelete(q store.Query) (string, []any) {
	where, args := buildWhere(q.Filters, nil)
	return "DELETE FROM " + ident(q.Table) + where, args
}

func buildWhere(filters []store.Filter, args []any) (string, []any) {
	if len(filters) == 0 {
		return "", args
	}
	conds := make([]string, len(filters))
	for i, f := range filters {
		switch f.Op {
		case store.OpIn:
			args = append(args, arrayArg(f.Values))
			conds[i] = fmt.Sprintf("%s = ANY($%d)", ident(f.Column), len(args))
		default:
			var v any
			if len(f.Values) > 0 {
				v = f.Values[0]
			}
			args = append(args, v)
			conds[i] = fmt.Sprintf("%s = $%d", ident(f.Column), len(args))
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// arrayArg narrows a value set to []string when possible so it encodes as text[].
func arrayArg(values []any) any {
	strs := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return values
		}
		strs = append(strs, s)
	}
	return strs
}
