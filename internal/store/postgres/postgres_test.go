package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/taskboard/internal/store"
)

func TestBuildSelect(t *testing.T) {
	sql, args := buildSelect(store.Query{
		Table:   "User",
		Columns: []string{"id", "name"},
		Filters: []store.Filter{
			{Column: "id", Op: store.OpIn, Values: []any{"u1", "u2"}},
		},
	})
	assert.Equal(t, `SELECT "id", "name" FROM "User" WHERE "id" = ANY($1)`, sql)
	require.Len(t, args, 1)
	assert.Equal(t, []string{"u1", "u2"}, args[0])

	sql, args = buildSelect(store.Query{Table: "tasks"})
	assert.Equal(t, `SELECT * FROM "tasks"`, sql)
	assert.Empty(t, args)
}

func TestBuildInsert(t *testing.T) {
	sql, args := buildInsert("tasks", []store.Row{
		{"title": "a", "assignedTo": "u1"},
		{"title": "b"},
	})
	assert.Equal(t,
		`INSERT INTO "tasks" ("assignedTo", "title") VALUES ($1, $2), (DEFAULT, $3) RETURNING *`, sql)
	assert.Equal(t, []any{"u1", "a", "b"}, args)
}

func TestBuildUpdate(t *testing.T) {
	sql, args := buildUpdate(store.Query{
		Table:   "tasks",
		Filters: []store.Filter{{Column: "id", Op: store.OpEq, Values: []any{"t1"}}},
	}, store.Row{"status": "Done", "deadline": nil})
	assert.Equal(t, `UPDATE "tasks" SET "deadline" = $1, "status" = $2 WHERE "id" = $3`, sql)
	assert.Equal(t, []any{nil, "Done", "t1"}, args)
}

func TestBuildDelete(t *testing.T) {
	sql, args := buildDelete(store.Query{
		Table:   "tasks",
		Filters: []store.Filter{{Column: "id", Op: store.OpEq, Values: []any{"t1"}}},
	})
	assert.Equal(t, `DELETE FROM "tasks" WHERE "id" = $1`, sql)
	assert.Equal(t, []any{"t1"}, args)
}

func TestIdentQuoting(t *testing.T) {
	assert.Equal(t, `"a""b"`, ident(`a"b`))
}

// TestRoundTrip runs against a live database when TASKBOARD_TEST_DSN is set.
func TestRoundTrip(t *testing.T) {
	dsn := os.Getenv("TASKBOARD_TEST_DSN")
	if dsn == "" {
		t.Skip("TASKBOARD_TEST_DSN not set")
	}
	ctx := context.Background()
	b, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer b.Close()

	tables := store.Tables{Tasks: "tb_test_tasks", Users: "tb_test_users", Tags: "tb_test_tags"}
	require.NoError(t, b.EnsureSchema(ctx, tables))
	t.Cleanup(func() {
		_, _ = b.pool.Exec(ctx, `DROP TABLE IF EXISTS "tb_test_tasks", "tb_test_users", "tb_test_tags"`)
	})

	c := store.New(b)
	rows, err := c.From(tables.Tasks).Insert(ctx, store.Row{"title": "pg", "tags": []string{"x"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	id := rows[0].String("id")
	assert.NotEmpty(t, id)
	assert.Equal(t, []string{"x"}, rows[0].Strings("tags"))

	n, err := c.From(tables.Tasks).Eq("id", id).Update(ctx, store.Row{"status": "Done"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	row, err := c.From(tables.Tasks).Eq("id", id).Single(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Done", row.String("status"))

	n, err = c.From(tables.Tasks).In("id", id).Delete(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
