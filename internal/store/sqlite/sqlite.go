// Package sqlite implements the store backend on a local SQLite file via gorm.
// Lists are stored as JSON text and rows without an id get a random UUID.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/twiced-technology-gmbh/taskboard/internal/store"
)

// Backend runs store queries through gorm.
type Backend struct {
	db *gorm.DB
}

// Open opens (or creates) the database at path. Use ":memory:" for a
// throwaway database.
func Open(path string) (*Backend, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases shared and writes serialized.
	sqlDB.SetMaxOpenConns(1)
	return New(db), nil
}

// New wraps an existing gorm handle.
func New(db *gorm.DB) *Backend {
	return &Backend{db: db}
}

func (b *Backend) Select(ctx context.Context, q store.Query) ([]store.Row, error) {
	tx := b.db.WithContext(ctx).Table(q.Table)
	if len(q.Columns) > 0 {
		tx = tx.Select(q.Columns)
	}
	if conds := where(q.Filters); len(conds) > 0 {
		tx = tx.Where(clause.And(conds...))
	}
	var found []map[string]any
	if err := tx.Find(&found).Error; err != nil {
		return nil, err
	}
	out := make([]store.Row, len(found))
	for i, m := range found {
		out[i] = store.Row(m)
	}
	return out, nil
}

// Insert writes each row in one transaction and reads them back by id.
func (b *Backend) Insert(ctx context.Context, table string, rows []store.Row) ([]store.Row, error) {
	ids := make([]any, 0, len(rows))
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range rows {
			values, err := encode(r)
			if err != nil {
				return err
			}
			if id, ok := values["id"]; !ok || id == nil || id == "" {
				values["id"] = uuid.NewString()
			}
			if err := tx.Table(table).Create(values).Error; err != nil {
				return err
			}
			ids = append(ids, values["id"])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	selected, err := b.Select(ctx, store.Query{
		Table:   table,
		Filters: []store.Filter{{Column: "id", Op: store.OpIn, Values: ids}},
	})
	if err != nil {
		return nil, err
	}

	// Select returns rows in key order; hand them back in insert order.
	byID := make(map[string]store.Row, len(selected))
	for _, r := range selected {
		byID[r.String("id")] = r
	}
	out := make([]store.Row, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[fmt.Sprint(id)]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *Backend) Update(ctx context.Context, q store.Query, values store.Row) (int64, error) {
	encoded, err := encode(values)
	if err != nil {
		return 0, err
	}
	res := b.db.WithContext(ctx).Table(q.Table).
		Where(clause.And(where(q.Filters)...)).
		Updates(encoded)
	return res.RowsAffected, res.Error
}

func (b *Backend) Delete(ctx context.Context, q store.Query) (int64, error) {
	res := b.db.WithContext(ctx).Table(q.Table).
		Where(clause.And(where(q.Filters)...)).
		Delete(map[string]any{})
	return res.RowsAffected, res.Error
}

// EnsureSchema creates the task, user and tag tables if they don't exist.
func (b *Backend) EnsureSchema(ctx context.Context, tables store.Tables) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ? (
			id    TEXT PRIMARY KEY,
			name  TEXT NOT NULL DEFAULT '',
			image TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ? (
			name TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS ? (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			priority    TEXT NOT NULL DEFAULT 'Medium',
			status      TEXT NOT NULL DEFAULT 'Todo',
			deadline    DATETIME,
			assignedTo  TEXT,
			tags        TEXT NOT NULL DEFAULT '[]',
			createdAt   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	names := []string{tables.Users, tables.Tags, tables.Tasks}
	for i, stmt := range stmts {
		if err := b.db.WithContext(ctx).Exec(stmt, clause.Table{Name: names[i]}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func where(filters []store.Filter) []clause.Expression {
	conds := make([]clause.Expression, 0, len(filters))
	for _, f := range filters {
		col := clause.Column{Name: f.Column}
		switch f.Op {
		case store.OpIn:
			conds = append(conds, clause.IN{Column: col, Values: f.Values})
		default:
			var v any
			if len(f.Values) > 0 {
				v = f.Values[0]
			}
			conds = append(conds, clause.Eq{Column: col, Value: v})
		}
	}
	return conds
}

// encode converts list values to JSON text since SQLite has no array type.
func encode(r store.Row) (map[string]any, error) {
	out := make(map[string]any, len(r))
	for k, v := range r {
		switch v.(type) {
		case []string, []any:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", k, err)
			}
			out[k] = string(b)
		default:
			out[k] = v
		}
	}
	return out, nil
}
