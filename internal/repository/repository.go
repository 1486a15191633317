// Package repository implements the task tracker's data access on top of
// the store client: typed reads with assignee enrichment, and the task and
// profile mutations. It never retries; callers refetch after mutating.
package repository

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/twiced-technology-gmbh/taskboard/internal/logging"
	"github.com/twiced-technology-gmbh/taskboard/internal/store"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
)

// Column names. They match the hosted schema, including its camelCase.
const (
	colID          = "id"
	colTitle       = "title"
	colDescription = "description"
	colPriority    = "priority"
	colStatus      = "status"
	colDeadline    = "deadline"
	colAssignedTo  = "assignedTo"
	colTags        = "tags"
	colCreatedAt   = "createdAt"

	colName  = "name"
	colImage = "image"
)

// ProfileCache is the optional cache consulted before the user table
// during enrichment.
type ProfileCache interface {
	GetMany(ctx context.Context, ids []string) (map[string]task.User, []string, error)
	SetMany(ctx context.Context, users []task.User) error
	Invalidate(ctx context.Context, id string) error
}

// Repository reads and writes tasks, users and tags.
type Repository struct {
	client *store.Client
	tables store.Tables
	cache  ProfileCache
	log    log.FieldLogger
	now    func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used for enrichment misses and cache failures.
func WithLogger(l log.FieldLogger) Option {
	return func(r *Repository) { r.log = l }
}

// WithProfileCache enables the assignee profile cache.
func WithProfileCache(c ProfileCache) Option {
	return func(r *Repository) { r.cache = c }
}

// WithClock overrides the time source for createdAt.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// New creates a Repository over client.
func New(client *store.Client, tables store.Tables, opts ...Option) *Repository {
	r := &Repository{
		client: client,
		tables: tables,
		log:    logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
