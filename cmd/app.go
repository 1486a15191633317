package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/twiced-technology-gmbh/taskboard/internal/clierr"
	"github.com/twiced-technology-gmbh/taskboard/internal/config"
	"github.com/twiced-technology-gmbh/taskboard/internal/logging"
	"github.com/twiced-technology-gmbh/taskboard/internal/output"
	"github.com/twiced-technology-gmbh/taskboard/internal/profilecache"
	"github.com/twiced-technology-gmbh/taskboard/internal/repository"
	"github.com/twiced-technology-gmbh/taskboard/internal/session"
	"github.com/twiced-technology-gmbh/taskboard/internal/store"
	"github.com/twiced-technology-gmbh/taskboard/internal/store/postgres"
	"github.com/twiced-technology-gmbh/taskboard/internal/store/sqlite"
	"github.com/twiced-technology-gmbh/taskboard/internal/task"
	"github.com/twiced-technology-gmbh/taskboard/internal/taskdata"
)

// app holds the process-wide dependencies of a command: one store
// connection, an optional profile cache, and the loader built over them.
type app struct {
	cfg    *config.Config
	base   context.Context // signal-aware, without the store timeout
	log    *log.Logger
	client *store.Client
	cache  *profilecache.Cache
	repo   *repository.Repository
	loader *taskdata.Loader

	closeLog func() error
}

// runWithApp loads the config, connects, and runs fn under a context bounded
// by the store timeout.
func runWithApp(fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(base, cfg.Timeout())
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	a.base = base
	return fn(ctx, a)
}

// runWithBoard is runWithApp for commands that need the signed-in user and
// the loaded board.
func runWithBoard(fn func(ctx context.Context, a *app, s *session.Session, snap taskdata.Snapshot) error) error {
	return runWithApp(func(ctx context.Context, a *app) error {
		s, err := requireSession(a.cfg)
		if err != nil {
			return err
		}
		snap, err := a.loadBoard(ctx, s)
		if err != nil {
			return err
		}
		return fn(ctx, a, s, snap)
	})
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, closeLog, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, clierr.Wrap(clierr.InvalidInput, err, "configuring logging")
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		_ = closeLog()
		return nil, clierr.Wrap(clierr.InternalError, err, "connecting to "+cfg.Store.Driver+" store")
	}

	a := &app{
		cfg:      cfg,
		log:      logger,
		client:   store.New(backend),
		closeLog: closeLog,
	}

	repoOpts := []repository.Option{repository.WithLogger(logger)}
	if cfg.Cache.RedisURL != "" {
		cache, err := profilecache.Open(ctx, cfg.Cache.RedisURL, cfg.CacheTTL())
		if err != nil {
			// The cache only saves round-trips; run without it.
			logger.WithError(err).Warn("profile cache unavailable")
		} else {
			a.cache = cache
			repoOpts = append(repoOpts, repository.WithProfileCache(cache))
		}
	}

	a.repo = repository.New(a.client, cfg.Tables, repoOpts...)
	a.loader = taskdata.New(a.repo, taskdata.WithLogger(logger))
	return a, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.StoreDSN())
	case config.DriverSQLite:
		return sqlite.Open(cfg.StoreDSN())
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// Close releases the store, the cache and the log file.
func (a *app) Close() {
	if a.cache != nil {
		stats := a.cache.Stats()
		a.log.WithFields(log.Fields{
			"hits":   stats.Hits,
			"misses": stats.Misses,
		}).Debug("profile cache")
		if err := a.cache.Close(); err != nil {
			a.log.WithError(err).Debug("closing profile cache")
		}
	}
	if err := a.client.Close(); err != nil {
		a.log.WithError(err).Debug("closing store")
	}
	_ = a.closeLog()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// commandContext returns a context canceled on SIGINT/SIGTERM or after the
// configured store timeout.
func commandContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	ctx, stop := signalContext()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	return ctx, func() {
		cancel()
		stop()
	}
}

// storeContext starts a new store timeout for work that follows a wait on
// the user, so time spent at a prompt is not charged against it.
func (a *app) storeContext() (context.Context, context.CancelFunc) {
	base := a.base
	if base == nil {
		base = context.Background()
	}
	return context.WithTimeout(base, a.cfg.Timeout())
}

// requireSession returns the signed-in user or a NOT_SIGNED_IN error.
func requireSession(cfg *config.Config) (*session.Session, error) {
	s, err := session.Load(cfg.Dir())
	if errors.Is(err, session.ErrNoSession) {
		return nil, clierr.New(clierr.NotSignedIn, err.Error())
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// loadBoard signs the loader in and fetches everything. A failed task
// fetch is fatal; a failed user or tag fetch is reported on stderr and the
// rest of the data is still used.
func (a *app) loadBoard(ctx context.Context, s *session.Session) (taskdata.Snapshot, error) {
	snap := a.loader.SetSession(ctx, s)
	if err := ctx.Err(); err != nil {
		return snap, clierr.Wrap(clierr.TaskFetchFailed, err, "loading board")
	}
	if le := snap.Err(taskdata.Tasks); le != nil {
		return snap, le.Err
	}
	warnPartial(snap)
	return snap, nil
}

// mutate runs fn through the loader so the snapshot is refetched after a
// successful write.
func (a *app) mutate(ctx context.Context, fn func(context.Context) error) (taskdata.Snapshot, error) {
	snap, err := a.loader.Mutate(ctx, fn)
	if err != nil {
		return snap, err
	}
	warnPartial(snap)
	return snap, nil
}

// refetched returns task id from the snapshot read back after a write. When
// the refetch could not produce it, fallback (the locally applied change) is
// used instead.
func refetched(snap taskdata.Snapshot, id string, fallback *task.Task) *task.Task {
	for _, t := range snap.Tasks {
		if t.ID == id {
			return t
		}
	}
	return fallback
}

func warnPartial(snap taskdata.Snapshot) {
	if len(snap.Errors) == 0 {
		return
	}
	errs := make([]error, len(snap.Errors))
	for i, e := range snap.Errors {
		errs[i] = e
	}
	output.Warnings(os.Stderr, errs)
}

// now is the clock used by every command; tests replace it.
var now = time.Now
