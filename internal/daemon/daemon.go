package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"studiorouter/internal/api"
	"studiorouter/internal/config"
	"studiorouter/internal/logging"
	"studiorouter/internal/resolver"
	"studiorouter/internal/studio"
	"studiorouter/internal/studiodef"
)

// Daemon serves studio routing and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *studio.Store
	resolver *resolver.Resolver
	service  *api.StudioService
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	running   atomic.Bool
	startedAt atomic.Int64
	cancel    context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	Bind         string
	Studios      int
	StartedAt    time.Time
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *studio.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	res := resolver.New(store, logger)
	svc := api.NewStudioService(store, res)
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		resolver: res,
		service:  svc,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, svc, logger)
	return d, nil
}

// Start acquires the daemon lock, seeds studio definitions when configured,
// and starts the API server.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another studiod instance is already running")
	}

	if d.cfg.Studios.SeedOnStart {
		if _, err := d.SeedDefinitions(ctx); err != nil {
			d.logger.Warn("studio definitions seeded with errors", logging.Error(err))
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api: %w", err)
	}

	d.cancel = cancel
	d.startedAt.Store(time.Now().UnixNano())
	d.running.Store(true)
	d.logger.Info("studiod started",
		logging.String("lock", d.lockPath),
		logging.String("database", d.store.Path()),
	)
	return nil
}

// Stop shuts down the API server and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.startedAt.Store(0)
	d.logger.Info("studiod stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.resolver.Close()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// SeedDefinitions imports every definition in the configured directory,
// replacing stored studios with the same ID.
func (d *Daemon) SeedDefinitions(ctx context.Context) (api.ImportResult, error) {
	dir := strings.TrimSpace(d.cfg.Studios.DefinitionsDir)
	if dir == "" {
		return api.ImportResult{Imported: []string{}}, nil
	}
	defs, loadErr := studiodef.LoadDir(dir)
	result := d.service.Import(ctx, defs)

	for _, id := range result.Imported {
		d.logger.Info("studio definition imported", logging.String(logging.FieldStudioID, id))
	}
	var errs []error
	if loadErr != nil {
		errs = append(errs, loadErr)
	}
	for _, failure := range result.Failed {
		d.logger.Warn("studio definition rejected",
			logging.String("source", failure.Source),
			logging.String("error", failure.Error),
		)
		errs = append(errs, fmt.Errorf("%s: %s", failure.Source, failure.Error))
	}
	return result, errors.Join(errs...)
}

// Status reports the daemon's runtime state.
func (d *Daemon) Status(ctx context.Context) Status {
	var startedAt time.Time
	if nanos := d.startedAt.Load(); nanos != 0 {
		startedAt = time.Unix(0, nanos)
	}

	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		Bind:         d.api.addr(),
		StartedAt:    startedAt,
	}
	if studios, err := d.store.List(ctx); err == nil {
		status.Studios = len(studios)
	} else {
		d.logger.Warn("failed to count studios", logging.Error(err))
	}
	return status
}

// Addr returns the address the API server listens on, or "" when it is not
// running.
func (d *Daemon) Addr() string {
	return d.api.addr()
}
