package main

import (
	"context"
	"fmt"
	"net"

	"github.com/gofrs/flock"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tabx/internal/server"
	"github.com/desertthunder/tabx/internal/shared"
	"github.com/desertthunder/tabx/internal/web"
)

// lockPath is the advisory lock held beside the database while a server owns it.
func lockPath(dbPath string) string {
	return dbPath + ".lock"
}

// acquireLock takes the server lock for dbPath. In-memory databases need none.
func acquireLock(dbPath string) (func(), error) {
	if dbPath == "" || dbPath == ":memory:" {
		return func() {}, nil
	}

	lock := flock.New(lockPath(dbPath))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", lock.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: another server is using %s", shared.ErrLocked, dbPath)
	}
	return func() { lock.Unlock() }, nil
}

// Serve runs the REST API and the HTML viewer until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}

	unlock, err := acquireLock(r.config.Database.Path)
	if err != nil {
		return err
	}
	defer unlock()

	library, closeLibrary, err := r.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer closeLibrary()

	// An on-disk index may have missed writes made while no server was running.
	if r.config.Search.IndexPath != "" {
		if n, err := library.Reindex(ctx); err != nil {
			r.logger.Warn("failed to rebuild search index", "error", err)
		} else {
			r.logger.Info("search index ready", "songs", n)
		}
	}

	viewer, err := web.NewViewer(library)
	if err != nil {
		return err
	}

	srv := server.New(cfg, server.NewAPI(library, r.searchProxy()), r.logger, viewer)

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}

	if cmd.Bool("open") {
		url := "http://" + ln.Addr().String() + "/"
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("failed to open browser", "url", url, "error", err)
		}
	}

	return srv.ServeListener(ctx, ln)
}
