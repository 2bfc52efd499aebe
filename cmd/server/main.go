// Command server is Holdfast's entry point: it loads configuration,
// opens the database and runs migrations, hydrates the world, wires
// the engine, and serves telnet connections until a signal or fatal
// error shuts it down. Grounded on the teacher's main.go composition
// (connection semaphore, signal-driven graceful shutdown, a
// background metrics/admin HTTP server run alongside the telnet
// listener) adapted from its single global World to Holdfast's
// store-backed, repository-wired Manager.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/holdfast-mud/holdfast/internal/applog"
	"github.com/holdfast-mud/holdfast/internal/config"
	"github.com/holdfast-mud/holdfast/internal/engine"
	"github.com/holdfast-mud/holdfast/internal/scripting"
	"github.com/holdfast-mud/holdfast/internal/store"
	"github.com/holdfast-mud/holdfast/internal/telemetry"
	"github.com/holdfast-mud/holdfast/internal/worldmgr"
)

const shutdownDrain = 5 * time.Second

func main() {
	os.Exit(run())
}

// run wires the server and blocks until shutdown, returning the
// process exit code: 0 on a clean shutdown, non-zero on any fatal
// init failure or listen error, per spec.md §6.4.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		applog.Init(true, "info")
		applog.Error().Err(err).Msg("server: failed to load configuration")
		return 1
	}
	applog.Init(cfg.LogPretty, cfg.LogLevel)

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		applog.Error().Err(err).Msg("server: failed to open database")
		return 1
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		applog.Error().Err(err).Msg("server: failed to run migrations")
		return 1
	}

	rooms := store.NewRoomRepository(db)
	objects := store.NewObjectRepository(db)
	monsters := store.NewMonsterTemplateRepository(db)

	world := worldmgr.New(rooms, objects, monsters)
	if err := world.Hydrate(ctx); err != nil {
		applog.Error().Err(err).Msg("server: failed to hydrate world state")
		return 1
	}

	metrics := telemetry.New()
	eng := engine.New(cfg, db, world, metrics)

	if info, err := os.Stat(cfg.ScriptDir); err == nil && info.IsDir() {
		lua := scripting.New(cfg.ScriptDir)
		defer lua.Close()
		eng.UseScripting(lua)
		applog.Info().Str("dir", cfg.ScriptDir).Msg("server: monster AI scripting enabled")
	}

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.Error().Err(err).Msg("server: metrics server failed")
		}
	}()

	addr := cfg.Host + ":" + cfg.Port
	runErr := make(chan error, 1)
	go func() {
		runErr <- eng.Run(ctx, addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-runErr:
		if err != nil {
			applog.Error().Err(err).Msg("server: listener failed")
			return 1
		}
	case s := <-sig:
		applog.Info().Str("signal", s.String()).Msg("server: shutdown signal received")
		cancel()
		eng.Shutdown(shutdownDrain)
		<-runErr
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		applog.Warn().Err(err).Msg("server: metrics server shutdown")
	}

	applog.Info().Msg("server: exited cleanly")
	return 0
}
