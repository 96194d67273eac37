package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sensor_fleet/internal/audit"
	"sensor_fleet/internal/config"
	"sensor_fleet/internal/dashboard"
	"sensor_fleet/internal/engine"
	"sensor_fleet/internal/handlers"
	"sensor_fleet/internal/logger"
	"sensor_fleet/internal/repository"
	"sensor_fleet/internal/repository/db"
	"sensor_fleet/internal/server"
	"sensor_fleet/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "configs/config.yml", "path to the config file")
	flag.Parse()

	// load config.yml
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "path", *configPath, "err", err)
	}

	// init logger; the dashboard owns the terminal, so logs go to a file
	var logOpts []logger.Option
	if cfg.Dashboard.Enabled {
		logOpts = append(logOpts, logger.WithFile(cfg.Log.File))
	}
	log := logger.Get(cfg.Log.Level, logOpts...)

	// open DB
	conn, err := openDB(cfg.DB.Path, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	rec := audit.New(audit.Options{
		File:       cfg.Audit.File,
		MaxSizeMB:  cfg.Audit.MaxSizeMB,
		MaxBackups: cfg.Audit.MaxBackups,
		MaxAgeDays: cfg.Audit.MaxAgeDays,
		Compress:   cfg.Audit.Compress,
	})
	defer func() {
		if cerr := rec.Close(); cerr != nil {
			log.Errorw("failed to close audit log", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, newEngine(cfg, log), rec, service.SimulatorOptions{
		HistorySize:    cfg.Simulation.HistorySize,
		Retention:      cfg.DB.Retention,
		RetentionCheck: cfg.Simulation.RetentionCheck,
	}, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := services.Fleet.Load(ctx); err != nil {
		log.Fatalw("failed to load stored sensors", "err", err)
	}
	if err := services.Fleet.Sync(ctx, cfg.Sensors); err != nil {
		log.Fatalw("failed to register sensors", "err", err)
	}
	watchConfig(ctx, *configPath, services.Fleet, log)

	// start simulator
	go services.Simulator.Run(ctx, cfg.Simulation.Tick)

	// start HTTP server
	srv := server.New(cfg.Port, handlers.NewHandler(services, log).InitRoutes())
	runHTTPServer(srv, log)
	log.Infow("sensor fleet started",
		"port", cfg.Port, "sensors", len(cfg.Sensors), "tick", cfg.Simulation.Tick.String())

	if cfg.Dashboard.Enabled {
		if err := dashboard.Run(ctx, services.Monitoring, services.Fleet, cfg.Dashboard.Refresh); err != nil {
			log.Errorw("dashboard stopped", "err", err)
		}
	} else {
		waitForSignal()
	}

	// graceful shutdown
	shutdown(cancel, srv, log)
}

// openDB initializes the SQLite database, falling back to a local file.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "sensors.db")
		path = "sensors.db"
	}
	return db.InitDB(path)
}

// newEngine builds the simulation engine; a non-zero seed makes runs reproducible.
func newEngine(cfg *config.Config, log *logger.Logger) *engine.Engine {
	if seed := cfg.Simulation.Seed; seed != 0 {
		log.Infow("using seeded random source", "seed", seed)
		return engine.NewSeeded(seed, cfg.TemperatureRange, log)
	}
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	return engine.New(rng, cfg.TemperatureRange, log)
}

// watchConfig feeds sensor list changes into the fleet. A watcher that cannot
// start only disables hot reload.
func watchConfig(ctx context.Context, path string, fleet service.Fleet, log *logger.Logger) {
	w, err := config.NewWatcher(path, log)
	if err != nil {
		log.Warnw("config hot reload disabled", "path", path, "err", err)
		return
	}
	go fleet.Watch(ctx, w.Changes())
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, log *logger.Logger) {
	go func() {
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForSignal blocks until SIGINT or SIGTERM.
func waitForSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

// shutdown stops background goroutines and lets in-flight requests complete.
func shutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	log.Infow("shutting down server...")

	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
