// Package server initializes and runs the habits API: it opens the database,
// applies migrations, wires repositories, services and the HTTP router, and
// shuts everything down gracefully on SIGINT or SIGTERM.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/habits/internal/dbx"
	"github.com/dmitrijs2005/habits/internal/logging"
	"github.com/dmitrijs2005/habits/internal/server/auth"
	"github.com/dmitrijs2005/habits/internal/server/config"
	"github.com/dmitrijs2005/habits/internal/server/httpapi"
	"github.com/dmitrijs2005/habits/internal/server/metrics"
	"github.com/dmitrijs2005/habits/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/habits/internal/server/services"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	logCloser io.Closer
	db        *sql.DB
	server    *http.Server
}

// openDB is a seam for tests.
var openDB = dbx.Open

// NewApp builds the application from cfg. The returned App owns the
// database handle and the log file until Run returns.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger, closer, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 30,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := openDB(ctx, cfg.DatabaseDSN, dbx.PoolOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if cfg.RunMigrations {
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			_ = closer.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
		logger.Info(ctx, "migrations applied")
	}

	return newApp(cfg, logger, closer, db, rm), nil
}

func newApp(cfg *config.Config, logger logging.Logger, closer io.Closer, db *sql.DB, rm repomanager.RepositoryManager) *App {
	tokens := auth.NewTokenIssuer([]byte(cfg.SecretKey), cfg.TokenValidityDuration, cfg.TokenIssuer)
	m := metrics.New()

	handler := httpapi.NewRouter(httpapi.Options{
		Users:        services.NewUserService(db, rm, tokens, cfg),
		Habits:       services.NewHabitService(db, rm),
		Tags:         services.NewTagService(db, rm),
		Tokens:       tokens,
		Logger:       logger,
		Metrics:      m,
		LoginLimiter: httpapi.NewRateLimiter(cfg.LoginRatePerSecond, cfg.LoginRateBurst, m.LoginThrottled),
		Dev:          cfg.IsDev(),
		LogStacks:    !cfg.IsProduction(),
	})

	return &App{
		config:    cfg,
		logger:    logger,
		logCloser: closer,
		db:        db,
		server: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
	}
}

// Run serves HTTP until ctx is cancelled, a termination signal arrives or
// the listener fails. It then drains in-flight requests within the
// configured shutdown timeout and closes the database and log file.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer app.close(ctx)

	ln, err := net.Listen("tcp", app.config.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen error: %w", err)
	}

	app.logger.Info(ctx, "Starting app...", "addr", ln.Addr().String(), "stage", app.config.Stage)

	serveErr := make(chan error, 1)
	go func() {
		if err := app.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info(context.Background(), "shutdown requested")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "http shutdown error", "error", err)
	}

	return runErr
}

func (app *App) close(ctx context.Context) {
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "stopped")
	_ = app.logCloser.Close()
}
