// Package server wires the vaultwatch components together and runs them
// until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/vaultwatch/internal/cryptox"
	"github.com/dmitrijs2005/vaultwatch/internal/logging"
	"github.com/dmitrijs2005/vaultwatch/internal/server/backup"
	"github.com/dmitrijs2005/vaultwatch/internal/server/breach"
	"github.com/dmitrijs2005/vaultwatch/internal/server/config"
	"github.com/dmitrijs2005/vaultwatch/internal/server/httpapi"
	"github.com/dmitrijs2005/vaultwatch/internal/server/notify"
	"github.com/dmitrijs2005/vaultwatch/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vaultwatch/internal/server/revalidation"
	"github.com/dmitrijs2005/vaultwatch/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/vaultwatch/internal/server/grpc"
)

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	hub       *notify.Hub
	users     *services.UserService
	vault     *services.VaultService
	scheduler *revalidation.Scheduler
	exporter  *backup.Exporter
}

// NewApp opens the database, applies migrations and builds every component.
// Nothing is started until Run.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogFormat, slog.LevelInfo)

	key, err := recordKey(ctx, c, logger)
	if err != nil {
		return nil, err
	}
	cipher, err := cryptox.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init error: %w", err)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	hub := notify.NewHub(logger)
	oracle := breach.NewClient(c.OracleBaseURL, c.OracleTimeout)
	vault := services.NewVaultService(db, m, cipher, oracle, logger)

	scheduler, err := revalidation.New(vault, cipher, oracle, hub, logger, revalidation.Options{
		Interval: c.CheckInterval,
		Workers:  c.CheckWorkers,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		config:    c,
		logger:    logger,
		db:        db,
		hub:       hub,
		users:     services.NewUserService(db, m, c),
		vault:     vault,
		scheduler: scheduler,
	}

	if c.BackupInterval > 0 {
		up, err := backup.NewS3Uploader(ctx, backup.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("backup init error: %w", err)
		}
		if app.exporter, err = backup.New(vault, up, c.S3Bucket, c.BackupInterval, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return app, nil
}

// recordKey derives the vault key. An empty secret is fatal in production
// and falls back to a well-known development secret elsewhere.
func recordKey(ctx context.Context, c *config.Config, logger logging.Logger) ([]byte, error) {
	secret := c.EncryptionSecret
	if secret == "" {
		if c.IsProduction() {
			return nil, errors.New("encryption secret is required in production")
		}
		logger.Warn(ctx, "encryption secret not set, using the built-in development key",
			"insecure", true, "environment", c.Environment)
		secret = cryptox.FallbackSecret
	}
	return cryptox.DeriveKey([]byte(secret)), nil
}

// Run starts the background jobs and both servers, and blocks until ctx is
// cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	defer app.db.Close()

	app.scheduler.Start(ctx)
	defer app.scheduler.Stop()
	if app.exporter != nil {
		app.exporter.Start(ctx)
		defer app.exporter.Stop()
	}

	grpcServer := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.users, app.vault, app.hub)
	httpServer := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.users, app.vault, app.hub, app.db, app.config.AllowedOrigins)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return grpcServer.Run(gctx) })
	g.Go(func() error { return httpServer.Run(gctx) })
	g.Go(func() error {
		// alert sessions must end before the servers can drain
		<-gctx.Done()
		app.hub.Close()
		return nil
	})

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
