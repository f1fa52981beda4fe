package application

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/megaglest/masterserver/internal/branding"
	"github.com/megaglest/masterserver/internal/config"
	"github.com/megaglest/masterserver/internal/database"
	"github.com/megaglest/masterserver/internal/storage"
)

// App encapsulates the masterserver dependencies built from one Config.
type App struct {
	cfg     config.Config
	product branding.Product
	recent  *storage.MemoryStorage
	logger  *zap.Logger

	dbOptions []database.Option
	db        *sql.DB
}

// Option configures App construction.
type Option func(*App)

// WithDatabaseOptions forwards options to database.Open, primarily for tests.
func WithDatabaseOptions(opts ...database.Option) Option {
	return func(a *App) {
		a.dbOptions = append(a.dbOptions, opts...)
	}
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	recent, err := storage.NewMemoryStorage(cfg.MaxRecentServers, cfg.DefaultCountryCode)
	if err != nil {
		return nil, fmt.Errorf("failed to create recent servers storage: %w", err)
	}

	app := &App{
		cfg:     cfg,
		product: branding.FromConfig(cfg),
		recent:  recent,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app, nil
}

// Start logs the startup banner and opens the database pool.
func (a *App) Start(ctx context.Context) error {
	a.logger.Info("starting "+a.product.Signature(), zap.Object("config", a.cfg))

	db, err := database.Open(ctx, database.SettingsFromConfig(a.cfg), a.logger, a.dbOptions...)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	return nil
}

// Close releases the database pool. It is safe to call before Start.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// Config returns the configuration the application was built from.
func (a *App) Config() config.Config {
	return a.cfg
}

func (a *App) Product() branding.Product {
	return a.product
}

// RecentServers returns the store sized by max_recent_servers.
func (a *App) RecentServers() storage.Storage {
	return a.recent
}

// DB returns the pool opened by Start, or nil.
func (a *App) DB() *sql.DB {
	return a.db
}
