// Package database prepares the MySQL connection pool described by the
// masterserver configuration.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/megaglest/masterserver/internal/config"
)

const (
	defaultPort          = "3306"
	driverName           = "mysql"
	defaultAttempts      = 3
	defaultRetryInterval = time.Second

	persistentIdleConns = 4
)

// Settings are the connection parameters taken from the configuration.
type Settings struct {
	Host           string
	Name           string
	User           string
	Password       config.Secret
	Persistent     bool
	ConnectTimeout time.Duration
}

// SettingsFromConfig copies the db_* fields of cfg.
func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		Host:           cfg.DBHost,
		Name:           cfg.DBName,
		User:           cfg.DBUser,
		Password:       cfg.DBPassword,
		Persistent:     cfg.DBPersistentConnections,
		ConnectTimeout: cfg.DBConnectTimeout,
	}
}

// Addr returns host:port, adding the MySQL default port when Host has none.
func (s Settings) Addr() string {
	if _, _, err := net.SplitHostPort(s.Host); err == nil {
		return s.Host
	}
	return net.JoinHostPort(s.Host, defaultPort)
}

// DSN builds the driver data source name. It contains the password and must
// not be logged.
func (s Settings) DSN() string {
	mc := mysql.NewConfig()
	mc.User = s.User
	mc.Passwd = s.Password.Reveal()
	mc.Net = "tcp"
	mc.Addr = s.Addr()
	mc.DBName = s.Name
	mc.ParseTime = true
	mc.Timeout = s.ConnectTimeout
	return mc.FormatDSN()
}

// PoolPolicy controls whether connections outlive the query that opened them.
type PoolPolicy struct {
	MaxIdleConns int
}

// PoolPolicy keeps idle connections open for reuse when persistent
// connections are enabled and closes every connection after use otherwise.
func (s Settings) PoolPolicy() PoolPolicy {
	if s.Persistent {
		return PoolPolicy{MaxIdleConns: persistentIdleConns}
	}
	return PoolPolicy{MaxIdleConns: 0}
}

func (p PoolPolicy) apply(db *sql.DB) {
	db.SetMaxIdleConns(p.MaxIdleConns)
}

type openConfig struct {
	driverName    string
	attempts      int
	retryInterval time.Duration
}

// Option configures Open.
type Option func(*openConfig)

// WithDriverName selects a registered database/sql driver other than mysql.
func WithDriverName(name string) Option {
	return func(cfg *openConfig) {
		cfg.driverName = name
	}
}

// WithRetry sets how many pings are attempted and the minimum spacing between them.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(cfg *openConfig) {
		cfg.attempts = attempts
		cfg.retryInterval = interval
	}
}

// Open creates the pool and verifies connectivity. Ping attempts are paced
// by a token bucket so a database that is still starting is not hammered.
func Open(ctx context.Context, settings Settings, logger *zap.Logger, opts ...Option) (*sql.DB, error) {
	cfg := openConfig{
		driverName:    driverName,
		attempts:      defaultAttempts,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.attempts <= 0 {
		cfg.attempts = 1
	}

	db, err := sql.Open(cfg.driverName, settings.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	settings.PoolPolicy().apply(db)

	fields := []zap.Field{
		zap.String("addr", settings.Addr()),
		zap.String("database", settings.Name),
		zap.String("user", settings.User),
		zap.Bool("persistent", settings.Persistent),
	}

	limiter := rate.NewLimiter(rate.Every(cfg.retryInterval), 1)
	var lastErr error
	for attempt := 1; attempt <= cfg.attempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}

		if lastErr = ping(ctx, db, settings.ConnectTimeout); lastErr == nil {
			logger.Info("database connected", append(fields, zap.Int("attempt", attempt))...)
			return db, nil
		}
		logger.Warn("database ping failed", append(fields, zap.Int("attempt", attempt), zap.Error(lastErr))...)
	}

	_ = db.Close()
	return nil, fmt.Errorf("connect to %s: %w", settings.Addr(), lastErr)
}

func ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}
