package application

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/megaglest/masterserver/internal/config"
	"github.com/megaglest/masterserver/internal/database"
	"github.com/megaglest/masterserver/internal/serverlist"
)

type okDriver struct{}

func (okDriver) Open(string) (driver.Conn, error) { return okConn{}, nil }

type okConn struct{}

func (okConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (okConn) Close() error                        { return nil }
func (okConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }

type failingDriver struct{}

func (failingDriver) Open(string) (driver.Conn, error) { return nil, errors.New("connection refused") }

func init() {
	sql.Register("application-test-ok", okDriver{})
	sql.Register("application-test-failing", failingDriver{})
}

func baseTestConfig() config.Config {
	return config.Config{
		ProductName:         "MegaGlest",
		ProductURL:          "http://megaglest.org",
		DBHost:              "127.0.0.1",
		DBName:              "glest",
		DBUser:              "root",
		DBPassword:          config.Secret("your_pwd"),
		DBConnectTimeout:    20 * time.Millisecond,
		MaxRecentServers:    2,
		DefaultCountryCode:  "??",
		LogLevel:            "info",
		ShutdownGracePeriod: 50 * time.Millisecond,
	}
}

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig()

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if app.Config() != cfg {
		t.Fatalf("expected configuration to be kept as given")
	}
	if app.Product().Name != "MegaGlest" || app.Product().URL != "http://megaglest.org" {
		t.Fatalf("unexpected product %+v", app.Product())
	}
	if app.DB() != nil {
		t.Fatalf("expected no database before Start")
	}

	recent := app.RecentServers()
	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		if err := recent.Record(serverlist.Server{IPAddress: ip, ExternalPort: 61357}); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}
	if recent.Len() != cfg.MaxRecentServers {
		t.Fatalf("expected recent servers to be capped at %d, got %d", cfg.MaxRecentServers, recent.Len())
	}
	if got := recent.List()[0].Country; got != cfg.DefaultCountryCode {
		t.Fatalf("expected default country %q, got %q", cfg.DefaultCountryCode, got)
	}
}

func TestNewReturnsErrorForInvalidCapacity(t *testing.T) {
	cfg := baseTestConfig()
	cfg.MaxRecentServers = 0

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for invalid recent servers capacity")
	}
}

func TestStartOpensDatabase(t *testing.T) {
	app, err := New(baseTestConfig(), zaptest.NewLogger(t),
		WithDatabaseOptions(database.WithDriverName("application-test-ok")),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if app.DB() == nil {
		t.Fatalf("expected database after Start")
	}
	if err := app.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if app.DB() != nil {
		t.Fatalf("expected database to be released after Close")
	}
}

func TestStartFailsWhenDatabaseUnreachable(t *testing.T) {
	app, err := New(baseTestConfig(), zaptest.NewLogger(t),
		WithDatabaseOptions(
			database.WithDriverName("application-test-failing"),
			database.WithRetry(2, time.Millisecond),
		),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := app.Start(context.Background()); err == nil {
		t.Fatalf("expected Start to fail")
	}
	if err := app.Close(); err != nil {
		t.Fatalf("Close before a successful Start should be a no-op, got %v", err)
	}
}
