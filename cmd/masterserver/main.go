package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/megaglest/masterserver/internal/application"
	"github.com/megaglest/masterserver/internal/branding"
	"github.com/megaglest/masterserver/internal/config"
	"github.com/megaglest/masterserver/internal/logging"
)

var signalNotify = signal.Notify

type options struct {
	overrides *config.CLIOverrides
	check     bool
}

func parseArgs(args []string) (options, error) {
	kingpinApp := kingpin.New("masterserver", "MegaGlest masterserver - directory of running game servers")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").Default(config.DefaultPath).String()
	dbHost := kingpinApp.Flag("db-host", "MySQL host, optionally host:port").String()
	maxRecent := kingpinApp.Flag("max-recent-servers", "How many recently seen servers to keep (0 keeps the configured value)").Default("0").Int()
	logLevel := kingpinApp.Flag("log-level", "Log level: debug, info, warn or error").String()
	check := kingpinApp.Flag("check", "Validate the configuration, print it and exit").Bool()

	if _, err := kingpinApp.Parse(args); err != nil {
		return options{}, err
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *dbHost != "" {
		overrides.DBHost = dbHost
	}

	if *maxRecent != 0 {
		overrides.MaxRecentServers = maxRecent
	}

	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	return options{overrides: overrides, check: *check}, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run starts the masterserver and returns the process exit status. Failures
// before the logger exists are written to stderr.
func run(args []string, stderr io.Writer) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "masterserver: error: %v\n", err)
		return 1
	}

	cfg, err := config.NewLoader().Load(opts.overrides)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel, zap.String("product", branding.FromConfig(cfg).Name))
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	if opts.check {
		logger.Info("configuration is valid", zap.Object("config", cfg))
		return 0
	}

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", zap.Error(err))
		return 1
	}

	if err := app.Start(context.Background()); err != nil {
		logger.Error("failed to start", zap.Error(err))
		return 1
	}

	shutdown(app, cfg.ShutdownGracePeriod, logger)
	return 0
}

// shutdown blocks until SIGINT or SIGTERM and then releases resources,
// giving up after timeout.
func shutdown(closer io.Closer, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down")

	done := make(chan error, 1)
	go func() {
		done <- closer.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
		}
	case <-time.After(timeout):
		logger.Error("shutdown timed out", zap.Duration("timeout", timeout))
	}
}
