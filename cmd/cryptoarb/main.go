// Command cryptoarb starts the arbitrage bot: it loads the parameters file,
// reports balances and polls every enabled exchange for quotes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	dbmigrations "github.com/coachpo/cryptoarb/db/migrations"
	"github.com/coachpo/cryptoarb/internal/domain/quotestore"
	"github.com/coachpo/cryptoarb/internal/infra/adapters/registry"
	"github.com/coachpo/cryptoarb/internal/infra/adapters/shared"
	"github.com/coachpo/cryptoarb/internal/infra/config"
	"github.com/coachpo/cryptoarb/internal/infra/persistence"
	"github.com/coachpo/cryptoarb/internal/infra/persistence/migrations"
	"github.com/coachpo/cryptoarb/internal/infra/persistence/postgres"
	"github.com/coachpo/cryptoarb/internal/infra/restapi"
	"github.com/coachpo/cryptoarb/internal/observability"
	"github.com/coachpo/cryptoarb/internal/telemetry"
)

const (
	defaultLogDir             = "output/log"
	consoleLoggerPrefix       = "cryptoarb "
	logFilePrefix             = "CryptoArb_log_"
	logFileTimeLayout         = "20060102_150405"
	shutdownTimeout           = 15 * time.Second
	databaseShutdownTimeout   = 5 * time.Second
	telemetryShutdownTimeout  = 5 * time.Second
	databaseConnectTimeout    = 10 * time.Second
	databaseMigrateTimeout    = 30 * time.Second
	persistencePoolName       = "quotes"
	exitStatusUnsupportedPair = 1
)

type cliFlags struct {
	configPath string
	logDir     string
}

func main() {
	flags := parseFlags(os.Args[1:])
	ctx, cancel := newSignalContext()
	defer cancel()

	console := newConsoleLogger(os.Stdout)
	console.Print(">>> CryptoArb Cryptocurrencies Arbitrage Bot <<<")

	started := time.Now()
	logPath, logFile, err := createLogFile(flags.logDir, started)
	if err != nil {
		console.Fatalf("create log file: %v", err)
	}
	defer func() { _ = logFile.Close() }()
	console.Printf("log file generated at %s", logPath)

	report := newReport(logFile)
	report.header(started)

	params, err := config.Load(flags.configPath)
	if errors.Is(err, config.ErrUnsupportedPair) {
		report.unsupportedPair()
		console.Printf("load parameters: %v", err)
		_ = logFile.Close()
		os.Exit(exitStatusUnsupportedPair)
	}
	if err != nil {
		console.Fatalf("load parameters: %v", err)
	}
	console.Printf("parameters loaded from %s", params.Path)

	fileLogger := log.New(logFile, "", log.LstdFlags|log.Lmicroseconds)
	logger := observability.NewStdLogger(fileLogger, params.Verbose)

	report.information(params)
	report.targets(params)

	telemetryProvider, err := initTelemetry(ctx, console, params)
	if err != nil {
		console.Fatalf("initialise telemetry: %v", err)
	}

	db, quotes, err := openPersistence(ctx, console, params.DBFile)
	if err != nil {
		console.Fatalf("initialise persistence: %v", err)
	}

	adapters, err := registry.Default().Build(params.ActiveExchanges(), shared.Options{
		Logger: logger,
		Rest: restapi.Options{
			CACertPath:  params.CACert,
			Retry:       restapi.RetryPolicy{MaxAttempts: params.RetryMaxAttempts, Interval: params.RetryInterval},
			RequestRate: params.RequestRate,
			Logger:      logger,
			Notice:      os.Stdout,
		},
	})
	if err != nil {
		console.Fatalf("initialise exchanges: %v", err)
	}
	console.Printf("exchanges active: %d", len(adapters))

	p := &poller{
		adapters: adapters,
		store:    quotes,
		report:   report,
		logger:   logger,
		symbol:   quoteSymbol(params),
		verbose:  params.Verbose,
		exit:     os.Exit,
		now:      time.Now,
	}

	p.reportBalances(ctx)
	report.exposure(params)

	console.Print("polling started; awaiting shutdown signal or iteration limit")
	if err := p.run(ctx, params.DebugMaxIteration, params.Interval); err != nil && !errors.Is(err, context.Canceled) {
		console.Printf("polling stopped: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	shutdownStart := time.Now()
	performGracefulShutdown(shutdownCtx, console, gracefulShutdownConfig{
		mainCancel: cancel,
		database:   db,
		telemetry:  telemetryProvider,
	})
	console.Printf("shutdown completed in %v", time.Since(shutdownStart))
	console.Print(">>> CryptoArb has been correctly terminated. <<<")
}

func parseFlags(args []string) cliFlags {
	fs := flag.NewFlagSet("cryptoarb", flag.ExitOnError)
	cfgPath := fs.String("config", config.DefaultFileName, "Parameters file name or path")
	logDir := fs.String("logdir", defaultLogDir, "Directory receiving the run log file")
	_ = fs.Parse(args)
	return cliFlags{configPath: *cfgPath, logDir: *logDir}
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newConsoleLogger(out io.Writer) *log.Logger {
	return log.New(out, consoleLoggerPrefix, log.LstdFlags|log.Lmicroseconds)
}

func logFileName(started time.Time) string {
	return logFilePrefix + started.Format(logFileTimeLayout) + ".log"
}

func createLogFile(dir string, started time.Time) (string, *os.File, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultLogDir
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", nil, fmt.Errorf("create log directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, logFileName(started))
	// #nosec G304 -- path is built from the operator supplied log directory.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return path, file, nil
}

func quoteSymbol(params config.Parameters) string {
	return strings.ToUpper(strings.TrimSpace(params.Leg1) + strings.TrimSpace(params.Leg2))
}

func telemetryConfig(params config.Parameters) telemetry.Config {
	cfg := telemetry.DefaultConfig()
	if params.TelemetryEnabled {
		cfg.Enabled = true
	}
	if endpoint := strings.TrimSpace(params.OTLPEndpoint); endpoint != "" {
		cfg.OTLPEndpoint = endpoint
	}
	if params.OTLPInsecure {
		cfg.OTLPInsecure = true
	}
	if env := strings.TrimSpace(params.Environment); env != "" {
		cfg.Environment = env
	}
	return cfg
}

func initTelemetry(ctx context.Context, logger *log.Logger, params config.Parameters) (*telemetry.Provider, error) {
	cfg := telemetryConfig(params)
	provider, err := telemetry.NewProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry provider: %w", err)
	}
	if provider.Enabled() {
		logger.Printf("telemetry initialized: endpoint=%s, service=%s", cfg.OTLPEndpoint, cfg.ServiceName)
	} else {
		logger.Printf("telemetry disabled")
	}
	return provider, nil
}

// openPersistence connects and migrates the quote database. An empty DSN
// disables persistence and returns nil stores.
func openPersistence(ctx context.Context, logger *log.Logger, dsn string) (*persistence.Store, quotestore.Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		logger.Print("no database configured; quotes will not be persisted")
		return nil, nil, nil
	}

	migrateCtx, cancel := context.WithTimeout(ctx, databaseMigrateTimeout)
	defer cancel()
	if err := migrations.ApplyFS(migrateCtx, dsn, dbmigrations.Files, ".", logger); err != nil {
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}

	connectCtx, cancelConnect := context.WithTimeout(ctx, databaseConnectTimeout)
	defer cancelConnect()
	db, err := persistence.Open(connectCtx, persistence.PoolConfig{DSN: dsn})
	if err != nil {
		return nil, nil, err
	}
	postgres.ObservePoolMetrics(db.Pool(), persistencePoolName)
	logger.Print("quote persistence enabled")
	return db, postgres.New(db.Pool()).Quotes(), nil
}

type gracefulShutdownConfig struct {
	mainCancel context.CancelFunc
	database   *persistence.Store
	telemetry  *telemetry.Provider
}

func performGracefulShutdown(ctx context.Context, logger *log.Logger, cfg gracefulShutdownConfig) {
	shutdownStep := func(name string, timeout time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		logger.Printf("shutdown: %s...", name)
		if err := fn(stepCtx); err != nil {
			logger.Printf("shutdown: %s failed: %v", name, err)
		} else {
			logger.Printf("shutdown: %s completed", name)
		}
	}

	logger.Print("shutdown: cancelling main context")
	if cfg.mainCancel != nil {
		cfg.mainCancel()
	}

	if cfg.database != nil {
		shutdownStep("closing database pool", databaseShutdownTimeout, func(stepCtx context.Context) error {
			done := make(chan struct{})
			go func() {
				cfg.database.Close()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-stepCtx.Done():
				return fmt.Errorf("timeout closing database pool: %w", stepCtx.Err())
			}
		})
	}

	if cfg.telemetry != nil {
		shutdownStep("shutting down telemetry", telemetryShutdownTimeout, func(stepCtx context.Context) error {
			return cfg.telemetry.Shutdown(stepCtx)
		})
	}
}
