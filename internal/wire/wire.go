// Package wire provides dependency injection for the clearance application.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	cliadapter "github.com/example/clearance/internal/adapters/cli"
	"github.com/example/clearance/internal/adapters/sqlite"
	"github.com/example/clearance/internal/api"
	"github.com/example/clearance/internal/app"
	"github.com/example/clearance/internal/config"
	"github.com/example/clearance/internal/db"
	"github.com/example/clearance/internal/ports/primary"
	"github.com/example/clearance/pkg/logger"
)

var (
	configPath string

	cfg        *config.Config
	appLogger  *logger.Logger
	configOnce sync.Once
	configErr  error

	database              *sql.DB
	clearanceService      primary.ClearanceService
	reconciliationService *app.ReconciliationServiceImpl
	logService            primary.LogService
	once                  sync.Once
)

// SetConfigPath selects the config file. It must be called before any
// other function in this package; an empty path means config.DefaultPath.
func SetConfigPath(path string) {
	configPath = path
}

// ConfigPath returns the config file in use.
func ConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

// Config returns the loaded configuration. It does not open the database.
func Config() (*config.Config, error) {
	configOnce.Do(loadConfig)
	return cfg, configErr
}

// Logger returns the process logger.
func Logger() *logger.Logger {
	configOnce.Do(loadConfig)
	if appLogger == nil {
		return logger.NewNop()
	}
	return appLogger
}

func loadConfig() {
	path, err := ConfigPath()
	if err != nil {
		configErr = err
		return
	}
	cfg, configErr = config.LoadConfig(path)
	if configErr != nil {
		return
	}
	appLogger, configErr = logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// DB returns the shared database connection.
func DB() *sql.DB {
	once.Do(initServices)
	return database
}

// ClearanceService returns the singleton ClearanceService instance.
func ClearanceService() primary.ClearanceService {
	once.Do(initServices)
	return clearanceService
}

// ReconciliationService returns the singleton ReconciliationService instance.
func ReconciliationService() primary.ReconciliationService {
	once.Do(initServices)
	return reconciliationService
}

// LogService returns the singleton LogService instance.
func LogService() primary.LogService {
	once.Do(initServices)
	return logService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	c, err := Config()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	path, err := c.DatabasePath()
	if err != nil {
		log.Fatalf("failed to resolve database path: %v", err)
	}

	database, err = db.Open(path)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	lg := Logger()

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	gateway := sqlite.NewFactGateway(database)
	logRepo := sqlite.NewAuditLogRepository(database)
	logWriter := sqlite.NewLogWriterAdapter(logRepo)

	// Decisions and reconciliation share per-request locks
	locks := app.NewKeyLock()

	clearanceService = app.NewClearanceService(gateway, logWriter, locks, lg)
	reconciliationService = app.NewReconciliationService(gateway, logWriter, locks, lg, app.ReconcileOptions{
		Interval:      c.Reconcile.Interval.Duration,
		Debounce:      c.Reconcile.Debounce.Duration,
		Workers:       c.Reconcile.Workers,
		FetchAttempts: c.Reconcile.FetchAttempts,
		FetchBackoff:  c.Reconcile.FetchBackoff.Duration,
	})
	logService = app.NewLogService(logRepo, gateway)
}

// TriggerOnChange starts a reconciliation pass whenever upstream facts
// change in this process. The returned function stops the notifications.
func TriggerOnChange() (stop func()) {
	svc := ReconciliationService()
	return db.OnChange(func(table string) {
		svc.Trigger()
	})
}

// Router returns the HTTP router over the singleton services.
func Router() *api.Router {
	once.Do(initServices)
	return api.NewRouter(clearanceService, reconciliationService, Logger())
}

// Close releases the database connection if it was opened.
func Close() error {
	if database == nil {
		return nil
	}
	if err := database.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// ClearanceAdapter returns a new ClearanceAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func ClearanceAdapter() *cliadapter.ClearanceAdapter {
	return ClearanceAdapterWithOutput(os.Stdout)
}

// ClearanceAdapterWithOutput returns a new ClearanceAdapter writing to the given output.
func ClearanceAdapterWithOutput(out io.Writer) *cliadapter.ClearanceAdapter {
	once.Do(initServices)
	return cliadapter.NewClearanceAdapter(clearanceService, out)
}

// ReconcileAdapter returns a new ReconcileAdapter writing to stdout.
func ReconcileAdapter() *cliadapter.ReconcileAdapter {
	once.Do(initServices)
	return cliadapter.NewReconcileAdapter(reconciliationService, os.Stdout)
}

// LogAdapter returns a new LogAdapter writing to stdout.
func LogAdapter() *cliadapter.LogAdapter {
	once.Do(initServices)
	return cliadapter.NewLogAdapter(logService, os.Stdout)
}
