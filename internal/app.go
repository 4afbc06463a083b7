// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	router "github.com/souma9830/WalletWise/internal/api"
	"github.com/souma9830/WalletWise/internal/api/handler"
	"github.com/souma9830/WalletWise/internal/config"
	"github.com/souma9830/WalletWise/internal/domain"
	"github.com/souma9830/WalletWise/internal/repository"
	"github.com/souma9830/WalletWise/internal/repository/postgres"
	"github.com/souma9830/WalletWise/internal/scheduler"
	"github.com/souma9830/WalletWise/internal/service"
	"github.com/souma9830/WalletWise/internal/util"
	"github.com/souma9830/WalletWise/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	// Repositories
	UserRepository        repository.UserRepository
	TransactionRepository repository.TransactionRepository

	// Services
	LedgerService    service.LedgerService
	RecurrenceEngine *service.RecurrenceEngine

	// Background jobs
	SweepScheduler *scheduler.Scheduler

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	util.InitLogger(slog.LevelInfo)
	app.Logger = util.GetLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg
	app.Logger.Info("Application configuration loaded successfully.")

	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	app.UserRepository = postgres.NewUserRepository(app.DB)
	app.TransactionRepository = postgres.NewTransactionRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	clock := clockwork.NewRealClock()
	app.LedgerService = service.NewLedgerService(
		app.DB, // DBTxBeginner
		app.DB, // DBExecutor for non-transactional reads
		app.UserRepository,
		app.TransactionRepository,
		domain.DefaultCategoryRegistry(),
		clock,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.RecurrenceEngine = service.NewRecurrenceEngine(
		app.LedgerService,
		app.DB,
		app.TransactionRepository,
		clock,
		app.Logger,
	)
	app.Logger.Info("Services initialized.")

	app.SweepScheduler, err = scheduler.New(app.RecurrenceEngine, app.Config.SweepInterval, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to create sweep scheduler: %w", err)
	}
	if err := app.SweepScheduler.Start(); err != nil {
		return fmt.Errorf("failed to start sweep scheduler: %w", err)
	}

	transactionHandler := handler.NewTransactionHandler(app.LedgerService, app.RecurrenceEngine, app.Logger)
	app.HTTPHandler = router.NewRouter(transactionHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.SweepScheduler != nil {
		if err := app.SweepScheduler.Stop(); err != nil {
			app.Logger.Error("Failed to stop sweep scheduler", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
