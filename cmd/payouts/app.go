package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/clipmarket/payouts/internal/auth"
	"github.com/clipmarket/payouts/internal/config"
	"github.com/clipmarket/payouts/internal/handlers"
	"github.com/clipmarket/payouts/internal/migrations"
	"github.com/clipmarket/payouts/internal/services"
	"github.com/clipmarket/payouts/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App структура для управления приложением и его зависимостями.
type App struct {
	cfg    *config.Config
	dbPool *pgxpool.Pool
	echo   *echo.Echo
	worker *services.SettlementWorker

	// Handlers
	payoutHandler  *handlers.PayoutHandler
	requestHandler *handlers.RequestHandler
	reviewHandler  *handlers.ReviewHandler
}

// requestValidator адаптирует go-playground/validator под echo.Validator.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// NewApp создаёт и инициализирует новое приложение.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		cfg: cfg,
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initDependencies()
	app.initServer()

	return app, nil
}

// initDatabase инициализирует подключение к базе данных и выполняет миграции.
func (app *App) initDatabase(ctx context.Context) error {
	if app.cfg.DatabaseURI == "" {
		return fmt.Errorf("DATABASE_URI is required")
	}

	// Применение миграций
	log.Println("Running database migrations...")
	sqlDB, err := sql.Open("pgx", app.cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("unable to open database connection: %w", err)
	}
	defer sqlDB.Close()

	if err := migrations.Run(sqlDB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Println("Migrations completed successfully")

	// Подключение к базе данных через pgxpool
	dbPool, err := pgxpool.New(ctx, app.cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		return fmt.Errorf("unable to ping database: %w", err)
	}

	app.dbPool = dbPool
	log.Println("Successfully connected to database")

	return nil
}

// initDependencies инициализирует все зависимости приложения (storage, services, handlers).
func (app *App) initDependencies() {
	// Storage layer
	payoutStorage := storage.NewPostgresPayoutStorage(app.dbPool)
	walletStorage := storage.NewPostgresWalletStorage(app.dbPool)
	submissionStorage := storage.NewPostgresSubmissionStorage(app.dbPool)
	statsStorage := storage.NewPostgresStatsStorage(app.dbPool)

	// Service layer
	approvalService := services.NewApprovalService(app.dbPool, payoutStorage, walletStorage, submissionStorage, statsStorage, log.Default())
	flagService := services.NewFlagService(payoutStorage)
	reviewService := services.NewReviewService(app.dbPool, payoutStorage, walletStorage, submissionStorage)
	requestService := services.NewRequestService(app.dbPool, payoutStorage, submissionStorage, app.cfg.ClearingPeriod, app.cfg.MinPayoutAmount)
	walletService := services.NewWalletService(walletStorage, payoutStorage)

	// Handler layer
	app.payoutHandler = handlers.NewPayoutHandler(approvalService, flagService, requestService, walletService)
	app.requestHandler = handlers.NewRequestHandler(requestService, walletService)
	app.reviewHandler = handlers.NewReviewHandler(reviewService)

	// Воркер досрочного завершения заявок
	app.worker = services.NewSettlementWorker(payoutStorage, app.cfg.ReconcileInterval, log.Default())
}

// initServer инициализирует HTTP-сервер и настраивает маршруты.
func (app *App) initServer() {
	e := echo.New()
	e.Validator = &requestValidator{validate: validator.New()}

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
	}))

	// Метрики
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Защищённые маршруты (требуют аутентификации)
	api := e.Group("/api")
	api.Use(auth.JWTMiddleware(app.cfg.JWTSecret))

	// Криейтор: подача заявки, список заявок, кошелёк
	api.POST("/payouts", app.requestHandler.CreateRequest)
	api.GET("/payouts", app.requestHandler.GetRequests)
	api.GET("/wallet", app.requestHandler.GetBalance)
	api.GET("/wallet/transactions", app.requestHandler.GetTransactions)

	// Оператор: чтение заявки, одобрение, флаг, сверка по журналу
	api.GET("/payouts/:id", app.payoutHandler.GetRequest)
	api.POST("/payouts/:id/approve", app.payoutHandler.Approve)
	api.GET("/payouts/:id/transactions", app.payoutHandler.GetRequestTransactions)
	api.POST("/payout-items/:id/flag", app.payoutHandler.Flag)

	// Модерация зафлаганных позиций
	api.POST("/payout-items/:id/clear-flag", app.reviewHandler.ClearFlag)
	api.POST("/payout-items/:id/clawback", app.reviewHandler.Clawback)

	app.echo = e
}

// Start запускает приложение.
func (app *App) Start(ctx context.Context) error {
	// Запуск воркера досрочного завершения
	log.Println("Starting settlement worker...")
	app.worker.Start(ctx)

	// Запуск сервера
	log.Printf("Starting server on %s", app.cfg.RunAddress)
	if err := app.echo.Start(app.cfg.RunAddress); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}

	return nil
}

// Shutdown корректно завершает работу приложения.
func (app *App) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")

	if err := app.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if app.dbPool != nil {
		app.dbPool.Close()
	}

	log.Println("Server gracefully stopped")
	return nil
}
