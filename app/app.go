package app

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"go-ledger-api/config"
	"go-ledger-api/db"
	"go-ledger-api/events"
	kafkaevents "go-ledger-api/events/kafka"
	"go-ledger-api/handler"
	"go-ledger-api/logger"
	"go-ledger-api/repository"
	"go-ledger-api/router"
	"go-ledger-api/service"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to redis: %v", err)
	}
	defer redisClient.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if brokers := config.AppConfig.Kafka.Brokers; len(brokers) > 0 {
		kafkaPublisher := kafkaevents.NewPublisher(brokers, config.AppConfig.Kafka.Topic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Log.WithField("brokers", brokers).Info("Kafka event publisher enabled")
	}

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.Server.Port,
		Handler: newRouter(database, redisClient, publisher),
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", config.AppConfig.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}

// newRouter wires repositories, services and handlers around the shared
// connections and returns the ready-to-serve handler.
func newRouter(database *sql.DB, redisClient *redis.Client, publisher events.Publisher) http.Handler {
	userRepo := repository.NewUserRepository(database)
	accountRepo := repository.NewAccountRepository(database)
	transactionRepo := repository.NewTransactionRepository(database)

	userService := service.NewUserService(userRepo)
	accountService := service.NewAccountService(accountRepo, redisClient)
	ledgerService := service.NewLedgerService(database, accountRepo, transactionRepo, redisClient, publisher)

	userHandler := handler.NewUserHandler(userService)
	accountHandler := handler.NewAccountHandler(accountService)
	transactionHandler := handler.NewTransactionHandler(ledgerService)

	return router.NewRouter(userHandler, accountHandler, transactionHandler)
}

// TestApp exposes the wired handler and its connections to integration tests.
type TestApp struct {
	DB      *sql.DB
	Handler http.Handler
}

func NewTestApp(database *sql.DB, redisClient *redis.Client) *TestApp {
	return &TestApp{
		DB:      database,
		Handler: newRouter(database, redisClient, events.NopPublisher{}),
	}
}
