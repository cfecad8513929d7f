package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"corebank/internal/api"
	"corebank/internal/config"
	"corebank/internal/consumer"
	"corebank/internal/domain/account"
	"corebank/internal/domain/customer"
	"corebank/internal/domain/loan"
	"corebank/internal/event"
	"corebank/internal/infrastructure/database/postgres"
	"corebank/internal/infrastructure/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

func main() {
	cfg, logger := initializeApp()

	dbPool := initializeDatabase(cfg, logger)
	defer closeDatabase(dbPool, logger)

	rabbitConn := initializeRabbitMQ(cfg, logger)
	redisClient := initializeRedisClient(cfg, logger)

	svcs, outboxRepo, guard := initializeServices(cfg, dbPool, logger)

	relay := startOutboxRelay(cfg, rabbitConn, outboxRepo, logger)
	cronScheduler := startOutboxSweep(cfg, relay, logger)
	consumers := startConsumers(cfg, rabbitConn, svcs.Ledger, guard, logger)

	router := api.SetupRouter(svcs, cfg, redisClient, logger)
	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)

	handleShutdown(srv, relay, cronScheduler, consumers, rabbitConn, redisClient,
		shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func initializeDatabase(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

func initializeServices(cfg *config.Config, dbPool *pgxpool.Pool, logger *slog.Logger) (api.Services, event.OutboxRepository, *postgres.ProcessedEventRepository) {
	logger.Info("Initializing application components...")

	customerRepo := postgres.NewCustomerRepository(dbPool, logger)
	accountRepo := postgres.NewAccountRepository(dbPool, logger)
	loanRepo := postgres.NewLoanRepository(dbPool, logger)
	outboxRepo := postgres.NewOutboxRepository(dbPool, logger)
	guard := postgres.NewProcessedEventRepository(dbPool, logger)

	customerService := customer.NewCustomerService(customerRepo, outboxRepo, logger)
	ledgerService := account.NewLedgerService(accountRepo, cfg.Banking.Currency, logger)
	policy := loan.NewEligibilityPolicy(cfg.Banking.MinFundLimit, cfg.Banking.MinAmount, cfg.Banking.MaxAmount)
	loanService := loan.NewLoanService(loanRepo, ledgerService, outboxRepo, policy, cfg.Consumer.LedgerTimeout, logger)

	return api.Services{
		Customer: customerService,
		Ledger:   ledgerService,
		Loan:     loanService,
	}, outboxRepo, guard
}

func startOutboxRelay(cfg *config.Config, rabbitConn *amqp.Connection, outboxRepo event.OutboxRepository, logger *slog.Logger) *event.OutboxRelay {
	publisher, err := event.NewRabbitMQPublisher(rabbitConn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to initialize RabbitMQ publisher", "error", err)
		os.Exit(1)
	}

	relay := event.NewOutboxRelay(outboxRepo, publisher, cfg.Outbox.RelayInterval, cfg.Outbox.BatchSize, logger)
	relay.Start(context.Background())
	return relay
}

// startOutboxSweep schedules a slower cron-driven sweep as a safety net for
// rows stranded while the ticker loop was down.
func startOutboxSweep(cfg *config.Config, relay *event.OutboxRelay, logger *slog.Logger) *cron.Cron {
	logger.Info("Initializing outbox sweep scheduler...")
	c := cron.New()

	scheduleSpec := cfg.Outbox.SweepSchedule
	if scheduleSpec == "" {
		scheduleSpec = "@every 1m"
		logger.Warn("Outbox sweep schedule not configured, using default", "schedule", scheduleSpec)
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "OutboxSweep")
		jobLogger.Info("Cron triggered: Running outbox sweep.")

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		if runErr := relay.Run(ctx); runErr != nil {
			jobLogger.Error("Outbox sweep finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Outbox sweep finished successfully.")
		}
	}))

	if err != nil {
		logger.Error("Failed to schedule outbox sweep", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled outbox sweep", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}

func startConsumers(cfg *config.Config, rabbitConn *amqp.Connection, ledger account.Service, guard *postgres.ProcessedEventRepository, logger *slog.Logger) []*consumer.Consumer {
	provisioningHandler := consumer.NewAccountProvisioningHandler(ledger, guard, cfg.RabbitMQ.AccountQueue, logger)
	creditHandler := consumer.NewBalanceCreditHandler(ledger, cfg.RabbitMQ.LoanQueue, int64(cfg.Consumer.MaxAttempts), logger)

	specs := []struct {
		queue      string
		routingKey string
		handler    consumer.MessageHandler
	}{
		{cfg.RabbitMQ.AccountQueue, event.RoutingKeyAccountCreationRequested, provisioningHandler.HandleDelivery},
		{cfg.RabbitMQ.LoanQueue, event.RoutingKeyLoanApproved, creditHandler.HandleDelivery},
	}

	var consumers []*consumer.Consumer
	for _, spec := range specs {
		c, err := consumer.NewConsumer(
			rabbitConn,
			cfg.RabbitMQ.ExchangeName,
			cfg.RabbitMQ.DeadLetterExchange,
			spec.queue,
			spec.routingKey,
			fmt.Sprintf("%s-%s", cfg.RabbitMQ.ConsumerTag, spec.queue),
			spec.handler,
			logger,
		)
		if err != nil {
			logger.Error("Failed to initialize consumer", "queue", spec.queue, "error", err)
			os.Exit(1)
		}
		if err := c.Start(context.Background()); err != nil {
			logger.Error("Failed to start consumer", "queue", spec.queue, "error", err)
			os.Exit(1)
		}
		consumers = append(consumers, c)
	}
	return consumers
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, relay *event.OutboxRelay, cronScheduler *cron.Cron, consumers []*consumer.Consumer,
	rabbitConn *amqp.Connection, redisClient *redis.Client,
	shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	triggerReason := waitForShutdownTrigger(shutdownChan, serverErrors, logger)

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	// Stop intake first, then the async machinery, then the connections.
	shutdownHTTPServer(srv, serverErrors, logger)
	for _, c := range consumers {
		c.Stop()
	}
	stopCronScheduler(cronScheduler, logger)
	relay.Stop()
	closeRabbitMQConnection(rabbitConn, logger)
	closeRedisClient(redisClient, logger)

	logger.Info("Application shutdown process complete.")
}

func waitForShutdownTrigger(shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) string {
	select {
	case sig := <-shutdownChan:
		logger.Info("Shutdown signal received.", "signal", sig.String())
		return "signal: " + sig.String()
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		logger.Info("Server goroutine finished before signal.", "error", err)
		return "server exited"
	}
}

func stopCronScheduler(cronScheduler *cron.Cron, logger *slog.Logger) {
	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}
}

func closeRabbitMQConnection(rabbitConn *amqp.Connection, logger *slog.Logger) {
	if rabbitConn != nil && !rabbitConn.IsClosed() {
		logger.Info("Closing RabbitMQ connection...")
		if err := rabbitConn.Close(); err != nil {
			logger.Error("Failed to close RabbitMQ connection gracefully", slog.Any("error", err))
		} else {
			logger.Info("RabbitMQ connection closed.")
		}
	} else if rabbitConn == nil {
		logger.Info("RabbitMQ connection was not established, skipping close.")
	} else {
		logger.Info("RabbitMQ connection already closed, skipping close.")
	}
}

func shutdownHTTPServer(srv *http.Server, serverErrors <-chan error, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server graceful shutdown failed", "error", err)
		} else {
			logger.Info("HTTP server shutdown initiated.")
		}
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}
}

func initializeRedisClient(cfg *config.Config, logger *slog.Logger) *redis.Client {
	logger.Info("Initializing central Redis client...")
	if cfg.Redis.Addr == "" {
		logger.Error("Redis address (addr) is not configured.")
		os.Exit(1)
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if status := rdb.Ping(ctx); status.Err() != nil {
		logger.Error("Failed to connect to Redis", "error", status.Err(), "addr", cfg.Redis.Addr)
		_ = rdb.Close()
		os.Exit(1)
		return nil
	}

	logger.Info("Central Redis client connected successfully.", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
	return rdb
}

func closeRedisClient(redisClient *redis.Client, logger *slog.Logger) {
	if redisClient != nil {
		logger.Info("Closing central Redis client connection...")
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close central Redis client connection gracefully", "error", err)
		} else {
			logger.Info("Central Redis client connection closed.")
		}
	} else {
		logger.Info("Redis client was not initialized, skipping close.")
	}
}

func initializeRabbitMQ(cfg *config.Config, logger *slog.Logger) *amqp.Connection {
	conn, err := setupRabbitMQ(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	return conn
}

func connectRabbitMQ(uri string, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	retryCount := 5
	for i := 1; i <= retryCount; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ")

			go func() {
				blockChan := conn.NotifyBlocked(make(chan amqp.Blocking))
				closeChan := conn.NotifyClose(make(chan *amqp.Error))

				select {
				case b := <-blockChan:
					logger.Warn("RabbitMQ Connection Blocked", "reason", b.Reason)
				case e := <-closeChan:
					logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
				}
			}()

			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			slog.Int("attempt", i),
			slog.Int("max_attempts", retryCount),
			slog.Any("error", err),
		)
		time.Sleep(time.Duration(i*2) * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", retryCount, err)
}

func setupRabbitMQ(cfg *config.Config, logger *slog.Logger) (*amqp.Connection, error) {
	if cfg.RabbitMQ.Host == "" {
		return nil, fmt.Errorf("RabbitMQ host is not configured")
	}

	rabbitMQURI := fmt.Sprintf("amqp://%s:%d", cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	if cfg.RabbitMQ.Username != "" && cfg.RabbitMQ.Password != "" {
		rabbitMQURI = fmt.Sprintf("amqp://%s:%s@%s:%d", cfg.RabbitMQ.Username, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	} else if cfg.RabbitMQ.Username != "" || cfg.RabbitMQ.Password != "" {
		return nil, fmt.Errorf("RabbitMQ username and password must be provided together")
	}

	return connectRabbitMQ(rabbitMQURI, logger)
}
