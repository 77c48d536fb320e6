package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-marketplace/internal/analytics"
	analytics_api "ms-marketplace/internal/analytics/api"
	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/config"
	"ms-marketplace/internal/database/migrations"
	"ms-marketplace/internal/inventory"
	"ms-marketplace/internal/kafka"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/notify"
	"ms-marketplace/internal/order"
	"ms-marketplace/internal/order/db"
	orderkafka "ms-marketplace/internal/order/kafka"
	"ms-marketplace/internal/order/order_api"
	"ms-marketplace/internal/order/qr"
	rediswrap "ms-marketplace/internal/order/redis"
	"ms-marketplace/internal/realtime"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	logger.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	logger.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func runMigrations(bunDB *bun.DB, logger *logger.Logger) {
	opts := migrations.DefaultOptions()
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		opts.MigrationsDir = dir
	}

	runner := migrations.NewRunner(bunDB, opts)
	if err := runner.Initialize(); err != nil {
		logger.Warn("DATABASE", fmt.Sprintf("Versioned migrations unavailable, falling back to table bootstrap: %v", err))
		db.Migrate(bunDB)
		return
	}

	if err := runner.Up(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Schema migration failed: %v", err))
	}

	version, dirty, err := runner.Version()
	if err != nil {
		logger.Warn("DATABASE", fmt.Sprintf("Could not read schema version: %v", err))
	} else {
		logger.Info("DATABASE", fmt.Sprintf("Schema at version %d (dirty: %v)", version, dirty))
	}
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Marketplace Order Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	runMigrations(bunDB, logger)

	var kafkaPublisher order.KafkaPublisher = orderkafka.Noop{}
	if cfg.Kafka.Enabled {
		logger.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
		kafkaProducer := orderkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics)
		defer kafkaProducer.Close()
		kafkaPublisher = kafkaProducer
		logger.Info("KAFKA", "Kafka producer initialized successfully")

		requiredTopics := []string{
			cfg.Kafka.Topics.OrderCreated,
			cfg.Kafka.Topics.OrderUpdated,
			cfg.Kafka.Topics.OrderCancelled,
			cfg.Kafka.Topics.OrderCompleted,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
	} else {
		logger.Warn("KAFKA", "Kafka disabled, order lifecycle events will not be published")
	}

	inventoryService := inventory.NewService(bunDB, logger)
	hub := realtime.NewBroadcaster(logger)
	sequence := rediswrap.NewRedis(redisClient)
	notifyStore := notify.NewStore(bunDB)
	analyticsService := analytics.NewService(bunDB)

	orderService := order.NewOrderService(
		&db.DB{Bun: bunDB},
		inventoryService,
		hub,
		kafkaPublisher,
		sequence,
		logger,
	)

	orderHandler := order_api.NewHandler(orderService, qr.NewGenerator(cfg.Auth.QRSecret), logger)
	notifyHandler := notify.NewHandler(notifyStore, logger)
	analyticsHandler := analytics_api.NewHandler(analyticsService, logger)
	sseHandler := realtime.NewSSEHandler(logger, hub, orderService)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.OIDCIssuer))
		logger.Info("AUTH", "JWT middleware applied to protected API routes")

		r.Route("/api", func(r chi.Router) {
			r.Route("/orders", func(r chi.Router) {
				r.Post("/", orderHandler.CreateOrder)
				r.Get("/", orderHandler.ListOrders)
				r.Get("/{orderId}", orderHandler.GetOrder)
				r.Put("/{orderId}/status", orderHandler.UpdateStatus)
				r.Post("/{orderId}/confirm", orderHandler.ConfirmCompletion)
				r.Post("/{orderId}/cancel", orderHandler.CancelOrder)
				r.Post("/{orderId}/rating", orderHandler.RateOrder)
				r.Get("/{orderId}/pickup-qr", orderHandler.PickupQR)
				r.Post("/pickup-scan", orderHandler.VerifyPickup)
			})
			logger.Info("ROUTER", "Order routes registered under /api/orders")

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notifyHandler.List)
				r.Put("/{notificationId}/read", notifyHandler.MarkRead)
				r.Put("/read-all", notifyHandler.MarkAllRead)
			})
			logger.Info("ROUTER", "Notification routes registered under /api/notifications")

			r.Route("/realtime", func(r chi.Router) {
				r.Get("/stream", sseHandler.HandleStream)
				r.Get("/online", sseHandler.HandleOnlineUsers)
				r.Post("/rooms/{orderId}/join", sseHandler.HandleJoinRoom)
				r.Post("/rooms/{orderId}/leave", sseHandler.HandleLeaveRoom)
				r.Post("/rooms/{orderId}/typing", sseHandler.HandleTyping)
			})
			logger.Info("ROUTER", "Realtime routes registered under /api/realtime")

			r.Route("/analytics", func(r chi.Router) {
				analyticsHandler.RegisterRoutes(r)
			})
			logger.Info("ROUTER", "Analytics routes registered under /api/analytics")
		})
	})

	// No WriteTimeout: the SSE stream at /api/realtime/stream writes for the
	// life of the connection.
	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Marketplace Order Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Marketplace Order Service shutdown complete")
	}
}
