package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-reservations/internal/analytics"
	analytics_api "ms-reservations/internal/analytics/api"
	"ms-reservations/internal/auth"
	"ms-reservations/internal/catalog"
	"ms-reservations/internal/catalog/catalog_api"
	catalogdb "ms-reservations/internal/catalog/db"
	"ms-reservations/internal/config"
	"ms-reservations/internal/database"
	"ms-reservations/internal/database/migrations"
	"ms-reservations/internal/kafka"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/reservation"
	reservationdb "ms-reservations/internal/reservation/db"
	rediswrap "ms-reservations/internal/reservation/redis"
	"ms-reservations/internal/reservation/reservation_api"
	"ms-reservations/internal/reservation/voucher"
	"ms-reservations/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

const userCacheTTL = 2 * time.Minute

func connectRedis(ctx context.Context, cfg config.RedisConfig, logger *logger.Logger) *redis.Client {
	if !cfg.Enabled {
		logger.Warn("REDIS", "Redis disabled, reservation locks and user cache are off")
		return nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}

	logger.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Addr, redisClient.Options().DB))
	return redisClient
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Reservation Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("CONFIG", "JWT_SECRET not set")
	}
	if cfg.Voucher.Secret == "" {
		logger.Warn("CONFIG", "VOUCHER_SECRET not set, falling back to JWT_SECRET")
		cfg.Voucher.Secret = cfg.Auth.JWTSecret
	}

	ctx := context.Background()

	migrateOpts := migrations.OptionsFromConfig(cfg.Migrations)
	if migrateOpts.AutoMigrate {
		runner := migrations.NewRunner(cfg.Database.DSN, migrateOpts, logger)
		if err := runner.RunMigrations(); err != nil {
			logger.Fatal("MIGRATIONS", fmt.Sprintf("Failed to run migrations: %v", err))
		}
		if err := runner.Close(); err != nil {
			logger.Warn("MIGRATIONS", err.Error())
		}
	}

	logger.Info("APP", "Verifying database connections")
	bunDB, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	redisClient := connectRedis(ctx, cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var users auth.UserStore = &auth.UserDB{Bun: bunDB}
	var locks reservation.RedisLock
	if redisClient != nil {
		users = auth.NewRedisUserCache(redisClient, users, userCacheTTL)
		locks = rediswrap.NewRedis(redisClient, cfg.Redis.LockTTL)
	}

	var publisher reservation.KafkaPublisher
	if cfg.Kafka.Enabled {
		logger.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, cfg.Kafka.Topics.All(), logger); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
		kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer kafkaProducer.Close()
		publisher = kafkaProducer
		logger.Info("KAFKA", "Kafka producer initialized successfully")
	} else {
		logger.Warn("KAFKA", "Kafka disabled, reservation events will not be published")
	}

	catalogService := catalog.NewCatalogService(&catalogdb.DB{Bun: bunDB}, logger)
	reservationService := reservation.NewReservationService(
		&reservationdb.DB{Bun: bunDB},
		catalogService,
		locks,
		publisher,
		voucher.NewGenerator(cfg.Voucher.Secret),
		cfg.Kafka.Topics,
		logger,
	)
	analyticsService := analytics.NewService(analytics.NewDB(bunDB), logger)

	authn := auth.NewAuthenticator(cfg.Auth.JWTSecret, users, logger)
	reservationHandler := reservation_api.NewHandler(reservationService, logger)
	catalogHandler := catalog_api.NewHandler(catalogService, logger)
	analyticsHandler := analytics_api.NewHandler(analyticsService, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logger.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w, http.StatusOK, "reservation service is running", nil)
	})

	r.Route("/api", func(r chi.Router) {
		reservationHandler.RegisterRoutes(r, authn)
		logger.Info("ROUTER", "Reservation routes registered under /api/reservations")

		catalogHandler.RegisterRoutes(r)
		logger.Info("ROUTER", "Destination routes registered under /api/destinations")

		r.Route("/admin", func(r chi.Router) {
			r.Use(authn.Required(), auth.RequireAdmin)
			reservationHandler.RegisterAdminRoutes(r)
			catalogHandler.RegisterAdminRoutes(r)
			analyticsHandler.RegisterAdminRoutes(r)
		})
		logger.Info("ROUTER", "Admin routes registered under /api/admin")
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Reservation Service running on %s", cfg.Server.Port))
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
		logger.Info("HTTP", "✅ Reservation Service shutdown complete")
	}
}
