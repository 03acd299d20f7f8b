package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/torque-rentals/service-rental/internal/application"
	"github.com/torque-rentals/service-rental/internal/cache"
	"github.com/torque-rentals/service-rental/internal/common/auth"
	"github.com/torque-rentals/service-rental/internal/common/database"
	"github.com/torque-rentals/service-rental/internal/common/health"
	"github.com/torque-rentals/service-rental/internal/common/kafka"
	"github.com/torque-rentals/service-rental/internal/common/logger"
	"github.com/torque-rentals/service-rental/internal/common/middleware"
	"github.com/torque-rentals/service-rental/internal/config"
	bookingDomain "github.com/torque-rentals/service-rental/internal/domain/booking"
	"github.com/torque-rentals/service-rental/internal/handler"
	"github.com/torque-rentals/service-rental/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-rental")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-rental",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig.DSN(), log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.UserModel{}, &repository.VehicleModel{}, &repository.BookingModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.URL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.Issuer,
		24*time.Hour,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize vehicle cache (disabled when no Redis address is set)
	vehicleCache := cache.NewVehicleCache(cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
	defer func() { _ = vehicleCache.Close() }()

	// Initialize repositories
	userRepo := repository.NewGormUserRepository(db)
	vehicleRepo := repository.NewGormVehicleRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)

	// Initialize application services
	authService := application.NewAuthService(userRepo, jwtManager, log)
	userService := application.NewUserService(userRepo, log)
	vehicleService := application.NewVehicleService(vehicleRepo, bookingRepo, vehicleCache, log)
	bookingService := application.NewBookingService(
		bookingRepo,
		vehicleRepo,
		userRepo,
		bookingDomain.NewDailyRatePricing(),
		vehicleCache,
		kafkaProducer,
		log,
	)

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService)
	bookingHandler := handler.NewBookingHandler(bookingService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-rental")
	healthHandler.RegisterRoutes(router)

	// Register API routes
	api := router.Group("/api/v1")
	authHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api, jwtManager)
	vehicleHandler.RegisterRoutes(api, jwtManager)
	bookingHandler.RegisterRoutes(api, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-rental...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-rental stopped")
}
