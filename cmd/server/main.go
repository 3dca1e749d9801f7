package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/lib/pq"

	httpapi "gearshare-backend/internal/api/http"
	"gearshare-backend/internal/config"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/metrics"
	"gearshare-backend/internal/repository/postgres"
	"gearshare-backend/internal/security"
	"gearshare-backend/internal/service"
	"gearshare-backend/internal/syncutil"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Local development overrides; absence of the file is fine
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting GearShare Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret)

	// Initialize Metrics
	metrics.Register(prometheus.DefaultRegisterer)

	// Initialize Email Service
	emailSvc := service.NewEmailService(
		cfg.SendGrid.APIKey,
		cfg.SendGrid.FromEmail,
		cfg.SendGrid.FromName,
		cfg.SendGrid.AdminEmail,
	)

	// Initialize Services
	locks := syncutil.NewRentalMutex()
	// Identity is external and no user directory is wired yet, so events
	// land in the notification outbox; only admin alerts go out by email.
	dispatcher := service.NewDispatcher(store.NotificationRepository, service.NewNoopDirectory(), emailSvc)

	escrowSvc := service.NewEscrowService(store.EscrowRepository)
	reportSvc := service.NewReportService(store.ReportRepository, store.RentalRepository, store.DisputeRepository, locks, dispatcher)
	lifecycleSvc := service.NewLifecycleService(
		store.RentalRepository,
		store.ItemRepository,
		store.AvailabilityRepository,
		store.CallbackRepository,
		escrowSvc,
		reportSvc,
		locks,
		dispatcher,
	)
	extensionSvc := service.NewExtensionService(
		store.ExtensionRepository,
		store.RentalRepository,
		store.AvailabilityRepository,
		store.CallbackRepository,
		escrowSvc,
		locks,
		dispatcher,
	)
	disputeSvc := service.NewDisputeService(store.DisputeRepository, store.RentalRepository, escrowSvc, locks, dispatcher)
	notificationSvc := service.NewNotificationService(store.NotificationRepository)

	// Set up HTTP server
	router := httpapi.NewRouter(httpapi.RouterDeps{
		Lifecycle:     lifecycleSvc,
		Escrow:        escrowSvc,
		Reports:       reportSvc,
		Extensions:    extensionSvc,
		Disputes:      disputeSvc,
		Notifications: notificationSvc,
		Tokens:        tokenManager,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
