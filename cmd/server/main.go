package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dnadawa/Prkcar-Backend/internal/config"
	"github.com/dnadawa/Prkcar-Backend/internal/database"
	"github.com/dnadawa/Prkcar-Backend/internal/handler"
	"github.com/dnadawa/Prkcar-Backend/internal/model"
	"github.com/dnadawa/Prkcar-Backend/internal/notify"
	"github.com/dnadawa/Prkcar-Backend/internal/recognition"
	"github.com/dnadawa/Prkcar-Backend/internal/scheduler"
	"github.com/dnadawa/Prkcar-Backend/internal/service"
	"github.com/dnadawa/Prkcar-Backend/pkg/metrics"
	"github.com/dnadawa/Prkcar-Backend/pkg/middleware"
)

const version = "2.0.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	config.InitLogger(cfg)

	slog.Info("Starting Prkcar Backend", "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to MongoDB
	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			slog.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}()

	// Create indexes
	if err := database.CreateIndexes(ctx, db); err != nil {
		slog.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	recordRepo := database.NewRecordRepository(db)
	userRepo := database.NewUserRepository(db)
	deliveryRepo := database.NewDeliveryLogRepository(db)

	// Initialize metrics
	m := metrics.New("prkcar")

	// Initialize notification providers
	smsClient := notify.NewTwilioClient(
		cfg.TwilioAccountSID,
		cfg.TwilioAuthToken,
		cfg.TwilioFromNumber,
		cfg.TwilioTimeout,
	)
	emailSender, err := notify.NewGmailSender(
		ctx,
		cfg.GmailClientID,
		cfg.GmailClientSecret,
		cfg.GmailRefreshToken,
		cfg.GmailFromAddress,
	)
	if err != nil {
		slog.Error("Failed to create Gmail sender", "error", err)
		os.Exit(1)
	}
	notifier := notify.NewService(smsClient, emailSender)

	// Initialize recognition proxy
	recognizer := recognition.NewProxy(cfg.RecognitionURL, cfg.RecognitionToken, cfg.RecognitionTimeout)

	// Initialize scheduler and workflow engine. The engine is the scheduler's
	// runner, so wire the engine first and hand its RunTask over.
	clock := scheduler.NewClock()
	var engine *service.WorkflowEngine
	sched := scheduler.New(clock, func(taskCtx context.Context, task model.Task) {
		engine.RunTask(taskCtx, task)
	}, cfg.SchedulerCoalesce)
	engine = service.NewWorkflowEngine(cfg, clock, sched, recordRepo, notifier, deliveryRepo, m)

	// Initialize maintenance sweeper
	var sweeper *scheduler.Sweeper
	if cfg.SweepEnabled {
		sweeper, err = scheduler.NewSweeper(cfg.SweepSchedule, recordRepo, cfg.RecordRetention, clock)
		if err != nil {
			slog.Error("Invalid sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
			os.Exit(1)
		}
		sweeper.Start()
	}

	// Initialize account service
	accounts := service.NewAccountService(userRepo, notifier, m)

	// Initialize handlers
	notifyHandler := handler.NewNotifyHandler(engine)
	scheduleHandler := handler.NewScheduleHandler(engine)
	recognitionHandler := handler.NewRecognitionHandler(recognizer, m)
	userHandler := handler.NewUserHandler(accounts)
	deliveryHandler := handler.NewDeliveryHandler(deliveryRepo)
	healthHandler := handler.NewHealthHandler(db, version)

	// Create CORS config
	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	}

	// Create router
	router := handler.NewRouter(
		notifyHandler,
		scheduleHandler,
		recognitionHandler,
		userHandler,
		deliveryHandler,
		healthHandler,
		corsConfig,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Received shutdown signal, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server first so no new tasks arrive
	slog.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Stop scheduler (wait for in-flight tasks)
	slog.Info("Stopping scheduler...")
	sched.Stop(shutdownCtx)

	if sweeper != nil {
		sweeper.Stop()
	}

	slog.Info("Prkcar Backend stopped")
}
