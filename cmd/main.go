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

	"github.com/ff-arena/tournament-platform/config"
	"github.com/ff-arena/tournament-platform/db"
	"github.com/ff-arena/tournament-platform/handlers"
	"github.com/ff-arena/tournament-platform/realtime"
	"github.com/ff-arena/tournament-platform/repositories"
	api "github.com/ff-arena/tournament-platform/routes"
	"github.com/ff-arena/tournament-platform/services"
	"github.com/ff-arena/tournament-platform/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const schedulerInterval = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage not configured, file uploads disabled")
	}

	wsHub := realtime.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub started")

	txManager := repositories.NewSQLTxManager(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	transactionRepo := repositories.NewPostgresTransactionRepository(dbConn)
	resultRepo := repositories.NewPostgresResultRepository(dbConn)
	rechargeRepo := repositories.NewPostgresRechargeRequestRepository(dbConn)
	withdrawRepo := repositories.NewPostgresWithdrawRequestRepository(dbConn)
	settingsRepo := repositories.NewPostgresSettingsRepository(dbConn)
	noticeRepo := repositories.NewPostgresNoticeRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(userRepo, settingsRepo)
	tournamentService := services.NewTournamentService(
		txManager,
		tournamentRepo,
		participantRepo,
		userRepo,
		transactionRepo,
		resultRepo,
		notificationRepo,
		settingsRepo,
		uploader,
		wsHub,
		logger,
	)
	participantService := services.NewParticipantService(
		txManager,
		participantRepo,
		tournamentRepo,
		userRepo,
		transactionRepo,
		wsHub,
		logger,
	)
	walletService := services.NewWalletService(
		txManager,
		rechargeRepo,
		withdrawRepo,
		userRepo,
		transactionRepo,
		notificationRepo,
		settingsRepo,
		uploader,
		wsHub,
		logger,
	)
	userService := services.NewUserService(txManager, userRepo, transactionRepo, wsHub, logger)
	adminService := services.NewAdminService(userRepo, tournamentRepo, rechargeRepo, withdrawRepo, settingsRepo)
	noticeService := services.NewNoticeService(noticeRepo, notificationRepo, wsHub, logger)
	logger.Info("services initialized")

	// Scheduler for the automatic upcoming -> live -> completed transitions.
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("tournament status scheduler started", slog.Duration("interval", schedulerInterval))

		if err := tournamentService.AutoUpdateStatuses(context.Background()); err != nil {
			logger.Error("scheduler: initial run failed", slog.Any("error", err))
		}

		for range ticker.C {
			if err := tournamentService.AutoUpdateStatuses(context.Background()); err != nil {
				logger.Error("scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	participantHandler := handlers.NewParticipantHandler(participantService)
	walletHandler := handlers.NewWalletHandler(walletService)
	adminHandler := handlers.NewAdminHandler(adminService)
	noticeHandler := handlers.NewNoticeHandler(noticeService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, cfg.JWTSecretKey, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		cfg.CORSAllowedOrigins,
		authHandler,
		userHandler,
		tournamentHandler,
		participantHandler,
		walletHandler,
		adminHandler,
		noticeHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
