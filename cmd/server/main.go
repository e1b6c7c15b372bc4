package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdg-garage/guest-checkin-api/internal/admission"
	"github.com/gdg-garage/guest-checkin-api/internal/auth"
	"github.com/gdg-garage/guest-checkin-api/internal/config"
	"github.com/gdg-garage/guest-checkin-api/internal/database"
	"github.com/gdg-garage/guest-checkin-api/internal/handlers"
	"github.com/gdg-garage/guest-checkin-api/internal/logging"
	"github.com/gdg-garage/guest-checkin-api/internal/notifier"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Connect to Database
	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	var n notifier.Notifier
	if cfg.DiscordNotificationsChannelID == "" {
		logger.Info("Discord notifications disabled: no channel configured")
	} else if session, err := notifier.NewDiscordSession(cfg.DiscordBotToken); err != nil {
		logger.Warn("Discord notifier not initialized", zap.Error(err))
	} else {
		n = notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID)
	}

	// Initialize Handlers
	store := admission.NewGormStore(db)
	registry := admission.NewRegistry(cfg.ScanQueueSize)
	defer registry.CloseAll()

	authHandler := auth.NewAuthHandler(cfg, db, logger)
	h := handlers.Handlers{
		Auth:         authHandler,
		Organization: handlers.NewOrganizationHandler(db, n, authHandler, logger),
		Event:        handlers.NewEventHandler(db, authHandler, logger),
		Guest:        handlers.NewGuestHandler(db, authHandler, cfg.QRImageURL, logger),
		Scan:         handlers.NewScanHandler(store, registry, admission.PolicyFromConfig(cfg), n, authHandler, logger),
		ScannerKey:   handlers.NewScannerKeyHandler(db, authHandler, logger),
	}

	// Initialize Router
	r := chi.NewRouter()
	handlers.RegisterRoutes(r, h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port), zap.String("free_plan_policy", cfg.FreePlanPolicy))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
