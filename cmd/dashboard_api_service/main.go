package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accountapp "github.com/voxdesk/golang_services/internal/account_service/app"
	accountrepo "github.com/voxdesk/golang_services/internal/account_service/repository/postgres"
	"github.com/voxdesk/golang_services/internal/dashboard_api_service/middleware"
	httptransport "github.com/voxdesk/golang_services/internal/dashboard_api_service/transport/http"
	"github.com/voxdesk/golang_services/internal/platform/config"
	"github.com/voxdesk/golang_services/internal/platform/database"
	"github.com/voxdesk/golang_services/internal/platform/logger"
	"github.com/voxdesk/golang_services/internal/platform/messagebroker"
	settingsapp "github.com/voxdesk/golang_services/internal/settings_service/app"
	settingsrepo "github.com/voxdesk/golang_services/internal/settings_service/repository/postgres"
)

const serviceName = "dashboard_api_service"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Dashboard API service starting...", "port", cfg.DashboardAPIPort)

	dbPool, err := database.NewDBPool(context.Background(), cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Connected to PostgreSQL database")

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSUrl, serviceName, appLogger)
	if err != nil {
		// Settings writes still work without the broker; responses will
		// report realTimeUpdate=false until it comes back.
		appLogger.Error("Failed to connect to NATS; real-time updates disabled", "error", err)
	} else {
		defer natsClient.Close()
		appLogger.Info("Connected to NATS", "url", cfg.NATSUrl)
	}

	businessRepo := settingsrepo.NewPgBusinessRepository(dbPool, appLogger)
	phoneRepo := settingsrepo.NewPgPhoneNumberRepository(dbPool, appLogger)
	userRepo := accountrepo.NewPgUserRepository(dbPool, appLogger)

	var broadcaster settingsapp.Broadcaster = settingsapp.NopBroadcaster{}
	if natsClient != nil {
		broadcaster = settingsapp.NewNATSBroadcaster(natsClient, appLogger)
	}

	settingsApp := settingsapp.NewApplication(businessRepo, phoneRepo, broadcaster, appLogger)
	authService := accountapp.NewAuthService(userRepo, businessRepo, accountapp.AuthConfig{
		JWTAccessSecret:      cfg.JWTAccessSecret,
		JWTAccessExpiryHours: cfg.JWTAccessExpiryHours,
	}, appLogger)

	validate := validator.New()
	authHandler := httptransport.NewAuthHandler(authService, appLogger, validate)
	businessHandler := httptransport.NewBusinessSettingsHandler(settingsApp, appLogger)
	phoneHandler := httptransport.NewPhoneSettingsHandler(settingsApp, appLogger, validate)
	authMW := middleware.AuthMiddleware(authService, appLogger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(httptransport.PrometheusMetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "Dashboard API service is healthy"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler.RegisterRoutes(v1)

		v1.Group(func(protected chi.Router) {
			protected.Use(authMW)
			businessHandler.RegisterRoutes(protected)
			phoneHandler.RegisterRoutes(protected)
		})
	})

	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.DashboardAPIPort), Handler: r}
	appLogger.Info(fmt.Sprintf("Dashboard API server listening on port %d", cfg.DashboardAPIPort))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
		}
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	<-quitChan
	appLogger.Info("Shutdown signal received, shutting down HTTP server...")
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	} else {
		appLogger.Info("HTTP server shut down gracefully.")
	}
	appLogger.Info("Dashboard API service shut down.")
}
