package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	agentapp "github.com/voxdesk/golang_services/internal/agent_config_service/app"
	"github.com/voxdesk/golang_services/internal/platform/config"
	"github.com/voxdesk/golang_services/internal/platform/database"
	"github.com/voxdesk/golang_services/internal/platform/logger"
	"github.com/voxdesk/golang_services/internal/platform/messagebroker"
	"github.com/voxdesk/golang_services/internal/settings_service/domain"
	settingsrepo "github.com/voxdesk/golang_services/internal/settings_service/repository/postgres"
)

const serviceName = "agent_config_service"

// This binary stands in for a voice agent runtime: it pulls the effective
// configuration for one phone number, then follows the phone and business
// channels and applies changes as they arrive.
func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Agent config service starting...", "agent_id", cfg.AgentID)

	phoneID, err := uuid.Parse(cfg.WatchPhoneID)
	if err != nil {
		appLogger.Error("APP_WATCH_PHONE_ID must be a valid UUID", "value", cfg.WatchPhoneID)
		os.Exit(1)
	}
	businessID, err := uuid.Parse(cfg.WatchBusinessID)
	if err != nil {
		appLogger.Error("APP_WATCH_BUSINESS_ID must be a valid UUID", "value", cfg.WatchBusinessID)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewDBPool(ctx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSUrl, serviceName, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()

	phoneRepo := settingsrepo.NewPgPhoneNumberRepository(dbPool, appLogger)
	subscriber := agentapp.NewConfigSubscriber(natsClient, phoneRepo, cfg.AgentID, appLogger)
	defer subscriber.Close()

	// Channels only carry "what changed just now": reconcile from the store
	// first so a restart never runs on stale configuration.
	agentConfig, err := subscriber.CurrentConfig(ctx, phoneID)
	if err != nil {
		appLogger.Error("Failed to load current agent config", "error", err, "phone_id", phoneID)
		os.Exit(1)
	}
	appLogger.Info("Loaded current agent config",
		"phone_id", phoneID,
		"voice_id", agentConfig.VoiceSettings.VoiceID,
		"timezone", agentConfig.Timezone)

	confirm := func(event domain.ChangeEvent, configType string) {
		if err := subscriber.ConfirmApplied(ctx, phoneID, configType); err != nil {
			appLogger.Warn("Failed to confirm applied config", "error", err, "config_type", configType)
		}
	}

	callbacks := agentapp.Callbacks{
		domain.EventVoiceSettingsUpdated: func(event domain.ChangeEvent) {
			appLogger.Info("Business voice settings changed", "payload", event.Payload)
			confirm(event, "voice_settings")
		},
		domain.EventConversationRulesUpdated: func(event domain.ChangeEvent) {
			appLogger.Info("Business conversation rules changed", "payload", event.Payload)
			confirm(event, "conversation_rules")
		},
		domain.EventPhoneVoiceSettingsUpdated: func(event domain.ChangeEvent) {
			appLogger.Info("Phone voice settings changed", "payload", event.Payload)
			confirm(event, "voice_settings")
		},
		domain.EventPhoneConversationRulesUpdated: func(event domain.ChangeEvent) {
			appLogger.Info("Phone conversation rules changed", "payload", event.Payload)
			confirm(event, "conversation_rules")
		},
		domain.EventPhoneOperatingHoursUpdated: func(event domain.ChangeEvent) {
			appLogger.Info("Phone operating hours changed", "payload", event.Payload)
			confirm(event, "operating_hours")
		},
		domain.EventPrimaryPhoneChanged: func(event domain.ChangeEvent) {
			appLogger.Info("Primary phone changed", "payload", event.Payload)
		},
	}

	subscription, err := subscriber.SubscribeToPhone(ctx, phoneID, businessID, callbacks)
	if err != nil {
		appLogger.Error("Failed to subscribe to config updates", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Watching for config updates", "phone_id", phoneID, "business_id", businessID)

	<-ctx.Done()
	appLogger.Info("Shutdown signal received")
	if err := subscription.Unsubscribe(); err != nil {
		appLogger.Warn("Unsubscribe failed", "error", err)
	}
	appLogger.Info("Agent config service shut down.")
}
