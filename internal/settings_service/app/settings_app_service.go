package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/voxdesk/golang_services/internal/settings_service/domain"
)

// Application implements the config store accessor and wires the change
// broadcaster behind every mutation. All reads and writes are scoped by the
// acting principal; a resource owned by another tenant is a not-found.
type Application struct {
	businessRepo domain.BusinessRepository
	phoneRepo    domain.PhoneNumberRepository
	broadcaster  Broadcaster
	logger       *slog.Logger
}

func NewApplication(
	businessRepo domain.BusinessRepository,
	phoneRepo domain.PhoneNumberRepository,
	broadcaster Broadcaster,
	logger *slog.Logger,
) *Application {
	return &Application{
		businessRepo: businessRepo,
		phoneRepo:    phoneRepo,
		broadcaster:  broadcaster,
		logger:       logger,
	}
}

// broadcast fans the event out and reports whether the live update went out.
// Publish failures never propagate: the store write is the authoritative
// operation and has already committed.
func (a *Application) broadcast(ctx context.Context, event domain.ChangeEvent, scopeKeys ...string) bool {
	if err := a.broadcaster.Broadcast(ctx, event, scopeKeys...); err != nil {
		a.logger.ErrorContext(ctx, "Real-time update failed to send; settings write already committed",
			"error", err, "kind", event.Kind, "scope_id", event.ScopeID)
		return false
	}
	return true
}

// businessScopeKeys returns the fan-out targets for a business-level change.
func businessScopeKeys(businessID uuid.UUID) ([]string, error) {
	key, err := domain.BusinessScopeKey(businessID)
	if err != nil {
		return nil, err
	}
	return []string{key}, nil
}

// phoneScopeKeys returns the fan-out targets for a phone-level change: the
// phone channel plus the business-wide channel, so coarse-grained listeners
// still observe phone-level changes.
func phoneScopeKeys(phoneID, businessID uuid.UUID) ([]string, error) {
	phoneKey, err := domain.PhoneScopeKey(phoneID)
	if err != nil {
		return nil, err
	}
	businessKey, err := domain.BusinessScopeKey(businessID)
	if err != nil {
		return nil, err
	}
	return []string{phoneKey, businessKey}, nil
}

// --- Business-level settings ---

func (a *Application) GetBusinessVoiceSettings(ctx context.Context, ownerUserID uuid.UUID) (domain.VoiceSettings, error) {
	b, err := a.businessRepo.GetByOwner(ctx, ownerUserID)
	if err != nil {
		return domain.VoiceSettings{}, err
	}
	return b.EffectiveVoiceSettings(), nil
}

func (a *Application) UpdateBusinessVoiceSettings(ctx context.Context, ownerUserID uuid.UUID, patch domain.VoiceSettingsPatch) (domain.VoiceSettings, bool, error) {
	timer := time.Now()
	defer func() {
		updateDurationHist.WithLabelValues(string(domain.EventVoiceSettingsUpdated)).Observe(time.Since(timer).Seconds())
	}()

	if err := patch.Validate(); err != nil {
		settingsUpdatesCounter.WithLabelValues(string(domain.EventVoiceSettingsUpdated), "error_validation").Inc()
		return domain.VoiceSettings{}, false, err
	}

	b, err := a.businessRepo.GetByOwner(ctx, ownerUserID)
	if err != nil {
		return domain.VoiceSettings{}, false, err
	}

	merged := b.EffectiveVoiceSettings().Merge(patch)
	if err := a.businessRepo.UpdateVoiceSettings(ctx, b.ID, ownerUserID, merged, time.Now().UTC()); err != nil {
		settingsUpdatesCounter.WithLabelValues(string(domain.EventVoiceSettingsUpdated), "error_storage").Inc()
		return domain.VoiceSettings{}, false, err
	}
	settingsUpdatesCounter.WithLabelValues(string(domain.EventVoiceSettingsUpdated), "success").Inc()

	keys, err := businessScopeKeys(b.ID)
	if err != nil {
		return merged, false, nil
	}
	event := domain.NewChangeEvent(domain.ScopeBusiness, b.ID, domain.EventVoiceSettingsUpdated, domain.EventPayload{
		BusinessID: b.ID,
		Settings:   &merged,
	})
	sent := a.broadcast(ctx, event, keys...)
	a.logger.InfoContext(ctx, "Business voice settings updated",
		"business_id", b.ID, "voice_id", merged.VoiceID, "real_time_update", sent)
	return merged, sent, nil
}

func (a *Application) GetBusinessConversationRules(ctx context.Context, ownerUserID uuid.UUID) (domain.ConversationRules, error) {
	b, err := a.businessRepo.GetByOwner(ctx, ownerUserID)
	if err != nil {
		return domain.ConversationRules{}, err
	}
	return b.EffectiveConversationRules(), nil
}

func (a *Application) UpdateBusinessConversationRules(ctx context.Context, ownerUserID uuid.UUID, patch domain.ConversationRulesPatch) (domain.ConversationRules, bool, error) {
	timer := time.Now()
	defer func() {
		updateDurationHist.WithLabelValues(string(domain.EventConversationRulesUpdated)).Observe(time.Since(timer).Seconds())
	}()

	if err := patch.Validate(); err != nil {
		settingsUpdatesCounter.WithLabelValues(string(domain.EventConversationRulesUpdated), "error_validation").Inc()
		return domain.ConversationRules{}, false, err
	}

	b, err := a.businessRepo.GetByOwner(ctx, ownerUserID)
	if err != nil {
		return domain.ConversationRules{}, false, err
	}

	merged := b.EffectiveConversationRules().Merge(patch)
	if err := a.businessRepo.UpdateConversationRules(ctx, b.ID, ownerUserID, merged, time.Now().UTC()); err != nil {
		settingsUpdatesCounter.WithLabelValues(string(domain.EventConversationRulesUpdated), "error_storage").Inc()
		return domain.ConversationRules{}, false, err
	}
	settingsUpdatesCounter.WithLabelValues(string(domain.EventConversationRulesUpdated), "success").Inc()

	keys, err := businessScopeKeys(b.ID)
	if err != nil {
		return merged, false, nil
	}
	event := domain.NewChangeEvent(domain.ScopeBusiness, b.ID, domain.EventConversationRulesUpdated, domain.EventPayload{
		BusinessID: b.ID,
		Rules:      &merged,
	})
	sent := a.broadcast(ctx, event, keys...)
	a.logger.InfoContext(ctx, "Business conversation rules updated",
		"business_id", b.ID, "real_time_update", sent)
	return merged, sent, nil
}

// --- Phone-level settings ---

func (a *Application) ListPhones(ctx context.Context, ownerUserID uuid.UUID) ([]*domain.PhoneNumber, error) {
	return a.phoneRepo.ListByOwner(ctx, ownerUserID)
}

func (a *Application) GetPhoneVoiceSettings(ctx context.Context, ownerUserID, phoneID uuid.UUID) (domain.VoiceSettings, error) {
	p, err := a.phoneRepo.GetByIDAndOwner(ctx, phoneID, ownerUserID)
	if err != nil {
		return domain.VoiceSettings{}, err
	}
	return p.EffectiveVoiceSettings(), nil
}

func (a *Application) UpdatePhoneVoiceSettings(ctx context.Context, ownerUserID, phoneID uuid.UUID, patch domain.VoiceSettingsPatch) (domain.VoiceSettings, bool, error) {
	timer := time.Now()
	defer func() {
		updateDurationHist.WithLabelValues(string(domain.EventPhoneVoiceSettingsUpdated)).Observe(time.Since(timer).Seconds())
	}()

	if err := patch.Validate(); err != nil {
		settingsUpdatesCounter.WithLabelValues(string(domain.EventPhoneVoiceSettingsUpdated), "error_validation").Inc()
		return domain.VoiceSettings{}, false, err
	}

	p, err := a.phoneRepo.GetByIDAndOwner(ctx, phoneID, ownerUserID)
	if err != nil {
		return domain.VoiceSettings{}, false, err
	}

	merged := p.EffectiveVoiceSettings().Merge(patch)
	if err := a.phoneRepo.UpdateVoiceSettings(ctx, phoneID, ownerUserID, merged, time.Now().UTC()); err != nil {
		settingsUpdatesCounter.WithLabelValues(string(domain.EventPhoneVoiceSettingsUpdated), "error_storage").Inc()
		return domain.VoiceSettings{}, false, err
	}
	settingsUpdatesCounter.WithLabelValues(string(domain.EventPhoneVoiceSettingsUpdated), "success").Inc()

	keys, err := phoneScopeKeys(phoneID, p.BusinessID)
	if err != nil {
		return merged, false, nil
	}
	pid := phoneID
	event := domain.NewChangeEvent(domain.ScopePhone, phoneID, domain.EventPhoneVoiceSettingsUpdated, domain.EventPayload{
		BusinessID: p.BusinessID,
		PhoneID:    &pid,
		Settings:   &merged,
	})
	sent := a.broadcast(ctx, event, keys...)
	a.logger.InfoContext(ctx, "Phone voice settings updated",
		"phone_id", phoneID, "business_id", p.BusinessID, "voice_id", merged.VoiceID, "real_time_update", sent)
	return merged, sent, nil
}

func (a *Application) GetPhoneConversationRules(ctx context.Context, ownerUserID, phoneID uuid.UUID) (domain.ConversationRules, error) {
	p, err := a.phoneRepo.GetByIDAndOwner(ctx, phoneID, ownerUserID)
	if err != nil {
		return domain.ConversationRules{}, err
	}
	return p.EffectiveConversationRules(), nil
}

func (a *Application) UpdatePhoneConversationRules(ctx context.Context, ownerUserID, phoneID uuid.UUID, patch domain.ConversationRulesPatch) (domain.ConversationRules, bool, error) {
	timer := time.Now()
	defer func() {
		updateDurationHist.WithLabelValues(string(domain.EventPhoneConversationRulesUpdated)).Observe(time.Since(timer).Seconds())
	}()

	if err := patch.Validate(); err != nil {
		settingsUpdatesCounter.WithLabelValues(string(domain.EventPhoneConversationRulesUpdated), "error_validation").Inc()
		return domain.ConversationRules{}, false, err
	}

	p, err := a.phoneRepo.GetByIDAndOwner(ctx, phoneID, ownerUserID)
	if err != nil {
		return domain.ConversationRules{}, false, err
	}

	merged := p.EffectiveConversationRules().Merge(patch)
	if err := a.phoneRepo.UpdateConversationRules(ctx, phoneID, ownerUserID, merged, time.Now().UTC()); err != nil {
		settingsUpdatesCounter.WithLabelValues(string(domain.EventPhoneConversationRulesUpdated), "error_storage").Inc()
		return domain.ConversationRules{}, false, err
	}
	settingsUpdatesCounter.WithLabelValues(string(domain.EventPhoneConversationRulesUpdated), "success").Inc()

	keys, err := phoneScopeKeys(phoneID, p.BusinessID)
	if err != nil {
		return merged, false, nil
	}
	pid := phoneID
	event := domain.NewChangeEvent(domain.ScopePhone, phoneID, domain.EventPhoneConversationRulesUpdated, domain.EventPayload{
		BusinessID: p.BusinessID,
		PhoneID:    &pid,
		Rules:      &merged,
	})
	sent := a.broadcast(ctx, event, keys...)
	a.logger.InfoContext(ctx, "Phone conversation rules updated",
		"phone_id", phoneID, "business_id", p.BusinessID, "real_time_update", sent)
	return merged, sent, nil
}

func (a *Application) GetPhoneOperatingHours(ctx context.Context, ownerUserID, phoneID uuid.UUID) ([]domain.OperatingHours, string, error) {
	p, err := a.phoneRepo.GetByIDAndOwner(ctx, phoneID, ownerUserID)
	if err != nil {
		return nil, "", err
	}
	hours := p.OperatingHours
	if hours == nil {
		hours = []domain.OperatingHours{}
	}
	return hours, p.Timezone, nil
}

// ReplaceOperatingHours replaces the full weekly schedule; operating hours are
// not merged per-day, the client always sends the complete list.
func (a *Application) ReplaceOperatingHours(ctx context.Context, ownerUserID, phoneID uuid.UUID, hours []domain.OperatingHours) ([]domain.OperatingHours, bool, error) {
	timer := time.Now()
	defer func() {
		updateDurationHist.WithLabelValues(string(domain.EventPhoneOperatingHoursUpdated)).Observe(time.Since(timer).Seconds())
	}()

	if err := domain.ValidateOperatingHours(hours); err != nil {
		settingsUpdatesCounter.WithLabelValues(string(domain.EventPhoneOperatingHoursUpdated), "error_validation").Inc()
		return nil, false, err
	}

	p, err := a.phoneRepo.GetByIDAndOwner(ctx, phoneID, ownerUserID)
	if err != nil {
		return nil, false, err
	}

	if err := a.phoneRepo.UpdateOperatingHours(ctx, phoneID, ownerUserID, hours, time.Now().UTC()); err != nil {
		settingsUpdatesCounter.WithLabelValues(string(domain.EventPhoneOperatingHoursUpdated), "error_storage").Inc()
		return nil, false, err
	}
	settingsUpdatesCounter.WithLabelValues(string(domain.EventPhoneOperatingHoursUpdated), "success").Inc()

	keys, err := phoneScopeKeys(phoneID, p.BusinessID)
	if err != nil {
		return hours, false, nil
	}
	pid := phoneID
	event := domain.NewChangeEvent(domain.ScopePhone, phoneID, domain.EventPhoneOperatingHoursUpdated, domain.EventPayload{
		BusinessID:     p.BusinessID,
		PhoneID:        &pid,
		OperatingHours: hours,
		Timezone:       p.Timezone,
	})
	sent := a.broadcast(ctx, event, keys...)
	a.logger.InfoContext(ctx, "Phone operating hours updated",
		"phone_id", phoneID, "business_id", p.BusinessID, "real_time_update", sent)
	return hours, sent, nil
}

// SetPrimaryPhone promotes phoneID to the business's primary number. The
// previous primary is cleared in the same transaction.
func (a *Application) SetPrimaryPhone(ctx context.Context, ownerUserID, phoneID uuid.UUID) (*domain.PhoneNumber, bool, error) {
	p, err := a.phoneRepo.SetPrimary(ctx, phoneID, ownerUserID)
	if err != nil {
		settingsUpdatesCounter.WithLabelValues(string(domain.EventPrimaryPhoneChanged), "error_storage").Inc()
		return nil, false, err
	}
	settingsUpdatesCounter.WithLabelValues(string(domain.EventPrimaryPhoneChanged), "success").Inc()

	keys, err := phoneScopeKeys(phoneID, p.BusinessID)
	if err != nil {
		return p, false, nil
	}
	pid := phoneID
	event := domain.NewChangeEvent(domain.ScopeBusiness, p.BusinessID, domain.EventPrimaryPhoneChanged, domain.EventPayload{
		BusinessID: p.BusinessID,
		PhoneID:    &pid,
	})
	sent := a.broadcast(ctx, event, keys...)
	a.logger.InfoContext(ctx, "Primary phone changed",
		"phone_id", phoneID, "business_id", p.BusinessID, "real_time_update", sent)
	return p, sent, nil
}

// GetAgentConfig is the dashboard-side view of the snapshot a voice agent
// pulls on connect.
func (a *Application) GetAgentConfig(ctx context.Context, ownerUserID, phoneID uuid.UUID) (domain.AgentConfig, error) {
	p, err := a.phoneRepo.GetByIDAndOwner(ctx, phoneID, ownerUserID)
	if err != nil {
		return domain.AgentConfig{}, err
	}
	return p.ToAgentConfig(), nil
}
