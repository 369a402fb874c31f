package domain

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessScopeKey(t *testing.T) {
	id := uuid.New()
	key, err := BusinessScopeKey(id)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("business:%s", id), key)

	t.Run("Deterministic", func(t *testing.T) {
		again, err := BusinessScopeKey(id)
		require.NoError(t, err)
		assert.Equal(t, key, again)
	})

	t.Run("NilID", func(t *testing.T) {
		_, err := BusinessScopeKey(uuid.Nil)
		assert.ErrorIs(t, err, ErrInvalidScope)
	})
}

func TestPhoneScopeKey(t *testing.T) {
	id := uuid.New()
	key, err := PhoneScopeKey(id)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("phone:%s", id), key)

	t.Run("DistinctFromBusinessKey", func(t *testing.T) {
		businessKey, err := BusinessScopeKey(id)
		require.NoError(t, err)
		assert.NotEqual(t, key, businessKey, "same id in different scopes must not collide")
	})

	t.Run("NilID", func(t *testing.T) {
		_, err := PhoneScopeKey(uuid.Nil)
		assert.ErrorIs(t, err, ErrInvalidScope)
	})
}

func TestNewChangeEvent(t *testing.T) {
	businessID := uuid.New()
	event := NewChangeEvent(ScopeBusiness, businessID, EventVoiceSettingsUpdated, EventPayload{BusinessID: businessID})

	assert.Equal(t, ScopeBusiness, event.ScopeType)
	assert.Equal(t, businessID, event.ScopeID)
	assert.Equal(t, EventVoiceSettingsUpdated, event.Kind)
	assert.True(t, event.RequiresReload, "settings changes always tell listeners to reload")
	assert.False(t, event.Timestamp.IsZero())
}

func TestEffectiveSettingsFallBackToDefaults(t *testing.T) {
	b := NewBusiness(uuid.New(), uuid.New(), "Glow Salon", "")
	assert.Equal(t, DefaultVoiceSettings(), b.EffectiveVoiceSettings())
	assert.Equal(t, DefaultConversationRules(), b.EffectiveConversationRules())
	assert.Equal(t, "America/New_York", b.Timezone)

	saved := VoiceSettings{VoiceID: "TxGEqnHWrfWFTfGW9XjX"}
	b.VoiceSettings = &saved
	assert.Equal(t, saved, b.EffectiveVoiceSettings())
}

func TestPhoneNumberToAgentConfig(t *testing.T) {
	p := NewPhoneNumber(uuid.New(), uuid.New(), "+15551230001", "Front Desk", "America/Chicago")
	cfg := p.ToAgentConfig()

	assert.Equal(t, p.ID, cfg.PhoneID)
	assert.Equal(t, p.BusinessID, cfg.BusinessID)
	assert.Equal(t, "+15551230001", cfg.PhoneNumber)
	assert.True(t, cfg.IsActive)
	assert.Equal(t, DefaultVoiceSettings(), cfg.VoiceSettings)
	assert.Equal(t, DefaultConversationRules(), cfg.ConversationRules)
	assert.NotNil(t, cfg.OperatingHours, "snapshot serializes an empty list, not null")

	p.Status = PhoneStatusSuspended
	assert.False(t, p.ToAgentConfig().IsActive)
}
