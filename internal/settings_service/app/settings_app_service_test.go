package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/voxdesk/golang_services/internal/settings_service/domain"
)

// --- Mocks ---

type MockBusinessRepository struct {
	mock.Mock
}

func (m *MockBusinessRepository) Create(ctx context.Context, b *domain.Business) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}
func (m *MockBusinessRepository) GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*domain.Business, error) {
	args := m.Called(ctx, ownerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Business), args.Error(1)
}
func (m *MockBusinessRepository) UpdateVoiceSettings(ctx context.Context, businessID, ownerUserID uuid.UUID, settings domain.VoiceSettings, updatedAt time.Time) error {
	args := m.Called(ctx, businessID, ownerUserID, settings, updatedAt)
	return args.Error(0)
}
func (m *MockBusinessRepository) UpdateConversationRules(ctx context.Context, businessID, ownerUserID uuid.UUID, rules domain.ConversationRules, updatedAt time.Time) error {
	args := m.Called(ctx, businessID, ownerUserID, rules, updatedAt)
	return args.Error(0)
}

type MockPhoneNumberRepository struct {
	mock.Mock
}

func (m *MockPhoneNumberRepository) Create(ctx context.Context, p *domain.PhoneNumber) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPhoneNumberRepository) GetByIDAndOwner(ctx context.Context, phoneID, ownerUserID uuid.UUID) (*domain.PhoneNumber, error) {
	args := m.Called(ctx, phoneID, ownerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PhoneNumber), args.Error(1)
}
func (m *MockPhoneNumberRepository) ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]*domain.PhoneNumber, error) {
	args := m.Called(ctx, ownerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PhoneNumber), args.Error(1)
}
func (m *MockPhoneNumberRepository) UpdateVoiceSettings(ctx context.Context, phoneID, ownerUserID uuid.UUID, settings domain.VoiceSettings, updatedAt time.Time) error {
	args := m.Called(ctx, phoneID, ownerUserID, settings, updatedAt)
	return args.Error(0)
}
func (m *MockPhoneNumberRepository) UpdateConversationRules(ctx context.Context, phoneID, ownerUserID uuid.UUID, rules domain.ConversationRules, updatedAt time.Time) error {
	args := m.Called(ctx, phoneID, ownerUserID, rules, updatedAt)
	return args.Error(0)
}
func (m *MockPhoneNumberRepository) UpdateOperatingHours(ctx context.Context, phoneID, ownerUserID uuid.UUID, hours []domain.OperatingHours, updatedAt time.Time) error {
	args := m.Called(ctx, phoneID, ownerUserID, hours, updatedAt)
	return args.Error(0)
}
func (m *MockPhoneNumberRepository) SetPrimary(ctx context.Context, phoneID, ownerUserID uuid.UUID) (*domain.PhoneNumber, error) {
	args := m.Called(ctx, phoneID, ownerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PhoneNumber), args.Error(1)
}
func (m *MockPhoneNumberRepository) GetByID(ctx context.Context, phoneID uuid.UUID) (*domain.PhoneNumber, error) {
	args := m.Called(ctx, phoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PhoneNumber), args.Error(1)
}

// MockBroadcaster records every publish so tests can assert fan-out.
type MockBroadcaster struct {
	mock.Mock
	events []domain.ChangeEvent
	keys   [][]string
}

func (m *MockBroadcaster) Broadcast(ctx context.Context, event domain.ChangeEvent, scopeKeys ...string) error {
	m.events = append(m.events, event)
	m.keys = append(m.keys, scopeKeys)
	args := m.Called(ctx, event, scopeKeys)
	return args.Error(0)
}

func newTestApplication(t *testing.T) (*Application, *MockBusinessRepository, *MockPhoneNumberRepository, *MockBroadcaster) {
	t.Helper()
	businessRepo := new(MockBusinessRepository)
	phoneRepo := new(MockPhoneNumberRepository)
	broadcaster := new(MockBroadcaster)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewApplication(businessRepo, phoneRepo, broadcaster, logger), businessRepo, phoneRepo, broadcaster
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestUpdateBusinessVoiceSettings(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	businessID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		app, businessRepo, _, broadcaster := newTestApplication(t)
		business := &domain.Business{ID: businessID, OwnerUserID: ownerID}

		businessRepo.On("GetByOwner", ctx, ownerID).Return(business, nil).Once()
		businessRepo.On("UpdateVoiceSettings", ctx, businessID, ownerID,
			domain.VoiceSettings{VoiceID: "pNInz6obpgDQGcFmaJgB"}, mock.AnythingOfType("time.Time")).Return(nil).Once()
		broadcaster.On("Broadcast", ctx, mock.AnythingOfType("domain.ChangeEvent"), mock.Anything).Return(nil).Once()

		settings, sent, err := app.UpdateBusinessVoiceSettings(ctx, ownerID, domain.VoiceSettingsPatch{VoiceID: strPtr("pNInz6obpgDQGcFmaJgB")})
		require.NoError(t, err)
		assert.True(t, sent)
		assert.Equal(t, "pNInz6obpgDQGcFmaJgB", settings.VoiceID)

		require.Len(t, broadcaster.events, 1)
		event := broadcaster.events[0]
		assert.Equal(t, domain.EventVoiceSettingsUpdated, event.Kind)
		assert.Equal(t, businessID, event.ScopeID)
		assert.True(t, event.RequiresReload)
		require.Len(t, broadcaster.keys, 1)
		assert.Equal(t, []string{"business:" + businessID.String()}, broadcaster.keys[0])

		businessRepo.AssertExpectations(t)
		broadcaster.AssertExpectations(t)
	})

	t.Run("InvalidVoiceRejectedBeforeAnyRead", func(t *testing.T) {
		app, businessRepo, _, broadcaster := newTestApplication(t)

		_, _, err := app.UpdateBusinessVoiceSettings(ctx, ownerID, domain.VoiceSettingsPatch{VoiceID: strPtr("bogus")})
		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "Invalid voice ID", vErr.Reason)

		businessRepo.AssertNotCalled(t, "GetByOwner", mock.Anything, mock.Anything)
		businessRepo.AssertNotCalled(t, "UpdateVoiceSettings", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("BroadcastFailureDoesNotFailUpdate", func(t *testing.T) {
		app, businessRepo, _, broadcaster := newTestApplication(t)
		business := &domain.Business{ID: businessID, OwnerUserID: ownerID}

		businessRepo.On("GetByOwner", ctx, ownerID).Return(business, nil).Once()
		businessRepo.On("UpdateVoiceSettings", ctx, businessID, ownerID,
			mock.AnythingOfType("domain.VoiceSettings"), mock.AnythingOfType("time.Time")).Return(nil).Once()
		broadcaster.On("Broadcast", ctx, mock.AnythingOfType("domain.ChangeEvent"), mock.Anything).
			Return(errors.New("broker down")).Once()

		settings, sent, err := app.UpdateBusinessVoiceSettings(ctx, ownerID, domain.VoiceSettingsPatch{VoiceID: strPtr("MF3mGyEYCl7XYWbV9V6O")})
		require.NoError(t, err, "the durable write already committed; broadcast failure is advisory")
		assert.False(t, sent)
		assert.Equal(t, "MF3mGyEYCl7XYWbV9V6O", settings.VoiceID)
	})

	t.Run("ForeignOwnerIsNotFound", func(t *testing.T) {
		app, businessRepo, _, broadcaster := newTestApplication(t)
		businessRepo.On("GetByOwner", ctx, ownerID).Return(nil, domain.ErrNotFound).Once()

		_, _, err := app.UpdateBusinessVoiceSettings(ctx, ownerID, domain.VoiceSettingsPatch{VoiceID: strPtr("pNInz6obpgDQGcFmaJgB")})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUpdateBusinessConversationRules(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	businessID := uuid.New()

	t.Run("PartialPatchMergesOntoStoredRules", func(t *testing.T) {
		app, businessRepo, _, broadcaster := newTestApplication(t)
		stored := domain.ConversationRules{
			AllowMultipleServices: false,
			AllowCancellations:    true,
			AllowRescheduling:     true,
			NoShowBlockEnabled:    false,
			NoShowThreshold:       3,
		}
		business := &domain.Business{ID: businessID, OwnerUserID: ownerID, ConversationRules: &stored}

		expected := stored
		expected.NoShowBlockEnabled = true
		expected.NoShowThreshold = 5

		businessRepo.On("GetByOwner", ctx, ownerID).Return(business, nil).Once()
		businessRepo.On("UpdateConversationRules", ctx, businessID, ownerID, expected, mock.AnythingOfType("time.Time")).Return(nil).Once()
		broadcaster.On("Broadcast", ctx, mock.AnythingOfType("domain.ChangeEvent"), mock.Anything).Return(nil).Once()

		rules, sent, err := app.UpdateBusinessConversationRules(ctx, ownerID, domain.ConversationRulesPatch{
			NoShowBlockEnabled: func() *bool { b := true; return &b }(),
			NoShowThreshold:    intPtr(5),
		})
		require.NoError(t, err)
		assert.True(t, sent)
		assert.Equal(t, expected, rules)
		assert.False(t, rules.AllowMultipleServices, "stored override must survive the merge")
		businessRepo.AssertExpectations(t)
	})

	t.Run("ThresholdOutOfRangePersistsNothing", func(t *testing.T) {
		app, businessRepo, _, broadcaster := newTestApplication(t)

		_, _, err := app.UpdateBusinessConversationRules(ctx, ownerID, domain.ConversationRulesPatch{NoShowThreshold: intPtr(11)})
		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "No-show threshold must be between 1 and 10", vErr.Reason)

		businessRepo.AssertNotCalled(t, "UpdateConversationRules", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("EmptyPatchStillBroadcasts", func(t *testing.T) {
		// A no-op write is indistinguishable from a real one at this layer;
		// listeners reconcile from the store either way.
		app, businessRepo, _, broadcaster := newTestApplication(t)
		business := &domain.Business{ID: businessID, OwnerUserID: ownerID}

		businessRepo.On("GetByOwner", ctx, ownerID).Return(business, nil).Once()
		businessRepo.On("UpdateConversationRules", ctx, businessID, ownerID,
			domain.DefaultConversationRules(), mock.AnythingOfType("time.Time")).Return(nil).Once()
		broadcaster.On("Broadcast", ctx, mock.AnythingOfType("domain.ChangeEvent"), mock.Anything).Return(nil).Once()

		rules, sent, err := app.UpdateBusinessConversationRules(ctx, ownerID, domain.ConversationRulesPatch{})
		require.NoError(t, err)
		assert.True(t, sent)
		assert.Equal(t, domain.DefaultConversationRules(), rules)
		broadcaster.AssertExpectations(t)
	})
}

func TestUpdatePhoneVoiceSettings(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	businessID := uuid.New()
	phoneID := uuid.New()

	t.Run("FansOutToPhoneAndBusinessChannels", func(t *testing.T) {
		app, _, phoneRepo, broadcaster := newTestApplication(t)
		phone := domain.NewPhoneNumber(phoneID, businessID, "+15551230001", "Front Desk", "")

		phoneRepo.On("GetByIDAndOwner", ctx, phoneID, ownerID).Return(phone, nil).Once()
		phoneRepo.On("UpdateVoiceSettings", ctx, phoneID, ownerID,
			domain.VoiceSettings{VoiceID: "ErXwobaYiN019PkySvjV"}, mock.AnythingOfType("time.Time")).Return(nil).Once()
		broadcaster.On("Broadcast", ctx, mock.AnythingOfType("domain.ChangeEvent"), mock.Anything).Return(nil).Once()

		settings, sent, err := app.UpdatePhoneVoiceSettings(ctx, ownerID, phoneID, domain.VoiceSettingsPatch{VoiceID: strPtr("ErXwobaYiN019PkySvjV")})
		require.NoError(t, err)
		assert.True(t, sent)
		assert.Equal(t, "ErXwobaYiN019PkySvjV", settings.VoiceID)

		require.Len(t, broadcaster.keys, 1)
		assert.Equal(t, []string{
			"phone:" + phoneID.String(),
			"business:" + businessID.String(),
		}, broadcaster.keys[0], "phone changes reach both the phone channel and the business channel")

		event := broadcaster.events[0]
		assert.Equal(t, domain.EventPhoneVoiceSettingsUpdated, event.Kind)
		require.NotNil(t, event.Payload.PhoneID)
		assert.Equal(t, phoneID, *event.Payload.PhoneID)
		assert.Equal(t, businessID, event.Payload.BusinessID)
	})

	t.Run("ForeignPhoneIsNotFound", func(t *testing.T) {
		app, _, phoneRepo, broadcaster := newTestApplication(t)
		phoneRepo.On("GetByIDAndOwner", ctx, phoneID, ownerID).Return(nil, domain.ErrNotFound).Once()

		_, _, err := app.UpdatePhoneVoiceSettings(ctx, ownerID, phoneID, domain.VoiceSettingsPatch{VoiceID: strPtr("ErXwobaYiN019PkySvjV")})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReplaceOperatingHours(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	businessID := uuid.New()
	phoneID := uuid.New()

	validWeek := []domain.OperatingHours{
		{DayOfWeek: 1, OpenTime: "09:00", CloseTime: "17:00"},
		{DayOfWeek: 0, IsClosed: true},
	}

	t.Run("Success", func(t *testing.T) {
		app, _, phoneRepo, broadcaster := newTestApplication(t)
		phone := domain.NewPhoneNumber(phoneID, businessID, "+15551230001", "Front Desk", "America/Chicago")

		phoneRepo.On("GetByIDAndOwner", ctx, phoneID, ownerID).Return(phone, nil).Once()
		phoneRepo.On("UpdateOperatingHours", ctx, phoneID, ownerID, validWeek, mock.AnythingOfType("time.Time")).Return(nil).Once()
		broadcaster.On("Broadcast", ctx, mock.AnythingOfType("domain.ChangeEvent"), mock.Anything).Return(nil).Once()

		hours, sent, err := app.ReplaceOperatingHours(ctx, ownerID, phoneID, validWeek)
		require.NoError(t, err)
		assert.True(t, sent)
		assert.Equal(t, validWeek, hours)

		event := broadcaster.events[0]
		assert.Equal(t, domain.EventPhoneOperatingHoursUpdated, event.Kind)
		assert.Equal(t, "America/Chicago", event.Payload.Timezone)
	})

	t.Run("InvalidEntryRejectsWholeList", func(t *testing.T) {
		app, _, phoneRepo, _ := newTestApplication(t)

		bad := append([]domain.OperatingHours{}, validWeek...)
		bad = append(bad, domain.OperatingHours{DayOfWeek: 9, OpenTime: "09:00", CloseTime: "17:00"})

		_, _, err := app.ReplaceOperatingHours(ctx, ownerID, phoneID, bad)
		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		phoneRepo.AssertNotCalled(t, "UpdateOperatingHours", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSetPrimaryPhone(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	businessID := uuid.New()
	phoneID := uuid.New()

	app, _, phoneRepo, broadcaster := newTestApplication(t)
	phone := domain.NewPhoneNumber(phoneID, businessID, "+15551230001", "Front Desk", "")
	phone.IsPrimary = true

	phoneRepo.On("SetPrimary", ctx, phoneID, ownerID).Return(phone, nil).Once()
	broadcaster.On("Broadcast", ctx, mock.AnythingOfType("domain.ChangeEvent"), mock.Anything).Return(nil).Once()

	updated, sent, err := app.SetPrimaryPhone(ctx, ownerID, phoneID)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.True(t, updated.IsPrimary)

	event := broadcaster.events[0]
	assert.Equal(t, domain.EventPrimaryPhoneChanged, event.Kind)
	assert.Equal(t, domain.ScopeBusiness, event.ScopeType)
	require.Len(t, broadcaster.keys, 1)
	assert.Len(t, broadcaster.keys[0], 2)
}

func TestGetPhoneOperatingHours(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	phoneID := uuid.New()

	app, _, phoneRepo, _ := newTestApplication(t)
	phone := domain.NewPhoneNumber(phoneID, uuid.New(), "+15551230001", "Front Desk", "America/Denver")

	phoneRepo.On("GetByIDAndOwner", ctx, phoneID, ownerID).Return(phone, nil).Once()

	hours, timezone, err := app.GetPhoneOperatingHours(ctx, ownerID, phoneID)
	require.NoError(t, err)
	assert.Equal(t, "America/Denver", timezone)
	assert.NotNil(t, hours, "unset schedule reads as an empty list")
	assert.Empty(t, hours)
}
