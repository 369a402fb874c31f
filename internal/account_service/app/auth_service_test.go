package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accountdomain "github.com/voxdesk/golang_services/internal/account_service/domain"
	"github.com/voxdesk/golang_services/internal/account_service/repository"
	settingsdomain "github.com/voxdesk/golang_services/internal/settings_service/domain"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *accountdomain.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*accountdomain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountdomain.User), args.Error(1)
}
func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*accountdomain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountdomain.User), args.Error(1)
}

type MockBusinessRepository struct {
	mock.Mock
}

func (m *MockBusinessRepository) Create(ctx context.Context, b *settingsdomain.Business) error {
	return m.Called(ctx, b).Error(0)
}
func (m *MockBusinessRepository) GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*settingsdomain.Business, error) {
	args := m.Called(ctx, ownerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settingsdomain.Business), args.Error(1)
}
func (m *MockBusinessRepository) UpdateVoiceSettings(ctx context.Context, businessID, ownerUserID uuid.UUID, settings settingsdomain.VoiceSettings, updatedAt time.Time) error {
	return m.Called(ctx, businessID, ownerUserID, settings, updatedAt).Error(0)
}
func (m *MockBusinessRepository) UpdateConversationRules(ctx context.Context, businessID, ownerUserID uuid.UUID, rules settingsdomain.ConversationRules, updatedAt time.Time) error {
	return m.Called(ctx, businessID, ownerUserID, rules, updatedAt).Error(0)
}

func newTestAuthService(t *testing.T) (*AuthService, *MockUserRepository, *MockBusinessRepository) {
	t.Helper()
	userRepo := new(MockUserRepository)
	businessRepo := new(MockBusinessRepository)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewAuthService(userRepo, businessRepo, AuthConfig{
		JWTAccessSecret:      "test-secret",
		JWTAccessExpiryHours: 1,
	}, logger)
	return svc, userRepo, businessRepo
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesUserAndBusiness", func(t *testing.T) {
		svc, userRepo, businessRepo := newTestAuthService(t)

		userRepo.On("GetByEmail", ctx, "owner@example.com").Return(nil, repository.ErrUserNotFound).Once()
		userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil).Once()
		businessRepo.On("Create", ctx, mock.AnythingOfType("*domain.Business")).Return(nil).Once()

		user, business, err := svc.Register(ctx, "owner@example.com", "s3cretpass", "Ada", "Glow Salon")
		require.NoError(t, err)
		assert.Equal(t, "owner@example.com", user.Email)
		assert.NotEqual(t, "s3cretpass", user.HashedPassword, "password must be stored hashed")
		assert.Equal(t, user.ID, business.OwnerUserID)
		assert.Equal(t, "Glow Salon", business.Name)
		userRepo.AssertExpectations(t)
		businessRepo.AssertExpectations(t)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		svc, userRepo, _ := newTestAuthService(t)
		existing := accountdomain.NewUser(uuid.New(), "owner@example.com", "hash", "Ada")
		userRepo.On("GetByEmail", ctx, "owner@example.com").Return(existing, nil).Once()

		_, _, err := svc.Register(ctx, "owner@example.com", "s3cretpass", "Ada", "Glow Salon")
		assert.ErrorIs(t, err, ErrEmailExists)
	})
}

func TestAuthService_LoginAndValidate(t *testing.T) {
	ctx := context.Background()

	hashed, err := HashPassword("s3cretpass")
	require.NoError(t, err)
	user := accountdomain.NewUser(uuid.New(), "owner@example.com", hashed, "Ada")

	t.Run("RoundTrip", func(t *testing.T) {
		svc, userRepo, _ := newTestAuthService(t)
		userRepo.On("GetByEmail", ctx, "owner@example.com").Return(user, nil).Once()

		token, expiresAt, err := svc.Login(ctx, "owner@example.com", "s3cretpass")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.True(t, expiresAt.After(time.Now()))

		userID, err := svc.ValidateAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, userID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		svc, userRepo, _ := newTestAuthService(t)
		userRepo.On("GetByEmail", ctx, "owner@example.com").Return(user, nil).Once()

		_, _, err := svc.Login(ctx, "owner@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		svc, userRepo, _ := newTestAuthService(t)
		userRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, repository.ErrUserNotFound).Once()

		_, _, err := svc.Login(ctx, "ghost@example.com", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("TamperedToken", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		_, err := svc.ValidateAccessToken("not.a.token")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		svc, userRepo, _ := newTestAuthService(t)
		userRepo.On("GetByEmail", ctx, "owner@example.com").Return(user, nil).Once()
		token, _, err := svc.Login(ctx, "owner@example.com", "s3cretpass")
		require.NoError(t, err)

		other, _, _ := newTestAuthService(t)
		other.config.JWTAccessSecret = "different-secret"
		_, err = other.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cretpass")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cretpass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
