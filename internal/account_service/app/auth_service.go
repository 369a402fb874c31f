package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	accountdomain "github.com/voxdesk/golang_services/internal/account_service/domain"
	"github.com/voxdesk/golang_services/internal/account_service/repository"
	settingsdomain "github.com/voxdesk/golang_services/internal/settings_service/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
)

func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type AuthConfig struct {
	JWTAccessSecret      string
	JWTAccessExpiryHours int
}

// AuthService registers dashboard users and issues access tokens. A signup
// creates the user and their business in one call; the business row is what
// every later tenant check resolves against.
type AuthService struct {
	userRepo     repository.UserRepository
	businessRepo settingsdomain.BusinessRepository
	config       AuthConfig
	logger       *slog.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	businessRepo settingsdomain.BusinessRepository,
	config AuthConfig,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		businessRepo: businessRepo,
		config:       config,
		logger:       logger,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, name, businessName string) (*accountdomain.User, *settingsdomain.Business, error) {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, nil, ErrEmailExists
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		s.logger.ErrorContext(ctx, "Error checking email existence", "error", err)
		return nil, nil, err
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to hash password", "error", err)
		return nil, nil, errors.New("failed to process registration")
	}

	user := accountdomain.NewUser(uuid.New(), email, hashedPassword, name)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, nil, ErrEmailExists
		}
		s.logger.ErrorContext(ctx, "Failed to create user", "error", err)
		return nil, nil, err
	}

	business := settingsdomain.NewBusiness(uuid.New(), user.ID, businessName, "")
	if err := s.businessRepo.Create(ctx, business); err != nil {
		s.logger.ErrorContext(ctx, "Failed to create business for new user", "error", err, "user_id", user.ID)
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "User registered", "user_id", user.ID, "business_id", business.ID)
	return user, business, nil
}

type accessClaims struct {
	jwt.RegisteredClaims
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, err
	}

	if !CheckPasswordHash(password, user.HashedPassword) {
		s.logger.WarnContext(ctx, "Login failed: bad password", "user_id", user.ID)
		return "", time.Time{}, ErrInvalidCredentials
	}

	expiresAt := time.Now().UTC().Add(time.Duration(s.config.JWTAccessExpiryHours) * time.Hour)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTAccessSecret))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to sign access token", "error", err)
		return "", time.Time{}, err
	}

	s.logger.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return signed, expiresAt, nil
}

// ValidateAccessToken parses and verifies a bearer token, returning the
// principal's user id.
func (s *AuthService) ValidateAccessToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTAccessSecret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*accessClaims)
	if !ok {
		return uuid.Nil, ErrTokenInvalid
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	return userID, nil
}
