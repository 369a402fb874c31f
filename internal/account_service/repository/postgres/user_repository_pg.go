package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/voxdesk/golang_services/internal/account_service/domain"
	"github.com/voxdesk/golang_services/internal/account_service/repository"
)

// Querier is the slice of pgxpool.Pool this repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgUserRepository struct {
	db     Querier
	logger *slog.Logger
}

func NewPgUserRepository(db Querier, logger *slog.Logger) repository.UserRepository {
	return &PgUserRepository{db: db, logger: logger.With("component", "user_repository_pg")}
}

func (r *PgUserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, hashed_password, name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, user.ID, user.Email, user.HashedPassword, user.Name, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return repository.ErrDuplicateUser
		}
		r.logger.ErrorContext(ctx, "Error creating user", "error", err, "email", user.Email)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, hashed_password, name, created_at
		FROM users
		WHERE email = $1
	`
	user := &domain.User{}
	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.HashedPassword, &user.Name, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting user by email", "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, email, hashed_password, name, created_at
		FROM users
		WHERE id = $1
	`
	user := &domain.User{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.HashedPassword, &user.Name, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting user by id", "error", err, "user_id", id)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
