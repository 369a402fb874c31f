package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/voxdesk/golang_services/internal/settings_service/domain"
)

type PgBusinessRepository struct {
	db     Querier
	logger *slog.Logger
}

func NewPgBusinessRepository(db Querier, logger *slog.Logger) domain.BusinessRepository {
	return &PgBusinessRepository{db: db, logger: logger.With("component", "business_repository_pg")}
}

func (r *PgBusinessRepository) Create(ctx context.Context, b *domain.Business) error {
	query := `
		INSERT INTO businesses (id, owner_user_id, name, timezone, voice_settings, conversation_rules, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	vs, err := marshalNullable(b.VoiceSettings)
	if err != nil {
		return err
	}
	cr, err := marshalNullable(b.ConversationRules)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, query, b.ID, b.OwnerUserID, b.Name, b.Timezone, vs, cr, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating business", "error", err, "business_id", b.ID)
		return fmt.Errorf("failed to create business: %w", err)
	}
	r.logger.InfoContext(ctx, "Business created", "business_id", b.ID, "owner_user_id", b.OwnerUserID)
	return nil
}

func (r *PgBusinessRepository) GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*domain.Business, error) {
	query := `
		SELECT id, owner_user_id, name, timezone, voice_settings, conversation_rules, created_at, updated_at
		FROM businesses
		WHERE owner_user_id = $1
	`
	b := &domain.Business{}
	var vsRaw, crRaw []byte
	err := r.db.QueryRow(ctx, query, ownerUserID).Scan(
		&b.ID, &b.OwnerUserID, &b.Name, &b.Timezone, &vsRaw, &crRaw, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting business by owner", "error", err, "owner_user_id", ownerUserID)
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	if b.VoiceSettings, err = unmarshalNullable[domain.VoiceSettings](vsRaw); err != nil {
		return nil, err
	}
	if b.ConversationRules, err = unmarshalNullable[domain.ConversationRules](crRaw); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PgBusinessRepository) UpdateVoiceSettings(ctx context.Context, businessID, ownerUserID uuid.UUID, settings domain.VoiceSettings, updatedAt time.Time) error {
	// Ownership lives in the predicate: a foreign business reads as not found
	// and the check cannot race the write.
	query := `
		UPDATE businesses
		SET voice_settings = $1, updated_at = $2
		WHERE id = $3 AND owner_user_id = $4
	`
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal voice settings: %w", err)
	}
	tag, err := r.db.Exec(ctx, query, data, updatedAt, businessID, ownerUserID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating business voice settings", "error", err, "business_id", businessID)
		return fmt.Errorf("failed to update voice settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PgBusinessRepository) UpdateConversationRules(ctx context.Context, businessID, ownerUserID uuid.UUID, rules domain.ConversationRules, updatedAt time.Time) error {
	query := `
		UPDATE businesses
		SET conversation_rules = $1, updated_at = $2
		WHERE id = $3 AND owner_user_id = $4
	`
	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation rules: %w", err)
	}
	tag, err := r.db.Exec(ctx, query, data, updatedAt, businessID, ownerUserID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating business conversation rules", "error", err, "business_id", businessID)
		return fmt.Errorf("failed to update conversation rules: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func marshalNullable(v any) ([]byte, error) {
	switch t := v.(type) {
	case *domain.VoiceSettings:
		if t == nil {
			return nil, nil
		}
	case *domain.ConversationRules:
		if t == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	return data, nil
}

func unmarshalNullable[T any](raw []byte) (*T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return &v, nil
}
