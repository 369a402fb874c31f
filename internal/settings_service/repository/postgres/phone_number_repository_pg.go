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

type PgPhoneNumberRepository struct {
	db     Querier
	logger *slog.Logger
}

func NewPgPhoneNumberRepository(db Querier, logger *slog.Logger) domain.PhoneNumberRepository {
	return &PgPhoneNumberRepository{db: db, logger: logger.With("component", "phone_number_repository_pg")}
}

const phoneColumns = `p.id, p.business_id, p.phone_number, p.display_name, p.timezone, p.status, p.is_primary,
		p.voice_settings, p.conversation_rules, p.operating_hours, p.created_at, p.updated_at`

func (r *PgPhoneNumberRepository) scanPhone(row pgx.Row) (*domain.PhoneNumber, error) {
	p := &domain.PhoneNumber{}
	var vsRaw, crRaw, ohRaw []byte
	err := row.Scan(
		&p.ID, &p.BusinessID, &p.PhoneNumber, &p.DisplayName, &p.Timezone, &p.Status, &p.IsPrimary,
		&vsRaw, &crRaw, &ohRaw, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.VoiceSettings, err = unmarshalNullable[domain.VoiceSettings](vsRaw); err != nil {
		return nil, err
	}
	if p.ConversationRules, err = unmarshalNullable[domain.ConversationRules](crRaw); err != nil {
		return nil, err
	}
	if len(ohRaw) > 0 {
		if err := json.Unmarshal(ohRaw, &p.OperatingHours); err != nil {
			return nil, fmt.Errorf("failed to unmarshal operating hours: %w", err)
		}
	}
	return p, nil
}

func (r *PgPhoneNumberRepository) Create(ctx context.Context, p *domain.PhoneNumber) error {
	query := `
		INSERT INTO phone_numbers (id, business_id, phone_number, display_name, timezone, status, is_primary,
			voice_settings, conversation_rules, operating_hours, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	vs, err := marshalNullable(p.VoiceSettings)
	if err != nil {
		return err
	}
	cr, err := marshalNullable(p.ConversationRules)
	if err != nil {
		return err
	}
	oh, err := json.Marshal(p.OperatingHours)
	if err != nil {
		return fmt.Errorf("failed to marshal operating hours: %w", err)
	}
	_, err = r.db.Exec(ctx, query, p.ID, p.BusinessID, p.PhoneNumber, p.DisplayName, p.Timezone,
		p.Status, p.IsPrimary, vs, cr, oh, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating phone number", "error", err, "phone_id", p.ID)
		return fmt.Errorf("failed to create phone number: %w", err)
	}
	r.logger.InfoContext(ctx, "Phone number created", "phone_id", p.ID, "business_id", p.BusinessID)
	return nil
}

func (r *PgPhoneNumberRepository) GetByIDAndOwner(ctx context.Context, phoneID, ownerUserID uuid.UUID) (*domain.PhoneNumber, error) {
	query := `
		SELECT ` + phoneColumns + `
		FROM phone_numbers p
		JOIN businesses b ON b.id = p.business_id
		WHERE p.id = $1 AND b.owner_user_id = $2
	`
	p, err := r.scanPhone(r.db.QueryRow(ctx, query, phoneID, ownerUserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting phone number", "error", err, "phone_id", phoneID)
		return nil, fmt.Errorf("failed to get phone number: %w", err)
	}
	return p, nil
}

func (r *PgPhoneNumberRepository) GetByID(ctx context.Context, phoneID uuid.UUID) (*domain.PhoneNumber, error) {
	query := `
		SELECT ` + phoneColumns + `
		FROM phone_numbers p
		WHERE p.id = $1
	`
	p, err := r.scanPhone(r.db.QueryRow(ctx, query, phoneID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting phone number by id", "error", err, "phone_id", phoneID)
		return nil, fmt.Errorf("failed to get phone number: %w", err)
	}
	return p, nil
}

func (r *PgPhoneNumberRepository) ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]*domain.PhoneNumber, error) {
	query := `
		SELECT ` + phoneColumns + `
		FROM phone_numbers p
		JOIN businesses b ON b.id = p.business_id
		WHERE b.owner_user_id = $1
		ORDER BY p.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, ownerUserID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing phone numbers", "error", err, "owner_user_id", ownerUserID)
		return nil, fmt.Errorf("failed to list phone numbers: %w", err)
	}
	defer rows.Close()

	var phones []*domain.PhoneNumber
	for rows.Next() {
		p, err := r.scanPhone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan phone number row: %w", err)
		}
		phones = append(phones, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate phone number rows: %w", err)
	}
	return phones, nil
}

func (r *PgPhoneNumberRepository) updateColumn(ctx context.Context, phoneID, ownerUserID uuid.UUID, column string, data []byte, updatedAt time.Time) error {
	// column is one of three fixed literals below, never caller input.
	query := `
		UPDATE phone_numbers p
		SET ` + column + ` = $1, updated_at = $2
		FROM businesses b
		WHERE p.id = $3 AND b.id = p.business_id AND b.owner_user_id = $4
	`
	tag, err := r.db.Exec(ctx, query, data, updatedAt, phoneID, ownerUserID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating phone settings", "error", err, "phone_id", phoneID, "column", column)
		return fmt.Errorf("failed to update phone %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PgPhoneNumberRepository) UpdateVoiceSettings(ctx context.Context, phoneID, ownerUserID uuid.UUID, settings domain.VoiceSettings, updatedAt time.Time) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal voice settings: %w", err)
	}
	return r.updateColumn(ctx, phoneID, ownerUserID, "voice_settings", data, updatedAt)
}

func (r *PgPhoneNumberRepository) UpdateConversationRules(ctx context.Context, phoneID, ownerUserID uuid.UUID, rules domain.ConversationRules, updatedAt time.Time) error {
	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation rules: %w", err)
	}
	return r.updateColumn(ctx, phoneID, ownerUserID, "conversation_rules", data, updatedAt)
}

func (r *PgPhoneNumberRepository) UpdateOperatingHours(ctx context.Context, phoneID, ownerUserID uuid.UUID, hours []domain.OperatingHours, updatedAt time.Time) error {
	data, err := json.Marshal(hours)
	if err != nil {
		return fmt.Errorf("failed to marshal operating hours: %w", err)
	}
	return r.updateColumn(ctx, phoneID, ownerUserID, "operating_hours", data, updatedAt)
}

func (r *PgPhoneNumberRepository) SetPrimary(ctx context.Context, phoneID, ownerUserID uuid.UUID) (*domain.PhoneNumber, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin set-primary transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Clear the old primary and set the new one inside one transaction so the
	// at-most-one-primary invariant holds at every commit point.
	clearQuery := `
		UPDATE phone_numbers p
		SET is_primary = FALSE
		FROM businesses b
		WHERE b.id = p.business_id AND b.owner_user_id = $1 AND p.is_primary = TRUE
			AND p.business_id = (SELECT business_id FROM phone_numbers WHERE id = $2)
	`
	if _, err := tx.Exec(ctx, clearQuery, ownerUserID, phoneID); err != nil {
		r.logger.ErrorContext(ctx, "Error clearing previous primary phone", "error", err, "phone_id", phoneID)
		return nil, fmt.Errorf("failed to clear previous primary: %w", err)
	}

	setQuery := `
		UPDATE phone_numbers p
		SET is_primary = TRUE, updated_at = $1
		FROM businesses b
		WHERE p.id = $2 AND b.id = p.business_id AND b.owner_user_id = $3
	`
	tag, err := tx.Exec(ctx, setQuery, time.Now().UTC(), phoneID, ownerUserID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error setting primary phone", "error", err, "phone_id", phoneID)
		return nil, fmt.Errorf("failed to set primary phone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}

	p, err := r.scanPhone(tx.QueryRow(ctx, `
		SELECT `+phoneColumns+`
		FROM phone_numbers p
		WHERE p.id = $1
	`, phoneID))
	if err != nil {
		return nil, fmt.Errorf("failed to read phone after set-primary: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit set-primary transaction: %w", err)
	}
	r.logger.InfoContext(ctx, "Primary phone changed", "phone_id", phoneID, "business_id", p.BusinessID)
	return p, nil
}
