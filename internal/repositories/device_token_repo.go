package repositories

import (
	"context"

	"freshkeeper/internal/models"

	"github.com/google/uuid"
)

type DeviceTokenRepository interface {
	Upsert(ctx context.Context, token *models.UserDeviceToken) error
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.UserDeviceToken, error)
	Deactivate(ctx context.Context, userID uuid.UUID, token string) error
}

type deviceTokenRepo struct {
	db DB
}

func NewDeviceTokenRepo(db DB) DeviceTokenRepository {
	return &deviceTokenRepo{db: db}
}

func (r *deviceTokenRepo) Upsert(ctx context.Context, token *models.UserDeviceToken) error {
	query := `
		INSERT INTO user_device_tokens (id, user_id, token, platform, is_active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW())
		ON CONFLICT (user_id, token)
		DO UPDATE SET platform = EXCLUDED.platform, is_active = TRUE
	`
	_, err := r.db.Exec(ctx, query, token.ID, token.UserID, token.Token, token.Platform)
	return err
}

func (r *deviceTokenRepo) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.UserDeviceToken, error) {
	query := `
		SELECT id, user_id, token, platform, is_active, created_at
		FROM user_device_tokens
		WHERE user_id = $1 AND is_active = TRUE
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []models.UserDeviceToken{}
	for rows.Next() {
		token := models.UserDeviceToken{}
		if err := rows.Scan(&token.ID, &token.UserID, &token.Token, &token.Platform, &token.IsActive, &token.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func (r *deviceTokenRepo) Deactivate(ctx context.Context, userID uuid.UUID, token string) error {
	query := `UPDATE user_device_tokens SET is_active = FALSE WHERE user_id = $1 AND token = $2`
	_, err := r.db.Exec(ctx, query, userID, token)
	return err
}
