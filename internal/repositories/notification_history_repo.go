package repositories

import (
	"context"

	"freshkeeper/internal/models"

	"github.com/google/uuid"
)

type NotificationHistoryRepository interface {
	Create(ctx context.Context, record *models.NotificationHistory) error
	// SentToday reports whether a notification for the location was
	// already recorded since midnight, so daily sweeps don't repeat.
	SentToday(ctx context.Context, locationID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.NotificationHistory, error)
}

type notificationHistoryRepo struct {
	db DB
}

func NewNotificationHistoryRepo(db DB) NotificationHistoryRepository {
	return &notificationHistoryRepo{db: db}
}

func (r *notificationHistoryRepo) Create(ctx context.Context, record *models.NotificationHistory) error {
	query := `
		INSERT INTO notification_history (id, user_id, location_id, title, body, status, error, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := r.db.Exec(ctx, query, record.ID, record.UserID, record.LocationID, record.Title, record.Body, record.Status, record.Error)
	return err
}

func (r *notificationHistoryRepo) SentToday(ctx context.Context, locationID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notification_history
			WHERE location_id = $1 AND status = 'sent' AND sent_at >= date_trunc('day', NOW())
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, locationID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *notificationHistoryRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.NotificationHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, location_id, title, body, status, error, sent_at
		FROM notification_history
		WHERE user_id = $1
		ORDER BY sent_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.NotificationHistory{}
	for rows.Next() {
		record := models.NotificationHistory{}
		if err := rows.Scan(&record.ID, &record.UserID, &record.LocationID, &record.Title, &record.Body, &record.Status, &record.Error, &record.SentAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
