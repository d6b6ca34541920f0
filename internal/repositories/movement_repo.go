package repositories

import (
	"context"
	"fmt"

	"freshkeeper/internal/models"

	"github.com/google/uuid"
)

type MovementRepository interface {
	Create(ctx context.Context, movement *models.ItemMovement) error
	List(ctx context.Context, userID uuid.UUID, filter models.MovementFilter, limit, offset int) ([]models.ItemMovement, error)
}

type movementRepo struct {
	db DB
}

func NewMovementRepo(db DB) MovementRepository {
	return &movementRepo{db: db}
}

func (r *movementRepo) Create(ctx context.Context, movement *models.ItemMovement) error {
	query := `
		INSERT INTO item_movements (id, user_id, product_id, movement_type, quantity, from_list, to_list, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := r.db.Exec(ctx, query, movement.ID, movement.UserID, movement.ProductID, movement.MovementType, movement.Quantity, movement.FromList, movement.ToList, movement.Note)
	return err
}

func (r *movementRepo) List(ctx context.Context, userID uuid.UUID, filter models.MovementFilter, limit, offset int) ([]models.ItemMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, product_id, movement_type, quantity, from_list, to_list, note, created_at
		FROM item_movements
		WHERE user_id = $1`
	args := []any{userID}

	if filter.MovementType != nil {
		args = append(args, *filter.MovementType)
		query += fmt.Sprintf(" AND movement_type = $%d", len(args))
	}
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		query += fmt.Sprintf(" AND product_id = $%d", len(args))
	}
	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.ToDate != nil {
		args = append(args, *filter.ToDate)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := []models.ItemMovement{}
	for rows.Next() {
		movement := models.ItemMovement{}
		if err := rows.Scan(&movement.ID, &movement.UserID, &movement.ProductID, &movement.MovementType, &movement.Quantity, &movement.FromList, &movement.ToList, &movement.Note, &movement.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, movement)
	}
	return movements, rows.Err()
}
