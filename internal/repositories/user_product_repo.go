package repositories

import (
	"context"
	"errors"

	"freshkeeper/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserProductRepository interface {
	// GetOrCreate returns the existing (user, product) row or inserts a
	// fresh one. Either way last_used is bumped to now.
	GetOrCreate(ctx context.Context, userID, productID uuid.UUID) (*models.UserProduct, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProduct, error)
	GetByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.UserProduct, error)
}

type userProductRepo struct {
	db DB
}

func NewUserProductRepo(db DB) UserProductRepository {
	return &userProductRepo{db: db}
}

const userProductColumns = `id, user_id, product_id, is_active, first_added, last_used`

func (r *userProductRepo) GetOrCreate(ctx context.Context, userID, productID uuid.UUID) (*models.UserProduct, error) {
	query := `
		INSERT INTO user_products (id, user_id, product_id, is_active, first_added, last_used)
		VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET last_used = NOW(), is_active = TRUE
		RETURNING ` + userProductColumns
	up := &models.UserProduct{}
	err := r.db.QueryRow(ctx, query, uuid.New(), userID, productID).
		Scan(&up.ID, &up.UserID, &up.ProductID, &up.IsActive, &up.FirstAdded, &up.LastUsed)
	if err != nil {
		return nil, err
	}
	return up, nil
}

func (r *userProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProduct, error) {
	query := `SELECT ` + userProductColumns + ` FROM user_products WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

func (r *userProductRepo) GetByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.UserProduct, error) {
	query := `SELECT ` + userProductColumns + ` FROM user_products WHERE user_id = $1 AND product_id = $2`
	return r.queryOne(ctx, query, userID, productID)
}

func (r *userProductRepo) queryOne(ctx context.Context, query string, args ...any) (*models.UserProduct, error) {
	up := &models.UserProduct{}
	err := r.db.QueryRow(ctx, query, args...).
		Scan(&up.ID, &up.UserID, &up.ProductID, &up.IsActive, &up.FirstAdded, &up.LastUsed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return up, nil
}
