package repositories

import (
	"context"

	"freshkeeper/internal/models"

	"github.com/google/uuid"
)

type ProductImageRepository interface {
	Create(ctx context.Context, image *models.ProductImage) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productImageRepo struct {
	db DB
}

func NewProductImageRepo(db DB) ProductImageRepository {
	return &productImageRepo{db: db}
}

func (r *productImageRepo) Create(ctx context.Context, image *models.ProductImage) error {
	query := `
		INSERT INTO product_images (id, product_id, object_key, alt_text, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	_, err := r.db.Exec(ctx, query, image.ID, image.ProductID, image.ObjectKey, image.AltText)
	return err
}

func (r *productImageRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	query := `
		SELECT id, product_id, object_key, alt_text, created_at
		FROM product_images
		WHERE product_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []models.ProductImage{}
	for rows.Next() {
		image := models.ProductImage{}
		if err := rows.Scan(&image.ID, &image.ProductID, &image.ObjectKey, &image.AltText, &image.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

func (r *productImageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM product_images WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
