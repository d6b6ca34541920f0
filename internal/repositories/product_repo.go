package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"freshkeeper/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	FindByNameExact(ctx context.Context, name string) (*models.Product, error)
	SearchFuzzy(ctx context.Context, query string, prefixOnly, includeCategory bool, limit int) ([]models.Product, error)
	List(ctx context.Context, limit, offset int) ([]models.Product, error)
}

type productRepo struct {
	db DB
}

func NewProductRepo(db DB) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `id, barcode, name, brand, category, subcategory, description, ingredients, nutritional_info, allergens, image_url, source, is_verified, created_at, updated_at`

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	nutrition, err := marshalNutrition(product.NutritionalInfo)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO products (id, barcode, name, brand, category, subcategory, description, ingredients, nutritional_info, allergens, image_url, source, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query, product.ID, product.Barcode, product.Name, product.Brand, product.Category, product.Subcategory, product.Description, product.Ingredients, nutrition, product.Allergens, product.ImageURL, product.Source, product.IsVerified)
	return err
}

func (r *productRepo) Update(ctx context.Context, product *models.Product) error {
	nutrition, err := marshalNutrition(product.NutritionalInfo)
	if err != nil {
		return err
	}
	query := `
		UPDATE products
		SET barcode = $1, name = $2, brand = $3, category = $4, subcategory = $5, description = $6, ingredients = $7, nutritional_info = $8, allergens = $9, image_url = $10, source = $11, is_verified = $12, updated_at = NOW()
		WHERE id = $13
	`
	_, err = r.db.Exec(ctx, query, product.Barcode, product.Name, product.Brand, product.Category, product.Subcategory, product.Description, product.Ingredients, nutrition, product.Allergens, product.ImageURL, product.Source, product.IsVerified, product.ID)
	return err
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	return r.queryOne(ctx, query, id)
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE barcode = $1`, productColumns)
	return r.queryOne(ctx, query, barcode)
}

func (r *productRepo) FindByNameExact(ctx context.Context, name string) (*models.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE LOWER(name) = LOWER($1) ORDER BY is_verified DESC, created_at ASC LIMIT 1`, productColumns)
	return r.queryOne(ctx, query, name)
}

// SearchFuzzy matches name and brand, plus category unless excluded by the
// caller. Short queries use prefix matching to keep single letters from
// matching everything.
func (r *productRepo) SearchFuzzy(ctx context.Context, query string, prefixOnly, includeCategory bool, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + query + "%"
	if prefixOnly {
		pattern = query + "%"
	}
	sql := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE name ILIKE $1 OR brand ILIKE $1
		ORDER BY is_verified DESC, name ASC
		LIMIT $2
	`, productColumns)
	if includeCategory {
		sql = fmt.Sprintf(`
		SELECT %s FROM products
		WHERE name ILIKE $1 OR brand ILIKE $1 OR category ILIKE $1
		ORDER BY is_verified DESC, name ASC
		LIMIT $2
	`, productColumns)
	}
	rows, err := r.db.Query(ctx, sql, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *productRepo) List(ctx context.Context, limit, offset int) ([]models.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`, productColumns)
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *productRepo) queryOne(ctx context.Context, query string, args ...any) (*models.Product, error) {
	product, err := scanProduct(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return product, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	product := &models.Product{}
	var nutrition []byte
	err := row.Scan(&product.ID, &product.Barcode, &product.Name, &product.Brand, &product.Category, &product.Subcategory, &product.Description, &product.Ingredients, &nutrition, &product.Allergens, &product.ImageURL, &product.Source, &product.IsVerified, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(nutrition) > 0 {
		info := &models.NutritionalInfo{}
		if err := json.Unmarshal(nutrition, info); err != nil {
			return nil, fmt.Errorf("failed to decode nutritional info: %w", err)
		}
		product.NutritionalInfo = info
	}
	return product, nil
}

func scanProducts(rows pgx.Rows) ([]models.Product, error) {
	products := []models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, rows.Err()
}

func marshalNutrition(info *models.NutritionalInfo) ([]byte, error) {
	if info == nil {
		return nil, nil
	}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to encode nutritional info: %w", err)
	}
	return data, nil
}
