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

type LocationRepository interface {
	Create(ctx context.Context, location *models.UserProductLocation) error
	// GetOwned returns an active (not removed) location row only when it
	// belongs to userID; (nil, nil) otherwise.
	GetOwned(ctx context.Context, userID, id uuid.UUID) (*models.UserProductLocation, error)
	Update(ctx context.Context, location *models.UserProductLocation) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, filter models.LocationFilter, limit, offset int) ([]models.UserProductLocation, error)
	ListExpiring(ctx context.Context, userID uuid.UUID, withinDays int) ([]models.UserProductLocation, error)
	CountActiveByList(ctx context.Context, userID uuid.UUID) (map[models.ListType]int, error)
}

type locationRepo struct {
	db DB
}

func NewLocationRepo(db DB) LocationRepository {
	return &locationRepo{db: db}
}

const locationColumns = `l.id, l.user_product_id, l.list_type, l.quantity, l.unit, l.purchase_date, l.expiry_date, l.price, l.store, l.notes, l.is_consumed, l.consumed_at, l.added_at, l.removed_at`

const locationJoinedColumns = locationColumns + `, p.id, p.barcode, p.name, p.brand, p.category, p.subcategory, p.description, p.ingredients, p.nutritional_info, p.allergens, p.image_url, p.source, p.is_verified, p.created_at, p.updated_at`

const locationJoin = `
	FROM user_product_locations l
	JOIN user_products up ON up.id = l.user_product_id
	JOIN products p ON p.id = up.product_id
`

func (r *locationRepo) Create(ctx context.Context, location *models.UserProductLocation) error {
	query := `
		INSERT INTO user_product_locations (id, user_product_id, list_type, quantity, unit, purchase_date, expiry_date, price, store, notes, is_consumed, consumed_at, added_at, removed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NULL)
	`
	_, err := r.db.Exec(ctx, query, location.ID, location.UserProductID, location.ListType, location.Quantity, location.Unit, location.PurchaseDate, location.ExpiryDate, location.Price, location.Store, location.Notes, location.IsConsumed, location.ConsumedAt)
	return err
}

func (r *locationRepo) GetOwned(ctx context.Context, userID, id uuid.UUID) (*models.UserProductLocation, error) {
	query := `SELECT ` + locationJoinedColumns + locationJoin + `
		WHERE l.id = $1 AND up.user_id = $2 AND l.removed_at IS NULL`
	location, err := scanLocation(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return location, nil
}

func (r *locationRepo) Update(ctx context.Context, location *models.UserProductLocation) error {
	query := `
		UPDATE user_product_locations
		SET list_type = $1, quantity = $2, unit = $3, purchase_date = $4, expiry_date = $5, price = $6, store = $7, notes = $8, is_consumed = $9, consumed_at = $10
		WHERE id = $11 AND removed_at IS NULL
	`
	_, err := r.db.Exec(ctx, query, location.ListType, location.Quantity, location.Unit, location.PurchaseDate, location.ExpiryDate, location.Price, location.Store, location.Notes, location.IsConsumed, location.ConsumedAt, location.ID)
	return err
}

func (r *locationRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE user_product_locations SET removed_at = NOW() WHERE id = $1 AND removed_at IS NULL`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *locationRepo) List(ctx context.Context, userID uuid.UUID, filter models.LocationFilter, limit, offset int) ([]models.UserProductLocation, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + locationJoinedColumns + locationJoin + `
		WHERE up.user_id = $1 AND l.removed_at IS NULL`
	args := []any{userID}

	if filter.IsConsumed != nil {
		args = append(args, *filter.IsConsumed)
		query += fmt.Sprintf(" AND l.is_consumed = $%d", len(args))
	} else {
		query += " AND l.is_consumed = FALSE"
	}
	if filter.ListType != nil {
		args = append(args, *filter.ListType)
		query += fmt.Sprintf(" AND l.list_type = $%d", len(args))
	}
	if filter.Category != nil {
		args = append(args, "%"+*filter.Category+"%")
		query += fmt.Sprintf(" AND p.category ILIKE $%d", len(args))
	}
	if filter.ExpiringBefore != nil {
		args = append(args, *filter.ExpiringBefore)
		query += fmt.Sprintf(" AND l.expiry_date IS NOT NULL AND l.expiry_date <= $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY l.added_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLocations(rows)
}

func (r *locationRepo) ListExpiring(ctx context.Context, userID uuid.UUID, withinDays int) ([]models.UserProductLocation, error) {
	query := `SELECT ` + locationJoinedColumns + locationJoin + `
		WHERE up.user_id = $1
		  AND l.removed_at IS NULL
		  AND l.is_consumed = FALSE
		  AND l.expiry_date IS NOT NULL
		  AND l.expiry_date >= NOW()
		  AND l.expiry_date <= NOW() + ($2 * INTERVAL '1 day')
		ORDER BY l.expiry_date ASC`
	rows, err := r.db.Query(ctx, query, userID, withinDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLocations(rows)
}

func (r *locationRepo) CountActiveByList(ctx context.Context, userID uuid.UUID) (map[models.ListType]int, error) {
	query := `
		SELECT l.list_type, COUNT(*)
		FROM user_product_locations l
		JOIN user_products up ON up.id = l.user_product_id
		WHERE up.user_id = $1 AND l.removed_at IS NULL AND l.is_consumed = FALSE
		GROUP BY l.list_type
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[models.ListType]int{}
	for rows.Next() {
		var listType models.ListType
		var count int
		if err := rows.Scan(&listType, &count); err != nil {
			return nil, err
		}
		counts[listType] = count
	}
	return counts, rows.Err()
}

func scanLocation(row rowScanner) (*models.UserProductLocation, error) {
	location := &models.UserProductLocation{}
	product := &models.Product{}
	var nutrition []byte
	err := row.Scan(
		&location.ID, &location.UserProductID, &location.ListType, &location.Quantity, &location.Unit,
		&location.PurchaseDate, &location.ExpiryDate, &location.Price, &location.Store, &location.Notes,
		&location.IsConsumed, &location.ConsumedAt, &location.AddedAt, &location.RemovedAt,
		&product.ID, &product.Barcode, &product.Name, &product.Brand, &product.Category,
		&product.Subcategory, &product.Description, &product.Ingredients, &nutrition,
		&product.Allergens, &product.ImageURL, &product.Source, &product.IsVerified,
		&product.CreatedAt, &product.UpdatedAt,
	)
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
	location.Product = product
	return location, nil
}

func scanLocations(rows pgx.Rows) ([]models.UserProductLocation, error) {
	locations := []models.UserProductLocation{}
	for rows.Next() {
		location, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, *location)
	}
	return locations, rows.Err()
}
