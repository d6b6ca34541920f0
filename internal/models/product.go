package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductSource records where a canonical product record came from.
type ProductSource string

const (
	SourceExternalCatalog ProductSource = "external_catalog"
	SourceManualEntry     ProductSource = "manual_entry"
	SourceGenerative      ProductSource = "generative_fallback"
)

// NutritionalInfo holds per-100g estimates. Every field is optional since
// external records are frequently incomplete and generated records only
// carry the seven core fields.
type NutritionalInfo struct {
	Calories      *float64 `json:"calories,omitempty"`
	Protein       *float64 `json:"protein,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty"`
	Fat           *float64 `json:"fat,omitempty"`
	Fiber         *float64 `json:"fiber,omitempty"`
	Sugar         *float64 `json:"sugar,omitempty"`
	Sodium        *float64 `json:"sodium,omitempty"`
	SaturatedFat  *float64 `json:"saturated_fat,omitempty"`
	TransFat      *float64 `json:"trans_fat,omitempty"`
	Cholesterol   *float64 `json:"cholesterol,omitempty"`
	Calcium       *float64 `json:"calcium,omitempty"`
	Iron          *float64 `json:"iron,omitempty"`
	VitaminC      *float64 `json:"vitamin_c,omitempty"`
	VitaminA      *float64 `json:"vitamin_a,omitempty"`
}

// Product is a canonical catalog entry shared across users. Barcode is
// globally unique when present. Products are never hard-deleted because
// item movements reference them.
type Product struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	Barcode         *string          `json:"barcode" db:"barcode"`
	Name            string           `json:"name" db:"name"`
	Brand           *string          `json:"brand" db:"brand"`
	Category        *string          `json:"category" db:"category"`
	Subcategory     *string          `json:"subcategory" db:"subcategory"`
	Description     *string          `json:"description" db:"description"`
	Ingredients     *string          `json:"ingredients" db:"ingredients"`
	NutritionalInfo *NutritionalInfo `json:"nutritional_info" db:"nutritional_info"`
	Allergens       []string         `json:"allergens" db:"allergens"`
	ImageURL        *string          `json:"image_url" db:"image_url"`
	Source          ProductSource    `json:"source" db:"source"`
	IsVerified      bool             `json:"is_verified" db:"is_verified"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

// IsGenerativePlaceholder reports whether the record is a low-quality
// generated stub: no image and no description. The resolution engine skips
// these on exact match so an earlier bad generation cannot poison later
// searches.
func (p *Product) IsGenerativePlaceholder() bool {
	return p.Source == SourceGenerative && p.ImageURL == nil && p.Description == nil
}

// ProductImage is stored object metadata for a manually uploaded product
// photo. The object key, not a full URL, is persisted; presigned URLs are
// minted on read.
type ProductImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	ObjectKey string    `json:"object_key" db:"object_key"`
	AltText   *string   `json:"alt_text" db:"alt_text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
