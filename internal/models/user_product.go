package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// ListType is where a quantity of a product physically sits.
type ListType string

const (
	ListFridge   ListType = "fridge"
	ListFreezer  ListType = "freezer"
	ListPantry   ListType = "pantry"
	ListShopping ListType = "shopping"
)

// ValidListType reports whether s names a known location.
func ValidListType(s string) bool {
	switch ListType(s) {
	case ListFridge, ListFreezer, ListPantry, ListShopping:
		return true
	}
	return false
}

// UserProduct links a user to a canonical product and tracks aggregate
// usage. Exactly one row exists per (user, product) pair; it is created
// lazily the first time the user places the product anywhere.
type UserProduct struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	ProductID  uuid.UUID `json:"product_id" db:"product_id"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	FirstAdded time.Time `json:"first_added" db:"first_added"`
	LastUsed   time.Time `json:"last_used" db:"last_used"`
}

// UserProductLocation is a quantity of a user's product sitting in one
// location. Removal is a soft delete via RemovedAt so movement history
// stays intact; rows with RemovedAt set are excluded from every active
// query.
type UserProductLocation struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserProductID uuid.UUID  `json:"user_product_id" db:"user_product_id"`
	ListType      ListType   `json:"list_type" db:"list_type"`
	Quantity      float64    `json:"quantity" db:"quantity"`
	Unit          string     `json:"unit" db:"unit"`
	PurchaseDate  *time.Time `json:"purchase_date" db:"purchase_date"`
	ExpiryDate    *time.Time `json:"expiry_date" db:"expiry_date"`
	Price         *float64   `json:"price" db:"price"`
	Store         *string    `json:"store" db:"store"`
	Notes         *string    `json:"notes" db:"notes"`
	IsConsumed    bool       `json:"is_consumed" db:"is_consumed"`
	ConsumedAt    *time.Time `json:"consumed_at" db:"consumed_at"`
	AddedAt       time.Time  `json:"added_at" db:"added_at"`
	RemovedAt     *time.Time `json:"removed_at" db:"removed_at"`

	// Joined and computed fields, populated on read.
	Product        *Product `json:"product,omitempty" db:"-"`
	DaysUntilExpiry *int    `json:"days_until_expiry" db:"-"`
	IsExpiringSoon  bool    `json:"is_expiring_soon" db:"-"`
}

// expiringSoonDays is the urgency window used for IsExpiringSoon.
const expiringSoonDays = 3

// AnnotateExpiry fills DaysUntilExpiry (ceiling of the remaining time in
// days) and IsExpiringSoon relative to now. Rows without an expiry date
// get a nil count and are never "expiring soon".
func (l *UserProductLocation) AnnotateExpiry(now time.Time) {
	if l.ExpiryDate == nil {
		l.DaysUntilExpiry = nil
		l.IsExpiringSoon = false
		return
	}
	days := int(math.Ceil(l.ExpiryDate.Sub(now).Hours() / 24))
	l.DaysUntilExpiry = &days
	l.IsExpiringSoon = days <= expiringSoonDays
}

// LocationFilter narrows ListLocations results.
type LocationFilter struct {
	ListType       *ListType  `json:"list_type,omitempty"`
	Category       *string    `json:"category,omitempty"`
	IsConsumed     *bool      `json:"is_consumed,omitempty"`
	ExpiringBefore *time.Time `json:"expiring_before,omitempty"`
}

// AddLocationRequest carries everything needed to place a product. Exactly
// one of ProductID, Barcode, or ProductName must identify the product;
// when ProductID is absent the service resolves or creates one.
type AddLocationRequest struct {
	ProductID    *uuid.UUID `json:"product_id"`
	Barcode      *string    `json:"barcode"`
	ProductName  *string    `json:"product_name"`
	ListType     ListType   `json:"list_type"`
	Quantity     float64    `json:"quantity"`
	Unit         string     `json:"unit"`
	PurchaseDate *time.Time `json:"purchase_date"`
	ExpiryDate   *time.Time `json:"expiry_date"`
	Price        *float64   `json:"price"`
	Store        *string    `json:"store"`
	Notes        *string    `json:"notes"`
}

// UpdateLocationRequest carries partial updates. Nil fields are left
// untouched. Setting ListType is a move and emits a movement record;
// setting IsConsumed true consumes the row.
type UpdateLocationRequest struct {
	Quantity   *float64   `json:"quantity"`
	Unit       *string    `json:"unit"`
	ListType   *ListType  `json:"list_type"`
	ExpiryDate *time.Time `json:"expiry_date"`
	Price      *float64   `json:"price"`
	Store      *string    `json:"store"`
	Notes      *string    `json:"notes"`
	IsConsumed *bool      `json:"is_consumed"`
}
