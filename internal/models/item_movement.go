package models

import (
	"time"

	"github.com/google/uuid"
)

// MovementType classifies an inventory state transition.
type MovementType string

const (
	MovementAdd     MovementType = "add"
	MovementMove    MovementType = "move"
	MovementConsume MovementType = "consume"
	MovementRemove  MovementType = "remove"
)

// ItemMovement is an append-only audit record of a state transition.
// Movements are never mutated or deleted; they exist for history views
// and the dashboard, not for correctness.
type ItemMovement struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	UserID       uuid.UUID    `json:"user_id" db:"user_id"`
	ProductID    uuid.UUID    `json:"product_id" db:"product_id"`
	MovementType MovementType `json:"movement_type" db:"movement_type"`
	Quantity     float64      `json:"quantity" db:"quantity"`
	FromList     *ListType    `json:"from_list" db:"from_list"`
	ToList       *ListType    `json:"to_list" db:"to_list"`
	Note         *string      `json:"note" db:"note"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

// MovementFilter narrows movement history queries.
type MovementFilter struct {
	MovementType *MovementType `json:"movement_type,omitempty"`
	ProductID    *uuid.UUID    `json:"product_id,omitempty"`
	FromDate     *time.Time    `json:"from_date,omitempty"`
	ToDate       *time.Time    `json:"to_date,omitempty"`
}
