package models

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies the push platform a device token belongs to.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// UserDeviceToken registers a device for expiry push notifications.
type UserDeviceToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	Platform  Platform  `json:"platform" db:"platform"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NotificationStatus is the delivery state of a recorded notification.
type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// NotificationHistory records every dispatched expiry notification so the
// sweep can avoid re-notifying the same item on the same day.
type NotificationHistory struct {
	ID         uuid.UUID          `json:"id" db:"id"`
	UserID     uuid.UUID          `json:"user_id" db:"user_id"`
	LocationID uuid.UUID          `json:"location_id" db:"location_id"`
	Title      string             `json:"title" db:"title"`
	Body       string             `json:"body" db:"body"`
	Status     NotificationStatus `json:"status" db:"status"`
	Error      *string            `json:"error" db:"error"`
	SentAt     time.Time          `json:"sent_at" db:"sent_at"`
}
