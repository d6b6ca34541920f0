// Package jobs defines the asynq task types and handlers that run the
// expiry notification pipeline off the request path.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"freshkeeper/internal/services"
)

const TypeExpiryNotify = "expiry_notify"

// ExpiryNotifyPayload is the per-user unit of work enqueued by the sweep.
type ExpiryNotifyPayload struct {
	UserID     uuid.UUID `json:"user_id"`
	WithinDays int       `json:"within_days"`
}

func NewExpiryNotifyTask(userID uuid.UUID, withinDays int) (*asynq.Task, error) {
	payload := ExpiryNotifyPayload{UserID: userID, WithinDays: withinDays}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeExpiryNotify, data), nil
}

// ExpiryNotifier processes expiry notification tasks.
type ExpiryNotifier struct {
	notifications services.NotificationService
}

func NewExpiryNotifier(notifications services.NotificationService) *ExpiryNotifier {
	return &ExpiryNotifier{notifications: notifications}
}

func (n *ExpiryNotifier) HandleExpiryNotify(ctx context.Context, t *asynq.Task) error {
	var payload ExpiryNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal expiry payload: %w", err)
	}

	sent, err := n.notifications.NotifyExpiring(ctx, payload.UserID, payload.WithinDays)
	if err != nil {
		return fmt.Errorf("expiry notification for user %s failed: %w", payload.UserID, err)
	}
	if sent > 0 {
		log.Printf("sent %d expiry notifications to user %s", sent, payload.UserID)
	}
	return nil
}

// RegisterHandlers wires task handlers onto an asynq mux.
func RegisterHandlers(mux *asynq.ServeMux, notifier *ExpiryNotifier) {
	mux.HandleFunc(TypeExpiryNotify, notifier.HandleExpiryNotify)
}
