package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"freshkeeper/internal/models"
	"freshkeeper/internal/repositories"
)

// Dispatcher delivers a push notification to one device. The transport is
// pluggable; the default logs instead of sending.
type Dispatcher interface {
	Dispatch(ctx context.Context, token models.UserDeviceToken, title, body string) error
}

// LogDispatcher writes notifications to the process log. Used when no push
// provider is configured.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, token models.UserDeviceToken, title, body string) error {
	log.Printf("notification [%s/%s]: %s - %s", token.Platform, token.Token[:min(8, len(token.Token))], title, body)
	return nil
}

type NotificationService interface {
	RegisterDevice(ctx context.Context, userID uuid.UUID, token string, platform models.Platform) error
	UnregisterDevice(ctx context.Context, userID uuid.UUID, token string) error
	// NotifyExpiring sends a push per expiring location for the user,
	// skipping locations already notified today. Returns the number of
	// notifications dispatched.
	NotifyExpiring(ctx context.Context, userID uuid.UUID, withinDays int) (int, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.NotificationHistory, error)
}

type notificationService struct {
	inventory  InventoryService
	tokens     repositories.DeviceTokenRepository
	history    repositories.NotificationHistoryRepository
	dispatcher Dispatcher
}

func NewNotificationService(inventory InventoryService, tokens repositories.DeviceTokenRepository, history repositories.NotificationHistoryRepository, dispatcher Dispatcher) NotificationService {
	if dispatcher == nil {
		dispatcher = LogDispatcher{}
	}
	return &notificationService{
		inventory:  inventory,
		tokens:     tokens,
		history:    history,
		dispatcher: dispatcher,
	}
}

func (s *notificationService) RegisterDevice(ctx context.Context, userID uuid.UUID, token string, platform models.Platform) error {
	if token == "" {
		return fmt.Errorf("device token is required")
	}
	return s.tokens.Upsert(ctx, &models.UserDeviceToken{
		ID:       uuid.New(),
		UserID:   userID,
		Token:    token,
		Platform: platform,
	})
}

func (s *notificationService) UnregisterDevice(ctx context.Context, userID uuid.UUID, token string) error {
	return s.tokens.Deactivate(ctx, userID, token)
}

func (s *notificationService) NotifyExpiring(ctx context.Context, userID uuid.UUID, withinDays int) (int, error) {
	expiring, err := s.inventory.ListExpiring(ctx, userID, withinDays)
	if err != nil {
		return 0, err
	}
	if len(expiring) == 0 {
		return 0, nil
	}
	devices, err := s.tokens.ListActiveByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(devices) == 0 {
		return 0, nil
	}

	sent := 0
	for _, location := range expiring {
		alreadySent, err := s.history.SentToday(ctx, location.ID)
		if err != nil {
			return sent, err
		}
		if alreadySent {
			continue
		}

		title, body := expiryMessage(location)
		status := models.NotificationSent
		var dispatchErr *string
		for _, device := range devices {
			if err := s.dispatcher.Dispatch(ctx, device, title, body); err != nil {
				log.Printf("dispatch to %s device failed for user %s: %v", device.Platform, userID, err)
				status = models.NotificationFailed
				msg := err.Error()
				dispatchErr = &msg
			}
		}

		record := &models.NotificationHistory{
			ID:         uuid.New(),
			UserID:     userID,
			LocationID: location.ID,
			Title:      title,
			Body:       body,
			Status:     status,
			Error:      dispatchErr,
		}
		if err := s.history.Create(ctx, record); err != nil {
			log.Printf("failed to record notification for location %s: %v", location.ID, err)
		}
		if status == models.NotificationSent {
			sent++
		}
	}
	return sent, nil
}

func (s *notificationService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.NotificationHistory, error) {
	return s.history.ListByUser(ctx, userID, limit, offset)
}

func expiryMessage(location models.UserProductLocation) (string, string) {
	name := "Un producto"
	if location.Product != nil {
		name = location.Product.Name
	}
	if location.DaysUntilExpiry != nil {
		switch days := *location.DaysUntilExpiry; {
		case days <= 0:
			return "Producto caducado", fmt.Sprintf("%s ha caducado", name)
		case days == 1:
			return "Caduca mañana", fmt.Sprintf("%s caduca mañana", name)
		default:
			return "Caduca pronto", fmt.Sprintf("%s caduca en %d días", name, days)
		}
	}
	return "Caduca pronto", fmt.Sprintf("%s caduca pronto", name)
}
