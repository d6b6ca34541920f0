package handlers

import (
	"log"
	"net/http"
	"strings"

	"freshkeeper/internal/common"
	"freshkeeper/internal/models"
	"freshkeeper/internal/services"

	"github.com/labstack/echo/v4"
)

// NotificationHandlers handles device registration and notification history.
type NotificationHandlers struct {
	notificationService services.NotificationService
}

func NewNotificationHandlers(notificationService services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{notificationService: notificationService}
}

type registerDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// RegisterDevice stores or refreshes a push token for the user.
// POST /api/notifications/devices
func (h *NotificationHandlers) RegisterDevice(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req registerDeviceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Token) == "" {
		return common.SendValidationError(c, "token", "Device token is required")
	}

	platform := models.Platform(req.Platform)
	switch platform {
	case models.PlatformIOS, models.PlatformAndroid, models.PlatformWeb:
	default:
		return common.SendValidationError(c, "platform", "Platform must be one of ios, android, web")
	}

	if err := h.notificationService.RegisterDevice(c.Request().Context(), userID, req.Token, platform); err != nil {
		log.Printf("register device failed for user %s: %v", userID, err)
		return common.SendServerError(c, "Failed to register device")
	}

	return c.JSON(http.StatusCreated, map[string]string{"status": "registered"})
}

type unregisterDeviceRequest struct {
	Token string `json:"token"`
}

// UnregisterDevice deactivates a push token.
// DELETE /api/notifications/devices
func (h *NotificationHandlers) UnregisterDevice(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req unregisterDeviceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Token) == "" {
		return common.SendValidationError(c, "token", "Device token is required")
	}

	if err := h.notificationService.UnregisterDevice(c.Request().Context(), userID, req.Token); err != nil {
		log.Printf("unregister device failed for user %s: %v", userID, err)
		return common.SendServerError(c, "Failed to unregister device")
	}

	return c.NoContent(http.StatusNoContent)
}

// History lists notifications sent to the user, newest first.
// GET /api/notifications/history
func (h *NotificationHandlers) History(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset := common.ParsePagination(c)
	history, err := h.notificationService.History(c.Request().Context(), userID, limit, offset)
	if err != nil {
		log.Printf("notification history failed for user %s: %v", userID, err)
		return common.SendServerError(c, "Failed to list notifications")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": history,
		"count":         len(history),
	})
}
