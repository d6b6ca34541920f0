package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"freshkeeper/internal/common"
	"freshkeeper/internal/models"
	"freshkeeper/internal/services"

	"github.com/labstack/echo/v4"
)

// InventoryHandlers handles location, movement, and shopping list endpoints.
type InventoryHandlers struct {
	inventoryService services.InventoryService
	shoppingService  services.ShoppingListService
}

func NewInventoryHandlers(inventoryService services.InventoryService, shoppingService services.ShoppingListService) *InventoryHandlers {
	return &InventoryHandlers{
		inventoryService: inventoryService,
		shoppingService:  shoppingService,
	}
}

// AddLocation places a product in a location, resolving the product first
// when only a barcode or name is given.
// POST /api/inventory/locations
func (h *InventoryHandlers) AddLocation(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req models.AddLocationRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if req.ProductID == nil && req.Barcode == nil && req.ProductName == nil {
		return common.SendValidationError(c, "product", "One of product_id, barcode, or product_name is required")
	}
	if !models.ValidListType(string(req.ListType)) {
		return common.SendValidationError(c, "list_type", "List type must be one of fridge, freezer, pantry, shopping")
	}

	language := c.QueryParam("lang")
	if language == "" {
		language = "es"
	}

	location, err := h.inventoryService.AddLocation(c.Request().Context(), userID, &req, language)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidQuantity):
			return common.SendValidationError(c, "quantity", "Quantity must be positive")
		case errors.Is(err, models.ErrNotFound):
			return common.SendNotFoundError(c, "Product")
		}
		log.Printf("add location failed for user %s: %v", userID, err)
		return common.SendServerError(c, "Failed to add item")
	}

	return c.JSON(http.StatusCreated, location)
}

// ListLocations lists the user's active inventory with optional filters.
// GET /api/inventory/locations?list_type=&category=&consumed=&expiring_before=
func (h *InventoryHandlers) ListLocations(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var filter models.LocationFilter
	if raw := c.QueryParam("list_type"); raw != "" {
		if !models.ValidListType(raw) {
			return common.SendValidationError(c, "list_type", "Unknown list type")
		}
		lt := models.ListType(raw)
		filter.ListType = &lt
	}
	if raw := c.QueryParam("category"); raw != "" {
		filter.Category = &raw
	}
	if raw := c.QueryParam("consumed"); raw != "" {
		consumed, err := strconv.ParseBool(raw)
		if err != nil {
			return common.SendValidationError(c, "consumed", "Must be true or false")
		}
		filter.IsConsumed = &consumed
	}
	if raw := c.QueryParam("expiring_before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return common.SendValidationError(c, "expiring_before", "Must be an RFC3339 timestamp")
		}
		filter.ExpiringBefore = &t
	}

	limit, offset := common.ParsePagination(c)
	locations, err := h.inventoryService.ListLocations(c.Request().Context(), userID, filter, limit, offset)
	if err != nil {
		log.Printf("list locations failed for user %s: %v", userID, err)
		return common.SendServerError(c, "Failed to list inventory")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"locations": locations,
		"count":     len(locations),
	})
}

// UpdateLocation applies a partial update; list changes emit a movement.
// PUT /api/inventory/locations/:id
func (h *InventoryHandlers) UpdateLocation(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	locationID, err := common.ValidateUUID(c.Param("id"), "location id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req models.UpdateLocationRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if req.ListType != nil && !models.ValidListType(string(*req.ListType)) {
		return common.SendValidationError(c, "list_type", "Unknown list type")
	}

	location, err := h.inventoryService.UpdateLocation(c.Request().Context(), userID, locationID, &req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return common.SendNotFoundError(c, "Location")
		case errors.Is(err, models.ErrInvalidQuantity):
			return common.SendValidationError(c, "quantity", "Quantity cannot be negative")
		}
		log.Printf("update location %s failed: %v", locationID, err)
		return common.SendServerError(c, "Failed to update item")
	}

	return c.JSON(http.StatusOK, location)
}

// DeleteLocation soft deletes a location row.
// DELETE /api/inventory/locations/:id
func (h *InventoryHandlers) DeleteLocation(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	locationID, err := common.ValidateUUID(c.Param("id"), "location id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.inventoryService.DeleteLocation(c.Request().Context(), userID, locationID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return common.SendNotFoundError(c, "Location")
		}
		log.Printf("delete location %s failed: %v", locationID, err)
		return common.SendServerError(c, "Failed to remove item")
	}

	return c.NoContent(http.StatusNoContent)
}

type moveRequest struct {
	ListType models.ListType `json:"list_type"`
}

// MoveLocation relocates an item to another list. Sugar over UpdateLocation
// restricted to the list change.
// POST /api/inventory/locations/:id/move
func (h *InventoryHandlers) MoveLocation(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	locationID, err := common.ValidateUUID(c.Param("id"), "location id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if !models.ValidListType(string(req.ListType)) {
		return common.SendValidationError(c, "list_type", "List type must be one of fridge, freezer, pantry, shopping")
	}

	update := models.UpdateLocationRequest{ListType: &req.ListType}
	location, err := h.inventoryService.UpdateLocation(c.Request().Context(), userID, locationID, &update)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return common.SendNotFoundError(c, "Location")
		}
		log.Printf("move location %s failed: %v", locationID, err)
		return common.SendServerError(c, "Failed to move item")
	}

	return c.JSON(http.StatusOK, location)
}

type consumeRequest struct {
	Quantity float64 `json:"quantity"`
}

// ConsumeLocation consumes some or all of a location's quantity.
// POST /api/inventory/locations/:id/consume
func (h *InventoryHandlers) ConsumeLocation(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	locationID, err := common.ValidateUUID(c.Param("id"), "location id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req consumeRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}

	location, err := h.inventoryService.ConsumeLocation(c.Request().Context(), userID, locationID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return common.SendNotFoundError(c, "Location")
		case errors.Is(err, models.ErrInvalidQuantity):
			return common.SendValidationError(c, "quantity", "Quantity must be positive")
		case errors.Is(err, models.ErrAlreadyConsumed):
			return common.SendClientError(c, "Item is already consumed")
		}
		log.Printf("consume location %s failed: %v", locationID, err)
		return common.SendServerError(c, "Failed to consume item")
	}

	return c.JSON(http.StatusOK, location)
}

// ListExpiring lists active items expiring within the window.
// GET /api/inventory/expiring?days=7
func (h *InventoryHandlers) ListExpiring(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	days := 7
	if raw := c.QueryParam("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 365 {
			return common.SendValidationError(c, "days", "Days must be between 1 and 365")
		}
		days = parsed
	}

	locations, err := h.inventoryService.ListExpiring(c.Request().Context(), userID, days)
	if err != nil {
		log.Printf("list expiring failed for user %s: %v", userID, err)
		return common.SendServerError(c, "Failed to list expiring items")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"locations": locations,
		"count":     len(locations),
	})
}

// ListMovements returns the movement audit trail with optional filters.
// GET /api/inventory/movements?type=&product_id=&from=&to=
func (h *InventoryHandlers) ListMovements(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var filter models.MovementFilter
	if raw := c.QueryParam("type"); raw != "" {
		mt := models.MovementType(raw)
		switch mt {
		case models.MovementAdd, models.MovementMove, models.MovementConsume, models.MovementRemove:
			filter.MovementType = &mt
		default:
			return common.SendValidationError(c, "type", "Unknown movement type")
		}
	}
	if raw := c.QueryParam("product_id"); raw != "" {
		id, err := common.ValidateUUID(raw, "product_id")
		if err != nil {
			return common.SendValidationError(c, "product_id", err.Error())
		}
		filter.ProductID = &id
	}
	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return common.SendValidationError(c, "from", "Must be an RFC3339 timestamp")
		}
		filter.FromDate = &t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return common.SendValidationError(c, "to", "Must be an RFC3339 timestamp")
		}
		filter.ToDate = &t
	}

	limit, offset := common.ParsePagination(c)
	movements, err := h.inventoryService.ListMovements(c.Request().Context(), userID, filter, limit, offset)
	if err != nil {
		log.Printf("list movements failed for user %s: %v", userID, err)
		return common.SendServerError(c, "Failed to list movements")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"movements": movements,
		"count":     len(movements),
	})
}

// ExportShoppingListPDF renders the shopping list as a downloadable PDF.
// GET /api/inventory/shopping-list/pdf
func (h *InventoryHandlers) ExportShoppingListPDF(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	pdfBytes, err := h.shoppingService.ExportPDF(c.Request().Context(), userID)
	if err != nil {
		log.Printf("shopping list PDF failed for user %s: %v", userID, err)
		return common.SendServerError(c, "Failed to generate PDF")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="shopping-list.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", pdfBytes)
}
