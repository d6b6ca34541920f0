package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"freshkeeper/internal/common"
	"freshkeeper/internal/models"
	"freshkeeper/internal/search"
	"freshkeeper/internal/services"

	"github.com/labstack/echo/v4"
)

// ProductHandlers handles product resolution and catalog endpoints.
type ProductHandlers struct {
	productService services.ProductService
	cache          RateLimiter
}

// RateLimiter throttles expensive search traffic per user.
type RateLimiter interface {
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

const (
	searchRateLimit  = 30
	searchRateWindow = time.Minute
)

func NewProductHandlers(productService services.ProductService, cache RateLimiter) *ProductHandlers {
	return &ProductHandlers{productService: productService, cache: cache}
}

// Search runs the resolution waterfall for a free-text query.
// GET /api/products/search?q=...&lang=es&mode=all
func (h *ProductHandlers) Search(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return common.SendValidationError(c, "q", "Query parameter q is required")
	}

	if h.cache != nil {
		limited, err := h.cache.IsRateLimited(c.Request().Context(), "search:"+userID.String(), searchRateLimit, searchRateWindow)
		if err != nil {
			log.Printf("rate limit check failed for user %s: %v", userID, err)
		} else if limited {
			return c.JSON(http.StatusTooManyRequests, common.CreateErrorResponse("RATE_LIMITED", "Too many searches, slow down", nil))
		}
	}

	language := c.QueryParam("lang")
	if language == "" {
		language = "es"
	}

	mode := search.Mode(c.QueryParam("mode"))
	switch mode {
	case search.ModeFast, search.ModeExternal, search.ModeAll:
	case "":
		mode = search.ModeAll
	default:
		return common.SendValidationError(c, "mode", "Mode must be one of fast, external, all")
	}

	resolution, err := h.productService.Search(c.Request().Context(), query, language, mode)
	if err != nil {
		log.Printf("search failed for %q: %v", query, err)
		return common.SendServerError(c, "Search failed")
	}

	return c.JSON(http.StatusOK, resolution)
}

// LookupBarcode resolves a barcode, persisting external hits locally.
// GET /api/products/barcode/:code
func (h *ProductHandlers) LookupBarcode(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return common.SendValidationError(c, "code", "Barcode is required")
	}

	product, err := h.productService.GetOrCreateByBarcode(c.Request().Context(), code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return common.SendNotFoundError(c, "Product")
		}
		log.Printf("barcode lookup failed for %s: %v", code, err)
		return common.SendServerError(c, "Barcode lookup failed")
	}

	return c.JSON(http.StatusOK, product)
}

// GetProduct fetches one product by ID.
func (h *ProductHandlers) GetProduct(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	product, err := h.productService.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return common.SendNotFoundError(c, "Product")
		}
		log.Printf("get product %s failed: %v", id, err)
		return common.SendServerError(c, "Failed to fetch product")
	}

	return c.JSON(http.StatusOK, product)
}

type createProductRequest struct {
	Name            string                  `json:"name"`
	Brand           *string                 `json:"brand"`
	Barcode         *string                 `json:"barcode"`
	Category        *string                 `json:"category"`
	Description     *string                 `json:"description"`
	ImageURL        *string                 `json:"image_url"`
	NutritionalInfo *models.NutritionalInfo `json:"nutritional_info"`
	Allergens       []string                `json:"allergens"`
}

// CreateProduct adds a manually entered product.
func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return common.SendValidationError(c, "name", "Product name is required")
	}

	product := &models.Product{
		Name:            strings.TrimSpace(req.Name),
		Brand:           req.Brand,
		Barcode:         req.Barcode,
		Category:        req.Category,
		Description:     req.Description,
		ImageURL:        req.ImageURL,
		NutritionalInfo: req.NutritionalInfo,
		Allergens:       req.Allergens,
	}

	if err := h.productService.CreateManual(c.Request().Context(), product); err != nil {
		if errors.Is(err, models.ErrBarcodeExists) {
			return common.SendConflictError(c, "Barcode already belongs to another product")
		}
		log.Printf("create product failed: %v", err)
		return common.SendServerError(c, "Failed to create product")
	}

	return c.JSON(http.StatusCreated, product)
}

// UploadImage attaches an image to a product.
// POST /api/products/:id/images (multipart, field "image")
func (h *ProductHandlers) UploadImage(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return common.SendValidationError(c, "image", "Image file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("open uploaded file failed: %v", err)
		return common.SendServerError(c, "Failed to read uploaded file")
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	image, err := h.productService.UploadImage(c.Request().Context(), id, fileHeader.Filename, file, fileHeader.Size, contentType)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return common.SendNotFoundError(c, "Product")
		}
		log.Printf("image upload for product %s failed: %v", id, err)
		return common.SendServerError(c, "Failed to store image")
	}

	return c.JSON(http.StatusCreated, image)
}

// ListImages returns a product's images with presigned URLs.
func (h *ProductHandlers) ListImages(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	images, urls, err := h.productService.ListImages(c.Request().Context(), id)
	if err != nil {
		log.Printf("list images for product %s failed: %v", id, err)
		return common.SendServerError(c, "Failed to list images")
	}

	items := make([]map[string]interface{}, 0, len(images))
	for i, img := range images {
		items = append(items, map[string]interface{}{
			"image": img,
			"url":   urls[i],
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"images": items})
}
