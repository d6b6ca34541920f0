package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"freshkeeper/internal/caching"
	"freshkeeper/internal/models"
	"freshkeeper/internal/repositories"
	"freshkeeper/internal/search"
	"freshkeeper/internal/storage"
)

const (
	productCacheTTL  = 30 * time.Minute
	presignedExpiry  = 15 * time.Minute
	imageUploadLimit = int64(10 << 20)
)

// SearchEngine is the resolution waterfall as the services consume it.
// Satisfied by *search.Engine.
type SearchEngine interface {
	Resolve(ctx context.Context, query, language string, mode search.Mode) (*search.Resolution, error)
	ResolveBarcode(ctx context.Context, barcode string) (*search.Resolution, error)
}

type ProductService interface {
	Search(ctx context.Context, query, language string, mode search.Mode) (*search.Resolution, error)
	// GetOrCreateByBarcode resolves a barcode through the waterfall and
	// persists an external hit locally so the next scan is a local hit.
	GetOrCreateByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateManual(ctx context.Context, product *models.Product) error
	// PersistResolved writes an externally or generatively resolved
	// product into the local store, deduplicating by barcode.
	PersistResolved(ctx context.Context, product *models.Product) (*models.Product, error)
	ResolveForInventory(ctx context.Context, req *models.AddLocationRequest, language string) (*models.Product, error)
	UploadImage(ctx context.Context, productID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (*models.ProductImage, error)
	ListImages(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, []string, error)
}

type productService struct {
	products repositories.ProductRepository
	images   repositories.ProductImageRepository
	engine   SearchEngine
	cache    caching.CacheService
	storage  storage.ImageStorage
}

func NewProductService(products repositories.ProductRepository, images repositories.ProductImageRepository, engine SearchEngine, cache caching.CacheService, imageStorage storage.ImageStorage) ProductService {
	return &productService{
		products: products,
		images:   images,
		engine:   engine,
		cache:    cache,
		storage:  imageStorage,
	}
}

func (s *productService) Search(ctx context.Context, query, language string, mode search.Mode) (*search.Resolution, error) {
	return s.engine.Resolve(ctx, query, language, mode)
}

func (s *productService) GetOrCreateByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	resolution, err := s.engine.ResolveBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if resolution.Decision != search.DecisionFound {
		return nil, models.ErrNotFound
	}
	if resolution.Source == search.ResolutionLocal {
		return resolution.Product, nil
	}
	return s.PersistResolved(ctx, resolution.Product)
}

func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.cache != nil {
		cached, err := s.cache.GetProduct(ctx, id)
		if err != nil {
			log.Printf("product cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, models.ErrNotFound
	}
	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, product, productCacheTTL); err != nil {
			log.Printf("product cache write failed: %v", err)
		}
	}
	return product, nil
}

func (s *productService) CreateManual(ctx context.Context, product *models.Product) error {
	if product.Barcode != nil {
		existing, err := s.products.FindByBarcode(ctx, *product.Barcode)
		if err != nil {
			return err
		}
		if existing != nil {
			return models.ErrBarcodeExists
		}
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.Allergens == nil {
		product.Allergens = []string{}
	}
	product.Source = models.SourceManualEntry
	product.IsVerified = true
	return s.products.Create(ctx, product)
}

func (s *productService) PersistResolved(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.Barcode != nil {
		existing, err := s.products.FindByBarcode(ctx, *product.Barcode)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.Allergens == nil {
		product.Allergens = []string{}
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// ResolveForInventory turns an add-to-inventory request into a concrete
// product: direct id, barcode waterfall, or name resolution in that order.
// Generated products are persisted so the location row has something to
// reference.
func (s *productService) ResolveForInventory(ctx context.Context, req *models.AddLocationRequest, language string) (*models.Product, error) {
	if req.ProductID != nil {
		return s.GetByID(ctx, *req.ProductID)
	}
	if req.Barcode != nil {
		product, err := s.GetOrCreateByBarcode(ctx, *req.Barcode)
		if err == nil {
			return product, nil
		}
		if err != models.ErrNotFound {
			return nil, err
		}
		// Unknown barcode, fall back to the name if one was given.
	}
	if req.ProductName == nil {
		return nil, models.ErrNotFound
	}

	resolution, err := s.engine.Resolve(ctx, *req.ProductName, language, search.ModeAll)
	if err != nil {
		return nil, err
	}
	switch resolution.Decision {
	case search.DecisionFound, search.DecisionGenerated:
		if resolution.Source == search.ResolutionLocal {
			return resolution.Product, nil
		}
		return s.PersistResolved(ctx, resolution.Product)
	case search.DecisionList:
		if len(resolution.Products) > 0 {
			candidate := resolution.Products[0]
			if resolution.Source == search.ResolutionLocal {
				return &candidate, nil
			}
			return s.PersistResolved(ctx, &candidate)
		}
	}
	return nil, models.ErrNotFound
}

func (s *productService) UploadImage(ctx context.Context, productID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (*models.ProductImage, error) {
	if size > imageUploadLimit {
		return nil, fmt.Errorf("image exceeds %d byte limit", imageUploadLimit)
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, models.ErrNotFound
	}

	objectKey := fmt.Sprintf("products/%s/%s-%s", productID, uuid.New().String()[:8], filename)
	if err := s.storage.Upload(ctx, objectKey, reader, size, contentType); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	image := &models.ProductImage{
		ID:        uuid.New(),
		ProductID: productID,
		ObjectKey: objectKey,
	}
	if err := s.images.Create(ctx, image); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.DeleteProduct(ctx, productID); err != nil {
			log.Printf("product cache invalidation failed: %v", err)
		}
	}
	return image, nil
}

// ListImages returns stored image rows plus presigned URLs in the same
// order. A presign failure skips the URL rather than failing the listing.
func (s *productService) ListImages(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, []string, error) {
	images, err := s.images.ListByProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	urls := make([]string, len(images))
	for i, image := range images {
		url, err := s.storage.PresignedURL(ctx, image.ObjectKey, presignedExpiry)
		if err != nil {
			log.Printf("presign failed for %s: %v", image.ObjectKey, err)
			continue
		}
		urls[i] = url
	}
	return images, urls, nil
}
